package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	schedtypes "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application/types"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
)

type normalizedCreateInput struct {
	UserID   string             `json:"userId"`
	PetID    string             `json:"petId"`
	Services []string           `json:"services"`
	From     string             `json:"from"`
	To       string             `json:"to"`
	Payment  *normalizedPayment `json:"payment"`
}

type normalizedPayment struct {
	Method    string `json:"method"`
	CardLast4 string `json:"cardLast4"`
	Expiry    string `json:"expiry"`
}

// FingerprintCreate builds a deterministic hash of a booking request (excluding the idempotency key).
// Only the masked card survives, so the hash never depends on the full card number or CVV.
func FingerprintCreate(input schedtypes.CreateAppointmentInput) (string, error) {
	payload, err := json.Marshal(normalizeCreateInput(input))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizeCreateInput(input schedtypes.CreateAppointmentInput) normalizedCreateInput {
	req := input.Request
	services := domain.NormalizeServices(req.Services)
	names := make([]string, 0, len(services))
	for _, svc := range services {
		names = append(names, string(svc))
	}
	normalized := normalizedCreateInput{
		UserID:   strings.TrimSpace(input.Session.UserID),
		PetID:    strings.TrimSpace(req.PetID),
		Services: names,
		From:     req.From.UTC().Format(time.RFC3339Nano),
		To:       req.To.UTC().Format(time.RFC3339Nano),
	}
	if req.Payment != nil {
		record := req.Payment.Record(domain.BookingFee)
		normalized.Payment = &normalizedPayment{
			Method:    record.Method,
			CardLast4: record.CardLast4,
			Expiry:    record.Expiry,
		}
	}
	return normalized
}
