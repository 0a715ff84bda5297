// Package errors renders failures as RFC 7807 problem documents.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail is the body of an application/problem+json response.
type ProblemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (p ProblemDetail) Error() string {
	if p.Detail == "" {
		return p.Title
	}
	return fmt.Sprintf("%s: %s", p.Title, p.Detail)
}

// WithDetail returns a copy carrying an occurrence-specific message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with one more extension member. The receiver's
// map is never mutated, so templates stay safe to share.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	ext := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		ext[k] = v
	}
	ext[key] = value
	p.Extensions = ext
	return p
}

// Problem type references, relative to the responder's base URI.
const (
	TypeValidation   = "/problems/validation-error"
	TypeBadRequest   = "/problems/bad-request"
	TypeUnauthorized = "/problems/unauthorized"
	TypeNotFound     = "/problems/not-found"
	TypeConflict     = "/problems/conflict"
	TypeSlotConflict = "/problems/slot-conflict"
	TypeEditWindow   = "/problems/edit-window-closed"
	TypeUpstream     = "/problems/upstream-failure"
	TypeInternal     = "/problems/internal-error"
)

func template(typ, title string, status int) ProblemDetail {
	return ProblemDetail{Type: typ, Title: title, Status: status}
}

var (
	ErrValidation   = template(TypeValidation, "Validation Error", http.StatusBadRequest)
	ErrBadRequest   = template(TypeBadRequest, "Bad Request", http.StatusBadRequest)
	ErrUnauthorized = template(TypeUnauthorized, "Unauthorized", http.StatusUnauthorized)
	ErrNotFound     = template(TypeNotFound, "Resource Not Found", http.StatusNotFound)
	ErrConflict     = template(TypeConflict, "Conflict", http.StatusConflict)
	ErrInternal     = template(TypeInternal, "Internal Server Error", http.StatusInternalServerError)

	// ErrSlotConflict: the chosen slot was taken or withdrawn before the write landed.
	ErrSlotConflict = template(TypeSlotConflict, "Time Slot Unavailable", http.StatusConflict)
	// ErrEditWindowClosed: the appointment starts too soon to be changed.
	ErrEditWindowClosed = template(TypeEditWindow, "Edit Window Closed", http.StatusUnprocessableEntity)
	// ErrUpstream: the slot source or appointment store failed.
	ErrUpstream = template(TypeUpstream, "Upstream Failure", http.StatusBadGateway)
)
