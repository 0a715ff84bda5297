package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnect_RejectsEmptyDSN(t *testing.T) {
	_, err := Connect(context.Background(), "   ")
	require.Error(t, err)
}

func TestConnectOptional_EmptyDSNFallsBack(t *testing.T) {
	var buf bytes.Buffer
	db, cleanup := ConnectOptional(context.Background(), "", slog.New(slog.NewTextHandler(&buf, nil)))

	require.Nil(t, db)
	require.NotNil(t, cleanup)
	cleanup()
	require.Contains(t, buf.String(), "in-memory appointment store")
}
