// Package testutil provides testing utilities for kite
package testutil

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/eljefe6a/kite/pkg/schema"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// MustParseSchema parses an entity schema and fails the test on error.
func MustParseSchema(t *testing.T, schemaJSON string) *schema.EntitySchema {
	t.Helper()
	es, err := schema.Parse(schemaJSON)
	if err != nil {
		t.Fatalf("failed to parse schema: %v", err)
	}
	return es
}
