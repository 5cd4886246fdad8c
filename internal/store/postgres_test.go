//go:build integration

package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
)

// run with: DATABASE_URL=postgres://... go test -tags integration ./internal/store/...
func setupPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL is not set")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, PostgresConfig{DatabaseURL: databaseURL})
	if err != nil {
		t.Fatalf("NewPostgresStore() error: %v", err)
	}
	t.Cleanup(s.Close)

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	return s
}

func TestPostgresStore_RecordEnvelope(t *testing.T) {
	s := setupPostgresStore(t)
	ctx := context.Background()
	id := uuid.NewString()

	dup, err := s.RecordEnvelope(ctx, id, "sender")
	if err != nil || dup {
		t.Fatalf("first RecordEnvelope() = %v, %v, want false, nil", dup, err)
	}
	dup, err = s.RecordEnvelope(ctx, id, "sender")
	if err != nil || !dup {
		t.Fatalf("second RecordEnvelope() = %v, %v, want true, nil", dup, err)
	}
}

func TestPostgresStore_Submissions(t *testing.T) {
	s := setupPostgresStore(t)
	ctx := context.Background()
	sig := uuid.NewString()

	if _, err := s.GetSubmission(ctx, sig); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.RecordSubmission(ctx, Submission{Signature: sig, Status: SubmissionUnknown, Error: "timeout"}); err != nil {
		t.Fatalf("RecordSubmission() error: %v", err)
	}
	if err := s.RecordSubmission(ctx, Submission{Signature: sig, Status: SubmissionConfirmed}); err != nil {
		t.Fatalf("RecordSubmission() error: %v", err)
	}

	got, err := s.GetSubmission(ctx, sig)
	if err != nil {
		t.Fatalf("GetSubmission() error: %v", err)
	}
	if got.Status != SubmissionConfirmed || got.Error != "" || got.EnvelopeID != "" {
		t.Errorf("unexpected record %+v", got)
	}
}
