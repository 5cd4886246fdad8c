// Package store records which envelopes the gateway has accepted and the outcome of relayed
// submissions.
//
// Envelope ids are caller supplied and must be unique per logical transaction. RecordEnvelope
// reports a second envelope with a known id as a duplicate so the gateway can refuse replays.
//
// Two implementations are provided: MemoryStore (records expire after the replay window) and
// PostgresStore (records are kept).
package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("record not found")

// SubmissionStatus is the relay outcome as seen by the gateway.
type SubmissionStatus string

const (
	SubmissionConfirmed SubmissionStatus = "confirmed"

	// SubmissionRejected is used when the network refused the transaction or it failed on-chain
	SubmissionRejected SubmissionStatus = "rejected"

	// SubmissionUnknown is used when relay or confirmation failed: the transaction may still land
	SubmissionUnknown SubmissionStatus = "unknown"
)

// Submission is the record of one relayed transaction.
type Submission struct {
	Signature string

	// EnvelopeID is empty when the transaction was not delivered in an envelope
	EnvelopeID string
	Status     SubmissionStatus
	Error      string
	CreatedAt  time.Time
}

type Store interface {
	// RecordEnvelope registers an envelope id. duplicate is true if the id was already registered.
	RecordEnvelope(ctx context.Context, envelopeID, sender string) (duplicate bool, err error)

	// RecordSubmission inserts or updates the record for s.Signature.
	RecordSubmission(ctx context.Context, s Submission) error

	// GetSubmission returns ErrNotFound for unknown signatures.
	GetSubmission(ctx context.Context, signature string) (*Submission, error)

	Ping(ctx context.Context) error
	Close()
}
