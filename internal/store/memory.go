package store

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore keeps records in process memory for the replay window.
type MemoryStore struct {
	envelopes   *ttlcache.Cache[string, string]
	submissions *ttlcache.Cache[string, Submission]
}

// NewMemoryStore creates a MemoryStore whose records expire after window.
func NewMemoryStore(window time.Duration) *MemoryStore {
	s := &MemoryStore{
		envelopes: ttlcache.New(
			ttlcache.WithTTL[string, string](window),
			ttlcache.WithDisableTouchOnHit[string, string](),
		),
		submissions: ttlcache.New(
			ttlcache.WithTTL[string, Submission](window),
			ttlcache.WithDisableTouchOnHit[string, Submission](),
		),
	}
	go s.envelopes.Start()
	go s.submissions.Start()
	return s
}

func (s *MemoryStore) RecordEnvelope(ctx context.Context, envelopeID, sender string) (bool, error) {
	_, found := s.envelopes.GetOrSet(envelopeID, sender)
	return found, nil
}

func (s *MemoryStore) RecordSubmission(ctx context.Context, sub Submission) error {
	if existing := s.submissions.Get(sub.Signature); existing != nil {
		sub.CreatedAt = existing.Value().CreatedAt
	} else if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	s.submissions.Set(sub.Signature, sub, ttlcache.DefaultTTL)
	return nil
}

func (s *MemoryStore) GetSubmission(ctx context.Context, signature string) (*Submission, error) {
	item := s.submissions.Get(signature)
	if item == nil {
		return nil, ErrNotFound
	}
	sub := item.Value()
	return &sub, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close stops the expiry goroutines.
func (s *MemoryStore) Close() {
	s.envelopes.Stop()
	s.submissions.Stop()
}
