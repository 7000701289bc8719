package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/capsule-api/internal/domain"
)

// PendingClaims holds capsules addressed to recipients without an account,
// keyed by normalized email under `pending_claims:<email>`. Entries are
// consumed by the claim flow at registration time.
type PendingClaims struct {
	store Store
}

func NewPendingClaims(store Store) *PendingClaims {
	return &PendingClaims{store: store}
}

func (s *PendingClaims) Get(ctx context.Context, email string) (*domain.PendingClaim, error) {
	b, err := s.store.Get(ctx, PendingClaimKey(email))
	if err != nil {
		if err == ErrNotFound {
			return nil, fmt.Errorf("pending claim %s: %w", email, domain.ErrNotFound)
		}
		return nil, err
	}
	var pc domain.PendingClaim
	if err := json.Unmarshal(b, &pc); err != nil {
		return nil, fmt.Errorf("unmarshal pending claim %s: %w", email, err)
	}
	return &pc, nil
}

// Add associates a capsule id with an unregistered recipient email,
// idempotently.
func (s *PendingClaims) Add(ctx context.Context, email, capsuleID string) error {
	pc, err := s.Get(ctx, email)
	if err != nil {
		if !isNotFound(err) {
			return err
		}
		pc = &domain.PendingClaim{Email: email}
	}
	for _, id := range pc.CapsuleIDs {
		if id == capsuleID {
			return nil
		}
	}
	pc.CapsuleIDs = append(pc.CapsuleIDs, capsuleID)
	pc.UpdatedAt = time.Now().UTC()
	b, err := json.Marshal(pc)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, PendingClaimKey(email), b)
}

// Delete removes the pending entry for an email after it has been claimed.
func (s *PendingClaims) Delete(ctx context.Context, email string) error {
	return s.store.Delete(ctx, PendingClaimKey(email))
}
