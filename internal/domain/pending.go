package domain

import "time"

// Pending-claim policy: what happens to recipients without an account when a
// capsule addressed to others is delivered.
const (
	// PendingPolicyAllOrNothing writes pending entries only when no recipient
	// matched an existing account (legacy behavior).
	PendingPolicyAllOrNothing = "all_or_nothing"
	// PendingPolicyPerRecipient writes a pending entry for every unmatched
	// recipient, even when other recipients matched.
	PendingPolicyPerRecipient = "per_recipient"
)

// PendingClaim holds capsules addressed to a not-yet-registered recipient,
// keyed by normalized email under `pending_claims:<email>`. Consumed by the
// claim flow when that email registers an account.
type PendingClaim struct {
	Email      string    `json:"email"`
	CapsuleIDs []string  `json:"capsule_ids"`
	UpdatedAt  time.Time `json:"updated"`
}
