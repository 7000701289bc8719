package domain

import "time"

// Achievement events tracked by the achievement service.
const (
	EventCapsuleCreated  = "capsule_created"
	EventCapsuleReceived = "capsule_received"
)

// Delivery types carried in capsule_received achievement payloads.
const (
	DeliveryTypeSelf     = "self"
	DeliveryTypeReceived = "received"
	DeliveryTypeClaimed  = "claimed"
)

// AchievementEvent is the payload passed to the achievement tracker when a
// gamification-relevant event occurs.
type AchievementEvent struct {
	CapsuleID    string     `json:"capsuleId,omitempty"`
	DeliveryType string     `json:"deliveryType,omitempty"`
	DeliveredAt  *time.Time `json:"deliveredAt,omitempty"`
}

// AchievementDef is one unlockable achievement: reached when the counter for
// Event meets Threshold.
type AchievementDef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Event     string `json:"event"`
	Threshold int    `json:"threshold"`
}

// AchievementState is a user's gamification progress, stored in the KV
// document store under `achievements:<userId>`.
type AchievementState struct {
	UserID   string               `json:"user_id"`
	Counters map[string]int       `json:"counters,omitempty"`
	Unlocked map[string]time.Time `json:"unlocked,omitempty"`
}
