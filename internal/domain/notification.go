package domain

import "time"

// FeedCap is the maximum number of entries kept in a user's notification feed.
// Inserting beyond the cap evicts the oldest entries.
const FeedCap = 100

// SelfSenderLabel is the sender name used by the self-delivery path.
const SelfSenderLabel = "You (Past Self)"

// FallbackSenderName is used when no profile or name resolves for a sender.
const FallbackSenderName = "Someone Special"

// Notification types appearing in a user's feed.
const (
	NotificationCapsuleDelivered = "capsule_delivered"
	NotificationAchievement      = "achievement_unlocked"
)

// Notification is one entry in a user's feed. Feeds live in the KV document
// store under `notifications:<userId>`, newest-first, capped at FeedCap.
type Notification struct {
	NotificationID string    `json:"id"`
	Type           string    `json:"type"`
	CapsuleID      string    `json:"capsuleId,omitempty"`
	CapsuleTitle   string    `json:"capsuleTitle,omitempty"`
	SenderName     string    `json:"senderName,omitempty"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
	Read           bool      `json:"read"`
}
