package domain

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	CapsuleStatusScheduled = "scheduled"
	CapsuleStatusDelivered = "delivered"

	RecipientTypeSelf   = "self"
	RecipientTypeOthers = "others"
)

// DefaultCapsuleTitle is used in notifications when a capsule has no title.
const DefaultCapsuleTitle = "Untitled Capsule"

// Capsule is the core content unit scheduled for future delivery.
// Capsule documents live in the KV document store under `capsule:<id>`.
type Capsule struct {
	CapsuleID     string      `json:"id"`
	Title         string      `json:"title"`
	Message       string      `json:"message"`
	Status        string      `json:"status"`
	RecipientType string      `json:"recipient_type"`
	Recipients    []Recipient `json:"recipients,omitempty"`
	CreatedBy     string      `json:"created_by"`
	Theme         string      `json:"theme,omitempty"`
	DeliverAt     time.Time   `json:"deliver_at"`
	DeliveredAt   *time.Time  `json:"delivered_at,omitempty"`
	MediaFiles    []string    `json:"media_files,omitempty"`
	CreatedAt     time.Time   `json:"created"`
	UpdatedAt     time.Time   `json:"updated"`
}

// DisplayTitle returns the capsule title, falling back to DefaultCapsuleTitle.
func (c *Capsule) DisplayTitle() string {
	if strings.TrimSpace(c.Title) == "" {
		return DefaultCapsuleTitle
	}
	return c.Title
}

// recipientEmailFields is the ordered list of object field names accepted as
// an email-carrying field. First match wins.
var recipientEmailFields = []string{"email", "value", "contact", "address"}

// Recipient is one element of a capsule's recipient list. Client payloads are
// polymorphic: either a raw email string or an object carrying an email-like
// value under one of recipientEmailFields. Decoding resolves the normalized
// email (empty when the element carries no recognizable address) and keeps the
// original JSON so capsule documents round-trip unchanged.
type Recipient struct {
	Email string
	raw   json.RawMessage
}

// NewRecipient builds a recipient from a raw email address.
func NewRecipient(email string) Recipient {
	return Recipient{Email: NormalizeEmail(email)}
}

func (r *Recipient) UnmarshalJSON(b []byte) error {
	r.raw = append(json.RawMessage(nil), b...)
	r.Email = resolveRecipientEmail(b)
	return nil
}

func (r Recipient) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}
	return json.Marshal(r.Email)
}

func resolveRecipientEmail(b []byte) string {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if strings.Contains(s, "@") {
			return NormalizeEmail(s)
		}
		return ""
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return ""
	}
	for _, field := range recipientEmailFields {
		rawVal, ok := obj[field]
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(rawVal, &v); err != nil {
			continue
		}
		if strings.Contains(v, "@") {
			return NormalizeEmail(v)
		}
	}
	return ""
}

// NormalizeEmail trims whitespace and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RecipientEmails returns the unique normalized email addresses from a
// recipient list, preserving first-seen order. Elements without a
// recognizable address are skipped.
func RecipientEmails(recipients []Recipient) []string {
	seen := make(map[string]struct{}, len(recipients))
	var emails []string
	for _, r := range recipients {
		if r.Email == "" {
			continue
		}
		if _, ok := seen[r.Email]; ok {
			continue
		}
		seen[r.Email] = struct{}{}
		emails = append(emails, r.Email)
	}
	return emails
}

// CreateCapsuleRequest is the capsule-authoring payload.
type CreateCapsuleRequest struct {
	Title         string            `json:"title"`
	Message       string            `json:"message" validate:"required"`
	RecipientType string            `json:"recipient_type" validate:"required,oneof=self others"`
	Recipients    []json.RawMessage `json:"recipients"`
	Theme         string            `json:"theme"`
	DeliverAt     time.Time         `json:"deliver_at" validate:"required"`
	MediaFiles    []string          `json:"media_files"`
}
