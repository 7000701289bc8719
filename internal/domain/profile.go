package domain

import (
	"strings"
	"time"
)

// Profile is the public-facing identity of a user, stored in the KV document
// store under `profile:<userId>`.
type Profile struct {
	UserID        string    `json:"user_id"`
	DisplayName   string    `json:"display_name,omitempty"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	AvatarMediaID string    `json:"avatar_media_id,omitempty"`
	UpdatedAt     time.Time `json:"updated"`
}

// SenderName resolves the name shown on notifications sent by this profile:
// display name, then first+last name, then FallbackSenderName.
func (p *Profile) SenderName() string {
	if p == nil {
		return FallbackSenderName
	}
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	if name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName)); name != "" {
		return name
	}
	return FallbackSenderName
}

type UpdateProfileRequest struct {
	DisplayName   *string `json:"display_name"`
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	Bio           *string `json:"bio"`
	AvatarMediaID *string `json:"avatar_media_id"`
}
