package claim

import (
	"context"
	"errors"
	"log/slog"

	"github.com/capsule-api/internal/domain"
	"github.com/capsule-api/internal/metrics"
)

type pendingQueue interface {
	Get(ctx context.Context, email string) (*domain.PendingClaim, error)
	Delete(ctx context.Context, email string) error
}

type capsuleStore interface {
	Get(ctx context.Context, capsuleID string) (*domain.Capsule, error)
}

type receivedList interface {
	Append(ctx context.Context, userID, capsuleID string) (bool, error)
}

type notifier interface {
	NotifyDelivery(ctx context.Context, userID string, capsule *domain.Capsule, senderName string) error
}

type achievementTracker interface {
	CheckAndUnlock(ctx context.Context, userID, event string, payload domain.AchievementEvent) error
}

type profileStore interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
}

// Service consumes pending-claim entries when their recipient registers,
// running the same append/notify/achievement sequence delivery would have.
type Service interface {
	ClaimFor(ctx context.Context, user *domain.User) (int, error)
}

type service struct {
	pending      pendingQueue
	capsules     capsuleStore
	received     receivedList
	notifier     notifier
	achievements achievementTracker
	profiles     profileStore
	m            *metrics.Metrics
}

type Deps struct {
	Pending      pendingQueue
	Capsules     capsuleStore
	Received     receivedList
	Notifier     notifier
	Achievements achievementTracker
	Profiles     profileStore
	Metrics      *metrics.Metrics
}

func NewService(deps Deps) Service {
	return &service{
		pending:      deps.Pending,
		capsules:     deps.Capsules,
		received:     deps.Received,
		notifier:     deps.Notifier,
		achievements: deps.Achievements,
		profiles:     deps.Profiles,
		m:            deps.Metrics,
	}
}

// ClaimFor delivers every capsule held for the user's email and removes the
// pending entry. Returns the number of capsules claimed. A user with no
// pending entry is the common case and returns (0, nil).
func (s *service) ClaimFor(ctx context.Context, user *domain.User) (int, error) {
	email := domain.NormalizeEmail(user.Email)
	pc, err := s.pending.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	claimed := 0
	for _, capsuleID := range pc.CapsuleIDs {
		c, err := s.capsules.Get(ctx, capsuleID)
		if err != nil {
			slog.Warn("pending capsule could not be loaded", "capsule_id", capsuleID, "email", email, "err", err)
			continue
		}
		appended, err := s.received.Append(ctx, user.UserID, c.CapsuleID)
		if err != nil {
			slog.Warn("failed to update received list during claim", "capsule_id", c.CapsuleID, "user_id", user.UserID, "err", err)
			continue
		}
		if !appended {
			continue
		}
		claimed++
		senderName := s.resolveSenderName(ctx, c.CreatedBy)
		if err := s.notifier.NotifyDelivery(ctx, user.UserID, c, senderName); err != nil {
			slog.Warn("failed to create claim notification", "capsule_id", c.CapsuleID, "user_id", user.UserID, "err", err)
		}
		payload := domain.AchievementEvent{
			CapsuleID:    c.CapsuleID,
			DeliveryType: domain.DeliveryTypeClaimed,
			DeliveredAt:  c.DeliveredAt,
		}
		if err := s.achievements.CheckAndUnlock(ctx, user.UserID, domain.EventCapsuleReceived, payload); err != nil {
			slog.Warn("achievement tracking failed during claim", "capsule_id", c.CapsuleID, "user_id", user.UserID, "err", err)
		}
	}

	if err := s.pending.Delete(ctx, email); err != nil {
		slog.Warn("failed to delete pending claim entry", "email", email, "err", err)
	} else {
		s.m.PendingClaimsConsumed.Inc()
	}
	return claimed, nil
}

func (s *service) resolveSenderName(ctx context.Context, senderID string) string {
	p, err := s.profiles.Get(ctx, senderID)
	if err != nil {
		return domain.FallbackSenderName
	}
	return p.SenderName()
}
