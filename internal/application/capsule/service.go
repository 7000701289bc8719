package capsule

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/capsule-api/internal/domain"
	"github.com/capsule-api/internal/pkg/id"
	"github.com/capsule-api/internal/pkg/validate"
)

type capsuleStore interface {
	Get(ctx context.Context, capsuleID string) (*domain.Capsule, error)
	Put(ctx context.Context, c *domain.Capsule) error
	MGet(ctx context.Context, capsuleIDs []string) ([]domain.Capsule, error)
	ScanAll(ctx context.Context) ([]domain.Capsule, error)
}

type scheduleIndex interface {
	Add(ctx context.Context, capsuleID string) error
}

type receivedList interface {
	Get(ctx context.Context, userID string) ([]string, error)
}

type achievementTracker interface {
	CheckAndUnlock(ctx context.Context, userID, event string, payload domain.AchievementEvent) error
}

type Service interface {
	Create(ctx context.Context, creatorID string, req domain.CreateCapsuleRequest) (*domain.Capsule, error)
	Get(ctx context.Context, capsuleID, requesterID string, isAdmin bool) (*domain.Capsule, error)
	ListSent(ctx context.Context, userID string) ([]domain.Capsule, error)
	ListReceived(ctx context.Context, userID string) ([]domain.Capsule, error)
}

type service struct {
	capsules     capsuleStore
	schedule     scheduleIndex
	received     receivedList
	achievements achievementTracker
}

func NewService(capsules capsuleStore, schedule scheduleIndex, received receivedList, achievements achievementTracker) Service {
	return &service{
		capsules:     capsules,
		schedule:     schedule,
		received:     received,
		achievements: achievements,
	}
}

func (s *service) Create(ctx context.Context, creatorID string, req domain.CreateCapsuleRequest) (*domain.Capsule, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	if !req.DeliverAt.After(time.Now()) {
		return nil, fmt.Errorf("deliver_at must be in the future: %w", domain.ErrBadRequest)
	}

	recipients := make([]domain.Recipient, 0, len(req.Recipients))
	for _, raw := range req.Recipients {
		var r domain.Recipient
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("invalid recipient entry: %w", domain.ErrBadRequest)
		}
		recipients = append(recipients, r)
	}
	if req.RecipientType == domain.RecipientTypeOthers && len(domain.RecipientEmails(recipients)) == 0 {
		return nil, fmt.Errorf("at least one recipient email is required: %w", domain.ErrBadRequest)
	}

	now := time.Now().UTC()
	c := &domain.Capsule{
		CapsuleID:     id.New(),
		Title:         req.Title,
		Message:       req.Message,
		Status:        domain.CapsuleStatusScheduled,
		RecipientType: req.RecipientType,
		Recipients:    recipients,
		CreatedBy:     creatorID,
		Theme:         req.Theme,
		DeliverAt:     req.DeliverAt.UTC(),
		MediaFiles:    req.MediaFiles,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.capsules.Put(ctx, c); err != nil {
		return nil, err
	}
	if err := s.schedule.Add(ctx, c.CapsuleID); err != nil {
		// The capsule exists but will never be swept; surface this one.
		return nil, fmt.Errorf("add capsule to scheduled index: %w", err)
	}
	payload := domain.AchievementEvent{CapsuleID: c.CapsuleID}
	if err := s.achievements.CheckAndUnlock(ctx, creatorID, domain.EventCapsuleCreated, payload); err != nil {
		slog.Warn("achievement tracking failed", "capsule_id", c.CapsuleID, "user_id", creatorID, "err", err)
	}
	return c, nil
}

func (s *service) Get(ctx context.Context, capsuleID, requesterID string, isAdmin bool) (*domain.Capsule, error) {
	c, err := s.capsules.Get(ctx, capsuleID)
	if err != nil {
		return nil, err
	}
	if c.CreatedBy == requesterID || isAdmin {
		return c, nil
	}
	// Recipients may only see the capsule once delivered to them.
	receivedIDs, err := s.received.Get(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	for _, rid := range receivedIDs {
		if rid == capsuleID {
			return c, nil
		}
	}
	return nil, fmt.Errorf("capsule %s: %w", capsuleID, domain.ErrForbidden)
}

func (s *service) ListSent(ctx context.Context, userID string) ([]domain.Capsule, error) {
	all, err := s.capsules.ScanAll(ctx)
	if err != nil {
		return nil, err
	}
	sent := make([]domain.Capsule, 0)
	for _, c := range all {
		if c.CreatedBy == userID {
			sent = append(sent, c)
		}
	}
	return sent, nil
}

func (s *service) ListReceived(ctx context.Context, userID string) ([]domain.Capsule, error) {
	ids, err := s.received.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Capsule{}, nil
	}
	return s.capsules.MGet(ctx, ids)
}
