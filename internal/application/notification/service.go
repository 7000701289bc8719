package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/capsule-api/internal/domain"
	"github.com/capsule-api/internal/metrics"
	"github.com/capsule-api/internal/pkg/id"
)

type Service interface {
	// NotifyDelivery creates a capsule-delivered notification for userID.
	// senderName is the resolved display name of the sender, or
	// domain.SelfSenderLabel for the self-delivery path.
	NotifyDelivery(ctx context.Context, userID string, capsule *domain.Capsule, senderName string) error
	// NotifyAchievement creates an achievement-unlocked notification.
	NotifyAchievement(ctx context.Context, userID string, def domain.AchievementDef) error
	List(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
}

type feedStore interface {
	List(ctx context.Context, userID string) ([]domain.Notification, error)
	Prepend(ctx context.Context, userID string, n domain.Notification) error
	MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
}

type service struct {
	feeds feedStore
	m     *metrics.Metrics
}

func NewService(feeds feedStore, m *metrics.Metrics) Service {
	return &service{feeds: feeds, m: m}
}

func (s *service) NotifyDelivery(ctx context.Context, userID string, capsule *domain.Capsule, senderName string) error {
	title := capsule.DisplayTitle()
	var message string
	if senderName == domain.SelfSenderLabel {
		message = fmt.Sprintf("Your time capsule %q has been delivered!", title)
	} else {
		message = fmt.Sprintf("%s sent you a time capsule: %q", senderName, title)
	}
	n := domain.Notification{
		NotificationID: id.New(),
		Type:           domain.NotificationCapsuleDelivered,
		CapsuleID:      capsule.CapsuleID,
		CapsuleTitle:   title,
		SenderName:     senderName,
		Message:        message,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.feeds.Prepend(ctx, userID, n); err != nil {
		return err
	}
	s.m.NotificationsCreated.Inc()
	return nil
}

func (s *service) NotifyAchievement(ctx context.Context, userID string, def domain.AchievementDef) error {
	n := domain.Notification{
		NotificationID: id.New(),
		Type:           domain.NotificationAchievement,
		Message:        fmt.Sprintf("Achievement unlocked: %s", def.Name),
		Timestamp:      time.Now().UTC(),
	}
	if err := s.feeds.Prepend(ctx, userID, n); err != nil {
		return err
	}
	s.m.NotificationsCreated.Inc()
	return nil
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.feeds.List(ctx, userID)
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	return s.feeds.MarkRead(ctx, userID, notificationID)
}

func (s *service) MarkAllRead(ctx context.Context, userID string) error {
	return s.feeds.MarkAllRead(ctx, userID)
}
