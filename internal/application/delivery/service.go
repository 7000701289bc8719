package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/capsule-api/internal/domain"
	"github.com/capsule-api/internal/metrics"
)

type capsuleStore interface {
	Get(ctx context.Context, capsuleID string) (*domain.Capsule, error)
	Put(ctx context.Context, c *domain.Capsule) error
	MediaIDs(ctx context.Context, capsuleID string) ([]string, error)
}

type scheduleIndex interface {
	Remove(ctx context.Context, capsuleID string) error
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

// identityProvider matches recipient emails to registered accounts.
// Matching is case-insensitive exact-string on email.
type identityProvider interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type profileStore interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
}

type pendingQueue interface {
	Add(ctx context.Context, email, capsuleID string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Service finalizes scheduled capsules: the authoritative delivered-status
// write, then best-effort side effects that never block or roll it back.
type Service interface {
	Finalize(ctx context.Context, c *domain.Capsule) (*Result, error)
	FinalizeByID(ctx context.Context, capsuleID string) (*Result, error)
}

type Deps struct {
	Capsules      capsuleStore
	Schedule      scheduleIndex
	Received      receivedList
	Notifier      notifier
	Achievements  achievementTracker
	Users         identityProvider
	Profiles      profileStore
	Pending       pendingQueue
	Mailer        mailer    // optional: invite emails for pending claims
	SMS           smsSender // optional: delivery pings for matched recipients
	Metrics       *metrics.Metrics
	PendingPolicy string // domain.PendingPolicyAllOrNothing | domain.PendingPolicyPerRecipient
}

type service struct {
	Deps
}

func NewService(deps Deps) Service {
	if deps.PendingPolicy == "" {
		deps.PendingPolicy = domain.PendingPolicyAllOrNothing
	}
	return &service{Deps: deps}
}

func (s *service) FinalizeByID(ctx context.Context, capsuleID string) (*Result, error) {
	c, err := s.Capsules.Get(ctx, capsuleID)
	if err != nil {
		return nil, err
	}
	return s.Finalize(ctx, c)
}

// Finalize transitions one capsule from scheduled to delivered.
//
// The status write is attempted unconditionally first and is the only failure
// surfaced to the caller. Index cleanup and recipient routing are best-effort:
// their failures are recorded in the Result, logged, and swallowed, so a
// notification or achievement failure can never leave a capsule stuck in
// scheduled state.
func (s *service) Finalize(ctx context.Context, c *domain.Capsule) (*Result, error) {
	res := &Result{CapsuleID: c.CapsuleID}

	// Effect 1: the authoritative state transition.
	mediaIDs, err := s.Capsules.MediaIDs(ctx, c.CapsuleID)
	if err != nil {
		return nil, fmt.Errorf("load capsule media: %w", err)
	}
	now := time.Now().UTC()
	c.Status = domain.CapsuleStatusDelivered
	c.DeliveredAt = &now
	c.UpdatedAt = now
	c.MediaFiles = mediaIDs
	if err := s.Capsules.Put(ctx, c); err != nil {
		return nil, fmt.Errorf("mark capsule delivered: %w", err)
	}
	res.add("mark_delivered", StatusOK, nil)
	s.Metrics.CapsulesDelivered.WithLabelValues(c.RecipientType).Inc()

	// Effect 2: remove from the global scheduled index. A stale entry is
	// tolerated; the capsule is already delivered.
	if err := s.Schedule.Remove(ctx, c.CapsuleID); err != nil {
		slog.Warn("failed to remove capsule from scheduled index", "capsule_id", c.CapsuleID, "err", err)
		s.Metrics.SideEffectFailures.WithLabelValues("index_cleanup").Inc()
		res.add("index_cleanup", StatusFailed, err)
	} else {
		res.add("index_cleanup", StatusOK, nil)
	}

	// Effect 3: route to the recipients.
	if c.RecipientType == domain.RecipientTypeSelf {
		s.deliverToSelf(ctx, c, res)
	} else {
		s.deliverToOthers(ctx, c, res)
	}
	return res, nil
}

// deliverToSelf routes a delivered capsule back to its creator. A second
// invocation finds the capsule already in the received list and does nothing,
// which guards against a scheduler firing twice.
func (s *service) deliverToSelf(ctx context.Context, c *domain.Capsule, res *Result) {
	appended, err := s.Received.Append(ctx, c.CreatedBy, c.CapsuleID)
	if err != nil {
		slog.Warn("failed to update received list", "capsule_id", c.CapsuleID, "user_id", c.CreatedBy, "err", err)
		s.Metrics.SideEffectFailures.WithLabelValues("route_self").Inc()
		res.add("route_self", StatusFailed, err)
		return
	}
	if !appended {
		res.add("route_self", StatusSkipped, nil)
		return
	}
	if err := s.Notifier.NotifyDelivery(ctx, c.CreatedBy, c, domain.SelfSenderLabel); err != nil {
		slog.Warn("failed to create delivery notification", "capsule_id", c.CapsuleID, "user_id", c.CreatedBy, "err", err)
		s.Metrics.SideEffectFailures.WithLabelValues("notification").Inc()
	}
	s.trackReceived(ctx, c.CreatedBy, c, domain.DeliveryTypeSelf)
	res.add("route_self", StatusOK, nil)
}

// deliverToOthers resolves recipient emails against the identity provider,
// delivering to matched accounts and queueing pending claims for the rest
// according to the configured pending policy.
func (s *service) deliverToOthers(ctx context.Context, c *domain.Capsule, res *Result) {
	emails := domain.RecipientEmails(c.Recipients)
	if len(emails) == 0 {
		res.add("route_others", StatusSkipped, nil)
		return
	}

	matched := 0
	var unmatched []string
	for _, email := range emails {
		step := "recipient:" + email
		u, err := s.Users.GetByEmail(ctx, email)
		if err != nil {
			// No account or lookup failure: either way this recipient is
			// unmatched and the rest still get processed.
			slog.Info("recipient has no matching account", "capsule_id", c.CapsuleID, "email", email, "err", err)
			unmatched = append(unmatched, email)
			res.add(step, StatusSkipped, nil)
			continue
		}
		appended, err := s.Received.Append(ctx, u.UserID, c.CapsuleID)
		if err != nil {
			slog.Warn("failed to update received list", "capsule_id", c.CapsuleID, "user_id", u.UserID, "err", err)
			s.Metrics.SideEffectFailures.WithLabelValues("received_append").Inc()
			res.add(step, StatusFailed, err)
			continue
		}
		matched++
		if !appended {
			res.add(step, StatusSkipped, nil)
			continue
		}
		senderName := s.resolveSenderName(ctx, c.CreatedBy)
		if err := s.Notifier.NotifyDelivery(ctx, u.UserID, c, senderName); err != nil {
			slog.Warn("failed to create delivery notification", "capsule_id", c.CapsuleID, "user_id", u.UserID, "err", err)
			s.Metrics.SideEffectFailures.WithLabelValues("notification").Inc()
		}
		s.trackReceived(ctx, u.UserID, c, domain.DeliveryTypeReceived)
		s.sendSMSPing(ctx, u, c, senderName)
		res.add(step, StatusOK, nil)
	}

	// Pending fallback. Under all_or_nothing (the legacy behavior) unmatched
	// recipients are queued only when nobody matched; per_recipient queues
	// every unmatched email regardless.
	if len(unmatched) == 0 {
		return
	}
	if s.PendingPolicy == domain.PendingPolicyAllOrNothing && matched > 0 {
		return
	}
	for _, email := range unmatched {
		if err := s.Pending.Add(ctx, email, c.CapsuleID); err != nil {
			slog.Warn("failed to queue pending claim", "capsule_id", c.CapsuleID, "email", email, "err", err)
			s.Metrics.SideEffectFailures.WithLabelValues("pending_queue").Inc()
			res.add("pending:"+email, StatusFailed, err)
			continue
		}
		s.Metrics.PendingClaimsQueued.Inc()
		res.add("pending:"+email, StatusOK, nil)
		s.sendInviteEmail(ctx, email, c)
	}
}

func (s *service) trackReceived(ctx context.Context, userID string, c *domain.Capsule, deliveryType string) {
	payload := domain.AchievementEvent{
		CapsuleID:    c.CapsuleID,
		DeliveryType: deliveryType,
		DeliveredAt:  c.DeliveredAt,
	}
	if err := s.Achievements.CheckAndUnlock(ctx, userID, domain.EventCapsuleReceived, payload); err != nil {
		slog.Warn("achievement tracking failed", "capsule_id", c.CapsuleID, "user_id", userID, "err", err)
		s.Metrics.SideEffectFailures.WithLabelValues("achievement").Inc()
	}
}

func (s *service) resolveSenderName(ctx context.Context, senderID string) string {
	p, err := s.Profiles.Get(ctx, senderID)
	if err != nil {
		return domain.FallbackSenderName
	}
	return p.SenderName()
}

func (s *service) sendInviteEmail(ctx context.Context, email string, c *domain.Capsule) {
	if s.Mailer == nil {
		return
	}
	senderName := s.resolveSenderName(ctx, c.CreatedBy)
	subject := fmt.Sprintf("%s sent you a time capsule", senderName)
	body := fmt.Sprintf("%s sent you a time capsule: %q. Create an account with this email address to open it.",
		senderName, c.DisplayTitle())
	if err := s.Mailer.SendEmail(email, subject, body); err != nil {
		slog.Warn("failed to send invite email", "capsule_id", c.CapsuleID, "email", email, "err", err)
		s.Metrics.SideEffectFailures.WithLabelValues("invite_email").Inc()
	}
}

func (s *service) sendSMSPing(ctx context.Context, u *domain.User, c *domain.Capsule, senderName string) {
	if s.SMS == nil || u.Phone == nil || *u.Phone == "" {
		return
	}
	msg := fmt.Sprintf("%s sent you a time capsule: %q", senderName, c.DisplayTitle())
	if err := s.SMS.SendSMS(ctx, *u.Phone, msg); err != nil {
		slog.Warn("failed to send delivery SMS", "capsule_id", c.CapsuleID, "user_id", u.UserID, "err", err)
		s.Metrics.SideEffectFailures.WithLabelValues("sms").Inc()
	}
}
