package achievement

import (
	"context"
	"log/slog"
	"time"

	"github.com/capsule-api/internal/domain"
	"github.com/capsule-api/internal/metrics"
)

// Definitions is the achievement catalog, evaluated in order.
var Definitions = []domain.AchievementDef{
	{ID: "first_capsule", Name: "Time Traveler", Event: domain.EventCapsuleCreated, Threshold: 1},
	{ID: "five_capsules", Name: "Serial Sender", Event: domain.EventCapsuleCreated, Threshold: 5},
	{ID: "ten_capsules", Name: "Chronicle Keeper", Event: domain.EventCapsuleCreated, Threshold: 10},
	{ID: "first_received", Name: "Message From The Past", Event: domain.EventCapsuleReceived, Threshold: 1},
	{ID: "five_received", Name: "Well Remembered", Event: domain.EventCapsuleReceived, Threshold: 5},
	{ID: "ten_received", Name: "Living Archive", Event: domain.EventCapsuleReceived, Threshold: 10},
}

type Service interface {
	// CheckAndUnlock records an event for a user and unlocks any achievement
	// whose threshold is reached. Callers treat failures as non-fatal.
	CheckAndUnlock(ctx context.Context, userID, event string, payload domain.AchievementEvent) error
	// List returns the user's progress alongside the full catalog.
	List(ctx context.Context, userID string) (*domain.AchievementState, []domain.AchievementDef, error)
}

type stateStore interface {
	Get(ctx context.Context, userID string) (*domain.AchievementState, error)
	Put(ctx context.Context, st *domain.AchievementState) error
}

type notifier interface {
	NotifyAchievement(ctx context.Context, userID string, def domain.AchievementDef) error
}

type service struct {
	states   stateStore
	notifier notifier
	m        *metrics.Metrics
}

func NewService(states stateStore, notifier notifier, m *metrics.Metrics) Service {
	return &service{states: states, notifier: notifier, m: m}
}

func (s *service) CheckAndUnlock(ctx context.Context, userID, event string, payload domain.AchievementEvent) error {
	st, err := s.states.Get(ctx, userID)
	if err != nil {
		return err
	}
	if st.Counters == nil {
		st.Counters = make(map[string]int)
	}
	if st.Unlocked == nil {
		st.Unlocked = make(map[string]time.Time)
	}
	st.Counters[event]++

	var unlocked []domain.AchievementDef
	for _, def := range Definitions {
		if def.Event != event {
			continue
		}
		if _, done := st.Unlocked[def.ID]; done {
			continue
		}
		if st.Counters[event] >= def.Threshold {
			st.Unlocked[def.ID] = time.Now().UTC()
			unlocked = append(unlocked, def)
		}
	}
	if err := s.states.Put(ctx, st); err != nil {
		return err
	}
	for _, def := range unlocked {
		s.m.AchievementsUnlocked.Inc()
		if err := s.notifier.NotifyAchievement(ctx, userID, def); err != nil {
			slog.Warn("failed to create achievement notification",
				"user_id", userID, "achievement", def.ID, "capsule_id", payload.CapsuleID, "err", err)
		}
	}
	return nil
}

func (s *service) List(ctx context.Context, userID string) (*domain.AchievementState, []domain.AchievementDef, error) {
	st, err := s.states.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return st, Definitions, nil
}
