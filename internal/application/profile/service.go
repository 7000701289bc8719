package profile

import (
	"context"
	"errors"
	"time"

	"github.com/capsule-api/internal/domain"
)

type Service interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Update(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.Profile, error)
}

type profileStore interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Put(ctx context.Context, p *domain.Profile) error
}

type service struct {
	profiles profileStore
}

func NewService(profiles profileStore) Service {
	return &service{profiles: profiles}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.profiles.Get(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.Profile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		p = &domain.Profile{UserID: userID}
	}
	if req.DisplayName != nil {
		p.DisplayName = *req.DisplayName
	}
	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		p.LastName = *req.LastName
	}
	if req.Bio != nil {
		p.Bio = *req.Bio
	}
	if req.AvatarMediaID != nil {
		p.AvatarMediaID = *req.AvatarMediaID
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.profiles.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
