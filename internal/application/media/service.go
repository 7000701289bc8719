package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/capsule-api/internal/domain"
	"github.com/capsule-api/internal/pkg/id"
)

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	CapsuleID   string // optional: attach to a capsule at upload time
	UploaderID  string
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.MediaFile, error)
	Download(ctx context.Context, mediaID, requesterID string, isAdmin bool) (io.ReadCloser, *domain.MediaFile, error)
	PresignedURL(ctx context.Context, mediaID, requesterID string, isAdmin bool, ttl time.Duration) (string, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type mediaIndex interface {
	Get(ctx context.Context, mediaID string) (*domain.MediaFile, error)
	Put(ctx context.Context, m *domain.MediaFile) error
}

type capsuleStore interface {
	Get(ctx context.Context, capsuleID string) (*domain.Capsule, error)
	AppendMediaID(ctx context.Context, capsuleID, mediaID string) error
}

type receivedList interface {
	Get(ctx context.Context, userID string) ([]string, error)
}

type service struct {
	objects  objectStore
	index    mediaIndex
	capsules capsuleStore
	received receivedList
}

func NewService(objects objectStore, index mediaIndex, capsules capsuleStore, received receivedList) Service {
	return &service{objects: objects, index: index, capsules: capsules, received: received}
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.MediaFile, error) {
	if input.CapsuleID != "" {
		c, err := s.capsules.Get(ctx, input.CapsuleID)
		if err != nil {
			return nil, err
		}
		if c.CreatedBy != input.UploaderID {
			return nil, fmt.Errorf("cannot attach media to another user's capsule: %w", domain.ErrForbidden)
		}
		if c.Status != domain.CapsuleStatusScheduled {
			return nil, fmt.Errorf("capsule already delivered: %w", domain.ErrConflict)
		}
	}

	mediaID := id.New()
	safeName := sanitizeFilename(input.Filename)
	key := fmt.Sprintf("media/%s/%s-%s", input.UploaderID, mediaID, safeName)
	hasher := sha256.New()
	tee := io.TeeReader(input.Reader, hasher)
	if _, err := s.objects.Upload(ctx, key, tee, input.ContentType); err != nil {
		return nil, err
	}
	m := &domain.MediaFile{
		MediaID:   mediaID,
		Object:    key,
		Size:      input.Size,
		Type:      input.ContentType,
		Name:      safeName,
		Hash:      hex.EncodeToString(hasher.Sum(nil)),
		OwnerID:   input.UploaderID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.index.Put(ctx, m); err != nil {
		return nil, err
	}
	if input.CapsuleID != "" {
		if err := s.capsules.AppendMediaID(ctx, input.CapsuleID, mediaID); err != nil {
			return nil, fmt.Errorf("attach media to capsule: %w", err)
		}
	}
	return m, nil
}

func (s *service) Download(ctx context.Context, mediaID, requesterID string, isAdmin bool) (io.ReadCloser, *domain.MediaFile, error) {
	m, err := s.authorize(ctx, mediaID, requesterID, isAdmin)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.objects.Download(ctx, m.Object)
	if err != nil {
		return nil, nil, err
	}
	return body, m, nil
}

func (s *service) PresignedURL(ctx context.Context, mediaID, requesterID string, isAdmin bool, ttl time.Duration) (string, error) {
	m, err := s.authorize(ctx, mediaID, requesterID, isAdmin)
	if err != nil {
		return "", err
	}
	return s.objects.PresignedURL(ctx, m.Object, ttl)
}

// authorize lets the owner, an admin, or a recipient of a capsule carrying
// this media access it.
func (s *service) authorize(ctx context.Context, mediaID, requesterID string, isAdmin bool) (*domain.MediaFile, error) {
	m, err := s.index.Get(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if m.OwnerID == requesterID || isAdmin {
		return m, nil
	}
	receivedIDs, err := s.received.Get(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	for _, capsuleID := range receivedIDs {
		c, err := s.capsules.Get(ctx, capsuleID)
		if err != nil {
			continue
		}
		for _, mid := range c.MediaFiles {
			if mid == mediaID {
				return m, nil
			}
		}
	}
	return nil, fmt.Errorf("access denied: %w", domain.ErrForbidden)
}

func sanitizeFilename(name string) string {
	base := path.Base(name)
	base = strings.ReplaceAll(base, "..", "")
	base = strings.ReplaceAll(base, " ", "_")
	if base == "" || base == "." || base == "/" {
		base = "upload"
	}
	return base
}
