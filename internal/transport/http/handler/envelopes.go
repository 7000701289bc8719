package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/capsule-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SafeUser is a user stripped of credential fields.
type SafeUser struct {
	UserID    string  `json:"user_id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone,omitempty"`
	FirstName string  `json:"first_name,omitempty"`
	LastName  string  `json:"last_name,omitempty"`
	Role      string  `json:"role"`
}

// SafeSession is a session stripped of the refresh token.
type SafeSession struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	CreatedAt string    `json:"created_at"`
	User      *SafeUser `json:"user,omitempty"`
}

// AuthEnvelope wraps login/register responses.
type AuthEnvelope struct {
	AccessToken  string       `json:"access_token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	Session      *SafeSession `json:"session,omitempty"`
	User         *SafeUser    `json:"user,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// PaginatedUsersEnvelope wraps cursor-paginated user list responses.
type PaginatedUsersEnvelope struct {
	Data       []*SafeUser `json:"data"`
	NextCursor string      `json:"next_cursor,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func toSafeUser(u *domain.User) *SafeUser {
	if u == nil {
		return nil
	}
	return &SafeUser{
		UserID:    u.UserID,
		Username:  u.Username,
		Email:     u.Email,
		Phone:     u.Phone,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}

func toSafeSession(s *domain.Session) *SafeSession {
	if s == nil {
		return nil
	}
	return &SafeSession{
		SessionID: s.SessionID,
		UserID:    s.UserID,
		CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		User:      toSafeUser(s.User),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors onto HTTP status codes.
func httpError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrBadRequest):
		status = http.StatusBadRequest
	}
	writeError(w, status, err.Error())
}
