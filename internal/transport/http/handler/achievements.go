package handler

import (
	"net/http"

	"github.com/capsule-api/internal/application/achievement"
	"github.com/capsule-api/internal/domain"
	"github.com/capsule-api/internal/transport/http/middleware"
)

// AchievementHandler exposes the requester's achievement progress.
type AchievementHandler struct {
	svc achievement.Service
}

func NewAchievementHandler(svc achievement.Service) *AchievementHandler {
	return &AchievementHandler{svc: svc}
}

// AchievementsEnvelope pairs unlock state with the full catalog so clients can
// render locked achievements too.
type AchievementsEnvelope struct {
	State   *domain.AchievementState `json:"state"`
	Catalog []domain.AchievementDef  `json:"catalog"`
}

func (h *AchievementHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	state, catalog, err := h.svc.List(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AchievementsEnvelope{State: state, Catalog: catalog})
}
