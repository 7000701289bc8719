package handler

import (
	"encoding/json"
	"net/http"

	"github.com/capsule-api/internal/application/capsule"
	"github.com/capsule-api/internal/application/delivery"
	"github.com/capsule-api/internal/domain"
	"github.com/capsule-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// CapsuleHandler handles capsule CRUD and the admin force-deliver endpoint.
type CapsuleHandler struct {
	svc      capsule.Service
	delivery delivery.Service
}

func NewCapsuleHandler(svc capsule.Service, deliverySvc delivery.Service) *CapsuleHandler {
	return &CapsuleHandler{svc: svc, delivery: deliverySvc}
}

// DeliveryEnvelope reports a forced delivery and its side-effect outcomes.
type DeliveryEnvelope struct {
	CapsuleID string            `json:"capsule_id"`
	Outcomes  []OutcomeView     `json:"outcomes"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type OutcomeView struct {
	Step   string `json:"step"`
	Status string `json:"status"`
}

func (h *CapsuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreateCapsuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.svc.Create(r.Context(), claims.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CapsuleHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), claims.UserID, claims.Role == domain.RoleAdmin)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// List returns the requester's capsules. ?box=sent (default) lists capsules
// they created, ?box=received lists capsules delivered to them.
func (h *CapsuleHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var (
		capsules []domain.Capsule
		err      error
	)
	switch box := r.URL.Query().Get("box"); box {
	case "", "sent":
		capsules, err = h.svc.ListSent(r.Context(), claims.UserID)
	case "received":
		capsules, err = h.svc.ListReceived(r.Context(), claims.UserID)
	default:
		writeError(w, http.StatusBadRequest, "box must be sent or received")
		return
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, capsules)
}

// Deliver forces immediate finalization of a capsule, bypassing its scheduled
// delivery time. Admin only.
func (h *CapsuleHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	res, err := h.delivery.FinalizeByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	env := DeliveryEnvelope{CapsuleID: res.CapsuleID}
	for _, o := range res.Outcomes {
		env.Outcomes = append(env.Outcomes, OutcomeView{Step: o.Step, Status: string(o.Status)})
		if o.Err != nil {
			if env.Errors == nil {
				env.Errors = map[string]string{}
			}
			env.Errors[o.Step] = o.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, env)
}
