package auditlog

import (
	"net/http"
	"strconv"

	"paycore/internal/domain/audit"
	"paycore/internal/requestctx"
	"paycore/internal/transport/http/api"
	"paycore/internal/transport/http/middleware"
)

type Handler struct {
	audit *audit.Service
}

func New(auditSvc *audit.Service) *Handler {
	return &Handler{audit: auditSvc}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	filter := audit.Filter{
		Action:     r.URL.Query().Get("action"),
		EntityType: r.URL.Query().Get("entityType"),
		ActorUser:  r.URL.Query().Get("actorId"),
	}
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	total, err := h.audit.Count(r.Context(), user.TenantID, filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to count audit events", requestID)
		return
	}
	events, err := h.audit.List(r.Context(), user.TenantID, filter, limit, offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list audit events", requestID)
		return
	}

	api.Success(w, map[string]any{
		"total":  total,
		"events": events,
	}, requestID)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
