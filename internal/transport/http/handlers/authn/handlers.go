package authn

import (
	"encoding/json"
	"net/http"
	"time"

	"paycore/internal/domain/auth"
	"paycore/internal/requestctx"
	"paycore/internal/transport/http/api"
)

const tokenTTL = 12 * time.Hour

type Handler struct {
	store     *auth.Store
	jwtSecret string
}

func New(store *auth.Store, jwtSecret string) *Handler {
	return &Handler{store: store, jwtSecret: jwtSecret}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", requestID)
		return
	}

	user, err := h.store.FindUserByEmail(r.Context(), req.Email)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect", requestID)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect", requestID)
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, auth.Claims{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Role:     user.Role,
	}, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}

	api.Success(w, loginResponse{Token: token, Role: user.Role}, requestID)
}
