package ledgerh

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"paycore/internal/domain/audit"
	"paycore/internal/domain/auth"
	"paycore/internal/domain/ledger"
	"paycore/internal/requestctx"
	"paycore/internal/transport/http/api"
	"paycore/internal/transport/http/middleware"
	"paycore/internal/transport/http/shared"
)

type Handler struct {
	store *ledger.Store
	audit *audit.Service
}

func New(store *ledger.Store, auditSvc *audit.Service) *Handler {
	return &Handler{store: store, audit: auditSvc}
}

type createAccountRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	AccountType string `json:"accountType"`
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !auth.CanApprovePayroll(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "role cannot manage the ledger", requestID)
		return
	}

	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("code", req.Code, "is required")
	v.Required("name", req.Name, "is required")
	v.Enum("accountType", req.AccountType,
		[]string{ledger.AccountTypeAsset, ledger.AccountTypeLiability, ledger.AccountTypeEquity, ledger.AccountTypeRevenue, ledger.AccountTypeExpense},
		"must be asset, liability, equity, revenue or expense")
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.store.CreateAccount(r.Context(), user.TenantID, ledger.Account{
		Code:        req.Code,
		Name:        req.Name,
		AccountType: req.AccountType,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create ledger account", requestID)
		return
	}

	if err := h.audit.Record(r.Context(), user.TenantID, user.UserID, "ledger.account.create", "gl_account", id, requestID, shared.ClientIP(r), nil, req); err != nil {
		log.Printf("audit record failed: %v", err)
	}
	api.Created(w, map[string]any{"id": id}, requestID)
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	accounts, err := h.store.ListAccounts(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list ledger accounts", requestID)
		return
	}
	api.Success(w, accounts, requestID)
}

type createMappingRequest struct {
	MappingType string `json:"mappingType"`
	AccountID   string `json:"accountId"`
}

func (h *Handler) CreateMapping(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !auth.CanApprovePayroll(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "role cannot manage the ledger", requestID)
		return
	}

	var req createMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("accountId", req.AccountID, "is required")
	v.Enum("mappingType", req.MappingType, ledger.MappingTypes,
		"must be payroll_expense, taxes_payable, deductions_payable or net_pay_payable")
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.store.CreateMapping(r.Context(), user.TenantID, ledger.Mapping{
		MappingType: req.MappingType,
		AccountID:   req.AccountID,
	})
	if errors.Is(err, ledger.ErrAccountNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "ledger account not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create account mapping", requestID)
		return
	}

	if err := h.audit.Record(r.Context(), user.TenantID, user.UserID, "ledger.mapping.create", "gl_account_mapping", id, requestID, shared.ClientIP(r), nil, req); err != nil {
		log.Printf("audit record failed: %v", err)
	}
	api.Created(w, map[string]any{"id": id}, requestID)
}

func (h *Handler) ListMappings(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	mappings, err := h.store.ListMappings(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list account mappings", requestID)
		return
	}
	api.Success(w, mappings, requestID)
}

func (h *Handler) GetJournalEntry(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	entry, err := h.store.GetEntry(r.Context(), user.TenantID, chi.URLParam(r, "entryID"))
	if errors.Is(err, ledger.ErrEntryNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "journal entry not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "get_failed", "failed to load journal entry", requestID)
		return
	}
	api.Success(w, entry, requestID)
}
