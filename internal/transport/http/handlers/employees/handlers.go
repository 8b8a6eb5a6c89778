package employees

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"paycore/internal/domain/audit"
	"paycore/internal/domain/auth"
	"paycore/internal/domain/core"
	"paycore/internal/requestctx"
	"paycore/internal/transport/http/api"
	"paycore/internal/transport/http/middleware"
	"paycore/internal/transport/http/shared"
)

type Handler struct {
	store *core.Store
	audit *audit.Service
}

func New(store *core.Store, auditSvc *audit.Service) *Handler {
	return &Handler{store: store, audit: auditSvc}
}

type createEmployeeRequest struct {
	FirstName        string        `json:"firstName"`
	LastName         string        `json:"lastName"`
	Email            string        `json:"email"`
	EmploymentStatus string        `json:"employmentStatus"`
	PaymentMethod    string        `json:"paymentMethod"`
	BankAccount      string        `json:"bankAccount"`
	StateCode        string        `json:"stateCode"`
	TaxProfile       core.TaxSetup `json:"taxProfile"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !auth.CanMutatePayroll(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "role cannot manage employees", requestID)
		return
	}

	var req createEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", requestID)
		return
	}
	if req.EmploymentStatus == "" {
		req.EmploymentStatus = core.EmployeeStatusActive
	}
	if req.TaxProfile.FilingStatus == "" {
		req.TaxProfile.FilingStatus = core.FilingSingle
	}

	v := shared.NewValidator()
	v.Required("firstName", req.FirstName, "is required")
	v.Required("lastName", req.LastName, "is required")
	v.Required("email", req.Email, "is required")
	v.Required("stateCode", req.StateCode, "is required")
	v.Enum("employmentStatus", req.EmploymentStatus,
		[]string{core.EmployeeStatusActive, core.EmployeeStatusInactive, core.EmployeeStatusTerminated},
		"must be active, inactive or terminated")
	v.Enum("paymentMethod", req.PaymentMethod,
		[]string{core.PaymentMethodDirectDeposit, core.PaymentMethodCheck},
		"must be direct_deposit or check")
	v.Enum("taxProfile.filingStatus", req.TaxProfile.FilingStatus,
		[]string{core.FilingSingle, core.FilingMarried, core.FilingHead},
		"must be single, married or head_of_household")
	if v.Reject(w, requestID) {
		return
	}

	employee := core.Employee{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		EmploymentStatus: req.EmploymentStatus,
		PaymentMethod:    req.PaymentMethod,
		BankAccount:      req.BankAccount,
		StateCode:        req.StateCode,
		TaxProfile:       req.TaxProfile,
	}
	id, err := h.store.CreateEmployee(r.Context(), user.TenantID, employee)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create employee", requestID)
		return
	}

	created, err := h.store.GetEmployee(r.Context(), user.TenantID, id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to load created employee", requestID)
		return
	}

	if err := h.audit.Record(r.Context(), user.TenantID, user.UserID, "employee.create", "employee", id, requestID, shared.ClientIP(r), nil, created); err != nil {
		log.Printf("audit record failed: %v", err)
	}
	api.Created(w, created, requestID)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	employee, err := h.store.GetEmployee(r.Context(), user.TenantID, chi.URLParam(r, "employeeID"))
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	api.Success(w, employee, requestID)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	employees, err := h.store.ListEmployees(r.Context(), user.TenantID, limit, offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list employees", requestID)
		return
	}
	api.Success(w, employees, requestID)
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
