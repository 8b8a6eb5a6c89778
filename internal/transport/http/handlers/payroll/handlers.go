package payroll

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"paycore/internal/domain/audit"
	"paycore/internal/domain/auth"
	"paycore/internal/domain/ledger"
	payrolldom "paycore/internal/domain/payroll"
	"paycore/internal/requestctx"
	"paycore/internal/transport/http/api"
	"paycore/internal/transport/http/middleware"
	"paycore/internal/transport/http/shared"
)

type Handler struct {
	store   *payrolldom.Store
	service *payrolldom.Service
	audit   *audit.Service
}

func New(store *payrolldom.Store, service *payrolldom.Service, auditSvc *audit.Service) *Handler {
	return &Handler{store: store, service: service, audit: auditSvc}
}

type createScheduleRequest struct {
	Name      string `json:"name"`
	Frequency string `json:"frequency"`
}

func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !auth.CanMutatePayroll(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "role cannot manage payroll", requestID)
		return
	}

	var req createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", req.Name, "is required")
	v.Enum("frequency", req.Frequency,
		[]string{"weekly", "biweekly", "semimonthly", "monthly"},
		"must be weekly, biweekly, semimonthly or monthly")
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.store.CreateSchedule(r.Context(), user.TenantID, payrolldom.Schedule{
		Name:      req.Name,
		Frequency: req.Frequency,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create pay schedule", requestID)
		return
	}
	api.Created(w, map[string]any{"id": id}, requestID)
}

func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	schedules, err := h.store.ListSchedules(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list pay schedules", requestID)
		return
	}
	api.Success(w, schedules, requestID)
}

type createPeriodRequest struct {
	ScheduleID  string `json:"scheduleId"`
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
	PayDate     string `json:"payDate"`
}

func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !auth.CanMutatePayroll(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "role cannot manage payroll", requestID)
		return
	}

	var req createPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("scheduleId", req.ScheduleID, "is required")
	start, _ := v.Date("periodStart", req.PeriodStart)
	end, _ := v.Date("periodEnd", req.PeriodEnd)
	payDate, _ := v.Date("payDate", req.PayDate)
	v.DateOrder("periodStart", start, "periodEnd", end)
	if !end.IsZero() && !payDate.IsZero() && payDate.Before(end) {
		v.Add("payDate", "must be on or after periodEnd")
	}
	if v.Reject(w, requestID) {
		return
	}

	if _, err := h.store.GetSchedule(r.Context(), user.TenantID, req.ScheduleID); err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "pay schedule not found", requestID)
		return
	}

	id, err := h.store.CreatePeriod(r.Context(), user.TenantID, payrolldom.Period{
		ScheduleID:  req.ScheduleID,
		PeriodStart: start,
		PeriodEnd:   end,
		PayDate:     payDate,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create pay period", requestID)
		return
	}
	api.Created(w, map[string]any{"id": id}, requestID)
}

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	periods, err := h.store.ListPeriods(r.Context(), user.TenantID, r.URL.Query().Get("scheduleId"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list pay periods", requestID)
		return
	}
	api.Success(w, periods, requestID)
}

type createRunRequest struct {
	PeriodID string `json:"periodId"`
	RunType  string `json:"runType"`
}

func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !auth.CanMutatePayroll(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "role cannot manage payroll", requestID)
		return
	}

	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", requestID)
		return
	}
	if req.RunType == "" {
		req.RunType = payrolldom.RunTypeRegular
	}

	v := shared.NewValidator()
	v.Required("periodId", req.PeriodID, "is required")
	v.Enum("runType", req.RunType,
		[]string{payrolldom.RunTypeRegular, payrolldom.RunTypeOffCycle, payrolldom.RunTypeCorrection},
		"must be regular, off_cycle or correction")
	if v.Reject(w, requestID) {
		return
	}

	if _, err := h.store.GetPeriod(r.Context(), user.TenantID, req.PeriodID); err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "pay period not found", requestID)
		return
	}

	id, err := h.store.CreateRun(r.Context(), user.TenantID, req.PeriodID, req.RunType, user.UserID)
	if errors.Is(err, payrolldom.ErrDuplicateRun) {
		api.Fail(w, http.StatusConflict, "duplicate_run", err.Error(), requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create payroll run", requestID)
		return
	}

	run, err := h.store.GetRun(r.Context(), user.TenantID, id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to load created run", requestID)
		return
	}

	if err := h.audit.Record(r.Context(), user.TenantID, user.UserID, "payroll.run.create", "payroll_run", id, requestID, shared.ClientIP(r), nil, run); err != nil {
		log.Printf("audit record failed: %v", err)
	}
	api.Created(w, run, requestID)
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	runs, err := h.store.ListRuns(r.Context(), user.TenantID, payrolldom.Status(r.URL.Query().Get("status")))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list payroll runs", requestID)
		return
	}
	api.Success(w, runs, requestID)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	run, err := h.store.GetRun(r.Context(), user.TenantID, chi.URLParam(r, "runID"))
	if errors.Is(err, payrolldom.ErrRunNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "payroll run not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "get_failed", "failed to load payroll run", requestID)
		return
	}
	api.Success(w, run, requestID)
}

func (h *Handler) ListRunEmployees(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	runID := chi.URLParam(r, "runID")
	if _, err := h.store.GetRun(r.Context(), user.TenantID, runID); err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "payroll run not found", requestID)
		return
	}

	results, err := h.store.ListResults(r.Context(), user.TenantID, runID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list run results", requestID)
		return
	}
	api.Success(w, results, requestID)
}

// failRunError maps domain errors from run actions onto API responses.
func failRunError(w http.ResponseWriter, err error, requestID string) {
	var stateErr *payrolldom.StateError
	var unbalanced *ledger.UnbalancedError
	var unresolved *ledger.UnresolvedAccountError
	switch {
	case errors.Is(err, payrolldom.ErrRunNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "payroll run not found", requestID)
	case errors.As(err, &stateErr):
		api.Fail(w, http.StatusConflict, "invalid_state", stateErr.Error(), requestID)
	case errors.Is(err, payrolldom.ErrRunNotCalculated):
		api.Fail(w, http.StatusConflict, "not_calculated", err.Error(), requestID)
	case errors.Is(err, payrolldom.ErrAnomaliesUnresolved):
		api.Fail(w, http.StatusConflict, "anomalies_unresolved", err.Error(), requestID)
	case errors.Is(err, payrolldom.ErrNoEligibleEmployees):
		api.Fail(w, http.StatusUnprocessableEntity, "no_eligible_employees", err.Error(), requestID)
	case errors.Is(err, payrolldom.ErrMissingHours):
		api.Fail(w, http.StatusUnprocessableEntity, "missing_hours", err.Error(), requestID)
	case errors.As(err, &unbalanced):
		api.Fail(w, http.StatusUnprocessableEntity, "unbalanced_entry", unbalanced.Error(), requestID)
	case errors.As(err, &unresolved):
		api.Fail(w, http.StatusUnprocessableEntity, "unresolved_account", unresolved.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "payroll operation failed", requestID)
	}
}
