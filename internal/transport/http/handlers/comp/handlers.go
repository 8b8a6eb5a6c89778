package comp

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"paycore/internal/domain/audit"
	"paycore/internal/domain/auth"
	"paycore/internal/domain/compensation"
	"paycore/internal/requestctx"
	"paycore/internal/transport/http/api"
	"paycore/internal/transport/http/middleware"
	"paycore/internal/transport/http/shared"
)

type Handler struct {
	store *compensation.Store
	audit *audit.Service
}

func New(store *compensation.Store, auditSvc *audit.Service) *Handler {
	return &Handler{store: store, audit: auditSvc}
}

type createRecordRequest struct {
	PayType       string  `json:"payType"`
	PayRate       float64 `json:"payRate"`
	PayFrequency  string  `json:"payFrequency"`
	StandardHours float64 `json:"standardHours"`
	EffectiveFrom string  `json:"effectiveFrom"`
}

func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !auth.CanMutatePayroll(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "role cannot manage compensation", requestID)
		return
	}

	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", requestID)
		return
	}

	v := shared.NewValidator()
	v.Enum("payType", req.PayType,
		[]string{compensation.PayTypeHourly, compensation.PayTypeSalary, compensation.PayTypeCommission},
		"must be hourly, salary or commission")
	v.Enum("payFrequency", req.PayFrequency,
		[]string{compensation.FrequencyWeekly, compensation.FrequencyBiweekly, compensation.FrequencySemimonthly, compensation.FrequencyMonthly},
		"must be weekly, biweekly, semimonthly or monthly")
	v.NonNegative("payRate", req.PayRate, "must not be negative")
	if req.PayType == compensation.PayTypeHourly {
		v.Positive("standardHours", req.StandardHours, "is required for hourly pay")
	}
	effectiveFrom, _ := v.Date("effectiveFrom", req.EffectiveFrom)
	if v.Reject(w, requestID) {
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	record := compensation.Record{
		EmployeeID:    employeeID,
		PayType:       req.PayType,
		PayRate:       req.PayRate,
		PayFrequency:  req.PayFrequency,
		StandardHours: req.StandardHours,
		EffectiveFrom: effectiveFrom,
	}
	id, err := h.store.CreateRecord(r.Context(), user.TenantID, record)
	if errors.Is(err, compensation.ErrEffectiveBeforeCurrent) {
		api.Fail(w, http.StatusConflict, "effective_date_conflict", err.Error(), requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create compensation record", requestID)
		return
	}
	record.ID = id

	if err := h.audit.Record(r.Context(), user.TenantID, user.UserID, "compensation.create", "compensation_record", id, requestID, shared.ClientIP(r), nil, record); err != nil {
		log.Printf("audit record failed: %v", err)
	}
	api.Created(w, record, requestID)
}

func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	records, err := h.store.ListRecords(r.Context(), user.TenantID, chi.URLParam(r, "employeeID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list compensation records", requestID)
		return
	}
	api.Success(w, records, requestID)
}

type createDeductionRequest struct {
	DeductionType         string  `json:"deductionType"`
	Category              string  `json:"category"`
	CalculationMethod     string  `json:"calculationMethod"`
	Amount                float64 `json:"amount"`
	Rate                  float64 `json:"rate"`
	PerPeriodLimit        float64 `json:"perPeriodLimit"`
	AnnualLimit           float64 `json:"annualLimit"`
	EmployerMatchRate     float64 `json:"employerMatchRate"`
	GarnishmentCaseNumber string  `json:"garnishmentCaseNumber"`
	GarnishmentPriority   int     `json:"garnishmentPriority"`
	EffectiveFrom         string  `json:"effectiveFrom"`
}

func (h *Handler) CreateDeduction(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !auth.CanMutatePayroll(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "role cannot manage deductions", requestID)
		return
	}

	var req createDeductionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", requestID)
		return
	}
	if req.Category == "" {
		req.Category = compensation.CategoryBenefit
	}

	v := shared.NewValidator()
	v.Required("deductionType", req.DeductionType, "is required")
	v.Enum("category", req.Category,
		[]string{compensation.CategoryBenefit, compensation.CategoryGarnishment, compensation.CategoryOther},
		"must be benefit, garnishment or other")
	v.Enum("calculationMethod", req.CalculationMethod,
		[]string{compensation.MethodFixed, compensation.MethodPercentGross, compensation.MethodPercentNet},
		"must be fixed, percent_gross or percent_net")
	v.NonNegative("amount", req.Amount, "must not be negative")
	v.NonNegative("rate", req.Rate, "must not be negative")
	if req.Category == compensation.CategoryGarnishment {
		v.Required("garnishmentCaseNumber", req.GarnishmentCaseNumber, "is required for garnishments")
		v.Positive("garnishmentPriority", float64(req.GarnishmentPriority), "is required for garnishments")
	}
	effectiveFrom, _ := v.Date("effectiveFrom", req.EffectiveFrom)
	if v.Reject(w, requestID) {
		return
	}

	deduction := compensation.Deduction{
		EmployeeID:            chi.URLParam(r, "employeeID"),
		DeductionType:         req.DeductionType,
		Category:              req.Category,
		CalculationMethod:     req.CalculationMethod,
		Amount:                req.Amount,
		Rate:                  req.Rate,
		PerPeriodLimit:        req.PerPeriodLimit,
		AnnualLimit:           req.AnnualLimit,
		EmployerMatchRate:     req.EmployerMatchRate,
		GarnishmentCaseNumber: req.GarnishmentCaseNumber,
		GarnishmentPriority:   req.GarnishmentPriority,
		EffectiveFrom:         effectiveFrom,
	}
	id, err := h.store.CreateDeduction(r.Context(), user.TenantID, deduction)
	if errors.Is(err, compensation.ErrDuplicateEnrollment) {
		api.Fail(w, http.StatusConflict, "duplicate_enrollment", err.Error(), requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create deduction enrollment", requestID)
		return
	}
	deduction.ID = id
	deduction.IsActive = true

	if err := h.audit.Record(r.Context(), user.TenantID, user.UserID, "deduction.create", "employee_deduction", id, requestID, shared.ClientIP(r), nil, deduction); err != nil {
		log.Printf("audit record failed: %v", err)
	}
	api.Created(w, deduction, requestID)
}

func (h *Handler) ListDeductions(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	deductions, err := h.store.ListDeductions(r.Context(), user.TenantID, chi.URLParam(r, "employeeID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list deductions", requestID)
		return
	}
	api.Success(w, deductions, requestID)
}

type endDeductionRequest struct {
	EffectiveTo string `json:"effectiveTo"`
}

func (h *Handler) EndDeduction(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !auth.CanMutatePayroll(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "role cannot manage deductions", requestID)
		return
	}

	var req endDeductionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", requestID)
		return
	}
	effectiveTo := time.Now()
	if req.EffectiveTo != "" {
		v := shared.NewValidator()
		parsed, ok := v.Date("effectiveTo", req.EffectiveTo)
		if !ok {
			shared.FailValidation(w, requestID, v.Issues())
			return
		}
		effectiveTo = parsed
	}

	employeeID := chi.URLParam(r, "employeeID")
	deductionID := chi.URLParam(r, "deductionID")
	err := h.store.EndDeduction(r.Context(), user.TenantID, employeeID, deductionID, effectiveTo)
	switch {
	case errors.Is(err, compensation.ErrDeductionNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "deduction enrollment not found", requestID)
		return
	case errors.Is(err, compensation.ErrDeductionEnded):
		api.Fail(w, http.StatusConflict, "already_ended", err.Error(), requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to end deduction enrollment", requestID)
		return
	}

	if err := h.audit.Record(r.Context(), user.TenantID, user.UserID, "deduction.end", "employee_deduction", deductionID, requestID, shared.ClientIP(r), nil, map[string]any{"effectiveTo": effectiveTo}); err != nil {
		log.Printf("audit record failed: %v", err)
	}
	api.Success(w, map[string]any{"id": deductionID, "isActive": false}, requestID)
}
