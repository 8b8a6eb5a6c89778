package payroll

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"paycore/internal/domain/auth"
	payrolldom "paycore/internal/domain/payroll"
	"paycore/internal/requestctx"
	"paycore/internal/transport/http/api"
	"paycore/internal/transport/http/middleware"
	"paycore/internal/transport/http/shared"
)

type calculateRequest struct {
	Hours []payrolldom.HoursInput `json:"hours"`
}

func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !auth.CanMutatePayroll(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "role cannot calculate payroll", requestID)
		return
	}

	var req calculateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", requestID)
			return
		}
	}

	runID := chi.URLParam(r, "runID")
	run, err := h.service.Calculate(r.Context(), user.TenantID, runID, req.Hours)
	if err != nil {
		failRunError(w, err, requestID)
		return
	}

	if err := h.audit.Record(r.Context(), user.TenantID, user.UserID, "payroll.run.calculate", "payroll_run", runID, requestID, shared.ClientIP(r), nil, run); err != nil {
		log.Printf("audit record failed: %v", err)
	}
	api.Success(w, run, requestID)
}

type approveRequest struct {
	AcknowledgeAnomalies bool `json:"acknowledgeAnomalies"`
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !auth.CanApprovePayroll(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "role cannot approve payroll", requestID)
		return
	}

	var req approveRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", requestID)
			return
		}
	}

	runID := chi.URLParam(r, "runID")
	run, err := h.service.Approve(r.Context(), user.TenantID, runID, user.UserID, req.AcknowledgeAnomalies)
	if err != nil {
		failRunError(w, err, requestID)
		return
	}

	if err := h.audit.Record(r.Context(), user.TenantID, user.UserID, "payroll.run.approve", "payroll_run", runID, requestID, shared.ClientIP(r), nil, run); err != nil {
		log.Printf("audit record failed: %v", err)
	}
	api.Success(w, run, requestID)
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !auth.CanApprovePayroll(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "role cannot post payroll", requestID)
		return
	}

	runID := chi.URLParam(r, "runID")
	entry, err := h.service.Post(r.Context(), user.TenantID, runID)
	if err != nil {
		failRunError(w, err, requestID)
		return
	}

	if err := h.audit.Record(r.Context(), user.TenantID, user.UserID, "payroll.run.post", "payroll_run", runID, requestID, shared.ClientIP(r), nil, map[string]any{"journalEntryId": entry.ID}); err != nil {
		log.Printf("audit record failed: %v", err)
	}
	api.Success(w, entry, requestID)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if !auth.CanMutatePayroll(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "role cannot cancel payroll", requestID)
		return
	}

	runID := chi.URLParam(r, "runID")
	run, err := h.service.Cancel(r.Context(), user.TenantID, runID)
	if err != nil {
		failRunError(w, err, requestID)
		return
	}

	if err := h.audit.Record(r.Context(), user.TenantID, user.UserID, "payroll.run.cancel", "payroll_run", runID, requestID, shared.ClientIP(r), nil, run); err != nil {
		log.Printf("audit record failed: %v", err)
	}
	api.Success(w, run, requestID)
}

// Register streams the payroll register as CSV.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
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

	rows, err := h.store.RegisterRows(r.Context(), user.TenantID, runID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to build payroll register", requestID)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payroll-register-%s.csv", runID))

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"employee", "employee_id", "gross_pay", "federal_tax", "state_tax", "fica", "deductions", "net_pay"})
	for _, row := range rows {
		_ = writer.Write([]string{
			row.EmployeeName,
			row.EmployeeID,
			money(row.GrossPay),
			money(row.FederalTax),
			money(row.StateTax),
			money(row.FICA),
			money(row.Deductions),
			money(row.NetPay),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Printf("payroll register write failed: %v", err)
	}
}

// Payslip renders one run employee's payslip PDF.
func (h *Handler) Payslip(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	runID := chi.URLParam(r, "runID")
	runEmployeeID := chi.URLParam(r, "runEmployeeID")
	run, err := h.store.GetRun(r.Context(), user.TenantID, runID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "payroll run not found", requestID)
		return
	}
	period, err := h.store.GetPeriod(r.Context(), user.TenantID, run.PeriodID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to load pay period", requestID)
		return
	}

	results, err := h.store.ListResults(r.Context(), user.TenantID, runID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to load run results", requestID)
		return
	}
	var result *payrolldom.RunEmployee
	for i := range results {
		if results[i].ID == runEmployeeID {
			result = &results[i]
			break
		}
	}
	if result == nil {
		api.Fail(w, http.StatusNotFound, "not_found", "run employee not found", requestID)
		return
	}

	pdf, err := payrolldom.BuildPayslipPDF(period, *result)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render payslip", requestID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payslip-%s.pdf", runEmployeeID))
	if _, err := w.Write(pdf); err != nil {
		log.Printf("payslip write failed: %v", err)
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
