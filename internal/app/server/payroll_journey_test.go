package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"paycore/internal/platform/config"
)

// The journey tests exercise the full stack against a real database. They
// skip unless TEST_DATABASE_URL points at a disposable Postgres instance.
func testApp(t *testing.T) *App {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		Addr:              ":0",
		DatabaseURL:       dsn,
		JWTSecret:         "test-secret",
		Environment:       "test",
		SeedTenantName:    "Journey Test Tenant",
		SeedAdminEmail:    fmt.Sprintf("admin-%d@example.test", time.Now().UnixNano()),
		SeedAdminPassword: "journey-password",
		RunMigrations:     true,
		MigrationsDir:     "../../../migrations",
		RunSeed:           true,
		MaxBodyBytes:      1 << 20,
		MetricsEnabled:    true,
		ShutdownTimeout:   time.Second,
	}

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, app *App, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode response (%d): %v: %s", method, path, rec.Code, err, rec.Body.String())
	}
	return rec.Code, env
}

func decodeData(t *testing.T, env envelope, out any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v: %s", err, string(env.Data))
	}
}

func login(t *testing.T, app *App, email, password string) string {
	t.Helper()
	status, env := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusOK {
		t.Fatalf("login failed: %d %+v", status, env.Error)
	}
	var data struct {
		Token string `json:"token"`
	}
	decodeData(t, env, &data)
	return data.Token
}

func TestPayrollJourney(t *testing.T) {
	app := testApp(t)
	token := login(t, app, app.cfg.SeedAdminEmail, app.cfg.SeedAdminPassword)

	// Employee with a 401k enrollment and a salary record.
	status, env := doJSON(t, app, http.MethodPost, "/api/v1/employees", token, map[string]any{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     fmt.Sprintf("ada-%d@example.test", time.Now().UnixNano()),
		"stateCode": "TX",
		"taxProfile": map[string]any{
			"filingStatus": "single",
		},
	})
	if status != http.StatusCreated {
		t.Fatalf("create employee: %d %+v", status, env.Error)
	}
	var employee struct {
		ID string `json:"id"`
	}
	decodeData(t, env, &employee)

	status, env = doJSON(t, app, http.MethodPost, "/api/v1/employees/"+employee.ID+"/compensation", token, map[string]any{
		"payType":       "salary",
		"payRate":       52000,
		"payFrequency":  "biweekly",
		"effectiveFrom": "2024-01-01",
	})
	if status != http.StatusCreated {
		t.Fatalf("create compensation: %d %+v", status, env.Error)
	}

	status, env = doJSON(t, app, http.MethodPost, "/api/v1/employees/"+employee.ID+"/deductions", token, map[string]any{
		"deductionType":     "401k",
		"category":          "benefit",
		"calculationMethod": "fixed",
		"amount":            100,
		"employerMatchRate": 0.5,
		"effectiveFrom":     "2024-01-01",
	})
	if status != http.StatusCreated {
		t.Fatalf("create deduction: %d %+v", status, env.Error)
	}

	// Schedule, period, run.
	status, env = doJSON(t, app, http.MethodPost, "/api/v1/payroll/schedules", token, map[string]any{
		"name":      "Biweekly",
		"frequency": "biweekly",
	})
	if status != http.StatusCreated {
		t.Fatalf("create schedule: %d %+v", status, env.Error)
	}
	var schedule struct {
		ID string `json:"id"`
	}
	decodeData(t, env, &schedule)

	status, env = doJSON(t, app, http.MethodPost, "/api/v1/payroll/periods", token, map[string]any{
		"scheduleId":  schedule.ID,
		"periodStart": "2024-01-01",
		"periodEnd":   "2024-01-14",
		"payDate":     "2024-01-19",
	})
	if status != http.StatusCreated {
		t.Fatalf("create period: %d %+v", status, env.Error)
	}
	var period struct {
		ID string `json:"id"`
	}
	decodeData(t, env, &period)

	status, env = doJSON(t, app, http.MethodPost, "/api/v1/payroll/runs", token, map[string]any{
		"periodId": period.ID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create run: %d %+v", status, env.Error)
	}
	var run struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, env, &run)
	if run.Status != "draft" {
		t.Fatalf("new run status = %s, want draft", run.Status)
	}

	// Approving before calculating is an illegal transition.
	status, env = doJSON(t, app, http.MethodPost, "/api/v1/payroll/runs/"+run.ID+"/approve", token, nil)
	if status != http.StatusConflict {
		t.Fatalf("approve before calculate: %d, want 409", status)
	}

	// Calculate and check the figures.
	status, env = doJSON(t, app, http.MethodPost, "/api/v1/payroll/runs/"+run.ID+"/calculate", token, nil)
	if status != http.StatusOK {
		t.Fatalf("calculate: %d %+v", status, env.Error)
	}
	var calculated struct {
		Status        string  `json:"status"`
		EmployeeCount int     `json:"employeeCount"`
		TotalGrossPay float64 `json:"totalGrossPay"`
		TotalNetPay   float64 `json:"totalNetPay"`
	}
	decodeData(t, env, &calculated)
	if calculated.Status != "calculated" {
		t.Fatalf("run status = %s, want calculated", calculated.Status)
	}
	if calculated.EmployeeCount != 1 {
		t.Fatalf("employee count = %d, want 1", calculated.EmployeeCount)
	}
	if calculated.TotalGrossPay != 2000 {
		t.Fatalf("gross = %.2f, want 2000.00", calculated.TotalGrossPay)
	}
	if calculated.TotalNetPay <= 0 || calculated.TotalNetPay >= calculated.TotalGrossPay {
		t.Fatalf("net = %.2f, want positive and below gross", calculated.TotalNetPay)
	}

	// Recalculation is allowed and idempotent on the totals.
	status, env = doJSON(t, app, http.MethodPost, "/api/v1/payroll/runs/"+run.ID+"/calculate", token, nil)
	if status != http.StatusOK {
		t.Fatalf("recalculate: %d %+v", status, env.Error)
	}
	var recalculated struct {
		TotalGrossPay float64 `json:"totalGrossPay"`
		TotalNetPay   float64 `json:"totalNetPay"`
	}
	decodeData(t, env, &recalculated)
	if recalculated.TotalGrossPay != calculated.TotalGrossPay || recalculated.TotalNetPay != calculated.TotalNetPay {
		t.Fatalf("recalculation changed totals: %+v vs %+v", recalculated, calculated)
	}

	// Approve and post.
	status, env = doJSON(t, app, http.MethodPost, "/api/v1/payroll/runs/"+run.ID+"/approve", token, nil)
	if status != http.StatusOK {
		t.Fatalf("approve: %d %+v", status, env.Error)
	}

	status, env = doJSON(t, app, http.MethodPost, "/api/v1/payroll/runs/"+run.ID+"/post", token, nil)
	if status != http.StatusOK {
		t.Fatalf("post: %d %+v", status, env.Error)
	}
	var entry struct {
		ID    string `json:"id"`
		Lines []struct {
			Debit  float64 `json:"debit"`
			Credit float64 `json:"credit"`
		} `json:"lines"`
	}
	decodeData(t, env, &entry)
	if entry.ID == "" || len(entry.Lines) < 3 {
		t.Fatalf("journal entry incomplete: %+v", entry)
	}
	var debits, credits float64
	for _, line := range entry.Lines {
		debits += line.Debit
		credits += line.Credit
	}
	if diff := debits - credits; diff > 0.01 || diff < -0.01 {
		t.Fatalf("entry unbalanced: debits %.2f credits %.2f", debits, credits)
	}

	// Posting again returns the same entry.
	status, env = doJSON(t, app, http.MethodPost, "/api/v1/payroll/runs/"+run.ID+"/post", token, nil)
	if status != http.StatusOK {
		t.Fatalf("re-post: %d %+v", status, env.Error)
	}
	var again struct {
		ID string `json:"id"`
	}
	decodeData(t, env, &again)
	if again.ID != entry.ID {
		t.Fatalf("re-post returned a new entry: %s vs %s", again.ID, entry.ID)
	}

	// The posted run is terminal.
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/payroll/runs/"+run.ID+"/cancel", token, nil)
	if status != http.StatusConflict {
		t.Fatalf("cancel posted run: %d, want 409", status)
	}

	// Register export serves CSV.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/runs/"+run.ID+"/register", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("register export: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("register content type = %s", ct)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("Ada Lovelace")) {
		t.Fatalf("register missing employee row: %s", rec.Body.String())
	}
}

func TestDuplicateRegularRunRejected(t *testing.T) {
	app := testApp(t)
	token := login(t, app, app.cfg.SeedAdminEmail, app.cfg.SeedAdminPassword)

	status, env := doJSON(t, app, http.MethodPost, "/api/v1/payroll/schedules", token, map[string]any{
		"name":      "Monthly",
		"frequency": "monthly",
	})
	if status != http.StatusCreated {
		t.Fatalf("create schedule: %d %+v", status, env.Error)
	}
	var schedule struct {
		ID string `json:"id"`
	}
	decodeData(t, env, &schedule)

	status, env = doJSON(t, app, http.MethodPost, "/api/v1/payroll/periods", token, map[string]any{
		"scheduleId":  schedule.ID,
		"periodStart": "2024-02-01",
		"periodEnd":   "2024-02-29",
		"payDate":     "2024-03-05",
	})
	if status != http.StatusCreated {
		t.Fatalf("create period: %d %+v", status, env.Error)
	}
	var period struct {
		ID string `json:"id"`
	}
	decodeData(t, env, &period)

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/payroll/runs", token, map[string]any{"periodId": period.ID})
	if status != http.StatusCreated {
		t.Fatalf("first run: %d", status)
	}
	status, env = doJSON(t, app, http.MethodPost, "/api/v1/payroll/runs", token, map[string]any{"periodId": period.ID})
	if status != http.StatusConflict {
		t.Fatalf("duplicate run: %d, want 409", status)
	}
	if env.Error == nil || env.Error.Code != "duplicate_run" {
		t.Fatalf("wrong error: %+v", env.Error)
	}

	// An off-cycle run for the same period is fine.
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/payroll/runs", token, map[string]any{
		"periodId": period.ID,
		"runType":  "off_cycle",
	})
	if status != http.StatusCreated {
		t.Fatalf("off-cycle run: %d, want 201", status)
	}
}
