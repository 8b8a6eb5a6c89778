package server

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"paycore/internal/domain/audit"
	"paycore/internal/domain/auth"
	"paycore/internal/domain/compensation"
	"paycore/internal/domain/core"
	"paycore/internal/domain/ledger"
	"paycore/internal/domain/payroll"
	"paycore/internal/platform/config"
	cryptoutil "paycore/internal/platform/crypto"
	"paycore/internal/platform/db"
	"paycore/internal/platform/events"
	"paycore/internal/platform/metrics"
	"paycore/internal/requestctx"
	"paycore/internal/transport/http/api"
	"paycore/internal/transport/http/handlers/auditlog"
	"paycore/internal/transport/http/handlers/authn"
	"paycore/internal/transport/http/handlers/comp"
	"paycore/internal/transport/http/handlers/employees"
	ledgerhandlers "paycore/internal/transport/http/handlers/ledgerh"
	payrollhandlers "paycore/internal/transport/http/handlers/payroll"
	"paycore/internal/transport/http/middleware"
)

type App struct {
	Router    *chi.Mux
	DB        *pgxpool.Pool
	cfg       config.Config
	publisher events.Publisher
	server    *http.Server
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	cryptoSvc, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, err
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	collector := metrics.New()
	auditSvc := audit.New(pool)

	authStore := auth.NewStore(pool)
	coreStore := core.NewStore(pool, cryptoSvc)
	compStore := compensation.NewStore(pool)
	payrollStore := payroll.NewStore(pool)
	ledgerStore := ledger.NewStore(pool)
	payrollSvc := payroll.NewService(pool, payrollStore, compStore, ledgerStore, publisher, collector)

	authHandler := authn.New(authStore, cfg.JWTSecret)
	employeeHandler := employees.New(coreStore, auditSvc)
	compHandler := comp.New(compStore, auditSvc)
	payrollHandler := payrollhandlers.New(payrollStore, payrollSvc, auditSvc)
	ledgerHandler := ledgerhandlers.New(ledgerStore, auditSvc)
	auditHandler := auditlog.New(auditSvc)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(collector))
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, map[string]string{"status": "ok"}, requestctx.GetRequestID(r.Context()))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		requestID := requestctx.GetRequestID(r.Context())
		if err := pool.Ping(r.Context()); err != nil {
			api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database unreachable", requestID)
			return
		}
		api.Success(w, map[string]string{"status": "ready"}, requestID)
	})
	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), requestctx.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", employeeHandler.List)
			r.Post("/", employeeHandler.Create)
			r.Get("/{employeeID}", employeeHandler.Get)
			r.Get("/{employeeID}/compensation", compHandler.ListRecords)
			r.Post("/{employeeID}/compensation", compHandler.CreateRecord)
			r.Get("/{employeeID}/deductions", compHandler.ListDeductions)
			r.Post("/{employeeID}/deductions", compHandler.CreateDeduction)
			r.Patch("/{employeeID}/deductions/{deductionID}", compHandler.EndDeduction)
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Get("/schedules", payrollHandler.ListSchedules)
			r.Post("/schedules", payrollHandler.CreateSchedule)
			r.Get("/periods", payrollHandler.ListPeriods)
			r.Post("/periods", payrollHandler.CreatePeriod)

			r.Route("/runs", func(r chi.Router) {
				r.Get("/", payrollHandler.ListRuns)
				r.Post("/", payrollHandler.CreateRun)
				r.Get("/{runID}", payrollHandler.GetRun)
				r.Post("/{runID}/calculate", payrollHandler.Calculate)
				r.Post("/{runID}/approve", payrollHandler.Approve)
				r.Post("/{runID}/post", payrollHandler.Post)
				r.Post("/{runID}/cancel", payrollHandler.Cancel)
				r.Get("/{runID}/employees", payrollHandler.ListRunEmployees)
				r.Get("/{runID}/register", payrollHandler.Register)
				r.Get("/{runID}/employees/{runEmployeeID}/payslip", payrollHandler.Payslip)
			})
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/accounts", ledgerHandler.ListAccounts)
			r.Post("/accounts", ledgerHandler.CreateAccount)
			r.Get("/mappings", ledgerHandler.ListMappings)
			r.Post("/mappings", ledgerHandler.CreateMapping)
			r.Get("/journal-entries/{entryID}", ledgerHandler.GetJournalEntry)
		})

		r.Get("/audit/events", auditHandler.List)
	})

	return &App{
		Router:    router,
		DB:        pool,
		cfg:       cfg,
		publisher: publisher,
	}, nil
}

// Run serves until the context is cancelled, then drains within the
// configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	a.server = &http.Server{
		Addr:    a.cfg.Addr,
		Handler: a.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", a.cfg.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if err := a.publisher.Close(); err != nil {
		log.Printf("publisher close failed: %v", err)
	}
	a.DB.Close()
}
