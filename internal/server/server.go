package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/runnerr0/focuslog/internal/analytics"
	"github.com/runnerr0/focuslog/internal/report"
	focusmw "github.com/runnerr0/focuslog/internal/server/middleware"
	"github.com/runnerr0/focuslog/internal/tracking"
)

// Recorder ingests finalized visit events.
type Recorder interface {
	Record(ctx context.Context, userID string, ev tracking.VisitEvent) (tracking.SiteVisitRecord, error)
}

// Analytics loads datasets and computes views over them.
type Analytics interface {
	Load(ctx context.Context, userID string, rng tracking.DateRange) (*analytics.Dataset, error)
	LoadGoals(ctx context.Context, userID string) (tracking.UserGoals, error)
	ComputeComprehensive(ctx context.Context, userID string, rng tracking.DateRange) (*analytics.Comprehensive, error)
	Location() *time.Location
}

// Reports generates and lists productivity reports.
type Reports interface {
	Generate(ctx context.Context, userID string, rng tracking.DateRange) (*report.ProductivityReport, error)
	List(ctx context.Context, userID string, rng tracking.DateRange) ([]report.ProductivityReport, error)
	Get(ctx context.Context, userID, id string) (*report.ProductivityReport, error)
}

type Dependencies struct {
	Recorder  Recorder
	Analytics Analytics
	Reports   Reports
	Logger    zerolog.Logger
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	MaxRequestSize  int64
	DefaultUser     string
	Dependencies    Dependencies
}

type WebAPI struct {
	router          http.Handler
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

// ConfigureRouter builds the /api/v1 router.
func ConfigureRouter(config Config) http.Handler {
	h := &handler{
		recorder:       config.Dependencies.Recorder,
		analytics:      config.Dependencies.Analytics,
		reports:        config.Dependencies.Reports,
		maxRequestSize: config.MaxRequestSize,
		now:            time.Now,
	}
	logger := config.Dependencies.Logger

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(focusmw.Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", h.Health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(focusmw.User(config.DefaultUser))

		r.Post("/tracking/events", h.RecordVisit)
		r.Get("/tracking/summary", h.DailySummary)
		r.Get("/tracking/sites", h.SiteActivity)

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/comprehensive", h.Comprehensive)
			r.Get("/hourly-patterns", h.HourlyPatterns)
			r.Get("/trends", h.Trends)
			r.Get("/distribution", h.Distribution)
			r.Get("/insights", h.Insights)
			r.Get("/goals", h.GoalAchievement)
		})

		r.Post("/reports", h.GenerateReport)
		r.Get("/reports", h.ListReports)
		r.Get("/reports/{id}", h.GetReport)
	})

	return router
}

func NewWebAPI(config Config) *WebAPI {
	router := ConfigureRouter(config)
	logger := config.Dependencies.Logger

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: timeout,
	}
}

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests within the shutdown timeout.
func (w *WebAPI) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-shutdown:
		w.logger.Info().Str("signal", sig.String()).Msg("shutdown initiated")
	case <-ctx.Done():
		w.logger.Info().Msg("shutdown initiated")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
	defer cancel()

	err := w.server.Shutdown(shutdownCtx)
	if err != nil {
		w.logger.Error().Err(err).Msg("graceful shutdown failed")
		err = w.server.Close()
	}
	return err
}
