package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	analytichttp "github.com/vinylworks/vinylops/internal/analytics/http"
	"github.com/vinylworks/vinylops/internal/documents"
	"github.com/vinylworks/vinylops/internal/observability"
	"github.com/vinylworks/vinylops/internal/platform/httpx"
	"github.com/vinylworks/vinylops/internal/records"
	"github.com/vinylworks/vinylops/internal/settings"
	"github.com/vinylworks/vinylops/jobs"
	"github.com/vinylworks/vinylops/report"
)

// ReadinessCheck reports whether a dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router. Nil handlers
// are skipped.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Metrics          *observability.Metrics
	SettingsHandler  *settings.Handler
	RecordsHandler   *records.Handler
	AnalyticsHandler *analytichttp.Handler
	DocumentsHandler *documents.Handler
	ReportHandler    *report.Handler
	JobHandler       *jobs.Handler
	Readiness        map[string]ReadinessCheck
}

// NewRouter constructs the chi.Router with vinylops defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readyHandler(params.Readiness))

	if params.SettingsHandler != nil {
		params.SettingsHandler.MountRoutes(r)
	}
	if params.RecordsHandler != nil {
		params.RecordsHandler.MountRoutes(r)
	}
	if params.AnalyticsHandler != nil {
		params.AnalyticsHandler.MountRoutes(r)
	}
	if params.DocumentsHandler != nil {
		params.DocumentsHandler.MountRoutes(r)
	}
	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

func readyHandler(checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		status := http.StatusOK
		out := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				out[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			out[name] = "ok"
		}
		httpx.JSON(w, status, out)
	}
}
