// Package analytichttp exposes analytics summaries over HTTP.
package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/vinylworks/vinylops/internal/platform/httpx"
)

// MountRoutes registers the analytics endpoints. Exports are rate limited per
// client IP since each one recomputes or renders a document.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export limit reached, retry later")
		}),
	)

	r.Get("/analytics/{kind}", h.handleSummary)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/analytics/{kind}/export.csv", h.handleCSV)
		gr.Get("/analytics/{kind}/export.xlsx", h.handleXLSX)
		gr.Get("/analytics/{kind}/export.pdf", h.handlePDF)
	})
}
