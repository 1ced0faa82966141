package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vinylworks/vinylops/internal/aggregation"
	"github.com/vinylworks/vinylops/internal/analytics"
	"github.com/vinylworks/vinylops/internal/analytics/export"
	"github.com/vinylworks/vinylops/internal/platform/httpx"
	"github.com/vinylworks/vinylops/internal/records"
)

const requestTimeout = 10 * time.Second

// AnalyticsService is the summary contract used by the handler.
type AnalyticsService interface {
	Summarize(ctx context.Context, req analytics.Request) (analytics.Summary, error)
}

// PDFService renders summaries to PDF bytes.
type PDFService interface {
	RenderSummary(ctx context.Context, sum analytics.Summary) ([]byte, error)
}

// Handler serves aggregation results and their exports.
type Handler struct {
	logger  *slog.Logger
	service AnalyticsService
	pdf     PDFService
	bufPool sync.Pool
}

// NewHandler constructs the analytics HTTP handler. pdf may be nil, in which
// case the PDF export answers 503.
func NewHandler(logger *slog.Logger, service AnalyticsService, pdf PDFService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{logger: logger, service: service, pdf: pdf}
	h.bufPool.New = func() any { return new(bytes.Buffer) }
	return h
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	h.writeExport(w, r, "csv", "text/csv; charset=utf-8", export.WriteSummaryCSV)
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	h.writeExport(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.WriteSummaryXLSX)
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "pdf exporter not configured")
		return
	}
	h.writeExport(w, r, "pdf", "application/pdf", func(out io.Writer, sum analytics.Summary) error {
		data, err := h.pdf.RenderSummary(r.Context(), sum)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	})
}

func (h *Handler) writeExport(w http.ResponseWriter, r *http.Request, ext, contentType string, write func(io.Writer, analytics.Summary) error) {
	sum, ok := h.load(w, r)
	if !ok {
		return
	}

	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.bufPool.Put(buf)
	}()

	if err := write(buf, sum); err != nil {
		h.handleServerError(w, "write "+ext, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", exportFilename(sum, ext)))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream "+ext, err)
	}
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (analytics.Summary, bool) {
	q := r.URL.Query()
	unit := strings.TrimSpace(q.Get("unit"))
	if unit == "" {
		unit = string(aggregation.UnitMonth)
	}
	req := analytics.Request{
		Kind:  records.Kind(chi.URLParam(r, "kind")),
		Unit:  aggregation.Unit(unit),
		Start: strings.TrimSpace(q.Get("start")),
		End:   strings.TrimSpace(q.Get("end")),
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sum, err := h.service.Summarize(ctx, req)
	if err != nil {
		if errors.Is(err, analytics.ErrInvalidRequest) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Parameters", err.Error())
			return analytics.Summary{}, false
		}
		h.handleServerError(w, "summarize", err)
		return analytics.Summary{}, false
	}
	return sum, true
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

func (h *Handler) logError(context string, err error) {
	h.logger.Error(context, slog.Any("error", err))
}

func exportFilename(sum analytics.Summary, ext string) string {
	parts := []string{string(sum.Kind), string(sum.Unit)}
	if sum.StartDate != "" {
		parts = append(parts, sum.StartDate)
	}
	if sum.EndDate != "" {
		parts = append(parts, sum.EndDate)
	}
	return strings.Join(parts, "-") + "." + ext
}
