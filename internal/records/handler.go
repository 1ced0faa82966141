package records

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vinylworks/vinylops/internal/platform/httpx"
)

const defaultPageSize = 50

// Handler serves read-only record listings.
type Handler struct {
	logger *slog.Logger
	source *Source
}

// NewHandler constructs the records handler.
func NewHandler(logger *slog.Logger, source *Source) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, source: source}
}

// MountRoutes registers the listing endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/records/{kind}", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 500 {
		limit = defaultPageSize
	}

	f := Filter{Limit: limit, Offset: (page - 1) * limit}
	var ok bool
	if f.From, ok = h.parseBound(q.Get("start")); !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid start date")
		return
	}
	if f.To, ok = h.parseBound(q.Get("end")); !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid end date")
		return
	}

	items, err := h.source.List(r.Context(), kind, f)
	if err != nil {
		if errors.Is(err, ErrUnknownKind) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("list records", slog.String("kind", string(kind)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"kind":  kind,
		"page":  page,
		"limit": limit,
		"items": items,
	})
}

// parseBound accepts an empty bound as open.
func (h *Handler) parseBound(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	return h.source.calendar.ParseDate(raw)
}
