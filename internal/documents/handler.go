package documents

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vinylworks/vinylops/internal/platform/httpx"
	"github.com/vinylworks/vinylops/internal/shared"
)

const idempotencyModule = "documents"

// Enqueuer schedules asynchronous renders.
type Enqueuer interface {
	EnqueueRender(ctx context.Context, job RenderJob) error
}

// KeyStore records idempotency keys together with the document they produced.
type KeyStore interface {
	Claim(ctx context.Context, key, module, resourceID string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}

// Handler serves document rendering.
type Handler struct {
	logger  *slog.Logger
	service *Service
	queue   Enqueuer
	keys    KeyStore
}

// NewHandler constructs the documents handler. queue and keys may be nil, in
// which case asynchronous requests answer 503.
func NewHandler(logger *slog.Logger, service *Service, queue Enqueuer, keys KeyStore) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, queue: queue, keys: keys}
}

// MountRoutes registers the document endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/documents/{kind}", h.create)
	r.Get("/documents/files/{id}", h.file)
}

type queuedResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	URL    string `json:"url"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	var src Source
	if err := httpx.DecodeJSON(r, &src); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be JSON")
		return
	}
	if _, err := Build(kind, src); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if isAsync(r) {
		h.enqueue(w, r, kind, src)
		return
	}

	pdf, err := h.service.Render(r.Context(), kind, src)
	if err != nil {
		h.logger.Error("render document", slog.String("kind", string(kind)), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Render Failed", "")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+filename(kind, src.Number)+`"`)
	_, _ = w.Write(pdf)
}

func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request, kind Kind, src Source) {
	if h.queue == nil || h.keys == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "asynchronous rendering not configured")
		return
	}
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "Idempotency-Key header required")
		return
	}
	job := RenderJob{ID: uuid.NewString(), Kind: kind, Source: src}
	id, claimed, err := h.keys.Claim(r.Context(), key, idempotencyModule, job.ID)
	if err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
			return
		}
		h.logger.Error("record idempotency key", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !claimed {
		w.Header().Set("Idempotent-Replayed", "true")
		w.Header().Set("Location", "/documents/files/"+id)
		httpx.JSON(w, http.StatusAccepted, queuedResponse{ID: id, Status: h.status(id), URL: "/documents/files/" + id})
		return
	}

	if err := h.queue.EnqueueRender(r.Context(), job); err != nil {
		h.logger.Error("enqueue render", slog.String("id", job.ID), slog.Any("error", err))
		if delErr := h.keys.Delete(r.Context(), key); delErr != nil {
			h.logger.Warn("release idempotency key", slog.Any("error", delErr))
		}
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "")
		return
	}
	w.Header().Set("Location", "/documents/files/"+job.ID)
	httpx.JSON(w, http.StatusAccepted, queuedResponse{ID: job.ID, Status: "queued", URL: "/documents/files/" + job.ID})
}

func (h *Handler) file(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	f, err := h.service.Store().Open(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "document not rendered yet")
			return
		}
		h.logger.Error("open document", slog.String("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeContent(w, r, id+".pdf", info.ModTime(), f)
}

// status reports "ready" once the document file exists.
func (h *Handler) status(id string) string {
	f, err := h.service.Store().Open(id)
	if err != nil {
		return "queued"
	}
	_ = f.Close()
	return "ready"
}

func isAsync(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("async")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func filename(kind Kind, number string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, number)
	return string(kind) + "-" + clean + ".pdf"
}
