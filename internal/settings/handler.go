package settings

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vinylworks/vinylops/internal/platform/httpx"
)

// Handler exposes the exchange rate settings over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the settings handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the settings endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/settings/exchange-rates", h.get)
	r.Put("/settings/exchange-rates", h.put)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rates, err := h.service.Current(r.Context())
	if err != nil {
		h.logger.Error("load exchange rates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rates)
}

func (h *Handler) put(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be JSON")
		return
	}
	rates, err := h.service.Update(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("update exchange rates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rates)
}
