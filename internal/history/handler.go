package history

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sundayezeilo/shortenctl/internal/errx"
	"github.com/sundayezeilo/shortenctl/internal/httpx"
)

// ListResponse is the body of GET /api/history.
type ListResponse struct {
	Records []Record `json:"records"`
}

// Handler serves stored history over HTTP.
type Handler struct {
	repo   Repository
	logger *slog.Logger
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Repository Repository
	Logger     *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(config HandlerConfig) *Handler {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Handler{
		repo:   config.Repository,
		logger: config.Logger,
	}
}

// List handles GET /api/history?limit=N.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	records, err := h.repo.List(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list history",
			"request_id", httpx.GetRequestID(r.Context()),
			"operation", errx.OpOf(err),
			"error", err,
		)
		kind := errx.KindOf(err)
		httpx.WriteError(w, httpx.ErrorKindToStatus(kind), httpx.ErrorKindToCode(kind), "failed to read history", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ListResponse{Records: records})
}

// Disabled answers every history request with 404 when no repository is configured.
func Disabled(w http.ResponseWriter, r *http.Request) {
	httpx.WriteError(w, http.StatusNotFound, "not_found", errDisabled.Error(), nil)
}

var errDisabled = errors.New("history is disabled")
