package shortener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sundayezeilo/shortenctl/internal/errx"
	"github.com/sundayezeilo/shortenctl/internal/httpx"
)

// MaxBatchSize is the largest number of URLs accepted in one batch request.
const MaxBatchSize = 500

// Shortener is the part of *Client the HTTP layer depends on.
type Shortener interface {
	Shorten(ctx context.Context, req Request) (string, error)
	ShortenBatch(ctx context.Context, service ServiceID, urls []string) ([]Outcome, error)
	HasCredential(service ServiceID) bool
}

// HTTPShortenRequest represents the JSON request body for shortening one URL.
type HTTPShortenRequest struct {
	Service string `json:"service"`
	URL     string `json:"url"`
}

// ShortenResponse represents the JSON response for a shortened URL.
type ShortenResponse struct {
	Service     string `json:"service"`
	OriginalURL string `json:"original_url"`
	ShortURL    string `json:"short_url"`
}

// HTTPBatchRequest represents the JSON request body for a batch.
type HTTPBatchRequest struct {
	Service string   `json:"service"`
	URLs    []string `json:"urls"`
}

// BatchResponse lists one item per input URL, in input order.
type BatchResponse struct {
	Service string      `json:"service"`
	Results []BatchItem `json:"results"`
	Failed  int         `json:"failed"`
}

type BatchItem struct {
	OriginalURL string     `json:"original_url"`
	ShortURL    string     `json:"short_url,omitempty"`
	Error       *ItemError `json:"error,omitempty"`
}

type ItemError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type ServiceInfo struct {
	Name          string `json:"name"`
	CredentialKey string `json:"credential_key"`
	Configured    bool   `json:"configured"`
}

// Handler provides HTTP handlers over the shortening client.
type Handler struct {
	shortener Shortener
	logger    *slog.Logger
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Shortener Shortener
	Logger    *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		shortener: cfg.Shortener,
		logger:    logger,
	}
}

// ListServices reports the supported providers and whether a key is set.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services := make([]ServiceInfo, 0, len(Services))
	for _, s := range Services {
		services = append(services, ServiceInfo{
			Name:          s.String(),
			CredentialKey: s.CredentialKey(),
			Configured:    h.shortener.HasCredential(s),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"services": services})
}

// Shorten handles POST requests that shorten a single URL.
func (h *Handler) Shorten(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	logger := h.logger.With(
		"request_id", httpx.GetRequestID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
	)

	req, err := httpx.DecodeJSON[HTTPShortenRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	service, err := ParseServiceID(req.Service)
	if err != nil {
		logger.WarnContext(ctx, "unknown service", "service", req.Service)
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}

	short, err := h.shortener.Shorten(ctx, Request{Service: service, LongURL: req.URL})
	if err != nil {
		h.handleShortenError(ctx, w, err, service)
		return
	}

	logger.InfoContext(ctx, "url shortened",
		"service", service.String(),
		"short_url", short,
	)

	httpx.WriteJSON(w, http.StatusOK, ShortenResponse{
		Service:     service.String(),
		OriginalURL: strings.TrimSpace(req.URL),
		ShortURL:    short,
	})
}

// ShortenBatch handles POST requests that shorten several URLs in order.
// Per-URL failures are reported inside a 200 response.
func (h *Handler) ShortenBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	logger := h.logger.With(
		"request_id", httpx.GetRequestID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
	)

	req, err := httpx.DecodeJSON[HTTPBatchRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	service, err := ParseServiceID(req.Service)
	if err != nil {
		logger.WarnContext(ctx, "unknown service", "service", req.Service)
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}
	if err := validateBatchRequest(req); err != nil {
		logger.WarnContext(ctx, "batch validation failed", "error", err.Error(), "size", len(req.URLs))
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}

	outcomes, err := h.shortener.ShortenBatch(ctx, service, req.URLs)
	if err != nil {
		h.handleShortenError(ctx, w, err, service)
		return
	}

	resp := BatchResponse{
		Service: service.String(),
		Results: make([]BatchItem, len(outcomes)),
	}
	for i, o := range outcomes {
		item := BatchItem{OriginalURL: o.URL, ShortURL: o.ShortURL}
		if !o.OK() {
			resp.Failed++
			item.Error = &ItemError{
				Kind:    httpx.ErrorKindToCode(o.Kind()),
				Message: o.Message(),
			}
		}
		resp.Results[i] = item
	}

	logger.InfoContext(ctx, "batch shortened",
		"service", service.String(),
		"size", len(outcomes),
		"failed", resp.Failed,
	)

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// handleShortenError maps client errors onto HTTP responses.
func (h *Handler) handleShortenError(ctx context.Context, w http.ResponseWriter, err error, service ServiceID) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
		"service", service.String(),
	}

	status := httpx.ErrorKindToStatus(kind)
	code := httpx.ErrorKindToCode(kind)

	switch kind {
	case errx.Precondition:
		h.logger.WarnContext(ctx, "shorten precondition failed", logAttrs...)
		httpx.WriteError(w, status, code, errx.MessageOf(err), nil)

	case errx.Provider, errx.Format:
		h.logger.WarnContext(ctx, "provider rejected request", logAttrs...)
		var details any
		if sc := StatusCodeOf(err); sc != 0 {
			details = map[string]int{"provider_status": sc}
		}
		httpx.WriteError(w, status, code, errx.MessageOf(err), details)

	case errx.Transport:
		h.logger.ErrorContext(ctx, "provider unreachable", logAttrs...)
		httpx.WriteError(w, status, code,
			fmt.Sprintf("Unable to reach %s at this time. Please try again.", service), nil)

	default:
		h.logger.ErrorContext(ctx, "unexpected error shortening url", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"Unable to shorten this URL at this time. Please try again.", nil)
	}
}

func validateBatchRequest(req HTTPBatchRequest) error {
	if len(req.URLs) == 0 {
		return errors.New("urls is required")
	}
	if len(req.URLs) > MaxBatchSize {
		return fmt.Errorf("too many urls (max %d)", MaxBatchSize)
	}
	return nil
}
