package httpx

import (
	"net/http"

	"github.com/sundayezeilo/shortenctl/internal/errx"
)

// ErrorKindToStatus maps errx.Kind to HTTP status codes.
// Failures on the provider side of a shorten call are reported as 502.
func ErrorKindToStatus(kind errx.Kind) int {
	switch kind {
	case errx.Precondition, errx.Invalid:
		return http.StatusBadRequest
	case errx.NotFound:
		return http.StatusNotFound
	case errx.Transport, errx.Provider, errx.Format:
		return http.StatusBadGateway
	case errx.Unavailable:
		return http.StatusServiceUnavailable
	case errx.Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ErrorKindToCode maps errx.Kind to error codes for JSON responses.
func ErrorKindToCode(kind errx.Kind) string {
	switch kind {
	case errx.Precondition:
		return "precondition_failed"
	case errx.Transport:
		return "transport_error"
	case errx.Provider:
		return "provider_error"
	case errx.Format:
		return "format_error"
	case errx.Invalid:
		return "invalid_input"
	case errx.NotFound:
		return "not_found"
	case errx.Unavailable:
		return "unavailable"
	case errx.Internal:
		return "internal_error"
	default:
		return "internal_error"
	}
}
