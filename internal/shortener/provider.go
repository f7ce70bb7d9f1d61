package shortener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sundayezeilo/shortenctl/internal/errx"
)

const (
	// MaxResponseBodySize caps how much of a provider response is read (1MB).
	MaxResponseBodySize = 1 << 20

	// UnknownErrorMessage is reported when shrinkme.io fails without a message.
	UnknownErrorMessage = "Unknown error occurred"
)

// Provider shortens a single URL against one third-party service.
// Implementations make exactly one outbound request per call and never retry.
type Provider interface {
	Service() ServiceID
	Shorten(ctx context.Context, credential, longURL string) (string, error)
}

// Doer sends outbound HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError carries the HTTP status of a response the provider rejected.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// StatusCodeOf returns the status code carried by err, or 0.
func StatusCodeOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// DefaultUserAgent is sent with provider requests unless WithUserAgent says otherwise.
const DefaultUserAgent = "shortenctl/dev"

// ProviderOption configures a built-in provider.
type ProviderOption func(*requester)

// WithUserAgent sets the User-Agent header of provider requests. Empty keeps
// the default.
func WithUserAgent(userAgent string) ProviderOption {
	return func(r *requester) {
		if userAgent != "" {
			r.userAgent = userAgent
		}
	}
}

// requester performs the single GET a provider makes per call.
type requester struct {
	doer      Doer
	userAgent string
}

func newRequester(doer Doer, opts []ProviderOption) requester {
	r := requester{doer: doer, userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// get issues a GET against rawURL and returns the status and body.
// A URL that cannot form a request is a Precondition error; failing to send
// it or read the reply is a Transport error. rawURL carries the credential,
// so neither error quotes it.
func (r requester) get(ctx context.Context, op string, service ServiceID, rawURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, errx.E(op, errx.Precondition,
			fmt.Errorf("invalid request to %s: %w", service, stripURL(err)))
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json, text/plain;q=0.9, */*;q=0.8")

	resp, err := r.doer.Do(req)
	if err != nil {
		return 0, nil, errx.E(op, errx.Transport,
			fmt.Errorf("request to %s failed: %w", service, stripURL(err)))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBodySize))
	if err != nil {
		return resp.StatusCode, nil, errx.E(op, errx.Transport,
			fmt.Errorf("read response from %s: %w", service, stripURL(err)))
	}
	return resp.StatusCode, body, nil
}

// stripURL drops the *url.Error layer, whose text quotes the request URL.
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

func isSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}

func trimEndpoint(endpoint string) string {
	return strings.TrimRight(endpoint, "/")
}
