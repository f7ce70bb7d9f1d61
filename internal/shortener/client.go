package shortener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sundayezeilo/shortenctl/internal/errx"
)

// CredentialStore looks up the API key configured for a provider.
type CredentialStore interface {
	Credential(service ServiceID) (string, bool)
}

// ResultSink receives the outcome of every shorten call that reached a provider.
type ResultSink interface {
	Record(ctx context.Context, service ServiceID, outcome Outcome) error
}

// Request is a single shorten call. An empty Credential is resolved from the
// client's CredentialStore.
type Request struct {
	Service    ServiceID
	Credential string
	LongURL    string
}

// Outcome is the result of shortening one URL: either ShortURL or Err is set.
type Outcome struct {
	URL      string
	ShortURL string
	Err      error
}

// OK reports whether the URL was shortened.
func (o Outcome) OK() bool { return o.Err == nil }

// Kind returns the error kind of a failed outcome, or errx.Unknown.
func (o Outcome) Kind() errx.Kind { return errx.KindOf(o.Err) }

// Message returns the human-readable failure message, or "".
func (o Outcome) Message() string { return errx.MessageOf(o.Err) }

// Endpoints overrides the base URL of each provider. Empty fields keep the
// provider's public endpoint.
type Endpoints struct {
	Cuty     string
	Ouo      string
	Shrinkme string
}

// ClientConfig holds the client's collaborators. Every field is optional.
type ClientConfig struct {
	Endpoints   Endpoints
	HTTPClient  Doer
	Providers   []Provider // replaces the built-in provider for the same service
	Credentials CredentialStore
	Sink        ResultSink
	Metrics     *Metrics
	Logger      *slog.Logger
	UserAgent   string // defaults to DefaultUserAgent
}

// Client dispatches shorten calls to the provider selected by ServiceID.
// It keeps no state between calls and is safe for concurrent use as long as
// its collaborators are.
type Client struct {
	providers   map[ServiceID]Provider
	credentials CredentialStore
	sink        ResultSink
	logger      *slog.Logger
}

// NewClient creates a client with the three built-in providers.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = &ClientConfig{}
	}

	doer := config.HTTPClient
	if doer == nil {
		doer = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	providers := map[ServiceID]Provider{
		Cuty:     NewCuty(config.Endpoints.Cuty, doer, WithUserAgent(config.UserAgent)),
		Ouo:      NewOuo(config.Endpoints.Ouo, doer, WithUserAgent(config.UserAgent)),
		Shrinkme: NewShrinkme(config.Endpoints.Shrinkme, doer, WithUserAgent(config.UserAgent)),
	}
	for _, p := range config.Providers {
		providers[p.Service()] = p
	}
	for id, p := range providers {
		providers[id] = config.Metrics.Instrument(p)
	}

	return &Client{
		providers:   providers,
		credentials: config.Credentials,
		sink:        config.Sink,
		logger:      logger,
	}
}

// HasCredential reports whether a key is configured for service.
func (c *Client) HasCredential(service ServiceID) bool {
	_, err := c.credential(service, "")
	return err == nil
}

// Shorten validates req and makes exactly one call to the selected provider.
// Precondition failures are returned before any network activity.
func (c *Client) Shorten(ctx context.Context, req Request) (string, error) {
	const op = "shortener.Client.Shorten"

	provider, err := c.provider(req.Service)
	if err != nil {
		return "", errx.E(op, errx.Precondition, err)
	}

	longURL := strings.TrimSpace(req.LongURL)
	if longURL == "" {
		return "", errx.E(op, errx.Precondition, errors.New("url cannot be empty"))
	}

	credential, err := c.credential(req.Service, req.Credential)
	if err != nil {
		return "", errx.E(op, errx.Precondition, err)
	}

	return c.call(ctx, provider, credential, longURL)
}

// ShortenBatch shortens urls one at a time, in order. A failing URL does not
// stop the batch; its error is kept in the matching Outcome. The returned
// error is non-nil only when the batch cannot start at all.
func (c *Client) ShortenBatch(ctx context.Context, service ServiceID, urls []string) ([]Outcome, error) {
	const op = "shortener.Client.ShortenBatch"

	provider, err := c.provider(service)
	if err != nil {
		return nil, errx.E(op, errx.Precondition, err)
	}
	credential, err := c.credential(service, "")
	if err != nil {
		return nil, errx.E(op, errx.Precondition, err)
	}

	c.logger.InfoContext(ctx, "batch started",
		"service", service.String(),
		"size", len(urls),
	)

	outcomes := make([]Outcome, len(urls))
	failed := 0
	for i, raw := range urls {
		longURL := strings.TrimSpace(raw)
		outcome := Outcome{URL: longURL}

		if longURL == "" {
			outcome.Err = errx.E(op, errx.Precondition, errors.New("url cannot be empty"))
		} else {
			outcome.ShortURL, outcome.Err = c.call(ctx, provider, credential, longURL)
		}
		if outcome.Err != nil {
			failed++
		}
		outcomes[i] = outcome
	}

	c.logger.InfoContext(ctx, "batch finished",
		"service", service.String(),
		"size", len(urls),
		"failed", failed,
	)
	return outcomes, nil
}

func (c *Client) call(ctx context.Context, p Provider, credential, longURL string) (string, error) {
	const op = "shortener.Client.Shorten"
	service := p.Service()

	short, err := p.Shorten(ctx, credential, longURL)
	if err != nil {
		err = errx.E(op, errx.KindOf(err), err)
		c.logger.WarnContext(ctx, "shorten failed",
			"service", service.String(),
			"url", longURL,
			"error", err.Error(),
			"error_kind", errx.KindOf(err),
		)
	} else {
		c.logger.DebugContext(ctx, "url shortened",
			"service", service.String(),
			"url", longURL,
			"short_url", short,
		)
	}

	c.record(ctx, service, Outcome{URL: longURL, ShortURL: short, Err: err})
	return short, err
}

func (c *Client) record(ctx context.Context, service ServiceID, outcome Outcome) {
	if c.sink == nil {
		return
	}
	if err := c.sink.Record(ctx, service, outcome); err != nil {
		c.logger.ErrorContext(ctx, "failed to record outcome",
			"service", service.String(),
			"url", outcome.URL,
			"error", err.Error(),
		)
	}
}

func (c *Client) provider(service ServiceID) (Provider, error) {
	p, ok := c.providers[service]
	if !ok {
		return nil, fmt.Errorf("unsupported service %s", service)
	}
	return p, nil
}

func (c *Client) credential(service ServiceID, explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}
	if c.credentials != nil {
		if key, ok := c.credentials.Credential(service); ok && strings.TrimSpace(key) != "" {
			return strings.TrimSpace(key), nil
		}
	}
	return "", fmt.Errorf("no API key configured for %s", service)
}
