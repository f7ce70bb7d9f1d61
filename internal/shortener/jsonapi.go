package shortener

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"github.com/sundayezeilo/shortenctl/internal/errx"
)

const (
	DefaultCutyEndpoint     = "https://cuty.io/api"
	DefaultShrinkmeEndpoint = "https://shrinkme.io/api"

	statusSuccess = "success"
)

// apiResponse is the body shape shared by cuty.io and shrinkme.io.
// Pointers distinguish a missing field from an empty one.
type apiResponse struct {
	Status       *string `json:"status"`
	ShortenedURL *string `json:"shortenedUrl"`
	Message      *string `json:"message"`
}

// queryProvider calls an endpoint with ?api=<credential>&url=<longURL> and
// reads a JSON status envelope.
type queryProvider struct {
	service   ServiceID
	endpoint  string
	requester requester
	// fallbackMessage is reported when a failure carries no message.
	// Empty means a missing message is a malformed response.
	fallbackMessage string
}

// NewCuty returns the cuty.io provider.
func NewCuty(endpoint string, doer Doer, opts ...ProviderOption) Provider {
	if endpoint == "" {
		endpoint = DefaultCutyEndpoint
	}
	return &queryProvider{service: Cuty, endpoint: endpoint, requester: newRequester(doer, opts)}
}

// NewShrinkme returns the shrinkme.io provider.
func NewShrinkme(endpoint string, doer Doer, opts ...ProviderOption) Provider {
	if endpoint == "" {
		endpoint = DefaultShrinkmeEndpoint
	}
	return &queryProvider{
		service:         Shrinkme,
		endpoint:        endpoint,
		requester:       newRequester(doer, opts),
		fallbackMessage: UnknownErrorMessage,
	}
}

func (p *queryProvider) Service() ServiceID { return p.service }

func (p *queryProvider) Shorten(ctx context.Context, credential, longURL string) (string, error) {
	op := "shortener." + p.service.Short() + ".Shorten"

	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", errx.E(op, errx.Precondition, err)
	}
	q := u.Query()
	q.Set("api", credential)
	q.Set("url", longURL)
	u.RawQuery = q.Encode()

	status, body, err := p.requester.get(ctx, op, p.service, u.String())
	if err != nil {
		return "", err
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		if !isSuccessStatus(status) {
			return "", errx.E(op, errx.Provider, &StatusError{Code: status})
		}
		return "", errx.E(op, errx.Format, errors.New("failed to decode provider response"))
	}

	switch {
	case resp.Status == nil:
		return "", errx.E(op, errx.Format, errors.New("provider response has no status"))

	case *resp.Status == statusSuccess:
		if resp.ShortenedURL == nil || *resp.ShortenedURL == "" {
			return "", errx.E(op, errx.Format, errors.New("provider response has no shortened url"))
		}
		return *resp.ShortenedURL, nil

	case resp.Message != nil && *resp.Message != "":
		return "", errx.E(op, errx.Provider, errors.New(*resp.Message))

	case p.fallbackMessage != "":
		return "", errx.E(op, errx.Provider, errors.New(p.fallbackMessage))

	default:
		return "", errx.E(op, errx.Format, errors.New("provider reported failure without a message"))
	}
}
