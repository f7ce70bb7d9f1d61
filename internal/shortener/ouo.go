package shortener

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sundayezeilo/shortenctl/internal/errx"
)

const DefaultOuoEndpoint = "http://ouo.io/api"

// ouoProvider embeds the credential and the long URL straight into the path:
// <endpoint>/<credential>=<longURL>. The response is the short URL as text.
type ouoProvider struct {
	endpoint  string
	requester requester
}

// NewOuo returns the ouo.io provider.
func NewOuo(endpoint string, doer Doer, opts ...ProviderOption) Provider {
	if endpoint == "" {
		endpoint = DefaultOuoEndpoint
	}
	return &ouoProvider{endpoint: trimEndpoint(endpoint), requester: newRequester(doer, opts)}
}

func (p *ouoProvider) Service() ServiceID { return Ouo }

func (p *ouoProvider) Shorten(ctx context.Context, credential, longURL string) (string, error) {
	const op = "shortener.ouo.Shorten"

	status, body, err := p.requester.get(ctx, op, Ouo, p.endpoint+"/"+credential+"="+longURL)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", errx.E(op, errx.Provider, &StatusError{Code: status})
	}

	short := strings.TrimSpace(string(body))
	if short == "" {
		return "", errx.E(op, errx.Format, errors.New("empty response body"))
	}
	return short, nil
}
