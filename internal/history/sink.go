package history

import (
	"context"
	"strings"
	"time"

	"github.com/sundayezeilo/shortenctl/internal/errx"
	"github.com/sundayezeilo/shortenctl/internal/idgen"
	"github.com/sundayezeilo/shortenctl/internal/shortener"
)

// Sink turns shortener outcomes into stored records.
type Sink struct {
	repo Repository
	ids  idgen.Generator
	now  func() time.Time
}

var _ shortener.ResultSink = (*Sink)(nil)

// SinkConfig holds configuration for the sink.
type SinkConfig struct {
	IDGenerator idgen.Generator
	Now         func() time.Time
}

// NewSink creates a Sink writing to repo.
func NewSink(repo Repository, config *SinkConfig) *Sink {
	if config == nil {
		config = &SinkConfig{}
	}
	if config.IDGenerator == nil {
		config.IDGenerator = idgen.NewV7(idgen.WithRetries(1))
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Sink{
		repo: repo,
		ids:  config.IDGenerator,
		now:  config.Now,
	}
}

func (s *Sink) Record(ctx context.Context, service shortener.ServiceID, outcome shortener.Outcome) error {
	const op = "history.Sink.Record"

	id, err := s.ids.Generate()
	if err != nil {
		return errx.E(op, errx.Internal, err)
	}

	rec := Record{
		ID:          id,
		Service:     service.String(),
		OriginalURL: outcome.URL,
		ShortURL:    outcome.ShortURL,
		CreatedAt:   s.now().UTC(),
	}
	if !outcome.OK() {
		rec.ShortURL = ""
		rec.ErrorKind = KindLabel(outcome.Kind())
		rec.ErrorMessage = outcome.Message()
	}

	return s.repo.Save(ctx, rec)
}

// KindLabel is the lower-case form of kind stored in records.
func KindLabel(kind errx.Kind) string {
	return strings.ToLower(kind.String())
}
