// Package history persists the outcome of every shorten call that reached a
// provider, either in a local bolt file or in PostgreSQL.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultListLimit is used when List is called with a non-positive limit.
	DefaultListLimit = 20
	// MaxListLimit caps a single List call.
	MaxListLimit = 500
)

// Driver names accepted by Open.
const (
	DriverNone     = "none"
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

// Record is one stored outcome. ShortURL is set on success, ErrorKind and
// ErrorMessage on failure.
type Record struct {
	ID           uuid.UUID `json:"id"`
	Service      string    `json:"service"`
	OriginalURL  string    `json:"original_url"`
	ShortURL     string    `json:"short_url,omitempty"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// OK reports whether the record describes a successful call.
func (r Record) OK() bool { return r.ErrorKind == "" }

// Repository stores records and returns them newest first.
type Repository interface {
	Save(ctx context.Context, rec Record) error
	List(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// Options selects and configures a Repository.
type Options struct {
	Driver      string
	BoltPath    string
	DatabaseURL string
	MaxConns    int32
}

// Open returns the repository for opts.Driver. It returns (nil, nil) for
// DriverNone, meaning history is disabled.
func Open(ctx context.Context, opts Options) (Repository, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverNone:
		return nil, nil
	case DriverBolt:
		return NewBolt(opts.BoltPath, nil)
	case DriverPostgres:
		repo, err := NewPostgres(ctx, opts.DatabaseURL, opts.MaxConns)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", opts.Driver)
	}
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
