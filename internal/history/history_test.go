package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayezeilo/shortenctl/internal/errx"
	"github.com/sundayezeilo/shortenctl/internal/idgen"
	"github.com/sundayezeilo/shortenctl/internal/shortener"
)

/***************
 * Helpers
 ***************/

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBoltRepo(t *testing.T) *BoltRepository {
	t.Helper()
	repo, err := NewBolt(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// sampleRecords returns n records with ascending ids and creation times.
func sampleRecords(t *testing.T, n int) []Record {
	t.Helper()
	gen := idgen.NewV7()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	records := make([]Record, n)
	for i := range records {
		id, err := gen.Generate()
		require.NoError(t, err)
		records[i] = Record{
			ID:          id,
			Service:     "cuty.io",
			OriginalURL: fmt.Sprintf("http://example.com/%d", i),
			ShortURL:    fmt.Sprintf("https://cuty.io/%d", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}
	}
	return records
}

/***************
 * Open
 ***************/

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("none disables history", func(t *testing.T) {
		for _, driver := range []string{"", "none", " NONE "} {
			repo, err := Open(ctx, Options{Driver: driver})
			require.NoError(t, err)
			assert.Nil(t, repo)
		}
	})

	t.Run("bolt", func(t *testing.T) {
		repo, err := Open(ctx, Options{Driver: "bolt", BoltPath: filepath.Join(t.TempDir(), "h.db")})
		require.NoError(t, err)
		require.IsType(t, &BoltRepository{}, repo)
		assert.NoError(t, repo.Close())
	})

	t.Run("postgres without url", func(t *testing.T) {
		_, err := Open(ctx, Options{Driver: "postgres"})
		assert.Equal(t, errx.Invalid, errx.KindOf(err))
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(ctx, Options{Driver: "redis"})
		assert.Error(t, err)
	})
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, normalizeLimit(0))
	assert.Equal(t, DefaultListLimit, normalizeLimit(-5))
	assert.Equal(t, 7, normalizeLimit(7))
	assert.Equal(t, MaxListLimit, normalizeLimit(MaxListLimit+1))
}

/***************
 * Bolt
 ***************/

func TestBoltRepository_SaveAndList(t *testing.T) {
	ctx := context.Background()
	repo := newBoltRepo(t)
	records := sampleRecords(t, 5)

	for _, rec := range records {
		require.NoError(t, repo.Save(ctx, rec))
	}

	got, err := repo.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, records[4], got[0])
	assert.Equal(t, records[3], got[1])
	assert.Equal(t, records[2], got[2])

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestBoltRepository_Empty(t *testing.T) {
	got, err := newBoltRepo(t).List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBoltRepository_Errors(t *testing.T) {
	repo := newBoltRepo(t)

	err := repo.Save(context.Background(), Record{Service: "cuty.io"})
	assert.Equal(t, errx.Invalid, errx.KindOf(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = repo.Save(ctx, sampleRecords(t, 1)[0])
	assert.Equal(t, errx.Unavailable, errx.KindOf(err))

	_, err = NewBolt("", nil)
	assert.Equal(t, errx.Invalid, errx.KindOf(err))
}

func TestBoltRepository_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	rec := sampleRecords(t, 1)[0]

	repo, err := NewBolt(path, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, rec))
	require.NoError(t, repo.Close())

	repo, err = NewBolt(path, nil)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []Record{rec}, got)
}

/***************
 * Sink
 ***************/

func TestSink_Record(t *testing.T) {
	ctx := context.Background()
	repo := newBoltRepo(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fixed := uuid.MustParse("01890a5d-ac96-774b-bcce-b302099a8057")

	sink := NewSink(repo, &SinkConfig{
		IDGenerator: idgen.GeneratorFunc(func() (uuid.UUID, error) { return fixed, nil }),
		Now:         func() time.Time { return now },
	})

	require.NoError(t, sink.Record(ctx, shortener.Ouo, shortener.Outcome{
		URL:      "http://example.com",
		ShortURL: "http://b.io/abc",
	}))

	got, err := repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []Record{{
		ID:          fixed,
		Service:     "ouo.io",
		OriginalURL: "http://example.com",
		ShortURL:    "http://b.io/abc",
		CreatedAt:   now,
	}}, got)
	assert.True(t, got[0].OK())
}

func TestSink_RecordFailure(t *testing.T) {
	ctx := context.Background()
	repo := newBoltRepo(t)
	sink := NewSink(repo, nil)

	failure := errx.E("shortener.Client.Shorten", errx.Provider,
		errx.E("shortener.shrinkme.Shorten", errx.Provider, errors.New(shortener.UnknownErrorMessage)))
	require.NoError(t, sink.Record(ctx, shortener.Shrinkme, shortener.Outcome{URL: "bad", Err: failure}))

	got, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].OK())
	assert.Equal(t, "shrinkme.io", got[0].Service)
	assert.Equal(t, "provider", got[0].ErrorKind)
	assert.Equal(t, shortener.UnknownErrorMessage, got[0].ErrorMessage)
	assert.Empty(t, got[0].ShortURL)
	assert.Equal(t, 7, int(got[0].ID.Version()))
}

func TestSink_IDFailure(t *testing.T) {
	sink := NewSink(newBoltRepo(t), &SinkConfig{
		IDGenerator: idgen.GeneratorFunc(func() (uuid.UUID, error) { return uuid.Nil, errors.New("entropy") }),
	})

	err := sink.Record(context.Background(), shortener.Cuty, shortener.Outcome{URL: "http://a.com", ShortURL: "x"})
	assert.Equal(t, errx.Internal, errx.KindOf(err))
}

func TestKindLabel(t *testing.T) {
	assert.Equal(t, "precondition", KindLabel(errx.Precondition))
	assert.Equal(t, "format", KindLabel(errx.Format))
}
