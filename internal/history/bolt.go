package history

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"

	"github.com/sundayezeilo/shortenctl/internal/errx"
)

// BoltBucketKey is the bucket holding history records.
const BoltBucketKey = "_history"

// BoltRepository stores records in a bolt file keyed by their v7 id, so a
// reverse cursor walk yields newest first.
type BoltRepository struct {
	db *bolt.DB
}

var _ Repository = (*BoltRepository)(nil)

// NewBolt opens (or creates) the bolt file at path. A nil opts waits at most
// one second for the file lock.
func NewBolt(path string, opts *bolt.Options) (*BoltRepository, error) {
	const op = "history.NewBolt"

	if path == "" {
		return nil, errx.E(op, errx.Invalid, errors.New("bolt path cannot be empty"))
	}
	if opts == nil {
		opts = &bolt.Options{Timeout: time.Second}
	}

	db, err := bolt.Open(path, 0o600, opts)
	if err != nil {
		return nil, errx.E(op, errx.Unavailable, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BoltBucketKey))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errx.E(op, errx.Unavailable, err)
	}
	return &BoltRepository{db: db}, nil
}

func (r *BoltRepository) Save(ctx context.Context, rec Record) error {
	const op = "history.BoltRepository.Save"

	if rec.ID == uuid.Nil {
		return errx.E(op, errx.Invalid, errors.New("record id is required"))
	}
	if err := ctx.Err(); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return errx.E(op, errx.Internal, err)
	}

	err = r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BoltBucketKey)).Put(rec.ID[:], value)
	})
	if err != nil {
		return errx.E(op, errx.Unavailable, err)
	}
	return nil
}

func (r *BoltRepository) List(ctx context.Context, limit int) ([]Record, error) {
	const op = "history.BoltRepository.List"

	if err := ctx.Err(); err != nil {
		return nil, errx.E(op, errx.Unavailable, err)
	}
	limit = normalizeLimit(limit)

	records := make([]Record, 0, limit)
	err := r.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(BoltBucketKey)).Cursor()
		for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return errx.E(op, errx.Internal, err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		if errx.KindOf(err) != errx.Unknown {
			return nil, err
		}
		return nil, errx.E(op, errx.Unavailable, err)
	}
	return records, nil
}

func (r *BoltRepository) Close() error {
	return r.db.Close()
}
