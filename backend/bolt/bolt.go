// Package bolt provides a Backend stored in a bbolt database file. All cache
// names share one database; each snapshot blob lives under its name in a
// single bucket.
package bolt

import (
	"context"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/hupe1980/cachego/backend"
)

// Store is a bbolt-backed cache backend.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

// Options configures Open.
type Options struct {
	// Bucket is the bbolt bucket holding the blobs. Defaults to "cachego".
	Bucket string
	// OpenTimeout bounds the wait for the file lock. Defaults to 1s.
	OpenTimeout time.Duration
}

// Open initializes or opens a Store at the given path.
func Open(path string, optFns ...func(*Options)) (*Store, error) {
	opts := Options{
		Bucket:      "cachego",
		OpenTimeout: time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: opts.OpenTimeout})
	if err != nil {
		return nil, err
	}
	bucket := []byte(opts.Bucket)
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, bucket: bucket}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns the blob for name.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	var found bool
	if err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(name))
		if v == nil {
			return nil
		}
		found = true
		out = append([]byte(nil), v...)
		return nil
	}); err != nil {
		return nil, err
	}
	if !found {
		return nil, backend.ErrNotFound
	}
	return out, nil
}

// Save replaces the blob for name.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(name), data)
	})
}

// Remove deletes the blob for name.
func (s *Store) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(name))
	})
}

// Name returns "bolt".
func (s *Store) Name() string { return "bolt" }

var _ backend.Backend = (*Store)(nil)
