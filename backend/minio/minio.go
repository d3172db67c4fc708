// Package minio provides a Backend stored in MinIO or any S3-compatible
// object store, one object per cache name under an optional key prefix.
package minio

import (
	"bytes"
	"context"
	"io"
	"path"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/cachego/backend"
)

// Store implements backend.Backend for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore creates a MinIO cache backend.
// rootPrefix is prepended to all keys (e.g. "caches/").
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Load reads the blob for name.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, backend.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Save replaces the blob for name.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

// Remove deletes the blob for name.
func (s *Store) Remove(ctx context.Context, name string) error {
	return s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
}

// Name returns "minio".
func (s *Store) Name() string { return "minio" }

var _ backend.Backend = (*Store)(nil)
