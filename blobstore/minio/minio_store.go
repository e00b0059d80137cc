package minio

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/annbench/blobstore"
)

// Store implements blobstore.Store for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ blobstore.Store = (*Store)(nil)

// NewStore creates a new MinIO blob store.
// bucket is the MinIO bucket name.
// rootPrefix is prepended to all keys (e.g. "annbench/").
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

func isNotFound(err error) bool {
	errResp := minio.ToErrorResponse(err)
	return errResp.Code == "NoSuchKey" || errResp.Code == "NotFound"
}

// Put writes a blob, replacing any previous value.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

// Get reads a whole blob.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		// GetObject is lazy; a missing key surfaces on first read.
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Delete removes a blob.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns all blob names with the given prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    fullPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		// Strip our root prefix
		name := strings.TrimPrefix(obj.Key, s.prefix)
		name = strings.TrimPrefix(name, "/")
		if name != "" {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}
