// Package blobstore provides the storage abstraction behind ground-truth
// and run-report documents.
//
// Store implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory, for tests
//   - LocalStore: local filesystem with atomic writes
//   - minio.Store: MinIO and S3-compatible object storage
package blobstore
