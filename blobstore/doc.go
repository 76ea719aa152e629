// Package blobstore stores facet index snapshots.
//
// A snapshot is an immutable blob named INDEX-<version>.bin; the blob named
// CURRENT holds the name of the latest one. Implementations must be safe
// for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with mmap reads and atomic renames
//   - MemoryStore: in-process, for tests
//   - s3.Store and s3.DDBCommitStore: Amazon S3, optionally with DynamoDB
//     conditional writes guarding CURRENT
//   - s3.ExpressStore: S3 Express One Zone with conditional puts
//   - minio.Store: MinIO and other S3-compatible storage
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
