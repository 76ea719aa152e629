package s3

import (
	"context"

	"github.com/hupe1980/facetidx/blobstore"
)

// ExpressStore is a Store for S3 Express One Zone directory buckets
// (names ending in --azid--x-s3).
//
// Directory buckets support conditional writes, so ExpressStore
// implements blobstore.ConditionalPutter and two writers can never
// publish the same snapshot name.
type ExpressStore struct {
	*Store
}

var _ blobstore.ConditionalPutter = (*ExpressStore)(nil)

// NewExpressStore creates a store on a directory bucket.
func NewExpressStore(client Client, bucket, rootPrefix string, opts ...Option) *ExpressStore {
	return &ExpressStore{Store: NewStore(client, bucket, rootPrefix, opts...)}
}

// PutIfNotExists writes a blob only if its key is free. A lost race
// returns a *ConflictError that satisfies errors.Is(err, blobstore.ErrExist).
func (s *ExpressStore) PutIfNotExists(ctx context.Context, name string, data []byte) error {
	return putObject(ctx, s.client, s.bucket, s.key(name), data, s.upload.EnableChecksum, true)
}
