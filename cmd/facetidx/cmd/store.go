package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/facetidx"
	"github.com/hupe1980/facetidx/blobstore"
	minioblob "github.com/hupe1980/facetidx/blobstore/minio"
	"github.com/hupe1980/facetidx/blobstore/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// openStore resolves a store location.
func openStore(ctx context.Context, location string) (blobstore.BlobStore, error) {
	switch {
	case strings.HasPrefix(location, "s3://"):
		bucket, prefix := splitBucket(strings.TrimPrefix(location, "s3://"))
		if bucket == "" {
			return nil, fmt.Errorf("missing bucket in %q", location)
		}
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		client := awss3.NewFromConfig(cfg)
		if s3Express {
			return s3.NewExpressStore(client, bucket, prefix), nil
		}
		store := s3.NewStore(client, bucket, prefix)
		if ddbTable != "" {
			return s3.NewDDBCommitStore(store, dynamodb.NewFromConfig(cfg), ddbTable, location), nil
		}
		return store, nil

	case strings.HasPrefix(location, "minio://"):
		endpoint, rest, _ := strings.Cut(strings.TrimPrefix(location, "minio://"), "/")
		bucket, prefix := splitBucket(rest)
		if endpoint == "" || bucket == "" {
			return nil, fmt.Errorf("want minio://endpoint/bucket[/prefix], got %q", location)
		}
		client, err := minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
			Secure: minioTLS,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return minioblob.NewStore(client, bucket, prefix), nil

	default:
		return blobstore.NewLocalStore(location), nil
	}
}

func splitBucket(s string) (bucket, prefix string) {
	bucket, prefix, _ = strings.Cut(s, "/")
	return bucket, prefix
}

// loadIndex loads the latest snapshot. With create it starts an empty
// index when the store has none; a corrupt snapshot is always an error.
func loadIndex(ctx context.Context, store blobstore.BlobStore, create bool) (*facetidx.Index, error) {
	idx, err := facetidx.LoadIndex(ctx, store, facetidx.WithLogger(logger))
	if create && errors.Is(err, facetidx.ErrNoSnapshot) && !errors.Is(err, facetidx.ErrCorruptSnapshot) {
		return facetidx.NewIndex()
	}
	return idx, err
}
