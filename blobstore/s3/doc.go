// Package s3 stores index snapshots in Amazon S3.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "products/")
//	name, err := idx.Save(ctx, store)
//
// Store works with any bucket. ExpressStore adds conditional writes for
// S3 Express One Zone directory buckets. DDBCommitStore keeps the
// CURRENT pointer in DynamoDB for concurrent writers.
//
// # Features
//
//   - Ranged GETs for partial reads
//   - Streaming multipart uploads with CRC32C checksums
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
