// Package minio stores facet index snapshots in MinIO or another
// S3-compatible server (Ceph, Garage, SeaweedFS) through minio-go.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4(accessKey, secretKey, ""),
//	})
//	if err != nil {
//	    return err
//	}
//	store := minioblob.NewStore(client, "facets", "products/")
//	name, err := idx.Save(ctx, store)
//
// Create streams the snapshot through PutObject with an unknown size, so
// minio-go picks multipart uploads on its own. Abort cancels the upload.
//
// The store does not implement blobstore.ConditionalPutter; concurrent
// writers sharing a prefix must be serialized by the caller.
package minio
