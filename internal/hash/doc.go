// Package hash provides the CRC32-Castagnoli checksum used by every
// on-disk format of facetidx: staged level blocks, store snapshots and
// S3 upload integrity headers.
//
//	if err := hash.Verify("block", stored, want); err != nil {
//	    var mm *hash.MismatchError
//	    ...
//	}
package hash
