// Package kv is the sorted key-value store facet levels live in.
//
// A Store is a pebble database split into named databases. Each database
// owns a one-byte key prefix recorded in a catalog under prefix 0, so
// databases iterate independently and survive snapshots. All access goes
// through transactions:
//
//   - read transactions read a pebble snapshot taken when they began;
//   - one write transaction at a time collects its changes in an indexed
//     batch, so Commit applies them at once and Abort drops them.
//
// A transaction may be read from several goroutines as long as no
// goroutine writes through it at the same time.
//
// Stores serialize (WriteTo, ReadFrom) as a zstd-compressed pebble batch
// that the root package persists through a blobstore.
package kv
