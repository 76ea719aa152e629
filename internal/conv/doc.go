// Package conv provides checked integer conversions for values that come
// from level 0 positions and staging file footers.
//
// Provably bounded values (loop indices, block lengths) use plain casts.
package conv
