// Package bitmap provides the document-id set used by every facet level.
//
// Bitmap wraps a 32-bit Roaring bitmap. Facet entries persist bitmaps with
// the CBO ("compact bitmap or") encoding: sets with at most CboThreshold ids
// are written as raw little-endian uint32s, larger ones as portable roaring
// bytes. Small sets dominate level 0 of high-cardinality facets, and the raw
// form avoids the roaring header for them.
package bitmap
