// Package codec defines the byte layouts of facet entries.
//
// Keys are big-endian so that lexicographic byte order equals the logical
// order the level builder relies on:
//
//	number entry:          fid u16 | level u8 | left f64 | right f64
//	string level 0 entry:  fid u16 | 0        | normalized text
//	string level L>0:      fid u16 | level u8 | left u32 | right u32
//
// Floats are stored with an order-preserving transform so the byte order is
// the IEEE total order from -Inf to +Inf. Values carry CBO bitmaps; string
// values additionally hold the original text at level 0 and the bound texts
// at level 1.
package codec
