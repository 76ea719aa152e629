// Package sorter implements the staging streams that carry computed facet
// levels from the level builder to the store.
//
// A Writer accepts strictly ascending keys and appends them to a temporary
// file in checksummed, optionally compressed blocks. IntoReader seals the
// file and returns a Reader whose cursors replay the entries in order any
// number of times; the store merges those cursors with its bulk insertion.
//
// File layout:
//
//	header:  magic u32 | version u16 | compression u8 | reserved u8
//	block:   raw len u32 | stored len u32 | crc32c u32 | flags u8 | stored bytes
//	footer:  entries u64 | blocks u64 | magic u32
//
// A raw block is a run of uvarint(len(key)) | uvarint(len(value)) | key | value.
package sorter
