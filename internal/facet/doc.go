// Package facet builds the aggregated levels of a faceted field.
//
// Level 0 maps each distinct facet value of a field to the documents having
// it and is written by the indexing pipeline. Level L > 0 groups
// LevelGroupSize adjacent level L-1 groups, so one level L entry covers
// LevelGroupSize^L level 0 entries and stores the union of their bitmaps.
// Range filters then need O(log n) bitmap lookups instead of one per value.
//
// Numbers and strings share one generic builder (computeLevels). Numeric
// bounds are the float values; string bounds are the level 0 ordinal plus
// the normalized text, which is persisted at level 1 only.
//
// Every level is staged in a sorter stream and merged into the store by
// WriteInto; a key produced twice is a MergeConflictError.
package facet
