// Package mmap provides read-only memory-mapped file access.
//
// Staged facet levels and local snapshot blobs are read through a Mapping
// so that merging a level into the store does not copy the file through
// kernel buffers.
//
//	m, err := mmap.Open("level-3.stage")
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// On unix the file is mapped with mmap(2) and access hints go through
// madvise(2). Other platforms read the file into memory.
package mmap
