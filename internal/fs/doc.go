// Package fs abstracts the file operations of staging files so tests can
// inject faults.
//
// Production code uses fs.Default ([LocalFS]). Tests wrap it in a
// [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".stage", fs.Fault{FailAfterBytes: 1024})
//
// Operations take no context: local file calls are not interruptible.
package fs
