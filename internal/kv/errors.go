package kv

import "errors"

var (
	// ErrTxnClosed is returned when using a committed or aborted transaction.
	ErrTxnClosed = errors.New("kv: transaction closed")
	// ErrReadOnly is returned when writing through a read transaction.
	ErrReadOnly = errors.New("kv: read-only transaction")
	// ErrUnknownDatabase is returned for databases the store does not hold.
	ErrUnknownDatabase = errors.New("kv: unknown database")
	// ErrTooManyDatabases is returned when every database prefix is taken.
	ErrTooManyDatabases = errors.New("kv: too many databases")
	// ErrWriterBusy is returned by TryBegin while another write transaction is open.
	ErrWriterBusy = errors.New("kv: write transaction in progress")
	// ErrUnsortedSource is returned when a merge source is not strictly ascending.
	ErrUnsortedSource = errors.New("kv: merge source not strictly ascending")
	// ErrInvalidSnapshot is returned when a snapshot cannot be decoded.
	ErrInvalidSnapshot = errors.New("kv: invalid snapshot")
)
