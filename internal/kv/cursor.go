package kv

import "github.com/cockroachdb/pebble"

// Cursor iterates entries in ascending key order.
//
//	for c.Next() {
//		use(c.Key(), c.Value())
//	}
//
// A Cursor is closed with its transaction; Close releases it earlier.
type Cursor struct {
	it      *pebble.Iterator
	started bool
	valid   bool
	closed  bool
	err     error
}

// Next advances to the next entry.
func (c *Cursor) Next() bool {
	if c.closed {
		return false
	}
	if !c.started {
		c.started = true
		c.valid = c.it.First()
	} else if c.valid {
		c.valid = c.it.Next()
	}
	return c.valid
}

// Key returns the current key without the database prefix. It is valid
// until the next call to Next.
func (c *Cursor) Key() []byte { return c.it.Key()[1:] }

// Value returns the current value. It is valid until the next call to Next.
func (c *Cursor) Value() []byte { return c.it.Value() }

// Err returns the error that stopped iteration, if any.
func (c *Cursor) Err() error {
	if c.closed {
		return c.err
	}
	return c.it.Error()
}

// Close releases the underlying iterator. It is safe to call twice.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.valid = false
	c.err = c.it.Error()
	if err := c.it.Close(); err != nil && c.err == nil {
		c.err = err
	}
	return c.err
}
