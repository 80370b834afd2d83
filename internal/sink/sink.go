// Package sink persists harvested rows. A sink is opened once per run, the
// header is written on open and every Append adds one unit's batch.
package sink

import "errors"

var ErrClosed = errors.New("sink is closed")

// Sink is written by a single consumer loop. Implementations still serialize
// Append so a batch is never interleaved with another.
type Sink[R any] interface {
	Append(rows []R) error
	Close() error
}

// Row is a flat record with a fixed set of columns, it is what table-shaped
// sinks need to know about a row.
type Row interface {
	Columns() []string
	Record() []string
}
