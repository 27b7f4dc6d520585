/*
Package growth shows how a dynamic array grows when values are appended to it
without reserving capacity up front.

A Sequence is a contiguous, growable array of scalars whose backing storage
lives in an Arena. Whenever an append does not fit, a GrowthPolicy picks the new
capacity, fresh storage is taken from the arena, the elements are copied over and
the old storage goes back to the arena. The Demonstrator drives a Sequence
through the squares 0², 1², … and prints every value together with the
capacity observed right after storing it.

	d := growth.NewDemonstrator()
	report, err := d.Run(os.Stdout)

Tracing goes to the key "growth".
*/
package growth

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'growth'.
func tracer() tracing.Trace {
	return tracing.Select("growth")
}
