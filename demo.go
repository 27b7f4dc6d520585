package growth

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/xlab/treeprint"
)

// DefaultSteps is the number of squares appended by a default run.
const DefaultSteps = 50

type demoOptions struct {
	steps     int
	reserve   int
	policy    GrowthPolicy
	allocator *Arena
}

// DemoOption configures a Demonstrator.
type DemoOption func(*demoOptions)

// WithSteps sets how many squares are appended.
func WithSteps(steps int) DemoOption {
	return func(o *demoOptions) {
		o.steps = steps
	}
}

// WithReserve reserves capacity before the first append. Zero, the default,
// leaves the sequence unreserved.
func WithReserve(capacity int) DemoOption {
	return func(o *demoOptions) {
		o.reserve = capacity
	}
}

// WithGrowth selects the growth policy of the demonstrated sequence.
func WithGrowth(policy GrowthPolicy) DemoOption {
	return func(o *demoOptions) {
		o.policy = policy
	}
}

// WithAllocator makes runs take their storage from allocator instead of a
// fresh arena.
func WithAllocator(allocator *Arena) DemoOption {
	return func(o *demoOptions) {
		o.allocator = allocator
	}
}

// Step is what a run observed right after one append.
type Step struct {
	Index int
	Value int
	Len   int
	Cap   int
	Grew  bool // the append reallocated the storage
}

// Report collects the steps of one run. Reallocations includes the one caused
// by a reservation.
type Report struct {
	Steps         []Step
	Reallocations int
}

// Demonstrator appends i*i for i = 0, 1, … to a Sequence and prints each
// stored value followed by the capacity observed after storing it.
type Demonstrator struct {
	opts demoOptions
}

// NewDemonstrator creates a Demonstrator. Without options it runs
// DefaultSteps steps with the Doubling policy and no reservation.
func NewDemonstrator(opts ...DemoOption) *Demonstrator {
	d := &Demonstrator{opts: demoOptions{steps: DefaultSteps, policy: Doubling}}
	for _, opt := range opts {
		opt(&d.opts)
	}
	return d
}

// Run performs one pass over a fresh sequence, writing two lines per step to
// w: the value, then "capacity: <n>".
func (d *Demonstrator) Run(w io.Writer) (*Report, error) {
	if d.opts.steps < 0 {
		return nil, errors.Wrapf(ErrInvalidCount, "steps %d", d.opts.steps)
	}

	allocator := d.opts.allocator
	if allocator == nil {
		allocator = NewArena()
	}
	seq := NewSequence[int](allocator, WithPolicy(d.opts.policy))
	defer seq.Release()

	if err := seq.Reserve(d.opts.reserve); err != nil {
		return nil, err
	}

	report := &Report{Steps: make([]Step, 0, d.opts.steps)}
	for i := 0; i < d.opts.steps; i++ {
		before := seq.Cap()
		seq.Append(i * i)
		v, err := seq.At(i)
		if err != nil {
			return report, err
		}
		if _, err := fmt.Fprintf(w, "%d\ncapacity: %d\n", v, seq.Cap()); err != nil {
			return report, errors.Wrapf(err, "write step %d", i)
		}
		report.Steps = append(report.Steps, Step{
			Index: i,
			Value: v,
			Len:   seq.Len(),
			Cap:   seq.Cap(),
			Grew:  seq.Cap() != before,
		})
	}
	report.Reallocations = seq.Reallocations()
	return report, nil
}

// Verify checks the run against the growth invariants: every value is the
// square of its index, length tracks the index, capacity never drops below
// length and never shrinks.
func (r *Report) Verify() error {
	prevCap := 0
	for i, st := range r.Steps {
		switch {
		case st.Index != i:
			return errors.Errorf("step %d: recorded index %d", i, st.Index)
		case st.Value != i*i:
			return errors.Errorf("step %d: value %d, want %d", i, st.Value, i*i)
		case st.Len != i+1:
			return errors.Errorf("step %d: length %d, want %d", i, st.Len, i+1)
		case st.Cap < st.Len:
			return errors.Errorf("step %d: capacity %d below length %d", i, st.Cap, st.Len)
		case st.Cap < prevCap:
			return errors.Errorf("step %d: capacity shrank from %d to %d", i, prevCap, st.Cap)
		}
		prevCap = st.Cap
	}
	return nil
}

// Capacities returns the distinct capacities in the order they were observed.
func (r *Report) Capacities() []int {
	var caps []int
	for _, st := range r.Steps {
		if len(caps) == 0 || caps[len(caps)-1] != st.Cap {
			caps = append(caps, st.Cap)
		}
	}
	return caps
}

// Tree renders the run grouped by capacity.
func (r *Report) Tree() string {
	header := fmt.Sprintf("Sequence(len=%d, reallocations=%d)\n", len(r.Steps), r.Reallocations)
	printer := treeprint.New()
	var branch treeprint.Tree
	for i, st := range r.Steps {
		if i == 0 || st.Cap != r.Steps[i-1].Cap {
			branch = printer.AddBranch(fmt.Sprintf("capacity %d", st.Cap))
		}
		branch.AddNode(fmt.Sprintf("[%d] %d", st.Index, st.Value))
	}
	return header + printer.String()
}
