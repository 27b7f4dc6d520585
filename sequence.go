package growth

import (
	"iter"

	"github.com/pkg/errors"
)

// Scalar is the set of element types a Sequence can hold. Elements live in
// arena memory the garbage collector does not scan, so pointers are excluded.
type Scalar interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

type sequenceOptions struct {
	policy   GrowthPolicy
	capacity int
	onGrow   func(from, to int)
}

// SequenceOption configures a Sequence.
type SequenceOption func(*sequenceOptions)

// WithPolicy sets the growth policy. Default is Doubling.
func WithPolicy(policy GrowthPolicy) SequenceOption {
	return func(o *sequenceOptions) {
		if policy != nil {
			o.policy = policy
		}
	}
}

// WithCapacity pre-reserves capacity at creation time. NewSequence panics
// with ErrInvalidCapacity for a negative capacity.
func WithCapacity(capacity int) SequenceOption {
	return func(o *sequenceOptions) {
		o.capacity = capacity
	}
}

// OnGrow registers a callback invoked after every reallocation with the old
// and the new capacity.
func OnGrow(fn func(from, to int)) SequenceOption {
	return func(o *sequenceOptions) {
		o.onGrow = fn
	}
}

// Sequence is an arena-backed dynamic array. Its storage is contiguous and is
// replaced by a larger block whenever an append does not fit; the old block is
// returned to the arena right away. Storage taken before a Reset of the arena
// is dropped instead of freed.
type Sequence[T Scalar] struct {
	allocator     *Arena
	policy        GrowthPolicy
	onGrow        func(from, to int)
	vec           []T
	epoch         uint64 // arena epoch vec was allocated in
	reallocations int
}

// NewSequence creates an empty Sequence whose storage comes from allocator.
// A nil allocator gets a private arena.
func NewSequence[T Scalar](allocator *Arena, opts ...SequenceOption) *Sequence[T] {
	o := sequenceOptions{policy: Doubling}
	for _, opt := range opts {
		opt(&o)
	}
	if o.capacity < 0 {
		panic(errors.Wrapf(ErrInvalidCapacity, "initial capacity %d", o.capacity))
	}
	if allocator == nil {
		allocator = NewArena()
	}

	s := &Sequence[T]{
		allocator: allocator,
		policy:    o.policy,
		onGrow:    o.onGrow,
	}
	if o.capacity > 0 {
		s.vec = NewSlice[T](allocator, 0, o.capacity)
		s.epoch = allocator.Epoch()
	}
	return s
}

// Len returns the current number of elements.
func (s *Sequence[T]) Len() int {
	return len(s.vec)
}

// Cap returns the number of elements the current storage holds without
// reallocating.
func (s *Sequence[T]) Cap() int {
	return cap(s.vec)
}

// Reallocations returns how many times the storage has been replaced.
func (s *Sequence[T]) Reallocations() int {
	return s.reallocations
}

// At retrieves the element at index.
func (s *Sequence[T]) At(index int) (T, error) {
	if index < 0 || index >= len(s.vec) {
		var zero T
		return zero, errors.Wrapf(ErrOutOfBounds, "index %d with length %d", index, len(s.vec))
	}
	return s.vec[index], nil
}

// Append adds values to the end, growing the storage if they do not fit.
func (s *Sequence[T]) Append(values ...T) *Sequence[T] {
	required := len(s.vec) + len(values)
	if required > cap(s.vec) {
		s.grow(max(required, s.policy(cap(s.vec), required)))
	}
	s.vec = append(s.vec, values...)
	return s
}

// Reserve makes room for at least capacity elements. It never shrinks.
func (s *Sequence[T]) Reserve(capacity int) error {
	if capacity < 0 {
		return errors.Wrapf(ErrInvalidCapacity, "reserve %d", capacity)
	}
	if capacity > cap(s.vec) {
		s.grow(capacity)
	}
	return nil
}

// grow moves the elements into new storage of newCap elements.
func (s *Sequence[T]) grow(newCap int) {
	oldCap := cap(s.vec)
	if newCap <= oldCap {
		return
	}

	vec := NewSlice[T](s.allocator, len(s.vec), newCap)
	copy(vec, s.vec)
	s.free()
	s.vec = vec
	s.epoch = s.allocator.Epoch()
	s.reallocations++

	tracer().Debugf("sequence: len %d, capacity %d -> %d", len(s.vec), oldCap, newCap)
	if s.onGrow != nil {
		s.onGrow(oldCap, newCap)
	}
}

// Range iterates over elements using a callback function.
func (s *Sequence[T]) Range(fn func(index int, v T) bool) {
	for i := 0; i < len(s.vec); i++ {
		if !fn(i, s.vec[i]) {
			return
		}
	}
}

// Iter provides an iterator compatible with range loops.
//
// Example:
//
//	for index, v := range s.Iter() {
//		// do something
//	}
func (s *Sequence[T]) Iter() iter.Seq2[int, T] {
	return s.Range
}

// Values returns a heap copy of the elements.
func (s *Sequence[T]) Values() []T {
	out := make([]T, len(s.vec))
	copy(out, s.vec)
	return out
}

// Release returns the storage to the arena and leaves the sequence empty.
func (s *Sequence[T]) Release() {
	s.free()
	s.vec = nil
}

func (s *Sequence[T]) free() {
	if s.epoch != s.allocator.Epoch() {
		return // reclaimed by Reset
	}
	FreeSlice(s.allocator, s.vec)
}
