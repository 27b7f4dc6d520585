package growth

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/limpo1989/growth/internal"
)

const wordSize = unsafe.Sizeof(uintptr(0))

// chunk is a contiguous region obtained from Memory. Allocations are carved
// from the front; each one is prefixed with the chunk's base address.
type chunk struct {
	base uintptr
	used uintptr
	size uintptr
	live int
	mem  []byte
}

func (c *chunk) contains(p uintptr) bool {
	return c.base <= p && p < c.base+c.size
}

// arenaOptions holds configuration settings for the Arena allocator
type arenaOptions struct {
	chunkSize uintptr
	poolSize  int
	locker    sync.Locker
	memory    Memory
}

// Option configures an Arena.
type Option func(*arenaOptions)

// WithChunkSize sets the base allocation size for memory chunks.
// Larger values reduce allocation frequency but may increase waste.
func WithChunkSize(chunkSize uintptr) Option {
	return func(o *arenaOptions) {
		o.chunkSize = chunkSize
	}
}

// WithPoolSize configures the maximum number of empty chunks kept for reuse.
func WithPoolSize(poolSize int) Option {
	return func(o *arenaOptions) {
		o.poolSize = poolSize
	}
}

// WithEnableLock guards the arena with a spin lock so that it can be shared
// between goroutines.
func WithEnableLock(enableLock bool) Option {
	return func(o *arenaOptions) {
		if enableLock {
			o.locker = new(internal.SpinLock)
		} else {
			o.locker = nopLocker{}
		}
	}
}

// WithMemory specifies where chunks come from. Default is the Go heap.
func WithMemory(memory Memory) Option {
	return func(o *arenaOptions) {
		o.memory = memory
	}
}

// Memory is the source of raw chunks for an Arena.
type Memory interface {
	Alloc(size uintptr) []byte
	Free(m []byte)
}

// Stats is a snapshot of an arena's bookkeeping.
type Stats struct {
	Mallocs int // successful Malloc calls
	Frees   int // successful Free calls
	Live    int // allocations not freed yet
	Chunks  int // chunks obtained from Memory
}

// Arena hands out word-aligned blocks carved from larger chunks and recycles
// chunks once every block in them has been freed.
type Arena struct {
	locker    sync.Locker
	memory    Memory
	chunkSize uintptr
	minHole   uintptr
	poolSize  int
	current   *chunk
	retired   map[uintptr]*chunk // chunks other than current with live blocks
	freelist  []*chunk
	stats     Stats
	epoch     uint64 // incremented by Reset
}

// NewArena creates an Arena. Chunks are obtained lazily on first use.
func NewArena(ops ...Option) *Arena {
	var opts = arenaOptions{
		chunkSize: 1024,
		poolSize:  64,
		locker:    nopLocker{},
		memory:    heapMemory{},
	}
	for _, op := range ops {
		op(&opts)
	}

	ar := &Arena{
		locker:   opts.locker,
		memory:   opts.memory,
		poolSize: opts.poolSize,
		retired:  make(map[uintptr]*chunk, 8),
	}
	ar.chunkSize = align(max(512, opts.chunkSize+wordSize))
	ar.minHole = align(max(256, ar.chunkSize/5))
	return ar
}

// Malloc returns a word-aligned block of at least size bytes. The block is not
// zeroed. Panics if size is zero.
func (ar *Arena) Malloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		panic("malloc size must be positive")
	}

	ar.locker.Lock()
	defer ar.locker.Unlock()

	need := align(size + wordSize)
	if ar.current == nil {
		ar.current = ar.obtain(ar.chunkSize)
	}
	free := ar.current.size - ar.current.used

	// oversized requests, and requests that would throw away a large tail of
	// the current chunk, get a chunk of their own
	if need > ar.chunkSize || (free < need && free >= ar.minHole) {
		c := ar.obtain(need)
		ar.retired[c.base] = c
		return ar.carve(c, need)
	}

	if free < need {
		ar.retire(ar.current)
		ar.current = ar.obtain(ar.chunkSize)
	}
	return ar.carve(ar.current, need)
}

// Free releases a block returned by Malloc. Panics if ptr was not handed out
// by this arena.
func (ar *Arena) Free(ptr unsafe.Pointer) {
	ar.locker.Lock()
	defer ar.locker.Unlock()

	if !ar.owns(uintptr(ptr)) {
		panic(fmt.Errorf("pointer not allocated by arena: %p", ptr))
	}

	header := (*uintptr)(unsafe.Add(ptr, -int(wordSize)))
	if *header == 0 {
		panic(fmt.Errorf("block freed twice: %p", ptr))
	}
	c := ar.current
	if c == nil || c.base != *header {
		var ok bool
		if c, ok = ar.retired[*header]; !ok {
			panic(fmt.Errorf("pointer not allocated by arena: %p", ptr))
		}
	}
	if c.live <= 0 {
		panic(fmt.Errorf("block freed twice: %p", ptr))
	}

	// a cleared header marks the block as freed
	*header = 0
	c.live--
	ar.stats.Frees++
	ar.stats.Live--
	if c.live > 0 {
		return
	}
	c.used = 0
	if c != ar.current {
		delete(ar.retired, c.base)
		ar.recycle(c)
	}
}

// Reset returns every chunk to Memory. All blocks handed out before become
// invalid and must not be passed to Free.
func (ar *Arena) Reset() {
	ar.locker.Lock()
	defer ar.locker.Unlock()

	for _, c := range ar.retired {
		ar.memory.Free(c.mem)
	}
	for _, c := range ar.freelist {
		ar.memory.Free(c.mem)
	}
	if ar.current != nil {
		ar.memory.Free(ar.current.mem)
	}

	ar.retired = make(map[uintptr]*chunk, 8)
	ar.freelist = nil
	ar.current = nil
	ar.stats.Live = 0
	ar.epoch++
}

// Epoch counts the calls to Reset. Blocks obtained in an earlier epoch are
// gone.
func (ar *Arena) Epoch() uint64 {
	ar.locker.Lock()
	defer ar.locker.Unlock()
	return ar.epoch
}

// Stats returns a snapshot of the arena's counters.
func (ar *Arena) Stats() Stats {
	ar.locker.Lock()
	defer ar.locker.Unlock()
	return ar.stats
}

func (ar *Arena) carve(c *chunk, need uintptr) unsafe.Pointer {
	p := unsafe.Pointer(&c.mem[c.used])
	*(*uintptr)(p) = c.base
	c.used += need
	c.live++
	ar.stats.Mallocs++
	ar.stats.Live++
	return unsafe.Add(p, wordSize)
}

func (ar *Arena) retire(c *chunk) {
	if c.live > 0 {
		ar.retired[c.base] = c
		return
	}
	c.used = 0
	ar.recycle(c)
}

func (ar *Arena) recycle(c *chunk) {
	if len(ar.freelist) < ar.poolSize {
		ar.freelist = append(ar.freelist, c)
		return
	}
	ar.memory.Free(c.mem)
	c.base, c.size, c.mem = 0, 0, nil
}

func (ar *Arena) obtain(size uintptr) *chunk {
	if c := ar.reuse(size); c != nil {
		return c
	}

	m := ar.memory.Alloc(size)
	if uintptr(len(m)) < size {
		panic(fmt.Errorf("memory returned %d bytes, requested %d", len(m), size))
	}
	ar.stats.Chunks++
	tracer().Debugf("arena: obtained chunk of %d bytes", size)
	return &chunk{
		base: uintptr(unsafe.Pointer(unsafe.SliceData(m))),
		size: size,
		mem:  m,
	}
}

// reuse takes the smallest pooled chunk that can hold size bytes.
func (ar *Arena) reuse(size uintptr) *chunk {
	idx := -1
	for i, c := range ar.freelist {
		if c.size >= size && (idx == -1 || c.size < ar.freelist[idx].size) {
			idx = i
		}
	}
	if idx == -1 {
		return nil
	}

	selected := ar.freelist[idx]
	last := len(ar.freelist) - 1
	ar.freelist[idx] = ar.freelist[last]
	ar.freelist[last] = nil
	ar.freelist = ar.freelist[:last]
	return selected
}

func (ar *Arena) owns(p uintptr) bool {
	if ar.current != nil && ar.current.contains(p) {
		return true
	}
	for _, c := range ar.retired {
		if c.contains(p) {
			return true
		}
	}
	return false
}

// NewSlice allocates a zeroed slice of T with the given length and capacity
// from the arena. A zero capacity yields a nil slice.
func NewSlice[T Scalar](ar *Arena, length, capacity int) []T {
	if length > capacity {
		capacity = length
	}
	if length < 0 || capacity < 0 {
		panic("invalid capacity")
	}
	if capacity == 0 {
		return nil
	}

	ptr := ar.Malloc(Sizeof[T]() * uintptr(capacity))
	s := unsafe.Slice((*T)(ptr), capacity)
	clear(s)
	return s[:length]
}

// FreeSlice returns the storage of a slice obtained from NewSlice.
func FreeSlice[T Scalar](ar *Arena, s []T) {
	if cap(s) == 0 {
		return
	}
	ar.Free(unsafe.Pointer(unsafe.SliceData(s)))
}

// Sizeof returns the size of one T in bytes.
func Sizeof[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

func align(sz uintptr) uintptr {
	return (sz + wordSize - 1) &^ (wordSize - 1)
}

type heapMemory struct{}

func (heapMemory) Alloc(size uintptr) []byte {
	return make([]byte, size)
}

func (heapMemory) Free(m []byte) {
}

type nopLocker struct{}

func (nopLocker) Lock() {
}

func (nopLocker) Unlock() {
}
