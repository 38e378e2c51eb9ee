package tetmesh

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

const (
	chunkBits = 12
	chunkSize = 1 << chunkBits
	chunkMask = chunkSize - 1
	maxChunks = 1024

	// MaxSlots is the largest capacity an arena can be given.
	MaxSlots = maxChunks * chunkSize
)

var (
	// ErrBufferFull is returned when an arena cannot grow any further.
	ErrBufferFull = errors.New("tetmesh: cut geometry buffer full")
	// ErrStaleSpan is returned when freeing a span that was already freed.
	ErrStaleSpan = errors.New("tetmesh: stale span")
)

// Span is a run of consecutive slots. Gen guards against double frees.
type Span struct {
	Start int32
	Len   int32
	Gen   uint32
}

// Empty reports whether the span holds no slot.
func (s Span) Empty() bool { return s.Len == 0 }

type chunk[T any] [chunkSize]T

// arena is a slot allocator. Runs are claimed and released under a mutex and
// recycled by length; slot contents are written without the lock by whoever
// owns the run. Chunks never move once published.
type arena[T any] struct {
	mu     sync.Mutex
	chunks [maxChunks]atomic.Pointer[chunk[T]]
	gens   []uint32 // generation per run start
	free   map[int32][]int32
	next   int32
	limit  int32
}

func newArena[T any](limit int) *arena[T] {
	if limit <= 0 || limit > MaxSlots {
		limit = MaxSlots
	}
	return &arena[T]{
		free:  make(map[int32][]int32),
		limit: int32(limit),
	}
}

func (a *arena[T]) alloc(n int) (Span, error) {
	if n == 0 {
		return Span{}, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	size := int32(n)
	if starts := a.free[size]; len(starts) > 0 {
		start := starts[len(starts)-1]
		a.free[size] = starts[:len(starts)-1]
		return Span{Start: start, Len: size, Gen: a.gens[start]}, nil
	}

	if a.next+size > a.limit {
		return Span{}, fmt.Errorf("need %d slots, %d of %d used: %w", n, a.next, a.limit, ErrBufferFull)
	}
	start := a.next
	a.next += size
	for c := start >> chunkBits; c <= (a.next-1)>>chunkBits; c++ {
		if a.chunks[c].Load() == nil {
			a.chunks[c].Store(new(chunk[T]))
		}
	}
	for int32(len(a.gens)) < a.next {
		a.gens = append(a.gens, 0)
	}
	return Span{Start: start, Len: size, Gen: a.gens[start]}, nil
}

// release zeroes the run and returns it to the pool for its length.
func (a *arena[T]) release(s Span) error {
	if s.Len == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if s.Start < 0 || s.Start+s.Len > a.next || a.gens[s.Start] != s.Gen {
		return fmt.Errorf("span %d+%d gen %d: %w", s.Start, s.Len, s.Gen, ErrStaleSpan)
	}
	var zero T
	for i := s.Start; i < s.Start+s.Len; i++ {
		*a.at(i) = zero
	}
	a.gens[s.Start]++
	a.free[s.Len] = append(a.free[s.Len], s.Start)
	return nil
}

func (a *arena[T]) at(i int32) *T {
	return &a.chunks[i>>chunkBits].Load()[i&chunkMask]
}

// used returns the high-water mark.
func (a *arena[T]) used() int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}

// pooled returns the number of slots waiting for reuse.
func (a *arena[T]) pooled() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for size, starts := range a.free {
		n += int(size) * len(starts)
	}
	return n
}
