package tetmesh

import (
	"math"
	"sync/atomic"
)

// SeveredU marks an edge whose owners are all finalized.
const SeveredU float32 = 2

// Edge is shared by every cell in Owners. Its cut parameter is measured from
// First and written concurrently by partitions, so it lives in atomics.
type Edge struct {
	First  int32
	Second int32
	Owners []int32

	u       atomic.Uint32
	tested  atomic.Uint32 // pass id of the last test
	hitPass atomic.Uint32 // pass id of the last crossing
}

// U returns the cut parameter: 0 uncut, (0,1] cut, SeveredU retired.
func (e *Edge) U() float32 { return math.Float32frombits(e.u.Load()) }

// IsCut reports whether the edge carries a live cut.
func (e *Edge) IsCut() bool {
	u := e.U()
	return u > 0 && u <= 1
}

// Severed reports whether the edge was retired.
func (e *Edge) Severed() bool { return e.U() == SeveredU }

// TrySetU stores u if the edge was uncut. The first writer wins.
func (e *Edge) TrySetU(u float32) bool {
	return e.u.CompareAndSwap(0, math.Float32bits(u))
}

// StoreU overwrites the cut parameter unless the edge is retired.
func (e *Edge) StoreU(u float32) {
	for {
		old := e.u.Load()
		if math.Float32frombits(old) == SeveredU {
			return
		}
		if e.u.CompareAndSwap(old, math.Float32bits(u)) {
			return
		}
	}
}

// ClearU drops a live cut.
func (e *Edge) ClearU() { e.StoreU(0) }

func (e *Edge) retire() { e.u.Store(math.Float32bits(SeveredU)) }

// Other returns the vertex at the far end from v.
func (e *Edge) Other(v int32) int32 {
	if v == e.First {
		return e.Second
	}
	return e.First
}

// UFrom returns the cut parameter measured from vertex v.
func (e *Edge) UFrom(v int32) float32 {
	u := e.U()
	if v == e.First {
		return u
	}
	return 1 - u
}
