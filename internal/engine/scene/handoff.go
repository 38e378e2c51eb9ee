package scene

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/kerf/internal/engine/tetmesh"
)

// Input is one frame of upstream data. A nil Blade keeps the blade where it
// is; a nil entry in Positions keeps that mesh's positions.
type Input struct {
	Blade     []mgl32.Vec3
	Positions [][]mgl32.Vec3
}

// Result is what the engine hands to the renderer after a frame.
type Result struct {
	Frame uint32
	Stats tetmesh.Stats
	Err   error
}

// Handoff pairs the engine with one upstream producer and one renderer.
// Every exchange is unbuffered: Submit returns once the engine has taken the
// frame, and the engine does not take the next frame until the renderer has
// called Release.
type Handoff struct {
	in      chan Input
	out     chan Result
	release chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewHandoff creates an open handoff.
func NewHandoff() *Handoff {
	return &Handoff{
		in:      make(chan Input),
		out:     make(chan Result),
		release: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Submit blocks until the engine takes the frame. It returns false once the
// handoff is closed.
func (h *Handoff) Submit(in Input) bool {
	select {
	case h.in <- in:
		return true
	case <-h.done:
		return false
	}
}

// Await blocks until the engine finished a frame.
func (h *Handoff) Await() (Result, bool) {
	select {
	case r := <-h.out:
		return r, true
	case <-h.done:
		return Result{}, false
	}
}

// Release lets the engine take the next frame. The renderer must not read
// the cut buffers after calling it.
func (h *Handoff) Release() {
	select {
	case h.release <- struct{}{}:
	case <-h.done:
	}
}

// Close ends Serve and unblocks every waiting party.
func (h *Handoff) Close() {
	h.once.Do(func() { close(h.done) })
}

// Serve runs frames from h until it is closed. A frame error is delivered in
// the Result and does not stop the loop.
func (s *Scene) Serve(h *Handoff) {
	for {
		var in Input
		select {
		case in = <-h.in:
		case <-h.done:
			return
		}

		frame := s.frame
		st, err := s.Apply(in)
		if err != nil {
			s.log.Error("frame failed", zap.Uint32("frame", frame), zap.Error(err))
		}

		select {
		case h.out <- Result{Frame: frame, Stats: st, Err: err}:
		case <-h.done:
			return
		}
		select {
		case <-h.release:
		case <-h.done:
			return
		}
	}
}
