// Package blade holds the rigid cutting blade: a double buffer of vertex
// positions and the swept triangles derived from it every frame.
package blade

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrVertexCount is returned when an update does not match the blade's size.
	ErrVertexCount = errors.New("blade: vertex count mismatch")
	// ErrEdgeIndex is returned for an edge referencing a missing vertex.
	ErrEdgeIndex = errors.New("blade: edge index out of range")
)

// Blade is a rigid blade made of vertices connected by edges. Each edge sweeps
// two triangles between the previous and the current frame.
type Blade struct {
	Edges [][2]int32

	prev []mgl32.Vec3
	cur  []mgl32.Vec3
}

// New creates a blade at rest: previous and current positions are equal.
func New(positions []mgl32.Vec3, edges [][2]int32) (*Blade, error) {
	n := int32(len(positions))
	for i, e := range edges {
		if e[0] < 0 || e[0] >= n || e[1] < 0 || e[1] >= n || e[0] == e[1] {
			return nil, fmt.Errorf("edge %d (%d,%d): %w", i, e[0], e[1], ErrEdgeIndex)
		}
	}
	b := &Blade{
		Edges: append([][2]int32(nil), edges...),
		prev:  append([]mgl32.Vec3(nil), positions...),
		cur:   append([]mgl32.Vec3(nil), positions...),
	}
	return b, nil
}

// Update swaps the buffers and stores positions as the current frame.
func (b *Blade) Update(positions []mgl32.Vec3) error {
	if len(positions) != len(b.cur) {
		return fmt.Errorf("got %d positions, want %d: %w", len(positions), len(b.cur), ErrVertexCount)
	}
	b.prev, b.cur = b.cur, b.prev
	copy(b.cur, positions)
	return nil
}

// Translate moves the blade by d, making the old position the previous frame.
func (b *Blade) Translate(d mgl32.Vec3) {
	b.prev, b.cur = b.cur, b.prev
	for i := range b.cur {
		b.cur[i] = b.prev[i].Add(d)
	}
}

// Previous returns the positions of the previous frame.
func (b *Blade) Previous() []mgl32.Vec3 { return b.prev }

// Current returns the positions of the current frame.
func (b *Blade) Current() []mgl32.Vec3 { return b.cur }

// VertexCount returns the number of blade vertices.
func (b *Blade) VertexCount() int { return len(b.cur) }
