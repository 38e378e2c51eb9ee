package blade

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/kerf/pkg/geom"
)

func newTestBlade(t *testing.T) *Blade {
	t.Helper()
	b, err := New([]mgl32.Vec3{{0, 0, 0}, {0, 0, 1}}, [][2]int32{{0, 1}})
	require.NoError(t, err)
	return b
}

func TestNew_RejectsBadEdges(t *testing.T) {
	_, err := New([]mgl32.Vec3{{0, 0, 0}}, [][2]int32{{0, 1}})
	assert.True(t, errors.Is(err, ErrEdgeIndex))

	_, err = New([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}}, [][2]int32{{1, 1}})
	assert.True(t, errors.Is(err, ErrEdgeIndex))
}

func TestUpdate_SwapsBuffers(t *testing.T) {
	b := newTestBlade(t)

	require.NoError(t, b.Update([]mgl32.Vec3{{1, 0, 0}, {1, 0, 1}}))
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, b.Previous()[0])
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, b.Current()[0])

	require.NoError(t, b.Update([]mgl32.Vec3{{2, 0, 0}, {2, 0, 1}}))
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, b.Previous()[0])
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, b.Current()[0])

	err := b.Update([]mgl32.Vec3{{0, 0, 0}})
	assert.True(t, errors.Is(err, ErrVertexCount))
}

func TestSweep_ForwardAndBackward(t *testing.T) {
	b := newTestBlade(t)
	b.Translate(mgl32.Vec3{1, 0, 0})

	s := b.Sweep()
	require.Len(t, s.Tris, 2)
	assert.Equal(t, Forward, s.Tris[0].Direction)
	assert.Equal(t, Backward, s.Tris[1].Direction)

	// Both halves lie in the y=0 plane.
	for _, tri := range s.Tris {
		assert.InDelta(t, 1, abs(tri.Normal[1]), 1e-6)
	}
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, s.Bounds.Min)
	assert.Equal(t, mgl32.Vec3{1, 0, 1}, s.Bounds.Max)

	eu, ok := s.Crossing(mgl32.Vec3{0.5, -1, 0.5}, mgl32.Vec3{0.5, 1, 0.5})
	require.True(t, ok)
	assert.InDelta(t, 0.5, eu, 1e-6)

	_, ok = s.Crossing(mgl32.Vec3{2, -1, 0.5}, mgl32.Vec3{2, 1, 0.5})
	assert.False(t, ok)

	assert.NotEmpty(t, s.Containing(mgl32.Vec3{0.5, 0, 0.5}, nil))
	assert.Empty(t, s.Containing(mgl32.Vec3{0.5, 0.1, 0.5}, nil))

	assert.True(t, s.Hits(geom.Triangle{{0.5, -1, 0.2}, {0.5, 1, 0.2}, {0.5, 0, 0.8}}))
	assert.False(t, s.Hits(geom.Triangle{{0.5, 1, 0.2}, {0.5, 2, 0.2}, {0.5, 1.5, 0.8}}))
}

func TestSweep_StillBladeIsEmpty(t *testing.T) {
	b := newTestBlade(t)
	assert.True(t, b.Sweep().Empty())
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
