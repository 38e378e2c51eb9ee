package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/kerf/internal/engine/blade"
	"github.com/Faultbox/kerf/internal/engine/tetmesh"
	"github.com/Faultbox/kerf/internal/engine/topology"
)

// bladeAt returns a blade edge parallel to Z at the given x, in the y=0.6
// plane.
func bladeAt(x float32) []mgl32.Vec3 {
	return []mgl32.Vec3{{x, 0.6, -1}, {x, 0.6, 2}}
}

func newServedScene(t *testing.T) (*Scene, *Handoff, <-chan struct{}) {
	t.Helper()
	topo, err := topology.Block(2, 2, 2, 0.5, 1)
	require.NoError(t, err)
	m, err := tetmesh.NewMesh("cube", topo, tetmesh.DefaultOptions())
	require.NoError(t, err)

	bl, err := blade.New(bladeAt(-1), [][2]int32{{0, 1}})
	require.NoError(t, err)
	s, err := New(Config{Workers: 2, PropagationRounds: 4}, bl)
	require.NoError(t, err)
	s.AddMesh(m)

	h := NewHandoff()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Serve(h)
	}()
	return s, h, done
}

func TestHandoff_FrameOrder(t *testing.T) {
	s, h, done := newServedScene(t)

	require.True(t, h.Submit(Input{Blade: bladeAt(2)}))
	r, ok := h.Await()
	require.True(t, ok)
	require.NoError(t, r.Err)
	assert.Equal(t, uint32(0), r.Frame)
	assert.Positive(t, r.Stats.EdgeHits)

	// The renderer reads the buffers between Await and Release.
	for _, sub := range s.Meshes()[0].Submeshes {
		idx := sub.Inside.AppendIndices(nil)
		assert.Zero(t, len(idx)%3)
	}
	h.Release()

	require.True(t, h.Submit(Input{}))
	r, ok = h.Await()
	require.True(t, ok)
	assert.Equal(t, uint32(1), r.Frame)
	h.Release()

	h.Close()
	<-done
	assert.False(t, h.Submit(Input{}))
	_, ok = h.Await()
	assert.False(t, ok)
	h.Close()
}

func TestHandoff_ErrorKeepsServing(t *testing.T) {
	_, h, done := newServedScene(t)
	defer func() {
		h.Close()
		<-done
	}()

	require.True(t, h.Submit(Input{Blade: []mgl32.Vec3{{}}}))
	r, ok := h.Await()
	require.True(t, ok)
	assert.ErrorIs(t, r.Err, blade.ErrVertexCount)
	h.Release()

	require.True(t, h.Submit(Input{Blade: bladeAt(2)}))
	r, ok = h.Await()
	require.True(t, ok)
	assert.NoError(t, r.Err)
	assert.Equal(t, uint32(0), r.Frame)
	h.Release()
}

func TestHandoff_CloseUnblocksEngine(t *testing.T) {
	_, h, done := newServedScene(t)

	require.True(t, h.Submit(Input{Blade: bladeAt(2)}))
	// Close without awaiting: Serve is blocked delivering the result.
	h.Close()
	<-done
}
