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

func newBlock(t *testing.T, partitions int) *tetmesh.Mesh {
	t.Helper()
	topo, err := topology.Block(4, 3, 3, 0.25, 2)
	require.NoError(t, err)
	opts := tetmesh.DefaultOptions()
	opts.Partitions = partitions
	m, err := tetmesh.NewMesh("block", topo, opts)
	require.NoError(t, err)
	return m
}

// slantedBlade sweeps a large square through the block, away from any grid
// vertex.
func slantedBlade(t *testing.T) *blade.Blade {
	t.Helper()
	n := mgl32.Vec3{1, 0.3, 0.2}.Normalize()
	a := mgl32.Vec3{0, 1, 0}.Cross(n).Normalize()
	b := n.Cross(a)
	c := mgl32.Vec3{0.51, 0.37, 0.41}
	const s = 3
	bl, err := blade.New([]mgl32.Vec3{
		c.Sub(a.Mul(s)).Sub(b.Mul(s)),
		c.Add(a.Mul(s)).Sub(b.Mul(s)),
	}, [][2]int32{{0, 1}})
	require.NoError(t, err)
	require.NoError(t, bl.Update([]mgl32.Vec3{
		c.Sub(a.Mul(s)).Add(b.Mul(s)),
		c.Add(a.Mul(s)).Add(b.Mul(s)),
	}))
	return bl
}

func TestNew_Errors(t *testing.T) {
	bl, err := blade.New([]mgl32.Vec3{{}, {0, 0, 1}}, [][2]int32{{0, 1}})
	require.NoError(t, err)

	_, err = New(DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrNoBlade)

	_, err = New(Config{Workers: 0}, bl)
	assert.ErrorIs(t, err, ErrWorkers)

	s, err := New(DefaultConfig(), bl)
	require.NoError(t, err)
	assert.Same(t, bl, s.Blade())
	assert.Empty(t, s.Meshes())
}

func TestStep_CutsBlock(t *testing.T) {
	m := newBlock(t, 3)
	s, err := New(Config{Workers: 4, PropagationRounds: 8}, slantedBlade(t))
	require.NoError(t, err)
	s.AddMesh(m)

	st, err := s.Step()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), s.Frame())
	assert.Positive(t, st.EdgeHits)
	assert.Positive(t, st.Examined)
	assert.Zero(t, st.VertexHits)

	for _, sub := range m.Submeshes {
		require.NoError(t, sub.CheckPartitions())
		for _, p := range sub.Partitions {
			for _, c := range p.CutList() {
				assert.True(t, p.Owns(c), "cut list holds foreign cell %d", c)
			}
		}
	}
}

// liveCounts returns the vertex and triangle slots holding geometry, pooled
// slots excluded.
func liveCounts(buf *tetmesh.GeometryBuffer) [2]int {
	pv, pt := buf.Pooled()
	return [2]int{buf.NumVertices() - pv, buf.NumTriangles() - pt}
}

func TestStep_WorkerCountDoesNotChangeCuts(t *testing.T) {
	type result struct {
		masks [][]uint8
		live  [][2][2]int
	}
	run := func(workers int) result {
		m := newBlock(t, 3)
		s, err := New(Config{Workers: workers, PropagationRounds: 8}, slantedBlade(t))
		require.NoError(t, err)
		s.AddMesh(m)
		_, err = s.Step()
		require.NoError(t, err)

		var out result
		for _, sub := range m.Submeshes {
			ms := make([]uint8, sub.NumCells())
			for c := range ms {
				ms[c] = sub.EdgeMask(int32(c))
			}
			out.masks = append(out.masks, ms)
			out.live = append(out.live, [2][2]int{liveCounts(sub.Inside), liveCounts(sub.Outside)})
		}
		return out
	}

	// Slot layout may differ between runs; masks and live geometry may not.
	serial := run(1)
	parallel := run(8)
	assert.Equal(t, serial.masks, parallel.masks)
	assert.Equal(t, serial.live, parallel.live)

	cut := 0
	for _, ms := range serial.masks {
		for _, mask := range ms {
			if mask != 0 {
				cut++
			}
		}
	}
	assert.Positive(t, cut)
}

func TestStep_PropagationRoundsZero(t *testing.T) {
	m := newBlock(t, 3)
	s, err := New(Config{Workers: 2, PropagationRounds: 0}, slantedBlade(t))
	require.NoError(t, err)
	s.AddMesh(m)

	_, err = s.Step()
	require.NoError(t, err)
	for _, sub := range m.Submeshes {
		require.NoError(t, sub.CheckPartitions())
	}
}

func TestApply_RejectsBadInput(t *testing.T) {
	m := newBlock(t, 2)
	s, err := New(DefaultConfig(), slantedBlade(t))
	require.NoError(t, err)
	s.AddMesh(m)

	_, err = s.Apply(Input{Blade: []mgl32.Vec3{{}}})
	assert.ErrorIs(t, err, blade.ErrVertexCount)

	_, err = s.Apply(Input{Positions: [][]mgl32.Vec3{{{}}}})
	assert.ErrorIs(t, err, tetmesh.ErrVertexCount)

	_, err = s.Apply(Input{Positions: [][]mgl32.Vec3{nil, {{}}}})
	assert.ErrorIs(t, err, ErrMeshIndex)

	assert.Equal(t, uint32(0), s.Frame(), "failed frames do not advance")
}
