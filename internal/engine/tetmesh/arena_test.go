package tetmesh

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_RecyclesBySize(t *testing.T) {
	a := newArena[int](0)

	s1, err := a.alloc(3)
	require.NoError(t, err)
	s2, err := a.alloc(5)
	require.NoError(t, err)
	assert.Equal(t, int32(0), s1.Start)
	assert.Equal(t, int32(3), s2.Start)

	*a.at(s1.Start) = 42
	require.NoError(t, a.release(s1))
	assert.Equal(t, 0, *a.at(s1.Start), "released slots are zeroed")
	assert.Equal(t, 3, a.pooled())

	// A different size does not take the pooled run.
	s3, err := a.alloc(4)
	require.NoError(t, err)
	assert.Equal(t, int32(8), s3.Start)

	s4, err := a.alloc(3)
	require.NoError(t, err)
	assert.Equal(t, s1.Start, s4.Start)
	assert.NotEqual(t, s1.Gen, s4.Gen)
	assert.Equal(t, int32(12), a.used())
}

func TestArena_StaleSpan(t *testing.T) {
	a := newArena[int](0)
	s, err := a.alloc(2)
	require.NoError(t, err)
	require.NoError(t, a.release(s))

	err = a.release(s)
	assert.True(t, errors.Is(err, ErrStaleSpan))

	assert.NoError(t, a.release(Span{}), "empty span")
}

func TestArena_Full(t *testing.T) {
	a := newArena[int](10)
	_, err := a.alloc(8)
	require.NoError(t, err)

	_, err = a.alloc(3)
	assert.True(t, errors.Is(err, ErrBufferFull))

	_, err = a.alloc(2)
	assert.NoError(t, err)
}

func TestArena_SpansChunks(t *testing.T) {
	a := newArena[int](0)
	_, err := a.alloc(chunkSize - 2)
	require.NoError(t, err)

	s, err := a.alloc(5)
	require.NoError(t, err)
	for i := int32(0); i < s.Len; i++ {
		*a.at(s.Start + i) = int(i) + 1
	}
	for i := int32(0); i < s.Len; i++ {
		assert.Equal(t, int(i)+1, *a.at(s.Start + i))
	}
}

func TestGeometryBuffer_Output(t *testing.T) {
	b := NewGeometryBuffer(Inside, 4, 0)
	assert.False(t, b.TakeDirty())

	al, err := b.Allocate(2, 1)
	require.NoError(t, err)
	assert.True(t, b.TakeDirty())
	assert.False(t, b.TakeDirty())

	b.Vertex(al.Verts, 0).Pos = mgl32.Vec3{1, 2, 3}
	b.Vertex(al.Verts, 1).UV = mgl32.Vec3{0.5, 0.5, 0.5}
	b.SetTriangle(al.Tris, 0, [3]int32{0, b.Index(al.Verts, 0), b.Index(al.Verts, 1)})

	mesh := make([]mgl32.Vec3, 4)
	pos := b.AppendPositions(nil, mesh)
	require.Len(t, pos, 6)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, pos[4])

	uvs := b.AppendUVs(nil, make([]mgl32.Vec2, 4), mesh)
	require.Len(t, uvs, 6)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, uvs[5])

	assert.Equal(t, []uint32{0, 4, 5}, b.AppendIndices(nil))

	require.NoError(t, b.Free(al))
	assert.Equal(t, []uint32{0, 0, 0}, b.AppendIndices(nil))
	verts, tris := b.Pooled()
	assert.Equal(t, 2, verts)
	assert.Equal(t, 1, tris)

	assert.True(t, errors.Is(b.Free(al), ErrStaleSpan))
}
