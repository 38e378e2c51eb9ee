package tetmesh

import (
	"errors"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// BufferKind selects which side of the cut a buffer draws.
type BufferKind uint8

const (
	// Inside buffers hold the exposed cut surface. UVs are rest positions.
	Inside BufferKind = iota
	// Outside buffers hold retriangulated boundary faces. UVs are texcoords.
	Outside
)

func (k BufferKind) String() string {
	if k == Inside {
		return "inside"
	}
	return "outside"
}

// CutVertex is a synthesized vertex, fully described by its weights over the
// four vertices of Cell.
type CutVertex struct {
	Cell    int32
	Weights [4]float32
	Pos     mgl32.Vec3
	UV      mgl32.Vec3
}

// Alloc is the vertex and triangle spans a cut record holds in one buffer.
type Alloc struct {
	Verts Span
	Tris  Span
}

// GeometryBuffer holds the cut geometry of one submesh side. Triangle
// indices address mesh vertices below Base and cut vertices from Base up.
type GeometryBuffer struct {
	Kind BufferKind
	Base int32

	verts *arena[CutVertex]
	tris  *arena[[3]int32]
	dirty atomic.Bool
}

// NewGeometryBuffer creates a buffer for a mesh of base vertices with room
// for limit cut vertices and limit triangles.
func NewGeometryBuffer(kind BufferKind, base, limit int) *GeometryBuffer {
	return &GeometryBuffer{
		Kind:  kind,
		Base:  int32(base),
		verts: newArena[CutVertex](limit),
		tris:  newArena[[3]int32](limit),
	}
}

// Allocate claims spans for nVerts vertices and nTris triangles.
func (b *GeometryBuffer) Allocate(nVerts, nTris int) (Alloc, error) {
	vs, err := b.verts.alloc(nVerts)
	if err != nil {
		return Alloc{}, err
	}
	ts, err := b.tris.alloc(nTris)
	if err != nil {
		return Alloc{}, errors.Join(err, b.verts.release(vs))
	}
	b.dirty.Store(true)
	return Alloc{Verts: vs, Tris: ts}, nil
}

// Free returns both spans to the pool.
func (b *GeometryBuffer) Free(a Alloc) error {
	if a.Verts.Empty() && a.Tris.Empty() {
		return nil
	}
	b.dirty.Store(true)
	return errors.Join(b.verts.release(a.Verts), b.tris.release(a.Tris))
}

// Vertex returns slot i of span s for writing.
func (b *GeometryBuffer) Vertex(s Span, i int) *CutVertex {
	return b.verts.at(s.Start + int32(i))
}

// Index returns the render index of slot i of span s.
func (b *GeometryBuffer) Index(s Span, i int) int32 {
	return b.Base + s.Start + int32(i)
}

// SetTriangle writes triangle i of span s.
func (b *GeometryBuffer) SetTriangle(s Span, i int, tri [3]int32) {
	*b.tris.at(s.Start + int32(i)) = tri
}

// Triangle returns triangle i of span s.
func (b *GeometryBuffer) Triangle(s Span, i int) [3]int32 {
	return *b.tris.at(s.Start + int32(i))
}

// MarkDirty flags the buffer for re-upload.
func (b *GeometryBuffer) MarkDirty() { b.dirty.Store(true) }

// TakeDirty reports whether the buffer changed since the last call.
func (b *GeometryBuffer) TakeDirty() bool { return b.dirty.Swap(false) }

// NumVertices returns the number of cut vertex slots in use or pooled.
func (b *GeometryBuffer) NumVertices() int { return int(b.verts.used()) }

// NumTriangles returns the number of triangle slots in use or pooled.
func (b *GeometryBuffer) NumTriangles() int { return int(b.tris.used()) }

// Pooled returns the vertex and triangle slots waiting for reuse.
func (b *GeometryBuffer) Pooled() (verts, tris int) {
	return b.verts.pooled(), b.tris.pooled()
}

// AppendPositions appends the mesh positions followed by every cut vertex.
func (b *GeometryBuffer) AppendPositions(dst, mesh []mgl32.Vec3) []mgl32.Vec3 {
	dst = append(dst, mesh...)
	n := b.verts.used()
	for i := int32(0); i < n; i++ {
		dst = append(dst, b.verts.at(i).Pos)
	}
	return dst
}

// AppendUVs appends per-vertex texture coordinates matching AppendPositions.
// Mesh vertices use texcoords on the outside and rest positions inside.
func (b *GeometryBuffer) AppendUVs(dst []mgl32.Vec3, texcoords []mgl32.Vec2, rest []mgl32.Vec3) []mgl32.Vec3 {
	if b.Kind == Inside {
		dst = append(dst, rest...)
	} else {
		for _, t := range texcoords {
			dst = append(dst, t.Vec3(0))
		}
	}
	n := b.verts.used()
	for i := int32(0); i < n; i++ {
		dst = append(dst, b.verts.at(i).UV)
	}
	return dst
}

// AppendIndices appends every triangle. Freed slots read as (0,0,0).
func (b *GeometryBuffer) AppendIndices(dst []uint32) []uint32 {
	n := b.tris.used()
	for i := int32(0); i < n; i++ {
		t := b.tris.at(i)
		dst = append(dst, uint32(t[0]), uint32(t[1]), uint32(t[2]))
	}
	return dst
}
