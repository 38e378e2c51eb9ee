package tetmesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/kerf/pkg/geom"
)

// vref names a triangle corner: a synthesized vertex (>= 0) or local cell
// vertex i encoded as -(i+1).
type vref int32

func corner(i int) vref { return vref(-(i + 1)) }

type btri struct {
	v    [3]vref
	away mgl32.Vec3 // the triangle faces away from this point
}

// builder collects the geometry of one cell for one buffer before it is
// committed to the cell's spans.
type builder struct {
	verts [][4]float32
	tris  []btri
}

func (b *builder) reset() {
	b.verts = b.verts[:0]
	b.tris = b.tris[:0]
}

func (b *builder) vertex(w [4]float32) vref {
	b.verts = append(b.verts, w)
	return vref(len(b.verts) - 1)
}

func (b *builder) tri(a, c, d vref, away mgl32.Vec3) {
	b.tris = append(b.tris, btri{v: [3]vref{a, c, d}, away: away})
}

// write fills the spans of alloc with the built geometry. Positions come from
// the cell corners; UVs from texcoords outside and rest positions inside.
func (b *builder) write(f *Frame, buf *GeometryBuffer, alloc Alloc, c int32, cell *Cell, pos [4]mgl32.Vec3) {
	if len(b.verts) == 0 && len(b.tris) == 0 {
		return
	}
	m := f.Mesh
	var uvs [4]mgl32.Vec3
	for i, v := range cell.Vertices {
		if buf.Kind == Inside {
			uvs[i] = m.Rest[v]
		} else {
			uvs[i] = m.TexCoords[v].Vec3(0)
		}
	}

	for j, w := range b.verts {
		cv := buf.Vertex(alloc.Verts, j)
		cv.Cell = c
		cv.Weights = w
		cv.Pos = geom.Interpolate(w, pos)
		cv.UV = geom.Interpolate(w, uvs)
	}

	for j, t := range b.tris {
		var idx [3]int32
		var p [3]mgl32.Vec3
		for k, r := range t.v {
			if r < 0 {
				local := int(-r - 1)
				idx[k] = cell.Vertices[local]
				p[k] = pos[local]
			} else {
				idx[k] = buf.Index(alloc.Verts, int(r))
				p[k] = buf.Vertex(alloc.Verts, int(r)).Pos
			}
		}
		buf.SetTriangle(alloc.Tris, j, orient(idx, p, t.away))
	}
	buf.MarkDirty()
}

// orient swaps the winding of a triangle whose normal points toward away.
func orient(idx [3]int32, p [3]mgl32.Vec3, away mgl32.Vec3) [3]int32 {
	n := p[1].Sub(p[0]).Cross(p[2].Sub(p[0]))
	centroid := p[0].Add(p[1]).Add(p[2]).Mul(1.0 / 3)
	if n.Dot(centroid.Sub(away)) < 0 {
		idx[1], idx[2] = idx[2], idx[1]
	}
	return idx
}

// edgeWeights returns the weights of the point at parameter t from local
// vertex a toward b.
func edgeWeights(a, b int, t float32) [4]float32 {
	var w [4]float32
	w[a] = 1 - t
	w[b] = t
	return w
}

func meanWeights(ws ...[4]float32) [4]float32 {
	var m [4]float32
	for _, w := range ws {
		for i := range m {
			m[i] += w[i]
		}
	}
	inv := 1 / float32(len(ws))
	for i := range m {
		m[i] *= inv
	}
	return m
}

func meanPoint(ps ...mgl32.Vec3) mgl32.Vec3 {
	var m mgl32.Vec3
	for _, p := range ps {
		m = m.Add(p)
	}
	return m.Mul(1 / float32(len(ps)))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
