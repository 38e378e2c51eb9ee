package tetmesh

import (
	"github.com/Faultbox/kerf/pkg/geom"
)

// GatherAffectedCells finds the cells the blade touched this frame. Boundary
// faces hit by the sweep are degenerated and seed the cut worklist; the
// narrow phase then walks the worklist, following vertex and edge hits into
// neighboring cells. Calling it again without moving the blade is a no-op.
func (p *Partition) GatherAffectedCells(f *Frame) {
	p.stats = Stats{}
	p.dirtyFrom, p.dirtyTo = -1, 0

	p.refreshBounds(f)
	if !f.Sweep.Empty() && p.Bounds.Expand(geom.Epsilon).Overlaps(f.Sweep.Bounds) {
		p.broadPhase(f)
	}
	p.propagate(f)
	p.compact(f)
}

// ResolvePending runs the narrow phase on cells handed over by the submesh
// since the last pass.
func (p *Partition) ResolvePending(f *Frame) {
	p.propagate(f)
	p.compact(f)
}

func (p *Partition) broadPhase(f *Frame) {
	p.testFaces(f, p.ExtStart, p.ExtEnd)
	p.testFaces(f, p.IntStart, p.IntEnd)
}

func (p *Partition) testFaces(f *Frame, from, to int32) {
	sub := f.Submesh
	for i := from; i < to; i++ {
		face := &sub.Faces[i]
		if !face.Live() {
			continue
		}
		cell := &sub.Cells[face.Home]
		if cell.Flags.Has(Finalized) {
			continue
		}
		if !f.Sweep.Hits(faceTriangle(f, face)) {
			continue
		}
		p.degenerate(f, i)
		cell.Flags.Set(Contact)
		p.schedule(f, face.Home)
	}
}

func (p *Partition) degenerate(f *Frame, i int32) {
	sub := f.Submesh
	face := &sub.Faces[i]
	if !face.Live() {
		return
	}
	face.Owner = NoCell
	p.stats.Degenerated++
	if i < int32(sub.NumExternal) {
		sub.ExternalTris[i] = [3]int32{}
		p.touchFace(i)
	}
}

func (p *Partition) restoreFace(f *Frame, i int32) {
	sub := f.Submesh
	face := &sub.Faces[i]
	if face.Live() {
		return
	}
	face.Owner = face.Home
	p.stats.Restored++
	if i < int32(sub.NumExternal) {
		sub.ExternalTris[i] = sub.restTris[i]
		p.touchFace(i)
	}
}

// propagate examines every unexamined cell of the worklist. Cells queued
// while scanning land behind the cursor and are handled in the same pass.
func (p *Partition) propagate(f *Frame) {
	for i := 0; i < len(p.cut); i++ {
		c := p.cut[i]
		if !p.Owns(c) {
			continue
		}
		if f.Submesh.Cells[c].Flags.Has(Examined) {
			continue
		}
		p.cellBladeCollide(f, c)
	}
}

func (p *Partition) cellBladeCollide(f *Frame, c int32) {
	sub := f.Submesh
	cell := &sub.Cells[c]
	cell.Flags.Set(Examined)
	p.stats.Examined++

	if f.Sweep.Empty() {
		return
	}
	pos := corners(f, cell)
	bounds := geom.EmptyAABB()
	for _, v := range pos {
		bounds.Extend(v)
	}
	if !bounds.Expand(geom.Epsilon).Overlaps(f.Sweep.Bounds) {
		return
	}

	for i, v := range cell.Vertices {
		p.scratch = f.Sweep.Containing(pos[i], p.scratch)
		if len(p.scratch) == 0 {
			continue
		}
		cell.Flags.Set(VertexHit(i) | Collided | Contact)
		p.stats.VertexHits++
		if f.Mesh.markCollided(v) {
			p.collided = append(p.collided, v)
		}
		for _, o := range f.Mesh.Owners[v] {
			switch {
			case o.Submesh != sub.Index:
				f.Mesh.Submeshes[o.Submesh].Post(o.Cell)
			case o.Cell != c:
				p.schedule(f, o.Cell)
			}
		}
	}

	for _, e := range cell.Edges {
		edge := &sub.Edges[e]
		if !p.testEdge(f, edge) {
			continue
		}
		cell.Flags.Set(Contact)
		for _, o := range edge.Owners {
			if o != c {
				p.schedule(f, o)
			}
		}
	}
}

// testEdge reports whether the sweep crosses the edge strictly between its
// endpoints this pass. The first crossing found sets the edge's parameter.
func (p *Partition) testEdge(f *Frame, edge *Edge) bool {
	if edge.Severed() {
		return false
	}
	if edge.tested.Load() == f.Pass {
		return edge.hitPass.Load() == f.Pass
	}
	hit := false
	pos := f.Mesh.Positions
	if eu, ok := f.Sweep.Crossing(pos[edge.First], pos[edge.Second]); ok && eu > geom.Epsilon && eu < 1-geom.Epsilon {
		edge.TrySetU(eu)
		edge.hitPass.Store(f.Pass)
		p.stats.EdgeHits++
		hit = true
	}
	edge.tested.Store(f.Pass)
	return hit
}

// retestEdge is testEdge for re-examination: a crossing overwrites the
// parameter instead of deferring to an earlier one.
func (p *Partition) retestEdge(f *Frame, edge *Edge) {
	if edge.Severed() || edge.tested.Load() == f.Pass {
		return
	}
	pos := f.Mesh.Positions
	if eu, ok := f.Sweep.Crossing(pos[edge.First], pos[edge.Second]); ok && eu > geom.Epsilon && eu < 1-geom.Epsilon {
		edge.StoreU(eu)
		edge.hitPass.Store(f.Pass)
	}
	edge.tested.Store(f.Pass)
}

// compact moves freshly vertex-collided cells to the re-examination list and
// drops cells with nothing left to do.
func (p *Partition) compact(f *Frame) {
	sub := f.Submesh
	keep := p.cut[:0]
	for _, c := range p.cut {
		if !p.Owns(c) {
			keep = append(keep, c)
			continue
		}
		cell := &sub.Cells[c]
		switch {
		case cell.Flags.Has(Collided):
			cell.List = InReexamine
			p.reexamine = append(p.reexamine, c)
		case !cell.Flags.Has(Contact) && cell.Cut < 0 && sub.edgeMask(cell) == 0:
			cell.List = NotListed
			cell.Flags.Reset()
		default:
			keep = append(keep, c)
		}
	}
	p.cut = keep
}
