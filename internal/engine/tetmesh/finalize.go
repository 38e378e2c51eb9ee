package tetmesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/kerf/pkg/geom"
)

// ResolveReExaminedCells retests the edges of every cell whose vertices were
// moved off the blade and returns the cells to the cut worklist.
func (p *Partition) ResolveReExaminedCells(f *Frame) {
	sub := f.Submesh
	for _, c := range p.reexamine {
		cell := &sub.Cells[c]
		for _, e := range cell.Edges {
			p.retestEdge(f, &sub.Edges[e])
		}
		cell.Flags.Set(Contact)
		cell.List = InCut
		p.cut = append(p.cut, c)
		p.stats.Reexamined++
	}
	p.reexamine = p.reexamine[:0]
}

// FinalizeCollision forms the cut geometry of every pending cell. Severed
// cells move to the finished list for good; their geometry keeps following
// the mesh through the stored weights.
func (p *Partition) FinalizeCollision(f *Frame) error {
	p.ResolveReExaminedCells(f)

	sub := f.Submesh
	var firstErr error
	keep := p.cut[:0]
	for _, c := range p.cut {
		if !p.Owns(c) {
			keep = append(keep, c)
			continue
		}
		cell := &sub.Cells[c]
		contact := cell.Flags.Has(Contact)
		cell.Flags.Reset()

		severed, err := p.formFaces(f, c, contact)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			keep = append(keep, c)
			continue
		}
		switch {
		case severed:
			cell.List = InFinished
			cell.Flags.Set(Finalized)
			p.finished = append(p.finished, c)
			p.stats.Finalized++
			for _, e := range cell.Edges {
				if sub.Edges[e].IsCut() {
					p.retire = append(p.retire, e)
				}
			}
		case cell.List == InCut:
			keep = append(keep, c)
		}
	}
	p.cut = keep

	p.refreshFinished(f)
	return firstErr
}

func (p *Partition) refreshFinished(f *Frame) {
	sub := f.Submesh
	for _, c := range p.finished {
		cell := &sub.Cells[c]
		cut := p.CutRecord(cell)
		if cut == nil {
			continue
		}
		pos := corners(f, cell)
		refresh(sub.Inside, cut.Inside, pos)
		refresh(sub.Outside, cut.Outside, pos)
	}
}

func refresh(buf *GeometryBuffer, a Alloc, pos [4]mgl32.Vec3) {
	changed := false
	for j := 0; j < int(a.Verts.Len); j++ {
		cv := buf.Vertex(a.Verts, j)
		if np := geom.Interpolate(cv.Weights, pos); np != cv.Pos {
			cv.Pos = np
			changed = true
		}
	}
	if changed {
		buf.MarkDirty()
	}
}

// retireEdges marks edges whose owners are all finalized as severed.
func (p *Partition) retireEdges(s *Submesh) {
	keep := p.retire[:0]
	for _, e := range p.retire {
		edge := &s.Edges[e]
		if edge.Severed() {
			continue
		}
		done := true
		for _, o := range edge.Owners {
			if !s.Cells[o].Flags.Has(Finalized) {
				done = false
				break
			}
		}
		if done {
			edge.retire()
		} else {
			keep = append(keep, e)
		}
	}
	p.retire = keep
}
