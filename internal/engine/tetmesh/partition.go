package tetmesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/kerf/internal/engine/topology"
	"github.com/Faultbox/kerf/pkg/geom"
)

// Partition is a spatial shard of a submesh: a fixed range of cells and the
// faces they own. A partition only writes the cells and faces in its range;
// work found for other cells is parked until the submesh reassigns it.
type Partition struct {
	Index     int
	CellStart int32
	CellEnd   int32
	ExtStart  int32 // external faces [ExtStart, ExtEnd)
	ExtEnd    int32
	IntStart  int32 // internal faces [IntStart, IntEnd)
	IntEnd    int32
	Bounds    geom.AABB

	cut       []int32
	reexamine []int32
	finished  []int32
	foreign   map[int32]struct{}

	cuts     []Cut
	freeCuts []int32

	collided []int32 // mesh vertices this partition marked
	retire   []int32 // edges of finished cells

	dirtyFrom int32
	dirtyTo   int32

	stats   Stats
	scratch []int
	in      builder
	out     builder
}

func newPartition(index int, start, end int32) *Partition {
	return &Partition{
		Index:     index,
		CellStart: start,
		CellEnd:   end,
		foreign:   make(map[int32]struct{}),
		dirtyFrom: -1,
	}
}

// Owns reports whether cell c lies in the partition's range.
func (p *Partition) Owns(c int32) bool { return c >= p.CellStart && c < p.CellEnd }

// NumCells returns the size of the cell range.
func (p *Partition) NumCells() int { return int(p.CellEnd - p.CellStart) }

// CutList returns the cells waiting to be cut.
func (p *Partition) CutList() []int32 { return p.cut }

// ReexamineList returns the cells waiting for re-examination.
func (p *Partition) ReexamineList() []int32 { return p.reexamine }

// FinishedList returns the finalized cells.
func (p *Partition) FinishedList() []int32 { return p.finished }

// Stats returns the counters of the current frame.
func (p *Partition) Stats() Stats { return p.stats }

// CutRecord returns the cut record of a cell in the range, or nil.
func (p *Partition) CutRecord(cell *Cell) *Cut {
	if cell.Cut < 0 {
		return nil
	}
	return &p.cuts[cell.Cut]
}

// DirtyFaces returns the external faces touched this frame.
func (p *Partition) DirtyFaces() (from, to int32, ok bool) {
	if p.dirtyFrom < 0 {
		return 0, 0, false
	}
	return p.dirtyFrom, p.dirtyTo, true
}

func (p *Partition) touchFace(i int32) {
	if p.dirtyFrom < 0 || i < p.dirtyFrom {
		p.dirtyFrom = i
	}
	if i+1 > p.dirtyTo {
		p.dirtyTo = i + 1
	}
}

// schedule queues cell c for examination. Cells outside the range are parked
// for the submesh to move.
func (p *Partition) schedule(f *Frame, c int32) {
	if !p.Owns(c) {
		if _, ok := p.foreign[c]; !ok {
			p.foreign[c] = struct{}{}
			p.cut = append(p.cut, c)
		}
		return
	}
	cell := &f.Submesh.Cells[c]
	if cell.List != NotListed {
		return
	}
	cell.List = InCut
	p.cut = append(p.cut, c)
}

func (p *Partition) refreshBounds(f *Frame) {
	b := geom.EmptyAABB()
	cells := f.Submesh.Cells[p.CellStart:p.CellEnd]
	for i := range cells {
		for _, v := range cells[i].Vertices {
			b.Extend(f.Mesh.Positions[v])
			b.Extend(f.Mesh.Previous[v])
		}
	}
	p.Bounds = b
}

// corners returns the current positions of a cell's vertices.
func corners(f *Frame, cell *Cell) [4]mgl32.Vec3 {
	pos := f.Mesh.Positions
	return [4]mgl32.Vec3{pos[cell.Vertices[0]], pos[cell.Vertices[1]], pos[cell.Vertices[2]], pos[cell.Vertices[3]]}
}

func faceTriangle(f *Frame, face *Face) geom.Triangle {
	cell := &f.Submesh.Cells[face.Home]
	fv := topology.FaceVertices[face.Slot]
	pos := f.Mesh.Positions
	return geom.Triangle{pos[cell.Vertices[fv[0]]], pos[cell.Vertices[fv[1]]], pos[cell.Vertices[fv[2]]]}
}
