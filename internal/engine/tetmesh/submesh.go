package tetmesh

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/kerf/internal/engine/topology"
	"github.com/Faultbox/kerf/pkg/geom"
)

// ErrPartitionLayout is returned when partition ranges do not tile the cells.
var ErrPartitionLayout = errors.New("tetmesh: partitions do not tile the cells")

// Submesh owns the cells, edges and faces of one region of a mesh and splits
// them into partitions. Cells are renumbered along a Morton curve so that
// every partition is a compact, contiguous range.
type Submesh struct {
	Index        int32
	Cells        []Cell
	Edges        []Edge
	Faces        []Face // external faces first, then internal
	NumExternal  int
	ExternalTris [][3]int32 // render indices of the external faces, zeroed when degenerated
	Partitions   []*Partition
	Inside       *GeometryBuffer
	Outside      *GeometryBuffer

	// Order maps a cell id to its id in the loaded topology.
	Order []int32

	restTris [][3]int32

	inboxMu sync.Mutex
	inbox   []int32
}

func newSubmesh(index int32, ts *topology.Submesh, positions []mgl32.Vec3, opts Options) (*Submesh, error) {
	n := len(ts.Tets)
	s := &Submesh{
		Index:   index,
		Cells:   make([]Cell, n),
		Inside:  NewGeometryBuffer(Inside, len(positions), opts.BufferSlots),
		Outside: NewGeometryBuffer(Outside, len(positions), opts.BufferSlots),
	}

	remap := s.bucket(ts, positions)
	for id, old := range s.Order {
		cell := &s.Cells[id]
		cell.Vertices = ts.Tets[old]
		for i, nb := range ts.Neighbors[old] {
			cell.Neighbors[i] = NoCell
			if nb != NoCell {
				cell.Neighbors[i] = remap[nb]
			}
		}
		cell.Faces = [4]int32{-1, -1, -1, -1}
		cell.Cut = -1
	}

	if err := s.loadEdges(ts, remap); err != nil {
		return nil, err
	}
	s.loadFaces(ts, remap)
	s.split(opts.Partitions)
	return s, nil
}

// bucket orders the cells by the Morton code of their centroids and returns
// the map from topology cell id to submesh cell id.
func (s *Submesh) bucket(ts *topology.Submesh, positions []mgl32.Vec3) []int32 {
	n := len(ts.Tets)
	centroids := make([]mgl32.Vec3, n)
	bounds := geom.EmptyAABB()
	for i, tet := range ts.Tets {
		c := meanPoint(positions[tet[0]], positions[tet[1]], positions[tet[2]], positions[tet[3]])
		centroids[i] = c
		bounds.Extend(c)
	}
	keys := make([]uint32, n)
	for i, c := range centroids {
		keys[i] = geom.MortonKey(c, bounds)
	}

	s.Order = make([]int32, n)
	for i := range s.Order {
		s.Order[i] = int32(i)
	}
	sort.SliceStable(s.Order, func(i, j int) bool {
		return keys[s.Order[i]] < keys[s.Order[j]]
	})

	remap := make([]int32, n)
	for id, old := range s.Order {
		remap[old] = int32(id)
	}
	return remap
}

func edgeKey(a, b int32) [2]int32 {
	if a > b {
		a, b = b, a
	}
	return [2]int32{a, b}
}

func (s *Submesh) loadEdges(ts *topology.Submesh, remap []int32) error {
	s.Edges = make([]Edge, len(ts.Edges))
	lookup := make(map[[2]int32]int32, len(ts.Edges))
	for i, te := range ts.Edges {
		e := &s.Edges[i]
		e.First, e.Second = te.First, te.Second
		e.Owners = make([]int32, len(te.Owners))
		for k, o := range te.Owners {
			e.Owners[k] = remap[o]
		}
		sort.Slice(e.Owners, func(a, b int) bool { return e.Owners[a] < e.Owners[b] })
		lookup[edgeKey(te.First, te.Second)] = int32(i)
	}

	for c := range s.Cells {
		cell := &s.Cells[c]
		for k, ev := range topology.EdgeVertices {
			id, ok := lookup[edgeKey(cell.Vertices[ev[0]], cell.Vertices[ev[1]])]
			if !ok {
				return fmt.Errorf("submesh %d cell %d edge %d has no record: %w", s.Index, c, k, topology.ErrInconsistent)
			}
			cell.Edges[k] = id
		}
	}
	return nil
}

func (s *Submesh) loadFaces(ts *topology.Submesh, remap []int32) {
	ext := remapFaces(ts.External, remap)
	in := remapFaces(ts.Internal, remap)

	s.NumExternal = len(ext)
	s.Faces = make([]Face, 0, len(ext)+len(in))
	s.ExternalTris = make([][3]int32, len(ext))
	s.restTris = make([][3]int32, len(ext))

	for i, tf := range ext {
		s.ExternalTris[i] = tf.Indices
		s.restTris[i] = tf.Indices
		s.addFace(tf, ExtFaceBit(int(tf.Slot)), ExtVertexBit)
	}
	for _, tf := range in {
		s.addFace(tf, IntFaceBit(int(tf.Slot)), IntVertexBit)
	}
}

func (s *Submesh) addFace(tf topology.Face, faceBit Boundary, vertexBit func(int) Boundary) {
	idx := int32(len(s.Faces))
	s.Faces = append(s.Faces, Face{Home: tf.Cell, Owner: tf.Cell, Slot: tf.Slot})
	cell := &s.Cells[tf.Cell]
	cell.Faces[tf.Slot] = idx
	cell.Boundary |= faceBit
	for _, v := range topology.FaceVertices[tf.Slot] {
		cell.Boundary |= vertexBit(v)
	}
}

func remapFaces(faces []topology.Face, remap []int32) []topology.Face {
	out := make([]topology.Face, len(faces))
	for i, f := range faces {
		f.Cell = remap[f.Cell]
		out[i] = f
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Cell < out[j].Cell })
	return out
}

// split cuts the cell range into equal contiguous partitions and gives each
// the faces of its cells.
func (s *Submesh) split(parts int) {
	n := len(s.Cells)
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	ext := s.Faces[:s.NumExternal]
	in := s.Faces[s.NumExternal:]
	lower := func(faces []Face, c int32) int32 {
		return int32(sort.Search(len(faces), func(i int) bool { return faces[i].Home >= c }))
	}

	s.Partitions = make([]*Partition, parts)
	for i := range s.Partitions {
		start := int32(i * n / parts)
		end := int32((i + 1) * n / parts)
		p := newPartition(i, start, end)
		p.ExtStart, p.ExtEnd = lower(ext, start), lower(ext, end)
		base := int32(s.NumExternal)
		p.IntStart, p.IntEnd = base+lower(in, start), base+lower(in, end)
		s.Partitions[i] = p
	}
}

// NumCells returns the number of cells.
func (s *Submesh) NumCells() int { return len(s.Cells) }

// Post queues cell c from another submesh's job. It is safe for concurrent
// use; the cell is scheduled at the next Reassign.
func (s *Submesh) Post(c int32) {
	s.inboxMu.Lock()
	s.inbox = append(s.inbox, c)
	s.inboxMu.Unlock()
}

// PartitionOf returns the partition whose range holds cell c.
func (s *Submesh) PartitionOf(c int32) *Partition {
	for _, p := range s.Partitions {
		if p.Owns(c) {
			return p
		}
	}
	return nil
}

// Reassign moves parked and posted cells into the cut worklist of the
// partition that owns them and retires edges of severed cells. It must not
// run concurrently with partition jobs. It returns the number of cells
// handed over.
func (s *Submesh) Reassign() int {
	s.inboxMu.Lock()
	inbox := s.inbox
	s.inbox = nil
	s.inboxMu.Unlock()

	moved := 0
	for _, c := range inbox {
		moved += s.enqueue(c)
	}
	for _, p := range s.Partitions {
		keep := p.cut[:0]
		for _, c := range p.cut {
			if p.Owns(c) {
				keep = append(keep, c)
				continue
			}
			moved += s.enqueue(c)
		}
		p.cut = keep
		clear(p.foreign)
		p.retireEdges(s)
	}
	return moved
}

func (s *Submesh) enqueue(c int32) int {
	cell := &s.Cells[c]
	if cell.List != NotListed {
		return 0
	}
	p := s.PartitionOf(c)
	cell.List = InCut
	p.cut = append(p.cut, c)
	return 1
}

// CheckPartitions verifies that the partition ranges tile [0, NumCells).
func (s *Submesh) CheckPartitions() error {
	next := int32(0)
	for i, p := range s.Partitions {
		if p.CellStart != next || p.CellEnd < p.CellStart {
			return fmt.Errorf("partition %d [%d,%d) after %d: %w", i, p.CellStart, p.CellEnd, next, ErrPartitionLayout)
		}
		next = p.CellEnd
	}
	if next != int32(len(s.Cells)) {
		return fmt.Errorf("ranges end at %d of %d: %w", next, len(s.Cells), ErrPartitionLayout)
	}
	return nil
}

// DirtyFaces returns the range of external faces degenerated or restored
// this frame.
func (s *Submesh) DirtyFaces() (from, to int, ok bool) {
	for _, p := range s.Partitions {
		pf, pt, pok := p.DirtyFaces()
		if !pok {
			continue
		}
		if !ok || int(pf) < from {
			from = int(pf)
		}
		if int(pt) > to {
			to = int(pt)
		}
		ok = true
	}
	return from, to, ok
}

func (s *Submesh) edgeMask(cell *Cell) uint8 {
	var m uint8
	for k, e := range cell.Edges {
		if s.Edges[e].IsCut() {
			m |= 1 << k
		}
	}
	return m
}

// EdgeMask returns the cut-edge mask of cell c.
func (s *Submesh) EdgeMask(c int32) uint8 { return s.edgeMask(&s.Cells[c]) }
