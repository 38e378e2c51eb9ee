// Package tetmesh implements the incremental severance engine: tetrahedral
// cells and their shared edges and faces, spatial partitions that detect
// blade contact and synthesize cut geometry, and the submesh and mesh
// containers that own them.
package tetmesh

import "github.com/Faultbox/kerf/internal/engine/topology"

// NoCell marks a missing neighbor or a degenerated face owner.
const NoCell = topology.NoCell

// Boundary holds the static boundary bits of a cell, set once at load.
type Boundary uint16

// ExtVertexBit marks local vertex i as lying on an external face.
func ExtVertexBit(i int) Boundary { return 1 << i }

// IntVertexBit marks local vertex i as lying on an internal face.
func IntVertexBit(i int) Boundary { return 1 << (4 + i) }

// ExtFaceBit marks face slot i as external.
func ExtFaceBit(i int) Boundary { return 1 << (8 + i) }

// IntFaceBit marks face slot i as internal.
func IntFaceBit(i int) Boundary { return 1 << (12 + i) }

// Has reports whether every bit of x is set.
func (b Boundary) Has(x Boundary) bool { return b&x == x }

// Flags is the per-frame state of a cell.
type Flags uint8

const (
	VertexHit0 Flags = 1 << iota
	VertexHit1
	VertexHit2
	VertexHit3
	Collided  // a vertex of the cell lies on the blade
	Contact   // the blade touched the cell this frame
	Examined  // narrow phase ran this pass
	Finalized // terminal: the cell is severed
)

// VertexHit returns the hit bit of local vertex i.
func VertexHit(i int) Flags { return VertexHit0 << i }

func (f Flags) Has(x Flags) bool { return f&x == x }
func (f *Flags) Set(x Flags)     { *f |= x }
func (f *Flags) Clear(x Flags)   { *f &^= x }

// Reset clears every flag except Finalized.
func (f *Flags) Reset() { *f &= Finalized }

// List tells which partition worklist holds a cell.
type List uint8

const (
	NotListed List = iota
	InCut
	InReexamine
	InFinished
)

func (l List) String() string {
	switch l {
	case InCut:
		return "cut"
	case InReexamine:
		return "reexamine"
	case InFinished:
		return "finished"
	default:
		return "none"
	}
}

// Cell is one tetrahedron. Vertices index the mesh arrays; Neighbors, Edges
// and Faces index the owning submesh.
type Cell struct {
	Vertices  [4]int32
	Neighbors [4]int32 // across the face opposite vertex i
	Edges     [6]int32 // in topology.EdgeVertices order
	Faces     [4]int32 // boundary face per slot, -1 when shared with a neighbor
	Boundary  Boundary
	Flags     Flags
	List      List
	Cut       int32 // record in the owning partition, -1 when none
}

// IsExternal reports whether face slot i is visible.
func (c *Cell) IsExternal(i int) bool { return c.Boundary.Has(ExtFaceBit(i)) }

// edgeIndex maps a pair of local vertices to the local edge between them.
var edgeIndex = func() (m [4][4]int) {
	for i := range m {
		for j := range m[i] {
			m[i][j] = -1
		}
	}
	for k, ev := range topology.EdgeVertices {
		m[ev[0]][ev[1]] = k
		m[ev[1]][ev[0]] = k
	}
	return m
}()
