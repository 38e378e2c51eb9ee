// Package topology describes the load-time layout of a tetrahedral mesh:
// per-submesh cells, neighbor links, boundary faces and shared edges. The
// cutting engine trusts a topology once Validate accepts it.
package topology

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// NoCell marks a missing neighbor.
const NoCell int32 = -1

var (
	ErrBadCount           = errors.New("topology: bad element count")
	ErrIndexOutOfRange    = errors.New("topology: index out of range")
	ErrAsymmetricNeighbor = errors.New("topology: asymmetric neighbor link")
	ErrInconsistent       = errors.New("topology: inconsistent reference")
)

// FaceVertices lists the local vertices of each face slot. Slot i is the face
// opposite local vertex i.
var FaceVertices = [4][3]int{{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}}

// EdgeVertices lists the local vertices of each of the six cell edges.
var EdgeVertices = [6][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}

// Face is a boundary triangle with a back-reference to the cell it bounds.
type Face struct {
	Indices [3]int32 // mesh vertex ids, wound outward
	Cell    int32
	Slot    uint8
}

// Edge is a cell edge shared by every cell listed in Owners. Cuts along the
// edge are measured from First.
type Edge struct {
	First  int32
	Second int32
	Owners []int32
}

// Submesh is the topology of one contiguous region of the mesh. Cell ids are
// local to the submesh; vertex ids index the shared mesh arrays.
type Submesh struct {
	Tets      [][4]int32
	Neighbors [][4]int32
	External  []Face // visible boundary of the solid
	Internal  []Face // faces shared with another submesh
	Edges     []Edge
}

// Topology is a whole mesh: shared vertex data plus its submeshes.
type Topology struct {
	Positions []mgl32.Vec3
	TexCoords []mgl32.Vec2
	Submeshes []Submesh
}

// NumCells returns the number of cells across every submesh.
func (t *Topology) NumCells() int {
	n := 0
	for i := range t.Submeshes {
		n += len(t.Submeshes[i].Tets)
	}
	return n
}

// Validate checks that every reference resolves inside its index space.
func (t *Topology) Validate() error {
	if len(t.Positions) == 0 {
		return fmt.Errorf("no vertices: %w", ErrBadCount)
	}
	if len(t.TexCoords) != 0 && len(t.TexCoords) != len(t.Positions) {
		return fmt.Errorf("%d texcoords for %d vertices: %w", len(t.TexCoords), len(t.Positions), ErrBadCount)
	}
	if len(t.Submeshes) == 0 {
		return fmt.Errorf("no submeshes: %w", ErrBadCount)
	}
	for i := range t.Submeshes {
		if err := t.Submeshes[i].validate(int32(len(t.Positions))); err != nil {
			return fmt.Errorf("submesh %d: %w", i, err)
		}
	}
	return nil
}

func (s *Submesh) validate(numVerts int32) error {
	numCells := int32(len(s.Tets))
	if numCells == 0 {
		return fmt.Errorf("no cells: %w", ErrBadCount)
	}
	if len(s.Neighbors) != len(s.Tets) {
		return fmt.Errorf("%d neighbor rows for %d cells: %w", len(s.Neighbors), numCells, ErrBadCount)
	}

	for c, tet := range s.Tets {
		for _, v := range tet {
			if v < 0 || v >= numVerts {
				return fmt.Errorf("cell %d vertex %d: %w", c, v, ErrIndexOutOfRange)
			}
		}
		for slot, n := range s.Neighbors[c] {
			if n == NoCell {
				continue
			}
			if n < 0 || n >= numCells {
				return fmt.Errorf("cell %d neighbor %d: %w", c, n, ErrIndexOutOfRange)
			}
			if back := slotOf(s.Neighbors[n], int32(c)); back < 0 {
				return fmt.Errorf("cell %d slot %d -> %d: %w", c, slot, n, ErrAsymmetricNeighbor)
			}
		}
	}

	for _, faces := range [][]Face{s.External, s.Internal} {
		for i, f := range faces {
			if f.Cell < 0 || f.Cell >= numCells || f.Slot > 3 {
				return fmt.Errorf("face %d owner %d/%d: %w", i, f.Cell, f.Slot, ErrIndexOutOfRange)
			}
			if s.Neighbors[f.Cell][f.Slot] != NoCell {
				return fmt.Errorf("face %d is not on the boundary of cell %d: %w", i, f.Cell, ErrInconsistent)
			}
			for _, v := range f.Indices {
				if slotOf(s.Tets[f.Cell], v) < 0 || slotOf(s.Tets[f.Cell], v) == int(f.Slot) {
					return fmt.Errorf("face %d vertex %d not on cell %d slot %d: %w", i, v, f.Cell, f.Slot, ErrInconsistent)
				}
			}
		}
	}

	for i, e := range s.Edges {
		if e.First < 0 || e.First >= numVerts || e.Second < 0 || e.Second >= numVerts {
			return fmt.Errorf("edge %d vertices: %w", i, ErrIndexOutOfRange)
		}
		if len(e.Owners) == 0 {
			return fmt.Errorf("edge %d has no owner: %w", i, ErrBadCount)
		}
		for _, c := range e.Owners {
			if c < 0 || c >= numCells {
				return fmt.Errorf("edge %d owner %d: %w", i, c, ErrIndexOutOfRange)
			}
			if slotOf(s.Tets[c], e.First) < 0 || slotOf(s.Tets[c], e.Second) < 0 {
				return fmt.Errorf("edge %d not part of owner %d: %w", i, c, ErrInconsistent)
			}
		}
	}
	return nil
}

func slotOf[T ~[4]int32](row T, v int32) int {
	for i, x := range row {
		if x == v {
			return i
		}
	}
	return -1
}
