package tetmesh

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/kerf/internal/engine/blade"
	"github.com/Faultbox/kerf/internal/engine/topology"
	"github.com/Faultbox/kerf/internal/logger"
	"github.com/Faultbox/kerf/pkg/geom"
)

// ErrVertexCount is returned when new positions do not match the mesh.
var ErrVertexCount = errors.New("tetmesh: vertex count mismatch")

// Owner is one cell using a mesh vertex.
type Owner struct {
	Submesh int32
	Cell    int32
}

// Options configure how a mesh is split and how much cut geometry it holds.
type Options struct {
	Partitions  int // per submesh
	BufferSlots int // vertex and triangle slots per cut buffer
	Params      Params
}

// DefaultOptions returns options for a small mesh.
func DefaultOptions() Options {
	return Options{
		Partitions:  4,
		BufferSlots: 1 << 20,
		Params:      DefaultParams(),
	}
}

// Mesh is a deformable tetrahedral solid: shared vertex data plus the
// submeshes holding its cells.
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	Previous  []mgl32.Vec3
	Rest      []mgl32.Vec3
	TexCoords []mgl32.Vec2
	Owners    [][]Owner
	Submeshes []*Submesh
	Params    Params

	collided []atomic.Bool
}

// NewMesh validates the topology and builds the submeshes and partitions.
func NewMesh(name string, topo *topology.Topology, opts Options) (*Mesh, error) {
	if err := topo.Validate(); err != nil {
		return nil, fmt.Errorf("mesh %s: %w", name, err)
	}
	n := len(topo.Positions)
	m := &Mesh{
		Name:      name,
		Positions: append([]mgl32.Vec3(nil), topo.Positions...),
		Previous:  append([]mgl32.Vec3(nil), topo.Positions...),
		Rest:      append([]mgl32.Vec3(nil), topo.Positions...),
		TexCoords: make([]mgl32.Vec2, n),
		Owners:    make([][]Owner, n),
		Params:    opts.Params,
		collided:  make([]atomic.Bool, n),
	}
	copy(m.TexCoords, topo.TexCoords)

	for i := range topo.Submeshes {
		s, err := newSubmesh(int32(i), &topo.Submeshes[i], m.Rest, opts)
		if err != nil {
			return nil, fmt.Errorf("mesh %s: %w", name, err)
		}
		m.Submeshes = append(m.Submeshes, s)
		for c := range s.Cells {
			for _, v := range s.Cells[c].Vertices {
				m.Owners[v] = append(m.Owners[v], Owner{Submesh: int32(i), Cell: int32(c)})
			}
		}
		logger.Debug("submesh loaded",
			zap.String("mesh", name),
			zap.Int("submesh", i),
			zap.Int("cells", len(s.Cells)),
			zap.Int("edges", len(s.Edges)),
			zap.Int("external_faces", s.NumExternal),
			zap.Int("partitions", len(s.Partitions)))
	}
	return m, nil
}

// SetPositions starts a frame with new vertex positions from the simulation.
func (m *Mesh) SetPositions(positions []mgl32.Vec3) error {
	if len(positions) != len(m.Positions) {
		return fmt.Errorf("mesh %s: got %d positions, want %d: %w", m.Name, len(positions), len(m.Positions), ErrVertexCount)
	}
	copy(m.Previous, m.Positions)
	copy(m.Positions, positions)
	return nil
}

// Frame returns the context for jobs on submesh s.
func (m *Mesh) Frame(s int, sweep *blade.Sweep, pass uint32) *Frame {
	return &Frame{Mesh: m, Submesh: m.Submeshes[s], Sweep: sweep, Pass: pass, Params: m.Params}
}

// NumCells returns the number of cells across all submeshes.
func (m *Mesh) NumCells() int {
	n := 0
	for _, s := range m.Submeshes {
		n += s.NumCells()
	}
	return n
}

// Reassign runs Submesh.Reassign on every submesh.
func (m *Mesh) Reassign() int {
	moved := 0
	for _, s := range m.Submeshes {
		moved += s.Reassign()
	}
	return moved
}

// Stats sums the frame counters of every partition.
func (m *Mesh) Stats() Stats {
	var st Stats
	for _, s := range m.Submeshes {
		for _, p := range s.Partitions {
			st.Add(p.stats)
		}
	}
	return st
}

func (m *Mesh) markCollided(v int32) bool { return m.collided[v].CompareAndSwap(false, true) }

// IsCollided reports whether vertex v lies on the blade and awaits adjustment.
func (m *Mesh) IsCollided(v int32) bool { return m.collided[v].Load() }

// AdjustCollidedVertices moves every vertex found lying on the blade a
// fraction of the way toward a neighboring vertex, so the next test sees a
// clean crossing instead of a touching vertex. Edges around a moved vertex
// lose their cut parameter. It returns the number of vertices moved.
func (m *Mesh) AdjustCollidedVertices(sweep *blade.Sweep) int {
	moved := 0
	var tris []int
	for _, s := range m.Submeshes {
		for _, p := range s.Partitions {
			for _, v := range p.collided {
				if m.adjust(v, sweep, &tris) {
					moved++
				}
				m.clearIncidentEdges(v)
				m.collided[v].Store(false)
			}
			p.collided = p.collided[:0]
		}
	}
	return moved
}

// adjust picks the first non-collided vertex of an owner cell whose direction
// is not near-parallel to any sweep triangle the vertex lies on.
func (m *Mesh) adjust(v int32, sweep *blade.Sweep, tris *[]int) bool {
	pv := m.Positions[v]
	*tris = sweep.Containing(pv, *tris)

	for _, o := range m.Owners[v] {
		cell := &m.Submeshes[o.Submesh].Cells[o.Cell]
		for _, w := range cell.Vertices {
			if w == v || m.collided[w].Load() {
				continue
			}
			d := m.Positions[w].Sub(pv)
			l := d.Len()
			if l < geom.Epsilon {
				continue
			}
			dir := d.Mul(1 / l)
			ok := true
			for _, i := range *tris {
				if abs32(dir.Dot(sweep.Tris[i].Normal)) < m.Params.ParallelTolerance {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			m.Positions[v] = pv.Add(d.Mul(m.Params.AdjustFraction))
			return true
		}
	}
	return false
}

func (m *Mesh) clearIncidentEdges(v int32) {
	for _, o := range m.Owners[v] {
		s := m.Submeshes[o.Submesh]
		cell := &s.Cells[o.Cell]
		for k, ev := range topology.EdgeVertices {
			if cell.Vertices[ev[0]] == v || cell.Vertices[ev[1]] == v {
				s.Edges[cell.Edges[k]].ClearU()
			}
		}
	}
}
