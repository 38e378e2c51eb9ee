package tetmesh

import (
	"github.com/Faultbox/kerf/internal/engine/blade"
)

// Params are the geometric tolerances of the engine.
type Params struct {
	// CutDistance is the parametric half-width of the kerf on a cut edge.
	CutDistance float32
	// AdjustFraction is how far a collided vertex moves toward its target.
	AdjustFraction float32
	// ParallelTolerance rejects adjustment directions closer than this to
	// the sweep plane (|d·n| below it).
	ParallelTolerance float32
	// CoincidentTolerance is the plane distance below which a stored cut
	// center is reused.
	CoincidentTolerance float32
}

// DefaultParams returns the standard tolerances.
func DefaultParams() Params {
	return Params{
		CutDistance:         0.01,
		AdjustFraction:      0.2,
		ParallelTolerance:   0.1,
		CoincidentTolerance: 1e-4,
	}
}

// Frame is the borrowed context a partition works in for one phase.
type Frame struct {
	Mesh    *Mesh
	Submesh *Submesh
	Sweep   *blade.Sweep
	Pass    uint32
	Params  Params
}

// Stats counts what a partition did during one frame.
type Stats struct {
	Examined    int
	VertexHits  int
	EdgeHits    int
	Degenerated int
	Restored    int
	Reexamined  int
	Finalized   int
	Cuts        [numKinds]int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Examined += o.Examined
	s.VertexHits += o.VertexHits
	s.EdgeHits += o.EdgeHits
	s.Degenerated += o.Degenerated
	s.Restored += o.Restored
	s.Reexamined += o.Reexamined
	s.Finalized += o.Finalized
	for i := range s.Cuts {
		s.Cuts[i] += o.Cuts[i]
	}
}

// CutsOf returns the number of cells formed with kind k.
func (s Stats) CutsOf(k CutKind) int { return s.Cuts[k] }
