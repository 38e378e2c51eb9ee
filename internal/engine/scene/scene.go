// Package scene runs the severance engine over a set of meshes cut by one
// blade. Each Step is one frame: gather, reassignment, vertex adjustment and
// finalization, with a full barrier between phases.
package scene

import (
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/kerf/internal/engine/blade"
	"github.com/Faultbox/kerf/internal/engine/tetmesh"
	"github.com/Faultbox/kerf/internal/logger"
)

var (
	// ErrNoBlade is returned by New without a blade.
	ErrNoBlade = errors.New("scene: no blade")
	// ErrWorkers is returned by New for a non-positive worker count.
	ErrWorkers = errors.New("scene: worker count must be positive")
	// ErrMeshIndex is returned for input addressing a mesh that does not exist.
	ErrMeshIndex = errors.New("scene: mesh index out of range")
)

// Config contains scene configuration options.
type Config struct {
	Workers           int
	PropagationRounds int
}

// DefaultConfig returns a default scene configuration.
func DefaultConfig() Config {
	return Config{
		Workers:           runtime.GOMAXPROCS(0),
		PropagationRounds: 8,
	}
}

// Scene owns the blade and the meshes it cuts.
type Scene struct {
	config Config
	blade  *blade.Blade
	meshes []*tetmesh.Mesh
	frame  uint32
	log    *zap.Logger
}

// New creates a new scene with the given configuration.
func New(cfg Config, b *blade.Blade) (*Scene, error) {
	if b == nil {
		return nil, fmt.Errorf("creating scene: %w", ErrNoBlade)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("creating scene: %d workers: %w", cfg.Workers, ErrWorkers)
	}
	if cfg.PropagationRounds < 0 {
		cfg.PropagationRounds = 0
	}
	return &Scene{
		config: cfg,
		blade:  b,
		log:    logger.Named("scene"),
	}, nil
}

// AddMesh adds a mesh to be cut from the next frame on.
func (s *Scene) AddMesh(m *tetmesh.Mesh) {
	s.meshes = append(s.meshes, m)
	s.log.Debug("mesh added",
		zap.String("name", m.Name),
		zap.Int("cells", m.NumCells()),
		zap.Int("submeshes", len(m.Submeshes)))
}

// Meshes returns the meshes in the order they were added.
func (s *Scene) Meshes() []*tetmesh.Mesh { return s.meshes }

// Blade returns the scene's blade.
func (s *Scene) Blade() *blade.Blade { return s.blade }

// Frame returns the number of completed frames.
func (s *Scene) Frame() uint32 { return s.frame }

// Apply feeds one frame of upstream input into the scene and steps it.
func (s *Scene) Apply(in Input) (tetmesh.Stats, error) {
	if in.Blade != nil {
		if err := s.blade.Update(in.Blade); err != nil {
			return tetmesh.Stats{}, fmt.Errorf("frame %d: %w", s.frame, err)
		}
	}
	for i, pos := range in.Positions {
		if pos == nil {
			continue
		}
		if i >= len(s.meshes) {
			return tetmesh.Stats{}, fmt.Errorf("frame %d: mesh %d: %w", s.frame, i, ErrMeshIndex)
		}
		if err := s.meshes[i].SetPositions(pos); err != nil {
			return tetmesh.Stats{}, fmt.Errorf("frame %d: %w", s.frame, err)
		}
	}
	return s.Step()
}

// Step runs one frame against the blade's current sweep and returns the
// summed statistics of every partition.
func (s *Scene) Step() (tetmesh.Stats, error) {
	sweep := s.blade.Sweep()
	pass := 2*s.frame + 1

	err := s.eachPartition(sweep, pass, func(p *tetmesh.Partition, f *tetmesh.Frame) error {
		p.GatherAffectedCells(f)
		return nil
	})
	if err != nil {
		return tetmesh.Stats{}, err
	}

	moved := s.reassign()
	round := 0
	for ; moved > 0 && round < s.config.PropagationRounds; round++ {
		err = s.eachPartition(sweep, pass, func(p *tetmesh.Partition, f *tetmesh.Frame) error {
			p.ResolvePending(f)
			return nil
		})
		if err != nil {
			return tetmesh.Stats{}, err
		}
		moved = s.reassign()
	}
	if moved > 0 {
		s.log.Warn("propagation rounds exhausted",
			zap.Uint32("frame", s.frame),
			zap.Int("rounds", round),
			zap.Int("pending", moved))
	}

	adjusted, err := s.adjust(sweep)
	if err != nil {
		return tetmesh.Stats{}, err
	}

	err = s.eachPartition(sweep, pass+1, func(p *tetmesh.Partition, f *tetmesh.Frame) error {
		return p.FinalizeCollision(f)
	})
	if err != nil {
		return tetmesh.Stats{}, fmt.Errorf("frame %d: %w", s.frame, err)
	}

	var st tetmesh.Stats
	for _, m := range s.meshes {
		st.Add(m.Stats())
	}
	s.log.Debug("frame done",
		zap.Uint32("frame", s.frame),
		zap.Int("examined", st.Examined),
		zap.Int("edge_hits", st.EdgeHits),
		zap.Int("vertex_hits", st.VertexHits),
		zap.Int("adjusted", adjusted),
		zap.Int("rounds", round),
		zap.Int("finalized", st.Finalized),
		zap.Int("unsupported", st.CutsOf(tetmesh.KindUnsupported)))
	s.frame++
	return st, nil
}

// eachPartition runs fn for every partition of every mesh on the worker pool
// and waits for all of them.
func (s *Scene) eachPartition(sweep *blade.Sweep, pass uint32, fn func(*tetmesh.Partition, *tetmesh.Frame) error) error {
	var g errgroup.Group
	g.SetLimit(s.config.Workers)
	for _, m := range s.meshes {
		for i, sub := range m.Submeshes {
			f := m.Frame(i, sweep, pass)
			for _, p := range sub.Partitions {
				g.Go(func() error { return fn(p, f) })
			}
		}
	}
	return g.Wait()
}

func (s *Scene) reassign() int {
	moved := 0
	for _, m := range s.meshes {
		moved += m.Reassign()
	}
	return moved
}

// adjust runs vertex adjustment as one job per mesh.
func (s *Scene) adjust(sweep *blade.Sweep) (int, error) {
	counts := make([]int, len(s.meshes))
	var g errgroup.Group
	g.SetLimit(s.config.Workers)
	for i, m := range s.meshes {
		g.Go(func() error {
			counts[i] = m.AdjustCollidedVertices(sweep)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}
