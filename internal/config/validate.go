package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Validate reports the first setting the engine cannot run with.
func (c *Config) Validate() error {
	e, m, b := c.Engine, c.Mesh, c.Blade
	switch {
	case e.Workers < 0:
		return fmt.Errorf("engine.workers %d: %w", e.Workers, ErrInvalid)
	case e.Partitions < 1:
		return fmt.Errorf("engine.partitions %d: %w", e.Partitions, ErrInvalid)
	case e.PropagationRounds < 0:
		return fmt.Errorf("engine.propagation_rounds %d: %w", e.PropagationRounds, ErrInvalid)
	case e.BufferSlots < 1:
		return fmt.Errorf("engine.buffer_slots %d: %w", e.BufferSlots, ErrInvalid)
	case e.CutDistance < 0 || e.CutDistance >= 0.5:
		return fmt.Errorf("engine.cut_distance %g not in [0, 0.5): %w", e.CutDistance, ErrInvalid)
	case e.AdjustFraction <= 0 || e.AdjustFraction >= 1:
		return fmt.Errorf("engine.adjust_fraction %g not in (0, 1): %w", e.AdjustFraction, ErrInvalid)
	case e.ParallelTolerance < 0 || e.ParallelTolerance >= 1:
		return fmt.Errorf("engine.parallel_tolerance %g not in [0, 1): %w", e.ParallelTolerance, ErrInvalid)
	case e.CoincidentTolerance < 0:
		return fmt.Errorf("engine.coincident_tolerance %g: %w", e.CoincidentTolerance, ErrInvalid)
	case m.NX < 1 || m.NY < 1 || m.NZ < 1:
		return fmt.Errorf("mesh size %dx%dx%d: %w", m.NX, m.NY, m.NZ, ErrInvalid)
	case m.Size <= 0:
		return fmt.Errorf("mesh.size %g: %w", m.Size, ErrInvalid)
	case m.Submeshes < 1 || m.Submeshes > m.NX:
		return fmt.Errorf("mesh.submeshes %d not in [1, %d]: %w", m.Submeshes, m.NX, ErrInvalid)
	case b.Frames < 0:
		return fmt.Errorf("blade.frames %d: %w", b.Frames, ErrInvalid)
	case b.Step <= 0:
		return fmt.Errorf("blade.step %g: %w", b.Step, ErrInvalid)
	case b.Normal == [3]float32{}:
		return fmt.Errorf("blade.normal is zero: %w", ErrInvalid)
	}
	return nil
}
