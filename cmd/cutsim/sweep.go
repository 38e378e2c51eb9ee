package main

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/kerf/internal/config"
	"github.com/Faultbox/kerf/internal/engine/blade"
)

var errZeroNormal = errors.New("blade normal is zero")

// sweepPath moves a single blade edge across the block in its cut plane. The
// edge lies along axis and travels along dir, starting one block diagonal
// before the plane point so the first frames approach from outside.
type sweepPath struct {
	origin mgl32.Vec3
	axis   mgl32.Vec3
	dir    mgl32.Vec3
	half   float32
	step   float32
	blade  *blade.Blade
}

func newSweepPath(cfg *config.Config) (*sweepPath, error) {
	n := mgl32.Vec3(cfg.Blade.Normal)
	if n.Len() == 0 {
		return nil, errZeroNormal
	}
	n = n.Normalize()

	m := cfg.Mesh
	extent := mgl32.Vec3{float32(m.NX), float32(m.NY), float32(m.NZ)}.Mul(m.Size)
	center := extent.Mul(0.5).Add(n.Mul(cfg.Blade.Offset))

	up := mgl32.Vec3{0, 1, 0}
	if abs(n.Dot(up)) > 0.9 {
		up = mgl32.Vec3{1, 0, 0}
	}
	axis := up.Cross(n).Normalize()
	dir := n.Cross(axis)

	half := extent.Len()
	p := &sweepPath{
		origin: center.Sub(dir.Mul(half)),
		axis:   axis,
		dir:    dir,
		half:   half,
		step:   cfg.Blade.Step,
	}
	b, err := blade.New(p.At(0), [][2]int32{{0, 1}})
	if err != nil {
		return nil, err
	}
	p.blade = b
	return p, nil
}

// At returns the blade vertices at frame f.
func (p *sweepPath) At(f int) []mgl32.Vec3 {
	c := p.origin.Add(p.dir.Mul(p.step * float32(f)))
	return []mgl32.Vec3{c.Sub(p.axis.Mul(p.half)), c.Add(p.axis.Mul(p.half))}
}

// Blade returns the blade resting at frame 0.
func (p *sweepPath) Blade() *blade.Blade { return p.blade }

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
