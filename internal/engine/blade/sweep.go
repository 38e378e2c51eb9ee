package blade

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/kerf/pkg/geom"
)

// Direction tells which half of a blade edge's swept quad a triangle covers.
type Direction uint8

const (
	Forward  Direction = iota // (prev_i, cur_i, cur_j)
	Backward                  // (prev_i, cur_j, prev_j)
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// Tri is one swept triangle with its unit normal and bounds.
type Tri struct {
	geom.Triangle
	Normal    mgl32.Vec3
	Bounds    geom.AABB
	Edge      int
	Direction Direction
}

// Sweep is the surface covered by the blade between two frames.
type Sweep struct {
	Tris   []Tri
	Bounds geom.AABB
}

// Sweep derives the swept triangles for the current frame. Triangles that
// collapse because the edge did not move are skipped.
func (b *Blade) Sweep() *Sweep {
	s := &Sweep{
		Tris:   make([]Tri, 0, 2*len(b.Edges)),
		Bounds: geom.EmptyAABB(),
	}
	for k, e := range b.Edges {
		pi, pj := b.prev[e[0]], b.prev[e[1]]
		ci, cj := b.cur[e[0]], b.cur[e[1]]
		s.add(geom.Triangle{pi, ci, cj}, k, Forward)
		s.add(geom.Triangle{pi, cj, pj}, k, Backward)
	}
	return s
}

func (s *Sweep) add(t geom.Triangle, edge int, dir Direction) {
	n := t.Normal()
	if n == (mgl32.Vec3{}) {
		return
	}
	bounds := t.Bounds()
	s.Tris = append(s.Tris, Tri{Triangle: t, Normal: n, Bounds: bounds, Edge: edge, Direction: dir})
	s.Bounds = s.Bounds.Union(bounds)
}

// Empty reports whether the blade swept no area this frame.
func (s *Sweep) Empty() bool { return len(s.Tris) == 0 }

// Containing returns the indices of the triangles that contain p.
func (s *Sweep) Containing(p mgl32.Vec3, dst []int) []int {
	dst = dst[:0]
	for i := range s.Tris {
		t := &s.Tris[i]
		if !t.Bounds.Expand(geom.Epsilon).Contains(p) {
			continue
		}
		if geom.PointInTriangle(p, t.Triangle[0], t.Triangle[1], t.Triangle[2], t.Normal, true) {
			dst = append(dst, i)
		}
	}
	return dst
}

// Crossing returns the parameter at which segment p0-p1 first crosses the
// sweep, in triangle order. Coplanar contacts are not crossings.
func (s *Sweep) Crossing(p0, p1 mgl32.Vec3) (float32, bool) {
	seg := geom.NewAABB(p0, p1).Expand(geom.Epsilon)
	for i := range s.Tris {
		t := &s.Tris[i]
		if !t.Bounds.Overlaps(seg) {
			continue
		}
		eu, hit := geom.LineTriCollide(p0, p1, t.Triangle[0], t.Triangle[1], t.Triangle[2], t.Normal)
		if hit && eu <= 1 {
			return eu, true
		}
	}
	return 0, false
}

// Hits reports whether triangle t intersects any swept triangle.
func (s *Sweep) Hits(t geom.Triangle) bool {
	bounds := t.Bounds()
	if !s.Bounds.Overlaps(bounds) {
		return false
	}
	for i := range s.Tris {
		st := &s.Tris[i]
		if !st.Bounds.Overlaps(bounds) {
			continue
		}
		if geom.TriTriCollide(st.Triangle, t) {
			return true
		}
	}
	return false
}
