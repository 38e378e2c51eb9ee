// Package geom provides the geometric predicates used by the cutting engine:
// point/segment/triangle collision tests, bounding boxes, tetrahedron
// barycentrics and Morton ordering.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon is the tolerance used by every predicate in this package.
const Epsilon float32 = 1e-5

// Special eu values returned by LineTriCollide for coplanar segments.
const (
	EuCoplanar     float32 = 2 // segment lies in the plane and overlaps the triangle
	EuCoplanarEdge float32 = 3 // segment lies in the plane and only crosses an edge
)

// Triangle is three corners in counter-clockwise order.
type Triangle [3]mgl32.Vec3

// Normal returns the unit normal, or the zero vector for a degenerate triangle.
func (t Triangle) Normal() mgl32.Vec3 {
	n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
	l := n.Len()
	if l < Epsilon*Epsilon {
		return mgl32.Vec3{}
	}
	return n.Mul(1 / l)
}

// Bounds returns the axis-aligned box around the triangle.
func (t Triangle) Bounds() AABB {
	b := EmptyAABB()
	b.Extend(t[0])
	b.Extend(t[1])
	b.Extend(t[2])
	return b
}

// PointInTriangle reports whether p lies inside triangle abc. When planeTest
// is set, points farther than Epsilon from the triangle's plane are rejected
// first; n must then be the unit normal.
func PointInTriangle(p, a, b, c, n mgl32.Vec3, planeTest bool) bool {
	if planeTest {
		if abs32(n.Dot(p.Sub(a))) > Epsilon {
			return false
		}
	}

	v0 := c.Sub(a)
	v1 := b.Sub(a)
	v2 := p.Sub(a)

	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d02 := v0.Dot(v2)
	d11 := v1.Dot(v1)
	d12 := v1.Dot(v2)

	denom := d00*d11 - d01*d01
	if abs32(denom) < Epsilon*Epsilon {
		return false
	}
	inv := 1 / denom
	u := (d11*d02 - d01*d12) * inv
	v := (d00*d12 - d01*d02) * inv

	return u >= -Epsilon && v >= -Epsilon && u+v <= 1+Epsilon
}

// LineTriCollide tests the segment p0-p1 against triangle abc with unit
// normal n. On a crossing, eu is the parametric position of the hit along the
// segment measured from p0, clamped to [0,1]. Coplanar segments report
// EuCoplanar or EuCoplanarEdge instead.
func LineTriCollide(p0, p1, a, b, c, n mgl32.Vec3) (eu float32, hit bool) {
	d0 := n.Dot(p0.Sub(a))
	d1 := n.Dot(p1.Sub(a))

	if abs32(d0) <= Epsilon && abs32(d1) <= Epsilon {
		return coplanarSegment(p0, p1, a, b, c, n)
	}
	if (d0 > Epsilon && d1 > Epsilon) || (d0 < -Epsilon && d1 < -Epsilon) {
		return 0, false
	}

	t := d0 / (d0 - d1)
	if t < -Epsilon || t > 1+Epsilon {
		return 0, false
	}
	t = clamp01(t)

	q := p0.Add(p1.Sub(p0).Mul(t))
	if !PointInTriangle(q, a, b, c, n, false) {
		return 0, false
	}
	return t, true
}

func coplanarSegment(p0, p1, a, b, c, n mgl32.Vec3) (float32, bool) {
	if PointInTriangle(p0, a, b, c, n, false) || PointInTriangle(p1, a, b, c, n, false) {
		return EuCoplanar, true
	}
	if segmentsTouch(p0, p1, a, b) || segmentsTouch(p0, p1, b, c) || segmentsTouch(p0, p1, c, a) {
		return EuCoplanarEdge, true
	}
	return 0, false
}

// segmentsTouch reports whether segments p0-p1 and q0-q1 pass within
// Epsilon of each other.
func segmentsTouch(p0, p1, q0, q1 mgl32.Vec3) bool {
	return SegmentDistance(p0, p1, q0, q1) <= Epsilon
}

// SegmentDistance returns the closest distance between two segments.
func SegmentDistance(p0, p1, q0, q1 mgl32.Vec3) float32 {
	d1 := p1.Sub(p0)
	d2 := q1.Sub(q0)
	r := p0.Sub(q0)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	var s, t float32
	switch {
	case a <= Epsilon*Epsilon && e <= Epsilon*Epsilon:
		return r.Len()
	case a <= Epsilon*Epsilon:
		t = clamp01(f / e)
	default:
		c := d1.Dot(r)
		if e <= Epsilon*Epsilon {
			s = clamp01(-c / a)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom != 0 {
				s = clamp01((b*f - c*e) / denom)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = clamp01(-c / a)
			} else if t > 1 {
				t = 1
				s = clamp01((b - c) / a)
			}
		}
	}

	c1 := p0.Add(d1.Mul(s))
	c2 := q0.Add(d2.Mul(t))
	return c1.Sub(c2).Len()
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
