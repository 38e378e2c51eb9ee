package geom

import "github.com/go-gl/mathgl/mgl32"

// TriTriCollide reports whether two triangles touch or overlap.
func TriTriCollide(a, b Triangle) bool {
	na, nb := a.Normal(), b.Normal()
	if na == (mgl32.Vec3{}) || nb == (mgl32.Vec3{}) {
		return false
	}

	da, sepA := planeDistances(a, b[0], nb)
	if sepA {
		return false
	}
	db, sepB := planeDistances(b, a[0], na)
	if sepB {
		return false
	}

	if da == ([3]float32{}) || db == ([3]float32{}) {
		return coplanarOverlap(a, b, na)
	}

	_, _, ok := overlapOnLine(a, b, da, db, na, nb)
	return ok
}

// TriTriIntersect returns the end points of the segment along which two
// triangles intersect. Coplanar triangles have no unique segment and report
// ok=false.
func TriTriIntersect(a, b Triangle) (p, q mgl32.Vec3, ok bool) {
	na, nb := a.Normal(), b.Normal()
	if na == (mgl32.Vec3{}) || nb == (mgl32.Vec3{}) {
		return p, q, false
	}

	da, sepA := planeDistances(a, b[0], nb)
	if sepA {
		return p, q, false
	}
	db, sepB := planeDistances(b, a[0], na)
	if sepB {
		return p, q, false
	}
	if da == ([3]float32{}) || db == ([3]float32{}) {
		return p, q, false
	}

	return overlapOnLine(a, b, da, db, na, nb)
}

// planeDistances returns the signed distances of t's corners to the plane
// through origin with unit normal n, snapping values within Epsilon to zero.
// separated is true when all three corners are strictly on one side.
func planeDistances(t Triangle, origin, n mgl32.Vec3) (d [3]float32, separated bool) {
	for i := range t {
		v := n.Dot(t[i].Sub(origin))
		if abs32(v) <= Epsilon {
			v = 0
		}
		d[i] = v
	}
	if d[0] > 0 && d[1] > 0 && d[2] > 0 {
		return d, true
	}
	if d[0] < 0 && d[1] < 0 && d[2] < 0 {
		return d, true
	}
	return d, false
}

// overlapOnLine intersects each triangle with the other's plane and overlaps
// the two resulting intervals along the common line.
func overlapOnLine(a, b Triangle, da, db [3]float32, na, nb mgl32.Vec3) (p, q mgl32.Vec3, ok bool) {
	a0, a1, okA := computeIntersection(a, da)
	b0, b1, okB := computeIntersection(b, db)
	if !okA || !okB {
		return p, q, false
	}

	dir := na.Cross(nb)
	ta0, ta1 := dir.Dot(a0), dir.Dot(a1)
	if ta0 > ta1 {
		ta0, ta1 = ta1, ta0
		a0, a1 = a1, a0
	}
	tb0, tb1 := dir.Dot(b0), dir.Dot(b1)
	if tb0 > tb1 {
		tb0, tb1 = tb1, tb0
		b0, b1 = b1, b0
	}

	if ta1 < tb0-Epsilon || tb1 < ta0-Epsilon {
		return p, q, false
	}

	p = a0
	if tb0 > ta0 {
		p = b0
	}
	q = a1
	if tb1 < ta1 {
		q = b1
	}
	return p, q, true
}

// computeIntersection returns the two points where triangle t crosses the
// plane whose signed corner distances are d. The isolated corner (the one on
// its own side of the plane) decides which pair of edges is used.
func computeIntersection(t Triangle, d [3]float32) (p, q mgl32.Vec3, ok bool) {
	var iso, j, k int
	switch {
	case d[0]*d[1] > 0:
		iso, j, k = 2, 0, 1
	case d[0]*d[2] > 0:
		iso, j, k = 1, 0, 2
	case d[1]*d[2] > 0 || d[0] != 0:
		iso, j, k = 0, 1, 2
	case d[1] != 0:
		iso, j, k = 1, 0, 2
	case d[2] != 0:
		iso, j, k = 2, 0, 1
	default:
		return p, q, false
	}
	return edgePoint(t[iso], t[j], d[iso], d[j]), edgePoint(t[iso], t[k], d[iso], d[k]), true
}

func edgePoint(from, to mgl32.Vec3, df, dt float32) mgl32.Vec3 {
	den := df - dt
	if den == 0 {
		return from
	}
	return from.Add(to.Sub(from).Mul(df / den))
}

// coplanarOverlap handles triangles lying in the same plane.
func coplanarOverlap(a, b Triangle, n mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if segmentsTouch(a[i], a[(i+1)%3], b[j], b[(j+1)%3]) {
				return true
			}
		}
	}
	nb := b.Normal()
	for i := range a {
		if PointInTriangle(a[i], b[0], b[1], b[2], nb, false) {
			return true
		}
	}
	for i := range b {
		if PointInTriangle(b[i], a[0], a[1], a[2], n, false) {
			return true
		}
	}
	return false
}
