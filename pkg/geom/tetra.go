package geom

import "github.com/go-gl/mathgl/mgl32"

// SignedVolume returns the signed volume of tetrahedron abcd. It is positive
// when d lies on the side of abc that its counter-clockwise normal points to.
func SignedVolume(a, b, c, d mgl32.Vec3) float32 {
	return b.Sub(a).Cross(c.Sub(a)).Dot(d.Sub(a)) / 6
}

// TetraBarycentric returns the barycentric weights of p with respect to the
// four corners. The weights always sum to 1; ok is false for a degenerate
// tetrahedron, in which case the weights are uniform.
func TetraBarycentric(p mgl32.Vec3, v [4]mgl32.Vec3) (w [4]float32, ok bool) {
	vol := SignedVolume(v[0], v[1], v[2], v[3])
	if abs32(vol) < Epsilon*Epsilon*Epsilon {
		return [4]float32{0.25, 0.25, 0.25, 0.25}, false
	}
	inv := 1 / vol
	w[0] = SignedVolume(p, v[1], v[2], v[3]) * inv
	w[1] = SignedVolume(v[0], p, v[2], v[3]) * inv
	w[2] = SignedVolume(v[0], v[1], p, v[3]) * inv
	w[3] = 1 - w[0] - w[1] - w[2]
	return w, true
}

// Interpolate returns the weighted sum of the four points.
func Interpolate(w [4]float32, v [4]mgl32.Vec3) mgl32.Vec3 {
	return v[0].Mul(w[0]).Add(v[1].Mul(w[1])).Add(v[2].Mul(w[2])).Add(v[3].Mul(w[3]))
}
