package geom

import "github.com/go-gl/mathgl/mgl32"

// MortonBits is the per-axis resolution used by MortonKey.
const MortonBits = 10

func expand3(v uint32) uint32 {
	v = (v | (v << 16)) & 0xFF0000FF
	v = (v | (v << 8)) & 0x0F00F00F
	v = (v | (v << 4)) & 0xC30C30C3
	v = (v | (v << 2)) & 0x49249249
	return v
}

// Morton3 interleaves the low 10 bits of x, y and z.
func Morton3(x, y, z uint32) uint32 {
	return expand3(x) | (expand3(y) << 1) | (expand3(z) << 2)
}

// MortonKey quantizes p inside bounds to MortonBits per axis and returns its
// Morton code. Points outside the box are clamped to it.
func MortonKey(p mgl32.Vec3, bounds AABB) uint32 {
	const cells = 1 << MortonBits
	size := bounds.Size()
	var q [3]uint32
	for i := 0; i < 3; i++ {
		if size[i] <= 0 {
			continue
		}
		f := (p[i] - bounds.Min[i]) / size[i]
		c := int(f * cells)
		if c < 0 {
			c = 0
		}
		if c >= cells {
			c = cells - 1
		}
		q[i] = uint32(c)
	}
	return Morton3(q[0], q[1], q[2])
}
