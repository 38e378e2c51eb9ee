package topology

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// kuhn lists the axis orders of the six tetrahedra of a cube split along its
// main diagonal. Every cube uses the same split, so neighboring cubes share
// matching face diagonals.
var kuhn = [6][3]int{
	{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
}

// Block generates an nx*ny*nz grid of cubes of the given edge size, each
// split into six tetrahedra, with the origin at the minimum corner. Cube
// columns are split along X into the requested number of submeshes.
func Block(nx, ny, nz int, size float32, submeshes int) (*Topology, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 || size <= 0 {
		return nil, fmt.Errorf("block %dx%dx%d size %v: %w", nx, ny, nz, size, ErrBadCount)
	}
	if submeshes <= 0 || submeshes > nx {
		return nil, fmt.Errorf("%d submeshes for %d columns: %w", submeshes, nx, ErrBadCount)
	}

	vid := func(x, y, z int) int32 {
		return int32((z*(ny+1)+y)*(nx+1) + x)
	}

	n := (nx + 1) * (ny + 1) * (nz + 1)
	positions := make([]mgl32.Vec3, 0, n)
	texcoords := make([]mgl32.Vec2, 0, n)
	for z := 0; z <= nz; z++ {
		for y := 0; y <= ny; y++ {
			for x := 0; x <= nx; x++ {
				positions = append(positions, mgl32.Vec3{float32(x) * size, float32(y) * size, float32(z) * size})
				texcoords = append(texcoords, mgl32.Vec2{
					float32(x) / float32(nx),
					float32(y+z) / float32(ny+nz),
				})
			}
		}
	}

	tets := make([][][4]int32, submeshes)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				s := x * submeshes / nx
				for _, order := range kuhn {
					c := [3]int{x, y, z}
					var tet [4]int32
					tet[0] = vid(c[0], c[1], c[2])
					for k, axis := range order {
						c[axis]++
						tet[k+1] = vid(c[0], c[1], c[2])
					}
					tets[s] = append(tets[s], tet)
				}
			}
		}
	}

	return Build(positions, texcoords, tets)
}
