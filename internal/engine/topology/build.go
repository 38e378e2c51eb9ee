package topology

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/kerf/pkg/geom"
)

type faceKey [3]int32

func keyOf(a, b, c int32) faceKey {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return faceKey{a, b, c}
}

type faceSite struct {
	cell int32
	slot uint8
}

// Build derives neighbors, boundary faces and edges from per-submesh tet
// lists. Tets are reoriented to positive volume. Faces shared between
// submeshes become internal faces on both sides.
func Build(positions []mgl32.Vec3, texcoords []mgl32.Vec2, tets [][][4]int32) (*Topology, error) {
	t := &Topology{
		Positions: positions,
		TexCoords: texcoords,
		Submeshes: make([]Submesh, len(tets)),
	}

	numVerts := int32(len(positions))
	owners := make(map[faceKey]int) // face -> number of submeshes holding it
	local := make([]map[faceKey][]faceSite, len(tets))

	for s, list := range tets {
		sub := &t.Submeshes[s]
		sub.Tets = make([][4]int32, len(list))
		sub.Neighbors = make([][4]int32, len(list))
		sites := make(map[faceKey][]faceSite, 2*len(list))

		for c, tet := range list {
			for _, v := range tet {
				if v < 0 || v >= numVerts {
					return nil, fmt.Errorf("submesh %d cell %d vertex %d: %w", s, c, v, ErrIndexOutOfRange)
				}
			}
			if geom.SignedVolume(positions[tet[0]], positions[tet[1]], positions[tet[2]], positions[tet[3]]) < 0 {
				tet[1], tet[2] = tet[2], tet[1]
			}
			sub.Tets[c] = tet
			sub.Neighbors[c] = [4]int32{NoCell, NoCell, NoCell, NoCell}
			for slot, fv := range FaceVertices {
				k := keyOf(tet[fv[0]], tet[fv[1]], tet[fv[2]])
				sites[k] = append(sites[k], faceSite{cell: int32(c), slot: uint8(slot)})
			}
		}

		for k, group := range sites {
			switch len(group) {
			case 1:
				owners[k]++
			case 2:
				a, b := group[0], group[1]
				sub.Neighbors[a.cell][a.slot] = b.cell
				sub.Neighbors[b.cell][b.slot] = a.cell
			default:
				return nil, fmt.Errorf("submesh %d face %v shared by %d cells: %w", s, k, len(group), ErrInconsistent)
			}
		}
		local[s] = sites
		sub.Edges = buildEdges(sub.Tets)
	}

	for s := range t.Submeshes {
		sub := &t.Submeshes[s]
		for k, list := range local[s] {
			if len(list) != 1 {
				continue
			}
			f := t.boundaryFace(sub, list[0])
			if owners[k] > 1 {
				sub.Internal = append(sub.Internal, f)
			} else {
				sub.External = append(sub.External, f)
			}
		}
		sortFaces(sub.External)
		sortFaces(sub.Internal)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// boundaryFace winds the face so its normal points away from the opposite
// vertex.
func (t *Topology) boundaryFace(sub *Submesh, site faceSite) Face {
	tet := sub.Tets[site.cell]
	fv := FaceVertices[site.slot]
	a, b, c := tet[fv[0]], tet[fv[1]], tet[fv[2]]
	p := t.Positions
	if geom.SignedVolume(p[a], p[b], p[c], p[tet[site.slot]]) > 0 {
		b, c = c, b
	}
	return Face{Indices: [3]int32{a, b, c}, Cell: site.cell, Slot: site.slot}
}

func buildEdges(tets [][4]int32) []Edge {
	index := make(map[[2]int32]int)
	var edges []Edge
	for c, tet := range tets {
		for _, ev := range EdgeVertices {
			a, b := tet[ev[0]], tet[ev[1]]
			if a > b {
				a, b = b, a
			}
			k := [2]int32{a, b}
			i, ok := index[k]
			if !ok {
				i = len(edges)
				index[k] = i
				edges = append(edges, Edge{First: a, Second: b})
			}
			edges[i].Owners = append(edges[i].Owners, int32(c))
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].First != edges[j].First {
			return edges[i].First < edges[j].First
		}
		return edges[i].Second < edges[j].Second
	})
	return edges
}

func sortFaces(faces []Face) {
	sort.Slice(faces, func(i, j int) bool {
		if faces[i].Cell != faces[j].Cell {
			return faces[i].Cell < faces[j].Cell
		}
		return faces[i].Slot < faces[j].Slot
	})
}
