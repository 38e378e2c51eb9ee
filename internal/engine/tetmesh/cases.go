package tetmesh

import (
	"math/bits"

	"github.com/Faultbox/kerf/internal/engine/topology"
)

// CutKind classifies a cell by the set of its cut edges.
type CutKind uint8

const (
	KindNone        CutKind = iota // no cut edge
	KindOneEdge                    // one edge
	KindTwoEdges                   // two edges sharing a vertex
	KindCorner                     // three edges sharing a vertex
	KindSplit                      // four edges separating two vertex pairs
	KindUnsupported                // anything else
	numKinds
)

func (k CutKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindOneEdge:
		return "one-edge"
	case KindTwoEdges:
		return "two-edges"
	case KindCorner:
		return "corner"
	case KindSplit:
		return "split"
	default:
		return "unsupported"
	}
}

// cutCase is one entry of the configuration table. perm maps the handler's
// canonical vertex order onto the cell's local vertices:
//
//	one edge:  edge (0,1), others 2,3
//	two edges: edges (0,1) and (0,2), untouched vertex 3
//	corner:    edges (0,1), (0,2), (0,3)
//	split:     uncut edges (0,1) and (2,3)
type cutCase struct {
	kind CutKind
	perm [4]int
}

var cutCases = buildCutCases()

func buildCutCases() (table [64]cutCase) {
	for mask := range table {
		table[mask] = classify(uint8(mask))
	}
	return table
}

func classify(mask uint8) cutCase {
	unsupported := cutCase{kind: KindUnsupported}
	switch bits.OnesCount8(mask) {
	case 0:
		return cutCase{kind: KindNone}
	case 1:
		ev := topology.EdgeVertices[bits.TrailingZeros8(mask)]
		a, b := ev[0], ev[1]
		c, d := rest2(a, b)
		return cutCase{kind: KindOneEdge, perm: [4]int{a, b, c, d}}
	case 2:
		v, ok := sharedVertex(mask)
		if !ok {
			return unsupported
		}
		x, y := farEnds(mask, v)
		return cutCase{kind: KindTwoEdges, perm: [4]int{v, x[0], x[1], y}}
	case 3:
		v, ok := sharedVertex(mask)
		if !ok {
			return unsupported
		}
		p := [4]int{v}
		n := 1
		for i := 0; i < 4; i++ {
			if i != v {
				p[n] = i
				n++
			}
		}
		return cutCase{kind: KindCorner, perm: p}
	case 4:
		uncut := ^mask & 0x3f
		first := topology.EdgeVertices[bits.TrailingZeros8(uncut)]
		second := topology.EdgeVertices[7-bits.LeadingZeros8(uncut)]
		a, b := first[0], first[1]
		c, d := second[0], second[1]
		if a == c || a == d || b == c || b == d {
			return unsupported
		}
		return cutCase{kind: KindSplit, perm: [4]int{a, b, c, d}}
	}
	return unsupported
}

// sharedVertex returns the local vertex common to every edge in mask.
func sharedVertex(mask uint8) (int, bool) {
	for v := 0; v < 4; v++ {
		all := true
		for k, ev := range topology.EdgeVertices {
			if mask&(1<<k) != 0 && ev[0] != v && ev[1] != v {
				all = false
				break
			}
		}
		if all {
			return v, true
		}
	}
	return 0, false
}

// farEnds returns the far vertices of the two edges of mask at v, and the
// vertex touched by neither.
func farEnds(mask uint8, v int) ([2]int, int) {
	var far [2]int
	n := 0
	used := 1 << v
	for k, ev := range topology.EdgeVertices {
		if mask&(1<<k) == 0 {
			continue
		}
		o := ev[0]
		if o == v {
			o = ev[1]
		}
		far[n] = o
		n++
		used |= 1 << o
	}
	for i := 0; i < 4; i++ {
		if used&(1<<i) == 0 {
			return far, i
		}
	}
	return far, -1
}

// rest2 returns the two local vertices other than a and b in ascending order.
func rest2(a, b int) (int, int) {
	var out [2]int
	n := 0
	for i := 0; i < 4 && n < 2; i++ {
		if i != a && i != b {
			out[n] = i
			n++
		}
	}
	return out[0], out[1]
}

// KindOf returns the configuration handled for an edge mask.
func KindOf(mask uint8) CutKind { return cutCases[mask&0x3f].kind }
