package tetmesh

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/kerf/internal/engine/topology"
)

func TestCutCases_Counts(t *testing.T) {
	counts := map[CutKind]int{}
	for mask := 0; mask < 64; mask++ {
		counts[KindOf(uint8(mask))]++
	}
	assert.Equal(t, 1, counts[KindNone])
	assert.Equal(t, 6, counts[KindOneEdge])
	assert.Equal(t, 12, counts[KindTwoEdges])
	assert.Equal(t, 4, counts[KindCorner])
	assert.Equal(t, 3, counts[KindSplit])
	assert.Equal(t, 38, counts[KindUnsupported])
}

func TestCutCases_Permutations(t *testing.T) {
	for mask := 0; mask < 64; mask++ {
		cs := cutCases[mask]
		if cs.kind == KindNone || cs.kind == KindUnsupported {
			continue
		}
		seen := 0
		for _, v := range cs.perm {
			seen |= 1 << v
		}
		assert.Equal(t, 0xf, seen, "mask %06b perm %v", mask, cs.perm)

		cut := func(a, b int) bool { return mask&(1<<edgeIndex[cs.perm[a]][cs.perm[b]]) != 0 }
		switch cs.kind {
		case KindOneEdge:
			assert.True(t, cut(0, 1))
		case KindTwoEdges:
			assert.True(t, cut(0, 1) && cut(0, 2))
		case KindCorner:
			assert.True(t, cut(0, 1) && cut(0, 2) && cut(0, 3))
		case KindSplit:
			assert.False(t, cut(0, 1) || cut(2, 3))
			assert.True(t, cut(0, 2) && cut(0, 3) && cut(1, 2) && cut(1, 3))
		}
	}
}

func TestCutCases_Examples(t *testing.T) {
	bit := func(a, b int) uint8 { return 1 << edgeIndex[a][b] }
	assert.Equal(t, KindCorner, KindOf(bit(0, 1)|bit(0, 2)|bit(0, 3)))
	assert.Equal(t, KindUnsupported, KindOf(bit(0, 1)|bit(2, 3)), "opposite edges")
	assert.Equal(t, KindUnsupported, KindOf(bit(0, 1)|bit(1, 2)|bit(0, 2)), "face loop")
	assert.Equal(t, KindSplit, KindOf(bit(0, 2)|bit(0, 3)|bit(1, 2)|bit(1, 3)))
	assert.Equal(t, KindUnsupported, KindOf(0x3f))
	assert.Len(t, topology.EdgeVertices, 6)
}

func TestFlags_ResetKeepsFinalized(t *testing.T) {
	var f Flags
	f.Set(VertexHit(2) | Collided | Contact | Examined | Finalized)
	assert.True(t, f.Has(VertexHit2))
	f.Reset()
	assert.Equal(t, Finalized, f)

	f.Clear(Finalized)
	assert.Equal(t, Flags(0), f)
}
