package main

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/kerf/internal/engine/tetmesh"
)

// output gathers what a renderer would upload after each frame.
type output struct {
	positions []mgl32.Vec3
	uvs       []mgl32.Vec3
	indices   []uint32

	uploads     int
	insideTris  int
	outsideTris int
	dirtyFaces  int
}

func newOutput() *output { return &output{} }

// collect re-reads every buffer flagged dirty since the last frame.
func (o *output) collect(m *tetmesh.Mesh) {
	o.insideTris, o.outsideTris, o.dirtyFaces = 0, 0, 0
	for _, sub := range m.Submeshes {
		for _, buf := range []*tetmesh.GeometryBuffer{sub.Inside, sub.Outside} {
			if buf.Kind == tetmesh.Inside {
				o.insideTris += buf.NumTriangles()
			} else {
				o.outsideTris += buf.NumTriangles()
			}
			if !buf.TakeDirty() {
				continue
			}
			o.positions = buf.AppendPositions(o.positions[:0], m.Positions)
			o.uvs = buf.AppendUVs(o.uvs[:0], m.TexCoords, m.Rest)
			o.indices = buf.AppendIndices(o.indices[:0])
			o.uploads++
		}
		if from, to, ok := sub.DirtyFaces(); ok {
			o.dirtyFaces += to - from
		}
	}
}

func report(m *tetmesh.Mesh, st tetmesh.Stats, o *output) {
	fmt.Printf("Cells:        %d\n", m.NumCells())
	fmt.Printf("Examined:     %d\n", st.Examined)
	fmt.Printf("Edge hits:    %d\n", st.EdgeHits)
	fmt.Printf("Vertex hits:  %d\n", st.VertexHits)
	fmt.Printf("Re-examined:  %d\n", st.Reexamined)
	fmt.Printf("Finalized:    %d\n", st.Finalized)
	fmt.Println()
	fmt.Println("Cuts formed by kind:")
	for k := tetmesh.KindNone; k <= tetmesh.KindUnsupported; k++ {
		fmt.Printf("  %-12s %d\n", k, st.CutsOf(k))
	}
	fmt.Println()
	fmt.Printf("Inside slots: %d tris\n", o.insideTris)
	fmt.Printf("Outside slots: %d tris\n", o.outsideTris)
	fmt.Printf("Uploads:      %d\n", o.uploads)
	fmt.Printf("Dirty faces:  %d (last frame)\n", o.dirtyFaces)

	finished := 0
	for _, sub := range m.Submeshes {
		for _, p := range sub.Partitions {
			finished += len(p.FinishedList())
		}
	}
	fmt.Printf("Severed:      %d cells\n", finished)
}
