package tetmesh

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/kerf/internal/engine/topology"
	"github.com/Faultbox/kerf/internal/logger"
	"github.com/Faultbox/kerf/pkg/geom"
)

const noKey = 0xffff

// Cut is the synthesized geometry of one cell. Spans are claimed the first
// time the cell reaches a layout and rewritten in place afterwards.
type Cut struct {
	Cell      int32
	Mask      uint8
	Kind      CutKind
	Inside    Alloc
	Outside   Alloc
	Center    [4]float32 // fan center of corner and split cuts
	HasCenter bool

	key uint16 // mask plus degenerated external faces
}

func (p *Partition) cutFor(cell *Cell, c int32) *Cut {
	if cell.Cut >= 0 {
		return &p.cuts[cell.Cut]
	}
	fresh := Cut{Cell: c, key: noKey}
	if n := len(p.freeCuts); n > 0 {
		cell.Cut = p.freeCuts[n-1]
		p.freeCuts = p.freeCuts[:n-1]
		p.cuts[cell.Cut] = fresh
	} else {
		cell.Cut = int32(len(p.cuts))
		p.cuts = append(p.cuts, fresh)
	}
	return &p.cuts[cell.Cut]
}

func (p *Partition) releaseCut(f *Frame, cell *Cell) error {
	cut := &p.cuts[cell.Cut]
	err := errors.Join(f.Submesh.Inside.Free(cut.Inside), f.Submesh.Outside.Free(cut.Outside))
	*cut = Cut{Cell: NoCell}
	p.freeCuts = append(p.freeCuts, cell.Cut)
	cell.Cut = -1
	return err
}

// formFaces synthesizes the cut geometry of cell c from its edge mask and
// reports whether the cell is now severed. contact tells whether the blade
// still touches the cell this frame.
func (p *Partition) formFaces(f *Frame, c int32, contact bool) (bool, error) {
	sub := f.Submesh
	cell := &sub.Cells[c]
	mask := sub.edgeMask(cell)
	cs := cutCases[mask]
	p.stats.Cuts[cs.kind]++

	switch cs.kind {
	case KindUnsupported:
		logger.Debug("unsupported cut mask",
			zap.Int32("submesh", sub.Index),
			zap.Int32("cell", c),
			zap.Uint8("mask", mask))
		return false, nil
	case KindNone:
		return false, p.uncut(f, cell, contact)
	}

	pos := corners(f, cell)
	cut := p.cutFor(cell, c)
	p.in.reset()
	p.out.reset()

	severed := false
	switch cs.kind {
	case KindOneEdge:
		p.cutOneEdge(f, cell, pos, cs.perm)
	case KindTwoEdges:
		p.cutTwoEdges(f, cell, pos, cs.perm)
	case KindCorner:
		severed = p.cutCorner(f, cell, cut, pos, cs.perm, contact)
	case KindSplit:
		severed = p.cutSplit(f, cell, cut, pos, cs.perm, contact)
	}
	p.outsideFaces(f, cell, pos, mask)

	if err := p.commit(f, c, cell, cut, layoutKey(sub, cell, mask), pos); err != nil {
		return false, err
	}
	cut.Mask = mask
	cut.Kind = cs.kind
	return severed, nil
}

// uncut drops the geometry of a cell whose edges are no longer cut and
// restores its boundary faces.
func (p *Partition) uncut(f *Frame, cell *Cell, contact bool) error {
	for _, fi := range cell.Faces {
		if fi >= 0 {
			p.restoreFace(f, fi)
		}
	}
	var err error
	if cell.Cut >= 0 {
		err = p.releaseCut(f, cell)
	}
	if !contact {
		cell.List = NotListed
	}
	return err
}

func layoutKey(sub *Submesh, cell *Cell, mask uint8) uint16 {
	key := uint16(mask)
	for slot, fi := range cell.Faces {
		if fi >= 0 && cell.IsExternal(slot) && !sub.Faces[fi].Live() {
			key |= 1 << (6 + slot)
		}
	}
	return key
}

func (p *Partition) commit(f *Frame, c int32, cell *Cell, cut *Cut, key uint16, pos [4]mgl32.Vec3) error {
	sub := f.Submesh
	changed := cut.key != key
	if err := fit(sub.Inside, &cut.Inside, &p.in, changed); err != nil {
		return err
	}
	if err := fit(sub.Outside, &cut.Outside, &p.out, changed); err != nil {
		return err
	}
	cut.key = key
	p.in.write(f, sub.Inside, cut.Inside, c, cell, pos)
	p.out.write(f, sub.Outside, cut.Outside, c, cell, pos)
	return nil
}

// fit makes sure a holds spans of the built size, reallocating on a layout
// change.
func fit(buf *GeometryBuffer, a *Alloc, b *builder, changed bool) error {
	if !changed && int(a.Verts.Len) == len(b.verts) && int(a.Tris.Len) == len(b.tris) {
		return nil
	}
	old := *a
	*a = Alloc{}
	if err := buf.Free(old); err != nil {
		return err
	}
	na, err := buf.Allocate(len(b.verts), len(b.tris))
	if err != nil {
		return err
	}
	*a = na
	return nil
}

// localU returns the cut parameter of the edge between local vertices a and
// b, measured from a.
func localU(f *Frame, cell *Cell, a, b int) float32 {
	e := &f.Submesh.Edges[cell.Edges[edgeIndex[a][b]]]
	return e.UFrom(cell.Vertices[a])
}

// kerf returns the weights of the two kerf points on edge a-b, on a's side
// and on b's side, and of the true crossing.
func kerf(f *Frame, cell *Cell, a, b int) (near, far, cross [4]float32) {
	u := localU(f, cell, a, b)
	d := f.Params.CutDistance
	return edgeWeights(a, b, clamp01(u-d)), edgeWeights(a, b, clamp01(u+d)), edgeWeights(a, b, u)
}

func (p *Partition) cutOneEdge(f *Frame, cell *Cell, pos [4]mgl32.Vec3, q [4]int) {
	a, b, c, d := q[0], q[1], q[2], q[3]
	wa, wb, _ := kerf(f, cell, a, b)
	ka := p.in.vertex(wa)
	kb := p.in.vertex(wb)
	p.in.tri(ka, corner(c), corner(d), pos[a])
	p.in.tri(kb, corner(d), corner(c), pos[b])
}

func (p *Partition) cutTwoEdges(f *Frame, cell *Cell, pos [4]mgl32.Vec3, q [4]int) {
	v, x, y, d := q[0], q[1], q[2], q[3]
	nx, fx, _ := kerf(f, cell, v, x)
	ny, fy, _ := kerf(f, cell, v, y)
	p1v, p2v := p.in.vertex(nx), p.in.vertex(ny)
	p1f, p2f := p.in.vertex(fx), p.in.vertex(fy)
	p.in.tri(p1v, p2v, corner(d), pos[v])
	p.in.tri(p1f, p2f, corner(d), meanPoint(pos[x], pos[y]))
}

func (p *Partition) cutCorner(f *Frame, cell *Cell, cut *Cut, pos [4]mgl32.Vec3, q [4]int, contact bool) bool {
	v := q[0]
	var near, far, cross [3][4]float32
	for i := 0; i < 3; i++ {
		near[i], far[i], cross[i] = kerf(f, cell, v, q[i+1])
	}
	p.fan(f, cut, pos, near[:], far[:], cross[:], pos[v], meanPoint(pos[q[1]], pos[q[2]], pos[q[3]]), contact)
	return !contact
}

// cutSplit separates {a,b} from {c,d}. The four crossings are visited in
// polygon order ac, ad, bd, bc.
func (p *Partition) cutSplit(f *Frame, cell *Cell, cut *Cut, pos [4]mgl32.Vec3, q [4]int, contact bool) bool {
	a, b, c, d := q[0], q[1], q[2], q[3]
	loop := [4][2]int{{a, c}, {a, d}, {b, d}, {b, c}}
	var near, far, cross [4][4]float32
	for i, e := range loop {
		near[i], far[i], cross[i] = kerf(f, cell, e[0], e[1])
	}
	p.fan(f, cut, pos, near[:], far[:], cross[:], meanPoint(pos[a], pos[b]), meanPoint(pos[c], pos[d]), contact)
	return !contact
}

// fan emits one triangle fan per side of a cut polygon, each around the
// shared center shifted by the side's kerf offset.
func (p *Partition) fan(f *Frame, cut *Cut, pos [4]mgl32.Vec3, near, far, cross [][4]float32, awayNear, awayFar mgl32.Vec3, contact bool) {
	center := p.locateCenter(f, cut, pos, cross, contact)
	mc := meanWeights(cross...)
	cn := p.in.vertex(shift(center, meanWeights(near...), mc))
	cf := p.in.vertex(shift(center, meanWeights(far...), mc))

	n := len(cross)
	vn := make([]vref, n)
	vf := make([]vref, n)
	for i := 0; i < n; i++ {
		vn[i] = p.in.vertex(near[i])
		vf[i] = p.in.vertex(far[i])
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		p.in.tri(cn, vn[i], vn[j], awayNear)
		p.in.tri(cf, vf[i], vf[j], awayFar)
	}
}

func shift(w, side, mean [4]float32) [4]float32 {
	for i := range w {
		w[i] += side[i] - mean[i]
	}
	return w
}

// locateCenter finds where the blade passes through the cut polygon: the
// centroid of the crossings is projected along each sweep normal onto that
// sweep triangle, keeping the nearest hit. A stored center on the same plane
// is reused. Without blade contact the stored center, or else the centroid,
// is used.
func (p *Partition) locateCenter(f *Frame, cut *Cut, pos [4]mgl32.Vec3, cross [][4]float32, contact bool) [4]float32 {
	if contact {
		var g mgl32.Vec3
		for _, w := range cross {
			g = g.Add(geom.Interpolate(w, pos))
		}
		g = g.Mul(1 / float32(len(cross)))

		if q, n, ok := nearestSweepHit(f, g, pos); ok {
			if cut.HasCenter {
				old := geom.Interpolate(cut.Center, pos)
				if abs32(n.Dot(old.Sub(q))) < f.Params.CoincidentTolerance {
					return cut.Center
				}
			}
			if w, ok := geom.TetraBarycentric(q, pos); ok && insideWeights(w) {
				cut.Center, cut.HasCenter = w, true
				return w
			}
		}
	}
	if !cut.HasCenter {
		cut.Center, cut.HasCenter = meanWeights(cross...), true
	}
	return cut.Center
}

func nearestSweepHit(f *Frame, g mgl32.Vec3, pos [4]mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3, bool) {
	bounds := geom.EmptyAABB()
	for _, v := range pos {
		bounds.Extend(v)
	}
	bounds = bounds.Expand(geom.Epsilon)

	best := float32(math.MaxFloat32)
	var hit, normal mgl32.Vec3
	found := false
	for i := range f.Sweep.Tris {
		st := &f.Sweep.Tris[i]
		if !st.Bounds.Overlaps(bounds) {
			continue
		}
		ray := geom.Ray{Origin: g, Direction: st.Normal}
		t, ok := ray.IntersectPlane(st.Triangle[0], st.Normal)
		if !ok || abs32(t) >= best {
			continue
		}
		q := ray.At(t)
		if !geom.PointInTriangle(q, st.Triangle[0], st.Triangle[1], st.Triangle[2], st.Normal, false) {
			continue
		}
		best, hit, normal, found = abs32(t), q, st.Normal, true
	}
	return hit, normal, found
}

func insideWeights(w [4]float32) bool {
	for _, x := range w {
		if x < -geom.Epsilon {
			return false
		}
	}
	return true
}

// outsideFaces retriangulates the external faces of the cell around its cut
// edges. Faces with cut edges are degenerated; untouched faces that were
// degenerated by contact are re-emitted whole.
func (p *Partition) outsideFaces(f *Frame, cell *Cell, pos [4]mgl32.Vec3, mask uint8) {
	sub := f.Submesh
	for slot, fi := range cell.Faces {
		if fi < 0 || !cell.IsExternal(slot) {
			continue
		}
		fv := topology.FaceVertices[slot]
		away := pos[slot]

		var cutEdges [3][2]int
		n := 0
		for _, e := range [3][2]int{{fv[0], fv[1]}, {fv[0], fv[2]}, {fv[1], fv[2]}} {
			if mask&(1<<edgeIndex[e[0]][e[1]]) != 0 {
				cutEdges[n] = e
				n++
			}
		}

		switch n {
		case 0:
			if !sub.Faces[fi].Live() {
				p.out.tri(corner(fv[0]), corner(fv[1]), corner(fv[2]), away)
			}
		case 1:
			x, y := cutEdges[0][0], cutEdges[0][1]
			t := fv[0] + fv[1] + fv[2] - x - y
			wx, wy, _ := kerf(f, cell, x, y)
			px, py := p.out.vertex(wx), p.out.vertex(wy)
			p.out.tri(corner(x), px, corner(t), away)
			p.out.tri(py, corner(y), corner(t), away)
			p.degenerate(f, fi)
		case 2:
			apex, x, y := wedge(cutEdges[0], cutEdges[1])
			wxa, wxf, _ := kerf(f, cell, apex, x)
			wya, wyf, _ := kerf(f, cell, apex, y)
			pxa, pya := p.out.vertex(wxa), p.out.vertex(wya)
			pxf, pyf := p.out.vertex(wxf), p.out.vertex(wyf)
			p.out.tri(corner(apex), pxa, pya, away)
			p.out.tri(pxf, corner(x), corner(y), away)
			p.out.tri(pxf, corner(y), pyf, away)
			p.degenerate(f, fi)
		}
	}
}

// wedge returns the vertex shared by two edges and their far ends.
func wedge(e1, e2 [2]int) (apex, x, y int) {
	switch {
	case e1[0] == e2[0]:
		return e1[0], e1[1], e2[1]
	case e1[0] == e2[1]:
		return e1[0], e1[1], e2[0]
	case e1[1] == e2[0]:
		return e1[1], e1[0], e2[1]
	default:
		return e1[1], e1[0], e2[0]
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
