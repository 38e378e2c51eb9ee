package tetmesh

// Face is a boundary face of a submesh. A degenerated face has no owner and
// is not tested or drawn; the cell's cut geometry covers it instead.
type Face struct {
	Home  int32 // owning cell, never changes
	Owner int32 // Home while live, NoCell once degenerated
	Slot  uint8
}

// Live reports whether the face is still part of the boundary.
func (f *Face) Live() bool { return f.Owner != NoCell }
