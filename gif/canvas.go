package gif

const opaque = uint32(0xFF) << 24

// compositor maintains the running ARGB canvas for one composition pass and
// the snapshot needed by the restore-to-previous disposal.
type compositor struct {
	width  int
	height int
	canvas []uint32
	prev   []uint32

	background    uint32
	hasBackground bool

	lastDisposal DisposalMethod
}

func newCompositor(screen screenDescriptor, global ColorTable) *compositor {
	comp := &compositor{
		width:        int(screen.Width),
		height:       int(screen.Height),
		lastDisposal: DisposalNone,
	}
	comp.canvas = make([]uint32, comp.width*comp.height)
	comp.prev = make([]uint32, comp.width*comp.height)
	if int(screen.Background) < len(global) {
		comp.background = opaque | global[screen.Background]
		comp.hasBackground = true
	}
	return comp
}

// seed replaces the canvas with a previously composed buffer, as if frame
// had just been applied.
func (comp *compositor) seed(frame *frameDesc, argb []uint32) {
	copy(comp.canvas, argb)
	comp.lastDisposal = frame.disposal
}

// apply draws the frame's sub-rectangle onto the canvas. The snapshot for
// restore-to-previous is refreshed first, unless the prior frame itself
// disposed to previous: consecutive restores share one reference.
func (comp *compositor) apply(frame *frameDesc, indices []byte, table ColorTable) {
	if comp.lastDisposal != DisposalPrevious {
		copy(comp.prev, comp.canvas)
	}
	for y := 0; y < frame.height; y++ {
		row := (frame.top+y)*comp.width + frame.left
		src := y * frame.width
		for x := 0; x < frame.width; x++ {
			idx := int(indices[src+x])
			if idx == frame.transparent {
				continue
			}
			comp.canvas[row+x] = opaque | table[idx]
		}
	}
}

// dispose applies the frame's disposal transition after the composed canvas
// has been observed. It never fails.
func (comp *compositor) dispose(frame *frameDesc) {
	switch frame.disposal {
	case DisposalBackground:
		fill := uint32(0)
		if comp.hasBackground && !frame.localTable {
			fill = comp.background
		}
		for y := 0; y < frame.height; y++ {
			row := (frame.top+y)*comp.width + frame.left
			for x := 0; x < frame.width; x++ {
				comp.canvas[row+x] = fill
			}
		}
	case DisposalPrevious:
		for y := 0; y < frame.height; y++ {
			row := (frame.top+y)*comp.width + frame.left
			copy(comp.canvas[row:row+frame.width], comp.prev[row:row+frame.width])
		}
	}
	comp.lastDisposal = frame.disposal
}

// snapshot returns an owned copy of the current canvas.
func (comp *compositor) snapshot() []uint32 {
	argb := make([]uint32, len(comp.canvas))
	copy(argb, comp.canvas)
	return argb
}
