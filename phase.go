package gradblend

// Phase is the direction of one relaxation sweep. Successive steps cycle
// through the four phases in declaration order.
type Phase int

const (
	LeftToRight Phase = iota
	TopToBottom
	RightToLeft
	BottomToTop
)

// PhaseOf returns the phase of the given step index.
func PhaseOf(step int) Phase {
	return Phase(step & 3)
}

// Next returns the phase that follows p.
func (p Phase) Next() Phase {
	return (p + 1) & 3
}

// Horizontal reports whether p sweeps along rows, reading grad_x.
func (p Phase) Horizontal() bool {
	return p == LeftToRight || p == RightToLeft
}

func (p Phase) String() string {
	switch p {
	case LeftToRight:
		return "left-to-right"
	case TopToBottom:
		return "top-to-bottom"
	case RightToLeft:
		return "right-to-left"
	case BottomToTop:
		return "bottom-to-top"
	default:
		return "invalid"
	}
}
