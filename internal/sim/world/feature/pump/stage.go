package pump

// Kind tags the active stage of a pump.
type Kind uint8

const (
	KindNone Kind = iota
	KindExpand
	KindDrain
	KindFill
	KindRetract
)

func (k Kind) String() string {
	switch k {
	case KindExpand:
		return "EXPAND"
	case KindDrain:
		return "DRAIN"
	case KindFill:
		return "FILL"
	case KindRetract:
		return "RETRACT"
	}
	return "NONE"
}

// stage is the resumable state of one pump step. Only drain and fill carry
// process state.
type stage struct {
	kind Kind
	proc *process
}

// process is the shared drain/fill bookkeeping.
type process struct {
	width    int
	progress int
	total    int
	targets  []Vec3i

	// drain
	depth int

	// fill
	topLevel   []Vec3i
	depthLimit int
}

// advance runs one tick of s. ok=false terminates the pump.
func (m *Machine) advance(s stage) (next stage, ok bool) {
	switch s.kind {
	case KindExpand:
		return m.expand()
	case KindDrain, KindFill:
		return m.runProcess(s)
	case KindRetract:
		return m.retract()
	}
	return stage{}, false
}
