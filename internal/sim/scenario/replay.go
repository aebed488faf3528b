package scenario

import (
	"fmt"

	"voxelpump.ai/internal/sim/world"
)

// Replayer feeds logged ticks back into a world and checks that every tick
// lands on the logged digest.
type Replayer struct {
	w *world.World

	Checked int
	Skipped int // entries older than the world's tick
}

func NewReplayer(w *world.World) *Replayer { return &Replayer{w: w} }

func (r *Replayer) Apply(e world.TickLogEntry) error {
	now := r.w.CurrentTick()
	if e.Tick < now {
		r.Skipped++
		return nil
	}
	if e.Tick != now {
		return fmt.Errorf("tick gap: want=%d got=%d", now, e.Tick)
	}
	acts := make([]world.LeverAction, 0, len(e.Levers))
	for _, rec := range e.Levers {
		a, err := rec.Action()
		if err != nil {
			return fmt.Errorf("tick %d: %w", e.Tick, err)
		}
		acts = append(acts, a)
	}
	r.w.ApplyLevers(acts)
	r.w.Step()
	if got := r.w.StateDigest(e.Tick); got != e.Digest {
		return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", e.Tick, got, e.Digest)
	}
	r.Checked++
	return nil
}
