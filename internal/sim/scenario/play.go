package scenario

import (
	"context"

	"voxelpump.ai/internal/sim/world"
)

type Result struct {
	Ticks   int
	EndTick uint64
	Digest  string
	Pumps   int // still running at the end
}

// Play steps w for up to ticks ticks (Scenario.Ticks when ticks <= 0),
// firing timeline levers at the start of their tick. With StopWhenIdle the
// run ends early once the timeline is spent and no pump is running.
func Play(ctx context.Context, w *world.World, s *Scenario, ticks int) (Result, error) {
	if ticks <= 0 {
		ticks = s.Ticks
	}
	levers := s.Levers()
	last := s.lastEvent()

	var res Result
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		off := uint64(i)
		if s.StopWhenIdle && off > last && len(w.Pumps()) == 0 {
			break
		}
		w.ApplyLevers(levers[off])
		w.Step()
		res.Ticks++
	}
	res.EndTick = w.CurrentTick()
	if res.EndTick > 0 {
		res.Digest = w.StateDigest(res.EndTick - 1)
	}
	res.Pumps = len(w.Pumps())
	return res, nil
}
