package world

import (
	"fmt"
	"sort"

	"voxelpump.ai/internal/protocol"
	"voxelpump.ai/internal/sim/world/feature/pump"
	"voxelpump.ai/internal/sim/world/logic/blueprint"
	"voxelpump.ai/internal/sim/world/logic/ids"
)

type pumpRun struct {
	m     *pump.Machine
	owner string
	due   uint64
	since uint64
}

func (w *World) pumpEnv(owner string) pump.Env {
	return pump.Env{
		Grid:      grid{w: w, actor: owner, reason: "PUMP"},
		Authority: authority{w: w},
		Furnace:   w.pumpFurnace,
		Audit: func(action string, pos Vec3i, reason string, details map[string]any) {
			w.auditEvent(w.CurrentTick(), owner, action, pos, reason, details)
		},
	}
}

// UseLever handles an agent using the lever on the given face of anchor.
// A running pump at anchor gets the lever; otherwise the structure is
// detected and a new pump starts on the next tick. handled reports whether
// a pump consumed the use.
func (w *World) UseLever(agentID string, anchor Vec3i, face blueprint.Face) (handled bool, err error) {
	a := w.agents[agentID]
	if a == nil {
		return false, fmt.Errorf("unknown agent %q", agentID)
	}
	if w.BlockAt(anchor.Offset(face.Vector(), 1)) != pump.BlockLever {
		return false, nil
	}
	act := w.actorFor(a)
	if run := w.pumps[anchor]; run != nil {
		return run.m.OnLever(anchor, act), nil
	}

	m, ok := pump.Detect(w.pumpEnv(agentID), w.cfg.Pump, act, anchor, face)
	if !ok {
		return false, nil
	}
	now := w.CurrentTick()
	w.pumps[anchor] = &pumpRun{m: m, owner: agentID, due: now + 1, since: now}
	w.auditEvent(now, agentID, "PUMP_ACTIVATE", anchor, "", map[string]any{
		"id":       ids.MachineIDAt(anchor.X, anchor.Y, anchor.Z),
		"rotation": m.Rotation().String(),
		"liquid":   w.cfg.Pump.Liquid.Name,
	})
	return true, nil
}

// Step simulates one tick: every pump due now is verified and advanced, in
// anchor order.
func (w *World) Step() {
	now := w.tick.Load()
	for _, anchor := range w.duePumps(now) {
		run := w.pumps[anchor]
		if !run.m.Verify(anchor) {
			w.deactivate(now, anchor, run, protocol.ErrInvalidTarget)
			continue
		}
		delay, ok := run.m.HeartBeat(anchor)
		if !ok {
			w.deactivate(now, anchor, run, "")
			continue
		}
		if delay < 1 {
			delay = 1
		}
		run.due = now + uint64(delay)
	}
	if w.tickLogger != nil || len(w.tickSinks) > 0 {
		entry := TickLogEntry{
			Tick:   now,
			Levers: w.levers,
			Pumps:  w.Pumps(),
			Digest: w.StateDigest(now),
		}
		if w.tickLogger != nil {
			_ = w.tickLogger.WriteTick(entry)
		}
		for _, fn := range w.tickSinks {
			fn(entry)
		}
	}
	w.levers = nil
	w.tick.Add(1)
}

func (w *World) duePumps(now uint64) []Vec3i {
	out := make([]Vec3i, 0, len(w.pumps))
	for anchor, run := range w.pumps {
		if run.due <= now {
			out = append(out, anchor)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func (w *World) deactivate(now uint64, anchor Vec3i, run *pumpRun, reason string) {
	run.m.OnDeactivate(anchor)
	delete(w.pumps, anchor)
	w.auditEvent(now, run.owner, "PUMP_DEACTIVATE", anchor, reason, map[string]any{
		"id":    ids.MachineIDAt(anchor.X, anchor.Y, anchor.Z),
		"tube":  run.m.TubeLength(),
		"ticks": now - run.since,
	})
}

// Pumps lists running pumps in anchor order.
func (w *World) Pumps() []PumpStatus {
	anchors := make([]Vec3i, 0, len(w.pumps))
	for a := range w.pumps {
		anchors = append(anchors, a)
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].Less(anchors[j]) })
	out := make([]PumpStatus, 0, len(anchors))
	for _, a := range anchors {
		run := w.pumps[a]
		progress, total := run.m.Progress()
		out = append(out, PumpStatus{
			ID:       ids.MachineIDAt(a.X, a.Y, a.Z),
			Owner:    run.owner,
			Anchor:   a.ToArray(),
			Rotation: run.m.Rotation().String(),
			Stage:    run.m.Kind().String(),
			Tube:     run.m.TubeLength(),
			Progress: progress,
			Total:    total,
			NextTick: run.due,
		})
	}
	return out
}

func (w *World) Pump(anchor Vec3i) *pump.Machine {
	if run := w.pumps[anchor]; run != nil {
		return run.m
	}
	return nil
}
