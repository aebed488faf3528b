package world

import (
	"fmt"

	"voxelpump.ai/internal/sim/world/feature/pump"
)

func (w *World) BlockAt(pos Vec3i) string {
	return w.catalogs.BlockName(w.chunks.GetBlock(pos.X, pos.Y, pos.Z))
}

func (w *World) StateAt(pos Vec3i) int {
	return int(w.chunks.GetState(pos.X, pos.Y, pos.Z))
}

// SetBlock places a catalog block without auditing. It is meant for world
// setup (scenarios, tests); simulation writes go through a grid.
func (w *World) SetBlock(pos Vec3i, block string) error {
	id, ok := w.catalogs.BlockID(block)
	if !ok {
		return fmt.Errorf("unknown block %q", block)
	}
	if !w.InBounds(pos) {
		return fmt.Errorf("position %v out of bounds", pos.ToArray())
	}
	w.chunks.SetBlock(pos.X, pos.Y, pos.Z, id)
	return nil
}

func (w *World) SetState(pos Vec3i, state int) {
	w.chunks.SetState(pos.X, pos.Y, pos.Z, clampState(state))
}

func clampState(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// grid is the pump's view of the world. Block writes are audited under actor.
type grid struct {
	w      *World
	actor  string
	reason string
}

var _ pump.Grid = grid{}

func (g grid) BlockAt(pos Vec3i) string { return g.w.BlockAt(pos) }
func (g grid) StateAt(pos Vec3i) int    { return g.w.StateAt(pos) }
func (g grid) Dimension() string        { return g.w.cfg.Dimension }

func (g grid) SetBlock(pos Vec3i, block string) {
	to, ok := g.w.catalogs.BlockID(block)
	if !ok || !g.w.InBounds(pos) {
		return
	}
	from := g.w.chunks.GetBlock(pos.X, pos.Y, pos.Z)
	g.w.chunks.SetBlock(pos.X, pos.Y, pos.Z, to)
	if from != to {
		g.w.auditSetBlock(g.w.CurrentTick(), g.actor, pos, from, to, g.reason)
	}
}

func (g grid) SetState(pos Vec3i, state int) { g.w.SetState(pos, state) }
