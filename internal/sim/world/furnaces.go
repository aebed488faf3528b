package world

import (
	"voxelpump.ai/internal/sim/world/feature/pump"
	modelpkg "voxelpump.ai/internal/sim/world/kernel/model"
)

// Furnace returns the inventory of the furnace block at pos, creating it on
// first use. It returns nil when pos holds no furnace.
func (w *World) Furnace(pos Vec3i) *modelpkg.Container {
	if w.BlockAt(pos) != pump.BlockFurnace {
		return nil
	}
	c := w.furnaces[pos]
	if c == nil {
		c = modelpkg.NewContainer(pump.BlockFurnace, pos)
		w.furnaces[pos] = c
	}
	return c
}

type furnace struct {
	w *World
	c *modelpkg.Container
}

var _ pump.Container = furnace{}

func (f furnace) Slot(name string) (string, int) {
	s := f.c.Slot(name)
	return s.Item, s.Count
}

func (f furnace) SetSlot(name, item string, count int) { f.c.SetSlot(name, item, count) }
func (f furnace) ClearSlot(name string)                { f.c.ClearSlot(name) }
func (f furnace) MaxStack(item string) int             { return f.w.catalogs.MaxStack(item) }

func (w *World) pumpFurnace(pos Vec3i) pump.Container {
	c := w.Furnace(pos)
	if c == nil {
		return nil
	}
	return furnace{w: w, c: c}
}
