package model

import "voxelpump.ai/internal/sim/world/logic/ids"

const (
	// SlotFeed is the furnace smelt slot; it holds tube blocks.
	SlotFeed = "feed"
	// SlotFuel is the furnace fuel slot; a full bucket there selects fill mode.
	SlotFuel = "fuel"
)

type Slot struct {
	Item  string
	Count int
}

func (s Slot) Empty() bool { return s.Item == "" || s.Count <= 0 }

// Container is the authoritative inventory state for blocks like FURNACE.
// It is included in snapshots.
type Container struct {
	Type  string
	Pos   Vec3i
	Slots map[string]Slot
}

func NewContainer(typ string, pos Vec3i) *Container {
	return &Container{Type: typ, Pos: pos, Slots: map[string]Slot{}}
}

func (c *Container) ID() string { return ContainerID(c.Type, c.Pos) }

func ContainerID(typ string, pos Vec3i) string {
	return ids.ContainerID(typ, pos.X, pos.Y, pos.Z)
}

func ParseContainerID(id string) (typ string, pos Vec3i, ok bool) {
	typ, x, y, z, ok := ids.ParseContainerID(id)
	if !ok {
		return "", Vec3i{}, false
	}
	return typ, Vec3i{X: x, Y: y, Z: z}, true
}

func (c *Container) Slot(name string) Slot {
	if c == nil || c.Slots == nil {
		return Slot{}
	}
	s := c.Slots[name]
	if s.Empty() {
		return Slot{}
	}
	return s
}

func (c *Container) SetSlot(name, item string, count int) {
	if item == "" || count <= 0 {
		c.ClearSlot(name)
		return
	}
	if c.Slots == nil {
		c.Slots = map[string]Slot{}
	}
	c.Slots[name] = Slot{Item: item, Count: count}
}

func (c *Container) ClearSlot(name string) {
	if c.Slots == nil {
		return
	}
	delete(c.Slots, name)
}
