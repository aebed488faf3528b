package pump

import (
	"voxelpump.ai/internal/protocol"
	modelpkg "voxelpump.ai/internal/sim/world/kernel/model"
)

// retract removes the far end of the tube and returns it to the furnace.
// A denied break or a full feed slot abandons the retraction in place.
func (m *Machine) retract() (stage, bool) {
	size := len(m.tube)
	if size == 0 {
		return stage{}, false
	}
	target := m.tube[size-1]
	if !m.env.Authority.CanBreak(m.owner, target) {
		m.env.audit("PUMP_BLOCKED", target, protocol.ErrNoPermission, map[string]any{"op": "break"})
		return stage{}, false
	}
	if !m.putTubeItem() {
		m.env.audit("PUMP_BLOCKED", target, protocol.ErrNoResource, map[string]any{"op": "return", "item": m.cfg.Liquid.Tube})
		return stage{}, false
	}
	m.tube = m.tube[:size-1]
	m.env.setEmpty(target)
	return stage{kind: KindRetract}, true
}

// putTubeItem adds one tube block to the feed slot.
func (m *Machine) putTubeItem() bool {
	furnace := m.furnace()
	if furnace == nil {
		return false
	}
	tube := m.cfg.Liquid.Tube
	item, n := furnace.Slot(modelpkg.SlotFeed)
	switch {
	case item == "" || n <= 0:
		furnace.SetSlot(modelpkg.SlotFeed, tube, 1)
		return true
	case item == tube && n < furnace.MaxStack(tube):
		furnace.SetSlot(modelpkg.SlotFeed, tube, n+1)
		return true
	}
	return false
}
