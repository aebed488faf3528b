package pump

import (
	"voxelpump.ai/internal/protocol"
	modelpkg "voxelpump.ai/internal/sim/world/kernel/model"
)

// expand grows the tube by one block along forward.
func (m *Machine) expand() (stage, bool) {
	size := len(m.tube)
	if size >= m.cfg.MaxLength {
		return m.stopExpand()
	}
	target := m.anchor.Offset(m.forward, size+1)
	if !m.env.isEmpty(target) {
		m.env.audit("PUMP_BLOCKED", target, protocol.ErrBlocked, map[string]any{"op": "expand", "block": m.env.Grid.BlockAt(target)})
		return m.stopExpand()
	}

	furnace := m.furnace()
	if furnace == nil {
		return m.stopExpand()
	}
	tube := m.cfg.Liquid.Tube
	item, n := furnace.Slot(modelpkg.SlotFeed)
	if item != tube || n <= 0 {
		return m.stopExpand()
	}
	// Simulate the placement before taking the block out of the furnace.
	// The support is the first tube block, or the target itself for the first one.
	support := target.Offset(m.backward, size)
	if !m.env.Authority.CanPlace(m.owner, target, tube, support) {
		m.env.audit("PUMP_BLOCKED", target, protocol.ErrNoPermission, map[string]any{"op": "place", "block": tube})
		return m.stopExpand()
	}

	if n > 1 {
		furnace.SetSlot(modelpkg.SlotFeed, item, n-1)
	} else {
		furnace.ClearSlot(modelpkg.SlotFeed)
	}
	m.env.Grid.SetBlock(target, tube)
	m.tube = append(m.tube, target)
	return stage{kind: KindExpand}, true
}

// stopExpand decides what follows a finished tube: fill, drain, retract or
// nothing at all when no tube was built.
func (m *Machine) stopExpand() (stage, bool) {
	if len(m.tube) == 0 {
		return stage{}, false
	}
	liquid := m.cfg.Liquid

	fuel := ""
	if furnace := m.furnace(); furnace != nil {
		fuel, _ = furnace.Slot(modelpkg.SlotFuel)
	}
	if fuel != "" && fuel == liquid.Bucket {
		if liquid.fillGated(m.env.Grid.Dimension()) && !m.owner.HasPermission(liquid.FillPermission) {
			m.deny(liquid.FillPermission, liquid.FillDenied)
			return stage{kind: KindRetract}, true
		}
		return m.newFill(), true
	}
	if liquid.DrainPermission != "" && !m.owner.HasPermission(liquid.DrainPermission) {
		m.deny(liquid.DrainPermission, liquid.DrainDenied)
		return stage{kind: KindRetract}, true
	}
	return m.newDrain(), true
}

func (m *Machine) deny(perm, msg string) {
	if msg != "" {
		m.owner.SendMessage(msg)
	}
	m.env.audit("PUMP_DENIED", m.anchor, protocol.ErrNoPermission, map[string]any{"permission": perm})
}
