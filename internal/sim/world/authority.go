package world

import (
	"voxelpump.ai/internal/sim/world/feature/governance/claims"
	"voxelpump.ai/internal/sim/world/feature/governance/permissions"
	"voxelpump.ai/internal/sim/world/feature/pump"
)

// authority answers pump placement and break questions from bounds, the block
// catalog and land claims. It never mutates the world.
type authority struct{ w *World }

var _ pump.Authority = authority{}

func (a authority) CanPlace(actor pump.Actor, pos Vec3i, block string, support Vec3i) bool {
	if !a.w.InBounds(pos) || !a.w.InBounds(support) {
		return false
	}
	if _, ok := a.w.catalogs.BlockID(block); !ok {
		return false
	}
	return a.w.permissionsAt(actor, pos).CanBuild
}

func (a authority) CanBreak(actor pump.Actor, pos Vec3i) bool {
	if !a.w.InBounds(pos) {
		return false
	}
	def, ok := a.w.catalogs.Blocks.Defs[a.w.BlockAt(pos)]
	if !ok || !def.Breakable {
		return false
	}
	return a.w.permissionsAt(actor, pos).CanBreak
}

func (w *World) permissionsAt(actor pump.Actor, pos Vec3i) permissions.Permissions {
	c := claims.At(w.claims, pos)
	if c == nil {
		return permissions.WildPermissions()
	}
	id := ""
	if actor != nil {
		id = actor.ID()
	}
	return permissions.ForLand(c.IsMember(id), c.Flags)
}
