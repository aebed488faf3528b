package world

import (
	"fmt"

	"voxelpump.ai/internal/protocol"
	"voxelpump.ai/internal/sim/world/feature/governance/claims"
	modelpkg "voxelpump.ai/internal/sim/world/kernel/model"
	"voxelpump.ai/internal/sim/world/logic/ids"
)

// AddClaim registers a square land claim. Claims may not overlap.
func (w *World) AddClaim(owner string, anchor Vec3i, radius int, flags claims.Flags, members ...string) (*modelpkg.LandClaim, error) {
	if ok, code, msg := claims.ValidateClaimInput(owner, radius); !ok {
		return nil, fmt.Errorf("%s: %s", code, msg)
	}
	if w.agents[owner] == nil {
		return nil, fmt.Errorf("%s: unknown owner %s", protocol.ErrBadRequest, owner)
	}
	zones := make([]claims.Zone, 0, len(w.claims))
	for _, c := range w.claims {
		zones = append(zones, claims.ZoneOf(c))
	}
	if claims.Overlaps(anchor.X, anchor.Z, radius, "", zones) {
		return nil, fmt.Errorf("%s: claim overlaps existing land", protocol.ErrConflict)
	}
	landID := ids.LandID(w.nextLandNum.Add(1) - 1)
	c := &modelpkg.LandClaim{
		LandID:  landID,
		Owner:   owner,
		Anchor:  anchor,
		Radius:  radius,
		Flags:   flags,
		Members: map[string]bool{},
	}
	for _, m := range members {
		if m != "" {
			c.Members[m] = true
		}
	}
	w.claims[landID] = c
	w.auditEvent(w.CurrentTick(), owner, "CLAIM_LAND", anchor, "", map[string]any{"land_id": landID, "radius": radius})
	return c, nil
}

func (w *World) Claim(landID string) *modelpkg.LandClaim { return w.claims[landID] }
