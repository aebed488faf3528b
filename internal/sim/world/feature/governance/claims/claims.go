package claims

import (
	"sort"
	"strings"

	"voxelpump.ai/internal/protocol"
	modelpkg "voxelpump.ai/internal/sim/world/kernel/model"
)

type Flags = modelpkg.ClaimFlags

// DefaultFlags protects claimed land from visitors.
func DefaultFlags() Flags {
	return Flags{AllowBuild: false, AllowBreak: false}
}

func ApplyPolicyFlags(flags Flags, policy map[string]bool) Flags {
	next := flags
	if v, ok := policy["allow_build"]; ok {
		next.AllowBuild = v
	}
	if v, ok := policy["allow_break"]; ok {
		next.AllowBreak = v
	}
	return next
}

func ValidateClaimInput(owner string, radius int) (ok bool, code string, msg string) {
	if strings.TrimSpace(owner) == "" {
		return false, protocol.ErrBadRequest, "missing owner"
	}
	if radius <= 0 {
		return false, protocol.ErrBadRequest, "radius must be positive"
	}
	return true, "", ""
}

type Zone struct {
	LandID  string
	AnchorX int
	AnchorZ int
	Radius  int
}

func ZoneOf(c *modelpkg.LandClaim) Zone {
	return Zone{LandID: c.LandID, AnchorX: c.Anchor.X, AnchorZ: c.Anchor.Z, Radius: c.Radius}
}

// Overlaps reports whether a square claim at anchor would touch any zone other
// than landID.
func Overlaps(anchorX, anchorZ, radius int, landID string, zones []Zone) bool {
	for _, z := range zones {
		if z.LandID == "" || z.LandID == landID {
			continue
		}
		dx := anchorX - z.AnchorX
		if dx < 0 {
			dx = -dx
		}
		dz := anchorZ - z.AnchorZ
		if dz < 0 {
			dz = -dz
		}
		if dx <= radius+z.Radius && dz <= radius+z.Radius {
			return true
		}
	}
	return false
}

// At returns the claim covering pos. Claims do not overlap, but ids are sorted
// so a corrupted snapshot still resolves deterministically.
func At(all map[string]*modelpkg.LandClaim, pos modelpkg.Vec3i) *modelpkg.LandClaim {
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if c := all[id]; c != nil && c.Contains(pos) {
			return c
		}
	}
	return nil
}
