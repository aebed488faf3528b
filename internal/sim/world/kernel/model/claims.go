package model

type ClaimFlags struct {
	AllowBuild bool
	AllowBreak bool
}

type LandClaim struct {
	LandID  string
	Owner   string // agent id
	Anchor  Vec3i
	Radius  int // square radius in blocks
	Flags   ClaimFlags
	Members map[string]bool // agent ids
}

func (c *LandClaim) Contains(pos Vec3i) bool {
	dx := pos.X - c.Anchor.X
	if dx < 0 {
		dx = -dx
	}
	dz := pos.Z - c.Anchor.Z
	if dz < 0 {
		dz = -dz
	}
	return dx <= c.Radius && dz <= c.Radius
}

func (c *LandClaim) IsMember(agentID string) bool {
	if agentID == "" {
		return false
	}
	if c.Owner == agentID {
		return true
	}
	return c.Members[agentID]
}
