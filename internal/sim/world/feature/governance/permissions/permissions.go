package permissions

import "voxelpump.ai/internal/sim/world/feature/governance/claims"

type Permissions struct {
	CanBuild bool
	CanBreak bool
}

func WildPermissions() Permissions {
	return Permissions{CanBuild: true, CanBreak: true}
}

func ForLand(isMember bool, flags claims.Flags) Permissions {
	if isMember {
		return Permissions{CanBuild: true, CanBreak: true}
	}
	return Permissions{
		CanBuild: flags.AllowBuild,
		CanBreak: flags.AllowBreak,
	}
}
