package pump

import (
	"voxelpump.ai/internal/sim/world/logic/blueprint"
)

// pattern is a matched pump structure around an anchor.
type pattern struct {
	yaw          blueprint.Rotation
	indicator    blueprint.Face
	hasIndicator bool
}

type furnaceCheck func(g Grid, pos Vec3i) bool

// Detect matches the pump pattern around anchor. leverFace is the anchor face
// the triggering lever sits on. On success the returned machine has already
// lit its furnace.
func Detect(env Env, cfg Config, actor Actor, anchor Vec3i, leverFace blueprint.Face) (*Machine, bool) {
	if actor == nil || !actor.HasPermission(PermActivate) {
		return nil, false
	}
	cfg = cfg.normalized()
	p, ok := match(env.Grid, cfg, anchor, leverFace, idleFurnace)
	if !ok {
		return nil, false
	}
	return newMachine(env, cfg, actor, anchor, p.yaw, leverFace, p.indicator, p.hasIndicator), true
}

// Resume rebuilds a pump that was running when the world was saved. The
// furnace must still be lit and the saved tube must still be in place; the
// machine starts retracting so the tube goes back into the furnace.
func Resume(env Env, cfg Config, owner Actor, anchor Vec3i, leverFace blueprint.Face, tube []Vec3i) (*Machine, bool) {
	cfg = cfg.normalized()
	p, ok := match(env.Grid, cfg, anchor, leverFace, burningFurnace)
	if !ok || len(tube) > cfg.MaxLength {
		return nil, false
	}
	forward := p.yaw.Vector()
	for i, pos := range tube {
		if pos != anchor.Offset(forward, i+1) {
			return nil, false
		}
	}
	if len(tube) > 0 && !blueprint.CheckPlaced(blockGetter(env.Grid), tubePattern(cfg.Liquid.Tube, len(tube)), anchor.ToArray(), int(p.yaw)) {
		return nil, false
	}
	m := newMachine(env, cfg, owner, anchor, p.yaw, leverFace, p.indicator, p.hasIndicator)
	m.tube = append(m.tube, tube...)
	m.stage = stage{kind: KindRetract}
	return m, true
}

// tubePattern is an n-block tube laid out along +X from the anchor.
func tubePattern(block string, n int) []blueprint.PlacementBlock {
	out := make([]blueprint.PlacementBlock, n)
	for i := range out {
		out[i] = blueprint.PlacementBlock{Pos: [3]int{i + 1, 0, 0}, Block: block}
	}
	return out
}

func blockGetter(g Grid) blueprint.BlockGetter {
	return func(x, y, z int) string { return g.BlockAt(Vec3i{X: x, Y: y, Z: z}) }
}

func match(g Grid, cfg Config, anchor Vec3i, leverFace blueprint.Face, furnaceOK furnaceCheck) (pattern, bool) {
	if g.BlockAt(anchor) != BlockAnchor {
		return pattern{}, false
	}
	switch cfg.Strategy {
	case StrategyLeverRelative:
		return matchLeverRelative(g, anchor, leverFace, furnaceOK)
	default:
		return matchFourWay(g, anchor, furnaceOK)
	}
}

// idleFurnace is an unlit furnace; a burning one already belongs to a pump.
func idleFurnace(g Grid, pos Vec3i) bool {
	return g.BlockAt(pos) == BlockFurnace && g.StateAt(pos) == FurnaceIdle
}

func burningFurnace(g Grid, pos Vec3i) bool {
	return g.BlockAt(pos) == BlockFurnace && g.StateAt(pos) == FurnaceBurning
}

func matchFourWay(g Grid, anchor Vec3i, furnaceOK furnaceCheck) (pattern, bool) {
	var (
		p       pattern
		haveYaw bool
	)
	for _, r := range blueprint.Rotations {
		pos := anchor.Offset(r.Vector(), 1)
		if furnaceOK(g, pos) {
			p.yaw = r.Opposite()
			haveYaw = true
		} else if g.BlockAt(pos) == BlockCauldron {
			p.indicator = r.Face()
			p.hasIndicator = true
		}
	}
	if g.BlockAt(anchor.Offset(blueprint.FaceUp.Vector(), 1)) == BlockCauldron {
		p.indicator = blueprint.FaceUp
		p.hasIndicator = true
	}
	if !haveYaw || !p.hasIndicator {
		return pattern{}, false
	}
	return p, true
}

func matchLeverRelative(g Grid, anchor Vec3i, leverFace blueprint.Face, furnaceOK furnaceCheck) (pattern, bool) {
	lever, ok := leverFace.Rotation()
	if !ok {
		return pattern{}, false
	}
	for _, side := range [2]blueprint.Rotation{lever.Left(), lever.Right()} {
		if furnaceOK(g, anchor.Offset(side.Vector(), 1)) {
			return pattern{yaw: side.Opposite()}, true
		}
	}
	return pattern{}, false
}
