package pump

import (
	"voxelpump.ai/internal/sim/world/logic/blueprint"
)

// Machine is one active pump. It owns its tube and stage; the host drives it
// with Verify and HeartBeat once per scheduled tick.
type Machine struct {
	env   Env
	cfg   Config
	owner Actor

	anchor       Vec3i
	leverFace    blueprint.Face
	indicator    blueprint.Face
	hasIndicator bool

	yaw      blueprint.Rotation
	forward  [3]int
	backward [3]int
	left     [3]int
	right    [3]int

	tube  []Vec3i
	stage stage
}

func newMachine(env Env, cfg Config, owner Actor, anchor Vec3i, yaw blueprint.Rotation, leverFace blueprint.Face, indicator blueprint.Face, hasIndicator bool) *Machine {
	m := &Machine{
		env:          env,
		cfg:          cfg,
		owner:        owner,
		anchor:       anchor,
		leverFace:    leverFace,
		indicator:    indicator,
		hasIndicator: hasIndicator,
		yaw:          yaw,
		forward:      yaw.Vector(),
		backward:     yaw.Opposite().Vector(),
		left:         yaw.Left().Vector(),
		right:        yaw.Right().Vector(),
		tube:         make([]Vec3i, 0, cfg.MaxLength),
		stage:        stage{kind: KindExpand},
	}
	m.setFurnace(true)
	return m
}

func (m *Machine) Anchor() Vec3i                { return m.anchor }
func (m *Machine) Owner() Actor                 { return m.owner }
func (m *Machine) Rotation() blueprint.Rotation { return m.yaw }
func (m *Machine) Kind() Kind                   { return m.stage.kind }
func (m *Machine) TubeLength() int              { return len(m.tube) }
func (m *Machine) DelayTicks() int              { return m.cfg.DelayTicks }
func (m *Machine) LeverFace() blueprint.Face    { return m.leverFace }

// Tube returns a copy of the tube cells, nearest first.
func (m *Machine) Tube() []Vec3i { return append([]Vec3i(nil), m.tube...) }

// Progress reports the current batch counters; zero outside drain/fill.
func (m *Machine) Progress() (progress, total int) {
	if m.stage.proc == nil {
		return 0, 0
	}
	return m.stage.proc.progress, m.stage.proc.total
}

// Targets returns a copy of the cells the next drain/fill batch acts on.
func (m *Machine) Targets() []Vec3i {
	if m.stage.proc == nil {
		return nil
	}
	return append([]Vec3i(nil), m.stage.proc.targets...)
}

func (m *Machine) furnacePos() Vec3i { return m.anchor.Offset(m.backward, 1) }

func (m *Machine) furnace() Container {
	if m.env.Furnace == nil {
		return nil
	}
	return m.env.Furnace(m.furnacePos())
}

// Verify re-checks the structure. Any mismatch means the host must
// deactivate the pump.
func (m *Machine) Verify(anchor Vec3i) bool {
	g := m.env.Grid
	if g.BlockAt(anchor) != BlockAnchor {
		return false
	}
	if g.BlockAt(anchor.Offset(m.leverFace.Vector(), 1)) != BlockLever {
		return false
	}
	furnace := anchor.Offset(m.backward, 1)
	if g.BlockAt(furnace) != BlockFurnace || g.StateAt(furnace) != FurnaceBurning {
		return false
	}
	if m.hasIndicator && g.BlockAt(anchor.Offset(m.indicator.Vector(), 1)) != BlockCauldron {
		return false
	}
	tube := m.cfg.Liquid.Tube
	for _, p := range m.tube {
		if g.BlockAt(p) != tube {
			return false
		}
	}
	return true
}

// HeartBeat advances the stage machine by one step. ok=false means the pump
// is done and must be removed.
func (m *Machine) HeartBeat(_ Vec3i) (delay int, ok bool) {
	prev := m.stage.kind
	next, ok := m.advance(m.stage)
	if !ok {
		m.stage = stage{}
		return 0, false
	}
	m.stage = next
	if next.kind != prev {
		m.env.audit("PUMP_STAGE", m.anchor, "", map[string]any{
			"from": prev.String(),
			"to":   next.kind.String(),
			"tube": len(m.tube),
		})
	}
	return m.cfg.DelayTicks, true
}

// OnLever forces a retraction when the actor may deactivate this pump.
// The lever use is always consumed.
func (m *Machine) OnLever(_ Vec3i, actor Actor) bool {
	if actor == nil {
		return true
	}
	isOwner := m.owner != nil && actor.ID() == m.owner.ID()
	if (isOwner && actor.HasPermission(PermDeactivateOwn)) || actor.HasPermission(PermDeactivateAll) {
		if m.stage.kind != KindRetract {
			m.env.audit("PUMP_STAGE", m.anchor, "LEVER", map[string]any{
				"from": m.stage.kind.String(),
				"to":   KindRetract.String(),
				"by":   actor.ID(),
			})
			m.stage = stage{kind: KindRetract}
		}
	}
	return true
}

// OnDeactivate resets the indicator and puts out the furnace.
func (m *Machine) OnDeactivate(_ Vec3i) {
	m.setIndicator(0)
	m.setFurnace(false)
}

func (m *Machine) setFurnace(burning bool) {
	pos := m.furnacePos()
	if m.env.Grid.BlockAt(pos) != BlockFurnace {
		return
	}
	state := FurnaceIdle
	if burning {
		state = FurnaceBurning
	}
	m.env.Grid.SetState(pos, state)
}

func (m *Machine) setIndicator(v int) {
	if !m.hasIndicator {
		return
	}
	pos := m.anchor.Offset(m.indicator.Vector(), 1)
	if m.env.Grid.BlockAt(pos) != BlockCauldron {
		return
	}
	m.env.Grid.SetState(pos, v)
}

// setIndicatorProgress shows progress on a 0..4 scale.
func (m *Machine) setIndicatorProgress(progress, total int) {
	divisor := total / 4
	if divisor == 0 {
		divisor = 1
	}
	m.setIndicator(progress / divisor)
}
