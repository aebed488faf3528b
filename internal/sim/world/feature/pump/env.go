package pump

import modelpkg "voxelpump.ai/internal/sim/world/kernel/model"

type Vec3i = modelpkg.Vec3i

// Block names the pump reads or writes.
const (
	BlockAir      = "AIR"
	BlockAnchor   = "GOLD_BLOCK"
	BlockLever    = "LEVER"
	BlockFurnace  = "FURNACE"
	BlockCauldron = "CAULDRON"
)

// Furnace and cauldron cell states.
const (
	FurnaceIdle    = 0
	FurnaceBurning = 1
)

const DimensionNether = "NETHER"

// Permission identifiers checked on the acting agent.
const (
	PermActivate      = "pump.activate"
	PermDeactivateOwn = "pump.deactivate-own"
	PermDeactivateAll = "pump.deactivate-all"
	PermNetherWater   = "pump.nether-water"
	PermLavaFill      = "pump.lava.fill"
	PermLavaDrain     = "pump.lava.drain"
)

// Grid is read/write access to block types and their small integer state.
type Grid interface {
	BlockAt(pos Vec3i) string
	SetBlock(pos Vec3i, block string)
	StateAt(pos Vec3i) int
	SetState(pos Vec3i, state int)
	Dimension() string
}

// Authority answers whether a mutation would be allowed without performing it.
type Authority interface {
	CanPlace(actor Actor, pos Vec3i, block string, support Vec3i) bool
	CanBreak(actor Actor, pos Vec3i) bool
}

// Container is the furnace inventory with its feed and fuel slots.
type Container interface {
	Slot(name string) (item string, count int)
	SetSlot(name, item string, count int)
	ClearSlot(name string)
	MaxStack(item string) int
}

type Actor interface {
	ID() string
	HasPermission(perm string) bool
	SendMessage(msg string)
}

// Env is the world-facing callback set used by the pump.
// Mutations stay in the caller; this package only decides what to do.
type Env struct {
	Grid      Grid
	Authority Authority
	Furnace   func(pos Vec3i) Container

	// Audit is optional.
	Audit func(action string, pos Vec3i, reason string, details map[string]any)
}

func (e Env) audit(action string, pos Vec3i, reason string, details map[string]any) {
	if e.Audit != nil {
		e.Audit(action, pos, reason, details)
	}
}

func (e Env) isEmpty(pos Vec3i) bool {
	b := e.Grid.BlockAt(pos)
	return b == "" || b == BlockAir
}

func (e Env) setEmpty(pos Vec3i) { e.Grid.SetBlock(pos, BlockAir) }
