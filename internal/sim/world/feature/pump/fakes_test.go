package pump

import (
	"testing"

	modelpkg "voxelpump.ai/internal/sim/world/kernel/model"
	"voxelpump.ai/internal/sim/world/logic/blueprint"
)

type cell struct {
	block string
	state int
}

// fakeGrid is solid STONE at or below floor and AIR above unless set.
type fakeGrid struct {
	floor     int
	dimension string
	cells     map[Vec3i]cell
	writes    int
}

func newFakeGrid(floor int) *fakeGrid {
	return &fakeGrid{floor: floor, cells: map[Vec3i]cell{}}
}

func (g *fakeGrid) BlockAt(pos Vec3i) string {
	if c, ok := g.cells[pos]; ok {
		return c.block
	}
	if pos.Y <= g.floor {
		return "STONE"
	}
	return BlockAir
}

func (g *fakeGrid) SetBlock(pos Vec3i, block string) {
	g.writes++
	g.cells[pos] = cell{block: block}
}

func (g *fakeGrid) StateAt(pos Vec3i) int { return g.cells[pos].state }

func (g *fakeGrid) SetState(pos Vec3i, state int) {
	c, ok := g.cells[pos]
	if !ok {
		c.block = g.BlockAt(pos)
	}
	c.state = state
	g.cells[pos] = c
}

func (g *fakeGrid) Dimension() string { return g.dimension }

func (g *fakeGrid) set(pos Vec3i, block string, state int) {
	g.cells[pos] = cell{block: block, state: state}
}

type fakeAuthority struct {
	denyPlace map[Vec3i]bool
	denyBreak map[Vec3i]bool
	placed    []Vec3i
	supports  []Vec3i
	broken    []Vec3i
}

func (a *fakeAuthority) CanPlace(actor Actor, pos Vec3i, block string, support Vec3i) bool {
	a.placed = append(a.placed, pos)
	a.supports = append(a.supports, support)
	return !a.denyPlace[pos]
}

func (a *fakeAuthority) CanBreak(actor Actor, pos Vec3i) bool {
	a.broken = append(a.broken, pos)
	return !a.denyBreak[pos]
}

type fakeFurnace struct {
	c *modelpkg.Container
}

func (f fakeFurnace) Slot(name string) (string, int) {
	s := f.c.Slot(name)
	return s.Item, s.Count
}
func (f fakeFurnace) SetSlot(name, item string, count int) { f.c.SetSlot(name, item, count) }
func (f fakeFurnace) ClearSlot(name string)               { f.c.ClearSlot(name) }
func (f fakeFurnace) MaxStack(item string) int            { return 64 }

type fakeActor struct {
	id    string
	perms map[string]bool
	inbox []string
}

func newActor(id string, perms ...string) *fakeActor {
	a := &fakeActor{id: id, perms: map[string]bool{}}
	for _, p := range perms {
		a.perms[p] = true
	}
	return a
}

func (a *fakeActor) ID() string                     { return a.id }
func (a *fakeActor) HasPermission(perm string) bool { return a.perms[perm] }
func (a *fakeActor) SendMessage(msg string)         { a.inbox = append(a.inbox, msg) }

// rig is a four-way pump facing east: anchor at (0,10,0), furnace west of it,
// cauldron on top and the lever on the north face.
type rig struct {
	t       *testing.T
	grid    *fakeGrid
	auth    *fakeAuthority
	furnace *modelpkg.Container
	owner   *fakeActor
	env     Env
	anchor  Vec3i
	audits  []string
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		t:      t,
		grid:   newFakeGrid(9),
		auth:   &fakeAuthority{denyPlace: map[Vec3i]bool{}, denyBreak: map[Vec3i]bool{}},
		owner:  newActor("A1", PermActivate, PermDeactivateOwn),
		anchor: modelpkg.V(0, 10, 0),
	}
	r.furnace = modelpkg.NewContainer(BlockFurnace, modelpkg.V(-1, 10, 0))
	r.grid.set(r.anchor, BlockAnchor, 0)
	r.grid.set(modelpkg.V(-1, 10, 0), BlockFurnace, FurnaceIdle)
	r.grid.set(modelpkg.V(0, 11, 0), BlockCauldron, 0)
	r.grid.set(modelpkg.V(0, 10, -1), BlockLever, 0)
	r.env = Env{
		Grid:      r.grid,
		Authority: r.auth,
		Furnace: func(pos Vec3i) Container {
			if pos != r.furnace.Pos {
				return nil
			}
			return fakeFurnace{c: r.furnace}
		},
		Audit: func(action string, pos Vec3i, reason string, details map[string]any) {
			r.audits = append(r.audits, action)
		},
	}
	return r
}

func (r *rig) feed(n int) { r.furnace.SetSlot(modelpkg.SlotFeed, Water.Tube, n) }

func (r *rig) detect(cfg Config) *Machine {
	r.t.Helper()
	m, ok := Detect(r.env, cfg, r.owner, r.anchor, blueprint.FaceNorth)
	if !ok {
		r.t.Fatalf("expected pump to be detected")
	}
	return m
}

// beat runs one heartbeat after verifying the structure.
func (r *rig) beat(m *Machine) bool {
	r.t.Helper()
	if !m.Verify(r.anchor) {
		r.t.Fatalf("verify failed in stage %v", m.Kind())
	}
	_, ok := m.HeartBeat(r.anchor)
	return ok
}

// runUntil beats until the stage changes to want or the pump terminates.
func (r *rig) runUntil(m *Machine, want Kind, max int) {
	r.t.Helper()
	for i := 0; i < max; i++ {
		if m.Kind() == want {
			return
		}
		if !r.beat(m) {
			r.t.Fatalf("pump terminated before reaching %v", want)
		}
	}
	if m.Kind() != want {
		r.t.Fatalf("stage %v after %d beats, want %v", m.Kind(), max, want)
	}
}
