package worldtest

import (
	"testing"

	"voxelpump.ai/internal/sim/catalogs"
	"voxelpump.ai/internal/sim/world/feature/pump"
	modelpkg "voxelpump.ai/internal/sim/world/kernel/model"
	"voxelpump.ai/internal/sim/world/logic/blueprint"

	world "voxelpump.ai/internal/sim/world"
)

var eastSite = PumpSite{
	Anchor:    world.Vec3i{X: 0, Y: 17, Z: 0},
	Forward:   blueprint.East,
	LeverFace: blueprint.FaceNorth,
	Indicator: true,
	Feed:      2,
}

func newHarness(t *testing.T, mutate func(*world.WorldConfig)) *Harness {
	t.Helper()
	cfg := FlatConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return NewHarness(t, cfg, catalogs.Default())
}

func owner(h *Harness, id string, extra ...string) {
	h.Agent(id, append([]string{pump.PermActivate, pump.PermDeactivateOwn}, extra...)...)
}

// basin returns the 2x3 footprint under a two-segment east tube, y from..16.
func basin(fromY int) (world.Vec3i, world.Vec3i) {
	return world.Vec3i{X: 1, Y: fromY, Z: -1}, world.Vec3i{X: 2, Y: 16, Z: 1}
}

func expectBlocks(t *testing.T, h *Harness, cells []world.Vec3i, want string) {
	t.Helper()
	for _, p := range cells {
		if got := h.W.BlockAt(p); got != want {
			t.Fatalf("%v: got %s want %s", p, got, want)
		}
	}
}

func expectFeed(t *testing.T, h *Harness, site PumpSite, item string, n int) {
	t.Helper()
	s := h.W.Furnace(site.Furnace()).Slot(modelpkg.SlotFeed)
	if s.Item != item || s.Count != n {
		t.Fatalf("feed slot: got %q x%d want %q x%d", s.Item, s.Count, item, n)
	}
}
