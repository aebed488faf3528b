package worldtest

import (
	"testing"

	"voxelpump.ai/internal/sim/world/feature/pump"
	"voxelpump.ai/internal/sim/world/logic/blueprint"

	world "voxelpump.ai/internal/sim/world"
)

func TestFourWay_ExpandsAwayFromFurnaceInEveryDirection(t *testing.T) {
	for _, fwd := range blueprint.Rotations {
		h := newHarness(t, nil)
		owner(h, "A1")
		site := PumpSite{
			Anchor:    world.Vec3i{X: 20, Y: 17, Z: 20},
			Forward:   fwd,
			LeverFace: fwd.Left().Face(),
			Indicator: true,
			Feed:      3,
		}
		h.BuildPump(site)
		if !h.Lever("A1", site) {
			t.Fatalf("%s: pump not detected", fwd)
		}
		if p := h.W.Pumps(); len(p) != 1 || p[0].Rotation != fwd.String() {
			t.Fatalf("%s: unexpected pump: %#v", fwd, p)
		}
		// Three expand beats, one per segment.
		h.StepFor(22)
		for n := 1; n <= 3; n++ {
			if got := h.W.BlockAt(site.Tube(n)); got != "WOOD" {
				t.Fatalf("%s: segment %d is %s", fwd, n, got)
			}
		}
		h.RunUntilIdle(500)
		expectFeed(t, h, site, "WOOD", 3)
	}
}

func TestFourWay_NeedsIndicator(t *testing.T) {
	h := newHarness(t, nil)
	owner(h, "A1")
	site := eastSite
	site.Indicator = false
	h.BuildPump(site)
	if h.Lever("A1", site) {
		t.Fatalf("four_way must not detect a pump without a cauldron")
	}
	if st := h.W.StateAt(site.Furnace()); st != pump.FurnaceIdle {
		t.Fatalf("furnace lit without a pump: %d", st)
	}
}

func TestLeverRelative_DetectsWithoutIndicator(t *testing.T) {
	leverRelative := func(cfg *world.WorldConfig) { cfg.Pump.Strategy = pump.StrategyLeverRelative }
	h := newHarness(t, leverRelative)
	owner(h, "A1")
	from, to := basin(16)
	cells := h.Fill(from, to, "STATIONARY_WATER")
	site := eastSite
	site.Indicator = false
	h.BuildPump(site)

	if !h.Lever("A1", site) {
		t.Fatalf("lever_relative should detect the pump")
	}
	if p := h.W.Pumps(); len(p) != 1 || p[0].Rotation != "EAST" {
		t.Fatalf("unexpected pump: %#v", p)
	}
	h.RunUntilIdle(1000)
	expectBlocks(t, h, cells, "AIR")
	expectFeed(t, h, site, "WOOD", 2)
}

func TestLeverRelative_FurnaceMustFlankLever(t *testing.T) {
	leverRelative := func(cfg *world.WorldConfig) { cfg.Pump.Strategy = pump.StrategyLeverRelative }
	h := newHarness(t, leverRelative)
	owner(h, "A1")
	// Lever on the east face and the furnace on the west: the furnace sits
	// behind the lever, not beside it.
	site := PumpSite{
		Anchor:    world.Vec3i{X: 0, Y: 17, Z: 0},
		Forward:   blueprint.East,
		LeverFace: blueprint.FaceEast,
		Feed:      2,
	}
	h.BuildPump(site)
	if h.Lever("A1", site) {
		t.Fatalf("furnace opposite the lever must not match")
	}
}

func TestBlockedTube_StopsExpansion(t *testing.T) {
	h := newHarness(t, nil)
	owner(h, "A1")
	site := eastSite
	site.Feed = 5
	h.BuildPump(site)
	h.SetBlock(site.Tube(3), "STONE")

	h.Lever("A1", site)
	h.StepFor(22)
	expectBlocks(t, h, []world.Vec3i{site.Tube(1), site.Tube(2)}, "WOOD")
	h.RunUntilIdle(500)
	expectFeed(t, h, site, "WOOD", 5)
	if got := h.W.BlockAt(site.Tube(3)); got != "STONE" {
		t.Fatalf("obstacle replaced: %s", got)
	}
}
