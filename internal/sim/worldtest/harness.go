package worldtest

import (
	"testing"

	"voxelpump.ai/internal/persistence/snapshot"
	"voxelpump.ai/internal/sim/catalogs"
	"voxelpump.ai/internal/sim/world/feature/pump"
	modelpkg "voxelpump.ai/internal/sim/world/kernel/model"
	"voxelpump.ai/internal/sim/world/logic/blueprint"
	"voxelpump.ai/internal/sim/world/terrain/gen"

	world "voxelpump.ai/internal/sim/world"
)

// Harness is a small black-box test helper for driving a world via exported APIs:
// - BuildPump lays out a pump structure
// - Lever/Step/RunUntilIdle drive it tick by tick
// - every audit entry is recorded for assertions
//
// It intentionally avoids touching world internals so tests can live outside the world package.
type Harness struct {
	T    *testing.T
	Cats *catalogs.Catalogs
	W    *world.World

	audits []world.AuditEntry
}

func NewHarness(t *testing.T, cfg world.WorldConfig, cats *catalogs.Catalogs) *Harness {
	t.Helper()

	w, err := world.New(cfg, cats)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return NewHarnessWithWorld(t, w, cats)
}

// NewHarnessWithWorld is like NewHarness, but uses an already-constructed world instance.
// This is useful for snapshot round-trip tests where the snapshot is imported first.
func NewHarnessWithWorld(t *testing.T, w *world.World, cats *catalogs.Catalogs) *Harness {
	t.Helper()
	if w == nil {
		t.Fatalf("NewHarnessWithWorld: nil world")
	}
	h := &Harness{T: t, Cats: cats, W: w}
	w.AddAuditSink(func(e world.AuditEntry) { h.audits = append(h.audits, e) })
	return h
}

// FlatConfig is a small flat world with grass at y=16 and no ponds.
func FlatConfig() world.WorldConfig {
	return world.WorldConfig{
		ID:         "test",
		TickRateHz: 20,
		Height:     32,
		Seed:       42,
		BoundaryR:  128,
		Dimension:  "OVERWORLD",
		Terrain: gen.Params{
			SurfaceY:         16,
			SpawnClearRadius: 1000,
		},
		Pump: pump.DefaultConfig(),
	}
}

// PumpSite describes a pump structure. The furnace sits behind the anchor
// (opposite Forward) and the lever on LeverFace.
type PumpSite struct {
	Anchor    world.Vec3i
	Forward   blueprint.Rotation
	LeverFace blueprint.Face
	Indicator bool // cauldron on top of the anchor
	Feed      int
	Fuel      string
}

func (s PumpSite) Furnace() world.Vec3i {
	return s.Anchor.Offset(s.Forward.Opposite().Vector(), 1)
}

// Tube returns the cell of the n-th tube segment (1-based).
func (s PumpSite) Tube(n int) world.Vec3i {
	return s.Anchor.Offset(s.Forward.Vector(), n)
}

func (h *Harness) BuildPump(site PumpSite) {
	h.T.Helper()
	h.SetBlock(site.Anchor, pump.BlockAnchor)
	h.SetBlock(site.Furnace(), pump.BlockFurnace)
	if site.Indicator {
		h.SetBlock(site.Anchor.Offset(blueprint.FaceUp.Vector(), 1), pump.BlockCauldron)
	}
	h.SetBlock(site.Anchor.Offset(site.LeverFace.Vector(), 1), pump.BlockLever)
	c := h.W.Furnace(site.Furnace())
	if site.Feed > 0 {
		c.SetSlot(modelpkg.SlotFeed, h.W.Config().Pump.Liquid.Tube, site.Feed)
	}
	if site.Fuel != "" {
		c.SetSlot(modelpkg.SlotFuel, site.Fuel, 1)
	}
}

func (h *Harness) Agent(id string, perms ...string) {
	h.T.Helper()
	if _, err := h.W.AddAgent(id, "", perms...); err != nil {
		h.T.Fatalf("AddAgent: %v", err)
	}
}

func (h *Harness) Lever(agentID string, site PumpSite) bool {
	h.T.Helper()
	handled, err := h.W.UseLever(agentID, site.Anchor, site.LeverFace)
	if err != nil {
		h.T.Fatalf("UseLever: %v", err)
	}
	return handled
}

func (h *Harness) StepNoop() { h.W.Step() }

func (h *Harness) StepFor(n int) {
	for i := 0; i < n; i++ {
		h.W.Step()
	}
}

// RunUntilIdle steps until no pump is running and returns the number of steps.
func (h *Harness) RunUntilIdle(max int) int {
	h.T.Helper()
	for i := 0; i < max; i++ {
		if len(h.W.Pumps()) == 0 {
			return i
		}
		h.W.Step()
	}
	h.T.Fatalf("pumps still running after %d ticks: %#v", max, h.W.Pumps())
	return max
}

func (h *Harness) Snapshot() (tick uint64, snap snapshot.SnapshotV1) {
	h.T.Helper()
	// Keep tick stable: export at currentTick-1 then import would restore to currentTick.
	cur := h.W.CurrentTick()
	if cur == 0 {
		return 0, h.W.ExportSnapshot(0)
	}
	tick = cur - 1
	return tick, h.W.ExportSnapshot(tick)
}

func (h *Harness) SetBlock(pos world.Vec3i, blockName string) {
	h.T.Helper()
	if err := h.W.SetBlock(pos, blockName); err != nil {
		h.T.Fatalf("SetBlock: %v", err)
	}
}

// Fill sets every cell of the inclusive box from..to.
func (h *Harness) Fill(from, to world.Vec3i, blockName string) []world.Vec3i {
	h.T.Helper()
	var cells []world.Vec3i
	for y := min(from.Y, to.Y); y <= max(from.Y, to.Y); y++ {
		for z := min(from.Z, to.Z); z <= max(from.Z, to.Z); z++ {
			for x := min(from.X, to.X); x <= max(from.X, to.X); x++ {
				p := world.Vec3i{X: x, Y: y, Z: z}
				h.SetBlock(p, blockName)
				cells = append(cells, p)
			}
		}
	}
	return cells
}

func (h *Harness) Audits(action string) []world.AuditEntry {
	var out []world.AuditEntry
	for _, e := range h.audits {
		if action == "" || e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// Messages returns the texts sent to agentID.
func (h *Harness) Messages(agentID string) []string {
	var out []string
	for _, e := range h.Audits("MESSAGE") {
		if e.Actor == agentID {
			text, _ := e.Details["text"].(string)
			out = append(out, text)
		}
	}
	return out
}
