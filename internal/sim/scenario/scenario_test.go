package scenario

import (
	"context"
	"strings"
	"testing"

	"voxelpump.ai/internal/sim/catalogs"
	"voxelpump.ai/internal/sim/tuning"
	"voxelpump.ai/internal/sim/world"
	"voxelpump.ai/internal/sim/world/feature/pump"
	modelpkg "voxelpump.ai/internal/sim/world/kernel/model"
	"voxelpump.ai/internal/sim/world/terrain/gen"
)

// Same layout as configs/scenarios but on a low flat world (grass at y=16).
const drainYAML = `
name: drain
ticks: 2000
stop_when_idle: true
agents:
  - id: A1
    permissions: [pump.activate, pump.deactivate-own]
blocks:
  - block: STATIONARY_WATER
    from: [1, 15, -1]
    to: [2, 16, 1]
  - {block: GOLD_BLOCK, at: [0, 17, 0]}
  - {block: FURNACE, at: [-1, 17, 0]}
  - {block: CAULDRON, at: [0, 18, 0]}
  - {block: LEVER, at: [0, 17, -1]}
furnaces:
  - pos: [-1, 17, 0]
    feed: {item: WOOD, count: 2}
timeline:
  - {tick: 0, agent: A1, anchor: [0, 17, 0], face: NORTH}
`

const fillYAML = `
name: fill
ticks: 2000
stop_when_idle: true
agents:
  - id: A1
    permissions: [pump.activate, pump.deactivate-own]
blocks:
  - block: AIR
    from: [1, 14, -1]
    to: [2, 16, 1]
  - {block: GOLD_BLOCK, at: [0, 17, 0]}
  - {block: FURNACE, at: [-1, 17, 0]}
  - {block: CAULDRON, at: [0, 18, 0]}
  - {block: LEVER, at: [0, 17, -1]}
furnaces:
  - pos: [-1, 17, 0]
    feed: {item: WOOD, count: 2}
    fuel: {item: WATER_BUCKET, count: 1}
timeline:
  - {tick: 0, agent: A1, anchor: [0, 17, 0], face: NORTH}
`

func newWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.New(world.WorldConfig{
		ID:         "test",
		TickRateHz: 20,
		Height:     32,
		Seed:       9,
		BoundaryR:  64,
		Terrain:    gen.Params{SurfaceY: 16, SpawnClearRadius: 1000},
		Pump:       pump.DefaultConfig(),
	}, catalogs.Default())
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return s
}

func TestPlay_DrainsPond(t *testing.T) {
	s := mustParse(t, drainYAML)
	w := newWorld(t)
	if err := s.Apply(w); err != nil {
		t.Fatalf("apply: %v", err)
	}
	res, err := Play(context.Background(), w, s, 0)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if res.Pumps != 0 || res.Ticks >= 2000 || res.Digest == "" {
		t.Fatalf("unexpected result: %#v", res)
	}
	for x := 1; x <= 2; x++ {
		for z := -1; z <= 1; z++ {
			for y := 15; y <= 16; y++ {
				if got := w.BlockAt(modelpkg.V(x, y, z)); got != "AIR" {
					t.Fatalf("(%d,%d,%d) not drained: %s", x, y, z, got)
				}
			}
		}
	}
	if c := w.Furnace(modelpkg.V(-1, 17, 0)).Slot(modelpkg.SlotFeed); c.Item != "WOOD" || c.Count != 2 {
		t.Fatalf("tube not returned: %#v", c)
	}
}

func TestPlay_FillsBasinBottomUp(t *testing.T) {
	s := mustParse(t, fillYAML)
	w := newWorld(t)
	if err := s.Apply(w); err != nil {
		t.Fatalf("apply: %v", err)
	}
	res, err := Play(context.Background(), w, s, 0)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if res.Pumps != 0 {
		t.Fatalf("pump still running: %#v", res)
	}
	for x := 1; x <= 2; x++ {
		for z := -1; z <= 1; z++ {
			for y := 14; y <= 16; y++ {
				p := modelpkg.V(x, y, z)
				if got := w.BlockAt(p); got != pump.Water.Settled || w.StateAt(p) != 0 {
					t.Fatalf("%v not filled: %s/%d", p, got, w.StateAt(p))
				}
			}
		}
	}
}

func TestPlay_SameScenarioSameDigest(t *testing.T) {
	run := func() Result {
		s := mustParse(t, drainYAML)
		w := newWorld(t)
		if err := s.Apply(w); err != nil {
			t.Fatalf("apply: %v", err)
		}
		res, err := Play(context.Background(), w, s, 0)
		if err != nil {
			t.Fatalf("play: %v", err)
		}
		return res
	}
	a, b := run(), run()
	if a != b {
		t.Fatalf("runs diverged: %#v vs %#v", a, b)
	}
}

func TestPlay_RespectsContext(t *testing.T) {
	s := mustParse(t, drainYAML)
	w := newWorld(t)
	if err := s.Apply(w); err != nil {
		t.Fatalf("apply: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Play(ctx, w, s, 10); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestParse_RejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing name":  `ticks: 5`,
		"unknown field": "name: x\nspeed: 3",
		"short pos":     "name: x\nblocks:\n  - {block: STONE, at: [1, 2]}",
		"at and box":    "name: x\nblocks:\n  - {block: STONE, at: [1, 2, 3], from: [0, 0, 0], to: [1, 1, 1]}",
		"bad face":      "name: x\nagents: [{id: A1}]\ntimeline:\n  - {tick: 0, agent: A1, anchor: [0, 0, 0], face: SIDEWAYS}",
		"unknown agent": "name: x\ntimeline:\n  - {tick: 0, agent: A9, anchor: [0, 0, 0], face: NORTH}",
		"bad perm":      "name: x\nagents: [{id: A1, permissions: [fly]}]",
		"dup agent":     "name: x\nagents: [{id: A1}, {id: A1}]",
	}
	for name, src := range cases {
		if _, err := Parse([]byte(src)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestApply_FurnaceNeedsBlock(t *testing.T) {
	s := mustParse(t, "name: x\nfurnaces:\n  - pos: [5, 17, 5]\n    feed: {item: WOOD, count: 1}")
	err := s.Apply(newWorld(t))
	if err == nil || !strings.Contains(err.Error(), "no furnace") {
		t.Fatalf("expected missing furnace error, got %v", err)
	}
}

func TestLoad_BundledScenarios(t *testing.T) {
	for _, name := range []string{"pond_drain.yaml", "pond_fill.yaml"} {
		s, err := Load("../../../configs/scenarios/" + name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(s.Timeline) == 0 || len(s.Agents) == 0 {
			t.Fatalf("%s: empty scenario", name)
		}
	}
}

func TestReplay_MatchesRecordedTicks(t *testing.T) {
	s := mustParse(t, drainYAML)
	w := newWorld(t)
	if err := s.Apply(w); err != nil {
		t.Fatalf("apply: %v", err)
	}
	var log []world.TickLogEntry
	w.AddTickSink(func(e world.TickLogEntry) { log = append(log, e) })
	if _, err := Play(context.Background(), w, s, 0); err != nil {
		t.Fatalf("play: %v", err)
	}
	if len(log) == 0 || len(log[0].Levers) != 1 {
		t.Fatalf("expected the lever in the first tick entry, got %d entries", len(log))
	}

	fresh := newWorld(t)
	s2 := mustParse(t, drainYAML)
	s2.Timeline = nil
	if err := s2.Apply(fresh); err != nil {
		t.Fatalf("apply: %v", err)
	}
	r := NewReplayer(fresh)
	for _, e := range log {
		if err := r.Apply(e); err != nil {
			t.Fatalf("replay: %v", err)
		}
	}
	if r.Checked != len(log) || len(fresh.Pumps()) != 0 {
		t.Fatalf("checked=%d of %d pumps=%d", r.Checked, len(log), len(fresh.Pumps()))
	}
}

func TestReplay_DetectsDivergence(t *testing.T) {
	s := mustParse(t, drainYAML)
	w := newWorld(t)
	if err := s.Apply(w); err != nil {
		t.Fatalf("apply: %v", err)
	}
	var log []world.TickLogEntry
	w.AddTickSink(func(e world.TickLogEntry) { log = append(log, e) })
	if _, err := Play(context.Background(), w, s, 30); err != nil {
		t.Fatalf("play: %v", err)
	}

	// Without the setup blocks the world diverges on the first tick.
	r := NewReplayer(newWorld(t))
	var err error
	for _, e := range log {
		if err = r.Apply(e); err != nil {
			break
		}
	}
	if err == nil || !strings.Contains(err.Error(), "digest mismatch") {
		t.Fatalf("expected digest mismatch, got %v", err)
	}
}

func TestWorldConfig_FromTuning(t *testing.T) {
	tune := tuning.Defaults()
	tune.Pump.Liquid = "lava"
	cfg, err := WorldConfig("w1", tune)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Terrain.SurfaceY != tune.SurfaceY || cfg.Pump.Liquid.Tube != pump.Lava.Tube || cfg.Seed != tune.Seed {
		t.Fatalf("unexpected config: %#v", cfg)
	}
	tune.Pump.Detect = "sideways"
	if _, err := WorldConfig("w1", tune); err == nil {
		t.Fatalf("expected bad detect strategy error")
	}
}

func TestClaimPolicy_OnlySetFlags(t *testing.T) {
	s := mustParse(t, "name: x\nagents: [{id: A1}]\nclaims:\n  - {owner: A1, anchor: [0, 17, 0], radius: 4, allow_break: true}")
	p := s.Claims[0].policy()
	if len(p) != 1 || !p["allow_break"] {
		t.Fatalf("unexpected policy: %v", p)
	}
}
