package store

import (
	"testing"

	genpkg "voxelpump.ai/internal/sim/world/terrain/gen"
)

const (
	tAir uint16 = iota
	tBedrock
	tStone
	tDirt
	tGrass
	tSand
	tNetherrack
	tWater
	tLava
)

func testGen() WorldGen {
	return WorldGen{
		Seed:      5,
		BoundaryR: 64,
		Height:    24,
		Terrain: genpkg.Params{
			SurfaceY:         12,
			SpawnClearRadius: 200,
		},
		Air: tAir, Bedrock: tBedrock, Stone: tStone, Dirt: tDirt, Grass: tGrass,
		Sand: tSand, Netherrack: tNetherrack, StationaryWater: tWater, StationaryLava: tLava,
	}
}

func TestFlatColumnLayers(t *testing.T) {
	s := NewChunkStore(testGen())
	want := map[int]uint16{0: tBedrock, 1: tStone, 8: tStone, 9: tDirt, 11: tDirt, 12: tGrass, 13: tAir, 23: tAir}
	for y, b := range want {
		if got := s.GetBlock(-3, y, 5); got != b {
			t.Fatalf("y=%d: got %d want %d", y, got, b)
		}
	}
}

func TestSetBlockResetsState(t *testing.T) {
	s := NewChunkStore(testGen())
	s.SetBlock(-17, 13, 40, tStone)
	s.SetState(-17, 13, 40, 3)
	if got := s.GetState(-17, 13, 40); got != 3 {
		t.Fatalf("state: got %d want 3", got)
	}
	before := s.GetOrGenChunk(-2, 2).Digest()
	s.SetBlock(-17, 13, 40, tWater)
	if got := s.GetState(-17, 13, 40); got != 0 {
		t.Fatalf("SetBlock must reset state, got %d", got)
	}
	if s.GetOrGenChunk(-2, 2).Digest() == before {
		t.Fatalf("digest did not change after write")
	}
}

func TestBounds(t *testing.T) {
	s := NewChunkStore(testGen())
	for _, p := range [][3]int{{0, -1, 0}, {0, 24, 0}, {65, 5, 0}, {0, 5, -65}} {
		if s.InBounds(p[0], p[1], p[2]) {
			t.Fatalf("%v should be out of bounds", p)
		}
		s.SetBlock(p[0], p[1], p[2], tStone)
		if got := s.GetBlock(p[0], p[1], p[2]); got != tAir {
			t.Fatalf("out of bounds read should be air, got %d", got)
		}
	}
	if len(s.LoadedChunkKeys()) != 0 {
		t.Fatalf("out of bounds access must not generate chunks")
	}
}

func TestPondsAreSettledLiquidOnSand(t *testing.T) {
	g := testGen()
	g.Terrain.SpawnClearRadius = 0
	g.Terrain.PondScale = 0.1
	g.Terrain.PondThreshold = 0.45
	g.Terrain.PondMaxDepth = 3
	s := NewChunkStore(g)
	found := false
	for x := 0; x < 48 && !found; x++ {
		for z := 0; z < 48 && !found; z++ {
			if s.GetBlock(x, 12, z) != tWater {
				continue
			}
			found = true
			y := 12
			for s.GetBlock(x, y, z) == tWater {
				y--
			}
			if s.GetBlock(x, y, z) != tSand {
				t.Fatalf("pond bed at %d,%d,%d is %d, want sand", x, y, z, s.GetBlock(x, y, z))
			}
			if 12-y > 3 {
				t.Fatalf("pond deeper than max depth at %d,%d", x, z)
			}
		}
	}
	if !found {
		t.Fatalf("expected a pond in the sampled area")
	}
}
