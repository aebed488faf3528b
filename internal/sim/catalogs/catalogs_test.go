package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_AirIsPaletteZero(t *testing.T) {
	c := Default()
	if c.Blocks.Palette[0] != "AIR" || c.Blocks.Index["AIR"] != 0 {
		t.Fatalf("AIR must be palette id 0: %v", c.Blocks.Palette[:3])
	}
	for _, id := range []string{"GOLD_BLOCK", "FURNACE", "CAULDRON", "LEVER", "WOOD", "STATIONARY_WATER", "STATIONARY_LAVA"} {
		bid, ok := c.BlockID(id)
		if !ok {
			t.Fatalf("missing block %s", id)
		}
		if c.BlockName(bid) != id {
			t.Fatalf("BlockName(%d)=%s want %s", bid, c.BlockName(bid), id)
		}
	}
	if !c.Blocks.Defs["STATIONARY_WATER"].Settled || c.Blocks.Defs["WATER"].Liquid != "water" {
		t.Fatalf("liquid defs not decoded")
	}
}

func TestMaxStack(t *testing.T) {
	c := Default()
	if got := c.MaxStack("WOOD"); got != 64 {
		t.Fatalf("WOOD max stack=%d", got)
	}
	if got := c.MaxStack("WATER_BUCKET"); got != 1 {
		t.Fatalf("WATER_BUCKET max stack=%d", got)
	}
	if got := c.MaxStack("UNKNOWN"); got != DefaultMaxStack {
		t.Fatalf("unknown item max stack=%d", got)
	}
}

func TestLoad_FromDirAndErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected error for empty dir")
	}
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("blocks.json", `[{"id":"STONE","solid":true}]`)
	write("items.json", `[]`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected missing AIR error")
	}
	write("blocks.json", `[{"id":"STONE","solid":true},{"id":"AIR"}]`)
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Blocks.Index["AIR"] != 0 || c.Blocks.Index["STONE"] != 1 {
		t.Fatalf("unexpected index %v", c.Blocks.Index)
	}
	if c.Blocks.DefsDigest == "" || c.Blocks.PaletteDigest == "" {
		t.Fatalf("digests missing")
	}
}
