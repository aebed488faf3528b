package catalogs

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultMaxStack applies to items without an explicit max_stack.
const DefaultMaxStack = 64

type Catalogs struct {
	Blocks BlockCatalog
	Items  ItemCatalog
}

type BlockCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]BlockDef
	PaletteDigest string
	DefsDigest    string
}

type BlockDef struct {
	ID        string `json:"id"`
	Solid     bool   `json:"solid"`
	Breakable bool   `json:"breakable"`
	Liquid    string `json:"liquid,omitempty"`  // "water","lava"
	Settled   bool   `json:"settled,omitempty"` // stationary liquid with a level
}

type ItemCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"` // "BLOCK","TOOL","MATERIAL"
	PlaceAs  string `json:"place_as,omitempty"`
	BucketOf string `json:"bucket_of,omitempty"`
	MaxStack int    `json:"max_stack,omitempty"`
}

var (
	//go:embed defaults/blocks.json
	defaultBlocks []byte
	//go:embed defaults/items.json
	defaultItems []byte
)

// Default returns the built-in catalogs.
func Default() *Catalogs {
	var c Catalogs
	if err := parseBlocks(defaultBlocks, &c.Blocks); err != nil {
		panic(err)
	}
	if err := parseItems(defaultItems, &c.Items); err != nil {
		panic(err)
	}
	return &c
}

// Load reads blocks.json and items.json from configDir.
func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	raw, err := os.ReadFile(filepath.Join(configDir, "blocks.json"))
	if err != nil {
		return nil, err
	}
	if err := parseBlocks(raw, &c.Blocks); err != nil {
		return nil, err
	}
	raw, err = os.ReadFile(filepath.Join(configDir, "items.json"))
	if err != nil {
		return nil, err
	}
	if err := parseItems(raw, &c.Items); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalogs) BlockName(id uint16) string {
	if int(id) < len(c.Blocks.Palette) {
		return c.Blocks.Palette[id]
	}
	return "AIR"
}

func (c *Catalogs) BlockID(name string) (uint16, bool) {
	id, ok := c.Blocks.Index[name]
	return id, ok
}

func (c *Catalogs) MaxStack(item string) int {
	if d, ok := c.Items.Defs[item]; ok && d.MaxStack > 0 {
		return d.MaxStack
	}
	return DefaultMaxStack
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func parseBlocks(raw []byte, out *BlockCatalog) error {
	out.DefsDigest = sha256Hex(raw)

	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.Defs = map[string]BlockDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("blocks.json: empty id")
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Ensure AIR exists and is palette id 0.
	if _, ok := out.Defs["AIR"]; !ok {
		return fmt.Errorf("blocks.json: missing AIR")
	}
	ids = append([]string{"AIR"}, filterOut(ids, "AIR")...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func parseItems(raw []byte, out *ItemCatalog) error {
	out.DefsDigest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		if d.MaxStack < 0 {
			return fmt.Errorf("items.json: %s: negative max_stack", d.ID)
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func filterOut(in []string, remove string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == remove {
			continue
		}
		out = append(out, s)
	}
	return out
}
