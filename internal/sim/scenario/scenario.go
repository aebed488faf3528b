package scenario

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"voxelpump.ai/internal/sim/world"
	"voxelpump.ai/internal/sim/world/feature/governance/claims"
	modelpkg "voxelpump.ai/internal/sim/world/kernel/model"
	"voxelpump.ai/internal/sim/world/logic/blueprint"
)

// Scenario is a scripted pump run: the blocks and inventories to set up,
// who may do what, and when agents pull which lever.
type Scenario struct {
	Name         string       `yaml:"name"`
	Ticks        int          `yaml:"ticks"`
	StopWhenIdle bool         `yaml:"stop_when_idle"`
	Agents       []Agent      `yaml:"agents"`
	Claims       []Claim      `yaml:"claims"`
	Blocks       []Blocks     `yaml:"blocks"`
	Furnaces     []Furnace    `yaml:"furnaces"`
	Timeline     []LeverEvent `yaml:"timeline"`
}

type Agent struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type Claim struct {
	Owner      string   `yaml:"owner"`
	Anchor     [3]int   `yaml:"anchor"`
	Radius     int      `yaml:"radius"`
	AllowBuild *bool    `yaml:"allow_build"`
	AllowBreak *bool    `yaml:"allow_break"`
	Members    []string `yaml:"members"`
}

// Blocks sets one cell (At) or every cell of the inclusive box From..To.
type Blocks struct {
	Block string  `yaml:"block"`
	State int     `yaml:"state"`
	At    *[3]int `yaml:"at"`
	From  *[3]int `yaml:"from"`
	To    *[3]int `yaml:"to"`
}

type Furnace struct {
	Pos  [3]int `yaml:"pos"`
	Feed *Stack `yaml:"feed"`
	Fuel *Stack `yaml:"fuel"`
}

type Stack struct {
	Item  string `yaml:"item"`
	Count int    `yaml:"count"`
}

// LeverEvent fires Tick ticks after the scenario starts.
type LeverEvent struct {
	Tick   uint64 `yaml:"tick"`
	Agent  string `yaml:"agent"`
	Anchor [3]int `yaml:"anchor"`
	Face   string `yaml:"face"`
}

//go:embed schema/scenario.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("scenario.schema.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile("scenario.schema.json")
	})
	return schema, schemaErr
}

func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a YAML scenario and validates it against the embedded schema.
func Parse(b []byte) (*Scenario, error) {
	if err := Validate(b); err != nil {
		return nil, err
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks raw YAML against the scenario schema.
func Validate(b []byte) error {
	sch, err := compiled()
	if err != nil {
		return fmt.Errorf("scenario schema: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return err
	}
	// Round-trip through JSON so the validator sees JSON value types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return sch.Validate(v)
}

func (s *Scenario) check() error {
	agents := map[string]bool{}
	for _, a := range s.Agents {
		if agents[a.ID] {
			return fmt.Errorf("duplicate agent %s", a.ID)
		}
		agents[a.ID] = true
	}
	for i, ev := range s.Timeline {
		if !agents[ev.Agent] {
			return fmt.Errorf("timeline[%d]: unknown agent %s", i, ev.Agent)
		}
		if _, ok := blueprint.ParseFace(ev.Face); !ok {
			return fmt.Errorf("timeline[%d]: bad face %q", i, ev.Face)
		}
	}
	for i, c := range s.Claims {
		if !agents[c.Owner] {
			return fmt.Errorf("claims[%d]: unknown owner %s", i, c.Owner)
		}
	}
	return nil
}

// Apply builds the scenario's starting state in w.
func (s *Scenario) Apply(w *world.World) error {
	for _, a := range s.Agents {
		if _, err := w.AddAgent(a.ID, a.Name, a.Permissions...); err != nil {
			return fmt.Errorf("agent %s: %w", a.ID, err)
		}
	}
	for i, b := range s.Blocks {
		block := strings.ToUpper(strings.TrimSpace(b.Block))
		for _, p := range b.cells() {
			if err := w.SetBlock(p, block); err != nil {
				return fmt.Errorf("blocks[%d]: %w", i, err)
			}
			if b.State != 0 {
				w.SetState(p, b.State)
			}
		}
	}
	for i, f := range s.Furnaces {
		pos := vec(f.Pos)
		c := w.Furnace(pos)
		if c == nil {
			return fmt.Errorf("furnaces[%d]: no furnace at %v", i, pos)
		}
		if f.Feed != nil {
			c.SetSlot(modelpkg.SlotFeed, f.Feed.Item, f.Feed.Count)
		}
		if f.Fuel != nil {
			c.SetSlot(modelpkg.SlotFuel, f.Fuel.Item, f.Fuel.Count)
		}
	}
	for i, c := range s.Claims {
		flags := claims.ApplyPolicyFlags(claims.DefaultFlags(), c.policy())
		if _, err := w.AddClaim(c.Owner, vec(c.Anchor), c.Radius, flags, c.Members...); err != nil {
			return fmt.Errorf("claims[%d]: %w", i, err)
		}
	}
	return nil
}

// policy holds only the flags the scenario sets; the rest keep their defaults.
func (c Claim) policy() map[string]bool {
	p := map[string]bool{}
	if c.AllowBuild != nil {
		p["allow_build"] = *c.AllowBuild
	}
	if c.AllowBreak != nil {
		p["allow_break"] = *c.AllowBreak
	}
	return p
}

func (b Blocks) cells() []world.Vec3i {
	if b.At != nil {
		return []world.Vec3i{vec(*b.At)}
	}
	if b.From == nil || b.To == nil {
		return nil
	}
	lo, hi := *b.From, *b.To
	for i := 0; i < 3; i++ {
		if lo[i] > hi[i] {
			lo[i], hi[i] = hi[i], lo[i]
		}
	}
	var out []world.Vec3i
	for y := lo[1]; y <= hi[1]; y++ {
		for z := lo[2]; z <= hi[2]; z++ {
			for x := lo[0]; x <= hi[0]; x++ {
				out = append(out, world.Vec3i{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

// Levers groups the timeline by tick offset, keeping file order within a tick.
func (s *Scenario) Levers() map[uint64][]world.LeverAction {
	out := map[uint64][]world.LeverAction{}
	for _, ev := range s.Timeline {
		face, _ := blueprint.ParseFace(ev.Face)
		out[ev.Tick] = append(out[ev.Tick], world.LeverAction{
			AgentID: ev.Agent,
			Anchor:  vec(ev.Anchor),
			Face:    face,
		})
	}
	return out
}

func (s *Scenario) lastEvent() uint64 {
	ticks := make([]uint64, 0, len(s.Timeline))
	for _, ev := range s.Timeline {
		ticks = append(ticks, ev.Tick)
	}
	if len(ticks) == 0 {
		return 0
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })
	return ticks[len(ticks)-1]
}

func vec(p [3]int) world.Vec3i { return world.Vec3i{X: p[0], Y: p[1], Z: p[2]} }
