package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"voxelpump.ai/internal/sim/world/feature/pump"
)

type Tuning struct {
	TickRateHz int    `yaml:"tick_rate_hz"`
	Seed       int64  `yaml:"seed"`
	BoundaryR  int    `yaml:"world_boundary_r"`
	Height     int    `yaml:"height"`
	SurfaceY   int    `yaml:"surface_y"`
	Dimension  string `yaml:"dimension"`

	Terrain Terrain `yaml:"terrain"`
	Pump    Pump    `yaml:"pump"`
}

type Terrain struct {
	PondScale        float64 `yaml:"pond_scale"`
	PondThreshold    float64 `yaml:"pond_threshold"`
	PondMaxDepth     int     `yaml:"pond_max_depth"`
	LavaPermille     int     `yaml:"lava_permille"`
	SpawnClearRadius int     `yaml:"spawn_clear_radius"`
}

type Pump struct {
	MaxLength  int    `yaml:"max_length"`
	MaxDepth   int    `yaml:"max_depth"`
	DelayTicks int    `yaml:"delay_ticks"`
	Detect     string `yaml:"detect"`
	Liquid     string `yaml:"liquid"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz: 20,
		Seed:       1337,
		BoundaryR:  256,
		Height:     128,
		SurfaceY:   64,
		Dimension:  "OVERWORLD",
		Terrain: Terrain{
			PondScale:        0.045,
			PondThreshold:    0.62,
			PondMaxDepth:     6,
			LavaPermille:     0,
			SpawnClearRadius: 8,
		},
		Pump: Pump{
			MaxLength:  pump.DefaultMaxLength,
			MaxDepth:   pump.DefaultMaxDepth,
			DelayTicks: pump.DefaultDelayTicks,
			Detect:     string(pump.StrategyFourWay),
			Liquid:     pump.Water.Name,
		},
	}
}

// Load reads a tuning file. Keys missing from the file keep their defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.Height <= 0 || t.Height > 512 {
		return fmt.Errorf("height %d out of range (1..512)", t.Height)
	}
	if t.SurfaceY <= 0 || t.SurfaceY >= t.Height {
		return fmt.Errorf("surface_y %d must be inside (0,%d)", t.SurfaceY, t.Height)
	}
	if t.Pump.MaxLength <= 0 || t.Pump.MaxDepth <= 0 || t.Pump.DelayTicks <= 0 {
		return fmt.Errorf("pump limits must be positive")
	}
	if t.Terrain.LavaPermille < 0 || t.Terrain.LavaPermille > 1000 {
		return fmt.Errorf("terrain.lava_permille %d out of range", t.Terrain.LavaPermille)
	}
	if _, err := pump.ParseStrategy(t.Pump.Detect); err != nil {
		return err
	}
	if _, ok := pump.LiquidByName(t.Pump.Liquid); !ok {
		return fmt.Errorf("unknown pump liquid %q", t.Pump.Liquid)
	}
	return nil
}

// PumpConfig converts the pump section into the runtime config.
func (t Tuning) PumpConfig() (pump.Config, error) {
	strategy, err := pump.ParseStrategy(t.Pump.Detect)
	if err != nil {
		return pump.Config{}, err
	}
	liquid, ok := pump.LiquidByName(t.Pump.Liquid)
	if !ok {
		return pump.Config{}, fmt.Errorf("unknown pump liquid %q", t.Pump.Liquid)
	}
	return pump.Config{
		MaxLength:  t.Pump.MaxLength,
		MaxDepth:   t.Pump.MaxDepth,
		DelayTicks: t.Pump.DelayTicks,
		Strategy:   strategy,
		Liquid:     liquid,
	}, nil
}
