package scenario

import (
	"fmt"

	"voxelpump.ai/internal/sim/catalogs"
	"voxelpump.ai/internal/sim/tuning"
	"voxelpump.ai/internal/sim/world"
	"voxelpump.ai/internal/sim/world/terrain/gen"
)

// WorldConfig maps a tuning file onto a world config.
func WorldConfig(id string, tune tuning.Tuning) (world.WorldConfig, error) {
	pc, err := tune.PumpConfig()
	if err != nil {
		return world.WorldConfig{}, fmt.Errorf("pump config: %w", err)
	}
	return world.WorldConfig{
		ID:         id,
		TickRateHz: tune.TickRateHz,
		Height:     tune.Height,
		Seed:       tune.Seed,
		BoundaryR:  tune.BoundaryR,
		Dimension:  tune.Dimension,
		Terrain: gen.Params{
			SurfaceY:         tune.SurfaceY,
			SpawnClearRadius: tune.Terrain.SpawnClearRadius,
			PondScale:        tune.Terrain.PondScale,
			PondThreshold:    tune.Terrain.PondThreshold,
			PondMaxDepth:     tune.Terrain.PondMaxDepth,
			LavaPermille:     tune.Terrain.LavaPermille,
		},
		Pump: pc,
	}, nil
}

func NewWorld(id string, tune tuning.Tuning, cats *catalogs.Catalogs) (*world.World, error) {
	cfg, err := WorldConfig(id, tune)
	if err != nil {
		return nil, err
	}
	return world.New(cfg, cats)
}
