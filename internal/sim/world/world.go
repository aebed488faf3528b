package world

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"voxelpump.ai/internal/protocol"
	"voxelpump.ai/internal/sim/catalogs"
	"voxelpump.ai/internal/sim/world/feature/pump"
	modelpkg "voxelpump.ai/internal/sim/world/kernel/model"
	"voxelpump.ai/internal/sim/world/terrain/gen"
	"voxelpump.ai/internal/sim/world/terrain/store"
)

type Vec3i = modelpkg.Vec3i

type WorldConfig struct {
	ID         string
	TickRateHz int
	Height     int
	Seed       int64
	BoundaryR  int
	Dimension  string

	Terrain gen.Params
	Pump    pump.Config
}

// World hosts the voxel grid and every running pump.
// All state must be accessed only from the goroutine that calls Step (or Run).
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs

	tick atomic.Uint64

	chunks *store.ChunkStore

	agents   map[string]*modelpkg.Agent
	claims   map[string]*modelpkg.LandClaim
	furnaces map[Vec3i]*modelpkg.Container
	pumps    map[Vec3i]*pumpRun

	nextLandNum atomic.Uint64

	inbox chan LeverAction
	stop  chan struct{}

	// Optional sinks (may be nil). Implemented in internal/persistence/* and internal/transport/*.
	tickLogger  TickLogger
	auditLogger AuditLogger
	auditSinks  []func(AuditEntry)
	tickSinks   []func(TickLogEntry)

	levers []LeverRecord // applied since the last Step
}

func New(cfg WorldConfig, cats *catalogs.Catalogs) (*World, error) {
	if cats == nil {
		return nil, fmt.Errorf("world: nil catalogs")
	}
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = 20
	}
	if cfg.Dimension == "" {
		cfg.Dimension = "OVERWORLD"
	}
	if cfg.Pump.Liquid.Tube == "" {
		cfg.Pump = pump.DefaultConfig()
	}

	b := func(id string) (uint16, error) {
		v, ok := cats.BlockID(id)
		if !ok {
			return 0, fmt.Errorf("missing block id in palette: %s", id)
		}
		return v, nil
	}
	required := []string{"AIR", "BEDROCK", "STONE", "DIRT", "GRASS", "SAND", "NETHERRACK",
		pump.Water.Settled, pump.Lava.Settled,
		pump.BlockAnchor, pump.BlockLever, pump.BlockFurnace, pump.BlockCauldron,
		cfg.Pump.Liquid.Tube, cfg.Pump.Liquid.Flowing}
	ids := map[string]uint16{}
	for _, name := range required {
		v, err := b(name)
		if err != nil {
			return nil, err
		}
		ids[name] = v
	}

	terrain := cfg.Terrain
	terrain.Seed = cfg.Seed
	wg := store.WorldGen{
		Seed:            cfg.Seed,
		BoundaryR:       cfg.BoundaryR,
		Height:          cfg.Height,
		Terrain:         terrain,
		Air:             ids["AIR"],
		Bedrock:         ids["BEDROCK"],
		Stone:           ids["STONE"],
		Dirt:            ids["DIRT"],
		Grass:           ids["GRASS"],
		Sand:            ids["SAND"],
		Netherrack:      ids["NETHERRACK"],
		StationaryWater: ids[pump.Water.Settled],
		StationaryLava:  ids[pump.Lava.Settled],
		Nether:          cfg.Dimension == pump.DimensionNether,
	}

	w := &World{
		cfg:      cfg,
		catalogs: cats,
		chunks:   store.NewChunkStore(wg),
		agents:   map[string]*modelpkg.Agent{},
		claims:   map[string]*modelpkg.LandClaim{},
		furnaces: map[Vec3i]*modelpkg.Container{},
		pumps:    map[Vec3i]*pumpRun{},
		inbox:    make(chan LeverAction, 256),
		stop:     make(chan struct{}),
	}
	w.nextLandNum.Store(1)
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger)   { w.tickLogger = l }
func (w *World) SetAuditLogger(l AuditLogger) { w.auditLogger = l }

// AddAuditSink registers a callback that sees every audit entry after the logger.
func (w *World) AddAuditSink(fn func(AuditEntry)) {
	if fn != nil {
		w.auditSinks = append(w.auditSinks, fn)
	}
}

// AddTickSink registers a callback that sees every tick entry after the logger.
func (w *World) AddTickSink(fn func(TickLogEntry)) {
	if fn != nil {
		w.tickSinks = append(w.tickSinks, fn)
	}
}

func (w *World) Config() WorldConfig          { return w.cfg }
func (w *World) Catalogs() *catalogs.Catalogs { return w.catalogs }
func (w *World) Inbox() chan<- LeverAction    { return w.inbox }
func (w *World) CurrentTick() uint64          { return w.tick.Load() }
func (w *World) InBounds(pos Vec3i) bool      { return w.chunks.InBounds(pos.X, pos.Y, pos.Z) }
func (w *World) Dimension() string            { return w.cfg.Dimension }

// Run steps the world in real time, applying lever actions queued on Inbox at
// the start of each tick.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending []LeverAction
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case act := <-w.inbox:
			pending = append(pending, act)
		case <-ticker.C:
			w.ApplyLevers(pending)
			w.Step()
			pending = pending[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// ApplyLevers runs queued lever uses in order. Failures are audited as LEVER.
func (w *World) ApplyLevers(actions []LeverAction) {
	for _, act := range actions {
		w.levers = append(w.levers, LeverRecord{AgentID: act.AgentID, Anchor: act.Anchor.ToArray(), Face: act.Face.String()})
		if _, err := w.UseLever(act.AgentID, act.Anchor, act.Face); err != nil {
			w.auditEvent(w.CurrentTick(), act.AgentID, "LEVER", act.Anchor, protocol.ErrBadRequest, map[string]any{"error": err.Error()})
		}
	}
}
