package world

import (
	"fmt"
	"sort"

	"voxelpump.ai/internal/persistence/snapshot"
	"voxelpump.ai/internal/protocol"
	"voxelpump.ai/internal/sim/world/feature/pump"
	modelpkg "voxelpump.ai/internal/sim/world/kernel/model"
	"voxelpump.ai/internal/sim/world/logic/blueprint"
	"voxelpump.ai/internal/sim/world/logic/ids"
	"voxelpump.ai/internal/sim/world/terrain/store"
)

func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	s := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			Tick:    nowTick,
		},
		Seed:      w.cfg.Seed,
		TickRate:  w.cfg.TickRateHz,
		Height:    w.cfg.Height,
		SurfaceY:  w.cfg.Terrain.SurfaceY,
		BoundaryR: w.cfg.BoundaryR,
		Dimension: w.cfg.Dimension,

		PumpMaxLength:  w.cfg.Pump.MaxLength,
		PumpMaxDepth:   w.cfg.Pump.MaxDepth,
		PumpDelayTicks: w.cfg.Pump.DelayTicks,
		PumpDetect:     string(w.cfg.Pump.Strategy),
		PumpLiquid:     w.cfg.Pump.Liquid.Name,

		Chunks:   store.ExportLoadedChunks(w.chunks.Chunks, w.chunks.LoadedChunkKeys()),
		Counters: snapshot.CountersV1{NextLand: w.nextLandNum.Load()},
	}

	agentIDs := make([]string, 0, len(w.agents))
	for id := range w.agents {
		agentIDs = append(agentIDs, id)
	}
	sort.Strings(agentIDs)
	for _, id := range agentIDs {
		a := w.agents[id]
		s.Agents = append(s.Agents, snapshot.AgentV1{ID: a.ID, Name: a.Name, Permissions: a.PermissionList()})
	}

	landIDs := make([]string, 0, len(w.claims))
	for id := range w.claims {
		landIDs = append(landIDs, id)
	}
	sort.Strings(landIDs)
	for _, id := range landIDs {
		c := w.claims[id]
		members := make([]string, 0, len(c.Members))
		for m, ok := range c.Members {
			if ok {
				members = append(members, m)
			}
		}
		sort.Strings(members)
		s.Claims = append(s.Claims, snapshot.ClaimV1{
			LandID:     c.LandID,
			Owner:      c.Owner,
			Anchor:     c.Anchor.ToArray(),
			Radius:     c.Radius,
			AllowBuild: c.Flags.AllowBuild,
			AllowBreak: c.Flags.AllowBreak,
			Members:    members,
		})
	}

	for _, pos := range sortedPositions(w.furnaces) {
		c := w.furnaces[pos]
		slots := map[string]snapshot.SlotV1{}
		for name, sl := range c.Slots {
			if !sl.Empty() {
				slots[name] = snapshot.SlotV1{Item: sl.Item, Count: sl.Count}
			}
		}
		s.Furnaces = append(s.Furnaces, snapshot.ContainerV1{Type: c.Type, Pos: pos.ToArray(), Slots: slots})
	}

	for _, st := range w.Pumps() {
		run := w.pumps[modelpkg.FromArray(st.Anchor)]
		tube := make([][3]int, 0, st.Tube)
		for _, p := range run.m.Tube() {
			tube = append(tube, p.ToArray())
		}
		s.Pumps = append(s.Pumps, snapshot.PumpV1{
			ID:         st.ID,
			Owner:      st.Owner,
			Anchor:     st.Anchor,
			Rotation:   int(run.m.Rotation()),
			LeverFace:  run.m.LeverFace().String(),
			Stage:      st.Stage,
			Tube:       tube,
			NextTick:   st.NextTick,
			Progress:   st.Progress,
			TotalCells: st.Total,
		})
	}
	return s
}

// ImportSnapshot replaces the current in-memory world state with the snapshot.
// It sets the world's tick to snapshotTick+1 (the next tick to simulate).
// Pumps that were running come back retracting so their tubes are recovered.
//
// This must be called only when the world is stopped or from the world loop goroutine.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	if s.Header.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version: %d", s.Header.Version)
	}
	if w.cfg.Seed != s.Seed {
		return fmt.Errorf("snapshot seed mismatch: cfg=%d snap=%d", w.cfg.Seed, s.Seed)
	}
	if w.cfg.Height != s.Height {
		return fmt.Errorf("snapshot height mismatch: cfg=%d snap=%d", w.cfg.Height, s.Height)
	}
	if w.cfg.BoundaryR != s.BoundaryR {
		return fmt.Errorf("snapshot boundary_r mismatch: cfg=%d snap=%d", w.cfg.BoundaryR, s.BoundaryR)
	}
	if w.cfg.Dimension != s.Dimension {
		return fmt.Errorf("snapshot dimension mismatch: cfg=%s snap=%s", w.cfg.Dimension, s.Dimension)
	}

	chunks, err := store.ImportChunks(w.chunks.Gen, s.Chunks)
	if err != nil {
		return err
	}
	w.chunks = chunks

	w.agents = map[string]*modelpkg.Agent{}
	for _, a := range s.Agents {
		ag := &modelpkg.Agent{ID: a.ID, Name: a.Name}
		ag.Grant(a.Permissions...)
		w.agents[a.ID] = ag
	}

	w.claims = map[string]*modelpkg.LandClaim{}
	maxLand := uint64(0)
	for _, c := range s.Claims {
		lc := &modelpkg.LandClaim{
			LandID:  c.LandID,
			Owner:   c.Owner,
			Anchor:  modelpkg.FromArray(c.Anchor),
			Radius:  c.Radius,
			Flags:   modelpkg.ClaimFlags{AllowBuild: c.AllowBuild, AllowBreak: c.AllowBreak},
			Members: map[string]bool{},
		}
		for _, m := range c.Members {
			lc.Members[m] = true
		}
		w.claims[c.LandID] = lc
		if n, ok := ids.ParseLandNum(c.LandID); ok && n > maxLand {
			maxLand = n
		}
	}
	next := s.Counters.NextLand
	if next <= maxLand {
		next = maxLand + 1
	}
	if next == 0 {
		next = 1
	}
	w.nextLandNum.Store(next)

	w.furnaces = map[Vec3i]*modelpkg.Container{}
	for _, f := range s.Furnaces {
		pos := modelpkg.FromArray(f.Pos)
		c := modelpkg.NewContainer(f.Type, pos)
		for name, sl := range f.Slots {
			c.SetSlot(name, sl.Item, sl.Count)
		}
		w.furnaces[pos] = c
	}

	w.tick.Store(s.Header.Tick + 1)
	w.pumps = map[Vec3i]*pumpRun{}
	for _, p := range s.Pumps {
		w.resumePump(p)
	}
	return nil
}

func (w *World) resumePump(p snapshot.PumpV1) {
	anchor := modelpkg.FromArray(p.Anchor)
	now := w.CurrentTick()
	face, faceOK := blueprint.ParseFace(p.LeverFace)
	tube := make([]Vec3i, 0, len(p.Tube))
	for _, t := range p.Tube {
		tube = append(tube, modelpkg.FromArray(t))
	}
	if owner := w.agents[p.Owner]; owner != nil && faceOK {
		if m, ok := pump.Resume(w.pumpEnv(p.Owner), w.cfg.Pump, w.actorFor(owner), anchor, face, tube); ok {
			w.pumps[anchor] = &pumpRun{m: m, owner: p.Owner, due: now, since: now}
			w.auditEvent(now, p.Owner, "PUMP_RESUME", anchor, "", map[string]any{"id": p.ID, "tube": len(tube)})
			return
		}
	}
	// The structure no longer matches: put the furnace out so the anchor can
	// be reused.
	rot := blueprint.Rotation(blueprint.NormalizeRotation(p.Rotation))
	furnacePos := anchor.Offset(rot.Opposite().Vector(), 1)
	if w.BlockAt(furnacePos) == pump.BlockFurnace {
		w.SetState(furnacePos, pump.FurnaceIdle)
	}
	w.auditEvent(now, p.Owner, "PUMP_DEACTIVATE", anchor, protocol.ErrInvalidTarget, map[string]any{"id": p.ID, "tube": len(tube)})
}

func sortedPositions[T any](m map[Vec3i]T) []Vec3i {
	out := make([]Vec3i, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
