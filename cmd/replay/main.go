package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	persistlog "voxelpump.ai/internal/persistence/log"
	"voxelpump.ai/internal/persistence/snapshot"
	"voxelpump.ai/internal/sim/catalogs"
	"voxelpump.ai/internal/sim/scenario"
	"voxelpump.ai/internal/sim/tuning"
	"voxelpump.ai/internal/sim/world"
)

var errDone = errors.New("done")

func main() {
	var (
		snapPath     = flag.String("snapshot", "", "path to .snap.zst to start from (optional)")
		scenarioPath = flag.String("scenario", "", "scenario the run started from (used when -snapshot is empty)")
		ticksDir     = flag.String("ticks", "", "dir containing ticks-*.jsonl.zst (optional)")
		configDir    = flag.String("configs", "./configs", "config directory")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		toTick       = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *snapPath == "" && *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot or -scenario")
		os.Exit(2)
	}

	tp := *tuningPath
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			fail("load tuning", err)
		}
		tune = tuning.Defaults()
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fail("load catalogs", err)
	}

	var w *world.World
	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fail("read snapshot", err)
		}
		fmt.Printf("snapshot v%d world=%s tick=%d seed=%d height=%d dimension=%s chunks=%d agents=%d claims=%d furnaces=%d pumps=%d\n",
			snap.Header.Version, snap.Header.WorldID, snap.Header.Tick, snap.Seed, snap.Height, snap.Dimension,
			len(snap.Chunks), len(snap.Agents), len(snap.Claims), len(snap.Furnaces), len(snap.Pumps))
		if *ticksDir == "" {
			return
		}
		w, err = worldFromSnapshot(snap, tune, cats)
		if err != nil {
			fail("world", err)
		}
	} else {
		sc, err := scenario.Load(*scenarioPath)
		if err != nil {
			fail("load scenario", err)
		}
		w, err = scenario.NewWorld("replay", tune, cats)
		if err != nil {
			fail("world", err)
		}
		// Levers come from the tick log, not the timeline.
		sc.Timeline = nil
		if err := sc.Apply(w); err != nil {
			fail("apply scenario", err)
		}
	}
	if *ticksDir == "" {
		fmt.Fprintln(os.Stderr, "missing -ticks")
		os.Exit(2)
	}

	files, err := listTickFiles(*ticksDir)
	if err != nil {
		fail("list ticks", err)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no tick files found in", *ticksDir)
		os.Exit(1)
	}

	start := w.CurrentTick()
	r := scenario.NewReplayer(w)
	for _, path := range files {
		err := persistlog.ReadJSONL(path, func(e world.TickLogEntry) error {
			if *toTick != 0 && e.Tick > *toTick {
				return errDone
			}
			if err := r.Apply(e); err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			return nil
		})
		if errors.Is(err, errDone) {
			break
		}
		if err != nil {
			fail("replay", err)
		}
	}
	fmt.Printf("replay ok: checked=%d ticks (from tick=%d, skipped=%d) running=%d\n", r.Checked, start, r.Skipped, len(w.Pumps()))
}

// worldFromSnapshot rebuilds the world the snapshot was taken from. Terrain
// parameters that the snapshot does not carry come from tuning.
func worldFromSnapshot(snap snapshot.SnapshotV1, tune tuning.Tuning, cats *catalogs.Catalogs) (*world.World, error) {
	tune.Seed = snap.Seed
	tune.TickRateHz = snap.TickRate
	tune.Height = snap.Height
	tune.SurfaceY = snap.SurfaceY
	tune.BoundaryR = snap.BoundaryR
	tune.Dimension = snap.Dimension
	tune.Pump = tuning.Pump{
		MaxLength:  snap.PumpMaxLength,
		MaxDepth:   snap.PumpMaxDepth,
		DelayTicks: snap.PumpDelayTicks,
		Detect:     snap.PumpDetect,
		Liquid:     snap.PumpLiquid,
	}
	w, err := scenario.NewWorld(snap.Header.WorldID, tune, cats)
	if err != nil {
		return nil, err
	}
	if err := w.ImportSnapshot(snap); err != nil {
		return nil, fmt.Errorf("import snapshot: %w", err)
	}
	return w, nil
}

func listTickFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "ticks-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
