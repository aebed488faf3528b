package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	persistlog "voxelpump.ai/internal/persistence/log"
	"voxelpump.ai/internal/persistence/snapshot"
	"voxelpump.ai/internal/sim/catalogs"
	"voxelpump.ai/internal/sim/scenario"
	"voxelpump.ai/internal/sim/tuning"
	"voxelpump.ai/internal/sim/world"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "./configs/scenarios/pond_drain.yaml", "scenario file")
		worldID      = flag.String("world", "world_1", "world id")
		configDir    = flag.String("configs", "./configs", "config directory")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		ticks        = flag.Int("ticks", 0, "ticks to simulate (default: the scenario's ticks)")
		observeAddr  = flag.String("observe", "", "serve observers and agents on this address and step in real time (empty: step as fast as possible)")
		disableDB    = flag.Bool("disable_db", false, "disable the sqlite index (ticks/audit + catalogs + snapshot metadata)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[pumpsim] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	sc, err := scenario.Load(*scenarioPath)
	if err != nil {
		logger.Fatalf("load scenario: %v", err)
	}

	w, err := scenario.NewWorld(*worldID, tune, cats)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	// Optional read-model index (does not affect sim determinism).
	idx, err := openIndex(worldDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		runID, err := idx.BeginRun(*worldID, sc.Name, tune.Seed)
		if err != nil {
			logger.Fatalf("index: %v", err)
		}
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
		w.AddTickSink(func(e world.TickLogEntry) { _ = idx.WriteTick(e) })
		w.AddAuditSink(func(e world.AuditEntry) { _ = idx.WriteAudit(e) })
		logger.Printf("index run_id=%s", runID)
	}

	tickLog := persistlog.NewTickLogger(worldDir)
	auditLog := persistlog.NewAuditLogger(worldDir)
	defer tickLog.Close()
	defer auditLog.Close()
	w.SetTickLogger(tickLog)
	w.SetAuditLogger(auditLog)

	if err := sc.Apply(w); err != nil {
		logger.Fatalf("apply scenario: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	var res scenario.Result
	if addr := strings.TrimSpace(*observeAddr); addr != "" {
		res, err = serve(ctx, addr, w, sc, *ticks, idx, logger)
	} else {
		res, err = scenario.Play(ctx, w, sc, *ticks)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("run: %v", err)
	}

	if res.EndTick > 0 {
		snap := w.ExportSnapshot(res.EndTick - 1)
		if idx != nil {
			snap.Header.RunID = idx.RunID()
		}
		path := filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
		if err := snapshot.WriteSnapshot(path, snap); err != nil {
			logger.Printf("snapshot write: %v", err)
		} else {
			logger.Printf("snapshot=%s", path)
			if idx != nil {
				idx.RecordSnapshot(path, snap)
			}
		}
	}
	if idx != nil {
		if err := idx.FinishRun(res.EndTick, res.Digest); err != nil {
			logger.Printf("index: %v", err)
		}
		if st := idx.Stats(); st.DropTickTotal+st.DropAuditTotal+st.DropSnapshotTotal > 0 {
			logger.Printf("index dropped ticks=%d audits=%d snapshots=%d", st.DropTickTotal, st.DropAuditTotal, st.DropSnapshotTotal)
		}
	}

	logger.Printf("scenario=%s ticks=%d end_tick=%d running=%d digest=%s", sc.Name, res.Ticks, res.EndTick, res.Pumps, res.Digest)
	counts := auditLog.Counts()
	actions := make([]string, 0, len(counts))
	for a := range counts {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	for _, a := range actions {
		logger.Printf("  %-16s %d", a, counts[a])
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
