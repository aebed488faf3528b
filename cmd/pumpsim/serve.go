package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"voxelpump.ai/internal/persistence/indexdb"
	"voxelpump.ai/internal/sim/scenario"
	"voxelpump.ai/internal/sim/world"
	"voxelpump.ai/internal/transport/observer"
	"voxelpump.ai/internal/transport/ws"
)

// serve runs the world in real time while agents and observers connect over
// websockets. Timeline levers are queued on the world inbox alongside agent
// levers, so the tick log (not the scenario) is what replays exactly.
func serve(ctx context.Context, addr string, w *world.World, sc *scenario.Scenario, ticks int, idx *indexdb.SQLiteIndex, logger *log.Logger) (scenario.Result, error) {
	if ticks <= 0 {
		ticks = sc.Ticks
	}
	start := w.CurrentTick()
	levers := sc.Levers()

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	obs := observer.NewServer(w, logger)
	obs.Attach(w)
	agents := ws.NewServer(w, logger)
	agents.Attach(w)

	w.AddTickSink(func(e world.TickLogEntry) {
		next := e.Tick + 1 - start
		for _, act := range levers[next] {
			select {
			case w.Inbox() <- act:
			default:
				logger.Printf("inbox full; dropped timeline lever of %s at tick %d", act.AgentID, e.Tick)
			}
		}
		if ticks > 0 && next >= uint64(ticks) {
			stop()
		}
	})
	w.ApplyLevers(levers[0])

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsHandler(w, obs, idx))
	mux.HandleFunc("/v1/observer/bootstrap", obs.BootstrapHandler())
	mux.HandleFunc("/v1/observe", obs.WSHandler())
	mux.HandleFunc("/v1/ws", agents.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Printf("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("ListenAndServe: %v", err)
			stop()
		}
	}()

	err := w.Run(runCtx)

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	res := scenario.Result{
		Ticks:   int(w.CurrentTick() - start),
		EndTick: w.CurrentTick(),
		Pumps:   len(w.Pumps()),
	}
	if res.EndTick > 0 {
		res.Digest = w.StateDigest(res.EndTick - 1)
	}
	if ctx.Err() == nil {
		// Stopped by the tick limit, not a signal.
		err = nil
	}
	return res, err
}

// metricsHandler serves a minimal Prometheus exposition. It only reads
// values that are safe to load off the world goroutine.
func metricsHandler(w *world.World, obs *observer.Server, idx *indexdb.SQLiteIndex) http.HandlerFunc {
	id := w.Config().ID
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		fmt.Fprintf(rw, "# HELP voxelpump_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE voxelpump_world_tick gauge\n")
		fmt.Fprintf(rw, "voxelpump_world_tick{world=%q} %d\n", id, w.CurrentTick())

		fmt.Fprintf(rw, "# HELP voxelpump_observer_subscribers Connected observers.\n")
		fmt.Fprintf(rw, "# TYPE voxelpump_observer_subscribers gauge\n")
		fmt.Fprintf(rw, "voxelpump_observer_subscribers{world=%q} %d\n", id, obs.Subscribers())

		fmt.Fprintf(rw, "# HELP voxelpump_observer_dropped_total Observers disconnected for falling behind.\n")
		fmt.Fprintf(rw, "# TYPE voxelpump_observer_dropped_total counter\n")
		fmt.Fprintf(rw, "voxelpump_observer_dropped_total{world=%q} %d\n", id, obs.Dropped())

		if idx == nil {
			return
		}
		st := idx.Stats()
		fmt.Fprintf(rw, "# HELP voxelpump_index_queue_depth Index writer backlog.\n")
		fmt.Fprintf(rw, "# TYPE voxelpump_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "voxelpump_index_queue_depth{world=%q} %d\n", id, st.QueueDepth)

		fmt.Fprintf(rw, "# HELP voxelpump_index_dropped_total Index writes dropped because the queue was full.\n")
		fmt.Fprintf(rw, "# TYPE voxelpump_index_dropped_total counter\n")
		fmt.Fprintf(rw, "voxelpump_index_dropped_total{world=%q,kind=%q} %d\n", id, "tick", st.DropTickTotal)
		fmt.Fprintf(rw, "voxelpump_index_dropped_total{world=%q,kind=%q} %d\n", id, "audit", st.DropAuditTotal)
		fmt.Fprintf(rw, "voxelpump_index_dropped_total{world=%q,kind=%q} %d\n", id, "snapshot", st.DropSnapshotTotal)
	}
}
