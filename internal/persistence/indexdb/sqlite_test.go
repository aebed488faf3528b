package indexdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"voxelpump.ai/internal/persistence/snapshot"
	"voxelpump.ai/internal/sim/catalogs"
	"voxelpump.ai/internal/sim/tuning"
	"voxelpump.ai/internal/sim/world"
)

func openTestIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index", "world.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func syncIndex(t *testing.T, idx *SQLiteIndex) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := idx.Sync(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}
}

func TestSQLiteIndex_AuditEventsKeepWriteOrder(t *testing.T) {
	idx := openTestIndex(t)
	runID, err := idx.BeginRun("world_1", "pond", 1337)
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}

	entries := []world.AuditEntry{
		{Tick: 1, Actor: "A1", Action: "PUMP_ACTIVATE", Pos: [3]int{0, 17, 0}},
		{Tick: 2, Actor: "A1", Action: "SET_BLOCK", Pos: [3]int{1, 17, 0}, To: 7, Reason: "PUMP"},
		{Tick: 2, Actor: "A1", Action: "PUMP_STAGE", Pos: [3]int{0, 17, 0}},
		{Tick: 12, Actor: "A1", Action: "SET_BLOCK", Pos: [3]int{2, 17, 0}, To: 7, Reason: "PUMP"},
	}
	for _, e := range entries {
		if err := idx.WriteAudit(e); err != nil {
			t.Fatalf("write audit: %v", err)
		}
	}
	syncIndex(t, idx)

	all, err := idx.AuditEvents(runID, "")
	if err != nil {
		t.Fatalf("audit events: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(all))
	}
	if all[1].Seq != 0 || all[2].Seq != 1 || all[2].Action != "PUMP_STAGE" {
		t.Fatalf("unexpected per-tick sequence: %#v", all)
	}

	sets, err := idx.AuditEvents(runID, "SET_BLOCK")
	if err != nil {
		t.Fatalf("audit events: %v", err)
	}
	if len(sets) != 2 || sets[1].X != 2 || sets[1].To != 7 || sets[1].Reason != "PUMP" {
		t.Fatalf("unexpected SET_BLOCK rows: %#v", sets)
	}

	counts, err := idx.ActionCounts(runID)
	if err != nil {
		t.Fatalf("action counts: %v", err)
	}
	got := map[string]int{}
	for _, c := range counts {
		got[c.Action] = c.Count
	}
	if got["SET_BLOCK"] != 2 || got["PUMP_ACTIVATE"] != 1 || got["PUMP_STAGE"] != 1 {
		t.Fatalf("unexpected counts: %#v", got)
	}
}

func TestSQLiteIndex_FinishRunStampsDigest(t *testing.T) {
	idx := openTestIndex(t)
	runID, err := idx.BeginRun("world_1", "pond", 7)
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}
	if err := idx.WriteTick(world.TickLogEntry{Tick: 5, Digest: "abc"}); err != nil {
		t.Fatalf("write tick: %v", err)
	}
	idx.RecordSnapshot("snapshots/5.snap.zst", snapshot.SnapshotV1{Header: snapshot.Header{Tick: 5}})
	if err := idx.FinishRun(5, "abc"); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	d, err := idx.TickDigest(runID, 5)
	if err != nil || d != "abc" {
		t.Fatalf("tick digest: %q %v", d, err)
	}
	runs, err := idx.Runs()
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != runID || runs[0].Seed != 7 {
		t.Fatalf("unexpected runs: %#v", runs)
	}
	if runs[0].EndTick == nil || *runs[0].EndTick != 5 || runs[0].Digest == nil || *runs[0].Digest != "abc" {
		t.Fatalf("run not finished: %#v", runs[0])
	}

	var n int
	if err := idx.db.Get(&n, `SELECT COUNT(*) FROM snapshots WHERE run_id = ?`, runID); err != nil || n != 1 {
		t.Fatalf("snapshot rows: %d %v", n, err)
	}
}

func TestSQLiteIndex_FinishRunWithoutBegin(t *testing.T) {
	idx := openTestIndex(t)
	if err := idx.FinishRun(1, "x"); err == nil {
		t.Fatalf("expected error without a run")
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	idx := openTestIndex(t)
	cats := catalogs.Default()
	if err := idx.UpsertCatalogs(cats, tuning.Defaults()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	var names []string
	if err := idx.db.Select(&names, `SELECT name FROM catalogs ORDER BY name`); err != nil {
		t.Fatalf("select: %v", err)
	}
	want := []string{"blocks_defs", "blocks_palette", "items_defs", "tuning"}
	if len(names) != len(want) {
		t.Fatalf("catalog rows: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("catalog rows: %v", names)
		}
	}
}

func TestSQLiteIndex_StatsCountsDrops(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.runID.Store("")
	_ = s.WriteTick(world.TickLogEntry{Tick: 1})
	_ = s.WriteTick(world.TickLogEntry{Tick: 2})
	_ = s.WriteAudit(world.AuditEntry{Tick: 2})

	st := s.Stats()
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("unexpected queue stats: %#v", st)
	}
	if st.DropTickTotal != 1 || st.DropAuditTotal != 1 {
		t.Fatalf("unexpected drops: %#v", st)
	}
	if s.pending.Load() != 1 {
		t.Fatalf("pending=%d want 1", s.pending.Load())
	}
}
