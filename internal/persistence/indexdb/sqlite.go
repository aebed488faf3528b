package indexdb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"voxelpump.ai/internal/persistence/snapshot"
	"voxelpump.ai/internal/sim/catalogs"
	"voxelpump.ai/internal/sim/tuning"
	"voxelpump.ai/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index of a run's ticks and audit
// entries. Writes are queued and applied by one goroutine; the JSONL logs
// stay the source of truth.
type SQLiteIndex struct {
	db *sqlx.DB

	runID atomic.Value // string

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	pending atomic.Int64 // queued or uncommitted requests

	dropTick     atomic.Uint64
	dropAudit    atomic.Uint64
	dropSnapshot atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqAudit
	reqSnapshot
)

type req struct {
	kind  reqKind
	runID string

	tick     world.TickLogEntry
	audit    world.AuditEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	Tick     uint64
	Path     string
	Chunks   int
	Agents   int
	Furnaces int
	Pumps    int
}

type Stats struct {
	QueueDepth        int
	QueueCapacity     int
	DropTickTotal     uint64
	DropAuditTotal    uint64
	DropSnapshotTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 262144)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index pragmas: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index schema: %w", err)
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, queue),
	}
	s.runID.Store("")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropTickTotal:     s.dropTick.Load(),
		DropAuditTotal:    s.dropAudit.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

// BeginRun records a new run and tags every later write with its id.
func (s *SQLiteIndex) BeginRun(worldID, scenario string, seed int64) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO runs(run_id,world_id,scenario,seed,started_at) VALUES(?,?,?,?,?)`,
		id, worldID, scenario, seed, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	s.runID.Store(id)
	return id, nil
}

// FinishRun waits for queued writes of the current run and stamps its end.
func (s *SQLiteIndex) FinishRun(endTick uint64, digest string) error {
	id := s.RunID()
	if id == "" {
		return fmt.Errorf("finish run: no run in progress")
	}
	if err := s.Sync(context.Background()); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE runs SET ended_at=?, end_tick=?, digest=? WHERE run_id=?`,
		time.Now().UTC().Format(time.RFC3339Nano), int64(endTick), digest, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) RunID() string {
	v, _ := s.runID.Load().(string)
	return v
}

// Sync blocks until everything queued so far has been committed.
func (s *SQLiteIndex) Sync(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		if s.pending.Load() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	s.enqueue(req{kind: reqTick, runID: s.RunID(), tick: entry}, &s.dropTick)
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry world.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	s.enqueue(req{kind: reqAudit, runID: s.RunID(), audit: entry}, &s.dropAudit)
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:     snap.Header.Tick,
		Path:     path,
		Chunks:   len(snap.Chunks),
		Agents:   len(snap.Agents),
		Furnaces: len(snap.Furnaces),
		Pumps:    len(snap.Pumps),
	}
	s.enqueue(req{kind: reqSnapshot, runID: s.RunID(), snapshot: r}, &s.dropSnapshot)
}

func (s *SQLiteIndex) enqueue(r req, drops *atomic.Uint64) {
	s.pending.Add(1)
	select {
	case s.ch <- r:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		s.pending.Add(-1)
		drops.Add(1)
	}
}

// UpsertCatalogs stores the block/item catalogs and the applied tuning so a
// run can be reproduced from the index alone.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if b, _ := json.Marshal(cats.Blocks.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "blocks_palette", digest: cats.Blocks.PaletteDigest, json: b})
	}
	if b, _ := json.Marshal(cats.Blocks.Defs); len(b) > 0 {
		rows = append(rows, kv{name: "blocks_defs", digest: cats.Blocks.DefsDigest, json: b})
	}
	if b, _ := json.Marshal(cats.Items.Defs); len(b) > 0 {
		rows = append(rows, kv{name: "items_defs", digest: cats.Items.DefsDigest, json: b})
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := tx.Exec(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`,
			r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}
