package indexdb

import "fmt"

type RunRow struct {
	RunID     string  `db:"run_id"`
	WorldID   string  `db:"world_id"`
	Scenario  string  `db:"scenario"`
	Seed      int64   `db:"seed"`
	StartedAt string  `db:"started_at"`
	EndedAt   *string `db:"ended_at"`
	EndTick   *int64  `db:"end_tick"`
	Digest    *string `db:"digest"`
}

type AuditRow struct {
	Tick   int64  `db:"tick"`
	Seq    int    `db:"seq"`
	Actor  string `db:"actor"`
	Action string `db:"action"`
	X      int    `db:"x"`
	Y      int    `db:"y"`
	Z      int    `db:"z"`
	From   int64  `db:"from_block"`
	To     int64  `db:"to_block"`
	Reason string `db:"reason"`
}

type ActionCount struct {
	Action string `db:"action"`
	Count  int    `db:"n"`
}

func (s *SQLiteIndex) Runs() ([]RunRow, error) {
	var rows []RunRow
	err := s.db.Select(&rows, `SELECT run_id,world_id,scenario,seed,started_at,ended_at,end_tick,digest FROM runs ORDER BY started_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return rows, nil
}

// AuditEvents lists a run's audit entries in write order. An empty action
// matches all actions.
func (s *SQLiteIndex) AuditEvents(runID, action string) ([]AuditRow, error) {
	var rows []AuditRow
	err := s.db.Select(&rows,
		`SELECT tick,seq,actor,action,x,y,z,from_block,to_block,reason FROM audit_events
		 WHERE run_id = ? AND (? = '' OR action = ?) ORDER BY tick, seq`,
		runID, action, action)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	return rows, nil
}

func (s *SQLiteIndex) ActionCounts(runID string) ([]ActionCount, error) {
	var rows []ActionCount
	err := s.db.Select(&rows,
		`SELECT action, COUNT(*) AS n FROM audit_events WHERE run_id = ? GROUP BY action ORDER BY action`, runID)
	if err != nil {
		return nil, fmt.Errorf("query action counts: %w", err)
	}
	return rows, nil
}

func (s *SQLiteIndex) TickDigest(runID string, tick uint64) (string, error) {
	var d string
	if err := s.db.Get(&d, `SELECT digest FROM ticks WHERE run_id = ? AND tick = ?`, runID, int64(tick)); err != nil {
		return "", fmt.Errorf("query tick digest: %w", err)
	}
	return d, nil
}
