package indexdb

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
)

func (s *SQLiteIndex) loop() {
	var (
		tx            *sqlx.Tx
		opCount       int
		uncommitted   int64
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastAuditRun  string
		lastAuditTick uint64
		auditSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.Beginx()
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	settle := func(ok bool) {
		if tx != nil {
			if ok {
				_ = tx.Commit()
			} else {
				_ = tx.Rollback()
			}
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
		s.pending.Add(-uncommitted)
		uncommitted = 0
	}

	for r := range s.ch {
		uncommitted++
		begin()
		if tx == nil {
			settle(false)
			continue
		}
		var err error
		switch r.kind {
		case reqTick:
			raw, _ := json.Marshal(r.tick)
			_, err = tx.Exec(`INSERT OR REPLACE INTO ticks(run_id,tick,digest,pumps,raw_json) VALUES(?,?,?,?,?)`,
				r.runID, int64(r.tick.Tick), r.tick.Digest, len(r.tick.Pumps), string(raw))

		case reqAudit:
			a := r.audit
			if a.Tick != lastAuditTick || r.runID != lastAuditRun {
				lastAuditTick = a.Tick
				lastAuditRun = r.runID
				auditSeq = 0
			}
			seq := auditSeq
			auditSeq++
			raw, _ := json.Marshal(a)
			_, err = tx.Exec(`INSERT OR REPLACE INTO audit_events(run_id,tick,seq,actor,action,x,y,z,from_block,to_block,reason,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
				r.runID, int64(a.Tick), seq, a.Actor, a.Action,
				a.Pos[0], a.Pos[1], a.Pos[2],
				int64(a.From), int64(a.To), a.Reason, string(raw))

		case reqSnapshot:
			sn := r.snapshot
			_, err = tx.Exec(`INSERT OR REPLACE INTO snapshots(run_id,tick,path,chunks,agents,furnaces,pumps) VALUES(?,?,?,?,?,?,?)`,
				r.runID, int64(sn.Tick), sn.Path, sn.Chunks, sn.Agents, sn.Furnaces, sn.Pumps)
		}
		if err != nil {
			settle(false)
			continue
		}
		opCount++
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			settle(true)
		}
	}
	settle(true)
}
