package log

import (
	"path/filepath"
	"sync"

	"voxelpump.ai/internal/sim/world"
)

// TickLogger writes one JSONL entry per tick (compressed).
type TickLogger struct{ w *JSONLZstdWriter }

func NewTickLogger(worldDir string) *TickLogger {
	return &TickLogger{w: NewJSONLZstdWriter(filepath.Join(worldDir, "ticks"), "ticks")}
}

func (l *TickLogger) WriteTick(v world.TickLogEntry) error { return l.w.Write(v) }
func (l *TickLogger) Files() []string                      { return l.w.Files() }
func (l *TickLogger) Close() error                         { return l.w.Close() }

// AuditLogger writes audit JSONL entries (compressed) and keeps per-action
// counts for run summaries.
type AuditLogger struct {
	w *JSONLZstdWriter

	mu     sync.Mutex
	counts map[string]int
}

func NewAuditLogger(worldDir string) *AuditLogger {
	return &AuditLogger{
		w:      NewJSONLZstdWriter(filepath.Join(worldDir, "audit"), "audit"),
		counts: map[string]int{},
	}
}

func (l *AuditLogger) WriteAudit(v world.AuditEntry) error {
	l.mu.Lock()
	l.counts[v.Action]++
	l.mu.Unlock()
	return l.w.Write(v)
}

// Counts returns a copy of the number of entries written per action.
func (l *AuditLogger) Counts() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.counts))
	for k, v := range l.counts {
		out[k] = v
	}
	return out
}

func (l *AuditLogger) Files() []string { return l.w.Files() }
func (l *AuditLogger) Close() error    { return l.w.Close() }
