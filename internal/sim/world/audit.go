package world

func (w *World) emitAudit(entry AuditEntry) {
	if w.auditLogger != nil {
		_ = w.auditLogger.WriteAudit(entry)
	}
	for _, fn := range w.auditSinks {
		fn(entry)
	}
}

func (w *World) auditSetBlock(tick uint64, actor string, pos Vec3i, from, to uint16, reason string) {
	w.emitAudit(AuditEntry{
		Tick:   tick,
		Actor:  actor,
		Action: "SET_BLOCK",
		Pos:    pos.ToArray(),
		From:   from,
		To:     to,
		Reason: reason,
	})
}

func (w *World) auditEvent(tick uint64, actor string, action string, pos Vec3i, reason string, details map[string]any) {
	w.emitAudit(AuditEntry{
		Tick:    tick,
		Actor:   actor,
		Action:  action,
		Pos:     pos.ToArray(),
		Reason:  reason,
		Details: details,
	})
}
