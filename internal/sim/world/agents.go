package world

import (
	"fmt"
	"strings"

	"voxelpump.ai/internal/sim/world/feature/pump"
	modelpkg "voxelpump.ai/internal/sim/world/kernel/model"
)

func (w *World) AddAgent(id, name string, perms ...string) (*modelpkg.Agent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("agent id required")
	}
	if _, dup := w.agents[id]; dup {
		return nil, fmt.Errorf("agent %s already exists", id)
	}
	if name == "" {
		name = id
	}
	a := &modelpkg.Agent{ID: id, Name: name}
	a.Grant(perms...)
	w.agents[id] = a
	return a, nil
}

func (w *World) Agent(id string) *modelpkg.Agent { return w.agents[id] }

// actor adapts an agent to the pump's Actor. Messages land in the agent inbox
// and are audited so observers can follow them.
type actor struct {
	w *World
	a *modelpkg.Agent
}

var _ pump.Actor = actor{}

func (w *World) actorFor(a *modelpkg.Agent) pump.Actor {
	if a == nil {
		return nil
	}
	return actor{w: w, a: a}
}

func (p actor) ID() string                     { return p.a.ID }
func (p actor) HasPermission(perm string) bool { return p.a.HasPermission(perm) }

func (p actor) SendMessage(msg string) {
	p.a.Inbox = append(p.a.Inbox, msg)
	p.w.auditEvent(p.w.CurrentTick(), p.a.ID, "MESSAGE", Vec3i{}, "", map[string]any{"text": msg})
}
