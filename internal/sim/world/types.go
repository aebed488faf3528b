package world

import (
	"fmt"

	modelpkg "voxelpump.ai/internal/sim/world/kernel/model"
	"voxelpump.ai/internal/sim/world/logic/blueprint"
)

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type TickLogEntry struct {
	Tick   uint64        `json:"tick"`
	Levers []LeverRecord `json:"levers,omitempty"`
	Pumps  []PumpStatus  `json:"pumps,omitempty"`
	Digest string        `json:"digest"`
}

// LeverRecord is a lever use as written to the tick log, replayable with
// LeverRecord.Action.
type LeverRecord struct {
	AgentID string `json:"agent_id"`
	Anchor  [3]int `json:"anchor"`
	Face    string `json:"face"`
}

func (r LeverRecord) Action() (LeverAction, error) {
	face, ok := blueprint.ParseFace(r.Face)
	if !ok {
		return LeverAction{}, fmt.Errorf("lever record: bad face %q", r.Face)
	}
	return LeverAction{AgentID: r.AgentID, Anchor: modelpkg.FromArray(r.Anchor), Face: face}, nil
}

type AuditEntry struct {
	Tick    uint64         `json:"tick"`
	Actor   string         `json:"actor"`
	Action  string         `json:"action"` // e.g. "SET_BLOCK"
	Pos     [3]int         `json:"pos"`
	From    uint16         `json:"from"`
	To      uint16         `json:"to"`
	Reason  string         `json:"reason,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// LeverAction is an agent flipping the lever on one face of an anchor block.
type LeverAction struct {
	AgentID string
	Anchor  Vec3i
	Face    blueprint.Face
}

// PumpStatus is a read-only view of a running pump.
type PumpStatus struct {
	ID       string `json:"id"`
	Owner    string `json:"owner"`
	Anchor   [3]int `json:"anchor"`
	Rotation string `json:"rotation"`
	Stage    string `json:"stage"`
	Tube     int    `json:"tube"`
	Progress int    `json:"progress"`
	Total    int    `json:"total"`
	NextTick uint64 `json:"next_tick"`
}
