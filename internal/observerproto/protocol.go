package observerproto

// Version is the observer protocol version (separate from the agent WS protocol).
const Version = "0.1"

// Client -> Server. First message on the observer WS connection, and can be re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Optional: only forward audit entries with these actions (empty = all).
	Actions []string `json:"actions,omitempty"`
	// Optional: skip ticks where nothing was audited.
	ChangesOnly bool `json:"changes_only,omitempty"`
}

// HTTP response for GET /v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	BlockPalette    []string    `json:"block_palette"`
}

type WorldParams struct {
	TickRateHz int    `json:"tick_rate_hz"`
	ChunkSize  [3]int `json:"chunk_size"`
	Height     int    `json:"height"`
	Seed       int64  `json:"seed"`
	BoundaryR  int    `json:"boundary_r"`
	Dimension  string `json:"dimension"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Digest          string `json:"digest"`

	Pumps  []PumpState  `json:"pumps"`
	Audits []AuditEntry `json:"audits,omitempty"`
}

type PumpState struct {
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

type AuditEntry struct {
	Tick    uint64         `json:"tick"`
	Actor   string         `json:"actor"`
	Action  string         `json:"action"`
	Pos     [3]int         `json:"pos"`
	From    uint16         `json:"from"`
	To      uint16         `json:"to"`
	Reason  string         `json:"reason,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
