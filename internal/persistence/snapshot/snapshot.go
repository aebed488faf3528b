package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	RunID   string `json:"run_id,omitempty"`
	Tick    uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed      int64  `json:"seed"`
	TickRate  int    `json:"tick_rate_hz"`
	Height    int    `json:"height"`
	SurfaceY  int    `json:"surface_y"`
	BoundaryR int    `json:"boundary_r"`
	Dimension string `json:"dimension"`

	// Pump tuning captured for deterministic resume.
	PumpMaxLength  int    `json:"pump_max_length"`
	PumpMaxDepth   int    `json:"pump_max_depth"`
	PumpDelayTicks int    `json:"pump_delay_ticks"`
	PumpDetect     string `json:"pump_detect"`
	PumpLiquid     string `json:"pump_liquid"`

	Chunks   []ChunkV1     `json:"chunks"`
	Agents   []AgentV1     `json:"agents"`
	Claims   []ClaimV1     `json:"claims"`
	Furnaces []ContainerV1 `json:"furnaces"`
	Pumps    []PumpV1      `json:"pumps,omitempty"`

	Counters CountersV1 `json:"counters"`
}

type CountersV1 struct {
	NextLand uint64 `json:"next_land"`
}

type ChunkV1 struct {
	CX     int      `json:"cx"`
	CZ     int      `json:"cz"`
	Height int      `json:"height"`
	Blocks []uint16 `json:"blocks"`
	States []uint8  `json:"states"`
}

type AgentV1 struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions,omitempty"`
}

type ClaimV1 struct {
	LandID     string   `json:"land_id"`
	Owner      string   `json:"owner"`
	Anchor     [3]int   `json:"anchor"`
	Radius     int      `json:"radius"`
	AllowBuild bool     `json:"allow_build"`
	AllowBreak bool     `json:"allow_break"`
	Members    []string `json:"members,omitempty"`
}

type SlotV1 struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

type ContainerV1 struct {
	Type  string            `json:"type"`
	Pos   [3]int            `json:"pos"`
	Slots map[string]SlotV1 `json:"slots,omitempty"`
}

// PumpV1 records a machine that was running when the snapshot was taken.
type PumpV1 struct {
	ID         string   `json:"id"`
	Owner      string   `json:"owner"`
	Anchor     [3]int   `json:"anchor"`
	Rotation   int      `json:"rotation"`
	LeverFace  string   `json:"lever_face"`
	Stage      string   `json:"stage"`
	Tube       [][3]int `json:"tube,omitempty"`
	NextTick   uint64   `json:"next_tick"`
	Progress   int      `json:"progress,omitempty"`
	TotalCells int      `json:"total,omitempty"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	if snap.Header.Version == 0 {
		snap.Header.Version = Version
	}
	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	line, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("snapshot header: %w", err)
	}
	var hdr Header
	if err := json.Unmarshal(line, &hdr); err != nil {
		return snap, fmt.Errorf("snapshot header: %w", err)
	}
	if hdr.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", hdr.Version)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// ReadHeader returns only the header line; cheap enough for listing runs.
func ReadHeader(path string) (Header, error) {
	var hdr Header
	f, err := os.Open(path)
	if err != nil {
		return hdr, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return hdr, err
	}
	defer dec.Close()
	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return hdr, fmt.Errorf("snapshot header: %w", err)
	}
	if err := json.Unmarshal(line, &hdr); err != nil {
		return hdr, fmt.Errorf("snapshot header: %w", err)
	}
	return hdr, nil
}
