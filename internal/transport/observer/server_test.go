package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"voxelpump.ai/internal/observerproto"
	"voxelpump.ai/internal/sim/catalogs"
	"voxelpump.ai/internal/sim/world"
	"voxelpump.ai/internal/sim/world/feature/governance/claims"
	"voxelpump.ai/internal/sim/world/feature/pump"
	"voxelpump.ai/internal/sim/world/terrain/gen"
)

func newTestServer(t *testing.T) (*world.World, *Server, *httptest.Server) {
	t.Helper()
	w, err := world.New(world.WorldConfig{
		ID:         "test",
		TickRateHz: 20,
		Height:     32,
		Seed:       3,
		BoundaryR:  64,
		Terrain:    gen.Params{SurfaceY: 16, SpawnClearRadius: 1000},
		Pump:       pump.DefaultConfig(),
	}, catalogs.Default())
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	s := NewServer(w, nil)
	s.Attach(w)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/observer/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/v1/observe", s.WSHandler())
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return w, s, ts
}

func dial(t *testing.T, ts *httptest.Server, sub observerproto.SubscribeMsg) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/observe"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	return conn
}

func waitSubscribers(t *testing.T, s *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Subscribers() != n {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers=%d want %d", s.Subscribers(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readTick(t *testing.T, conn *websocket.Conn) observerproto.TickMsg {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg observerproto.TickMsg
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read tick: %v", err)
	}
	return msg
}

func TestWS_StreamsTickWithAudits(t *testing.T) {
	w, s, ts := newTestServer(t)
	conn := dial(t, ts, observerproto.SubscribeMsg{Type: "SUBSCRIBE", ProtocolVersion: observerproto.Version})
	waitSubscribers(t, s, 1)

	if _, err := w.AddAgent("A1", "alice"); err != nil {
		t.Fatalf("add agent: %v", err)
	}
	if _, err := w.AddClaim("A1", world.Vec3i{X: 0, Y: 17, Z: 0}, 4, claims.DefaultFlags()); err != nil {
		t.Fatalf("add claim: %v", err)
	}
	w.Step()

	msg := readTick(t, conn)
	if msg.Type != "TICK" || msg.Tick != 0 || msg.Digest == "" {
		t.Fatalf("unexpected tick: %#v", msg)
	}
	if len(msg.Audits) != 1 || msg.Audits[0].Action != "CLAIM_LAND" {
		t.Fatalf("unexpected audits: %#v", msg.Audits)
	}

	// Audits are flushed per tick.
	w.Step()
	if msg := readTick(t, conn); msg.Tick != 1 || len(msg.Audits) != 0 {
		t.Fatalf("unexpected second tick: %#v", msg)
	}
}

func TestWS_FiltersActionsAndSkipsQuietTicks(t *testing.T) {
	w, s, ts := newTestServer(t)
	conn := dial(t, ts, observerproto.SubscribeMsg{
		Type:            "SUBSCRIBE",
		ProtocolVersion: observerproto.Version,
		Actions:         []string{"claim_land"},
		ChangesOnly:     true,
	})
	waitSubscribers(t, s, 1)

	w.Step() // quiet, skipped
	if _, err := w.AddAgent("A1", ""); err != nil {
		t.Fatalf("add agent: %v", err)
	}
	if _, err := w.AddClaim("A1", world.Vec3i{X: 0, Y: 17, Z: 0}, 4, claims.DefaultFlags()); err != nil {
		t.Fatalf("add claim: %v", err)
	}
	w.Step()

	msg := readTick(t, conn)
	if msg.Tick != 1 || len(msg.Audits) != 1 {
		t.Fatalf("unexpected tick: %#v", msg)
	}
}

func TestWS_RejectsBadSubscribe(t *testing.T) {
	_, s, ts := newTestServer(t)
	conn := dial(t, ts, observerproto.SubscribeMsg{Type: "HELLO", ProtocolVersion: observerproto.Version})
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected close after bad subscribe")
	}
	if s.Subscribers() != 0 {
		t.Fatalf("unexpected subscriber registered")
	}
}

func TestOnTick_DropsSlowSubscriber(t *testing.T) {
	s := &Server{subs: map[string]*subscriber{}}
	out := make(chan []byte, 1)
	s.subs["O1"] = &subscriber{out: out}

	s.OnTick(world.TickLogEntry{Tick: 1})
	s.OnTick(world.TickLogEntry{Tick: 2})

	if s.Subscribers() != 0 || s.Dropped() != 1 {
		t.Fatalf("subscribers=%d dropped=%d", s.Subscribers(), s.Dropped())
	}
	if _, ok := <-out; !ok {
		t.Fatalf("expected buffered first tick")
	}
	if _, ok := <-out; ok {
		t.Fatalf("expected closed channel")
	}
}

func TestBootstrap_ReportsWorldParams(t *testing.T) {
	_, _, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/observer/bootstrap")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var b observerproto.BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.WorldID != "test" || b.WorldParams.Height != 32 || b.WorldParams.Dimension != "OVERWORLD" {
		t.Fatalf("unexpected bootstrap: %#v", b)
	}
	if len(b.BlockPalette) == 0 || b.BlockPalette[0] != "AIR" {
		t.Fatalf("unexpected palette: %v", b.BlockPalette)
	}
}
