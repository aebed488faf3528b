package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"voxelpump.ai/internal/observerproto"
	"voxelpump.ai/internal/sim/world"
)

// Server streams one TICK message per world tick to websocket observers.
// OnAudit and OnTick must be called from the world goroutine (register them
// with World.AddAuditSink / World.AddTickSink).
type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu   sync.Mutex
	subs map[string]*subscriber

	// World goroutine only.
	pending []observerproto.AuditEntry

	dropped atomic.Uint64
}

type subscriber struct {
	out         chan []byte
	actions     map[string]bool
	changesOnly bool
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		subs: map[string]*subscriber{},
	}
}

// Attach registers the server's sinks on w.
func (s *Server) Attach(w *world.World) {
	w.AddAuditSink(s.OnAudit)
	w.AddTickSink(s.OnTick)
}

func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Dropped counts subscribers disconnected for falling behind.
func (s *Server) Dropped() uint64 { return s.dropped.Load() }

func (s *Server) OnAudit(e world.AuditEntry) {
	s.pending = append(s.pending, observerproto.AuditEntry{
		Tick:    e.Tick,
		Actor:   e.Actor,
		Action:  e.Action,
		Pos:     e.Pos,
		From:    e.From,
		To:      e.To,
		Reason:  e.Reason,
		Details: e.Details,
	})
}

func (s *Server) OnTick(e world.TickLogEntry) {
	audits := s.pending
	s.pending = nil

	pumps := make([]observerproto.PumpState, 0, len(e.Pumps))
	for _, p := range e.Pumps {
		pumps = append(pumps, observerproto.PumpState{
			ID:       p.ID,
			Owner:    p.Owner,
			Anchor:   p.Anchor,
			Rotation: p.Rotation,
			Stage:    p.Stage,
			Tube:     p.Tube,
			Progress: p.Progress,
			Total:    p.Total,
			NextTick: p.NextTick,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sub := range s.subs {
		msg := observerproto.TickMsg{
			Type:            "TICK",
			ProtocolVersion: observerproto.Version,
			Tick:            e.Tick,
			Digest:          e.Digest,
			Pumps:           pumps,
			Audits:          filterAudits(audits, sub.actions),
		}
		if sub.changesOnly && len(msg.Audits) == 0 {
			continue
		}
		b, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		select {
		case sub.out <- b:
		default:
			// Slow observer: disconnect rather than stall the world.
			delete(s.subs, id)
			close(sub.out)
			s.dropped.Add(1)
			if s.log != nil {
				s.log.Printf("observer %s dropped: send queue full", id)
			}
		}
	}
}

func filterAudits(in []observerproto.AuditEntry, actions map[string]bool) []observerproto.AuditEntry {
	if len(actions) == 0 {
		return in
	}
	var out []observerproto.AuditEntry
	for _, a := range in {
		if actions[a.Action] {
			out = append(out, a)
		}
	}
	return out
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		cfg := s.world.Config()
		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			WorldID:         cfg.ID,
			Tick:            s.world.CurrentTick(),
			WorldParams: observerproto.WorldParams{
				TickRateHz: cfg.TickRateHz,
				ChunkSize:  [3]int{16, 16, cfg.Height},
				Height:     cfg.Height,
				Seed:       cfg.Seed,
				BoundaryR:  cfg.BoundaryR,
				Dimension:  cfg.Dimension,
			},
			BlockPalette: s.world.Catalogs().Blocks.Palette,
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub observerproto.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad subscribe"), time.Now().Add(time.Second))
			return
		}
		if sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != observerproto.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		out := make(chan []byte, 64)
		s.mu.Lock()
		s.subs[sid] = &subscriber{out: out, actions: actionSet(sub.Actions), changesOnly: sub.ChangesOnly}
		s.mu.Unlock()
		defer s.remove(sid)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b, ok := <-out:
					if !ok {
						// Dropped by OnTick.
						_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"), time.Now().Add(time.Second))
						_ = conn.Close()
						writeErr <- nil
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var upd observerproto.SubscribeMsg
			if err := json.Unmarshal(msg, &upd); err != nil {
				continue
			}
			if upd.Type != "SUBSCRIBE" || upd.ProtocolVersion != observerproto.Version {
				continue
			}
			s.mu.Lock()
			if cur := s.subs[sid]; cur != nil {
				cur.actions = actionSet(upd.Actions)
				cur.changesOnly = upd.ChangesOnly
			}
			s.mu.Unlock()
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Server) remove(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub := s.subs[sid]; sub != nil {
		delete(s.subs, sid)
		close(sub.out)
	}
}

func actionSet(actions []string) map[string]bool {
	if len(actions) == 0 {
		return nil
	}
	m := make(map[string]bool, len(actions))
	for _, a := range actions {
		a = strings.TrimSpace(strings.ToUpper(a))
		if a != "" {
			m[a] = true
		}
	}
	return m
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
