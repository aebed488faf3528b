package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"voxelpump.ai/internal/protocol"
	"voxelpump.ai/internal/sim/world"
	"voxelpump.ai/internal/sim/world/logic/blueprint"
)

// Server lets agents pull pump levers over a websocket. Lever uses are
// queued on the world inbox and applied at the start of the next tick.
type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]chan []byte // agent id -> outbound queue
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		sessions: map[string]chan []byte{},
	}
	return s
}

// Attach forwards world messages addressed to connected agents.
func (s *Server) Attach(w *world.World) { w.AddAuditSink(s.OnAudit) }

func (s *Server) OnAudit(e world.AuditEntry) {
	if e.Action != "MESSAGE" {
		return
	}
	text, _ := e.Details["text"].(string)
	b, err := json.Marshal(protocol.AgentMsg{
		Type:            protocol.TypeMsg,
		ProtocolVersion: protocol.Version,
		Tick:            e.Tick,
		Text:            text,
	})
	if err != nil {
		return
	}
	s.mu.Lock()
	out := s.sessions[e.Actor]
	s.mu.Unlock()
	if out == nil {
		return
	}
	select {
	case out <- b:
	default:
		// Agent not reading; messages stay in the audit log.
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		agentID, out := s.handshake(conn)
		if agentID == "" {
			return
		}
		defer s.leave(agentID)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeLever {
				continue
			}
			ack := s.lever(agentID, msg)
			b, err := json.Marshal(ack)
			if err != nil {
				continue
			}
			select {
			case out <- b:
			default:
			}
		}
	}
}

func (s *Server) lever(agentID string, msg []byte) protocol.AckMsg {
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		ServerTick:      s.world.CurrentTick(),
	}
	var lv protocol.LeverMsg
	if err := json.Unmarshal(msg, &lv); err != nil {
		ack.Code, ack.Message = protocol.ErrProtoBadRequest, "bad json"
		return ack
	}
	ack.AckFor = lv.ID
	if err := protocol.Validate(protocol.TypeLever, msg); err != nil {
		ack.Code, ack.Message = protocol.ErrProtoBadRequest, err.Error()
		return ack
	}
	if lv.ProtocolVersion != protocol.Version {
		ack.Code, ack.Message = protocol.ErrProtoBadRequest, "bad protocol_version"
		return ack
	}
	face, ok := blueprint.ParseFace(lv.Face)
	if !ok {
		ack.Code, ack.Message = protocol.ErrBadRequest, "bad face"
		return ack
	}
	act := world.LeverAction{
		AgentID: agentID,
		Anchor:  world.Vec3i{X: lv.Anchor[0], Y: lv.Anchor[1], Z: lv.Anchor[2]},
		Face:    face,
	}
	select {
	case s.world.Inbox() <- act:
		ack.Accepted = true
	default:
		ack.Code, ack.Message = protocol.ErrWorldBusy, "inbox full"
	}
	return ack
}

func (s *Server) handshake(conn *websocket.Conn) (agentID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closePolicy(conn, "expected HELLO")
		return "", nil
	}
	if err := protocol.Validate(protocol.TypeHello, msg); err != nil {
		closePolicy(conn, "bad HELLO")
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closePolicy(conn, "bad protocol_version")
		return "", nil
	}
	agentID = strings.TrimSpace(hello.AgentID)
	if s.world.Agent(agentID) == nil {
		closePolicy(conn, "unknown agent")
		return "", nil
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	out = make(chan []byte, maxQ)

	s.mu.Lock()
	if _, dup := s.sessions[agentID]; dup {
		s.mu.Unlock()
		closePolicy(conn, "agent already connected")
		return "", nil
	}
	s.sessions[agentID] = out
	s.mu.Unlock()

	cfg := s.world.Config()
	cats := s.world.Catalogs()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		AgentID:         agentID,
		WorldID:         cfg.ID,
		Tick:            s.world.CurrentTick(),
		WorldParams: protocol.WorldParams{
			TickRateHz: cfg.TickRateHz,
			ChunkSize:  [3]int{16, 16, cfg.Height},
			Height:     cfg.Height,
			Seed:       cfg.Seed,
			BoundaryR:  cfg.BoundaryR,
			Dimension:  cfg.Dimension,
		},
		Catalogs: protocol.CatalogDigests{
			BlockPalette: protocol.DigestRef{Digest: cats.Blocks.PaletteDigest, Count: len(cats.Blocks.Palette)},
			ItemPalette:  protocol.DigestRef{Digest: cats.Items.PaletteDigest, Count: len(cats.Items.Palette)},
		},
	}
	if err := writeJSON(conn, welcome); err != nil {
		s.leave(agentID)
		return "", nil
	}
	return agentID, out
}

func (s *Server) leave(agentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, agentID)
}

func closePolicy(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
