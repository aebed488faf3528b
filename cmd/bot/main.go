package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"voxelpump.ai/internal/protocol"
)

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		agent  = flag.String("agent", "A1", "agent id (must exist in the world)")
		anchor = flag.String("anchor", "", "pump anchor x,y,z")
		face   = flag.String("face", "NORTH", "face of the anchor the lever sits on")
		every  = flag.Duration("every", 0, "pull the lever again at this interval (0: once)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	pos, err := parsePos(*anchor)
	if err != nil {
		logger.Fatalf("-anchor: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		AgentID:         *agent,
		MaxQueue:        8,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	seq := 0
	pull := func() {
		seq++
		msg := protocol.LeverMsg{
			Type:            protocol.TypeLever,
			ProtocolVersion: protocol.Version,
			ID:              fmt.Sprintf("L_%d", seq),
			Anchor:          pos,
			Face:            strings.ToUpper(*face),
		}
		if err := conn.WriteJSON(msg); err != nil {
			logger.Printf("send LEVER: %v", err)
		}
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(raw)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(raw, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME agent_id=%s world=%s tick=%d dimension=%s", w.AgentID, w.WorldID, w.Tick, w.WorldParams.Dimension)
			pull()
			if *every > 0 {
				go func() {
					t := time.NewTicker(*every)
					defer t.Stop()
					for range t.C {
						pull()
					}
				}()
			}

		case protocol.TypeAck:
			var ack protocol.AckMsg
			if err := json.Unmarshal(raw, &ack); err != nil {
				continue
			}
			if ack.Accepted {
				logger.Printf("ACK %s tick=%d", ack.AckFor, ack.ServerTick)
			} else if protocol.IsKnownCode(ack.Code) {
				logger.Printf("ACK %s rejected code=%s %s", ack.AckFor, ack.Code, ack.Message)
			} else {
				logger.Printf("ACK %s rejected with unknown code %q: %s", ack.AckFor, ack.Code, ack.Message)
			}

		case protocol.TypeMsg:
			var m protocol.AgentMsg
			if err := json.Unmarshal(raw, &m); err != nil {
				continue
			}
			logger.Printf("MSG tick=%d %s", m.Tick, m.Text)
		}
	}
}

func parsePos(s string) ([3]int, error) {
	var out [3]int
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("want x,y,z, got %q", s)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return out, fmt.Errorf("bad coordinate %q", p)
		}
		out[i] = v
	}
	return out, nil
}
