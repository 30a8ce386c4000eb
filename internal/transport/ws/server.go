package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"voxedit.ai/internal/protocol"
	"voxedit.ai/internal/sim/engine"
)

// Engine is the part of the edit engine a connection talks to.
type Engine interface {
	Join() chan<- engine.JoinRequest
	Leave() chan<- string
	Inbox() chan<- engine.Input
}

const (
	outQueue       = 64
	joinTimeout    = 5 * time.Second
	readTimeout    = 60 * time.Second
	writeTimeout   = 5 * time.Second
	maxMessageSize = 64 * 1024
)

type Server struct {
	engine Engine
	log    *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(e Engine, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		engine: e,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetReadLimit(maxMessageSize)

		actorID, out := s.handshake(conn)
		if actorID == "" {
			return
		}
		s.log.Printf("actor %s connected from %s", actorID, r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
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
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			in, err := decodeInput(actorID, msg)
			if err != nil {
				reject(out, err.Error())
				continue
			}
			select {
			case s.engine.Inbox() <- in:
			case <-ctx.Done():
			}
		}

		// Cleanup.
		s.engine.Leave() <- actorID
		s.log.Printf("actor %s disconnected", actorID)
	}
}

func (s *Server) handshake(conn *websocket.Conn) (actorID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, "bad HELLO")
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return "", nil
	}
	if hello.ActorName == "" {
		hello.ActorName = "actor"
	}

	out = make(chan []byte, outQueue)
	respCh := make(chan engine.JoinResponse, 1)
	s.engine.Join() <- engine.JoinRequest{Name: hello.ActorName, Out: out, Resp: respCh}

	var resp engine.JoinResponse
	select {
	case resp = <-respCh:
	case <-time.After(joinTimeout):
		closeWith(conn, "join timed out")
		go func() {
			r := <-respCh
			s.engine.Leave() <- r.Welcome.ActorID
		}()
		return "", nil
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.engine.Leave() <- resp.Welcome.ActorID
		return "", nil
	}
	return resp.Welcome.ActorID, out
}

// decodeInput turns one client frame into an engine input.
func decodeInput(actorID string, msg []byte) (engine.Input, error) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return engine.Input{}, fmt.Errorf("bad json: %v", err)
	}
	if base.ProtocolVersion != protocol.Version {
		return engine.Input{}, fmt.Errorf("bad protocol_version %q", base.ProtocolVersion)
	}
	in := engine.Input{ActorID: actorID}
	switch base.Type {
	case protocol.TypeCmd:
		var m protocol.CmdMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return in, fmt.Errorf("bad CMD: %v", err)
		}
		if m.Name == "" {
			return in, fmt.Errorf("CMD without name")
		}
		in.Cmd = &m
	case protocol.TypeClick:
		var m protocol.ClickMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return in, fmt.Errorf("bad CLICK: %v", err)
		}
		in.Click = &m
	case protocol.TypePose:
		var m protocol.PoseMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return in, fmt.Errorf("bad POSE: %v", err)
		}
		in.Pose = &m
	default:
		return in, fmt.Errorf("unexpected message type %q", base.Type)
	}
	return in, nil
}

func reject(out chan []byte, text string) {
	b, err := json.Marshal(protocol.StatusMsg{
		Type:            protocol.TypeStatus,
		ProtocolVersion: protocol.Version,
		Text:            text,
		Code:            protocol.ErrProtoBadRequest,
	})
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
