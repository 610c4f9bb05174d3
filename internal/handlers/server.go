// internal/handlers/server.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/oust-game/oust/internal/game"
	"github.com/oust-game/oust/internal/middleware"
	"github.com/oust-game/oust/internal/models"
)

// Server hosts the channel rooms. Each chat channel maps to at most one
// Room, and each Room to at most one active game via the shared
// registry.
type Server struct {
	log             *logrus.Logger
	clock           quartz.Clock
	registry        *game.Registry
	gatherWindow    time.Duration
	decisionTimeout time.Duration

	mu    sync.Mutex
	rooms map[string]*Room
}

// NewServer wires a room server with its timeout policy.
func NewServer(log *logrus.Logger, clock quartz.Clock, gatherWindow, decisionTimeout time.Duration) *Server {
	return &Server{
		log:             log,
		clock:           clock,
		registry:        game.NewRegistry(),
		gatherWindow:    gatherWindow,
		decisionTimeout: decisionTimeout,
		rooms:           make(map[string]*Room),
	}
}

// Registry exposes the channel→game registry.
func (s *Server) Registry() *game.Registry {
	return s.registry
}

func (s *Server) room(channel string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[channel]
	if !ok {
		r = newRoom(channel, s)
		s.rooms[channel] = r
	}
	return r
}

func (s *Server) dropIfEmpty(channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[channel]; ok && r.empty() {
		delete(s.rooms, channel)
	}
}

// WSHandler upgrades connections for /oust/ws/{channel}. The first
// message must be a hello carrying the display name; the server assigns
// the participant id and echoes it back.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channel := strings.Trim(strings.TrimPrefix(r.URL.Path, "/oust/ws/"), "/")
		if channel == "" {
			http.Error(w, "missing channel in path (/oust/ws/{channel})", http.StatusBadRequest)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"oust"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			s.log.Warnf("websocket accept failed for channel %s: %v", channel, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler exit")
		middleware.LogWebSocketConnect(s.log, r.RemoteAddr, r.URL.Path)

		ctx := r.Context()
		info, err := s.handshake(ctx, c)
		if err != nil {
			c.Close(websocket.StatusPolicyViolation, "hello required")
			middleware.LogWebSocketDisconnect(s.log, r.RemoteAddr, r.URL.Path, err)
			return
		}

		room := s.room(channel)
		pc := &playerConn{info: info, outChan: make(chan ServerMessage, 32)}
		room.addConn(pc)
		defer func() {
			room.removeConn(info.ID)
			s.dropIfEmpty(channel)
			middleware.LogWebSocketDisconnect(s.log, r.RemoteAddr, r.URL.Path, nil)
		}()

		pc.write(ServerMessage{Type: MsgWelcome, Player: &info})

		eg, gctx := errgroup.WithContext(ctx)
		eg.Go(func() error { return s.writeLoop(gctx, c, pc) })
		eg.Go(func() error { return s.readLoop(gctx, c, room, info) })
		if err := eg.Wait(); err != nil && websocket.CloseStatus(err) == -1 {
			s.log.WithError(err).Debugf("connection loop ended for %s", info.Name)
		}
	}
}

// handshake waits for the hello message and mints the participant
// identity.
func (s *Server) handshake(ctx context.Context, c *websocket.Conn) (models.PlayerInfo, error) {
	hctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, data, err := c.Read(hctx)
	if err != nil {
		return models.PlayerInfo{}, err
	}
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != MsgHello || msg.Name == "" {
		return models.PlayerInfo{}, game.ErrIllegalActionForState
	}
	id, _ := uuid.NewRandom()
	return models.PlayerInfo{ID: id, Name: msg.Name}, nil
}

func (s *Server) writeLoop(ctx context.Context, c *websocket.Conn, pc *playerConn) error {
	log := logrus.NewEntry(s.log)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-pc.outChan:
			if err := c.Write(ctx, websocket.MessageText, marshalMessage(log, msg)); err != nil {
				return err
			}
		}
	}
}

func (s *Server) readLoop(ctx context.Context, c *websocket.Conn, room *Room, info models.PlayerInfo) error {
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			return err
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Debugf("ignoring malformed message from %s: %v", info.Name, err)
			continue
		}
		switch msg.Type {
		case MsgStart:
			room.startGame(info)
		case MsgJoin:
			room.joinGame(info)
		case MsgResponse:
			room.deliverAnswer(info.ID, msg)
		default:
			room.sendTo(info.ID, ServerMessage{Type: MsgError, Message: "unknown message type " + msg.Type})
		}
	}
}
