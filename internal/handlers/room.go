// internal/handlers/room.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oust-game/oust/internal/game"
	"github.com/oust-game/oust/internal/lobby"
	"github.com/oust-game/oust/internal/models"
)

// pendingKey routes an answer back to the prompt that is waiting for
// it: the correlation id together with the only player allowed to
// answer.
type pendingKey struct {
	reqID     uuid.UUID
	responder uuid.UUID
}

// playerConn is one participant's live connection in a room. Outbound
// messages go through OutChan so a slow socket never blocks the game
// loop; the per-connection writer goroutine drains it.
type playerConn struct {
	info    models.PlayerInfo
	outChan chan ServerMessage
}

// write queues a message, dropping it if the writer is gone or stalled.
// A dropped prompt surfaces as an ordinary decision timeout.
func (pc *playerConn) write(msg ServerMessage) {
	select {
	case pc.outChan <- msg:
	default:
	}
}

// Room is one channel's state: its connected participants, the gather
// phase if one is open, the active game, and the prompts in flight.
// Room implements game.Client, including the timeout policy: an
// unanswered or undeliverable prompt resolves to a default answer on
// the decision deadline.
type Room struct {
	channel         string
	log             *logrus.Entry
	clock           quartz.Clock
	registry        *game.Registry
	gatherWindow    time.Duration
	decisionTimeout time.Duration

	mu       sync.Mutex
	conns    map[uuid.UUID]*playerConn
	pending  map[pendingKey]chan game.Response
	gatherer *lobby.Gatherer
	cancel   context.CancelFunc
}

func newRoom(channel string, s *Server) *Room {
	return &Room{
		channel:         channel,
		log:             logrus.NewEntry(s.log).WithField("channel", channel),
		clock:           s.clock,
		registry:        s.registry,
		gatherWindow:    s.gatherWindow,
		decisionTimeout: s.decisionTimeout,
		conns:           make(map[uuid.UUID]*playerConn),
		pending:         make(map[pendingKey]chan game.Response),
	}
}

// SendMessage broadcasts a fire-and-forget notification to everyone in
// the channel.
func (r *Room) SendMessage(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pc := range r.conns {
		pc.write(ServerMessage{Type: MsgChat, Message: text})
	}
}

// Prompt implements the engine's client boundary. It delivers the
// request to the responder and waits for a matching answer, the
// decision deadline, or cancellation. Delivery failures and timeouts
// both resolve to the request's default answer so a wedged player can
// never wedge the game.
func (r *Room) Prompt(ctx context.Context, responder models.PlayerInfo, req game.Request) (game.Response, error) {
	if resp, ok := autoAnswer(req); ok {
		return resp, nil
	}

	reqID, _ := uuid.NewRandom()
	key := pendingKey{reqID: reqID, responder: responder.ID}
	ch := make(chan game.Response, 1)

	r.mu.Lock()
	r.pending[key] = ch
	pc := r.conns[responder.ID]
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, key)
		r.mu.Unlock()
	}()

	if pc == nil {
		// Disconnected responder: implicit no-response, but still on the
		// clock so everyone sees the same pacing.
		r.log.WithField("player", responder.Name).Debug("prompt to disconnected player")
	} else {
		pc.write(ServerMessage{
			Type:   MsgPrompt,
			Prompt: promptPayload(reqID, req, int(r.decisionTimeout/time.Second)),
		})
	}

	timer := r.clock.NewTimer(r.decisionTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-ch:
		return resp, nil
	case <-timer.C:
		r.SendMessage(fmt.Sprintf("%s took too long; choosing for them.", responder.Name))
		return defaultResponse(req), nil
	}
}

// deliverAnswer resolves a pending prompt if the answer matches one.
func (r *Room) deliverAnswer(playerID uuid.UUID, msg ClientMessage) {
	resp := msg.Answer.toResponse()
	if resp == nil {
		return
	}
	r.mu.Lock()
	ch, ok := r.pending[pendingKey{reqID: msg.ReqID, responder: playerID}]
	r.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- resp:
	default:
	}
}

// startGame opens a gather window and, once it fills or expires with
// enough players, registers and runs a game for this channel.
func (r *Room) startGame(starter models.PlayerInfo) {
	r.mu.Lock()
	if r.gatherer != nil {
		r.mu.Unlock()
		r.sendTo(starter.ID, ServerMessage{Type: MsgError, Message: "A game is already gathering players."})
		return
	}
	if _, active := r.registry.Get(r.channel); active {
		r.mu.Unlock()
		r.sendTo(starter.ID, ServerMessage{Type: MsgError, Message: game.ErrGameInProgress.Error()})
		return
	}
	g := lobby.NewGatherer(r.gatherWindow, r.clock, r.SendMessage, r.log)
	r.gatherer = g
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.mu.Unlock()

	r.SendMessage(fmt.Sprintf("%s wants to play Oust! Send join within %s.", starter.Name, r.gatherWindow))
	if err := g.Join(starter); err != nil {
		r.log.WithError(err).Warn("starter failed to join own game")
	}

	go r.runSession(ctx, g)
}

// runSession owns one game session end to end. The registry entry is
// released on every exit path.
func (r *Room) runSession(ctx context.Context, gatherer *lobby.Gatherer) {
	defer func() {
		r.mu.Lock()
		r.gatherer = nil
		r.cancel = nil
		r.mu.Unlock()
		r.registry.Remove(r.channel)
	}()

	roster, err := gatherer.Wait(ctx)
	if err != nil {
		r.log.WithError(err).Info("gather phase ended without a game")
		return
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	g, err := game.NewGame(r.channel, roster, rng)
	if err != nil {
		r.log.WithError(err).Error("game creation failed")
		r.SendMessage("Could not start the game: " + err.Error())
		return
	}
	if err := r.registry.Register(r.channel, g); err != nil {
		r.SendMessage(err.Error())
		return
	}

	r.SendMessage(fmt.Sprintf("Dealing %d players in. Everyone starts with 2 coins and 2 cards.", len(roster)))
	if _, err := game.RunGame(ctx, g, r, r.log); err != nil {
		r.log.WithError(err).Error("game aborted")
		r.SendMessage("The game was aborted.")
	}
}

// joinGame confirms a participant during an open gather window.
func (r *Room) joinGame(info models.PlayerInfo) {
	r.mu.Lock()
	g := r.gatherer
	r.mu.Unlock()
	if g == nil {
		r.sendTo(info.ID, ServerMessage{Type: MsgError, Message: "No game is gathering players. Send start first."})
		return
	}
	if err := g.Join(info); err != nil {
		r.sendTo(info.ID, ServerMessage{Type: MsgError, Message: err.Error()})
	}
}

func (r *Room) sendTo(playerID uuid.UUID, msg ServerMessage) {
	r.mu.Lock()
	pc := r.conns[playerID]
	r.mu.Unlock()
	if pc != nil {
		pc.write(msg)
	}
}

func (r *Room) addConn(pc *playerConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[pc.info.ID] = pc
}

// removeConn drops a connection. In-flight prompts for the player are
// left to time out, which the engine treats as an implicit
// no-response.
func (r *Room) removeConn(playerID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, playerID)
}

func (r *Room) empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns) == 0 && r.gatherer == nil
}

// autoAnswer short-circuits prompts with exactly one legal choice so
// the game does not stall on a formality.
func autoAnswer(req game.Request) (game.Response, bool) {
	if r, ok := req.(game.SelectCardLossRequest); ok && len(r.Candidates) == 1 {
		return game.SelectedCards{IDs: []uuid.UUID{r.Candidates[0].ID}}, true
	}
	return nil, false
}

// defaultResponse is the forced answer for an expired prompt.
func defaultResponse(req game.Request) game.Response {
	switch r := req.(type) {
	case game.SelectActionRequest:
		return game.SelectedAction{Action: r.Actions[0]}
	case game.SelectKillTargetRequest:
		return game.SelectedPlayer{ID: r.Candidates[0].ID}
	case game.SelectStealTargetRequest:
		return game.SelectedPlayer{ID: r.Candidates[0].ID}
	case game.SelectShuffleCardsRequest:
		// Keep the current hand untouched.
		ids := make([]uuid.UUID, 0, r.Keep)
		for _, c := range r.Hand[:r.Keep] {
			ids = append(ids, c.ID)
		}
		return game.SelectedCards{IDs: ids}
	case game.SelectRebuttalRequest:
		return game.SelectedRebuttal{Allow: true}
	case game.SelectCardLossRequest:
		return game.SelectedCards{IDs: []uuid.UUID{r.Candidates[0].ID}}
	}
	return game.GoBack{}
}

// marshalMessage encodes a ServerMessage, falling back to an empty
// object so a marshal bug cannot kill the writer loop.
func marshalMessage(log *logrus.Entry, msg ServerMessage) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Warnf("failed to marshal %s message", msg.Type)
		return []byte("{}")
	}
	return data
}
