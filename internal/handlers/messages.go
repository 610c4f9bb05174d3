// internal/handlers/messages.go
package handlers

import (
	"github.com/google/uuid"

	"github.com/oust-game/oust/internal/game"
	"github.com/oust-game/oust/internal/models"
)

// Server→client message types.
const (
	MsgWelcome = "welcome"
	MsgChat    = "chat"
	MsgPrompt  = "prompt"
	MsgError   = "error"
)

// Client→server message types.
const (
	MsgHello    = "hello"
	MsgStart    = "start"
	MsgJoin     = "join"
	MsgResponse = "response"
)

// Request kinds carried in a prompt.
const (
	KindSelectAction       = "select_action"
	KindSelectKillTarget   = "select_kill_target"
	KindSelectStealTarget  = "select_steal_target"
	KindSelectShuffleCards = "select_shuffle_cards"
	KindSelectRebuttal     = "select_rebuttal"
	KindSelectCardLoss     = "select_card_loss"
)

// ServerMessage is the envelope for everything the server sends.
type ServerMessage struct {
	Type    string             `json:"type"`
	Message string             `json:"message,omitempty"`
	Player  *models.PlayerInfo `json:"player,omitempty"`
	Prompt  *PromptPayload     `json:"prompt,omitempty"`
}

// PromptPayload flattens a game.Request for the wire, tagged with a
// correlation id the answer must echo.
type PromptPayload struct {
	ID         uuid.UUID           `json:"id"`
	Kind       string              `json:"kind"`
	Actions    []game.Action       `json:"actions,omitempty"`
	Candidates []models.PlayerInfo `json:"candidates,omitempty"`
	Hand       []models.HeldCard   `json:"hand,omitempty"`
	Drawn      []models.Card       `json:"drawn,omitempty"`
	Cards      []models.HeldCard   `json:"cards,omitempty"`
	Keep       int                 `json:"keep,omitempty"`
	KillKind   game.KillKind       `json:"killKind,omitempty"`
	Action     game.Action         `json:"action,omitempty"`
	Actor      *models.PlayerInfo  `json:"actor,omitempty"`
	Reason     game.LossReason     `json:"reason,omitempty"`
	TimeoutSec int                 `json:"timeoutSec"`
}

// ClientMessage is the envelope for everything a client sends.
type ClientMessage struct {
	Type   string         `json:"type"`
	Name   string         `json:"name,omitempty"`
	ReqID  uuid.UUID      `json:"reqId,omitempty"`
	Answer *AnswerPayload `json:"answer,omitempty"`
}

// AnswerPayload is a client's reply to a prompt.
type AnswerPayload struct {
	Kind   string      `json:"kind"` // action | player | cards | rebuttal | back
	Action game.Action `json:"action,omitempty"`
	Player uuid.UUID   `json:"player,omitempty"`
	Cards  []uuid.UUID `json:"cards,omitempty"`
	Allow  *bool       `json:"allow,omitempty"`
}

// promptPayload converts an engine request to its wire form.
func promptPayload(id uuid.UUID, req game.Request, timeoutSec int) *PromptPayload {
	p := &PromptPayload{ID: id, TimeoutSec: timeoutSec}
	switch r := req.(type) {
	case game.SelectActionRequest:
		p.Kind = KindSelectAction
		p.Actions = r.Actions
	case game.SelectKillTargetRequest:
		p.Kind = KindSelectKillTarget
		p.Candidates = r.Candidates
		p.KillKind = r.Kind
	case game.SelectStealTargetRequest:
		p.Kind = KindSelectStealTarget
		p.Candidates = r.Candidates
	case game.SelectShuffleCardsRequest:
		p.Kind = KindSelectShuffleCards
		p.Hand = r.Hand
		p.Drawn = r.Drawn
		p.Keep = r.Keep
	case game.SelectRebuttalRequest:
		p.Kind = KindSelectRebuttal
		p.Action = r.Action
		actor := r.Actor
		p.Actor = &actor
	case game.SelectCardLossRequest:
		p.Kind = KindSelectCardLoss
		p.Cards = r.Candidates
		p.Reason = r.Reason
	}
	return p
}

// toResponse converts a wire answer to an engine response. Unknown
// kinds map to nil and are dropped by the caller.
func (a *AnswerPayload) toResponse() game.Response {
	if a == nil {
		return nil
	}
	switch a.Kind {
	case "action":
		return game.SelectedAction{Action: a.Action}
	case "player":
		return game.SelectedPlayer{ID: a.Player}
	case "cards":
		return game.SelectedCards{IDs: a.Cards}
	case "rebuttal":
		allow := a.Allow == nil || *a.Allow
		return game.SelectedRebuttal{Allow: allow}
	case "back":
		return game.GoBack{}
	}
	return nil
}
