// internal/game/protocol.go
package game

import (
	"github.com/google/uuid"

	"github.com/oust-game/oust/internal/models"
)

// KillKind distinguishes the two card-removal actions inside a target
// prompt.
type KillKind string

const (
	KillOust        KillKind = "oust"
	KillAssassinate KillKind = "assassinate"
)

// LossReason tells the prompted player why they are choosing a card to
// give up.
type LossReason string

const (
	LossOusted         LossReason = "ousted"
	LossAssassinated   LossReason = "assassinated"
	LossCaughtBluffing LossReason = "caught_bluffing"
	LossFailedContest  LossReason = "failed_contest"
)

// Request is one side of the closed pair of variant families exchanged
// with the Client. The engine keeps a LIFO stack of issued requests per
// turn so a player can back out of a partially entered move.
type Request interface {
	isRequest()
}

// SelectActionRequest is the root request of every turn, offering the
// acting player their eligible actions.
type SelectActionRequest struct {
	Actions []Action
}

// SelectKillTargetRequest asks the acting player who an Oust or
// Assassinate is aimed at.
type SelectKillTargetRequest struct {
	Candidates []models.PlayerInfo
	Kind       KillKind
}

// SelectStealTargetRequest asks the acting player who to steal from.
type SelectStealTargetRequest struct {
	Candidates []models.PlayerInfo
}

// SelectShuffleCardsRequest shows the acting player the top of the deck
// next to their hand and asks which Keep cards they want to end up
// holding; the rest go back into the deck.
type SelectShuffleCardsRequest struct {
	Drawn []models.Card
	Hand  []models.HeldCard
	Keep  int
}

// SelectRebuttalRequest asks a non-acting player whether they allow the
// declared action or contest it as a bluff.
type SelectRebuttalRequest struct {
	Action Action
	Actor  models.PlayerInfo
}

// SelectCardLossRequest asks a player which of their cards they give
// up.
type SelectCardLossRequest struct {
	Candidates []models.HeldCard
	Reason     LossReason
}

func (SelectActionRequest) isRequest()       {}
func (SelectKillTargetRequest) isRequest()   {}
func (SelectStealTargetRequest) isRequest()  {}
func (SelectShuffleCardsRequest) isRequest() {}
func (SelectRebuttalRequest) isRequest()     {}
func (SelectCardLossRequest) isRequest()     {}

// Response is the other side of the variant pair: what the prompted
// player answered.
type Response interface {
	isResponse()
}

// SelectedAction answers a SelectActionRequest.
type SelectedAction struct {
	Action Action
}

// SelectedPlayer answers a target request.
type SelectedPlayer struct {
	ID uuid.UUID
}

// SelectedCards answers a card-selection request with card ids drawn
// from the offered candidates.
type SelectedCards struct {
	IDs []uuid.UUID
}

// SelectedRebuttal answers a SelectRebuttalRequest. Allow false means
// the responder contests the action.
type SelectedRebuttal struct {
	Allow bool
}

// GoBack pops the current request and re-issues the previous one. On
// the root action request it is a no-op re-issue; back navigation never
// exits the turn.
type GoBack struct{}

func (SelectedAction) isResponse()   {}
func (SelectedPlayer) isResponse()   {}
func (SelectedCards) isResponse()    {}
func (SelectedRebuttal) isResponse() {}
func (GoBack) isResponse()           {}

// requestStack is the per-turn LIFO of issued requests.
type requestStack struct {
	reqs []Request
}

func (s *requestStack) push(r Request) {
	s.reqs = append(s.reqs, r)
}

// pop drops the top request unless only the root remains.
func (s *requestStack) pop() {
	if len(s.reqs) > 1 {
		s.reqs = s.reqs[:len(s.reqs)-1]
	}
}

func (s *requestStack) top() Request {
	return s.reqs[len(s.reqs)-1]
}
