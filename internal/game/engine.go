// internal/game/engine.go
package game

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oust-game/oust/internal/models"
)

// TurnEngine drives one player's turn through the interaction protocol
// to a TurnOutcome. One instance lives per turn. The engine only reads
// game state and prompts; Game.Apply performs every mutation the
// outcome describes, so cancelling the context mid-prompt aborts with
// nothing half applied.
type TurnEngine struct {
	g      *Game
	actor  *models.Player
	client Client
	stack  requestStack
	log    *logrus.Entry
}

// NewTurnEngine builds an engine for the current player's turn.
func NewTurnEngine(g *Game, client Client, log *logrus.Entry) *TurnEngine {
	return &TurnEngine{
		g:      g,
		actor:  g.CurrentPlayer(),
		client: client,
		log:    log,
	}
}

// Run walks the actor through action selection, any target or card
// selection, and the contest window, re-issuing the current request on
// every invalid answer. Only a done context makes it return an error.
func (e *TurnEngine) Run(ctx context.Context) (TurnOutcome, error) {
	e.stack.push(SelectActionRequest{Actions: EligibleActions(e.actor)})

	for {
		resp, err := e.client.Prompt(ctx, e.actor.Info, e.stack.top())
		if err != nil {
			return nil, err
		}

		if _, ok := resp.(GoBack); ok {
			// Popping the root re-issues it; back navigation never exits
			// the turn.
			e.stack.pop()
			continue
		}

		switch req := e.stack.top().(type) {
		case SelectActionRequest:
			sel, ok := resp.(SelectedAction)
			if !ok || !containsAction(req.Actions, sel.Action) {
				e.rejected(resp)
				continue
			}
			outcome, err := e.actionSelected(ctx, sel.Action)
			if err != nil {
				return nil, err
			}
			if outcome != nil {
				return outcome, nil
			}

		case SelectKillTargetRequest:
			target, ok := e.targetFrom(resp, req.Candidates)
			if !ok {
				e.rejected(resp)
				continue
			}
			return e.resolveKill(ctx, req.Kind, target)

		case SelectStealTargetRequest:
			target, ok := e.targetFrom(resp, req.Candidates)
			if !ok {
				e.rejected(resp)
				continue
			}
			return e.resolveSteal(ctx, target)

		case SelectShuffleCardsRequest:
			keep, ok := e.keepSetFrom(resp, req)
			if !ok {
				e.rejected(resp)
				continue
			}
			return e.resolveShuffle(ctx, req, keep)

		default:
			return nil, fmt.Errorf("unhandled request %T on turn stack", req)
		}
	}
}

// actionSelected advances past the root request: terminal actions
// resolve immediately, targeted and card actions push the follow-up
// request.
func (e *TurnEngine) actionSelected(ctx context.Context, action Action) (TurnOutcome, error) {
	e.log.WithFields(logrus.Fields{
		"player": e.actor.Info.Name,
		"action": action,
	}).Debug("action selected")

	switch action {
	case ActionPayDay:
		return PayDayOutcome{}, nil

	case ActionBigPayDay:
		return BigPayDayOutcome{}, nil

	case ActionEqualize:
		contest, err := e.runContest(ctx, ActionEqualize)
		if err != nil {
			return nil, err
		}
		return EqualizeOutcome{Contest: contest}, nil

	case ActionOust, ActionAssassinate:
		kind := KillOust
		if action == ActionAssassinate {
			kind = KillAssassinate
		}
		e.stack.push(SelectKillTargetRequest{
			Candidates: playerInfos(e.g.OtherLivingPlayers(e.actor.Info.ID)),
			Kind:       kind,
		})
		return nil, nil

	case ActionSteal:
		e.stack.push(SelectStealTargetRequest{
			Candidates: playerInfos(e.g.OtherLivingPlayers(e.actor.Info.ID)),
		})
		return nil, nil

	case ActionShuffle:
		hand := make([]models.HeldCard, len(e.actor.Hand))
		copy(hand, e.actor.Hand)
		e.stack.push(SelectShuffleCardsRequest{
			Drawn: e.g.PeekDeck(2),
			Hand:  hand,
			Keep:  len(hand),
		})
		return nil, nil
	}

	return nil, fmt.Errorf("unhandled action %q", action)
}

// resolveKill runs the contest window for Assassinate (Oust cannot be
// contested), then lets the target choose which card they give up.
func (e *TurnEngine) resolveKill(ctx context.Context, kind KillKind, target *models.Player) (TurnOutcome, error) {
	action, reason := ActionOust, LossOusted
	if kind == KillAssassinate {
		action, reason = ActionAssassinate, LossAssassinated
	}

	var contest *ContestResult
	if action.Blockable() {
		var err error
		contest, err = e.runContest(ctx, action)
		if err != nil {
			return nil, err
		}
		if contest.blocked() {
			return KillOutcome{Kind: kind, Target: target.Info.ID, Contest: contest}, nil
		}
	}

	// A card already committed to the contest penalty cannot also be the
	// kill's victim.
	committed := uuid.Nil
	if contest != nil && contest.LoserID == target.Info.ID {
		committed = contest.LossCardID
	}
	candidates := lossCandidates(target, committed)
	if len(candidates) == 0 {
		// The contest penalty will already eliminate the target.
		return KillOutcome{Kind: kind, Target: target.Info.ID, Contest: contest}, nil
	}

	lossID, err := e.promptCardLoss(ctx, target, candidates, reason)
	if err != nil {
		return nil, err
	}
	return KillOutcome{Kind: kind, Target: target.Info.ID, LossCardID: lossID, Contest: contest}, nil
}

func (e *TurnEngine) resolveSteal(ctx context.Context, target *models.Player) (TurnOutcome, error) {
	contest, err := e.runContest(ctx, ActionSteal)
	if err != nil {
		return nil, err
	}
	return StealOutcome{Target: target.Info.ID, Contest: contest}, nil
}

func (e *TurnEngine) resolveShuffle(ctx context.Context, req SelectShuffleCardsRequest, keep []uuid.UUID) (TurnOutcome, error) {
	contest, err := e.runContest(ctx, ActionShuffle)
	if err != nil {
		return nil, err
	}
	drawn := make([]uuid.UUID, len(req.Drawn))
	for i, c := range req.Drawn {
		drawn[i] = c.ID
	}
	return ShuffleOutcome{DrawnIDs: drawn, KeepIDs: keep, Contest: contest}, nil
}

// runContest polls the other living players in seat order. The first to
// contest resolves the window; everyone allowing means the action
// stands unchallenged (nil result). On a contest the actor's concealed
// cards decide it: holding the claimed role defeats the challenger,
// holding none exposes the bluff.
func (e *TurnEngine) runContest(ctx context.Context, action Action) (*ContestResult, error) {
	var challenger *models.Player
	for _, other := range e.g.OtherLivingPlayers(e.actor.Info.ID) {
		allow, err := e.promptRebuttal(ctx, other, action)
		if err != nil {
			return nil, err
		}
		if !allow {
			challenger = other
			break
		}
	}
	if challenger == nil {
		return nil, nil
	}

	e.client.SendMessage(fmt.Sprintf("%s contests %s's claim to the %s.",
		challenger.Info.Name, e.actor.Info.Name, action.ClaimedRole()))

	if idx := e.actor.ConcealedRoleIndex(action.ClaimedRole()); idx >= 0 {
		defense := e.actor.Hand[idx]
		e.client.SendMessage(fmt.Sprintf("%s reveals the %s. The contest fails.",
			e.actor.Info.Name, defense.Role))
		lossID, err := e.promptCardLoss(ctx, challenger, lossCandidates(challenger, uuid.Nil), LossFailedContest)
		if err != nil {
			return nil, err
		}
		return &ContestResult{
			Challenger: challenger.Info.ID,
			DefenseID:  defense.ID,
			LoserID:    challenger.Info.ID,
			LossCardID: lossID,
		}, nil
	}

	e.client.SendMessage(fmt.Sprintf("%s was bluffing: no %s. The %s is cancelled.",
		e.actor.Info.Name, action.ClaimedRole(), action))
	lossID, err := e.promptCardLoss(ctx, e.actor, lossCandidates(e.actor, uuid.Nil), LossCaughtBluffing)
	if err != nil {
		return nil, err
	}
	return &ContestResult{
		Challenger: challenger.Info.ID,
		Upheld:     true,
		LoserID:    e.actor.Info.ID,
		LossCardID: lossID,
	}, nil
}

// promptRebuttal asks one non-acting player to allow or contest. These
// prompts sit outside the actor's request stack: back navigation is not
// an answer here and is rejected like any other mismatched response.
func (e *TurnEngine) promptRebuttal(ctx context.Context, p *models.Player, action Action) (bool, error) {
	req := SelectRebuttalRequest{Action: action, Actor: e.actor.Info}
	for {
		resp, err := e.client.Prompt(ctx, p.Info, req)
		if err != nil {
			return false, err
		}
		sel, ok := resp.(SelectedRebuttal)
		if !ok {
			e.rejected(resp)
			continue
		}
		return sel.Allow, nil
	}
}

// promptCardLoss asks a player to pick one of the offered cards to give
// up and re-issues until the answer names exactly one of them.
func (e *TurnEngine) promptCardLoss(ctx context.Context, p *models.Player, candidates []models.HeldCard, reason LossReason) (uuid.UUID, error) {
	req := SelectCardLossRequest{Candidates: candidates, Reason: reason}
	for {
		resp, err := e.client.Prompt(ctx, p.Info, req)
		if err != nil {
			return uuid.Nil, err
		}
		sel, ok := resp.(SelectedCards)
		if !ok || len(sel.IDs) != 1 || !containsCard(candidates, sel.IDs[0]) {
			e.rejected(resp)
			continue
		}
		return sel.IDs[0], nil
	}
}

// targetFrom validates a target selection against the offered
// candidates.
func (e *TurnEngine) targetFrom(resp Response, candidates []models.PlayerInfo) (*models.Player, bool) {
	sel, ok := resp.(SelectedPlayer)
	if !ok {
		return nil, false
	}
	for _, c := range candidates {
		if c.ID == sel.ID {
			p, err := e.g.PlayerByID(sel.ID)
			if err != nil || p.Eliminated() {
				return nil, false
			}
			return p, true
		}
	}
	return nil, false
}

// keepSetFrom validates a shuffle keep set: right size, no duplicates,
// every card among those offered.
func (e *TurnEngine) keepSetFrom(resp Response, req SelectShuffleCardsRequest) ([]uuid.UUID, bool) {
	sel, ok := resp.(SelectedCards)
	if !ok || len(sel.IDs) != req.Keep {
		return nil, false
	}
	offered := make(map[uuid.UUID]bool, len(req.Hand)+len(req.Drawn))
	for _, c := range req.Hand {
		offered[c.ID] = true
	}
	for _, c := range req.Drawn {
		offered[c.ID] = true
	}
	for _, id := range sel.IDs {
		if !offered[id] {
			return nil, false
		}
		delete(offered, id)
	}
	return sel.IDs, true
}

// rejected logs an invalid response; the caller re-issues the current
// request.
func (e *TurnEngine) rejected(resp Response) {
	e.log.WithFields(logrus.Fields{
		"player":   e.actor.Info.Name,
		"response": fmt.Sprintf("%T", resp),
	}).Debug("response rejected: ", ErrIllegalActionForState)
}

func containsAction(actions []Action, a Action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}

func containsCard(cards []models.HeldCard, id uuid.UUID) bool {
	for _, c := range cards {
		if c.ID == id {
			return true
		}
	}
	return false
}

func playerInfos(players []*models.Player) []models.PlayerInfo {
	out := make([]models.PlayerInfo, len(players))
	for i, p := range players {
		out[i] = p.Info
	}
	return out
}

// lossCandidates returns the cards p may choose to give up: concealed
// cards first, falling back to the whole hand when everything is
// already face up. excluded drops a card already committed to another
// penalty this turn.
func lossCandidates(p *models.Player, excluded uuid.UUID) []models.HeldCard {
	var concealed, all []models.HeldCard
	for _, c := range p.Hand {
		if c.ID == excluded {
			continue
		}
		all = append(all, c)
		if !c.Revealed {
			concealed = append(concealed, c)
		}
	}
	if len(concealed) > 0 {
		return concealed
	}
	return all
}
