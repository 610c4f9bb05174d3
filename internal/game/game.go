// internal/game/game.go
package game

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/oust-game/oust/internal/models"
)

// Seat count bounds. Every player is dealt 2 of the 15 cards and the
// deck must retain a margin for exchanges, so at most (15-3)/2 = 6
// seats.
const (
	MinPlayers = 3
	MaxPlayers = (DeckSize - CopiesPerRole) / 2
)

// StartingCards is how many concealed cards each seat is dealt.
const StartingCards = 2

// Game is the aggregate state of one Oust session. It lives entirely in
// memory for the duration of the session; nothing survives past the
// winner being decided or the session being cancelled.
//
// Turns are strictly sequential: a single controller goroutine owns the
// game, so the struct carries no lock. Cross-game isolation is the
// Registry's job.
type Game struct {
	ID      uuid.UUID
	Channel string

	// Players is the seating order, fixed at creation. Eliminated
	// players keep their seat but are skipped by the turn cursor.
	Players []*models.Player
	// Turn indexes Players and always denotes a non-eliminated seat.
	Turn int

	Deck    []models.Card
	Discard []models.Card

	rng *rand.Rand
}

// NewGame seats the roster, shuffles a standard deck with the supplied
// random source, and deals 2 concealed cards to each player.
func NewGame(channel string, roster []models.PlayerInfo, rng *rand.Rand) (*Game, error) {
	if len(roster) < MinPlayers || len(roster) > MaxPlayers {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPlayerCount, len(roster))
	}
	seen := make(map[uuid.UUID]bool, len(roster))
	for _, info := range roster {
		if seen[info.ID] {
			return nil, fmt.Errorf("duplicate player id %s in roster", info.ID)
		}
		seen[info.ID] = true
	}

	id, _ := uuid.NewRandom()
	g := &Game{
		ID:      id,
		Channel: channel,
		Deck:    StandardDeck(),
		rng:     rng,
	}
	Shuffle(g.Deck, rng)

	for _, info := range roster {
		p := models.NewPlayer(info)
		for i := 0; i < StartingCards; i++ {
			p.Hand = append(p.Hand, models.HeldCard{Card: g.draw()})
		}
		g.Players = append(g.Players, p)
	}
	return g, nil
}

// draw pops the top card of the deck. The deck cannot run dry: deals
// and exchanges always return as many cards as they take.
func (g *Game) draw() models.Card {
	c := g.Deck[0]
	g.Deck = g.Deck[1:]
	return c
}

// PeekDeck returns the top n cards without removing them.
func (g *Game) PeekDeck(n int) []models.Card {
	if n > len(g.Deck) {
		n = len(g.Deck)
	}
	out := make([]models.Card, n)
	copy(out, g.Deck[:n])
	return out
}

// CurrentPlayer returns the seat the turn cursor points at.
func (g *Game) CurrentPlayer() *models.Player {
	return g.Players[g.Turn]
}

// PlayerByID resolves a seat, failing with ErrUnknownPlayer for ids not
// in this game.
func (g *Game) PlayerByID(id uuid.UUID) (*models.Player, error) {
	for _, p := range g.Players {
		if p.Info.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
}

// LivingPlayers returns every seat still holding cards, in seat order.
func (g *Game) LivingPlayers() []*models.Player {
	var out []*models.Player
	for _, p := range g.Players {
		if !p.Eliminated() {
			out = append(out, p)
		}
	}
	return out
}

// OtherLivingPlayers returns the living seats other than actorID, in
// seat order starting from the seat after the actor. This is both the
// candidate set for targeted actions and the polling order for
// contests.
func (g *Game) OtherLivingPlayers(actorID uuid.UUID) []*models.Player {
	start := 0
	for i, p := range g.Players {
		if p.Info.ID == actorID {
			start = i
			break
		}
	}
	var out []*models.Player
	for i := 1; i < len(g.Players); i++ {
		p := g.Players[(start+i)%len(g.Players)]
		if p.Info.ID != actorID && !p.Eliminated() {
			out = append(out, p)
		}
	}
	return out
}

// Winner returns the sole surviving player once everyone else is
// eliminated.
func (g *Game) Winner() (*models.Player, bool) {
	living := g.LivingPlayers()
	if len(living) == 1 {
		return living[0], true
	}
	return nil, false
}

// AdvanceTurn moves the cursor to the next non-eliminated seat. A board
// with no survivors is a rules violation and fails fast.
func (g *Game) AdvanceTurn() error {
	for i := 1; i <= len(g.Players); i++ {
		next := (g.Turn + i) % len(g.Players)
		if !g.Players[next].Eliminated() {
			g.Turn = next
			return nil
		}
	}
	return ErrNoPlayersLeft
}

// CheckInvariants verifies the aggregate after a mutation: all 15 cards
// accounted for across hands, deck, and discard, and no negative coin
// balance. A failure is a programming error and aborts this game only.
func (g *Game) CheckInvariants() error {
	count := len(g.Deck) + len(g.Discard)
	for _, p := range g.Players {
		count += len(p.Hand)
		if p.Coins < 0 {
			return fmt.Errorf("player %s has negative balance %d", p.Info.ID, p.Coins)
		}
	}
	if count != DeckSize {
		return fmt.Errorf("%w: counted %d", ErrCardCountMismatch, count)
	}
	return nil
}

// Apply performs the mutations a resolved turn describes: contest
// penalties first, then the action's own spend and card or coin
// movement. Lookups are validated before anything moves.
func (g *Game) Apply(actor *models.Player, outcome TurnOutcome) error {
	switch o := outcome.(type) {
	case PayDayOutcome:
		actor.ReceiveCoins(PayDayIncome)

	case BigPayDayOutcome:
		actor.ReceiveCoins(BigPayDayIncome)

	case EqualizeOutcome:
		if err := g.applyContest(actor, ActionEqualize, o.Contest); err != nil {
			return err
		}
		if !o.Contest.blocked() {
			actor.ReceiveCoins(EqualizeIncome)
		}

	case StealOutcome:
		if err := g.applyContest(actor, ActionSteal, o.Contest); err != nil {
			return err
		}
		if !o.Contest.blocked() {
			target, err := g.PlayerByID(o.Target)
			if err != nil {
				return err
			}
			if !target.Eliminated() {
				n := StealMax
				if target.Coins < n {
					n = target.Coins
				}
				if err := target.SpendCoins(n); err != nil {
					return err
				}
				actor.ReceiveCoins(n)
			}
		}

	case KillOutcome:
		action := ActionOust
		if o.Kind == KillAssassinate {
			action = ActionAssassinate
		}
		if err := g.applyContest(actor, action, o.Contest); err != nil {
			return err
		}
		if o.Contest.blocked() {
			break
		}
		if err := actor.SpendCoins(action.RequiredCoins()); err != nil {
			return err
		}
		target, err := g.PlayerByID(o.Target)
		if err != nil {
			return err
		}
		if o.LossCardID != uuid.Nil && !target.Eliminated() {
			if err := g.discardFromHand(target, o.LossCardID); err != nil {
				return err
			}
		}

	case ShuffleOutcome:
		if err := g.applyContest(actor, ActionShuffle, o.Contest); err != nil {
			return err
		}
		if o.Contest.blocked() {
			break
		}
		if err := g.applyExchange(actor, o); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unhandled turn outcome %T", outcome)
	}

	return g.CheckInvariants()
}

// applyContest settles a contest's penalties. A failed contest costs
// the challenger a card and, except for Shuffle whose exchange recycles
// the hand anyway, cycles the actor's proving card through the deck so
// its position is secret again. An upheld contest costs the actor a
// card.
func (g *Game) applyContest(actor *models.Player, action Action, c *ContestResult) error {
	if c == nil {
		return nil
	}
	challenger, err := g.PlayerByID(c.Challenger)
	if err != nil {
		return err
	}

	if c.Upheld {
		return g.discardFromHand(actor, c.LossCardID)
	}

	idx := actor.CardIndex(c.DefenseID)
	if idx < 0 {
		return fmt.Errorf("defense card %s not in actor hand", c.DefenseID)
	}
	if action == ActionShuffle {
		// The exchange below sends cards through the deck regardless, so
		// the proof is just flipped face up; if the actor keeps it, it
		// stays revealed.
		if err := actor.RevealCard(idx); err != nil {
			return err
		}
	} else {
		proved, err := actor.LoseCard(idx)
		if err != nil {
			return err
		}
		g.Deck = append(g.Deck, proved.Card)
		Shuffle(g.Deck, g.rng)
		actor.Hand = append(actor.Hand, models.HeldCard{Card: g.draw()})
	}

	return g.discardFromHand(challenger, c.LossCardID)
}

// discardFromHand moves the identified card from p's hand to the
// discard pile.
func (g *Game) discardFromHand(p *models.Player, cardID uuid.UUID) error {
	idx := p.CardIndex(cardID)
	if idx < 0 {
		return fmt.Errorf("card %s not in hand of %s: %w", cardID, p.Info.ID, models.ErrInvalidCardIndex)
	}
	c, err := p.LoseCard(idx)
	if err != nil {
		return err
	}
	g.Discard = append(g.Discard, c.Card)
	return nil
}

// applyExchange performs the Shuffle action: lift the drawn cards off
// the deck, rebuild the hand from the keep set, and return the rest to
// a reshuffled deck.
func (g *Game) applyExchange(actor *models.Player, o ShuffleOutcome) error {
	if len(o.KeepIDs) != len(actor.Hand) {
		return fmt.Errorf("exchange must keep exactly %d cards: %w", len(actor.Hand), ErrIllegalActionForState)
	}

	pool := make(map[uuid.UUID]models.HeldCard, len(actor.Hand)+len(o.DrawnIDs))
	for _, hc := range actor.Hand {
		pool[hc.ID] = hc
	}
	for _, id := range o.DrawnIDs {
		if len(g.Deck) == 0 || g.Deck[0].ID != id {
			return fmt.Errorf("drawn card %s no longer on top of deck", id)
		}
		pool[id] = models.HeldCard{Card: g.draw()}
	}

	newHand := make([]models.HeldCard, 0, len(o.KeepIDs))
	for _, id := range o.KeepIDs {
		hc, ok := pool[id]
		if !ok {
			return fmt.Errorf("kept card %s not offered: %w", id, ErrIllegalActionForState)
		}
		delete(pool, id)
		newHand = append(newHand, hc)
	}
	actor.Hand = newHand

	for _, hc := range pool {
		g.Deck = append(g.Deck, hc.Card)
	}
	Shuffle(g.Deck, g.rng)
	return nil
}
