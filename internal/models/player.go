// internal/models/player.go
package models

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrInsufficientCoins is returned when a spend exceeds the player's
	// balance. The balance is left untouched.
	ErrInsufficientCoins = errors.New("insufficient coins")

	// ErrInvalidCardIndex is returned when a card operation names a hand
	// slot that does not exist. The hand is left untouched.
	ErrInvalidCardIndex = errors.New("invalid card index")
)

// PlayerInfo identifies a participant. IDs are supplied by the platform
// and never reused within a game.
type PlayerInfo struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Player is one seat's mutable state. Mutation happens only through the
// methods below, and every method validates before it mutates, so a
// failed call leaves the player unchanged.
type Player struct {
	Info  PlayerInfo `json:"info"`
	Coins int        `json:"coins"`
	Hand  []HeldCard `json:"hand"`
}

// NewPlayer seats a participant with the starting balance of 2 coins.
// Cards are dealt separately by the game.
func NewPlayer(info PlayerInfo) *Player {
	return &Player{Info: info, Coins: 2}
}

// SpendCoins debits the balance, failing with ErrInsufficientCoins if
// the balance would go negative.
func (p *Player) SpendCoins(n int) error {
	if n > p.Coins {
		return ErrInsufficientCoins
	}
	p.Coins -= n
	return nil
}

// ReceiveCoins credits the balance.
func (p *Player) ReceiveCoins(n int) {
	p.Coins += n
}

// LoseCard removes and returns the held card at idx.
func (p *Player) LoseCard(idx int) (HeldCard, error) {
	if idx < 0 || idx >= len(p.Hand) {
		return HeldCard{}, ErrInvalidCardIndex
	}
	c := p.Hand[idx]
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	return c, nil
}

// RevealCard flips the visibility flag of the held card at idx without
// removing it. Used when a contest forces a card face up.
func (p *Player) RevealCard(idx int) error {
	if idx < 0 || idx >= len(p.Hand) {
		return ErrInvalidCardIndex
	}
	p.Hand[idx].Revealed = true
	return nil
}

// ReplaceCard swaps the held card at idx for c, returning the card that
// was there. The replacement enters the hand concealed.
func (p *Player) ReplaceCard(idx int, c Card) (Card, error) {
	if idx < 0 || idx >= len(p.Hand) {
		return Card{}, ErrInvalidCardIndex
	}
	old := p.Hand[idx].Card
	p.Hand[idx] = HeldCard{Card: c}
	return old, nil
}

// Eliminated reports whether the player is out of the game. Elimination
// is irreversible: cards are never dealt back into an empty hand.
func (p *Player) Eliminated() bool {
	return len(p.Hand) == 0
}

// CardIndex returns the hand slot currently holding the card with the
// given id, or -1.
func (p *Player) CardIndex(id uuid.UUID) int {
	for i, c := range p.Hand {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// ConcealedCards returns the held cards still face down. These are the
// only cards a player can choose to lose or use in a contest defense.
func (p *Player) ConcealedCards() []HeldCard {
	var out []HeldCard
	for _, c := range p.Hand {
		if !c.Revealed {
			out = append(out, c)
		}
	}
	return out
}

// ConcealedRoleIndex returns the slot of a concealed card with the given
// role, or -1 if the player holds none.
func (p *Player) ConcealedRoleIndex(role Role) int {
	for i, c := range p.Hand {
		if !c.Revealed && c.Role == role {
			return i
		}
	}
	return -1
}
