package game

import "github.com/google/uuid"

// ContestResult records how a contest window resolved. Exactly one side
// lost a card: the challenger when the actor proved their claim, the
// actor when the bluff was exposed.
type ContestResult struct {
	Challenger uuid.UUID
	// Upheld is true when the actor was bluffing; the contested action
	// is cancelled and no coins change hands.
	Upheld bool
	// DefenseID is the actor's proving card when the contest failed.
	DefenseID uuid.UUID
	LoserID   uuid.UUID
	// LossCardID is the card the loser gave up.
	LossCardID uuid.UUID
}

// blocked reports whether a contest cancelled the action it gated.
func (c *ContestResult) blocked() bool {
	return c != nil && c.Upheld
}

// TurnOutcome is the terminal result of one pass through the turn
// engine. It is a pure decision record: Game.Apply performs all the
// mutation it describes.
type TurnOutcome interface {
	isOutcome()
}

// PayDayOutcome credits the actor the base income.
type PayDayOutcome struct{}

// BigPayDayOutcome credits the actor the large income.
type BigPayDayOutcome struct{}

// EqualizeOutcome credits the actor the mid income unless contested
// successfully.
type EqualizeOutcome struct {
	Contest *ContestResult
}

// StealOutcome transfers up to StealMax coins from Target to the actor.
type StealOutcome struct {
	Target  uuid.UUID
	Contest *ContestResult
}

// KillOutcome removes LossCardID from Target's hand after the actor
// pays the action's cost. LossCardID is uuid.Nil when the contest
// already eliminated the target.
type KillOutcome struct {
	Kind       KillKind
	Target     uuid.UUID
	LossCardID uuid.UUID
	Contest    *ContestResult
}

// ShuffleOutcome exchanges the actor's hand with the top of the deck:
// DrawnIDs were lifted off the deck, KeepIDs is the hand the actor
// chose from hand plus drawn, and everything else returns to the deck.
type ShuffleOutcome struct {
	DrawnIDs []uuid.UUID
	KeepIDs  []uuid.UUID
	Contest  *ContestResult
}

func (PayDayOutcome) isOutcome()    {}
func (BigPayDayOutcome) isOutcome() {}
func (EqualizeOutcome) isOutcome()  {}
func (StealOutcome) isOutcome()     {}
func (KillOutcome) isOutcome()      {}
func (ShuffleOutcome) isOutcome()   {}
