package game

import "errors"

var (
	// ErrInvalidPlayerCount is returned by NewGame when the roster is
	// outside the supported range of 3 to 6 seats. Never clamped.
	ErrInvalidPlayerCount = errors.New("player count must be between 3 and 6")

	// ErrUnknownPlayer is returned when a move names a player that is not
	// seated in this game.
	ErrUnknownPlayer = errors.New("unknown player")

	// ErrIllegalActionForState is returned when a response does not match
	// what the current request offered. The engine re-issues the same
	// request instead of advancing, so one bad answer never corrupts a
	// turn.
	ErrIllegalActionForState = errors.New("illegal action for current state")

	// ErrNoPlayersLeft indicates that every seat has lost all of its
	// cards, which is unreachable under correct rules. It aborts the
	// single game instance.
	ErrNoPlayersLeft = errors.New("no players holding cards")

	// ErrCardCountMismatch indicates that hands, deck, and discard no
	// longer sum to a full deck. Programming error, fatal to the game.
	ErrCardCountMismatch = errors.New("card count invariant violated")

	// ErrGameInProgress is returned by the registry when a channel
	// already has an active game.
	ErrGameInProgress = errors.New("a game is already in progress in this channel")
)
