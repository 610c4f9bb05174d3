package game

import (
	"context"

	"github.com/oust-game/oust/internal/models"
)

// Client is the boundary to the chat platform. It presents a Request to
// one player and waits for their answer. Implementations own the
// timeout policy: an unanswered or undeliverable prompt must come back
// as a default Response, never block forever, and never surface
// platform I/O failures as errors. Prompt returns an error only when
// ctx is done, which aborts the game cleanly.
type Client interface {
	Prompt(ctx context.Context, responder models.PlayerInfo, req Request) (Response, error)

	// SendMessage is a fire-and-forget notification to the whole channel.
	SendMessage(text string)
}

// GameEnded is the terminal event of a game session.
type GameEnded struct {
	Winner models.PlayerInfo
}
