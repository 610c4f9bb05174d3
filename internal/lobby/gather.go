// Package lobby implements the participant-gathering phase that runs in
// a channel before a game is created: a time-boxed join window with a
// countdown through its final seconds.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oust-game/oust/internal/game"
	"github.com/oust-game/oust/internal/models"
)

var (
	// ErrGatherClosed is returned by Join once the window has ended.
	ErrGatherClosed = errors.New("the join window has closed")

	// ErrAlreadyJoined is returned when a player joins twice.
	ErrAlreadyJoined = errors.New("already joined")

	// ErrGatherFull is returned when the table is at capacity.
	ErrGatherFull = errors.New("the game is full")

	// ErrNotEnoughPlayers is returned by Wait when the window expired
	// without enough participants. No game state is created.
	ErrNotEnoughPlayers = errors.New("not enough players joined")
)

// countdownFrom is how far before the deadline the final countdown is
// announced, one notice per second.
const countdownFrom = 5 * time.Second

// Gatherer collects the roster for a single channel. Create one per
// announced game, call Join from the message handlers, and Wait from
// the goroutine that will run the game.
type Gatherer struct {
	window time.Duration
	clock  quartz.Clock
	notify func(text string)
	log    *logrus.Entry

	mu     sync.Mutex
	roster []models.PlayerInfo
	joined map[uuid.UUID]bool
	closed bool
	full   chan struct{}
}

// NewGatherer opens a join window of the given length. notify is the
// channel-wide announcement hook.
func NewGatherer(window time.Duration, clock quartz.Clock, notify func(string), log *logrus.Entry) *Gatherer {
	return &Gatherer{
		window: window,
		clock:  clock,
		notify: notify,
		log:    log,
		joined: make(map[uuid.UUID]bool),
		full:   make(chan struct{}),
	}
}

// Join confirms a participant while the window is open.
func (g *Gatherer) Join(info models.PlayerInfo) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrGatherClosed
	}
	if g.joined[info.ID] {
		return ErrAlreadyJoined
	}
	if len(g.roster) >= game.MaxPlayers {
		return ErrGatherFull
	}
	g.joined[info.ID] = true
	g.roster = append(g.roster, info)
	g.notify(fmt.Sprintf("%s is in (%d/%d).", info.Name, len(g.roster), game.MaxPlayers))
	if len(g.roster) == game.MaxPlayers {
		close(g.full)
	}
	return nil
}

// Wait blocks until the window expires (or the table fills), announces
// the countdown through the final seconds, and returns the confirmed
// roster. A window that ends with fewer than the minimum seats fails
// with ErrNotEnoughPlayers and nothing is created.
func (g *Gatherer) Wait(ctx context.Context) ([]models.PlayerInfo, error) {
	lead := g.window - countdownFrom
	if lead < 0 {
		lead = 0
	}

	if done, roster, err := g.sleep(ctx, lead); done {
		return roster, err
	}

	remaining := g.window - lead
	for sec := int(remaining / time.Second); sec > 0; sec-- {
		g.notify(fmt.Sprintf("Starting in %d...", sec))
		if done, roster, err := g.sleep(ctx, time.Second); done {
			return roster, err
		}
	}

	return g.close()
}

// sleep waits for d on the injected clock, returning early if the
// context is cancelled or the table fills.
func (g *Gatherer) sleep(ctx context.Context, d time.Duration) (bool, []models.PlayerInfo, error) {
	if d <= 0 {
		return false, nil, nil
	}
	timer := g.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		g.abort()
		return true, nil, ctx.Err()
	case <-g.full:
		roster, err := g.close()
		return true, roster, err
	case <-timer.C:
		return false, nil, nil
	}
}

func (g *Gatherer) abort() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

func (g *Gatherer) close() ([]models.PlayerInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	if len(g.roster) < game.MinPlayers {
		g.log.WithField("joined", len(g.roster)).Info("gather window expired short of players")
		g.notify("Not enough players. The game is off.")
		return nil, ErrNotEnoughPlayers
	}
	g.log.WithField("joined", len(g.roster)).Info("gather window closed")
	roster := make([]models.PlayerInfo, len(g.roster))
	copy(roster, g.roster)
	return roster, nil
}
