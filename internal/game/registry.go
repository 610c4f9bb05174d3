// internal/game/registry.go
package game

import "sync"

// Registry maps a channel to its single active game. It is the only
// state shared between sessions: insert on start, remove on completion
// or abort, so two games can never race onto the same channel.
type Registry struct {
	mu    sync.Mutex
	games map[string]*Game
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{games: make(map[string]*Game)}
}

// Register claims the channel for g, failing with ErrGameInProgress if
// another game already holds it.
func (r *Registry) Register(channel string, g *Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.games[channel]; exists {
		return ErrGameInProgress
	}
	r.games[channel] = g
	return nil
}

// Get returns the active game for the channel, if any.
func (r *Registry) Get(channel string) (*Game, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[channel]
	return g, ok
}

// Remove releases the channel. Safe to call for channels with no game.
func (r *Registry) Remove(channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, channel)
}
