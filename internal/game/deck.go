// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/oust-game/oust/internal/models"
)

// CopiesPerRole is how many of each role the draw deck contains.
const CopiesPerRole = 3

// DeckSize is the total number of cards in play: hands, deck, and
// discard always sum back to this.
const DeckSize = CopiesPerRole * 5

// StandardDeck builds an unshuffled 15-card deck, three of each role.
func StandardDeck() []models.Card {
	deck := make([]models.Card, 0, DeckSize)
	for _, role := range models.Roles {
		for i := 0; i < CopiesPerRole; i++ {
			id, _ := uuid.NewRandom()
			deck = append(deck, models.Card{ID: id, Role: role})
		}
	}
	return deck
}

// Shuffle permutes the deck in place using the caller's random source.
// The rng is always injected so outcomes are reproducible under a
// seeded source in tests.
func Shuffle(deck []models.Card, r *rand.Rand) {
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}
