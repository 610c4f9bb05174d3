package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oust-game/oust/internal/models"
)

func TestStandardDeckComposition(t *testing.T) {
	deck := StandardDeck()
	require.Len(t, deck, DeckSize)

	counts := make(map[models.Role]int)
	ids := make(map[string]bool)
	for _, c := range deck {
		counts[c.Role]++
		ids[c.ID.String()] = true
	}
	for _, role := range models.Roles {
		assert.Equalf(t, CopiesPerRole, counts[role], "expected %d copies of %s", CopiesPerRole, role)
	}
	assert.Len(t, ids, DeckSize, "card ids must be unique")
}

func TestShuffleReproducible(t *testing.T) {
	a := StandardDeck()
	b := make([]models.Card, len(a))
	copy(b, a)

	Shuffle(a, rand.New(rand.NewSource(7)))
	Shuffle(b, rand.New(rand.NewSource(7)))

	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID, "same seed must give the same order")
	}
}
