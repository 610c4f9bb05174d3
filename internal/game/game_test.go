// internal/game/game_test.go
package game

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oust-game/oust/internal/models"
)

// setupGame builds a deterministic n-player game for tests.
func setupGame(t *testing.T, n int) *Game {
	t.Helper()
	roster := make([]models.PlayerInfo, n)
	for i := range roster {
		roster[i] = models.PlayerInfo{ID: uuid.New(), Name: fmt.Sprintf("P%d", i+1)}
	}
	g, err := NewGame("#table", roster, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	return g
}

// eliminate moves every card of p to the discard pile.
func eliminate(t *testing.T, g *Game, p *models.Player) {
	t.Helper()
	for len(p.Hand) > 0 {
		require.NoError(t, g.discardFromHand(p, p.Hand[0].ID))
	}
	require.True(t, p.Eliminated())
}

func TestNewGamePlayerCount(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 10} {
		roster := make([]models.PlayerInfo, n)
		for i := range roster {
			roster[i] = models.PlayerInfo{ID: uuid.New(), Name: fmt.Sprintf("P%d", i+1)}
		}
		_, err := NewGame("#table", roster, rand.New(rand.NewSource(1)))
		assert.ErrorIsf(t, err, ErrInvalidPlayerCount, "%d players must be rejected", n)
	}
	for n := MinPlayers; n <= MaxPlayers; n++ {
		g := setupGame(t, n)
		assert.Len(t, g.Players, n)
	}
}

func TestNewGameRejectsDuplicateIDs(t *testing.T) {
	id := uuid.New()
	roster := []models.PlayerInfo{
		{ID: id, Name: "P1"},
		{ID: id, Name: "P2"},
		{ID: uuid.New(), Name: "P3"},
	}
	_, err := NewGame("#table", roster, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestNewGameDeal(t *testing.T) {
	g := setupGame(t, 4)
	for _, p := range g.Players {
		assert.Len(t, p.Hand, StartingCards)
		assert.Equal(t, 2, p.Coins)
		for _, c := range p.Hand {
			assert.False(t, c.Revealed)
		}
	}
	assert.Len(t, g.Deck, DeckSize-4*StartingCards)
	assert.Empty(t, g.Discard)
	assert.NoError(t, g.CheckInvariants())
}

func TestPlayerByID(t *testing.T) {
	g := setupGame(t, 3)
	p, err := g.PlayerByID(g.Players[1].Info.ID)
	require.NoError(t, err)
	assert.Same(t, g.Players[1], p)

	_, err = g.PlayerByID(uuid.New())
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestAdvanceTurnSkipsEliminated(t *testing.T) {
	g := setupGame(t, 4)
	eliminate(t, g, g.Players[1])

	require.Equal(t, 0, g.Turn)
	require.NoError(t, g.AdvanceTurn())
	assert.Equal(t, 2, g.Turn, "eliminated seat 1 must be skipped")

	require.NoError(t, g.AdvanceTurn())
	assert.Equal(t, 3, g.Turn)
	require.NoError(t, g.AdvanceTurn())
	assert.Equal(t, 0, g.Turn)
}

func TestAdvanceTurnFailsWithNoSurvivors(t *testing.T) {
	g := setupGame(t, 3)
	for _, p := range g.Players {
		eliminate(t, g, p)
	}
	assert.ErrorIs(t, g.AdvanceTurn(), ErrNoPlayersLeft)
}

func TestWinner(t *testing.T) {
	g := setupGame(t, 3)
	_, ok := g.Winner()
	assert.False(t, ok)

	eliminate(t, g, g.Players[1])
	eliminate(t, g, g.Players[2])

	w, ok := g.Winner()
	require.True(t, ok)
	assert.Same(t, g.Players[0], w)
}

func TestOtherLivingPlayersOrder(t *testing.T) {
	g := setupGame(t, 4)
	eliminate(t, g, g.Players[2])

	others := g.OtherLivingPlayers(g.Players[1].Info.ID)
	require.Len(t, others, 2)
	// Seat order starting after the actor, skipping the dead seat.
	assert.Same(t, g.Players[3], others[0])
	assert.Same(t, g.Players[0], others[1])
}

func TestCheckInvariantsDetectsMismatch(t *testing.T) {
	g := setupGame(t, 3)
	require.NoError(t, g.CheckInvariants())

	g.Deck = g.Deck[1:] // lose a card
	assert.ErrorIs(t, g.CheckInvariants(), ErrCardCountMismatch)
}

func TestCheckInvariantsDetectsNegativeBalance(t *testing.T) {
	g := setupGame(t, 3)
	g.Players[0].Coins = -1
	assert.Error(t, g.CheckInvariants())
}

func TestApplyIncomeOutcomes(t *testing.T) {
	g := setupGame(t, 3)
	p := g.CurrentPlayer()

	require.NoError(t, g.Apply(p, PayDayOutcome{}))
	assert.Equal(t, 2+PayDayIncome, p.Coins)

	require.NoError(t, g.Apply(p, BigPayDayOutcome{}))
	assert.Equal(t, 2+PayDayIncome+BigPayDayIncome, p.Coins)

	require.NoError(t, g.Apply(p, EqualizeOutcome{}))
	assert.Equal(t, 2+PayDayIncome+BigPayDayIncome+EqualizeIncome, p.Coins)

	assert.NoError(t, g.CheckInvariants())
}

func TestApplyStealCapsAtTargetBalance(t *testing.T) {
	g := setupGame(t, 3)
	actor, target := g.Players[0], g.Players[1]
	target.Coins = 1

	require.NoError(t, g.Apply(actor, StealOutcome{Target: target.Info.ID}))
	assert.Equal(t, 0, target.Coins)
	assert.Equal(t, 3, actor.Coins, "only the available coin moves")
}

func TestApplyKillUnknownTarget(t *testing.T) {
	g := setupGame(t, 3)
	actor := g.Players[0]
	actor.Coins = 7
	err := g.Apply(actor, KillOutcome{Kind: KillOust, Target: uuid.New()})
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}
