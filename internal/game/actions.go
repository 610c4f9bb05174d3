// internal/game/actions.go
package game

import "github.com/oust-game/oust/internal/models"

// Action is one of the fixed set of moves a player can open their turn
// with.
type Action string

const (
	ActionOust        Action = "oust"
	ActionAssassinate Action = "assassinate"
	ActionSteal       Action = "steal"
	ActionPayDay      Action = "payday"
	ActionBigPayDay   Action = "big_payday"
	ActionEqualize    Action = "equalize"
	ActionShuffle     Action = "shuffle"
)

// ForcedOustThreshold is the balance at which a player may only Oust.
const ForcedOustThreshold = 10

// Income amounts. PayDay and BigPayDay cannot be blocked; Equalize pays
// more than PayDay but is open to contest.
const (
	PayDayIncome    = 1
	BigPayDayIncome = 3
	EqualizeIncome  = 2
	StealMax        = 2
)

type actionSpec struct {
	requiredCoins int
	blockable     bool
	claims        models.Role // role a blockable action asserts, contestable by others
}

var actionTable = map[Action]actionSpec{
	ActionOust:        {requiredCoins: 7, blockable: false},
	ActionAssassinate: {requiredCoins: 3, blockable: true, claims: models.RoleAssassin},
	ActionSteal:       {requiredCoins: 0, blockable: true, claims: models.RoleThief},
	ActionPayDay:      {requiredCoins: 0, blockable: false},
	ActionBigPayDay:   {requiredCoins: 0, blockable: false},
	ActionEqualize:    {requiredCoins: 0, blockable: true, claims: models.RoleEqualizer},
	ActionShuffle:     {requiredCoins: 0, blockable: true, claims: models.RoleBodyGuard},
}

// actionOrder fixes the order actions are offered in.
var actionOrder = []Action{
	ActionPayDay, ActionBigPayDay, ActionEqualize, ActionSteal,
	ActionShuffle, ActionAssassinate, ActionOust,
}

// RequiredCoins returns the cost of the action.
func (a Action) RequiredCoins() int {
	return actionTable[a].requiredCoins
}

// Blockable reports whether other players may contest the action.
func (a Action) Blockable() bool {
	return actionTable[a].blockable
}

// ClaimedRole returns the role a blockable action asserts. Zero value
// for unblockable actions.
func (a Action) ClaimedRole() models.Role {
	return actionTable[a].claims
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	_, ok := actionTable[a]
	return ok
}

// EligibleActions computes the actions the player may open their turn
// with, evaluated fresh every turn. A player sitting on 10 or more
// coins must Oust; otherwise any action they can afford is offered. The
// result is never empty since PayDay costs nothing.
func EligibleActions(p *models.Player) []Action {
	if p.Coins >= ForcedOustThreshold {
		return []Action{ActionOust}
	}
	var out []Action
	for _, a := range actionOrder {
		if p.Coins >= a.RequiredCoins() {
			out = append(out, a)
		}
	}
	return out
}
