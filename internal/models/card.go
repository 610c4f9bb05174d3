// internal/models/card.go
package models

import "github.com/google/uuid"

// Role is one of the five character roles in the Oust deck.
type Role string

const (
	RoleAssassin  Role = "assassin"
	RoleBodyGuard Role = "bodyguard"
	RoleThief     Role = "thief"
	RoleBanker    Role = "banker"
	RoleEqualizer Role = "equalizer"
)

// Roles lists every role in the deck. Three copies of each make up the
// 15-card draw deck.
var Roles = []Role{RoleAssassin, RoleBodyGuard, RoleThief, RoleBanker, RoleEqualizer}

// Card is a single role card. The ID is only used so clients can refer
// to a specific card when answering a prompt; play semantics depend on
// the Role alone.
type Card struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

// HeldCard is a card in a player's hand together with its visibility
// flag. A revealed card stays in the hand but its role is public and it
// can no longer be used to defend a contest.
type HeldCard struct {
	Card
	Revealed bool `json:"revealed"`
}
