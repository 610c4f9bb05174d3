// internal/game/controller.go
package game

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RunGame owns the outer loop of one session: run the current player's
// turn to an outcome, apply it, announce it, and advance until a single
// player holds cards. Rule mistakes never reach this level (the engine
// re-prompts); an error here is either cancellation or an invariant
// violation, and it aborts this game only.
func RunGame(ctx context.Context, g *Game, client Client, log *logrus.Entry) (GameEnded, error) {
	log = log.WithFields(logrus.Fields{"game": g.ID, "channel": g.Channel})
	log.WithField("players", len(g.Players)).Info("game starting")

	for {
		if err := ctx.Err(); err != nil {
			return GameEnded{}, err
		}

		actor := g.CurrentPlayer()
		engine := NewTurnEngine(g, client, log)
		outcome, err := engine.Run(ctx)
		if err != nil {
			return GameEnded{}, err
		}
		if err := g.Apply(actor, outcome); err != nil {
			log.WithError(err).Error("turn apply failed")
			return GameEnded{}, err
		}
		client.SendMessage(summarizeOutcome(g, actor.Info.Name, outcome))

		if w, ok := g.Winner(); ok {
			client.SendMessage(fmt.Sprintf("%s wins the game!", w.Info.Name))
			log.WithField("winner", w.Info.Name).Info("game over")
			return GameEnded{Winner: w.Info}, nil
		}
		if err := g.AdvanceTurn(); err != nil {
			log.WithError(err).Error("turn advance failed")
			return GameEnded{}, err
		}
	}
}

// summarizeOutcome renders a short channel-wide line describing what a
// turn did.
func summarizeOutcome(g *Game, actor string, outcome TurnOutcome) string {
	switch o := outcome.(type) {
	case PayDayOutcome:
		return fmt.Sprintf("%s takes a payday (+%d).", actor, PayDayIncome)
	case BigPayDayOutcome:
		return fmt.Sprintf("%s takes a big payday (+%d).", actor, BigPayDayIncome)
	case EqualizeOutcome:
		if o.Contest.blocked() {
			return fmt.Sprintf("%s's equalize was contested and cancelled.", actor)
		}
		return fmt.Sprintf("%s equalizes (+%d).", actor, EqualizeIncome)
	case StealOutcome:
		if o.Contest.blocked() {
			return fmt.Sprintf("%s's steal was contested and cancelled.", actor)
		}
		return fmt.Sprintf("%s steals from %s.", actor, playerName(g, o.Target))
	case KillOutcome:
		verb := "ousts"
		if o.Kind == KillAssassinate {
			verb = "assassinates"
			if o.Contest.blocked() {
				return fmt.Sprintf("%s's assassination was contested and cancelled.", actor)
			}
		}
		return fmt.Sprintf("%s %s %s, who loses a card.", actor, verb, playerName(g, o.Target))
	case ShuffleOutcome:
		if o.Contest.blocked() {
			return fmt.Sprintf("%s's shuffle was contested and cancelled.", actor)
		}
		return fmt.Sprintf("%s shuffles cards with the deck.", actor)
	}
	return fmt.Sprintf("%s finished their turn.", actor)
}

func playerName(g *Game, id uuid.UUID) string {
	for _, p := range g.Players {
		if p.Info.ID == id {
			return p.Info.Name
		}
	}
	return "someone"
}
