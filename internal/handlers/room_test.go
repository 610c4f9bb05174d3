// internal/handlers/room_test.go
package handlers

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oust-game/oust/internal/game"
	"github.com/oust-game/oust/internal/models"
)

func testRoom(t *testing.T, clock quartz.Clock) *Room {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := NewServer(log, clock, time.Minute, 30*time.Second)
	return s.room("#table")
}

func connect(r *Room, name string) *playerConn {
	pc := &playerConn{
		info:    models.PlayerInfo{ID: uuid.New(), Name: name},
		outChan: make(chan ServerMessage, 32),
	}
	r.addConn(pc)
	return pc
}

func boolPtr(b bool) *bool { return &b }

func TestAnswerPayloadToResponse(t *testing.T) {
	id := uuid.New()
	cards := []uuid.UUID{uuid.New(), uuid.New()}

	tests := []struct {
		name   string
		answer *AnswerPayload
		want   game.Response
	}{
		{"action", &AnswerPayload{Kind: "action", Action: game.ActionSteal}, game.SelectedAction{Action: game.ActionSteal}},
		{"player", &AnswerPayload{Kind: "player", Player: id}, game.SelectedPlayer{ID: id}},
		{"cards", &AnswerPayload{Kind: "cards", Cards: cards}, game.SelectedCards{IDs: cards}},
		{"rebuttal allow", &AnswerPayload{Kind: "rebuttal", Allow: boolPtr(true)}, game.SelectedRebuttal{Allow: true}},
		{"rebuttal contest", &AnswerPayload{Kind: "rebuttal", Allow: boolPtr(false)}, game.SelectedRebuttal{Allow: false}},
		{"rebuttal missing flag allows", &AnswerPayload{Kind: "rebuttal"}, game.SelectedRebuttal{Allow: true}},
		{"back", &AnswerPayload{Kind: "back"}, game.GoBack{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.answer.toResponse())
		})
	}

	assert.Nil(t, (&AnswerPayload{Kind: "bogus"}).toResponse())
	assert.Nil(t, (*AnswerPayload)(nil).toResponse())
}

func TestPromptPayloadKinds(t *testing.T) {
	id := uuid.New()
	actor := models.PlayerInfo{ID: uuid.New(), Name: "P1"}

	p := promptPayload(id, game.SelectActionRequest{Actions: []game.Action{game.ActionPayDay}}, 30)
	assert.Equal(t, KindSelectAction, p.Kind)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, 30, p.TimeoutSec)
	assert.Equal(t, []game.Action{game.ActionPayDay}, p.Actions)

	p = promptPayload(id, game.SelectKillTargetRequest{Candidates: []models.PlayerInfo{actor}, Kind: game.KillAssassinate}, 30)
	assert.Equal(t, KindSelectKillTarget, p.Kind)
	assert.Equal(t, game.KillAssassinate, p.KillKind)

	p = promptPayload(id, game.SelectRebuttalRequest{Action: game.ActionSteal, Actor: actor}, 30)
	assert.Equal(t, KindSelectRebuttal, p.Kind)
	assert.Equal(t, game.ActionSteal, p.Action)
	require.NotNil(t, p.Actor)
	assert.Equal(t, actor, *p.Actor)

	p = promptPayload(id, game.SelectCardLossRequest{Reason: game.LossOusted}, 30)
	assert.Equal(t, KindSelectCardLoss, p.Kind)
	assert.Equal(t, game.LossOusted, p.Reason)
}

func TestAutoAnswerSingleCardLoss(t *testing.T) {
	only := models.HeldCard{Card: models.Card{ID: uuid.New(), Role: models.RoleBanker}}

	resp, ok := autoAnswer(game.SelectCardLossRequest{Candidates: []models.HeldCard{only}})
	require.True(t, ok)
	assert.Equal(t, game.SelectedCards{IDs: []uuid.UUID{only.ID}}, resp)

	_, ok = autoAnswer(game.SelectCardLossRequest{Candidates: []models.HeldCard{only, only}})
	assert.False(t, ok)
	_, ok = autoAnswer(game.SelectActionRequest{Actions: []game.Action{game.ActionPayDay}})
	assert.False(t, ok)
}

func TestDefaultResponses(t *testing.T) {
	target := models.PlayerInfo{ID: uuid.New(), Name: "P2"}
	hand := []models.HeldCard{
		{Card: models.Card{ID: uuid.New(), Role: models.RoleThief}},
		{Card: models.Card{ID: uuid.New(), Role: models.RoleBanker}},
	}

	assert.Equal(t,
		game.SelectedAction{Action: game.ActionPayDay},
		defaultResponse(game.SelectActionRequest{Actions: []game.Action{game.ActionPayDay, game.ActionOust}}))

	assert.Equal(t,
		game.SelectedPlayer{ID: target.ID},
		defaultResponse(game.SelectKillTargetRequest{Candidates: []models.PlayerInfo{target}}))

	assert.Equal(t,
		game.SelectedPlayer{ID: target.ID},
		defaultResponse(game.SelectStealTargetRequest{Candidates: []models.PlayerInfo{target}}))

	// An expired shuffle keeps the hand as it was.
	assert.Equal(t,
		game.SelectedCards{IDs: []uuid.UUID{hand[0].ID, hand[1].ID}},
		defaultResponse(game.SelectShuffleCardsRequest{Hand: hand, Keep: 2}))

	assert.Equal(t,
		game.SelectedRebuttal{Allow: true},
		defaultResponse(game.SelectRebuttalRequest{Action: game.ActionSteal}))

	assert.Equal(t,
		game.SelectedCards{IDs: []uuid.UUID{hand[0].ID}},
		defaultResponse(game.SelectCardLossRequest{Candidates: hand}))
}

func TestPromptDeliversMatchingAnswer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r := testRoom(t, quartz.NewMock(t))
	pc := connect(r, "P1")

	req := game.SelectActionRequest{Actions: []game.Action{game.ActionPayDay, game.ActionSteal}}
	type result struct {
		resp game.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := r.Prompt(ctx, pc.info, req)
		done <- result{resp, err}
	}()

	var sent ServerMessage
	select {
	case sent = <-pc.outChan:
	case <-ctx.Done():
		t.Fatal("prompt never delivered")
	}
	require.Equal(t, MsgPrompt, sent.Type)
	require.NotNil(t, sent.Prompt)

	// An answer with the wrong correlation id is ignored.
	r.deliverAnswer(pc.info.ID, ClientMessage{
		ReqID:  uuid.New(),
		Answer: &AnswerPayload{Kind: "action", Action: game.ActionPayDay},
	})
	r.deliverAnswer(pc.info.ID, ClientMessage{
		ReqID:  sent.Prompt.ID,
		Answer: &AnswerPayload{Kind: "action", Action: game.ActionSteal},
	})

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, game.SelectedAction{Action: game.ActionSteal}, res.resp)
}

func TestPromptTimesOutToDefault(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mock := quartz.NewMock(t)
	r := testRoom(t, mock)
	pc := connect(r, "P1")

	trap := mock.Trap().NewTimer()
	defer trap.Close()

	req := game.SelectActionRequest{Actions: []game.Action{game.ActionBigPayDay, game.ActionPayDay}}
	type result struct {
		resp game.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := r.Prompt(ctx, pc.info, req)
		done <- result{resp, err}
	}()

	call := trap.MustWait(ctx)
	call.MustRelease(ctx)
	mock.Advance(r.decisionTimeout).MustWait(ctx)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, game.SelectedAction{Action: game.ActionBigPayDay}, res.resp)

	// The prompt itself, then the channel-wide timeout notice.
	<-pc.outChan
	notice := <-pc.outChan
	assert.Equal(t, MsgChat, notice.Type)
	assert.Contains(t, notice.Message, "took too long")
}

func TestPromptToDisconnectedPlayerDefaults(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mock := quartz.NewMock(t)
	r := testRoom(t, mock)

	trap := mock.Trap().NewTimer()
	defer trap.Close()

	ghost := models.PlayerInfo{ID: uuid.New(), Name: "ghost"}
	done := make(chan game.Response, 1)
	go func() {
		resp, _ := r.Prompt(ctx, ghost, game.SelectRebuttalRequest{Action: game.ActionSteal})
		done <- resp
	}()

	call := trap.MustWait(ctx)
	call.MustRelease(ctx)
	mock.Advance(r.decisionTimeout).MustWait(ctx)

	assert.Equal(t, game.SelectedRebuttal{Allow: true}, <-done)
}

func TestPromptCancelled(t *testing.T) {
	r := testRoom(t, quartz.NewMock(t))
	pc := connect(r, "P1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Prompt(ctx, pc.info, game.SelectActionRequest{Actions: []game.Action{game.ActionPayDay}})
	assert.ErrorIs(t, err, context.Canceled)
}
