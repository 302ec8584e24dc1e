package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"liaptui/pkg/game"
	"liaptui/pkg/rules"
)

// TestBotCoordinatorCancelsStaleDecisionOnActorChange covers spec §8
// scenario 5's race discipline (pkg/engine/bot.go's reconsider/decide):
// a bot decision is scheduled for the acting seat; before it fires, the
// actor changes (standing in for "a human action triggers an immediate
// phase transition" faster than the bot's delay). The stale timer must be
// canceled, no action from it may ever reach the queue, and the next bot
// schedule must only be armed once reconsider next runs for the new
// actor — never carried over from before the change.
func TestBotCoordinatorCancelsStaleDecisionOnActorChange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BotDecisionDelayMin = 250 * time.Millisecond
	cfg.BotDecisionDelayMax = 250 * time.Millisecond

	deps := NewDeps(cfg, rules.Default{}, rules.Default{}, identityRandom{})
	sm := NewStateMachine("room-bot-1", newRoundTripPlayers(), 0, deps, cfg, noopHooks{}, createTestLogger())
	sm.gs.Players[1].IsBot = true

	bots := NewBotCoordinator(sm, cfg)

	// Seat 1 is offered a redeal and is bot-controlled: reconsider should
	// arm exactly one timer, keyed by seat.
	sm.gs.Phase = game.Preparation
	sm.gs.CurrentWeakOffer = 1
	bots.reconsider()

	bots.mu.Lock()
	_, armed := bots.timers[1]
	timerCount := len(bots.timers)
	bots.mu.Unlock()
	require.True(t, armed, "expected a decision timer armed for the bot seat")
	require.Equal(t, 1, timerCount)

	// Well before the 250ms delay elapses, the actor changes: the offer
	// resolves and play moves into Declaration with a human seat acting.
	time.Sleep(50 * time.Millisecond)
	sm.gs.CurrentWeakOffer = -1
	sm.gs.Phase = game.Declaration
	sm.gs.CurrentPlayerSeat = 0 // seat 0 is human (newRoundTripPlayers sets none as bots)
	bots.reconsider()

	bots.mu.Lock()
	_, stillArmedForOldActor := bots.timers[1]
	timerCountAfter := len(bots.timers)
	bots.mu.Unlock()
	require.False(t, stillArmedForOldActor, "stale timer for the old actor must be canceled")
	require.Equal(t, 0, timerCountAfter, "no new timer should be armed for a human actor")

	// Once the original delay has fully elapsed, nothing from the canceled
	// decision may have reached the queue.
	time.Sleep(300 * time.Millisecond)
	select {
	case a := <-sm.Queue.Actions():
		t.Fatalf("stale bot action was enqueued after actor change: %+v", a)
	default:
	}

	// Only once reconsider next observes a bot seat as actor (standing in
	// for the new phase's on_enter) does scheduling resume.
	sm.gs.CurrentPlayerSeat = 1
	bots.reconsider()
	bots.mu.Lock()
	_, armedForNewActor := bots.timers[1]
	bots.mu.Unlock()
	require.True(t, armedForNewActor, "bot scheduling must resume once reconsider runs for the new actor")
	bots.CancelAll()
}

// TestBotCoordinatorDecideRevalidatesActorBeforeEnqueuing exercises decide's
// final guard directly (bot.go: "no stale action is ever enqueued" even if
// a timer fires in the narrow window after the actor already moved on).
func TestBotCoordinatorDecideRevalidatesActorBeforeEnqueuing(t *testing.T) {
	cfg := DefaultConfig()
	deps := NewDeps(cfg, rules.Default{}, rules.Default{}, identityRandom{})
	sm := NewStateMachine("room-bot-2", newRoundTripPlayers(), 0, deps, cfg, noopHooks{}, createTestLogger())
	sm.gs.Players[1].IsBot = true
	sm.gs.Phase = game.Preparation
	sm.gs.CurrentWeakOffer = 1

	bots := NewBotCoordinator(sm, cfg)

	// The actor has already moved on by the time decide fires (as if the
	// timer raced the cancellation and fired anyway).
	sm.gs.CurrentWeakOffer = -1
	sm.gs.Phase = game.Declaration
	sm.gs.CurrentPlayerSeat = 0

	bots.decide(1)

	select {
	case a := <-sm.Queue.Actions():
		t.Fatalf("decide enqueued an action for a seat that is no longer the actor: %+v", a)
	default:
	}
}
