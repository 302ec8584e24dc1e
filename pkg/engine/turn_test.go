package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"liaptui/pkg/game"
	"liaptui/pkg/rules"
)

// TestTurnRejectsPlayNotMatchingRequiredPieceCount covers spec §8 scenario
// 4: the first play of a turn sets the required piece count for every
// subsequent seat; a play of a different size is rejected with
// piece_count_mismatch and leaves gs untouched, since StateMachine.handle
// never commits a clone that produced a rejection.
func TestTurnRejectsPlayNotMatchingRequiredPieceCount(t *testing.T) {
	cfg := DefaultConfig()
	deps := NewDeps(cfg, rules.Default{}, rules.Default{}, identityRandom{})

	sm := NewStateMachine("room-turn-1", newRoundTripPlayers(), 0, deps, cfg, noopHooks{}, createTestLogger())
	collector := newEventCollector()
	sm.Dispatcher.Subscribe(collector)
	sm.Start()
	defer sm.Stop()

	require.NoError(t, sm.Queue.Enqueue(game.Action{Kind: game.ActionStartGame, OriginSeat: 0}))
	waitForKind(t, collector.ch, game.EventRedealOffered)
	for _, seat := range []int{1, 2, 3} {
		require.NoError(t, sm.Queue.Enqueue(game.Action{Kind: game.ActionDeclineRedeal, OriginSeat: seat}))
	}
	waitForKind(t, collector.ch, game.EventPhaseChanged) // -> Declaration

	for seat := 0; seat < game.SeatCount; seat++ {
		require.NoError(t, sm.Queue.Enqueue(game.Action{
			Kind:       game.ActionDeclare,
			OriginSeat: seat,
			Payload:    game.DeclarePayload{Value: 1},
		}))
	}
	waitForKind(t, collector.ch, game.EventPhaseChanged) // -> Turn

	beforeSnap := sm.Snapshot()
	currentSeat := beforeSnap.CurrentPlayerSeat

	// First play of the turn: a pair, fixing RequiredCount at 2.
	require.NoError(t, sm.Queue.Enqueue(game.Action{
		Kind:       game.ActionPlayPieces,
		OriginSeat: currentSeat,
		Payload:    game.PlayPiecesPayload{PieceIndices: []int{0, 1}},
	}))
	played := waitForKind(t, collector.ch, game.EventPlayed)
	playedPayload := played.Payload.(game.PlayedPayload)
	require.Equal(t, currentSeat, playedPayload.Seat)
	require.Len(t, playedPayload.Pieces, 2)

	afterFirstPlay := sm.Snapshot()
	nextSeat := afterFirstPlay.CurrentPlayerSeat
	require.NotEqual(t, currentSeat, nextSeat)
	require.Equal(t, 1, len(afterFirstPlay.TurnPlays))

	// Next seat attempts a triple, which doesn't match the required count of 2.
	require.NoError(t, sm.Queue.Enqueue(game.Action{
		Kind:       game.ActionPlayPieces,
		OriginSeat: nextSeat,
		Payload:    game.PlayPiecesPayload{PieceIndices: []int{0, 1, 2}},
	}))
	rejected := waitForKind(t, collector.ch, game.EventActionRejected)
	rejectedPayload := rejected.Payload.(game.ActionRejectedPayload)
	require.Equal(t, game.ReasonPieceCountMismatch, rejectedPayload.Reason)

	afterRejection := sm.Snapshot()
	require.Equal(t, nextSeat, afterRejection.CurrentPlayerSeat, "a rejected play must not advance the current player")
	require.Equal(t, 1, len(afterRejection.TurnPlays), "a rejected play must not be appended to TurnPlays")
	require.Equal(t, afterFirstPlay.Players[nextSeat].Hand, afterRejection.Players[nextSeat].Hand, "a rejected play must not remove pieces from the hand")
}
