package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"liaptui/pkg/game"
)

func TestActionQueueBackpressureRejectsOrdinaryActions(t *testing.T) {
	q := NewActionQueue(2)

	for i := 0; i < 2; i++ {
		err := q.Enqueue(game.Action{Kind: game.ActionDeclare, OriginSeat: 0})
		require.NoError(t, err)
	}

	err := q.Enqueue(game.Action{Kind: game.ActionDeclare, OriginSeat: 0})
	require.ErrorIs(t, err, ErrBackpressure)
}

func TestActionQueueCriticalActionsBypassBackpressure(t *testing.T) {
	q := NewActionQueue(1)
	require.NoError(t, q.Enqueue(game.Action{Kind: game.ActionDeclare, OriginSeat: 0}))

	// Ordinary action now rejected...
	require.ErrorIs(t, q.Enqueue(game.Action{Kind: game.ActionDeclare, OriginSeat: 1}), ErrBackpressure)

	// ...but leave and host_replace_seat still land, since the buffer has
	// headroom above softCap reserved for critical actions.
	require.NoError(t, q.Enqueue(game.Action{Kind: game.ActionLeave, OriginSeat: 0}))
	require.NoError(t, q.Enqueue(game.Action{Kind: game.ActionHostReplaceSeat, OriginSeat: -1}))
}

func TestActionQueueStampsArrivalSequence(t *testing.T) {
	q := NewActionQueue(8)
	require.NoError(t, q.Enqueue(game.Action{Kind: game.ActionDeclare}))
	require.NoError(t, q.Enqueue(game.Action{Kind: game.ActionDeclare}))

	first := <-q.Actions()
	second := <-q.Actions()
	require.Equal(t, int64(1), first.ArrivalSequence)
	require.Equal(t, int64(2), second.ArrivalSequence)
}

func TestActionQueueCloseRejectsFurtherEnqueues(t *testing.T) {
	q := NewActionQueue(4)
	q.Close()

	err := q.Enqueue(game.Action{Kind: game.ActionDeclare})
	require.ErrorIs(t, err, ErrRoomClosed)

	// Close is idempotent.
	require.NotPanics(t, func() { q.Close() })
}
