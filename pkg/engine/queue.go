package engine

import (
	"errors"
	"sync"
	"sync/atomic"

	"liaptui/pkg/game"
)

// ErrRoomClosed is returned by Enqueue once the room has begun shutting
// down (spec §4.1: "pending actions are rejected with a fatal error").
var ErrRoomClosed = errors.New("engine: room closed")

// ErrBackpressure is returned when the queue is over its soft cap and the
// action is not a critical control action (spec §4.1).
var ErrBackpressure = errors.New("engine: action queue over capacity")

// ActionQueue is the single-writer, multi-producer FIFO from spec §4.1,
// grounded on the channel-based single-goroutine game loop pattern (see
// DESIGN.md: lazharichir-pokersrv's GameLoop.runLoop). Arrival order is
// preserved by the channel itself; ArrivalSequence is stamped for tie-break
// bookkeeping and idempotency diagnostics.
type ActionQueue struct {
	ch      chan game.Action
	done    chan struct{}
	softCap int
	seq     int64

	closeOnce sync.Once
}

// NewActionQueue builds a queue with generous buffer headroom above softCap
// so that critical actions (leave, host_replace_seat) always have room to
// land even when ordinary actions are being rejected for backpressure.
func NewActionQueue(softCap int) *ActionQueue {
	if softCap <= 0 {
		softCap = 1
	}
	return &ActionQueue{
		ch:      make(chan game.Action, softCap*2+8),
		done:    make(chan struct{}),
		softCap: softCap,
	}
}

func isCriticalAction(kind game.ActionKind) bool {
	return kind == game.ActionLeave || kind == game.ActionHostReplaceSeat
}

// Enqueue stamps arrival_sequence and admits the action, subject to the
// backpressure and closed-room checks in spec §4.1.
func (q *ActionQueue) Enqueue(a game.Action) error {
	select {
	case <-q.done:
		return ErrRoomClosed
	default:
	}

	a.ArrivalSequence = atomic.AddInt64(&q.seq, 1)

	if !isCriticalAction(a.Kind) && len(q.ch) >= q.softCap {
		return ErrBackpressure
	}

	select {
	case q.ch <- a:
		return nil
	case <-q.done:
		return ErrRoomClosed
	}
}

// Actions exposes the receive side for the room's single consuming
// goroutine; nothing else may read from it (spec §5: "GameState is
// modified only by the StateMachine executor").
func (q *ActionQueue) Actions() <-chan game.Action {
	return q.ch
}

// Close signals the terminal sentinel; pending sends return ErrRoomClosed
// and the consuming goroutine should drain and exit (spec §4.1).
func (q *ActionQueue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}
