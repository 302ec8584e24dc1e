package engine

import (
	"math/rand"
	"sync"
	"time"

	"liaptui/pkg/game"
)

// botPriority runs the coordinator after any state-broadcasting subscriber
// a room registers, so bots always react to the fully-published state.
const botPriority = 100

// BotCoordinator implements spec §4.6. It subscribes to every event, and
// after each one re-evaluates whose turn it is to act; if that seat is
// bot-controlled it schedules a single cancelable decision task. Race
// discipline (spec §4.6: "at most one pending bot decision per seat")
// is enforced by timers keyed by seat, always fully replaced-or-cleared
// together under mu.
type BotCoordinator struct {
	sm       *StateMachine
	cfg      Config
	strategy Strategy
	rng      *rand.Rand

	mu     sync.Mutex
	timers map[int]*time.Timer
}

// NewBotCoordinator wires a coordinator with the default Strategy. Callers
// wanting a different AI can set Strategy directly before Start.
func NewBotCoordinator(sm *StateMachine, cfg Config) *BotCoordinator {
	return &BotCoordinator{
		sm:       sm,
		cfg:      cfg,
		strategy: GreedyStrategy{},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		timers:   make(map[int]*time.Timer),
	}
}

func (b *BotCoordinator) Kinds() map[game.EventKind]struct{} { return nil }
func (b *BotCoordinator) Priority() int                      { return botPriority }

func (b *BotCoordinator) Handle(ev game.Event) {
	b.reconsider()
}

// reconsider cancels any scheduled decision whose seat is no longer the
// actor, then arms a fresh one for the current actor if it's a bot seat
// without an already-pending decision.
func (b *BotCoordinator) reconsider() {
	// Safe unlocked read: reconsider runs synchronously inside Dispatch,
	// which is only ever called from emitLocked while gsMu is already held
	// for writing (see StateMachine.current).
	gs := b.sm.current()
	actor := actingSeat(gs)

	b.mu.Lock()
	defer b.mu.Unlock()

	for seat, t := range b.timers {
		if seat != actor {
			t.Stop()
			delete(b.timers, seat)
		}
	}

	if actor < 0 || gs.Players[actor] == nil || !gs.Players[actor].IsBot {
		return
	}
	if _, pending := b.timers[actor]; pending {
		return
	}

	delay := b.randomDelay()
	b.timers[actor] = time.AfterFunc(delay, func() { b.decide(actor) })
}

func (b *BotCoordinator) randomDelay() time.Duration {
	lo, hi := b.cfg.BotDecisionDelayMin, b.cfg.BotDecisionDelayMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(b.rng.Int63n(int64(hi-lo)))
}

// CancelAll stops every pending decision task (spec §5: "Room shutdown
// cancels all pending bot tasks").
func (b *BotCoordinator) CancelAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for seat, t := range b.timers {
		t.Stop()
		delete(b.timers, seat)
	}
}

// decide fires at the decision deadline. It re-validates the seat is still
// the actor (the phase may have changed in the window between arming and
// firing even though reconsider cancels eagerly — this is the final guard
// spec §4.6 step 3 requires: "no stale action is ever enqueued").
func (b *BotCoordinator) decide(seat int) {
	b.mu.Lock()
	delete(b.timers, seat)
	b.mu.Unlock()

	gs := b.sm.Snapshot()
	if actingSeat(gs) != seat || gs.Players[seat] == nil || !gs.Players[seat].IsBot {
		return
	}

	action := b.buildAction(gs, seat)
	if action == nil {
		return
	}
	if err := b.sm.Queue.Enqueue(*action); err != nil {
		b.sm.log.Warnf("bot action for seat %d dropped: %v", seat, err)
	}
}

// buildAction consults the pluggable Strategy, falling back to a
// deterministic safe choice if the strategy panics (spec §4.9: "Bot
// exception during decision: logged; bot plays a deterministic safe
// fallback").
func (b *BotCoordinator) buildAction(gs *game.GameState, seat int) (a *game.Action) {
	defer func() {
		if r := recover(); r != nil {
			b.sm.log.Warnf("bot strategy panicked for seat %d: %v; using safe fallback", seat, r)
			a = b.fallback(gs, seat)
		}
	}()

	switch gs.Phase {
	case game.Preparation:
		kind := b.strategy.ChooseRedeal(gs, seat)
		return &game.Action{Kind: kind, OriginSeat: seat, Payload: redealPayload(kind)}
	case game.Declaration:
		v := clampDeclare(gs, seat, b.strategy.ChooseDeclare(gs, seat))
		return &game.Action{Kind: game.ActionDeclare, OriginSeat: seat, Payload: game.DeclarePayload{Value: v}}
	case game.Turn:
		return &game.Action{
			Kind:       game.ActionPlayPieces,
			OriginSeat: seat,
			Payload:    game.PlayPiecesPayload{PieceIndices: b.strategy.ChoosePlay(gs, seat)},
		}
	default:
		return nil
	}
}

// fallback is GreedyStrategy applied directly, bypassing whatever custom
// Strategy just panicked.
func (b *BotCoordinator) fallback(gs *game.GameState, seat int) *game.Action {
	var fb GreedyStrategy
	switch gs.Phase {
	case game.Preparation:
		return &game.Action{Kind: game.ActionDeclineRedeal, OriginSeat: seat, Payload: game.DeclineRedealPayload{}}
	case game.Declaration:
		return &game.Action{Kind: game.ActionDeclare, OriginSeat: seat, Payload: game.DeclarePayload{Value: fb.ChooseDeclare(gs, seat)}}
	case game.Turn:
		return &game.Action{Kind: game.ActionPlayPieces, OriginSeat: seat, Payload: game.PlayPiecesPayload{PieceIndices: fb.ChoosePlay(gs, seat)}}
	default:
		return nil
	}
}

func redealPayload(kind game.ActionKind) game.ActionPayload {
	switch kind {
	case game.ActionAcceptRedeal:
		return game.AcceptRedealPayload{}
	case game.ActionRequestRedeal:
		return game.RequestRedealPayload{}
	default:
		return game.DeclineRedealPayload{}
	}
}

// actingSeat returns the seat currently expected to act, or -1 when no seat
// is "on turn" (e.g. a display result is parked behind PendingAdvance, or
// the phase is terminal).
func actingSeat(gs *game.GameState) int {
	switch gs.Phase {
	case game.Preparation:
		return gs.CurrentWeakOffer
	case game.Declaration:
		return gs.CurrentPlayerSeat
	case game.Turn:
		if gs.PendingAdvance != nil {
			return -1
		}
		return gs.CurrentPlayerSeat
	default:
		return -1
	}
}
