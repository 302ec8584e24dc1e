package engine

import (
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"liaptui/pkg/game"
)

// RoomHooks lets pkg/room enforce the membership-level policy spec §3
// assigns to Room (host_seat, started) without pkg/engine importing
// pkg/room. A nil hook set imposes no restriction, which is convenient in
// tests that drive a StateMachine directly.
type RoomHooks interface {
	// BeforeStart validates start_game (e.g. requester is host, seats
	// full). Returning non-nil rejects the action.
	BeforeStart(a game.Action) *game.Rejection
	// BeforeHostReplaceSeat validates host_replace_seat (requester is host).
	BeforeHostReplaceSeat(a game.Action) *game.Rejection
	// AfterLeave is notified once seat has been flipped to bot control, so
	// host-seat-transfer bookkeeping can run.
	AfterLeave(seat int)
}

// StateMachine is the spec §4.2 component: owns GameState, drives
// PhaseState transitions, and is the sole writer of gs (spec §5: "GameState
// is modified only by the StateMachine executor"). Every room constructs
// exactly one; rooms share nothing.
type StateMachine struct {
	RoomID string

	phases game.Phases
	deps   *game.Deps
	cfg    Config
	hooks  RoomHooks
	log    slog.Logger

	Queue      *ActionQueue
	Dispatcher *Dispatcher
	Bots       *BotCoordinator

	gsMu sync.RWMutex
	gs   *game.GameState

	started bool

	displayMu    sync.Mutex
	displayTimer *time.Timer

	dedupMu sync.Mutex
	dedup   map[string]time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewStateMachine builds a StateMachine for four already-seated players
// (bots or humans); start_game later moves it out of the lobby.
func NewStateMachine(roomID string, players [game.SeatCount]*game.Player, turnStarter int, deps *game.Deps, cfg Config, hooks RoomHooks, log slog.Logger) *StateMachine {
	return &StateMachine{
		RoomID:     roomID,
		phases:     game.NewPhases(),
		deps:       deps,
		cfg:        cfg,
		hooks:      hooks,
		log:        log,
		Queue:      NewActionQueue(cfg.ActionQueueSoftCap),
		Dispatcher: NewDispatcher(log),
		gs:         game.NewGameState(players, turnStarter),
		dedup:      make(map[string]time.Time),
		stopCh:     make(chan struct{}),
	}
}

// Start launches the single goroutine that owns the action queue (spec §5:
// "a single goroutine consuming the queue"), and the BotCoordinator that
// feeds actions back into it.
func (sm *StateMachine) Start() {
	sm.Bots = NewBotCoordinator(sm, sm.cfg)
	sm.Dispatcher.Subscribe(sm.Bots)
	sm.wg.Add(1)
	go sm.run()
}

// Stop cancels pending bot tasks, drains the queue with rejections, and
// closes it (spec §4.1, §5: "Room shutdown cancels all pending bot tasks,
// drains the queue with rejections, and closes all connections").
func (sm *StateMachine) Stop() {
	close(sm.stopCh)
	sm.Queue.Close()
	sm.wg.Wait()
	for drained := false; !drained; {
		select {
		case a, ok := <-sm.Queue.Actions():
			if !ok {
				drained = true
				break
			}
			sm.gsMu.Lock()
			sm.rejectLocked(a, game.ReasonRoomClosed, "room closed")
			sm.gsMu.Unlock()
		default:
			drained = true
		}
	}
	if sm.Bots != nil {
		sm.Bots.CancelAll()
	}
	sm.cancelDisplaySafety()
}

func (sm *StateMachine) run() {
	defer sm.wg.Done()
	for {
		select {
		case <-sm.stopCh:
			return
		case a, ok := <-sm.Queue.Actions():
			if !ok {
				return
			}
			sm.handle(a)
		}
	}
}

// Snapshot returns a deep copy of the current GameState, safe to read from
// any goroutine other than the room's own (used by reconnection resync and
// by BotCoordinator.decide, which runs on its own timer goroutine).
func (sm *StateMachine) Snapshot() *game.GameState {
	sm.gsMu.RLock()
	defer sm.gsMu.RUnlock()
	return sm.gs.Clone()
}

// current returns the live GameState pointer without locking. It is safe
// ONLY for a Subscriber invoked synchronously from within Dispatcher.Dispatch
// (i.e. from emitLocked, itself only ever called while gsMu's write lock is
// already held: from handle on the room's goroutine, or from EmitRoomEvent
// on whichever goroutine pkg/room calls it from) — re-acquiring
// gsMu there would deadlock since sync.RWMutex is not reentrant. Any caller
// running on a different goroutine must use Snapshot instead.
func (sm *StateMachine) current() *game.GameState {
	return sm.gs
}

func (sm *StateMachine) currentPhase() game.Phase {
	sm.gsMu.RLock()
	defer sm.gsMu.RUnlock()
	return sm.gs.Phase
}

// handle implements the spec §4.2 transition protocol exactly. It runs
// only on the single room goroutine; gs is never touched concurrently.
func (sm *StateMachine) handle(a game.Action) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	if sm.isDuplicate(a.ID) {
		return // spec §4.9: "idempotent no-op returning the earlier result"
	}

	switch a.Kind {
	case game.ActionStartGame:
		sm.handleStartGame(a)
		return
	case game.ActionHostReplaceSeat:
		sm.handleHostReplaceSeat(a)
		return
	case game.ActionLeave:
		sm.handleLeave(a)
		return
	}

	sm.gsMu.Lock()
	defer sm.gsMu.Unlock()

	if !sm.started {
		sm.rejectLocked(a, game.ReasonWrongPhase, "game has not started")
		return
	}

	phase := sm.phases[sm.gs.Phase]
	allowed := phase.AllowedActions(sm.gs)
	if _, ok := allowed[a.Kind]; !ok {
		sm.rejectLocked(a, game.ReasonWrongPhase, "action not valid in current phase")
		return
	}

	// Step 2: apply mutation against a staged clone (spec §4.9 rollback).
	clone := sm.gs.Clone()
	handleEvents, rejection := phase.Handle(clone, a, sm.deps)
	if rejection != nil {
		sm.rejectLocked(a, rejection.Reason, rejection.Detail)
		return
	}

	if err := clone.CheckInvariants(); err != nil {
		sm.log.Errorf("invariant violation on room %s: %v", sm.RoomID, err)
		sm.emitLocked(sm.gs, game.InternalErrorPayload{Message: err.Error()}, -1, a.ID)
		return
	}

	// Step 3: evaluate next_phase and perform the transition synchronously.
	var transitionEvents []game.EventPayload
	next, transitioned := phase.NextPhase(clone, sm.deps)
	for transitioned {
		prev := clone.Phase
		phase.OnExit(clone, sm.deps)
		clone.Phase = next
		phase = sm.phases[next]
		enterEvents := phase.OnEnter(clone, sm.deps)
		if prev != next || next == game.Preparation {
			transitionEvents = append(transitionEvents, buildPhaseChanged(prev, next, clone))
		}
		transitionEvents = append(transitionEvents, enterEvents...)
		next, transitioned = phase.NextPhase(clone, sm.deps)
	}

	// Commit.
	sm.gs = clone
	sm.started = true

	if a.Kind == game.ActionAdvanceDisplay {
		sm.cancelDisplaySafety()
	}

	for _, p := range handleEvents {
		sm.emitLocked(clone, p, a.OriginSeat, a.ID)
	}
	for _, p := range transitionEvents {
		sm.emitLocked(clone, p, -1, a.ID)
	}

	sm.markHandled(a.ID)
}

// buildPhaseChanged is the single place a PhaseChangedPayload is ever
// constructed, so From/To are always accurate (spec §4.3.1 additionally
// wants redeal detail riding along whenever the destination is Preparation).
func buildPhaseChanged(from, to game.Phase, clone *game.GameState) game.PhaseChangedPayload {
	p := game.PhaseChangedPayload{From: from, To: to}
	if to == game.Preparation {
		p.RedealMultiplier = clone.RedealMult
		p.WeakHandSeats = clone.WeakHandSeats
		p.OfferSeat = clone.CurrentWeakOffer
	}
	return p
}

// emitLocked assigns sequence/timestamp/phase, attaches DisplayMetadata,
// dispatches the event, and schedules or cancels the display safety
// deadline. Caller must hold gsMu.
func (sm *StateMachine) emitLocked(gs *game.GameState, payload game.EventPayload, originSeat int, causingActionID string) {
	ev := game.Event{
		Sequence:        gs.NextSequence(),
		Kind:            payload.EventKind(),
		RoomID:          sm.RoomID,
		Phase:           gs.Phase,
		Payload:         payload,
		CausingActionID: causingActionID,
		Timestamp:       time.Now(),
		OriginSeat:      originSeat,
	}
	attachDisplay(&ev, gs, sm.cfg)
	sm.Dispatcher.Dispatch(ev)

	switch payload.(type) {
	case game.TurnResolvedPayload:
		sm.scheduleDisplaySafety(ev.Display, "turn_results")
	case game.ScoringAppliedPayload:
		sm.scheduleDisplaySafety(ev.Display, "scoring_display")
	}
	if ev.Kind == game.EventPhaseChanged {
		sm.cancelDisplaySafety()
	}
}

// EmitRoomEvent lets pkg/room publish membership events (PlayerJoined,
// PlayerLeft, HostChanged, RoomClosed) through the same sequenced Dispatcher
// stream as GameState-driven events, keeping last_event_sequence strictly
// increasing across both (spec invariant 5) even though these payloads
// never flow through a PhaseState.
func (sm *StateMachine) EmitRoomEvent(payload game.EventPayload, originSeat int) {
	sm.gsMu.Lock()
	defer sm.gsMu.Unlock()
	sm.emitLocked(sm.gs, payload, originSeat, "")
}

func (sm *StateMachine) rejectLocked(a game.Action, reason game.RejectReason, detail string) {
	sm.emitLocked(sm.gs, game.ActionRejectedPayload{ActionID: a.ID, Reason: reason, Detail: detail}, a.OriginSeat, a.ID)
}

// scheduleDisplaySafety arms the server-side auto-advance deadline (spec
// §5: "~2x show_for_seconds"). If the client never sends advance_display,
// this synthesizes one so the room is never stuck.
func (sm *StateMachine) scheduleDisplaySafety(d *game.DisplayMetadata, of string) {
	if d == nil {
		return
	}
	var deadline time.Duration
	switch of {
	case "turn_results":
		deadline = sm.cfg.TurnResultsSafetyDeadline()
	case "scoring_display":
		deadline = sm.cfg.ScoringSafetyDeadline()
	}
	if deadline <= 0 {
		return
	}

	sm.displayMu.Lock()
	defer sm.displayMu.Unlock()
	if sm.displayTimer != nil {
		sm.displayTimer.Stop()
	}
	sm.displayTimer = time.AfterFunc(deadline, func() {
		_ = sm.Queue.Enqueue(game.Action{
			Kind:       game.ActionAdvanceDisplay,
			OriginSeat: -1,
			Payload:    game.AdvanceDisplayPayload{Of: of},
		})
	})
}

func (sm *StateMachine) cancelDisplaySafety() {
	sm.displayMu.Lock()
	defer sm.displayMu.Unlock()
	if sm.displayTimer != nil {
		sm.displayTimer.Stop()
		sm.displayTimer = nil
	}
}

// dedupWindow is how long an action_id is remembered for idempotent replay
// (spec §4.9: "same action_id within short window").
const dedupWindow = 30 * time.Second

func (sm *StateMachine) isDuplicate(id string) bool {
	sm.dedupMu.Lock()
	defer sm.dedupMu.Unlock()
	sm.pruneDedupLocked()
	_, seen := sm.dedup[id]
	return seen
}

func (sm *StateMachine) markHandled(id string) {
	sm.dedupMu.Lock()
	defer sm.dedupMu.Unlock()
	sm.dedup[id] = time.Now()
}

func (sm *StateMachine) pruneDedupLocked() {
	cutoff := time.Now().Add(-dedupWindow)
	for id, seen := range sm.dedup {
		if seen.Before(cutoff) {
			delete(sm.dedup, id)
		}
	}
}

func (sm *StateMachine) handleStartGame(a game.Action) {
	sm.gsMu.Lock()
	defer sm.gsMu.Unlock()

	if sm.hooks != nil {
		if rej := sm.hooks.BeforeStart(a); rej != nil {
			sm.rejectLocked(a, rej.Reason, rej.Detail)
			return
		}
	}
	if sm.started {
		sm.rejectLocked(a, game.ReasonGameAlreadyStarted, "game already started")
		return
	}
	for _, p := range sm.gs.Players {
		if p == nil {
			sm.rejectLocked(a, game.ReasonSeatsNotFull, "not all seats are filled")
			return
		}
	}

	clone := sm.gs.Clone()
	clone.Phase = game.Preparation
	enterEvents := sm.phases[game.Preparation].OnEnter(clone, sm.deps)
	events := append([]game.EventPayload{buildPhaseChanged(game.Preparation, game.Preparation, clone)}, enterEvents...)
	if next, ok := sm.phases[game.Preparation].NextPhase(clone, sm.deps); ok && next != game.Preparation {
		sm.phases[game.Preparation].OnExit(clone, sm.deps)
		clone.Phase = next
		events = append(events, buildPhaseChanged(game.Preparation, next, clone))
		events = append(events, sm.phases[next].OnEnter(clone, sm.deps)...)
	}

	sm.gs = clone
	sm.started = true
	for _, p := range events {
		sm.emitLocked(clone, p, -1, a.ID)
	}
	sm.markHandled(a.ID)
}

func (sm *StateMachine) handleHostReplaceSeat(a game.Action) {
	sm.gsMu.Lock()
	defer sm.gsMu.Unlock()

	if sm.hooks != nil {
		if rej := sm.hooks.BeforeHostReplaceSeat(a); rej != nil {
			sm.rejectLocked(a, rej.Reason, rej.Detail)
			return
		}
	}
	p, ok := a.Payload.(game.HostReplaceSeatPayload)
	if !ok || p.Seat < 0 || p.Seat >= game.SeatCount || sm.gs.Players[p.Seat] == nil {
		sm.rejectLocked(a, game.ReasonWrongPhase, "invalid seat for host_replace_seat")
		return
	}

	clone := sm.gs.Clone()
	clone.Players[p.Seat].IsBot = true
	sm.gs = clone
	sm.emitLocked(clone, game.SeatReplacedPayload{Seat: p.Seat}, -1, a.ID)
	sm.markHandled(a.ID)
}

func (sm *StateMachine) handleLeave(a game.Action) {
	sm.gsMu.Lock()
	seat := a.OriginSeat
	if seat < 0 || seat >= game.SeatCount || sm.gs.Players[seat] == nil {
		sm.rejectLocked(a, game.ReasonWrongPhase, "invalid seat for leave")
		sm.gsMu.Unlock()
		return
	}
	clone := sm.gs.Clone()
	clone.Players[seat].IsBot = true
	sm.gs = clone
	sm.emitLocked(clone, game.PlayerLeftPayload{Seat: seat}, -1, a.ID)
	sm.markHandled(a.ID)
	sm.gsMu.Unlock()

	if sm.hooks != nil {
		sm.hooks.AfterLeave(seat)
	}
}
