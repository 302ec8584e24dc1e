package game

// Rules, Scorer and RandomSource are the external collaborator interfaces
// from spec §6. They are declared here (rather than imported from
// pkg/rules) so that pkg/game has zero dependency on its own default
// implementations — any caller can supply a stub for testing. pkg/rules
// provides the concrete, documented implementations (DESIGN.md "Open
// Question #1").
type Rules interface {
	// ClassifyPlay returns a stable play-type label for a set of pieces
	// (e.g. "single", "pair", "triple", or "mixed" if the pieces don't
	// form a recognized group).
	ClassifyPlay(pieces []Piece) string
	// ValidatePlay reports whether subsequent's play-type matches the
	// first play's play-type (spec §6: Rules.validate_play).
	ValidatePlay(firstPlayType string, subsequent []Piece) bool
	// RankPlays returns the winning seat among the turn's four plays.
	RankPlays(firstSeat int, plays []Play) int
}

// Scorer computes a round's per-seat deltas (spec §6: Scoring.score_round).
// It is not named Scoring because that name is the Scoring Phase constant.
type Scorer interface {
	ScoreRound(declared, captured, multiplier int) int
}

// RandomSource is a seedable shuffle source (spec §6: RandomSource.shuffle).
type RandomSource interface {
	Shuffle(deck []Piece)
}

// Deps bundles the pure collaborators and the scalar configuration a
// PhaseState needs, without pulling in pkg/engine (which depends on
// pkg/game, not the other way around).
type Deps struct {
	Rules              Rules
	Scoring            Scorer
	Random             RandomSource
	WinningScore       int
}

// PhaseState is the common contract every phase implements (spec §4.3).
//
// Phase methods return bare EventPayload values rather than full Event
// envelopes: sequence numbers, room id, phase tag and display metadata are
// assigned by pkg/engine (spec §4.2 steps 4-5), which is the only layer
// that knows the room id and the room-monotonic sequence counter.
type PhaseState interface {
	Name() Phase
	// AllowedActions takes gs because legality can depend on sub-state
	// within a phase (e.g. Preparation only accepts redeal actions while a
	// weak-hand offer is outstanding; Turn/Scoring only accept
	// advance_display while a result is parked behind PendingAdvance).
	AllowedActions(gs *GameState) map[ActionKind]struct{}
	// OnEnter runs idempotent setup and may itself emit payloads (e.g. the
	// cards-dealt notice). It never causes a further transition; NextPhase
	// is consulted separately by the engine immediately after.
	OnEnter(gs *GameState, deps *Deps) []EventPayload
	// Handle validates and applies action to gs (already a staged clone);
	// on success it returns the phase-local payloads to emit (NOT including
	// PhaseChanged, which the engine emits itself when NextPhase fires).
	Handle(gs *GameState, a Action, deps *Deps) ([]EventPayload, *Rejection)
	// NextPhase evaluates the transition condition after a successful
	// Handle or OnEnter. ok=false means "stay". A (same-value, true) result
	// still runs OnExit/OnEnter — the Turn -> Turn and Preparation ->
	// Preparation (re-deal) hops are real re-entries; the engine emits
	// PhaseChanged for a Preparation re-deal but not for a Turn -> Turn hop
	// (see pkg/engine).
	NextPhase(gs *GameState, deps *Deps) (next Phase, ok bool)
	OnExit(gs *GameState, deps *Deps)
}

// PendingAdvance parks a computed transition behind an advance_display
// action (spec §4.5). Of identifies which display is pending ("turn_results"
// or "scoring_display"); Next is the phase to move to once honored.
type PendingAdvance struct {
	Of   string
	Next Phase
}

// handleAdvanceDisplay implements the advance_display action shared by Turn
// and Scoring (spec §6 external interface table: "Turn->Turn /
// Scoring->Preparation"). It never mutates Phase itself; it only marks the
// parked transition as ready, which the phase's NextPhase picks up via
// resolvePendingAdvance.
func handleAdvanceDisplay(gs *GameState, a Action) ([]EventPayload, *Rejection) {
	p, ok := a.Payload.(AdvanceDisplayPayload)
	if !ok {
		return nil, &Rejection{Reason: ReasonUnknownDisplay, Detail: "malformed advance_display payload"}
	}
	if gs.PendingAdvance == nil || gs.PendingAdvance.Of != p.Of {
		return nil, &Rejection{Reason: ReasonUnknownDisplay, Detail: "no matching display is pending"}
	}
	gs.AdvanceRequested = true
	return nil, nil
}

// resolvePendingAdvance is the shared NextPhase body for Turn and Scoring:
// stay parked until an advance_display has been honored, then hand back the
// phase that was already computed when the result was parked.
func resolvePendingAdvance(gs *GameState, current Phase) (Phase, bool) {
	if gs.PendingAdvance == nil || !gs.AdvanceRequested {
		return current, false
	}
	next := gs.PendingAdvance.Next
	gs.PendingAdvance = nil
	gs.AdvanceRequested = false
	return next, true
}

// Phases is the full set of PhaseState implementations, keyed by Phase.
// Built once by NewPhases and shared by every room (phases are stateless;
// all mutable state lives in *GameState).
type Phases map[Phase]PhaseState

func NewPhases() Phases {
	return Phases{
		Preparation: &preparationPhase{},
		Declaration: &declarationPhase{},
		Turn:        &turnPhase{},
		Scoring:     &scoringPhase{},
		GameEnd:     &gameEndPhase{},
	}
}

type gameEndPhase struct{}

func (gameEndPhase) Name() Phase { return GameEnd }
func (gameEndPhase) AllowedActions(gs *GameState) map[ActionKind]struct{} {
	return map[ActionKind]struct{}{ActionLeave: {}}
}
func (gameEndPhase) OnEnter(gs *GameState, deps *Deps) []EventPayload { return nil }
func (gameEndPhase) Handle(gs *GameState, a Action, deps *Deps) ([]EventPayload, *Rejection) {
	return nil, &Rejection{Reason: ReasonWrongPhase, Detail: "game has ended"}
}
func (gameEndPhase) NextPhase(gs *GameState, deps *Deps) (Phase, bool) { return GameEnd, false }
func (gameEndPhase) OnExit(gs *GameState, deps *Deps)                  {}
