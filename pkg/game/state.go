package game

// GameState is owned by the engine's StateMachine; every field here mirrors
// spec §3's GameState block exactly. Phase handlers never hold a reference
// to it across a suspension point — the engine clones it before handing it
// to a PhaseState and commits the clone back only on success (spec §4.9
// "StateMachine invariant violation ... rolled back").
type GameState struct {
	Phase        Phase
	RoundNumber  int
	RedealMult   int
	TurnNumber   int

	TurnStarterSeat   int
	CurrentPlayerSeat int
	TurnPlays         []Play
	RequiredCount     int // 0 means "unset"; first player of a turn sets it

	DeclarationOrder []int
	Declarations     map[int]int

	WeakHandSeats    []int
	CurrentWeakOffer int // -1 when no offer is pending
	WeakDeclined     map[int]bool
	// RedealPending is set by the Preparation phase's Handle when a redeal
	// is accepted/requested, and consumed by its own OnEnter on re-entry;
	// it is what tells NextPhase "re-enter Preparation" instead of
	// "proceed to Declaration" after a fresh, all-strong-hands deal.
	RedealPending bool

	// PendingAdvance parks a computed-but-not-yet-applied transition behind
	// a client (or safety-deadline) advance_display action, per spec §4.5:
	// "the next phase's logic is already computed and ready". Set by Turn
	// (on the 4th play of a turn) and Scoring (on entry); cleared once
	// AdvanceRequested is honored. Nil means no display is pending.
	PendingAdvance   *PendingAdvance
	AdvanceRequested bool

	Players [SeatCount]*Player

	LastEventSequence int64
}

// NewGameState builds the zero-round starting state for four players. seats
// must be supplied in seat-index order.
func NewGameState(players [SeatCount]*Player, turnStarter int) *GameState {
	return &GameState{
		Phase:            Preparation,
		RoundNumber:      1,
		RedealMult:       1,
		TurnStarterSeat:  turnStarter,
		CurrentWeakOffer: -1,
		Declarations:     map[int]int{},
		WeakDeclined:     map[int]bool{},
		Players:          players,
	}
}

// Clone deep-copies the state, including every player's hand. Used by the
// engine to stage a mutation before committing it (spec §4.9).
func (gs *GameState) Clone() *GameState {
	cp := *gs
	cp.TurnPlays = append([]Play(nil), gs.TurnPlays...)
	cp.DeclarationOrder = append([]int(nil), gs.DeclarationOrder...)
	cp.WeakHandSeats = append([]int(nil), gs.WeakHandSeats...)
	cp.Declarations = make(map[int]int, len(gs.Declarations))
	for k, v := range gs.Declarations {
		cp.Declarations[k] = v
	}
	cp.WeakDeclined = make(map[int]bool, len(gs.WeakDeclined))
	for k, v := range gs.WeakDeclined {
		cp.WeakDeclined[k] = v
	}
	for i, p := range gs.Players {
		if p != nil {
			cp.Players[i] = p.Clone()
		}
	}
	return &cp
}

// NextSequence increments and returns the room-monotonic event sequence
// (spec invariant 5: "last_event_sequence strictly increases").
func (gs *GameState) NextSequence() int64 {
	gs.LastEventSequence++
	return gs.LastEventSequence
}

// SeatAfter returns the seat index (seat+1)%4, the fixed ascending-wrap
// ordering used throughout declaration order and weak-hand offers.
func SeatAfter(seat int) int {
	return (seat + 1) % SeatCount
}

// ActiveHandsRemain reports whether any seat still holds pieces this round.
func (gs *GameState) ActiveHandsRemain() bool {
	for _, p := range gs.Players {
		if p != nil && len(p.Hand) > 0 {
			return true
		}
	}
	return false
}

// CheckInvariants re-verifies the subset of spec §3's invariants that are
// cheap to check structurally after every mutation; called by the engine
// (pkg/engine/machine.go's handle) on every staged clone after a phase
// Handle succeeds and before the phase transition is evaluated.
func (gs *GameState) CheckInvariants() error {
	if gs.Phase == Turn && len(gs.TurnPlays) > 0 {
		first := len(gs.TurnPlays[0].Pieces)
		for _, pl := range gs.TurnPlays[1:] {
			if len(pl.Pieces) != first && len(pl.Pieces) != gs.RequiredCount {
				return errInvariant("turn play size mismatch")
			}
		}
	}
	if gs.Phase == Declaration && len(gs.Declarations) == SeatCount {
		sum := 0
		for _, v := range gs.Declarations {
			sum += v
		}
		if sum == HandSize {
			return errInvariant("declarations sum to hand size")
		}
	}
	return nil
}

type invariantError string

func (e invariantError) Error() string { return string(e) }

func errInvariant(msg string) error { return invariantError(msg) }
