package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// identityRandom leaves the deck in NewDeck's declared order, so tests can
// predict exactly which seats draw weak hands (see TestNewGameStatePreparationDeal).
type identityRandom struct{}

func (identityRandom) Shuffle(deck []Piece) {}

// stubRules is a minimal Rules double: plays are always legal to submit,
// and the turn is won by whichever play (including the opener's) has the
// highest total point value, with the opener winning ties.
type stubRules struct{}

func (stubRules) ClassifyPlay(pieces []Piece) string        { return "any" }
func (stubRules) ValidatePlay(firstType string, p []Piece) bool { return true }
func (stubRules) RankPlays(firstSeat int, plays []Play) int {
	best := firstSeat
	bestScore := -1
	for _, p := range plays {
		score := 0
		for _, piece := range p.Pieces {
			score += piece.PointValue
		}
		if score > bestScore {
			best, bestScore = p.Seat, score
		}
	}
	return best
}

// stubScoring rewards an exact match with a flat 10, scaled by multiplier,
// and costs nothing on a miss — simple enough to hand-check in assertions.
type stubScoring struct{}

func (stubScoring) ScoreRound(declared, captured, multiplier int) int {
	if declared == captured {
		return 10 * multiplier
	}
	return 0
}

func newTestPlayers() [SeatCount]*Player {
	var players [SeatCount]*Player
	for seat := 0; seat < SeatCount; seat++ {
		players[seat] = &Player{PlayerID: "p", SeatIndex: seat}
	}
	return players
}

func newTestDeps(winningScore int) *Deps {
	return &Deps{
		Rules:        stubRules{},
		Scoring:      stubScoring{},
		Random:       identityRandom{},
		WinningScore: winningScore,
	}
}

func TestNewGameStatePreparationDeal(t *testing.T) {
	gs := NewGameState(newTestPlayers(), 0)
	deps := newTestDeps(1000)
	phases := NewPhases()

	events := phases[Preparation].OnEnter(gs, deps)

	// Under the identity shuffle, seat 0 holds the top of the deck (two
	// Generals, four Advisors, two red Elephants) and is strong; seats 1-3 hold the bottom
	// of the deck and are all weak (see pkg/game/types.go pointValue table).
	if !seatStrong(gs, 0) {
		t.Fatal("expected seat 0 to be strong under the identity shuffle")
	}
	for seat := 1; seat < SeatCount; seat++ {
		if seatStrong(gs, seat) {
			t.Fatalf("expected seat %d to be weak under the identity shuffle", seat)
		}
	}

	require.Equal(t, []int{1, 2, 3}, gs.WeakHandSeats)
	require.Equal(t, 1, gs.CurrentWeakOffer)
	require.Len(t, events, 1)
	require.Equal(t, RedealOfferedPayload{Seat: 1}, events[0])
}

func seatStrong(gs *GameState, seat int) bool {
	return !IsWeak(gs.Players[seat].Hand)
}

func TestPreparationRedealFlow(t *testing.T) {
	gs := NewGameState(newTestPlayers(), 0)
	deps := newTestDeps(1000)
	phases := NewPhases()
	phases[Preparation].OnEnter(gs, deps)
	require.Equal(t, 1, gs.CurrentWeakOffer)

	// Seat 3 isn't being offered anything yet.
	_, rej := phases[Preparation].Handle(gs, Action{Kind: ActionDeclineRedeal, OriginSeat: 3}, deps)
	require.NotNil(t, rej)
	require.Equal(t, ReasonNotOffered, rej.Reason)

	// Seat 1 declines; the offer rotates to seat 2.
	_, rej = phases[Preparation].Handle(gs, Action{Kind: ActionDeclineRedeal, OriginSeat: 1}, deps)
	require.Nil(t, rej)
	require.Equal(t, 2, gs.CurrentWeakOffer)

	next, ok := phases[Preparation].NextPhase(gs, deps)
	require.False(t, ok)
	require.Equal(t, Preparation, next) // still resolving offers

	// Seat 2 accepts: a redeal is now pending and the offer stream is reset.
	_, rej = phases[Preparation].Handle(gs, Action{Kind: ActionAcceptRedeal, OriginSeat: 2}, deps)
	require.Nil(t, rej)
	require.Equal(t, -1, gs.CurrentWeakOffer)
	require.True(t, gs.RedealPending)
	require.Equal(t, 2, gs.RedealMult)

	next, ok = phases[Preparation].NextPhase(gs, deps)
	require.True(t, ok)
	require.Equal(t, Preparation, next) // re-deals rather than advancing
}

func TestPreparationAllStrongSkipsToDeclaration(t *testing.T) {
	gs := NewGameState(newTestPlayers(), 0)
	deps := newTestDeps(1000)
	phases := NewPhases()

	// No weak hands were dealt this round: no offer is outstanding.
	gs.WeakHandSeats = nil
	gs.CurrentWeakOffer = -1

	next, ok := phases[Preparation].NextPhase(gs, deps)
	require.True(t, ok)
	require.Equal(t, Declaration, next)
}

func TestDeclarationLastDeclareCannotSumToHandSize(t *testing.T) {
	gs := NewGameState(newTestPlayers(), 0)
	deps := newTestDeps(1000)
	phases := NewPhases()
	phases[Declaration].OnEnter(gs, deps)

	mustDeclare := func(seat, value int) {
		_, rej := phases[Declaration].Handle(gs, Action{Kind: ActionDeclare, OriginSeat: seat, Payload: DeclarePayload{Value: value}}, deps)
		require.Nil(t, rej)
	}

	mustDeclare(0, 2)
	mustDeclare(1, 2)
	mustDeclare(2, 2)

	// 2+2+2 = 6; declaring 2 now would sum to 8 (HandSize) and must be rejected.
	_, rej := phases[Declaration].Handle(gs, Action{Kind: ActionDeclare, OriginSeat: 3, Payload: DeclarePayload{Value: 2}}, deps)
	require.NotNil(t, rej)
	require.Equal(t, ReasonWouldSumToHandSize, rej.Reason)

	// A different value is fine and closes out the round.
	_, rej = phases[Declaration].Handle(gs, Action{Kind: ActionDeclare, OriginSeat: 3, Payload: DeclarePayload{Value: 3}}, deps)
	require.Nil(t, rej)

	next, ok := phases[Declaration].NextPhase(gs, deps)
	require.True(t, ok)
	require.Equal(t, Turn, next)
}

func TestDeclarationPerpetualZeroRule(t *testing.T) {
	gs := NewGameState(newTestPlayers(), 0)
	deps := newTestDeps(1000)
	phases := NewPhases()
	phases[Declaration].OnEnter(gs, deps)

	gs.Players[0].ZeroStreak = 2
	_, rej := phases[Declaration].Handle(gs, Action{Kind: ActionDeclare, OriginSeat: 0, Payload: DeclarePayload{Value: 0}}, deps)
	require.NotNil(t, rej)
	require.Equal(t, ReasonMustDeclareAtLeastOne, rej.Reason)

	_, rej = phases[Declaration].Handle(gs, Action{Kind: ActionDeclare, OriginSeat: 0, Payload: DeclarePayload{Value: 1}}, deps)
	require.Nil(t, rej)
	require.Equal(t, 0, gs.Players[0].ZeroStreak)
}

func TestTurnResolutionParksDisplayThenAdvances(t *testing.T) {
	gs := NewGameState(newTestPlayers(), 0)
	deps := newTestDeps(1000)
	phases := NewPhases()

	for seat := 0; seat < SeatCount; seat++ {
		gs.Players[seat].Hand = []Piece{{Kind: Soldier, Color: Red, PointValue: 2 + seat}}
	}
	gs.CurrentPlayerSeat = 0
	phases[Turn].OnEnter(gs, deps)

	for seat := 0; seat < SeatCount; seat++ {
		events, rej := phases[Turn].Handle(gs, Action{Kind: ActionPlayPieces, OriginSeat: seat, Payload: PlayPiecesPayload{PieceIndices: []int{0}}}, deps)
		require.Nil(t, rej)
		if seat < SeatCount-1 {
			require.Len(t, events, 1)
		} else {
			require.Len(t, events, 2)
		}
	}

	require.NotNil(t, gs.PendingAdvance)
	require.Equal(t, "turn_results", gs.PendingAdvance.Of)
	// Seat 3 played the highest point value (5) and wins.
	require.Equal(t, 3, gs.CurrentPlayerSeat)
	require.Equal(t, 1, gs.Players[3].CapturedPiles)

	next, ok := phases[Turn].NextPhase(gs, deps)
	require.False(t, ok)
	require.Equal(t, Turn, next)

	_, rej := phases[Turn].Handle(gs, Action{Kind: ActionAdvanceDisplay, OriginSeat: -1, Payload: AdvanceDisplayPayload{Of: "turn_results"}}, deps)
	require.Nil(t, rej)

	next, ok = phases[Turn].NextPhase(gs, deps)
	require.True(t, ok)
	require.Equal(t, Scoring, next) // every hand is now empty
	require.Nil(t, gs.PendingAdvance)
}

func TestScoringAppliesDeltasAndParksNextRound(t *testing.T) {
	gs := NewGameState(newTestPlayers(), 0)
	deps := newTestDeps(1000)
	phases := NewPhases()

	gs.Players[0].DeclaredPiles, gs.Players[0].CapturedPiles = 2, 2
	gs.Players[1].DeclaredPiles, gs.Players[1].CapturedPiles = 3, 1
	gs.Players[2].DeclaredPiles, gs.Players[2].CapturedPiles = 0, 0
	gs.Players[3].DeclaredPiles, gs.Players[3].CapturedPiles = 3, 5
	gs.RedealMult = 2

	events := phases[Scoring].OnEnter(gs, deps)
	require.Len(t, events, 1)
	applied, ok := events[0].(ScoringAppliedPayload)
	require.True(t, ok)
	require.Equal(t, 20, applied.Deltas[0]) // exact match: 10 * multiplier 2
	require.Equal(t, 0, applied.Deltas[1])
	require.Equal(t, 20, applied.Deltas[2])
	require.Equal(t, 0, applied.Deltas[3])

	require.NotNil(t, gs.PendingAdvance)
	require.Equal(t, Preparation, gs.PendingAdvance.Next)
	require.Equal(t, 2, gs.RoundNumber)
	require.Equal(t, 1, gs.RedealMult)
	require.Equal(t, 1, gs.TurnStarterSeat)
}

func TestScoringEndsGameOnWinningThreshold(t *testing.T) {
	gs := NewGameState(newTestPlayers(), 0)
	deps := newTestDeps(10)
	phases := NewPhases()

	gs.Players[1].DeclaredPiles, gs.Players[1].CapturedPiles = 2, 2

	events := phases[Scoring].OnEnter(gs, deps)
	require.Len(t, events, 2)
	_, ok := events[1].(GameEndedPayload)
	require.True(t, ok)
	require.Equal(t, GameEnd, gs.PendingAdvance.Next)
}

func TestGameStateCloneIsIndependent(t *testing.T) {
	gs := NewGameState(newTestPlayers(), 0)
	gs.Players[0].Hand = []Piece{{Kind: General, Color: Red, PointValue: 14}}
	gs.Declarations[0] = 3

	clone := gs.Clone()
	clone.Players[0].Hand[0].PointValue = 99
	clone.Declarations[0] = 7
	clone.TurnPlays = append(clone.TurnPlays, Play{Seat: 0})

	require.Equal(t, 14, gs.Players[0].Hand[0].PointValue)
	require.Equal(t, 3, gs.Declarations[0])
	require.Empty(t, gs.TurnPlays)
}

func TestNextSequenceIsMonotonic(t *testing.T) {
	gs := NewGameState(newTestPlayers(), 0)
	require.Equal(t, int64(1), gs.NextSequence())
	require.Equal(t, int64(2), gs.NextSequence())
	require.Equal(t, int64(3), gs.NextSequence())
}

func TestCheckInvariantsCatchesDeclarationSummingToHandSize(t *testing.T) {
	gs := NewGameState(newTestPlayers(), 0)
	gs.Phase = Declaration
	gs.Declarations = map[int]int{0: 2, 1: 2, 2: 2, 3: 2}
	require.Error(t, gs.CheckInvariants())

	gs.Declarations[3] = 3
	require.NoError(t, gs.CheckInvariants())
}

func TestCheckInvariantsCatchesTurnPlaySizeMismatch(t *testing.T) {
	gs := NewGameState(newTestPlayers(), 0)
	gs.Phase = Turn
	gs.RequiredCount = 1
	gs.TurnPlays = []Play{
		{Seat: 0, Pieces: []Piece{{Kind: Soldier}}},
		{Seat: 1, Pieces: []Piece{{Kind: Soldier}, {Kind: Soldier}}},
	}
	require.Error(t, gs.CheckInvariants())
}
