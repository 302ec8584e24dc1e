// Package rules provides the default implementations of the pkg/game
// collaborator interfaces (Rules, Scorer, RandomSource). pkg/game only
// declares these as interfaces so that engine tests can substitute
// deterministic stubs; this package is what a real room wires in.
//
// There is no surviving original-implementation reference for piece
// ranking or scoring (DESIGN.md "Open Question #1"), so the classification
// and scoring formulas below are a fresh, documented design rather than a
// port of anything retrieved from the example pack.
package rules

import (
	"math/rand"

	"liaptui/pkg/game"
)

// Default is the standard Rules+Scorer implementation wired into every
// room by pkg/room.New unless a test overrides it.
type Default struct{}

// ClassifyPlay returns a stable label for a set of pieces: "single" for one
// piece, "kind-N" for N pieces sharing a Kind, or "mixed" for anything that
// doesn't form a same-kind group. Mixed plays are always legal to submit
// (pkg/game only gates on count) but can never win a turn against a play
// that matches the first player's type.
func (Default) ClassifyPlay(pieces []game.Piece) string {
	if len(pieces) == 0 {
		return "empty"
	}
	if len(pieces) == 1 {
		return "single"
	}
	kind := pieces[0].Kind
	for _, p := range pieces[1:] {
		if p.Kind != kind {
			return "mixed"
		}
	}
	return kindSetLabel(len(pieces))
}

func kindSetLabel(n int) string {
	switch n {
	case 2:
		return "kind-2"
	case 3:
		return "kind-3"
	default:
		return "kind-set"
	}
}

// ValidatePlay reports whether subsequent's ClassifyPlay label equals the
// first play's label, the condition under which it is eligible to win the
// turn (spec §6: Rules.validate_play). Only the label is compared, so piece
// count is checked only as far as the label encodes it ("kind-set" and
// "mixed" cover several counts).
func (d Default) ValidatePlay(firstPlayType string, subsequent []game.Piece) bool {
	return d.ClassifyPlay(subsequent) == firstPlayType
}

// RankPlays returns the winning seat among a resolved turn's four plays.
// Only plays whose type matches the first player's type are eligible; among
// those, the highest total point value wins. Ties keep the earliest-played
// eligible seat (stable, since plays are walked in play order).
func (d Default) RankPlays(firstSeat int, plays []game.Play) int {
	if len(plays) == 0 {
		return firstSeat
	}
	var first game.Play
	for _, p := range plays {
		if p.Seat == firstSeat {
			first = p
			break
		}
	}
	firstType := d.ClassifyPlay(first.Pieces)

	best := first
	bestScore := totalPoints(first.Pieces)
	for _, p := range plays {
		if p.Seat == firstSeat {
			continue
		}
		if !d.ValidatePlay(firstType, p.Pieces) {
			continue
		}
		if score := totalPoints(p.Pieces); score > bestScore {
			best, bestScore = p, score
		}
	}
	return best.Seat
}

func totalPoints(pieces []game.Piece) int {
	total := 0
	for _, p := range pieces {
		total += p.PointValue
	}
	return total
}

// ScoreRound computes a seat's round-end delta: an exact declaration is
// rewarded with (declared+5) piles, scaled by the redeal multiplier; a miss
// in either direction costs the size of the miss, also scaled.
func (Default) ScoreRound(declared, captured, multiplier int) int {
	if declared == captured {
		return (declared + 5) * multiplier
	}
	miss := declared - captured
	if miss < 0 {
		miss = -miss
	}
	return -miss * multiplier
}

// MathRandom is a RandomSource backed by math/rand, seedable for
// deterministic tests (spec §6: RandomSource.shuffle).
type MathRandom struct {
	R *rand.Rand
}

// NewMathRandom builds a MathRandom seeded from seed.
func NewMathRandom(seed int64) *MathRandom {
	return &MathRandom{R: rand.New(rand.NewSource(seed))}
}

func (m *MathRandom) Shuffle(deck []game.Piece) {
	m.R.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
}
