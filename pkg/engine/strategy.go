package engine

import "liaptui/pkg/game"

// Strategy is the pluggable AI a BotCoordinator consults for bot-seat
// decisions (spec §4.6 step 2: "compute the bot's action via the pluggable
// AI strategy"). A Strategy may panic or return an action the phase
// ultimately rejects; BotCoordinator always has a deterministic fallback
// behind it (spec §4.9).
type Strategy interface {
	ChooseRedeal(gs *game.GameState, seat int) game.ActionKind
	ChooseDeclare(gs *game.GameState, seat int) int
	ChoosePlay(gs *game.GameState, seat int) []int
}

// GreedyStrategy is the default Strategy: declines every redeal (keeps the
// hand it was dealt), declares the count of pieces that clear
// game.WeakThreshold, and always opens/matches with the lowest-index
// legal-count subset of its hand.
type GreedyStrategy struct{}

func (GreedyStrategy) ChooseRedeal(gs *game.GameState, seat int) game.ActionKind {
	return game.ActionDeclineRedeal
}

func (GreedyStrategy) ChooseDeclare(gs *game.GameState, seat int) int {
	player := gs.Players[seat]
	strong := 0
	for _, p := range player.Hand {
		if p.PointValue > game.WeakThreshold {
			strong++
		}
	}
	return clampDeclare(gs, seat, strong)
}

func (GreedyStrategy) ChoosePlay(gs *game.GameState, seat int) []int {
	return lowestIndices(gs, seat)
}

// clampDeclare keeps a strategy's raw guess inside the legal declare range,
// respecting the last-declarer forbidden-sum rule and the perpetual-zero
// rule, so a plain Strategy implementation doesn't need to know either.
func clampDeclare(gs *game.GameState, seat int, want int) int {
	if want < 0 {
		want = 0
	}
	if want > game.HandSize {
		want = game.HandSize
	}
	if want == 0 && gs.Players[seat].ZeroStreak >= 2 {
		want = 1
	}
	if len(gs.Declarations) == game.SeatCount-1 {
		sum := 0
		for _, v := range gs.Declarations {
			sum += v
		}
		if sum+want == game.HandSize {
			if want < game.HandSize {
				want++
			} else {
				want--
			}
		}
	}
	return want
}

// lowestIndices picks the smallest legal play: the required count (or the
// whole remaining hand if smaller), taken from the front of the hand.
func lowestIndices(gs *game.GameState, seat int) []int {
	hand := gs.Players[seat].Hand
	n := gs.RequiredCount
	if n == 0 {
		n = 1
	}
	if n > len(hand) {
		n = len(hand)
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}
