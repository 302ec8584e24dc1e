package game

// scoringPhase implements spec §4.3.4. All deltas are computed once on
// entry (pure, via Scoring.ScoreRound) and the round-end state reset is
// performed immediately after, so that the already-computed next phase is
// sitting behind PendingAdvance the instant ScoringApplied is emitted.
type scoringPhase struct{}

func (scoringPhase) Name() Phase { return Scoring }

func (scoringPhase) AllowedActions(gs *GameState) map[ActionKind]struct{} {
	return map[ActionKind]struct{}{
		ActionAdvanceDisplay: {},
		ActionLeave:          {},
	}
}

func (scoringPhase) OnEnter(gs *GameState, deps *Deps) []EventPayload {
	deltas := make(map[int]int, SeatCount)
	scores := make(map[int]int, SeatCount)
	winner := -1
	for seat, p := range gs.Players {
		delta := deps.Scoring.ScoreRound(p.DeclaredPiles, p.CapturedPiles, gs.RedealMult)
		p.CumulativeScore += delta
		deltas[seat] = delta
		scores[seat] = p.CumulativeScore
		if p.CumulativeScore >= deps.WinningScore && (winner == -1 || p.CumulativeScore > gs.Players[winner].CumulativeScore) {
			winner = seat
		}
	}

	events := []EventPayload{ScoringAppliedPayload{Deltas: deltas, Scores: scores}}

	if winner >= 0 {
		gs.PendingAdvance = &PendingAdvance{Of: "scoring_display", Next: GameEnd}
		final := make(map[int]int, SeatCount)
		for seat, p := range gs.Players {
			final[seat] = p.CumulativeScore
		}
		events = append(events, GameEndedPayload{WinnerSeat: winner, FinalScores: final})
		return events
	}

	gs.RoundNumber++
	gs.TurnStarterSeat = SeatAfter(gs.TurnStarterSeat)
	gs.RedealMult = 1
	gs.PendingAdvance = &PendingAdvance{Of: "scoring_display", Next: Preparation}
	return events
}

func (scoringPhase) Handle(gs *GameState, a Action, deps *Deps) ([]EventPayload, *Rejection) {
	if a.Kind != ActionAdvanceDisplay {
		return nil, &Rejection{Reason: ReasonWrongPhase, Detail: "action not valid in scoring"}
	}
	return handleAdvanceDisplay(gs, a)
}

func (scoringPhase) NextPhase(gs *GameState, deps *Deps) (Phase, bool) {
	return resolvePendingAdvance(gs, Scoring)
}

func (scoringPhase) OnExit(gs *GameState, deps *Deps) {}
