package game

import "sort"

// turnPhase implements spec §4.3.3. The first seat to play in a turn sets
// required_piece_count for everyone else; only the piece *count* is
// enforced as an action-rejection gate; a play whose classified type
// doesn't match the first play's type is still accepted into the turn, it
// simply cannot win it (Rules.RankPlays decides that, not Handle — see
// DESIGN.md).
type turnPhase struct{}

func (turnPhase) Name() Phase { return Turn }

func (turnPhase) AllowedActions(gs *GameState) map[ActionKind]struct{} {
	allowed := map[ActionKind]struct{}{ActionLeave: {}}
	if gs.PendingAdvance != nil {
		allowed[ActionAdvanceDisplay] = struct{}{}
		return allowed
	}
	allowed[ActionPlayPieces] = struct{}{}
	return allowed
}

func (turnPhase) OnEnter(gs *GameState, deps *Deps) []EventPayload {
	gs.TurnPlays = nil
	gs.RequiredCount = 0
	gs.TurnNumber++
	return nil
}

func (turnPhase) Handle(gs *GameState, a Action, deps *Deps) ([]EventPayload, *Rejection) {
	switch a.Kind {
	case ActionAdvanceDisplay:
		return handleAdvanceDisplay(gs, a)
	case ActionPlayPieces:
		return handlePlayPieces(gs, a, deps)
	default:
		return nil, &Rejection{Reason: ReasonWrongPhase, Detail: "action not valid in turn"}
	}
}

func handlePlayPieces(gs *GameState, a Action, deps *Deps) ([]EventPayload, *Rejection) {
	if gs.PendingAdvance != nil {
		return nil, &Rejection{Reason: ReasonWrongPhase, Detail: "turn result pending advance"}
	}
	if a.OriginSeat != gs.CurrentPlayerSeat {
		return nil, &Rejection{Reason: ReasonNotYourTurn, Detail: "it is not this seat's turn to play"}
	}
	p, ok := a.Payload.(PlayPiecesPayload)
	if !ok {
		return nil, &Rejection{Reason: ReasonPieceCountMismatch, Detail: "malformed play_pieces payload"}
	}

	player := gs.Players[a.OriginSeat]
	pieces, err := takeFromHand(player, p.PieceIndices)
	if err != nil {
		return nil, &Rejection{Reason: ReasonPieceNotInHand, Detail: err.Error()}
	}

	if gs.RequiredCount == 0 {
		if len(pieces) < 1 || len(pieces) > MaxPlaySize {
			return nil, &Rejection{Reason: ReasonPieceCountMismatch, Detail: "first play of a turn must be 1-6 pieces"}
		}
		gs.RequiredCount = len(pieces)
	} else {
		required := gs.RequiredCount
		if required > len(player.Hand)+len(pieces) {
			// Degenerate edge case (spec §4.3.3): required exceeds what this
			// seat holds, so the whole remaining hand must be played.
			required = len(player.Hand) + len(pieces)
		}
		if len(pieces) != required {
			return nil, &Rejection{Reason: ReasonPieceCountMismatch, Detail: "play does not match required piece count"}
		}
	}

	gs.TurnPlays = append(gs.TurnPlays, Play{Seat: a.OriginSeat, Pieces: pieces})

	if len(gs.TurnPlays) < SeatCount {
		gs.CurrentPlayerSeat = SeatAfter(gs.CurrentPlayerSeat)
		return []EventPayload{PlayedPayload{Seat: a.OriginSeat, Pieces: pieces}}, nil
	}

	winner := deps.Rules.RankPlays(gs.TurnPlays[0].Seat, gs.TurnPlays)
	piles := gs.RequiredCount
	gs.Players[winner].CapturedPiles += piles
	gs.CurrentPlayerSeat = winner

	next := Turn
	if !gs.ActiveHandsRemain() {
		next = Scoring
	}
	gs.PendingAdvance = &PendingAdvance{Of: "turn_results", Next: next}

	return []EventPayload{
		PlayedPayload{Seat: a.OriginSeat, Pieces: pieces},
		TurnResolvedPayload{WinnerSeat: winner, Plays: append([]Play(nil), gs.TurnPlays...), PilesAwarded: piles},
	}, nil
}

// takeFromHand removes the pieces at indices from player's hand and returns
// them, without mutating the hand if any index is invalid or repeated.
func takeFromHand(player *Player, indices []int) ([]Piece, error) {
	if len(indices) == 0 {
		return nil, errInvariant("no pieces selected")
	}
	seen := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(player.Hand) {
			return nil, errInvariant("piece index out of range")
		}
		if _, dup := seen[idx]; dup {
			return nil, errInvariant("duplicate piece index")
		}
		seen[idx] = struct{}{}
	}

	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)

	taken := make([]Piece, len(sorted))
	for i, idx := range sorted {
		taken[i] = player.Hand[idx]
	}

	remaining := make([]Piece, 0, len(player.Hand)-len(sorted))
	cursor := 0
	for i, piece := range player.Hand {
		if cursor < len(sorted) && sorted[cursor] == i {
			cursor++
			continue
		}
		remaining = append(remaining, piece)
	}
	player.Hand = remaining

	return taken, nil
}

func (turnPhase) NextPhase(gs *GameState, deps *Deps) (Phase, bool) {
	return resolvePendingAdvance(gs, Turn)
}

func (turnPhase) OnExit(gs *GameState, deps *Deps) {
	gs.TurnPlays = nil
}
