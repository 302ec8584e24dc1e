package game

// declarationPhase implements spec §4.3.2. Each seat declares, in turn
// order starting at turn_starter_seat, how many piles it expects to
// capture this round. The fourth declarer may not pick the value that
// would make the four declarations sum to hand_size (spec §8 scenario 3).
type declarationPhase struct{}

func (declarationPhase) Name() Phase { return Declaration }

func (declarationPhase) AllowedActions(gs *GameState) map[ActionKind]struct{} {
	return map[ActionKind]struct{}{
		ActionDeclare: {},
		ActionLeave:   {},
	}
}

func (declarationPhase) OnEnter(gs *GameState, deps *Deps) []EventPayload {
	gs.DeclarationOrder = make([]int, SeatCount)
	for i := 0; i < SeatCount; i++ {
		gs.DeclarationOrder[i] = (gs.TurnStarterSeat + i) % SeatCount
	}
	gs.Declarations = map[int]int{}
	gs.CurrentPlayerSeat = gs.DeclarationOrder[0]
	return nil
}

func (declarationPhase) Handle(gs *GameState, a Action, deps *Deps) ([]EventPayload, *Rejection) {
	if a.Kind != ActionDeclare {
		return nil, &Rejection{Reason: ReasonWrongPhase, Detail: "action not valid in declaration"}
	}
	if a.OriginSeat != gs.CurrentPlayerSeat {
		return nil, &Rejection{Reason: ReasonNotYourTurn, Detail: "it is not this seat's turn to declare"}
	}
	p, ok := a.Payload.(DeclarePayload)
	if !ok || p.Value < 0 || p.Value > HandSize {
		return nil, &Rejection{Reason: ReasonDeclareOutOfRange, Detail: "declared value out of range"}
	}

	player := gs.Players[a.OriginSeat]
	if p.Value == 0 && player.ZeroStreak >= 2 {
		return nil, &Rejection{
			Reason: ReasonMustDeclareAtLeastOne,
			Detail: "seat declared zero in each of the last two rounds",
		}
	}

	if len(gs.Declarations) == SeatCount-1 {
		sum := 0
		for _, v := range gs.Declarations {
			sum += v
		}
		if sum+p.Value == HandSize {
			return nil, &Rejection{Reason: ReasonWouldSumToHandSize, Detail: "last declaration cannot sum to hand size"}
		}
	}

	gs.Declarations[a.OriginSeat] = p.Value
	player.DeclaredPiles = p.Value
	if p.Value == 0 {
		if player.ZeroStreak < 2 {
			player.ZeroStreak++
		}
	} else {
		player.ZeroStreak = 0
	}

	if len(gs.Declarations) < SeatCount {
		gs.CurrentPlayerSeat = SeatAfter(gs.CurrentPlayerSeat)
	}

	return []EventPayload{DeclaredPayload{Seat: a.OriginSeat, Value: p.Value}}, nil
}

func (declarationPhase) NextPhase(gs *GameState, deps *Deps) (Phase, bool) {
	if len(gs.Declarations) == SeatCount {
		gs.CurrentPlayerSeat = gs.TurnStarterSeat
		return Turn, true
	}
	return Declaration, false
}

func (declarationPhase) OnExit(gs *GameState, deps *Deps) {}
