package engine

import "liaptui/pkg/game"

// attachDisplay implements spec §4.5: only TurnResolved and ScoringApplied
// ever carry auto_advance=true metadata. next_phase is read off the
// GameState's just-set PendingAdvance, which Turn/Scoring already computed
// before returning the payload (spec §4.5: "the next phase's logic is
// already computed and ready").
func attachDisplay(ev *game.Event, gs *game.GameState, cfg Config) {
	var d game.DisplayMetadata
	switch ev.Payload.(type) {
	case game.TurnResolvedPayload:
		d = game.DisplayMetadata{
			Type:           "turn_results",
			ShowForSeconds: cfg.TurnResultsDisplaySeconds,
			AutoAdvance:    true,
			CanSkip:        true,
		}
	case game.ScoringAppliedPayload:
		d = game.DisplayMetadata{
			Type:           "scoring_display",
			ShowForSeconds: cfg.ScoringDisplaySeconds,
			AutoAdvance:    true,
			CanSkip:        true,
		}
	default:
		return
	}
	if gs.PendingAdvance != nil {
		d.NextPhase = gs.PendingAdvance.Next
	}
	ev.Display = &d
}
