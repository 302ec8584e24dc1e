package engine

import (
	"time"

	"liaptui/pkg/game"
)

// Config holds the nine configuration values spec §6 enumerates. Every
// room is constructed with one; there is no global/package-level config.
type Config struct {
	// WinningScoreThreshold gates the Scoring -> GameEnd transition.
	WinningScoreThreshold int

	// BotDecisionDelayMin/Max bound the randomized humanization delay before
	// a scheduled bot decision fires (spec §4.6 step 1).
	BotDecisionDelayMin time.Duration
	BotDecisionDelayMax time.Duration

	// TurnResultsDisplaySeconds / ScoringDisplaySeconds become
	// show_for_seconds on TurnResolved / ScoringApplied (spec §4.5).
	TurnResultsDisplaySeconds float64
	ScoringDisplaySeconds     float64

	// BroadcastGraceGame / BroadcastGraceLobby are the per-connection
	// retention windows after disconnect (spec §4.7: "shorter for
	// lobby/observer connections and longer for in-game seats").
	BroadcastGraceGame  time.Duration
	BroadcastGraceLobby time.Duration

	// ActionQueueSoftCap is the backpressure threshold (spec §4.1).
	ActionQueueSoftCap int

	// DisplayServerSafetyMultiplier scales show_for_seconds into the
	// server-side auto-advance deadline (spec §5: "~2x show_for_seconds").
	DisplayServerSafetyMultiplier float64

	// ReplayLastNEvents is how many events a fresh connection is replayed
	// on open for resync (spec §4.7; 0 disables replay).
	ReplayLastNEvents int
}

// DefaultConfig mirrors the values named as examples throughout spec §4-§6.
func DefaultConfig() Config {
	return Config{
		WinningScoreThreshold:         50,
		BotDecisionDelayMin:           400 * time.Millisecond,
		BotDecisionDelayMax:           1500 * time.Millisecond,
		TurnResultsDisplaySeconds:     2.5,
		ScoringDisplaySeconds:         4,
		BroadcastGraceGame:            30 * time.Second,
		BroadcastGraceLobby:           5 * time.Second,
		ActionQueueSoftCap:            256,
		DisplayServerSafetyMultiplier: 2,
		ReplayLastNEvents:             0,
	}
}

// TurnResultsSafetyDeadline is the server-side auto-advance deadline for a
// parked turn_results display (spec §5).
func (c Config) TurnResultsSafetyDeadline() time.Duration {
	return durationFromSeconds(c.TurnResultsDisplaySeconds * c.DisplayServerSafetyMultiplier)
}

// ScoringSafetyDeadline is the equivalent deadline for scoring_display.
func (c Config) ScoringSafetyDeadline() time.Duration {
	return durationFromSeconds(c.ScoringDisplaySeconds * c.DisplayServerSafetyMultiplier)
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// NewDeps bundles the pure collaborators into the game.Deps a StateMachine
// needs, pulling WinningScore off Config so callers only state it once.
func NewDeps(cfg Config, rules game.Rules, scoring game.Scorer, random game.RandomSource) *game.Deps {
	return &game.Deps{
		Rules:        rules,
		Scoring:      scoring,
		Random:       random,
		WinningScore: cfg.WinningScoreThreshold,
	}
}
