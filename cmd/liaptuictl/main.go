// Command liaptuictl is a scriptable local driver for exercising a room
// without a UI, analogous to the teacher's cmd/pokerctl "autoplay-one-hand"
// subcommand: it seats four players created as bots, so every seat is driven
// by the engine's own GreedyStrategy (the same logic a live bot seat uses),
// and prints each event as a JSON line until the
// round reaches scoring, then exits.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/decred/slog"

	"liaptui/pkg/engine"
	"liaptui/pkg/game"
	"liaptui/pkg/room"
)

type eventLine struct {
	Sequence int64          `json:"sequence"`
	Phase    string         `json:"phase"`
	Kind     string         `json:"kind"`
	Payload  game.EventPayload `json:"payload"`
}

func main() {
	var debugLevel string
	flag.StringVar(&debugLevel, "debuglevel", "warn", "Logging level: trace, debug, info, warn, error")
	flag.Parse()

	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("LIAPTUICTL")
	switch debugLevel {
	case "trace":
		log.SetLevel(slog.LevelTrace)
	case "debug":
		log.SetLevel(slog.LevelDebug)
	case "info":
		log.SetLevel(slog.LevelInfo)
	case "error":
		log.SetLevel(slog.LevelError)
	default:
		log.SetLevel(slog.LevelWarn)
	}

	cfg := engine.DefaultConfig()
	dir := room.NewDirectory(cfg, log)

	var players [game.SeatCount]*game.Player
	for seat := 0; seat < game.SeatCount; seat++ {
		players[seat] = &game.Player{
			PlayerID:    fmt.Sprintf("seat-%d", seat),
			DisplayName: fmt.Sprintf("Seat %d", seat),
			IsBot:       true,
			SeatIndex:   seat,
		}
	}
	r := dir.Create(players, 0)

	done := make(chan struct{})
	enc := json.NewEncoder(os.Stdout)
	r.SM.Dispatcher.Subscribe(&jsonPrinter{enc: enc, done: done})

	if err := r.SM.Queue.Enqueue(game.Action{Kind: game.ActionStartGame, OriginSeat: 0, Payload: game.StartGamePayload{}}); err != nil {
		fmt.Fprintf(os.Stderr, "start_game: %v\n", err)
		os.Exit(1)
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		fmt.Fprintln(os.Stderr, "timed out waiting for scoring_applied")
	}

	dir.Close(r.ID)
}

// jsonPrinter prints every event as a JSON line and closes done once a
// round has been fully scored, giving the process a natural exit point.
type jsonPrinter struct {
	enc  *json.Encoder
	done chan struct{}
}

func (p *jsonPrinter) Kinds() map[game.EventKind]struct{} { return nil }
func (p *jsonPrinter) Priority() int                      { return 50 }
func (p *jsonPrinter) Handle(ev game.Event) {
	_ = p.enc.Encode(eventLine{Sequence: ev.Sequence, Phase: ev.Phase.String(), Kind: string(ev.Kind), Payload: ev.Payload})
	if ev.Kind == game.EventScoringApplied {
		select {
		case <-p.done:
		default:
			close(p.done)
		}
	}
}
