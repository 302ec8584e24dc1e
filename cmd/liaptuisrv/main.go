// Command liaptuisrv hosts Liap Tui rooms in-process, grounded on the
// teacher's cmd/pokersrv/main.go (flag-based config, one long-lived process
// wiring a directory of tables/rooms). There is no network transport layer
// in this spec (spec §1: "HTTP/WebSocket transport framing" out of scope),
// so this binary demonstrates the engine end to end with four bot seats and
// logs every dispatched event until interrupted.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/decred/slog"

	"liaptui/pkg/engine"
	"liaptui/pkg/game"
	"liaptui/pkg/room"
	"liaptui/pkg/utils"
)

func main() {
	var (
		debugLevel   string
		winningScore int
		seed         int64
		turnSeconds  float64
		scoreSeconds float64
		dataDir      string
	)
	flag.StringVar(&debugLevel, "debuglevel", "info", "Logging level: trace, debug, info, warn, error")
	flag.IntVar(&winningScore, "winningscore", engine.DefaultConfig().WinningScoreThreshold, "Cumulative score that ends the game")
	flag.Int64Var(&seed, "seed", 0, "Ignored: each room's deck seed is derived from its room id")
	flag.Float64Var(&turnSeconds, "turnresultsdisplayseconds", engine.DefaultConfig().TurnResultsDisplaySeconds, "turn_results display pacing")
	flag.Float64Var(&scoreSeconds, "scoringdisplayseconds", engine.DefaultConfig().ScoringDisplaySeconds, "scoring_display pacing")
	flag.StringVar(&dataDir, "datadir", "", "Directory for server logs (empty disables file logging)")
	flag.Parse()

	var logWriter io.Writer = os.Stdout
	if dataDir != "" {
		if err := utils.EnsureDataDirExists(dataDir); err != nil {
			fmt.Fprintf(os.Stderr, "datadir: %v\n", err)
			os.Exit(1)
		}
		logFile, err := os.OpenFile(filepath.Join(dataDir, "logs", "liaptuisrv.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer logFile.Close()
		logWriter = io.MultiWriter(os.Stdout, logFile)
	}

	backend := slog.NewBackend(logWriter)
	log := backend.Logger("LIAPTUISRV")
	log.SetLevel(parseLevel(debugLevel))

	cfg := engine.DefaultConfig()
	cfg.WinningScoreThreshold = winningScore
	cfg.TurnResultsDisplaySeconds = turnSeconds
	cfg.ScoringDisplaySeconds = scoreSeconds
	_ = seed // per-room seed is derived from the room id, see pkg/room.New

	dir := room.NewDirectory(cfg, log)

	var players [game.SeatCount]*game.Player
	for seat := 0; seat < game.SeatCount; seat++ {
		players[seat] = &game.Player{
			PlayerID:    fmt.Sprintf("bot-%d", seat),
			DisplayName: fmt.Sprintf("Bot %d", seat),
			IsBot:       true,
			SeatIndex:   seat,
		}
	}

	r := dir.Create(players, 0)
	log.Infof("room %s started with %d bot seats", r.ID, game.SeatCount)

	logSub := &eventLogger{log: log}
	r.SM.Dispatcher.Subscribe(logSub)

	if err := r.SM.Queue.Enqueue(game.Action{Kind: game.ActionStartGame, OriginSeat: 0, Payload: game.StartGamePayload{}}); err != nil {
		log.Errorf("failed to start game: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Infof("shutting down")
	dir.Close(r.ID)
	time.Sleep(50 * time.Millisecond)
}

// eventLogger is a minimal engine.Subscriber that prints every event,
// standing in for the transport layer this spec places out of scope.
type eventLogger struct {
	log slog.Logger
}

func (l *eventLogger) Kinds() map[game.EventKind]struct{} { return nil }
func (l *eventLogger) Priority() int                      { return 50 }
func (l *eventLogger) Handle(ev game.Event) {
	if p, ok := ev.Payload.(game.PlayedPayload); ok {
		l.log.Infof("seq=%d phase=%s kind=%s seat=%d pieces=%s", ev.Sequence, ev.Phase, ev.Kind, p.Seat, utils.FormatHand(p.Pieces))
		return
	}
	if p, ok := ev.Payload.(game.ActionRejectedPayload); ok {
		l.log.Debugf("seq=%d phase=%s action_rejected: %s", ev.Sequence, ev.Phase, spew.Sdump(p))
		return
	}
	l.log.Infof("seq=%d phase=%s kind=%s", ev.Sequence, ev.Phase, ev.Kind)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "trace":
		return slog.LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
