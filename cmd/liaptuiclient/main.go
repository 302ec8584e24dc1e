// Command liaptuiclient is the terminal client binary, grounded on the
// teacher's cmd/client/main.go + pkg/ui.ui.go's tea.NewProgram wiring. It
// joins a single human seat to an in-process room (the other three seats
// start bot-controlled), since spec §1 places network transport framing
// out of scope.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/decred/slog"
	"github.com/google/uuid"

	"liaptui/pkg/client"
	"liaptui/pkg/engine"
	"liaptui/pkg/game"
	"liaptui/pkg/room"
	"liaptui/pkg/ui"
)

func main() {
	var (
		displayName string
		seat        int
	)
	flag.StringVar(&displayName, "name", "Player", "Display name for the human seat")
	flag.IntVar(&seat, "seat", 0, "Seat index to join as (0-3)")
	flag.Parse()

	if seat < 0 || seat >= game.SeatCount {
		fmt.Fprintf(os.Stderr, "seat must be in [0,%d)\n", game.SeatCount)
		os.Exit(1)
	}

	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("LIAPTUICLIENT")
	log.SetLevel(slog.LevelWarn)

	cfg := engine.DefaultConfig()
	dir := room.NewDirectory(cfg, log)

	var players [game.SeatCount]*game.Player
	for s := 0; s < game.SeatCount; s++ {
		isBot := s != seat
		name := fmt.Sprintf("Bot %d", s)
		if !isBot {
			name = displayName
		}
		players[s] = &game.Player{
			PlayerID:    fmt.Sprintf("seat-%d", s),
			DisplayName: name,
			IsBot:       isBot,
			SeatIndex:   s,
		}
	}

	r := dir.Create(players, seat)
	c := client.Join(r, uuid.NewString(), players[seat].PlayerID, seat, log)
	defer c.Close()

	if err := c.StartGame(); err != nil {
		fmt.Fprintf(os.Stderr, "start_game: %v\n", err)
	}

	model := ui.New(c)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "ui error: %v\n", err)
	}

	_ = c.Leave()
	dir.Close(r.ID)
}
