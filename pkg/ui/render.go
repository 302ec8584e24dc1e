package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"liaptui/pkg/game"
)

// formatPiece renders a single piece in a bordered box, red pieces getting
// the red foreground (mirrors the teacher's formatCard/getSuitSymbol split
// by card color).
func formatPiece(p game.Piece) string {
	style := pieceStyle
	if p.Color == game.Red {
		style = redPieceStyle
	}
	return style.Render(fmt.Sprintf("%s\n%d", p.Kind, p.PointValue))
}

func renderHand(hand []game.Piece) string {
	boxes := make([]string, len(hand))
	for i, p := range hand {
		boxes[i] = lipgloss.JoinVertical(lipgloss.Center, fmt.Sprintf("[%d]", i), formatPiece(p))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func seatLabel(gs *game.GameState, seat int) string {
	p := gs.Players[seat]
	if p == nil {
		return fmt.Sprintf("seat %d: empty", seat)
	}
	tag := ""
	if p.IsBot {
		tag = " (bot)"
	}
	return fmt.Sprintf("%s%s — declared %d, captured %d, score %d", p.DisplayName, tag, p.DeclaredPiles, p.CapturedPiles, p.CumulativeScore)
}

func renderSeats(gs *game.GameState, highlight, own int) string {
	rows := make([]string, game.SeatCount)
	for seat := 0; seat < game.SeatCount; seat++ {
		style := seatBoxStyle
		switch seat {
		case own:
			style = ownSeatStyle
		case highlight:
			style = currentSeatStyle
		}
		rows[seat] = style.Render(seatLabel(gs, seat))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rows...)
}

func (m Model) renderLobby() string {
	var b strings.Builder
	b.WriteString(renderSeats(m.gs, -1, m.c.Seat))
	b.WriteString("\n\n")
	if m.c.Seat == 0 {
		b.WriteString(helpStyle.Render("press s to start the game once all seats are filled"))
	} else {
		b.WriteString(helpStyle.Render("waiting for the host to start the game"))
	}
	return b.String()
}

func (m Model) renderRedealOffer() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("round %d — redeal multiplier x%d\n\n", m.gs.RoundNumber, m.gs.RedealMult))
	if own := m.gs.Players[m.c.Seat]; own != nil {
		b.WriteString(renderHand(own.Hand))
		b.WriteString("\n\n")
	}
	if m.gs.CurrentWeakOffer == m.c.Seat {
		b.WriteString(gameInfoStyle.Render("your hand is weak — accept a redeal? (y/n)"))
	} else {
		b.WriteString(helpStyle.Render(fmt.Sprintf("waiting on seat %d's redeal decision", m.gs.CurrentWeakOffer)))
	}
	return b.String()
}

func (m Model) renderDeclaration() string {
	var b strings.Builder
	b.WriteString(renderSeats(m.gs, m.gs.CurrentPlayerSeat, m.c.Seat))
	b.WriteString("\n\n")
	if own := m.gs.Players[m.c.Seat]; own != nil {
		b.WriteString(renderHand(own.Hand))
		b.WriteString("\n\n")
	}
	if m.gs.CurrentPlayerSeat == m.c.Seat {
		b.WriteString(fmt.Sprintf("how many piles will you take? %s_", m.declareInput))
	} else {
		b.WriteString(helpStyle.Render(fmt.Sprintf("waiting on seat %d to declare", m.gs.CurrentPlayerSeat)))
	}
	return b.String()
}

func (m Model) renderTurn() string {
	var b strings.Builder
	b.WriteString(renderSeats(m.gs, m.gs.CurrentPlayerSeat, m.c.Seat))
	b.WriteString(fmt.Sprintf("\nturn %d", m.gs.TurnNumber))
	if m.gs.RequiredCount > 0 {
		b.WriteString(fmt.Sprintf(", %d piece(s) required", m.gs.RequiredCount))
	}
	b.WriteString("\n\n")

	if len(m.gs.TurnPlays) > 0 {
		b.WriteString("plays so far:\n")
		for _, pl := range m.gs.TurnPlays {
			b.WriteString(fmt.Sprintf("  seat %d: %s\n", pl.Seat, renderHand(pl.Pieces)))
		}
		b.WriteString("\n")
	}

	if own := m.gs.Players[m.c.Seat]; own != nil {
		b.WriteString("your hand:\n")
		b.WriteString(renderHand(own.Hand))
		b.WriteString("\n\n")
	}

	if m.gs.CurrentPlayerSeat == m.c.Seat {
		selected := make([]int, 0, len(m.selectedIdx))
		for idx := range m.selectedIdx {
			selected = append(selected, idx)
		}
		b.WriteString(fmt.Sprintf("press a piece index to toggle selection, enter to play %v", selected))
	} else {
		b.WriteString(helpStyle.Render(fmt.Sprintf("waiting on seat %d to play", m.gs.CurrentPlayerSeat)))
	}
	return b.String()
}

func (m Model) renderTurnResults() string {
	var b strings.Builder
	if r := m.lastTurnResolved; r != nil {
		b.WriteString(fmt.Sprintf("seat %d wins the turn and captures %d pile(s)\n", r.WinnerSeat, r.PilesAwarded))
		for _, pl := range r.Plays {
			b.WriteString(fmt.Sprintf("  seat %d: %s\n", pl.Seat, renderHand(pl.Pieces)))
		}
	}
	b.WriteString("\n" + helpStyle.Render("press space/enter to continue"))
	return b.String()
}

func (m Model) renderScoring() string {
	var b strings.Builder
	if r := m.lastScoringResult; r != nil {
		b.WriteString(fmt.Sprintf("round %d results\n\n", m.gs.RoundNumber))
		for seat := 0; seat < game.SeatCount; seat++ {
			b.WriteString(fmt.Sprintf("  seat %d: %+d -> %d total\n", seat, r.Deltas[seat], r.Scores[seat]))
		}
	}
	b.WriteString("\n" + helpStyle.Render("press space/enter to continue"))
	return b.String()
}

func (m Model) renderGameEnd() string {
	var b strings.Builder
	if r := m.lastGameEnd; r != nil {
		b.WriteString(fmt.Sprintf("game over — seat %d wins!\n\n", r.WinnerSeat))
		for seat := 0; seat < game.SeatCount; seat++ {
			b.WriteString(fmt.Sprintf("  seat %d: %d\n", seat, r.FinalScores[seat]))
		}
	} else {
		b.WriteString("game over\n")
	}
	return b.String()
}
