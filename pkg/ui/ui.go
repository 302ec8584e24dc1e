// Package ui is the bubbletea/lipgloss terminal client, grounded on the
// teacher's pkg/ui (PokerUI model/Update/View shape), adapted from poker
// table/card rendering to Liap Tui's hand/declaration/turn/scoring screens.
package ui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"liaptui/pkg/client"
	"liaptui/pkg/game"
)

// screenState mirrors the teacher's screenState enum, collapsed to the
// phases this game actually has plus a startup lobby screen.
type screenState int

const (
	stateLobby screenState = iota
	stateRedealOffer
	stateDeclaration
	stateTurn
	stateTurnResults
	stateScoring
	stateGameEnd
)

// Model is the bubbletea root model, grounded on the teacher's PokerUI
// struct: client handle, current screen, last-seen server state, a
// temporary status message, and small per-screen input buffers.
type Model struct {
	c   *client.Client
	err error

	state screenState
	gs    *game.GameState

	message string

	declareInput string
	selectedIdx  map[int]struct{} // piece indices currently selected for play

	lastTurnResolved  *game.TurnResolvedPayload
	lastScoringResult *game.ScoringAppliedPayload
	lastGameEnd       *game.GameEndedPayload
}

// New builds the initial model for an already-joined client.
func New(c *client.Client) Model {
	return Model{
		c:           c,
		state:       stateLobby,
		gs:          c.Snapshot(),
		selectedIdx: map[int]struct{}{},
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForUpdate()
}

// waitForUpdate blocks on the client's UpdatesCh so bubbletea's runloop
// only wakes up when the room actually has something new to show, mirroring
// the teacher's channel-draining Cmd idiom.
func (m Model) waitForUpdate() tea.Cmd {
	ch := m.c.UpdatesCh
	return func() tea.Msg {
		return <-ch
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case client.EventMsg:
		m.applyEvent(game.Event(msg))
		return m, m.waitForUpdate()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) applyEvent(ev game.Event) {
	m.gs = m.c.Snapshot()
	m.err = nil

	switch p := ev.Payload.(type) {
	case game.ActionRejectedPayload:
		m.message = fmt.Sprintf("rejected: %s (%s)", p.Reason, p.Detail)
	case game.PhaseChangedPayload:
		m.selectedIdx = map[int]struct{}{}
		switch p.To {
		case game.Preparation:
			if m.gs.CurrentWeakOffer >= 0 {
				m.state = stateRedealOffer
			} else {
				m.state = stateDeclaration
			}
		case game.Declaration:
			m.state = stateDeclaration
		case game.Turn:
			m.state = stateTurn
		case game.GameEnd:
			m.state = stateGameEnd
		}
	case game.RedealOfferedPayload:
		m.state = stateRedealOffer
	case game.TurnResolvedPayload:
		m.lastTurnResolved = &p
		m.state = stateTurnResults
	case game.ScoringAppliedPayload:
		m.lastScoringResult = &p
		m.state = stateScoring
	case game.GameEndedPayload:
		m.lastGameEnd = &p
		m.state = stateGameEnd
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		_ = m.c.Leave()
		return m, tea.Quit
	}

	switch m.state {
	case stateLobby:
		return m.handleLobbyKey(msg)
	case stateRedealOffer:
		return m.handleRedealKey(msg)
	case stateDeclaration:
		return m.handleDeclarationKey(msg)
	case stateTurn:
		return m.handleTurnKey(msg)
	case stateTurnResults, stateScoring:
		return m.handleDisplayKey(msg)
	}
	return m, nil
}

func (m Model) handleLobbyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "s" {
		if err := m.c.StartGame(); err != nil {
			m.err = err
		}
	}
	return m, nil
}

func (m Model) handleRedealKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.gs.CurrentWeakOffer != m.c.Seat {
		return m, nil
	}
	switch msg.String() {
	case "y":
		m.err = m.c.AcceptRedeal()
	case "n":
		m.err = m.c.DeclineRedeal()
	}
	return m, nil
}

func (m Model) handleDeclarationKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "backspace":
		if len(m.declareInput) > 0 {
			m.declareInput = m.declareInput[:len(m.declareInput)-1]
		}
	case "enter":
		v, err := strconv.Atoi(m.declareInput)
		if err != nil {
			m.message = "enter a number first"
			return m, nil
		}
		m.declareInput = ""
		m.err = m.c.Declare(v)
	default:
		if len(msg.String()) == 1 && msg.String()[0] >= '0' && msg.String()[0] <= '9' {
			m.declareInput += msg.String()
		}
	}
	return m, nil
}

func (m Model) handleTurnKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		indices := make([]int, 0, len(m.selectedIdx))
		for idx := range m.selectedIdx {
			indices = append(indices, idx)
		}
		m.err = m.c.PlayPieces(indices)
		m.selectedIdx = map[int]struct{}{}
	default:
		if n, err := strconv.Atoi(msg.String()); err == nil {
			if _, ok := m.selectedIdx[n]; ok {
				delete(m.selectedIdx, n)
			} else {
				m.selectedIdx[n] = struct{}{}
			}
		}
	}
	return m, nil
}

func (m Model) handleDisplayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == " " || msg.String() == "enter" {
		of := "turn_results"
		if m.state == stateScoring {
			of = "scoring_display"
		}
		m.err = m.c.AdvanceDisplay(of)
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Liap Tui"))
	b.WriteString("\n\n")

	switch m.state {
	case stateLobby:
		b.WriteString(m.renderLobby())
	case stateRedealOffer:
		b.WriteString(m.renderRedealOffer())
	case stateDeclaration:
		b.WriteString(m.renderDeclaration())
	case stateTurn:
		b.WriteString(m.renderTurn())
	case stateTurnResults:
		b.WriteString(m.renderTurnResults())
	case stateScoring:
		b.WriteString(m.renderScoring())
	case stateGameEnd:
		b.WriteString(m.renderGameEnd())
	}

	if m.message != "" {
		b.WriteString("\n" + gameInfoStyle.Render(m.message))
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()))
	}
	b.WriteString("\n" + helpStyle.Render("ctrl+c to leave"))
	return b.String()
}
