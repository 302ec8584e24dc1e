// Package client provides the in-process Transport implementation and thin
// SDK spec §1 carves out as an external collaborator ("HTTP/WebSocket
// transport framing ... out of scope", spec §6: Transport.send/on_action).
// Since this module has no network layer, Client talks directly to a
// pkg/room.Room's ActionQueue and Connection, grounded on the teacher's
// PokerClient (pkg/client/client.go): one struct per connected player,
// holding an UpdatesCh of tea.Msg for a bubbletea UI plus an ErrorsCh, fed
// by a single pump goroutine.
package client

import (
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/decred/slog"

	"liaptui/pkg/game"
	"liaptui/pkg/room"
)

// EventMsg wraps a dispatched game.Event for bubbletea's Update loop,
// mirroring the teacher's GameUpdateMsg wrapper-type idiom.
type EventMsg game.Event

// Client is a single player's (or observer's) handle onto a Room, grounded
// on the teacher's PokerClient shape (ID, UpdatesCh, ErrorsCh, a
// reconnect-capable mutex-guarded struct).
type Client struct {
	mu sync.RWMutex

	PlayerID string
	Seat     int // -1 for an observer

	room *room.Room
	conn *room.Connection
	log  slog.Logger

	UpdatesCh chan tea.Msg
	ErrorsCh  chan error

	stopPump chan struct{}
}

// Join connects playerID to r at seat (-1 for observer), starting the pump
// goroutine that forwards r's events onto UpdatesCh.
func Join(r *room.Room, connID, playerID string, seat int, log slog.Logger) *Client {
	c := &Client{
		PlayerID:  playerID,
		Seat:      seat,
		room:      r,
		log:       log,
		UpdatesCh: make(chan tea.Msg, 64),
		ErrorsCh:  make(chan error, 8),
		stopPump:  make(chan struct{}),
	}
	c.conn = r.Join(connID, playerID, seat)
	go c.pump()
	return c
}

func (c *Client) pump() {
	for {
		select {
		case <-c.stopPump:
			return
		case ev, ok := <-c.conn.Events():
			if !ok {
				return
			}
			c.UpdatesCh <- EventMsg(ev)
		}
	}
}

// Disconnect starts the room's grace-window eviction for this connection
// without stopping the pump (a reconnect within the window reuses the same
// connection id and resumes delivery); Close additionally stops the pump.
func (c *Client) Disconnect() {
	c.room.Disconnect(c.conn)
}

// Close stops the pump goroutine; call once the UI is tearing down for
// good, after Disconnect (or Leave) has already been sent.
func (c *Client) Close() {
	close(c.stopPump)
}

func (c *Client) enqueue(a game.Action) error {
	a.OriginSeat = c.Seat
	if err := c.room.SM.Queue.Enqueue(a); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	return nil
}

// StartGame sends start_game (host only; rejected otherwise via
// ActionRejected on UpdatesCh).
func (c *Client) StartGame() error {
	return c.enqueue(game.Action{Kind: game.ActionStartGame, Payload: game.StartGamePayload{}})
}

// Declare sends a declare action for the current round.
func (c *Client) Declare(value int) error {
	return c.enqueue(game.Action{Kind: game.ActionDeclare, Payload: game.DeclarePayload{Value: value}})
}

// PlayPieces sends a play_pieces action naming hand indices.
func (c *Client) PlayPieces(indices []int) error {
	return c.enqueue(game.Action{Kind: game.ActionPlayPieces, Payload: game.PlayPiecesPayload{PieceIndices: indices}})
}

// RequestRedeal, AcceptRedeal, DeclineRedeal respond to a weak-hand offer.
func (c *Client) RequestRedeal() error {
	return c.enqueue(game.Action{Kind: game.ActionRequestRedeal, Payload: game.RequestRedealPayload{}})
}

func (c *Client) AcceptRedeal() error {
	return c.enqueue(game.Action{Kind: game.ActionAcceptRedeal, Payload: game.AcceptRedealPayload{}})
}

func (c *Client) DeclineRedeal() error {
	return c.enqueue(game.Action{Kind: game.ActionDeclineRedeal, Payload: game.DeclineRedealPayload{}})
}

// AdvanceDisplay requests the parked transition behind a turn_results or
// scoring_display pacing screen be honored early.
func (c *Client) AdvanceDisplay(of string) error {
	return c.enqueue(game.Action{Kind: game.ActionAdvanceDisplay, Payload: game.AdvanceDisplayPayload{Of: of}})
}

// HostReplaceSeat asks the engine to flip seat to bot control (host only).
func (c *Client) HostReplaceSeat(seat int) error {
	return c.enqueue(game.Action{Kind: game.ActionHostReplaceSeat, Payload: game.HostReplaceSeatPayload{Seat: seat}})
}

// Leave sends an explicit leave for this client's own seat.
func (c *Client) Leave() error {
	return c.enqueue(game.Action{Kind: game.ActionLeave, Payload: game.LeavePayload{}})
}

// Snapshot returns a deep copy of the room's current GameState, safe to
// render from the UI goroutine.
func (c *Client) Snapshot() *game.GameState {
	return c.room.SM.Snapshot()
}
