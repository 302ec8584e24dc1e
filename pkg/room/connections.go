// Package room implements the membership layer spec §3 splits away from
// GameState: a Room owns host_seat, started, and the connection/broadcast
// bookkeeping spec §4.7 describes, wired around a pkg/engine.StateMachine.
package room

import (
	"sync"

	"liaptui/pkg/game"
	"liaptui/pkg/statemachine"
)

// Connection is a single client's outbound sink: a seated player, or an
// observer (spec §4.7: "bound to a room and a seat (or observer)"). Seat is
// -1 for an observer, which receives every broadcast but can never
// originate a mutating action.
type Connection struct {
	ID       string
	PlayerID string
	Seat     int

	out chan game.Event

	// lifecycle tracks active/grace/evicted membership state for logging,
	// driven explicitly by Broadcaster at its known transition points.
	lifecycle *statemachine.StateMachine[Connection]
}

// Send enqueues ev for delivery without blocking the caller; a connection
// that isn't draining its channel fast enough simply falls behind, the
// grace-window bookkeeping in Broadcaster is what eventually drops it.
func (c *Connection) Send(ev game.Event) {
	select {
	case c.out <- ev:
	default:
		// Outbound buffer full: drop rather than block the room goroutine.
		// A reconnecting client recovers via the replay ring buffer.
	}
}

// Events exposes the receive side for whatever transport owns this
// connection (pkg/client, a websocket handler, a test harness).
func (c *Connection) Events() <-chan game.Event {
	return c.out
}

// ConnectionRegistry maps connection ids to live Connections and tracks
// which seat each belongs to, grounded on the teacher's
// notificationStreams/gameStreams maps (pkg/server/server.go) collapsed
// into one mutex-guarded registry since this module has a single transport
// kind rather than separate lobby/game streams.
type ConnectionRegistry struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	bySeat      map[int]*Connection
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		connections: make(map[string]*Connection),
		bySeat:      make(map[int]*Connection),
	}
}

// Register admits a new connection with an outbound buffer sized so a
// temporarily slow client doesn't immediately start dropping events.
func (r *ConnectionRegistry) Register(id, playerID string, seat int) *Connection {
	conn := &Connection{ID: id, PlayerID: playerID, Seat: seat, out: make(chan game.Event, 64)}
	conn.lifecycle = statemachine.NewStateMachine(conn, connStateActive)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections[id] = conn
	if seat >= 0 {
		r.bySeat[seat] = conn
	}
	return conn
}

// Unregister removes a connection; called once its grace window elapses
// (pkg/room/broadcaster.go).
func (r *ConnectionRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.connections[id]
	if !ok {
		return
	}
	delete(r.connections, id)
	if conn.Seat >= 0 && r.bySeat[conn.Seat] == conn {
		delete(r.bySeat, conn.Seat)
	}
}

// connectionByID looks up a connection by its registry id, used by
// Broadcaster to resume a lifecycle tracker after cancelling an eviction.
func (r *ConnectionRegistry) connectionByID(id string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connections[id]
	return c, ok
}

// SeatConnection returns the connection currently bound to seat, if any.
func (r *ConnectionRegistry) SeatConnection(seat int) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.bySeat[seat]
	return c, ok
}

// All returns a snapshot slice of every registered connection (seated and
// observer), for broadcast.
func (r *ConnectionRegistry) All() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connection, 0, len(r.connections))
	for _, c := range r.connections {
		out = append(out, c)
	}
	return out
}

// Count reports how many connections are currently registered.
func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}
