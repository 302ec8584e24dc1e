package room

import (
	"sync"
	"time"

	"github.com/decred/slog"

	"liaptui/pkg/engine"
	"liaptui/pkg/game"
	"liaptui/pkg/statemachine"
)

// Broadcaster fans every dispatched event out to a room's connections,
// grounded on the teacher's broadcastNotificationToTable (pkg/server/
// notifications.go): walk the registered connections, best-effort send,
// never block the room goroutine on a slow client. It additionally keeps a
// ring buffer of the last N events for reconnection resync (spec §6:
// replay_last_n_events) and differentiates retention grace windows for
// seated-in-game versus lobby/observer connections (spec §4.7).
type Broadcaster struct {
	log  slog.Logger
	reg  *ConnectionRegistry
	cfg  engine.Config

	mu      sync.Mutex
	ring    []game.Event
	ringPos int

	pendingMu sync.Mutex
	pending   map[string]*time.Timer // connection id -> grace-window eviction timer
}

func NewBroadcaster(log slog.Logger, reg *ConnectionRegistry, cfg engine.Config) *Broadcaster {
	b := &Broadcaster{log: log, reg: reg, cfg: cfg, pending: make(map[string]*time.Timer)}
	if cfg.ReplayLastNEvents > 0 {
		b.ring = make([]game.Event, 0, cfg.ReplayLastNEvents)
	}
	return b
}

// Handle is the engine.Subscriber entrypoint a Room registers with
// pkg/engine.Dispatcher; it records ev into the replay ring and fans it out
// to every live connection.
func (b *Broadcaster) Handle(ev game.Event) {
	b.record(ev)
	for _, conn := range b.reg.All() {
		if ev.OriginSeat >= 0 && ev.Kind == game.EventActionRejected && conn.Seat != ev.OriginSeat {
			continue // ActionRejected is origin-private (spec §6)
		}
		conn.Send(ev)
	}
}

func (b *Broadcaster) Kinds() map[game.EventKind]struct{} { return nil }
func (b *Broadcaster) Priority() int                      { return 0 } // broadcast before bots react

func (b *Broadcaster) record(ev game.Event) {
	if cap(b.ring) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.ring) < cap(b.ring) {
		b.ring = append(b.ring, ev)
		return
	}
	b.ring[b.ringPos] = ev
	b.ringPos = (b.ringPos + 1) % cap(b.ring)
}

// Replay returns the buffered events in dispatch order, oldest first, for a
// freshly (re)connecting client (spec §6: "effect: reconnection resync
// depth").
func (b *Broadcaster) Replay() []game.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.ring) < cap(b.ring) {
		return append([]game.Event(nil), b.ring...)
	}
	out := make([]game.Event, 0, len(b.ring))
	out = append(out, b.ring[b.ringPos:]...)
	out = append(out, b.ring[:b.ringPos]...)
	return out
}

// ScheduleEviction arms the grace-window timer for a connection that just
// disconnected (as opposed to explicitly leaving): a seated connection gets
// BroadcastGraceGame, an observer/lobby connection gets the shorter
// BroadcastGraceLobby (spec §4.7: "grace window ... shorter for lobby/
// observer connections and longer for in-game seats"). If the client
// reconnects first, call CancelEviction with the same id.
func (b *Broadcaster) ScheduleEviction(conn *Connection, onEvict func()) {
	grace := b.cfg.BroadcastGraceLobby
	if conn.Seat >= 0 {
		grace = b.cfg.BroadcastGraceGame
	}
	b.transition(conn, connStateGrace)

	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	if t, ok := b.pending[conn.ID]; ok {
		t.Stop()
	}
	b.pending[conn.ID] = time.AfterFunc(grace, func() {
		b.pendingMu.Lock()
		delete(b.pending, conn.ID)
		b.pendingMu.Unlock()
		b.transition(conn, connStateEvicted)
		b.reg.Unregister(conn.ID)
		if onEvict != nil {
			onEvict()
		}
	})
}

// CancelEviction stops a pending grace-window timer, used when the client
// reconnects in time, and resumes conn's lifecycle to active.
func (b *Broadcaster) CancelEviction(connID string) {
	b.pendingMu.Lock()
	t, ok := b.pending[connID]
	if ok {
		t.Stop()
		delete(b.pending, connID)
	}
	b.pendingMu.Unlock()

	if ok {
		if conn, found := b.reg.connectionByID(connID); found {
			b.transition(conn, connStateActive)
		}
	}
}

// transition moves conn's lifecycle tracker to next and logs the entry,
// grounded on the teacher's pattern of driving pkg/statemachine one
// Dispatch at a time from whatever code already knows a transition occurred.
func (b *Broadcaster) transition(conn *Connection, next statemachine.StateFn[Connection]) {
	conn.lifecycle.SetState(next)
	conn.lifecycle.Dispatch(func(name string, event statemachine.StateEvent) {
		if event == statemachine.StateEntered {
			b.log.Debugf("connection %s -> %s", conn.ID, name)
		}
	})
}
