package room

import (
	"sync"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"liaptui/pkg/engine"
	"liaptui/pkg/game"
	"liaptui/pkg/rules"
)

// Room owns the membership-level state spec §3 separates from GameState
// (host_seat, started) plus the connection/broadcast machinery spec §4.7
// describes, around one pkg/engine.StateMachine. It implements
// engine.RoomHooks so the StateMachine can enforce host-only actions
// without importing this package.
type Room struct {
	ID  string
	log slog.Logger

	SM    *engine.StateMachine
	Conns *ConnectionRegistry
	Cast  *Broadcaster

	mu       sync.Mutex
	hostSeat int
	closed   bool
	onClose  func(id string)
}

// New builds a Room around four already-assigned seats (bot or human),
// grounded on the teacher's NewServer/CreateTable wiring
// (pkg/server/server.go): one StateMachine per room, nothing shared.
func New(id string, players [game.SeatCount]*game.Player, hostSeat int, cfg engine.Config, log slog.Logger) *Room {
	r := &Room{
		ID:       id,
		log:      log,
		Conns:    NewConnectionRegistry(),
		hostSeat: hostSeat,
	}
	r.Cast = NewBroadcaster(log, r.Conns, cfg)

	deps := engine.NewDeps(cfg, rules.Default{}, rules.Default{}, rules.NewMathRandom(int64(hashSeed(id))))
	r.SM = engine.NewStateMachine(id, players, hostSeat, deps, cfg, r, log)
	r.SM.Dispatcher.Subscribe(r.Cast)
	return r
}

// hashSeed derives a deterministic-per-room but distinct shuffle seed from
// the room id, so two rooms created back to back don't share a
// time-of-day-based RNG stream.
func hashSeed(id string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(id); i++ {
		h ^= uint32(id[i])
		h *= 16777619
	}
	return h
}

// Start launches the room's goroutine (pkg/engine.StateMachine.Start).
func (r *Room) Start() { r.SM.Start() }

// HostSeat returns the seat currently holding host privileges.
func (r *Room) HostSeat() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostSeat
}

// BeforeStart implements engine.RoomHooks: only the host may start the game.
func (r *Room) BeforeStart(a game.Action) *game.Rejection {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.OriginSeat != r.hostSeat {
		return &game.Rejection{Reason: game.ReasonNotHost, Detail: "only the host may start the game"}
	}
	return nil
}

// BeforeHostReplaceSeat implements engine.RoomHooks: only the host may
// bot-replace another seat.
func (r *Room) BeforeHostReplaceSeat(a game.Action) *game.Rejection {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.OriginSeat != r.hostSeat {
		return &game.Rejection{Reason: game.ReasonNotHost, Detail: "only the host may replace a seat"}
	}
	return nil
}

// AfterLeave implements engine.RoomHooks: host-seat-transfer-on-leave
// (SPEC_FULL.md §4, grounded on the teacher's transferTableHost/LeaveTable,
// pkg/server/server.go). If the departing seat was host, host rotates to
// the next seat with a live connection; if none remain, the room is marked
// closeable and onClose (set by Directory) is invoked.
func (r *Room) AfterLeave(seat int) {
	r.mu.Lock()
	if seat != r.hostSeat {
		r.mu.Unlock()
		return
	}

	for i := 1; i <= game.SeatCount; i++ {
		candidate := (seat + i) % game.SeatCount
		if candidate == seat {
			break
		}
		if _, connected := r.Conns.SeatConnection(candidate); connected {
			r.hostSeat = candidate
			newHost := candidate
			r.mu.Unlock()
			r.SM.EmitRoomEvent(game.HostChangedPayload{NewHostSeat: newHost}, -1)
			return
		}
	}

	r.closed = true
	onClose := r.onClose
	r.mu.Unlock()
	r.SM.EmitRoomEvent(game.RoomClosedPayload{Reason: "no connected seats remain"}, -1)
	if onClose != nil {
		onClose(r.ID)
	}
}

// setOnClose wires the callback Directory uses to drop a closed room from
// its registry; called once, at creation, by Directory.Create.
func (r *Room) setOnClose(f func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onClose = f
}

// Closed reports whether AfterLeave already marked this room closeable.
func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Join registers a new connection bound to seat (or -1 for an observer).
// connID is caller-generated so a reconnecting client can reuse its
// previous id: if that id is still registered (its grace-window eviction
// timer hasn't fired yet, spec §4.7), Join cancels the eviction and hands
// back the *same* Connection rather than building a new one, so whatever
// the room kept broadcasting into its channel while it was disconnected is
// still there to drain in order. Only a genuinely new connection id falls
// through to registration and the optional ring-buffer replay (spec §6
// replay_last_n_events) — a different, coarser mechanism than per-connection
// retention, and not a substitute for it.
func (r *Room) Join(connID, playerID string, seat int) *Connection {
	if connID == "" {
		connID = uuid.NewString()
	}
	r.Cast.CancelEviction(connID)

	if conn, ok := r.Conns.connectionByID(connID); ok {
		return conn
	}

	conn := r.Conns.Register(connID, playerID, seat)
	for _, ev := range r.Cast.Replay() {
		conn.Send(ev)
	}
	if seat >= 0 {
		displayName := ""
		if gs := r.SM.Snapshot(); gs.Players[seat] != nil {
			displayName = gs.Players[seat].DisplayName
		}
		r.SM.EmitRoomEvent(game.PlayerJoinedPayload{Seat: seat, PlayerID: playerID, DisplayName: displayName}, -1)
	}
	return conn
}

// Disconnect starts the grace-window countdown for conn rather than
// removing it immediately, so a brief network blip doesn't cost a seated
// player their spot (spec §4.7).
func (r *Room) Disconnect(conn *Connection) {
	r.Cast.ScheduleEviction(conn, func() {
		if conn.Seat >= 0 {
			_ = r.SM.Queue.Enqueue(game.Action{Kind: game.ActionLeave, OriginSeat: conn.Seat, Payload: game.LeavePayload{}})
		}
	})
}

// Stop tears the room down (spec §5: "Room shutdown cancels all pending bot
// tasks, drains the queue with rejections, and closes all connections").
func (r *Room) Stop() {
	r.SM.Stop()
	for _, c := range r.Conns.All() {
		r.Conns.Unregister(c.ID)
	}
}
