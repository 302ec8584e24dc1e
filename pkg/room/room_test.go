package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"liaptui/pkg/engine"
	"liaptui/pkg/game"
)

type roomCollector struct {
	ch chan game.Event
}

func newRoomCollector() *roomCollector {
	return &roomCollector{ch: make(chan game.Event, 256)}
}

func (c *roomCollector) Kinds() map[game.EventKind]struct{} { return nil }
func (c *roomCollector) Priority() int                      { return 1 }
func (c *roomCollector) Handle(ev game.Event)               { c.ch <- ev }

func waitForKind(t *testing.T, ch <-chan game.Event, kind game.EventKind) game.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event kind %s", kind)
		}
	}
}

func TestRoomOnlyHostMayStartGame(t *testing.T) {
	r := New("room-1", newTestPlayers(), 0, testConfig(), createTestLogger())
	collector := newRoomCollector()
	r.SM.Dispatcher.Subscribe(collector)
	r.Start()
	defer r.Stop()

	require.NoError(t, r.SM.Queue.Enqueue(game.Action{Kind: game.ActionStartGame, OriginSeat: 1}))
	rejected := waitForKind(t, collector.ch, game.EventActionRejected)
	payload := rejected.Payload.(game.ActionRejectedPayload)
	require.Equal(t, game.ReasonNotHost, payload.Reason)

	require.NoError(t, r.SM.Queue.Enqueue(game.Action{Kind: game.ActionStartGame, OriginSeat: 0}))
	waitForKind(t, collector.ch, game.EventPhaseChanged)
}

func TestRoomOnlyHostMayReplaceASeat(t *testing.T) {
	r := New("room-2", newTestPlayers(), 0, testConfig(), createTestLogger())
	collector := newRoomCollector()
	r.SM.Dispatcher.Subscribe(collector)
	r.Start()
	defer r.Stop()

	require.NoError(t, r.SM.Queue.Enqueue(game.Action{
		Kind:       game.ActionHostReplaceSeat,
		OriginSeat: 2,
		Payload:    game.HostReplaceSeatPayload{Seat: 1},
	}))
	rejected := waitForKind(t, collector.ch, game.EventActionRejected)
	payload := rejected.Payload.(game.ActionRejectedPayload)
	require.Equal(t, game.ReasonNotHost, payload.Reason)
}

func TestRoomHostTransfersToNextConnectedSeatOnLeave(t *testing.T) {
	r := New("room-3", newTestPlayers(), 0, testConfig(), createTestLogger())
	collector := newRoomCollector()
	r.SM.Dispatcher.Subscribe(collector)
	r.Start()
	defer r.Stop()

	// Seat 2 has a live connection; seat 1 does not. Host (seat 0) leaving
	// should skip seat 1 and transfer to seat 2.
	r.Join("conn-2", "player-2", 2)

	require.NoError(t, r.SM.Queue.Enqueue(game.Action{Kind: game.ActionLeave, OriginSeat: 0}))

	hostChanged := waitForKind(t, collector.ch, game.EventHostChanged)
	payload := hostChanged.Payload.(game.HostChangedPayload)
	require.Equal(t, 2, payload.NewHostSeat)
	require.Equal(t, 2, r.HostSeat())
	require.False(t, r.Closed())
}

func TestRoomClosesWhenHostLeavesWithNoConnectedSeats(t *testing.T) {
	closed := make(chan string, 1)
	r := New("room-4", newTestPlayers(), 0, testConfig(), createTestLogger())
	r.setOnClose(func(id string) { closed <- id })
	collector := newRoomCollector()
	r.SM.Dispatcher.Subscribe(collector)
	r.Start()
	defer r.Stop()

	require.NoError(t, r.SM.Queue.Enqueue(game.Action{Kind: game.ActionLeave, OriginSeat: 0}))

	roomClosed := waitForKind(t, collector.ch, game.EventRoomClosed)
	payload := roomClosed.Payload.(game.RoomClosedPayload)
	require.NotEmpty(t, payload.Reason)
	require.True(t, r.Closed())

	select {
	case id := <-closed:
		require.Equal(t, "room-4", id)
	case <-time.After(2 * time.Second):
		t.Fatal("onClose was never invoked")
	}
}

// TestRoomJoinReplaysRingBufferedEventsForNewConnection exercises the
// optional ring-buffer resync mechanism (spec §6 replay_last_n_events),
// which is "configurable, off by default" (spec §4.7) and therefore must be
// requested explicitly rather than relying on DefaultConfig.
func TestRoomJoinReplaysRingBufferedEventsForNewConnection(t *testing.T) {
	cfg := testConfig()
	cfg.ReplayLastNEvents = 10
	r := New("room-5", newTestPlayers(), 0, cfg, createTestLogger())
	collector := newRoomCollector()
	r.SM.Dispatcher.Subscribe(collector)
	r.Start()
	defer r.Stop()

	require.NoError(t, r.SM.Queue.Enqueue(game.Action{Kind: game.ActionStartGame, OriginSeat: 0}))
	waitForKind(t, collector.ch, game.EventPhaseChanged)

	conn := r.Join("conn-1", "player-1", 1)

	// The replayed ring buffer should contain at least the phase_changed
	// event from before this connection joined.
	sawPhaseChanged := false
	drain := true
	for drain {
		select {
		case ev := <-conn.Events():
			if ev.Kind == game.EventPhaseChanged {
				sawPhaseChanged = true
			}
		case <-time.After(200 * time.Millisecond):
			drain = false
		}
	}
	require.True(t, sawPhaseChanged, "expected replayed events to include phase_changed")

	joined := waitForKind(t, collector.ch, game.EventPlayerJoined)
	payload := joined.Payload.(game.PlayerJoinedPayload)
	require.Equal(t, 1, payload.Seat)
	require.Equal(t, "player-1", payload.PlayerID)
}

// TestRoomReconnectWithinGraceWindowDrainsRetainedPerConnectionQueue covers
// spec §8 scenario 6: a seat's connection drops, an event it should have
// seen is dispatched while it's gone, and a reconnect that reuses the same
// connection id within the grace window must still deliver that event —
// via the retained per-connection channel Join now reuses, not the ring
// buffer (which is disabled here, ReplayLastNEvents: 0, to prove the ring
// isn't what's carrying it).
func TestRoomReconnectWithinGraceWindowDrainsRetainedPerConnectionQueue(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.ReplayLastNEvents = 0
	cfg.BroadcastGraceGame = 2 * time.Second
	cfg.BroadcastGraceLobby = 2 * time.Second

	r := New("room-6", newTestPlayers(), 0, cfg, createTestLogger())
	collector := newRoomCollector()
	r.SM.Dispatcher.Subscribe(collector)
	r.Start()
	defer r.Stop()

	require.NoError(t, r.SM.Queue.Enqueue(game.Action{Kind: game.ActionStartGame, OriginSeat: 0}))
	waitForKind(t, collector.ch, game.EventPhaseChanged)

	conn := r.Join("conn-seat1", "player-1", 1)
	waitForKind(t, collector.ch, game.EventPlayerJoined)
	drainConn(conn)

	// The connection drops, but stays registered through its grace window
	// (Disconnect only arms the eviction timer, see Room.Disconnect).
	r.Disconnect(conn)

	// While it's gone, a held event it should eventually see is dispatched.
	r.Join("conn-seat2", "player-2", 2)
	held := waitForKind(t, collector.ch, game.EventPlayerJoined)
	heldPayload := held.Payload.(game.PlayerJoinedPayload)
	require.Equal(t, 2, heldPayload.Seat)

	// Reconnect with the same connection id before the grace timer fires.
	reconnected := r.Join("conn-seat1", "player-1", 1)
	require.Same(t, conn, reconnected, "reconnect within the grace window must reuse the existing Connection")

	select {
	case ev := <-reconnected.Events():
		payload, ok := ev.Payload.(game.PlayerJoinedPayload)
		require.True(t, ok)
		require.Equal(t, 2, payload.Seat)
		require.Equal(t, held.Sequence, ev.Sequence)
	case <-time.After(time.Second):
		t.Fatal("expected the held event to drain from the retained per-connection queue on reconnect")
	}
}

// drainConn discards whatever is currently buffered on conn's channel
// without blocking, so a later assertion can tell a held event apart from
// ones already pending before the disconnect.
func drainConn(conn *Connection) {
	for {
		select {
		case <-conn.Events():
		default:
			return
		}
	}
}
