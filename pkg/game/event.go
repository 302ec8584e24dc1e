package game

import "time"

// EventKind enumerates the outbound event kinds from spec §6, plus the
// room-membership events SPEC_FULL.md §4 adds (PlayerJoined/PlayerLeft/
// SeatReplaced/HostChanged), which share this same tagged-variant shape so
// pkg/room can publish them through the same EventDispatcher.
type EventKind string

const (
	EventPhaseChanged   EventKind = "phase_changed"
	EventRedealOffered  EventKind = "redeal_offered"
	EventDeclared       EventKind = "declared"
	EventPlayed         EventKind = "played"
	EventTurnResolved   EventKind = "turn_resolved"
	EventScoringApplied EventKind = "scoring_applied"
	EventGameEnded      EventKind = "game_ended"
	EventActionRejected EventKind = "action_rejected"
	EventInternalError  EventKind = "internal_error"

	EventPlayerJoined EventKind = "player_joined"
	EventPlayerLeft   EventKind = "player_left"
	EventSeatReplaced EventKind = "seat_replaced"
	EventHostChanged  EventKind = "host_changed"
	EventRoomClosed   EventKind = "room_closed"
)

// EventPayload is implemented by every per-kind event payload struct.
type EventPayload interface {
	EventKind() EventKind
}

// DisplayMetadata is the backend-attached pacing hint contract (spec §4.5).
type DisplayMetadata struct {
	Type            string  // "turn_results" | "scoring_display"
	ShowForSeconds  float64
	AutoAdvance     bool
	CanSkip         bool
	NextPhase       Phase
}

// Event is the envelope every outbound notification travels in (spec §4.4,
// §6: "Every event carries: sequence:int, phase:string, room_id:string,
// payload:object, optional display:object, and timestamp").
type Event struct {
	Sequence        int64
	Kind            EventKind
	RoomID          string
	Phase           Phase
	Payload         EventPayload
	Display         *DisplayMetadata
	CausingActionID string
	Timestamp       time.Time

	// OriginSeat is the acting seat for events visible only to their
	// origin (ActionRejected); -1 for broadcast-to-all events.
	OriginSeat int
}

// PhaseChangedPayload is always built by pkg/engine (never by a PhaseState
// itself), so every transition carries a correct From/To pair. The
// Preparation-specific fields are populated whenever To == Preparation,
// carrying the detail spec §4.3.1 requires clients to see.
type PhaseChangedPayload struct {
	From Phase
	To   Phase

	RedealMultiplier int
	WeakHandSeats    []int
	OfferSeat        int
}

func (PhaseChangedPayload) EventKind() EventKind { return EventPhaseChanged }

type DeclaredPayload struct {
	Seat  int
	Value int
}

func (DeclaredPayload) EventKind() EventKind { return EventDeclared }

type PlayedPayload struct {
	Seat   int
	Pieces []Piece
}

func (PlayedPayload) EventKind() EventKind { return EventPlayed }

type TurnResolvedPayload struct {
	WinnerSeat    int
	Plays         []Play
	PilesAwarded  int
}

func (TurnResolvedPayload) EventKind() EventKind { return EventTurnResolved }

type ScoringAppliedPayload struct {
	Deltas map[int]int
	Scores map[int]int
}

func (ScoringAppliedPayload) EventKind() EventKind { return EventScoringApplied }

type GameEndedPayload struct {
	WinnerSeat  int
	FinalScores map[int]int
}

func (GameEndedPayload) EventKind() EventKind { return EventGameEnded }

type ActionRejectedPayload struct {
	ActionID string
	Reason   RejectReason
	Detail   string
}

func (ActionRejectedPayload) EventKind() EventKind { return EventActionRejected }

type InternalErrorPayload struct {
	Message string
}

func (InternalErrorPayload) EventKind() EventKind { return EventInternalError }

// RedealOfferedPayload accompanies a phase-local event (not a transition)
// when the next weak seat in line is being prompted; Preparation re-dealing
// itself is reported via PhaseChangedPayload since it re-enters Preparation
// (spec §4.2 step 4: "otherwise emit the phase-local event").
type RedealOfferedPayload struct {
	Seat int
}

func (RedealOfferedPayload) EventKind() EventKind { return EventRedealOffered }

// The following payloads back the room-membership events SPEC_FULL.md §4
// adds; pkg/room is their producer, pkg/engine.StateMachine only needs the
// tagged-variant shape to route them through the same Dispatcher sequence.

type PlayerJoinedPayload struct {
	Seat        int
	PlayerID    string
	DisplayName string
}

func (PlayerJoinedPayload) EventKind() EventKind { return EventPlayerJoined }

type PlayerLeftPayload struct {
	Seat int
}

func (PlayerLeftPayload) EventKind() EventKind { return EventPlayerLeft }

type SeatReplacedPayload struct {
	Seat int
}

func (SeatReplacedPayload) EventKind() EventKind { return EventSeatReplaced }

type HostChangedPayload struct {
	NewHostSeat int
}

func (HostChangedPayload) EventKind() EventKind { return EventHostChanged }

type RoomClosedPayload struct {
	Reason string
}

func (RoomClosedPayload) EventKind() EventKind { return EventRoomClosed }
