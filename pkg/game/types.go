// Package game holds the Liap Tui data model and the four phase state
// machines (Preparation, Declaration, Turn, Scoring) that mutate it. It has
// no knowledge of how actions arrive or how events are delivered; that is
// pkg/engine's job. See SPEC_FULL.md §3 for the mapping back to spec.md §3.
package game

import "fmt"

// Kind enumerates the chess-like piece kinds used by the fixed deck.
type Kind int

const (
	General Kind = iota
	Advisor
	Elephant
	Chariot
	Horse
	Cannon
	Soldier
)

func (k Kind) String() string {
	switch k {
	case General:
		return "general"
	case Advisor:
		return "advisor"
	case Elephant:
		return "elephant"
	case Chariot:
		return "chariot"
	case Horse:
		return "horse"
	case Cannon:
		return "cannon"
	case Soldier:
		return "soldier"
	default:
		return "unknown"
	}
}

// Color is one of the two deck colors.
type Color int

const (
	Red Color = iota
	Black
)

func (c Color) String() string {
	if c == Red {
		return "red"
	}
	return "black"
}

// Piece is immutable once dealt.
type Piece struct {
	Kind       Kind
	Color      Color
	PointValue int
}

func (p Piece) String() string {
	return fmt.Sprintf("%s-%s(%d)", p.Color, p.Kind, p.PointValue)
}

// WeakThreshold is the point_value a hand must exceed at least once to not
// be a weak hand (spec GLOSSARY: "Weak hand — a hand with no piece whose
// point_value > 9").
const WeakThreshold = 9

// HandSize is the number of pieces dealt to each seat at the start of a
// round (spec GLOSSARY: "Hand size — number of pieces a player holds at
// start of round (8)").
const HandSize = 8

// MaxPlaySize is the largest play the opener of a turn may make (spec
// invariant 2: "first play of a turn sets required_piece_count to its own
// size (1..6)").
const MaxPlaySize = 6

// SeatCount is the fixed number of seats per room.
const SeatCount = 4

// kindCount is how many copies of a given (Kind, Color) exist in the deck.
// General has a single copy per color; Soldier has five; everything else
// has two. 2+4+4+4+4+4+10 = 32 pieces, 8 per seat.
func kindCount(k Kind) int {
	switch k {
	case General:
		return 1
	case Soldier:
		return 5
	default:
		return 2
	}
}

// pointValue assigns a strictly descending scale by rank, red outranking
// black within the same kind. Only General, Advisor and red Elephant clear
// WeakThreshold (8 of the 32 pieces), which gives a uniformly dealt
// 8-piece hand roughly a 1-in-14 chance of being weak (see DESIGN.md Open Question #1: no original ranking table
// survived retrieval, so this table is a fresh, documented assignment).
func pointValue(k Kind, c Color) int {
	base := map[Kind]int{
		General:  14,
		Advisor:  12,
		Elephant: 10,
		Chariot:  8,
		Horse:    6,
		Cannon:   4,
		Soldier:  2,
	}[k]
	if c == Black {
		base--
	}
	return base
}

// NewDeck returns the fixed 32-piece multiset, unshuffled.
func NewDeck() []Piece {
	deck := make([]Piece, 0, 32)
	kinds := []Kind{General, Advisor, Elephant, Chariot, Horse, Cannon, Soldier}
	for _, k := range kinds {
		for _, c := range []Color{Red, Black} {
			n := kindCount(k)
			for i := 0; i < n; i++ {
				deck = append(deck, Piece{Kind: k, Color: c, PointValue: pointValue(k, c)})
			}
		}
	}
	return deck
}

// IsWeak reports whether a hand has no piece exceeding WeakThreshold.
func IsWeak(hand []Piece) bool {
	for _, p := range hand {
		if p.PointValue > WeakThreshold {
			return false
		}
	}
	return true
}

// Player is a seat's identity and per-round state (spec §3).
type Player struct {
	PlayerID        string
	DisplayName     string
	IsBot           bool
	SeatIndex       int
	Hand            []Piece
	DeclaredPiles   int
	CapturedPiles   int
	CumulativeScore int

	// ZeroStreak tracks how many of the last two completed rounds this
	// seat declared 0, for the perpetual-zero rule (spec §4.3.2, DESIGN.md
	// Open Question #2). Capped at 2.
	ZeroStreak int
}

// Clone returns a deep copy of the player (hand included).
func (p *Player) Clone() *Player {
	cp := *p
	cp.Hand = append([]Piece(nil), p.Hand...)
	return &cp
}

// Phase is one of the five states the room's GameState can be in.
type Phase int

const (
	Preparation Phase = iota
	Declaration
	Turn
	Scoring
	GameEnd
)

func (p Phase) String() string {
	switch p {
	case Preparation:
		return "preparation"
	case Declaration:
		return "declaration"
	case Turn:
		return "turn"
	case Scoring:
		return "scoring"
	case GameEnd:
		return "game_end"
	default:
		return "unknown"
	}
}

// Play is one seat's contribution to the current turn.
type Play struct {
	Seat   int
	Pieces []Piece
}
