package board

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIllegalMove is returned when a move violates bounds or ownership rules.
	ErrIllegalMove = errors.New("illegal move")
	// ErrInvalidSquare is returned for malformed square notation.
	ErrInvalidSquare = errors.New("invalid square")
)

// Move is a single atomic transition. Captured is NoSquare for simple moves.
type Move struct {
	From     Square
	To       Square
	Captured Square
}

// NoMove represents the absence of a move (the side has nothing to play).
var NoMove = Move{From: NoSquare, To: NoSquare, Captured: NoSquare}

// NewMove creates a non-capturing move.
func NewMove(from, to Square) Move {
	return Move{From: from, To: to, Captured: NoSquare}
}

// NewCapture creates a move that removes the piece on captured.
func NewCapture(from, to, captured Square) Move {
	return Move{From: from, To: to, Captured: captured}
}

// IsCapture returns true if this move removes an enemy piece.
func (m Move) IsCapture() bool {
	return m.Captured != NoSquare
}

// IsNone reports whether m is NoMove.
func (m Move) IsNone() bool {
	return m.From == NoSquare && m.To == NoSquare
}

// Equal compares origin and destination only. The captured cell is implied
// by the position, so a player's intended move matches the generated one.
func (m Move) Equal(o Move) bool {
	return m.From == o.From && m.To == o.To
}

// String returns "c3d4" for simple moves and "c3xe5" for captures.
func (m Move) String() string {
	if m.IsNone() {
		return "0000"
	}
	if m.IsCapture() {
		return m.From.String() + "x" + m.To.String()
	}
	return m.From.String() + m.To.String()
}

// ParseMove parses "c3d4", "c3-d4" or "c3xe5" into a move without capture info.
// Use MoveList.Find to resolve it against the legal moves.
func ParseMove(s string) (Move, error) {
	s = strings.NewReplacer("x", "", "-", "", ":", "").Replace(strings.TrimSpace(s))
	if len(s) != 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	return NewMove(from, to), nil
}

// MoveList is an ordered list of moves.
type MoveList []Move

// Len returns the number of moves in the list.
func (ml MoveList) Len() int {
	return len(ml)
}

// Contains returns true if the list holds a move equal to m.
func (ml MoveList) Contains(m Move) bool {
	_, ok := ml.Find(m)
	return ok
}

// Find returns the listed move equal to m, including its captured cell.
func (ml MoveList) Find(m Move) (Move, bool) {
	for _, lm := range ml {
		if lm.Equal(m) {
			return lm, true
		}
	}
	return NoMove, false
}

// From returns the moves that start on sq.
func (ml MoveList) From(sq Square) MoveList {
	var out MoveList
	for _, m := range ml {
		if m.From == sq {
			out = append(out, m)
		}
	}
	return out
}

// Origins returns the distinct origin squares in list order.
func (ml MoveList) Origins() []Square {
	var seen [NoSquare]bool
	var out []Square
	for _, m := range ml {
		if !seen[m.From] {
			seen[m.From] = true
			out = append(out, m.From)
		}
	}
	return out
}

// Destinations returns the destination squares in list order.
func (ml MoveList) Destinations() []Square {
	out := make([]Square, 0, len(ml))
	for _, m := range ml {
		out = append(out, m.To)
	}
	return out
}

// String joins the moves with spaces.
func (ml MoveList) String() string {
	parts := make([]string, len(ml))
	for i, m := range ml {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}
