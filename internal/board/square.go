// Package board implements the checkers board, its move rules and move generation.
package board

import "fmt"

// Square is a cell index on the 8x8 grid: row*8 + col.
// Row 0 is Black's back row, row 7 is White's back row.
// In notation the file is the column (a-h) and the rank counts from White's
// side, so row 7 col 0 is "a1" and row 0 col 7 is "h8".
type Square uint8

// NoSquare marks an absent square, e.g. the captured cell of a simple move.
const NoSquare Square = 64

// NewSquare creates a square from row and column (0-indexed).
func NewSquare(row, col int) Square {
	return Square(row*8 + col)
}

// Row returns the grid row (0-7).
func (sq Square) Row() int {
	return int(sq) >> 3
}

// Col returns the grid column (0-7).
func (sq Square) Col() int {
	return int(sq) & 7
}

// IsValid returns true if the square lies on the board.
func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// String returns the notation for the square (e.g., "c3").
func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+sq.Col(), '8'-sq.Row())
}

// ParseSquare parses notation (e.g., "c3") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}

	col := int(s[0]) - 'a'
	row := '8' - int(s[1])

	if !inBounds(row, col) {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}

	return NewSquare(row, col), nil
}

func inBounds(row, col int) bool {
	return row >= 0 && row < 8 && col >= 0 && col < 8
}
