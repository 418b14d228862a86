package board

import (
	"fmt"
	"strings"
)

// Grid is the 8x8 board indexed [row][col]. It is a value: assigning or
// passing a Grid copies it, and every transition returns a new Grid.
type Grid [8][8]Piece

// StartGrid returns the starting position: black men on the dark squares of
// rows 0-2, white men on the dark squares of rows 5-7.
func StartGrid() Grid {
	var g Grid
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if (row+col)%2 != 1 {
				continue
			}
			switch {
			case row < 3:
				g[row][col] = BlackMan
			case row > 4:
				g[row][col] = WhiteMan
			}
		}
	}
	return g
}

// At returns the piece on sq.
func (g Grid) At(sq Square) Piece {
	return g[sq.Row()][sq.Col()]
}

// With returns a copy of the grid with p placed on sq.
func (g Grid) With(sq Square, p Piece) Grid {
	g[sq.Row()][sq.Col()] = p
	return g
}

// MakeMove applies a move produced by the move generator and returns the new
// grid. The captured cell is cleared and a man reaching its promotion row is
// crowned in the same transition. The receiver is not modified.
func (g Grid) MakeMove(m Move) Grid {
	if m.Captured != NoSquare {
		g[m.Captured.Row()][m.Captured.Col()] = Empty
	}

	piece := g[m.From.Row()][m.From.Col()]
	if piece.IsMan() && m.To.Row() == PromotionRow(piece.Color()) {
		piece = piece.Promote()
	}

	g[m.To.Row()][m.To.Col()] = piece
	g[m.From.Row()][m.From.Col()] = Empty
	return g
}

// Apply checks m against the grid and applies it. It rejects moves that leave
// the board, start on an empty cell, land on an occupied cell, or capture
// something other than an enemy piece. Legality against the full rule set is
// the caller's business: only generated moves are guaranteed legal.
func (g Grid) Apply(m Move) (Grid, error) {
	if !m.From.IsValid() || !m.To.IsValid() {
		return g, fmt.Errorf("%w: %v out of bounds", ErrIllegalMove, m)
	}
	if m.From == m.To {
		return g, fmt.Errorf("%w: %v does not move", ErrIllegalMove, m)
	}

	piece := g.At(m.From)
	if piece == Empty {
		return g, fmt.Errorf("%w: no piece at %s", ErrIllegalMove, m.From)
	}
	if g.At(m.To) != Empty {
		return g, fmt.Errorf("%w: %s is occupied", ErrIllegalMove, m.To)
	}
	if m.Captured != NoSquare {
		if !m.Captured.IsValid() {
			return g, fmt.Errorf("%w: captured square out of bounds", ErrIllegalMove)
		}
		if !piece.IsEnemy(g.At(m.Captured)) {
			return g, fmt.Errorf("%w: no enemy piece at %s", ErrIllegalMove, m.Captured)
		}
	}

	return g.MakeMove(m), nil
}

// Material holds piece counts for one color.
type Material struct {
	Men   int
	Kings int
}

// Total returns men plus kings.
func (m Material) Total() int {
	return m.Men + m.Kings
}

// Count returns the material of color c.
func (g Grid) Count(c Color) Material {
	var m Material
	man, king := Man(c), King(c)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			switch g[row][col] {
			case man:
				m.Men++
			case king:
				m.Kings++
			}
		}
	}
	return m
}

// PieceCount returns the number of pieces on the board.
func (g Grid) PieceCount() int {
	n := 0
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if g[row][col] != Empty {
				n++
			}
		}
	}
	return n
}

// Validate checks that every cell holds a known value and no man sits on its
// own promotion row.
func (g Grid) Validate() error {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := g[row][col]
			if p > BlackKing {
				return fmt.Errorf("invalid piece value %d at %s", p, NewSquare(row, col))
			}
			if p.IsMan() && row == PromotionRow(p.Color()) {
				return fmt.Errorf("uncrowned man at %s", NewSquare(row, col))
			}
		}
	}
	return nil
}

// String returns a visual representation of the grid with row 0 on top.
func (g Grid) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for row := 0; row < 8; row++ {
		fmt.Fprintf(&sb, "%d  ", 8-row)
		for col := 0; col < 8; col++ {
			sb.WriteString(g[row][col].String())
			sb.WriteString(" ")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n")
	return sb.String()
}
