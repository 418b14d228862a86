package board

import (
	"fmt"
	"strings"
)

// StartPosition is the notation string for the starting position.
// Rows are listed from row 0 (Black's back row) to row 7, digits count empty
// cells, and the last field is the side to move.
const StartPosition = "1b1b1b1b/b1b1b1b1/1b1b1b1b/8/8/w1w1w1w1/1w1w1w1w/w1w1w1w1 w"

// ParsePosition parses a position string and returns the grid and side to move.
// The side field is optional and defaults to White.
func ParsePosition(s string) (Grid, Color, error) {
	var g Grid

	parts := strings.Fields(s)
	if len(parts) == 0 || len(parts) > 2 {
		return g, NoColor, fmt.Errorf("invalid position: need 1 or 2 fields, got %d", len(parts))
	}

	rows := strings.Split(parts[0], "/")
	if len(rows) != 8 {
		return g, NoColor, fmt.Errorf("invalid position: need 8 rows, got %d", len(rows))
	}

	for row, text := range rows {
		col := 0
		for i := 0; i < len(text); i++ {
			c := text[i]
			if c >= '1' && c <= '8' {
				col += int(c - '0')
				continue
			}
			p, ok := PieceFromChar(c)
			if !ok {
				return g, NoColor, fmt.Errorf("invalid piece character: %c", c)
			}
			if col >= 8 {
				return g, NoColor, fmt.Errorf("row %d is too long", row)
			}
			g[row][col] = p
			col++
		}
		if col != 8 {
			return g, NoColor, fmt.Errorf("row %d has %d cells, want 8", row, col)
		}
	}

	side := White
	if len(parts) == 2 {
		var ok bool
		side, ok = ParseColor(parts[1])
		if !ok {
			return g, NoColor, fmt.Errorf("invalid side to move: %s", parts[1])
		}
	}

	if err := g.Validate(); err != nil {
		return g, NoColor, err
	}

	return g, side, nil
}

// FormatPosition returns the notation string for g with side to move.
func FormatPosition(g Grid, side Color) string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		if row > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for col := 0; col < 8; col++ {
			p := g[row][col]
			if p == Empty {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(p.String())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}
	if side == Black {
		sb.WriteString(" b")
	} else {
		sb.WriteString(" w")
	}
	return sb.String()
}
