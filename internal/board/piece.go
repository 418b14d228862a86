package board

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// ParseColor parses "w"/"white" or "b"/"black".
func ParseColor(s string) (Color, bool) {
	switch s {
	case "w", "white", "White":
		return White, true
	case "b", "black", "Black":
		return Black, true
	}
	return NoColor, false
}

// Piece is the content of a single cell.
// Men and kings of one color share parity (White odd, Black even);
// a king is the man value plus 2.
type Piece uint8

const (
	Empty Piece = iota
	WhiteMan
	BlackMan
	WhiteKing
	BlackKing
)

// kingOffset turns a man into the king of the same color.
const kingOffset = 2

// IsEmpty reports whether the cell holds no piece.
func (p Piece) IsEmpty() bool {
	return p == Empty
}

// IsKing reports whether p is a king of either color.
func (p Piece) IsKing() bool {
	return p == WhiteKing || p == BlackKing
}

// IsMan reports whether p is a man of either color.
func (p Piece) IsMan() bool {
	return p == WhiteMan || p == BlackMan
}

// Color returns the owner of the piece, NoColor for an empty cell.
func (p Piece) Color() Color {
	if p == Empty || p > BlackKing {
		return NoColor
	}
	if p%2 == 1 {
		return White
	}
	return Black
}

// SameSide reports whether both cells hold pieces of one color.
func (p Piece) SameSide(q Piece) bool {
	return p != Empty && q != Empty && p%2 == q%2
}

// IsEnemy reports whether q is an opposing piece of p.
func (p Piece) IsEnemy(q Piece) bool {
	return p != Empty && q != Empty && p%2 != q%2
}

// Promote returns the king variant of a man; kings are returned unchanged.
func (p Piece) Promote() Piece {
	if p.IsMan() {
		return p + kingOffset
	}
	return p
}

// Man returns the man of the given color.
func Man(c Color) Piece {
	if c == White {
		return WhiteMan
	}
	return BlackMan
}

// King returns the king of the given color.
func King(c Color) Piece {
	return Man(c) + kingOffset
}

// String returns the notation character for the piece.
// White is "w"/"W", black is "b"/"B", kings are uppercase.
func (p Piece) String() string {
	switch p {
	case WhiteMan:
		return "w"
	case BlackMan:
		return "b"
	case WhiteKing:
		return "W"
	case BlackKing:
		return "B"
	default:
		return "."
	}
}

// PieceFromChar converts a notation character to a Piece.
func PieceFromChar(c byte) (Piece, bool) {
	switch c {
	case 'w':
		return WhiteMan, true
	case 'b':
		return BlackMan, true
	case 'W':
		return WhiteKing, true
	case 'B':
		return BlackKing, true
	case '.':
		return Empty, true
	default:
		return Empty, false
	}
}

// PromotionRow returns the row on which men of color c are crowned.
func PromotionRow(c Color) int {
	if c == White {
		return 0
	}
	return 7
}

// forward returns the row step a man of color c moves with.
func forward(c Color) int {
	if c == White {
		return -1
	}
	return 1
}
