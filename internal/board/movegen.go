package board

// Shuffler reorders a sequence in place. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// diagonals lists the four directions as (row, col) steps.
var diagonals = [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

// MovesForSquare generates every legal move of the piece on sq, ignoring the
// rest of its side. If the piece can capture, only captures are returned.
// The second result reports whether the moves are captures.
func (g Grid) MovesForSquare(sq Square) (MoveList, bool) {
	if !sq.IsValid() || g.At(sq) == Empty {
		return nil, false
	}

	var ml MoveList
	g.generateCaptures(sq, &ml)
	if len(ml) > 0 {
		return ml, true
	}
	g.generateSimple(sq, &ml)
	return ml, false
}

// LegalMoves generates all legal moves for side. Captures are mandatory: if
// any piece of side can capture, the list holds the captures of every such
// piece and nothing else. The list is shuffled with sh when sh is non-nil.
func (g Grid) LegalMoves(side Color, sh Shuffler) (MoveList, bool) {
	captures := g.HasCapture(side)

	var ml MoveList
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if g[row][col].Color() != side {
				continue
			}
			sq := NewSquare(row, col)
			if captures {
				g.generateCaptures(sq, &ml)
			} else {
				g.generateSimple(sq, &ml)
			}
		}
	}

	if sh != nil && len(ml) > 1 {
		sh.Shuffle(len(ml), func(i, j int) { ml[i], ml[j] = ml[j], ml[i] })
	}
	return ml, captures
}

// HasCapture reports whether any piece of side can capture.
func (g Grid) HasCapture(side Color) bool {
	var ml MoveList
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if g[row][col].Color() != side {
				continue
			}
			g.generateCaptures(NewSquare(row, col), &ml)
			if len(ml) > 0 {
				return true
			}
		}
	}
	return false
}

// generateCaptures appends the capturing moves of the piece on sq.
func (g Grid) generateCaptures(sq Square, ml *MoveList) {
	piece := g.At(sq)
	row, col := sq.Row(), sq.Col()

	if piece.IsMan() {
		// Men capture in all four directions, one enemy at a time.
		for _, d := range diagonals {
			midRow, midCol := row+d[0], col+d[1]
			toRow, toCol := row+2*d[0], col+2*d[1]
			if !inBounds(toRow, toCol) || g[toRow][toCol] != Empty {
				continue
			}
			if !piece.IsEnemy(g[midRow][midCol]) {
				continue
			}
			*ml = append(*ml, NewCapture(sq, NewSquare(toRow, toCol), NewSquare(midRow, midCol)))
		}
		return
	}

	// Kings fly: skip empty cells, jump exactly one enemy, then land on any
	// empty cell before the next occupied one.
	for _, d := range diagonals {
		captured := NoSquare
		for r, c := row+d[0], col+d[1]; inBounds(r, c); r, c = r+d[0], c+d[1] {
			target := g[r][c]
			if target != Empty {
				if piece.SameSide(target) || captured != NoSquare {
					break
				}
				captured = NewSquare(r, c)
				continue
			}
			if captured != NoSquare {
				*ml = append(*ml, NewCapture(sq, NewSquare(r, c), captured))
			}
		}
	}
}

// generateSimple appends the non-capturing moves of the piece on sq.
func (g Grid) generateSimple(sq Square, ml *MoveList) {
	piece := g.At(sq)
	row, col := sq.Row(), sq.Col()

	if piece.IsMan() {
		toRow := row + forward(piece.Color())
		for _, dc := range [2]int{-1, 1} {
			toCol := col + dc
			if !inBounds(toRow, toCol) || g[toRow][toCol] != Empty {
				continue
			}
			*ml = append(*ml, NewMove(sq, NewSquare(toRow, toCol)))
		}
		return
	}

	for _, d := range diagonals {
		for r, c := row+d[0], col+d[1]; inBounds(r, c); r, c = r+d[0], c+d[1] {
			if g[r][c] != Empty {
				break
			}
			*ml = append(*ml, NewMove(sq, NewSquare(r, c)))
		}
	}
}
