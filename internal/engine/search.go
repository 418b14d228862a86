package engine

import (
	"github.com/hailam/checkers/internal/board"
)

// Search constants
const (
	// Infinity is the score of a position where the opponent has no pieces.
	// It also bounds the alpha-beta window.
	Infinity = 1e9
	MaxDepth = 64
)

// searcher walks one search tree. It is created per call and never shared,
// so concurrent searches do not interfere.
type searcher struct {
	perspective board.Color
	mode        ScoringMode
	shuffle     board.Shuffler
	nodes       uint64
}

// rootResult is the best root candidate of one search.
type rootResult struct {
	move  board.Move
	grid  board.Grid
	score float64
}

// searchRoot scores every root candidate and keeps the first one with the
// best score, so ties go to whichever candidate the shuffle put first.
// The root side is the perspective side and therefore maximizes.
func (s *searcher) searchRoot(g board.Grid, side board.Color, moves board.MoveList, depth int) rootResult {
	best := rootResult{move: board.NoMove, grid: g, score: -Infinity}
	alpha, beta := -Infinity, float64(Infinity)

	for _, m := range moves {
		child := g.MakeMove(m)
		score := s.minimax(child, side.Other(), depth-1, alpha, beta)

		if score > best.score {
			best = rootResult{move: m, grid: child, score: score}
		}
		alpha = max(alpha, score)
		if beta <= alpha {
			break
		}
	}
	return best
}

// minimax returns the value of g with side to move, seen from the fixed
// perspective. Nodes where side is the perspective maximize, others minimize.
func (s *searcher) minimax(g board.Grid, side board.Color, depth int, alpha, beta float64) float64 {
	s.nodes++

	if depth == 0 {
		return Score(g, s.perspective, s.mode)
	}

	moves, _ := g.LegalMoves(side, s.shuffle)
	if len(moves) == 0 {
		return Score(g, s.perspective, s.mode)
	}

	maximizing := side == s.perspective
	best := float64(Infinity)
	if maximizing {
		best = -Infinity
	}

	for _, m := range moves {
		score := s.minimax(g.MakeMove(m), side.Other(), depth-1, alpha, beta)

		if maximizing {
			best = max(best, score)
			alpha = max(alpha, score)
		} else {
			best = min(best, score)
			beta = min(beta, score)
		}
		if beta <= alpha {
			break
		}
	}
	return best
}
