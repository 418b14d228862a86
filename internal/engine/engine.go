package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/hailam/checkers/internal/board"
)

// ErrInvalidDepth is returned when a search is requested with depth <= 0.
var ErrInvalidDepth = errors.New("invalid search depth")

// SearchInfo contains information about a finished search.
type SearchInfo struct {
	Side  board.Color
	Depth int
	Score float64
	Nodes uint64
	Time  time.Duration
	Move  board.Move
}

// Result is the outcome of a search. Move is board.NoMove when the side to
// move has no legal moves; that is a game result, not an error.
type Result struct {
	Move  board.Move
	Grid  board.Grid // grid after Move
	Score float64
	Nodes uint64
}

// Config holds the engine settings.
type Config struct {
	Scoring ScoringMode
	// Rand orders candidate moves; nil keeps generation order.
	Rand board.Shuffler
	// Cache memoizes results of identical searches; nil disables it.
	Cache *ResultCache
}

// Engine is the checkers AI. It holds no per-search state, so one Engine can
// run several searches at once as long as its Rand is safe for that.
type Engine struct {
	scoring ScoringMode
	rand    board.Shuffler
	cache   *ResultCache

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		scoring: cfg.Scoring,
		rand:    cfg.Rand,
		cache:   cfg.Cache,
	}
}

// Scoring returns the configured scoring mode.
func (e *Engine) Scoring() ScoringMode {
	return e.scoring
}

// SetScoring changes the scoring mode for later searches.
func (e *Engine) SetScoring(mode ScoringMode) {
	e.scoring = mode
}

// LegalMoves returns the shuffled legal moves of side.
func (e *Engine) LegalMoves(side board.Color, g board.Grid) (board.MoveList, bool) {
	return g.LegalMoves(side, e.rand)
}

// MovesForSquare returns the moves of the single piece on sq.
func (e *Engine) MovesForSquare(sq board.Square, g board.Grid) (board.MoveList, bool) {
	return g.MovesForSquare(sq)
}

// BestMove searches depth plies and returns the best move for side, with the
// score seen from side's point of view.
func (e *Engine) BestMove(side board.Color, g board.Grid, depth int) (Result, error) {
	if err := checkInput(side, g, depth); err != nil {
		return Result{}, err
	}

	if e.cache != nil {
		if r, ok := e.cache.Probe(g, side, depth, e.scoring); ok {
			return r, nil
		}
	}

	moves, _ := g.LegalMoves(side, e.rand)
	r := e.run(side, g, moves, depth)

	if e.cache != nil {
		e.cache.Store(g, side, depth, e.scoring, r)
	}
	return r, nil
}

// BestContinuation picks the next leg of a beat series: only captures of the
// piece on sq are considered at the root. NoMove means the series is over.
func (e *Engine) BestContinuation(sq board.Square, g board.Grid, depth int) (Result, error) {
	if !sq.IsValid() || g.At(sq) == board.Empty {
		return Result{}, fmt.Errorf("%w: no piece at %s", board.ErrIllegalMove, sq)
	}
	side := g.At(sq).Color()
	if err := checkInput(side, g, depth); err != nil {
		return Result{}, err
	}

	moves, captures := g.MovesForSquare(sq)
	if !captures {
		moves = nil
	}
	if e.rand != nil && len(moves) > 1 {
		e.rand.Shuffle(len(moves), func(i, j int) { moves[i], moves[j] = moves[j], moves[i] })
	}
	return e.run(side, g, moves, depth), nil
}

// run searches the given root candidates and reports the result.
func (e *Engine) run(side board.Color, g board.Grid, moves board.MoveList, depth int) Result {
	start := time.Now()
	s := &searcher{
		perspective: side,
		mode:        e.scoring,
		shuffle:     e.rand,
	}

	if len(moves) == 0 {
		return Result{Move: board.NoMove, Grid: g, Score: Score(g, side, e.scoring)}
	}

	best := s.searchRoot(g, side, moves, depth)
	r := Result{
		Move:  best.move,
		Grid:  best.grid,
		Score: best.score,
		Nodes: s.nodes,
	}

	if e.OnInfo != nil {
		e.OnInfo(SearchInfo{
			Side:  side,
			Depth: depth,
			Score: r.Score,
			Nodes: r.Nodes,
			Time:  time.Since(start),
			Move:  r.Move,
		})
	}
	return r
}

func checkInput(side board.Color, g board.Grid, depth int) error {
	if side != board.White && side != board.Black {
		return fmt.Errorf("invalid side %v", side)
	}
	if err := g.Validate(); err != nil {
		return fmt.Errorf("malformed grid: %w", err)
	}
	if depth <= 0 || depth > MaxDepth {
		return fmt.Errorf("%w: got %d", ErrInvalidDepth, depth)
	}
	return nil
}

// Perft performs a perft test (for debugging move generation).
func (e *Engine) Perft(side board.Color, g board.Grid, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves, _ := g.LegalMoves(side, nil)
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for _, m := range moves {
		nodes += e.Perft(side.Other(), g.MakeMove(m), depth-1)
	}
	return nodes
}

// Evaluate returns the static evaluation of g for side.
func (e *Engine) Evaluate(side board.Color, g board.Grid) float64 {
	return Score(g, side, e.scoring)
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score float64) string {
	switch {
	case score >= Infinity:
		return "won"
	case score <= 0:
		return "lost"
	default:
		return fmt.Sprintf("%.3f", score)
	}
}
