// Package game runs a checkers game: whose turn it is, capture chains,
// undo history, bot turns and the final result.
package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/checkers/internal/board"
	"github.com/hailam/checkers/internal/engine"
)

var (
	// ErrGameOver is returned when a move is requested after the game ended.
	ErrGameOver = errors.New("game is over")
	// ErrNotYourPiece is returned when a move starts on a cell the side to move does not own.
	ErrNotYourPiece = errors.New("not a piece of the side to move")
	// ErrNothingToUndo is returned when the history holds only the initial position.
	ErrNothingToUndo = errors.New("nothing to undo")
)

// DefaultDepth is the bot search depth when none is configured.
const DefaultDepth = 4

// Result is the state of the game.
type Result int

const (
	InProgress Result = iota
	Draw
	WhiteWins
	BlackWins
)

// String returns the result name.
func (r Result) String() string {
	switch r {
	case Draw:
		return "draw"
	case WhiteWins:
		return "white wins"
	case BlackWins:
		return "black wins"
	default:
		return "in progress"
	}
}

// Player configures one side.
type Player struct {
	Bot   bool
	Depth int
}

// Options configures a game.
type Options struct {
	White    Player
	Black    Player
	MaxTurns int           // 0 = unlimited
	BotDelay time.Duration // minimum time a bot turn takes, and pause between capture legs
	Logger   *log.Logger
}

// HistoryEntry is the state after one committed move (or the initial state).
// BeatSeries counts the capture legs of the series the move belongs to.
type HistoryEntry struct {
	Grid       board.Grid
	Side       board.Color
	Turn       int
	BeatSeries int
	Active     board.Square
}

// Game is a single checkers game. It is not safe for concurrent use.
type Game struct {
	eng  *engine.Engine
	opts Options
	log  *log.Logger

	grid       board.Grid
	side       board.Color
	turn       int
	beatSeries int
	active     board.Square // piece in the middle of a beat series
	history    []HistoryEntry
	result     Result
	started    time.Time
}

// New starts a game from the standard starting position with White to move.
func New(eng *engine.Engine, opts Options) *Game {
	g, _ := NewFromPosition(eng, opts, board.StartGrid(), board.White)
	return g
}

// NewFromPosition starts a game from an arbitrary grid.
func NewFromPosition(eng *engine.Engine, opts Options, grid board.Grid, side board.Color) (*Game, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if side != board.White && side != board.Black {
		return nil, fmt.Errorf("invalid side to move %v", side)
	}

	g := newGame(eng, opts)
	g.grid = grid
	g.side = side
	g.push()
	g.checkResult()
	return g, nil
}

// Restore rebuilds a game from a history produced by History.
func Restore(eng *engine.Engine, opts Options, history []HistoryEntry) (*Game, error) {
	if len(history) == 0 {
		return nil, errors.New("empty history")
	}
	for i, h := range history {
		if err := h.Grid.Validate(); err != nil {
			return nil, fmt.Errorf("history entry %d: %w", i, err)
		}
	}

	g := newGame(eng, opts)
	g.history = append(g.history, history...)
	g.load(g.history[len(g.history)-1])
	g.checkResult()
	return g, nil
}

func newGame(eng *engine.Engine, opts Options) *Game {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Game{
		eng:     eng,
		opts:    opts,
		log:     logger,
		active:  board.NoSquare,
		started: time.Now(),
	}
}

// Grid returns the current board.
func (g *Game) Grid() board.Grid { return g.grid }

// Side returns the side to move.
func (g *Game) Side() board.Color { return g.side }

// Turn returns the number of completed turns.
func (g *Game) Turn() int { return g.turn }

// Result returns the game result.
func (g *Game) Result() Result { return g.result }

// BeatSeries returns the number of captures made so far in the current turn.
func (g *Game) BeatSeries() int { return g.beatSeries }

// Active returns the piece that must continue capturing, or NoSquare.
func (g *Game) Active() board.Square { return g.active }

// Options returns the game configuration.
func (g *Game) Options() Options { return g.opts }

// IsBot reports whether side is played by the engine.
func (g *Game) IsBot(side board.Color) bool {
	return g.player(side).Bot
}

// SetPlayer changes who plays side.
func (g *Game) SetPlayer(side board.Color, p Player) {
	if side == board.White {
		g.opts.White = p
	} else {
		g.opts.Black = p
	}
}

// History returns a copy of the move history, oldest first.
func (g *Game) History() []HistoryEntry {
	return append([]HistoryEntry(nil), g.history...)
}

// LegalMoves returns the moves available right now: the continuation
// captures during a beat series, otherwise all legal moves of the side.
func (g *Game) LegalMoves() board.MoveList {
	if g.result != InProgress {
		return nil
	}
	if g.active != board.NoSquare {
		moves, _ := g.eng.MovesForSquare(g.active, g.grid)
		return moves
	}
	moves, _ := g.eng.LegalMoves(g.side, g.grid)
	return moves
}

// Play validates a move given by origin and destination and commits it.
// The returned move carries the captured cell, if any.
func (g *Game) Play(from, to board.Square) (board.Move, error) {
	if g.result != InProgress {
		return board.NoMove, ErrGameOver
	}
	if !from.IsValid() || !to.IsValid() {
		return board.NoMove, fmt.Errorf("%w: square out of bounds", board.ErrIllegalMove)
	}
	if g.grid.At(from).Color() != g.side {
		return board.NoMove, fmt.Errorf("%w: %s", ErrNotYourPiece, from)
	}

	m, ok := g.LegalMoves().Find(board.NewMove(from, to))
	if !ok {
		return board.NoMove, fmt.Errorf("%w: %s%s", board.ErrIllegalMove, from, to)
	}

	g.commit(m)
	return m, nil
}

// BotTurn lets the engine play the whole turn of the side to move, including
// every leg of a capture chain. The search runs alongside the bot delay so
// the turn takes at least BotDelay.
func (g *Game) BotTurn(ctx context.Context) ([]board.Move, error) {
	if g.result != InProgress {
		return nil, ErrGameOver
	}

	start := time.Now()
	depth := g.depth(g.side)

	var r engine.Result
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		var err error
		if g.active != board.NoSquare {
			r, err = g.eng.BestContinuation(g.active, g.grid, depth)
		} else {
			r, err = g.eng.BestMove(g.side, g.grid, depth)
		}
		return err
	})
	grp.Go(func() error {
		return sleep(gctx, g.opts.BotDelay)
	})
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	if r.Move.IsNone() {
		g.finish(g.winnerAgainst(g.side))
		return nil, ErrGameOver
	}

	played := []board.Move{r.Move}
	side := g.side
	g.commit(r.Move)

	for g.active != board.NoSquare && g.side == side {
		if err := sleep(ctx, g.opts.BotDelay); err != nil {
			return played, err
		}
		next, err := g.eng.BestContinuation(g.active, g.grid, depth)
		if err != nil {
			return played, err
		}
		if next.Move.IsNone() {
			break
		}
		played = append(played, next.Move)
		g.commit(next.Move)
	}

	g.log.Printf("bot turn took %v (%s, depth %d, %d moves)", time.Since(start).Round(time.Millisecond), side, depth, len(played))
	return played, nil
}

// Undo takes back the last move. A capture chain is taken back as a whole.
// When the side to move afterwards is a bot, its move is taken back too so
// the human is to move again.
func (g *Game) Undo() error {
	if len(g.history) <= 1 {
		return ErrNothingToUndo
	}

	g.rollback()
	if g.IsBot(g.side) && !g.IsBot(g.side.Other()) && len(g.history) > 1 {
		g.rollback()
	}
	g.result = InProgress
	g.checkResult()
	return nil
}

// rollback removes the newest history entries: a whole beat series, or a
// single entry for a quiet move.
func (g *Game) rollback() {
	n := max(1, g.history[len(g.history)-1].BeatSeries)
	for ; n > 0 && len(g.history) > 1; n-- {
		g.history = g.history[:len(g.history)-1]
	}
	g.load(g.history[len(g.history)-1])
}

// commit applies a generated move and updates turn bookkeeping.
func (g *Game) commit(m board.Move) {
	g.grid = g.grid.MakeMove(m)

	if m.IsCapture() {
		g.beatSeries++
		if _, more := g.grid.MovesForSquare(m.To); more {
			g.active = m.To
			g.push()
			return
		}
	}

	g.active = board.NoSquare
	g.side = g.side.Other()
	g.turn++
	g.push()
	g.beatSeries = 0
	g.checkResult()
}

func (g *Game) push() {
	g.history = append(g.history, HistoryEntry{
		Grid:       g.grid,
		Side:       g.side,
		Turn:       g.turn,
		BeatSeries: g.beatSeries,
		Active:     g.active,
	})
}

func (g *Game) load(h HistoryEntry) {
	g.grid = h.Grid
	g.side = h.Side
	g.turn = h.Turn
	g.active = h.Active
	g.beatSeries = 0
	if h.Active != board.NoSquare {
		g.beatSeries = h.BeatSeries
	}
}

// checkResult ends the game on the turn limit or when the side to move is stuck.
func (g *Game) checkResult() {
	if g.result != InProgress || g.active != board.NoSquare {
		return
	}
	if g.opts.MaxTurns > 0 && g.turn >= g.opts.MaxTurns {
		g.finish(Draw)
		return
	}
	if moves, _ := g.grid.LegalMoves(g.side, nil); len(moves) == 0 {
		g.finish(g.winnerAgainst(g.side))
	}
}

func (g *Game) finish(r Result) {
	g.result = r
	g.log.Printf("game over: %s after %d turns, game time %v", r, g.turn, time.Since(g.started).Round(time.Millisecond))
}

func (g *Game) winnerAgainst(stuck board.Color) Result {
	if stuck == board.White {
		return BlackWins
	}
	return WhiteWins
}

func (g *Game) player(side board.Color) Player {
	if side == board.White {
		return g.opts.White
	}
	return g.opts.Black
}

func (g *Game) depth(side board.Color) int {
	if d := g.player(side).Depth; d > 0 {
		return d
	}
	return DefaultDepth
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
