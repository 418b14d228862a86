// Package protocol implements a line-based text protocol for driving a
// checkers game from another program or a terminal.
package protocol

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/checkers/internal/board"
	"github.com/hailam/checkers/internal/engine"
	"github.com/hailam/checkers/internal/game"
	"github.com/hailam/checkers/internal/storage"
)

// Handler reads commands and drives a single game.
type Handler struct {
	eng      *engine.Engine
	settings *storage.Settings
	store    *storage.Storage // nil disables save, load and stats

	game      *game.Game
	announced bool // result line printed for the current outcome
	recorded  bool // outcome stored; survives undo so a game counts once
	started   time.Time

	out io.Writer

	// Diag receives "info string" diagnostics. Defaults to os.Stderr.
	Diag io.Writer
	// Logger is passed to every game. nil means log.Default().
	Logger *log.Logger

	// CPU profiling
	profileFile *os.File
}

// New creates a protocol handler. settings may be nil for defaults.
func New(eng *engine.Engine, settings *storage.Settings, store *storage.Storage) *Handler {
	if settings == nil {
		settings = storage.DefaultSettings()
	}
	return &Handler{
		eng:      eng,
		settings: settings,
		store:    store,
		out:      os.Stdout,
	}
}

// Run reads commands from in until "quit", end of input or ctx is done.
func (h *Handler) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	h.out = out
	if h.Diag == nil {
		h.Diag = os.Stderr
	}
	h.eng.OnInfo = h.sendInfo
	h.newGame()
	defer h.stopProfile()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "checkers":
			h.handleHello()
		case "isready":
			h.println("readyok")
		case "newgame":
			h.newGame()
		case "position":
			h.handlePosition(args)
		case "moves":
			h.handleMoves()
		case "play":
			h.handlePlay(ctx, args)
		case "go":
			h.handleGo(ctx, args)
		case "undo":
			h.handleUndo()
		case "setoption":
			h.handleSetOption(args)
		case "save":
			h.handleSave()
		case "load":
			h.handleLoad()
		case "stats":
			h.handleStats()
		case "quit":
			return nil
		// Debug commands
		case "d":
			h.handleDisplay()
		case "eval":
			h.println("eval", engine.ScoreToString(h.eng.Evaluate(h.game.Side(), h.game.Grid())))
		case "perft":
			h.handlePerft(args)
		default:
			h.diag("Unknown command: %s", cmd)
		}
	}
	return scanner.Err()
}

func (h *Handler) handleHello() {
	h.println("id name Checkers")
	h.println("id author hailam")
	h.println()
	h.println("option name WhiteBot type check default", h.settings.IsWhiteBot)
	h.println("option name BlackBot type check default", h.settings.IsBlackBot)
	h.println(fmt.Sprintf("option name WhiteLevel type spin default %d min 1 max %d", h.settings.WhiteBotLevel, engine.MaxDepth))
	h.println(fmt.Sprintf("option name BlackLevel type spin default %d min 1 max %d", h.settings.BlackBotLevel, engine.MaxDepth))
	h.println("option name Scoring type combo default", h.eng.Scoring(), "var NumberOnly var NumberAndPotential")
	h.println("option name BotDelay type spin default", h.settings.BotDelayMS)
	h.println("option name MaxTurns type spin default", h.settings.MaxTurns)
	h.println("option name CPUProfile type string default <empty>")
	h.println("checkersok")
}

func (h *Handler) options() game.Options {
	opts := h.settings.GameOptions()
	opts.Logger = h.Logger
	return opts
}

func (h *Handler) newGame() {
	h.setGame(game.New(h.eng, h.options()))
}

func (h *Handler) setGame(g *game.Game) {
	h.game = g
	h.announced = false
	h.recorded = false
	h.started = time.Now()
}

// handlePosition sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves c3d4 f6e5
//   - position pos <notation>
//   - position pos <notation> moves c3d4
func (h *Handler) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var g *game.Game
	switch args[0] {
	case "startpos":
		g = game.New(h.eng, h.options())
	case "pos":
		grid, side, err := board.ParsePosition(strings.Join(args[1:movesAt], " "))
		if err != nil {
			h.diag("Invalid position: %v", err)
			return
		}
		if g, err = game.NewFromPosition(h.eng, h.options(), grid, side); err != nil {
			h.diag("Invalid position: %v", err)
			return
		}
	default:
		h.diag("Unknown position type: %s", args[0])
		return
	}
	h.setGame(g)

	if movesAt < len(args) {
		for _, s := range args[movesAt+1:] {
			if _, err := h.playMove(s); err != nil {
				h.diag("Invalid move %s: %v", s, err)
				return
			}
		}
	}
}

func (h *Handler) playMove(s string) (board.Move, error) {
	m, err := board.ParseMove(s)
	if err != nil {
		return board.NoMove, err
	}
	return h.game.Play(m.From, m.To)
}

func (h *Handler) handleMoves() {
	moves := h.game.LegalMoves()
	if len(moves) == 0 {
		h.println("moves none")
		return
	}
	h.println("moves", moves.String())
}

// handlePlay plays human moves and lets bots answer.
func (h *Handler) handlePlay(ctx context.Context, args []string) {
	if len(args) == 0 {
		h.diag("play needs a move")
		return
	}

	for _, s := range args {
		m, err := h.playMove(s)
		if err != nil {
			h.diag("Invalid move %s: %v", s, err)
			return
		}
		h.println("played", m)
	}
	h.reportResult()
	h.runBots(ctx)
}

// runBots plays bot turns until a human is to move or the game ends.
func (h *Handler) runBots(ctx context.Context) {
	for h.game.Result() == game.InProgress && h.game.IsBot(h.game.Side()) {
		if !h.botTurn(ctx) {
			return
		}
	}
}

// handleGo makes the engine play the current turn, whoever owns the side.
func (h *Handler) handleGo(ctx context.Context, args []string) {
	side := h.game.Side()
	opts := h.game.Options()
	prev := opts.White
	if side == board.Black {
		prev = opts.Black
	}

	for i := 0; i < len(args); i++ {
		if args[i] == "depth" && i+1 < len(args) {
			depth, err := strconv.Atoi(args[i+1])
			if err != nil || depth <= 0 || depth > engine.MaxDepth {
				h.diag("Invalid depth: %s", args[i+1])
				return
			}
			h.game.SetPlayer(side, game.Player{Bot: prev.Bot, Depth: depth})
			defer h.game.SetPlayer(side, prev)
			i++
		}
	}

	h.botTurn(ctx)
}

func (h *Handler) botTurn(ctx context.Context) bool {
	played, err := h.game.BotTurn(ctx)
	if errors.Is(err, game.ErrGameOver) {
		h.println("bestmove none")
		h.reportResult()
		return false
	}
	if err != nil {
		h.diag("Search failed: %v", err)
		return false
	}

	legs := make([]string, len(played))
	for i, m := range played {
		legs[i] = m.String()
	}
	h.println("bestmove", strings.Join(legs, " "))
	h.reportResult()
	return true
}

// reportResult announces a finished game once and records it.
func (h *Handler) reportResult() {
	r := h.game.Result()
	if r == game.InProgress || h.announced {
		return
	}
	h.announced = true
	h.println("result", r)

	if h.store == nil || h.recorded {
		return
	}
	h.recorded = true
	opts := h.game.Options()
	err := h.store.RecordGame(storage.GameResult{
		Result:   r,
		Turns:    h.game.Turn(),
		WhiteBot: opts.White.Bot,
		BlackBot: opts.Black.Bot,
		Duration: time.Since(h.started),
	})
	if err != nil {
		h.diag("Failed to record game: %v", err)
	}
}

func (h *Handler) handleUndo() {
	if err := h.game.Undo(); err != nil {
		h.diag("Cannot undo: %v", err)
		return
	}
	if h.game.Result() == game.InProgress {
		h.announced = false
	}
	h.println("undone turn", h.game.Turn())
}

func (h *Handler) handleDisplay() {
	g := h.game
	h.println(g.Grid().String())
	h.println("position", board.FormatPosition(g.Grid(), g.Side()))
	h.println(fmt.Sprintf("turn %d side %s result %s", g.Turn(), g.Side(), g.Result()))
	if g.Active() != board.NoSquare {
		h.println(fmt.Sprintf("active %s series %d", g.Active(), g.BeatSeries()))
	}
}

func (h *Handler) handlePerft(args []string) {
	if len(args) == 0 {
		h.diag("perft needs a depth")
		return
	}
	depth, err := strconv.Atoi(args[0])
	if err != nil || depth < 0 {
		h.diag("Invalid depth: %s", args[0])
		return
	}

	start := time.Now()
	nodes := h.eng.Perft(h.game.Side(), h.game.Grid(), depth)
	elapsed := time.Since(start)
	h.println(fmt.Sprintf("perft %d nodes %d time %d", depth, nodes, elapsed.Milliseconds()))
}

func (h *Handler) handleSetOption(args []string) {
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName = true
			readingValue = false
		case "value":
			readingName = false
			readingValue = true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	s := h.settings
	switch strings.ToLower(name) {
	case "whitebot":
		s.IsWhiteBot = strings.ToLower(value) == "true"
		h.game.SetPlayer(board.White, game.Player{Bot: s.IsWhiteBot, Depth: s.WhiteBotLevel})
	case "blackbot":
		s.IsBlackBot = strings.ToLower(value) == "true"
		h.game.SetPlayer(board.Black, game.Player{Bot: s.IsBlackBot, Depth: s.BlackBotLevel})
	case "whitelevel", "blacklevel":
		depth, err := strconv.Atoi(value)
		if err != nil || depth <= 0 || depth > engine.MaxDepth {
			h.diag("Invalid level: %s", value)
			return
		}
		if strings.ToLower(name) == "whitelevel" {
			s.WhiteBotLevel = depth
			h.game.SetPlayer(board.White, game.Player{Bot: s.IsWhiteBot, Depth: depth})
		} else {
			s.BlackBotLevel = depth
			h.game.SetPlayer(board.Black, game.Player{Bot: s.IsBlackBot, Depth: depth})
		}
	case "scoring":
		mode, err := engine.ParseScoringMode(value)
		if err != nil {
			h.diag("Invalid scoring: %v", err)
			return
		}
		s.ScoringMode = mode.String()
		h.eng.SetScoring(mode)
	case "botdelay", "maxturns":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			h.diag("Invalid value for %s: %s", name, value)
			return
		}
		if strings.ToLower(name) == "botdelay" {
			s.BotDelayMS = n
		} else {
			s.MaxTurns = n
		}
		h.diag("%s applies from the next game", name)
	case "cpuprofile":
		h.stopProfile()
		if value != "" && value != "stop" {
			f, err := os.Create(value)
			if err != nil {
				h.diag("Failed to create profile: %v", err)
				return
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				h.diag("Failed to start profile: %v", err)
				return
			}
			h.profileFile = f
			h.diag("CPU profiling to %s", value)
		}
		return
	default:
		h.diag("Unknown option: %s", name)
		return
	}

	if h.store != nil {
		if err := h.store.SaveSettings(s); err != nil {
			h.diag("Failed to save settings: %v", err)
		}
	}
}

func (h *Handler) stopProfile() {
	if h.profileFile == nil {
		return
	}
	pprof.StopCPUProfile()
	h.profileFile.Close()
	h.profileFile = nil
	h.diag("CPU profile saved")
}

func (h *Handler) handleSave() {
	if h.store == nil {
		h.diag("No storage configured")
		return
	}
	if err := h.store.SaveGame(h.game.History()); err != nil {
		h.diag("Failed to save game: %v", err)
		return
	}
	h.println("saved turn", h.game.Turn())
}

func (h *Handler) handleLoad() {
	if h.store == nil {
		h.diag("No storage configured")
		return
	}
	history, err := h.store.LoadGame()
	if err != nil {
		h.diag("Failed to load game: %v", err)
		return
	}
	g, err := game.Restore(h.eng, h.options(), history)
	if err != nil {
		h.diag("Failed to restore game: %v", err)
		return
	}
	h.setGame(g)
	h.println("loaded turn", g.Turn())
}

func (h *Handler) handleStats() {
	if h.store == nil {
		h.diag("No storage configured")
		return
	}
	st, err := h.store.LoadStats()
	if err != nil {
		h.diag("Failed to load stats: %v", err)
		return
	}
	h.println(fmt.Sprintf("stats games %d white %d black %d draws %d avgturns %.1f",
		st.GamesPlayed, st.WhiteWins, st.BlackWins, st.Draws, st.AverageTurns()))
}

func (h *Handler) sendInfo(info engine.SearchInfo) {
	parts := []string{
		fmt.Sprintf("side %s", info.Side),
		fmt.Sprintf("depth %d", info.Depth),
		fmt.Sprintf("score %s", engine.ScoreToString(info.Score)),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	}
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	parts = append(parts, "pv "+info.Move.String())

	h.println("info " + strings.Join(parts, " "))
}

func (h *Handler) println(a ...any) {
	fmt.Fprintln(h.out, a...)
}

func (h *Handler) diag(format string, a ...any) {
	fmt.Fprintf(h.Diag, "info string "+format+"\n", a...)
}
