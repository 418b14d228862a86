package protocol

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/hailam/checkers/internal/board"
	"github.com/hailam/checkers/internal/engine"
	"github.com/hailam/checkers/internal/storage"
)

func humans() *storage.Settings {
	s := storage.DefaultSettings()
	s.IsWhiteBot = false
	s.IsBlackBot = false
	return s
}

func newHandler(t *testing.T, settings *storage.Settings, store *storage.Storage) *Handler {
	t.Helper()
	eng := engine.NewEngine(engine.Config{Scoring: settings.Scoring(), Rand: engine.NewRandSource(0)})
	h := New(eng, settings, store)
	h.Logger = log.New(io.Discard, "", 0)
	return h
}

func openStore(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// run feeds input to h and returns stdout and diagnostics.
func run(t *testing.T, h *Handler, input string) (string, string) {
	t.Helper()
	var out, diag bytes.Buffer
	h.Diag = &diag
	if err := h.Run(context.Background(), strings.NewReader(input), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String(), diag.String()
}

func TestHandshake(t *testing.T) {
	out, _ := run(t, newHandler(t, humans(), nil), "checkers\nisready\nquit\nisready\n")

	if !strings.Contains(out, "checkersok") {
		t.Errorf("missing checkersok in %q", out)
	}
	if n := strings.Count(out, "readyok"); n != 1 {
		t.Errorf("readyok printed %d times, want 1 (quit must stop the loop)", n)
	}
}

func TestMovesAtStart(t *testing.T) {
	out, _ := run(t, newHandler(t, humans(), nil), "moves\n")

	line := strings.TrimSpace(out)
	fields := strings.Fields(line)
	if len(fields) != 8 || fields[0] != "moves" {
		t.Errorf("moves output %q, want 7 moves", line)
	}
}

func TestPlayAndUndo(t *testing.T) {
	h := newHandler(t, humans(), nil)
	out, diag := run(t, h, "play c3d4\nd\nundo\nd\n")

	for _, want := range []string{"played c3d4", "turn 1 side Black", "undone turn 0", "turn 0 side White"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if diag != "" {
		t.Errorf("unexpected diagnostics %q", diag)
	}
}

func TestInvalidInput(t *testing.T) {
	h := newHandler(t, humans(), nil)
	_, diag := run(t, h, "play c3c4\nposition pos nonsense\nfoo\nundo\n")

	for _, want := range []string{"Invalid move c3c4", "Invalid position", "Unknown command: foo", "Cannot undo"} {
		if !strings.Contains(diag, want) {
			t.Errorf("diagnostics missing %q:\n%s", want, diag)
		}
	}
	if h.game.Turn() != 0 {
		t.Errorf("invalid input changed the game")
	}
}

func TestPositionWithMoves(t *testing.T) {
	h := newHandler(t, humans(), nil)
	out, _ := run(t, h, "position startpos moves c3d4 f6e5\nd\n")

	if !strings.Contains(out, "turn 2 side White") {
		t.Errorf("moves were not applied:\n%s", out)
	}
}

func TestWinIsRecorded(t *testing.T) {
	store := openStore(t)
	h := newHandler(t, storage.DefaultSettings(), store)

	out, _ := run(t, h, "position pos 8/8/8/4b3/3w4/8/8/8 w\nplay d4f6\nstats\n")

	for _, want := range []string{"played d4xf6", "result white wins", "stats games 1 white 1 black 0 draws 0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReplayAfterUndoCountsOnce(t *testing.T) {
	store := openStore(t)
	h := newHandler(t, humans(), store)

	out, _ := run(t, h, "position pos 8/8/8/4b3/3w4/8/8/8 w\nplay d4f6\nundo\nplay d4f6\nstats\n")

	if n := strings.Count(out, "result white wins"); n != 2 {
		t.Errorf("result announced %d times, want 2:\n%s", n, out)
	}
	if !strings.Contains(out, "stats games 1 white 1 black 0 draws 0") {
		t.Errorf("replayed game counted twice:\n%s", out)
	}
}

func TestBotReplies(t *testing.T) {
	settings := humans()
	settings.IsBlackBot = true
	settings.BlackBotLevel = 2

	h := newHandler(t, settings, nil)
	out, _ := run(t, h, "play c3d4\nd\n")

	if !strings.Contains(out, "info side Black depth 2") {
		t.Errorf("missing search info:\n%s", out)
	}
	if !strings.Contains(out, "bestmove ") {
		t.Errorf("bot did not answer:\n%s", out)
	}
	if !strings.Contains(out, "turn 2 side White") {
		t.Errorf("bot reply not committed:\n%s", out)
	}
}

func TestGoDepth(t *testing.T) {
	settings := humans()
	h := newHandler(t, settings, nil)
	out, _ := run(t, h, "go depth 1\n")

	var best string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "bestmove ") {
			best = strings.TrimPrefix(line, "bestmove ")
		}
	}
	m, err := board.ParseMove(best)
	if err != nil {
		t.Fatalf("bestmove %q: %v", best, err)
	}
	legal, _ := board.StartGrid().LegalMoves(board.White, nil)
	if !legal.Contains(m) {
		t.Errorf("bestmove %v is not legal", m)
	}
	if h.game.Turn() != 1 {
		t.Errorf("turn = %d, want 1", h.game.Turn())
	}
	if got := h.game.Options().White; got.Depth != settings.WhiteBotLevel || got.Bot {
		t.Errorf("go depth changed the player permanently: %+v", got)
	}
}

func TestPerft(t *testing.T) {
	out, _ := run(t, newHandler(t, humans(), nil), "perft 3\n")
	if !strings.Contains(out, "perft 3 nodes 302") {
		t.Errorf("unexpected perft output %q", out)
	}
}

func TestSetOption(t *testing.T) {
	store := openStore(t)
	h := newHandler(t, storage.DefaultSettings(), store)

	_, diag := run(t, h, "setoption name Scoring value NumberOnly\nsetoption name BlackLevel value 99\nsetoption name WhiteBot value true\n")

	if h.eng.Scoring() != engine.NumberOnly {
		t.Errorf("scoring = %v, want NumberOnly", h.eng.Scoring())
	}
	if !strings.Contains(diag, "Invalid level: 99") {
		t.Errorf("diagnostics missing invalid level:\n%s", diag)
	}
	if !h.game.IsBot(board.White) {
		t.Error("WhiteBot option not applied to the running game")
	}

	saved, err := store.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if saved.ScoringMode != "NumberOnly" || !saved.IsWhiteBot || saved.BlackBotLevel == 99 {
		t.Errorf("stored settings %+v", saved)
	}
}

func TestSaveAndLoad(t *testing.T) {
	store := openStore(t)
	h := newHandler(t, humans(), store)

	out, diag := run(t, h, "play c3d4\nsave\nnewgame\nload\nd\n")

	for _, want := range []string{"saved turn 1", "loaded turn 1", "turn 1 side Black"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if diag != "" {
		t.Errorf("unexpected diagnostics %q", diag)
	}

	_, diag = run(t, newHandler(t, humans(), nil), "save\n")
	if !strings.Contains(diag, "No storage configured") {
		t.Errorf("save without storage: %q", diag)
	}
}
