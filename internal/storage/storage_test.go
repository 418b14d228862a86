package storage

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/hailam/checkers/internal/board"
	"github.com/hailam/checkers/internal/engine"
	"github.com/hailam/checkers/internal/game"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorage(t *testing.T) {
	t.Run("DefaultSettings", func(t *testing.T) {
		s := DefaultSettings()
		if s.IsWhiteBot || !s.IsBlackBot {
			t.Errorf("Expected human white against bot black")
		}
		if s.Scoring() != engine.NumberAndPotential {
			t.Errorf("Expected potential scoring, got %v", s.Scoring())
		}
		if err := s.Validate(); err != nil {
			t.Errorf("Default settings invalid: %v", err)
		}
	})

	t.Run("NewGameStats", func(t *testing.T) {
		stats := NewGameStats()
		if stats.GamesPlayed != 0 {
			t.Errorf("Expected 0 games played")
		}
		if stats.WhiteWinRate() != 0 || stats.AverageTurns() != 0 {
			t.Errorf("Expected zero rates")
		}
	})

	t.Run("WinRate", func(t *testing.T) {
		stats := &GameStats{
			GamesPlayed: 10,
			WhiteWins:   5,
			BlackWins:   3,
			Draws:       2,
			TotalTurns:  400,
		}
		if rate := stats.WhiteWinRate(); rate != 50 {
			t.Errorf("Expected 50%% win rate, got %.2f%%", rate)
		}
		if avg := stats.AverageTurns(); avg != 40 {
			t.Errorf("Expected 40 turns per game, got %.2f", avg)
		}
	})
}

func TestFirstLaunch(t *testing.T) {
	s := openTest(t)

	first, err := s.IsFirstLaunch()
	if err != nil || !first {
		t.Fatalf("IsFirstLaunch = %v, %v; want true", first, err)
	}
	if err := s.MarkFirstLaunchComplete(); err != nil {
		t.Fatalf("MarkFirstLaunchComplete: %v", err)
	}
	if first, _ := s.IsFirstLaunch(); first {
		t.Error("still first launch after marking it complete")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := openTest(t)

	loaded, err := s.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if *loaded != *DefaultSettings() {
		t.Errorf("empty store returned %+v, want defaults", loaded)
	}

	want := DefaultSettings()
	want.IsWhiteBot = true
	want.WhiteBotLevel = 6
	want.ScoringMode = "NumberOnly"
	want.BotDelayMS = 250
	want.NoRandom = true
	if err := s.SaveSettings(want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	got, err := s.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if *got != *want {
		t.Errorf("LoadSettings = %+v, want %+v", got, want)
	}
	if got.BotDelay() != 250*time.Millisecond {
		t.Errorf("BotDelay = %v", got.BotDelay())
	}

	bad := DefaultSettings()
	bad.BlackBotLevel = 0
	if err := s.SaveSettings(bad); !errors.Is(err, engine.ErrInvalidDepth) {
		t.Errorf("SaveSettings(level 0) error = %v, want ErrInvalidDepth", err)
	}
}

func TestLoadSettingsFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "settings.json")
	data := `{"is_white_bot": true, "white_bot_level": 3, "scoring_mode": "NumberOnly", "max_turns": 50}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettingsFile(path)
	if err != nil {
		t.Fatalf("LoadSettingsFile: %v", err)
	}
	if !s.IsWhiteBot || s.WhiteBotLevel != 3 || s.MaxTurns != 50 || s.Scoring() != engine.NumberOnly {
		t.Errorf("unexpected settings %+v", s)
	}
	if !s.IsBlackBot || s.BlackBotLevel != game.DefaultDepth {
		t.Errorf("missing fields did not keep defaults: %+v", s)
	}

	opts := s.GameOptions()
	if !opts.White.Bot || opts.White.Depth != 3 || opts.MaxTurns != 50 {
		t.Errorf("GameOptions = %+v", opts)
	}

	badPath := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badPath, []byte(`{"scoring_mode": "Optimal"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettingsFile(badPath); err == nil {
		t.Error("unknown scoring mode accepted")
	}
	if _, err := LoadSettingsFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestRecordGame(t *testing.T) {
	s := openTest(t)

	results := []GameResult{
		{Result: game.WhiteWins, Turns: 30, BlackBot: true, Duration: time.Minute},
		{Result: game.BlackWins, Turns: 50, WhiteBot: true, BlackBot: true},
		{Result: game.Draw, Turns: 120},
	}
	for _, r := range results {
		if err := s.RecordGame(r); err != nil {
			t.Fatalf("RecordGame(%+v): %v", r, err)
		}
	}
	if err := s.RecordGame(GameResult{Result: game.InProgress}); err == nil {
		t.Error("unfinished game recorded")
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.GamesPlayed != 3 || stats.WhiteWins != 1 || stats.BlackWins != 1 || stats.Draws != 1 {
		t.Errorf("unexpected totals %+v", stats)
	}
	if stats.LongestGame != 120 || stats.TotalTurns != 200 {
		t.Errorf("turn stats = %d longest, %d total", stats.LongestGame, stats.TotalTurns)
	}
	for mode, want := range map[string]int{"hvb": 1, "bvb": 1, "hvh": 1} {
		if stats.GamesByMode[mode] != want {
			t.Errorf("games by mode %s = %d, want %d", mode, stats.GamesByMode[mode], want)
		}
	}
}

func TestSavedGame(t *testing.T) {
	s := openTest(t)

	if _, err := s.LoadGame(); !errors.Is(err, ErrNoSavedGame) {
		t.Fatalf("LoadGame on empty store error = %v, want ErrNoSavedGame", err)
	}

	start := board.StartGrid()
	c3, _ := board.ParseSquare("c3")
	d4, _ := board.ParseSquare("d4")
	history := []game.HistoryEntry{
		{Grid: start, Side: board.White, Active: board.NoSquare},
		{Grid: start.MakeMove(board.NewMove(c3, d4)), Side: board.Black, Turn: 1, Active: board.NoSquare},
		{Grid: start, Side: board.Black, Turn: 1, BeatSeries: 1, Active: d4},
	}
	if err := s.SaveGame(history); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}

	got, err := s.LoadGame()
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if len(got) != len(history) {
		t.Fatalf("loaded %d entries, want %d", len(got), len(history))
	}
	for i := range history {
		if got[i] != history[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], history[i])
		}
	}

	if err := s.DeleteGame(); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
	if _, err := s.LoadGame(); !errors.Is(err, ErrNoSavedGame) {
		t.Errorf("LoadGame after delete error = %v, want ErrNoSavedGame", err)
	}
}

func TestOpenDir(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.SaveStats(&GameStats{GamesPlayed: 7}); err != nil {
		t.Fatalf("SaveStats: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.GamesPlayed != 7 {
		t.Errorf("GamesPlayed = %d after reopen, want 7", stats.GamesPlayed)
	}
}

func TestDefaultDir(t *testing.T) {
	override := filepath.Join(t.TempDir(), "games")
	t.Setenv(DirEnv, override)

	dir, err := DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir: %v", err)
	}
	if dir != override {
		t.Errorf("DefaultDir = %q, want %q", dir, override)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("database directory not created: %v", err)
	}

	s, err := Open("")
	if err != nil {
		t.Fatalf("Open(\"\"): %v", err)
	}
	defer s.Close()
	if err := s.SaveSettings(DefaultSettings()); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if _, err := os.Stat(filepath.Join(override, "MANIFEST")); err != nil {
		t.Errorf("database not written under %s: %v", override, err)
	}
}

func TestDefaultDirDataHome(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("uses the user config directory")
	}
	home := t.TempDir()
	t.Setenv(DirEnv, "")
	t.Setenv("XDG_DATA_HOME", home)

	dir, err := DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir: %v", err)
	}
	if want := filepath.Join(home, "checkers", "db"); dir != want {
		t.Errorf("DefaultDir = %q, want %q", dir, want)
	}
}
