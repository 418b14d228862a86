package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/checkers/internal/board"
	"github.com/hailam/checkers/internal/game"
)

// Storage keys
const (
	keySettings    = "settings"
	keyStats       = "stats"
	keySavedGame   = "saved_game"
	keyFirstLaunch = "first_launch"
)

// ErrNoSavedGame is returned by LoadGame when nothing was saved.
var ErrNoSavedGame = errors.New("no saved game")

// GameStats stores game statistics
type GameStats struct {
	GamesPlayed   int            `json:"games_played"`
	WhiteWins     int            `json:"white_wins"`
	BlackWins     int            `json:"black_wins"`
	Draws         int            `json:"draws"`
	GamesByMode   map[string]int `json:"games_by_mode"`
	TotalTurns    int            `json:"total_turns"`
	LongestGame   int            `json:"longest_game"`
	TotalPlayTime time.Duration  `json:"total_play_time"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{
		GamesByMode: make(map[string]int),
	}
}

// GameResult describes a finished game.
type GameResult struct {
	Result   game.Result
	Turns    int
	WhiteBot bool
	BlackBot bool
	Duration time.Duration
}

// SavedEntry is one history entry in its stored form.
type SavedEntry struct {
	Position   string `json:"position"`
	Turn       int    `json:"turn"`
	BeatSeries int    `json:"beat_series"`
	Active     string `json:"active,omitempty"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// Open opens the database in dir. An empty dir selects DefaultDir.
func Open(dir string) (*Storage, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	return open(badger.DefaultOptions(dir))
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory() (*Storage, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Storage, error) {
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsFirstLaunch returns true if this is the first launch
func (s *Storage) IsFirstLaunch() (bool, error) {
	firstLaunch := true

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		firstLaunch = false
		return nil
	})

	return firstLaunch, err
}

// MarkFirstLaunchComplete marks that first launch setup is complete
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyFirstLaunch), []byte("done"))
	})
}

// SaveSettings saves the settings.
func (s *Storage) SaveSettings(settings *Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.put(keySettings, settings)
}

// LoadSettings loads the settings, returns defaults if not found
func (s *Storage) LoadSettings() (*Settings, error) {
	settings := DefaultSettings()
	if _, err := s.get(keySettings, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// SaveStats saves game statistics
func (s *Storage) SaveStats(stats *GameStats) error {
	return s.put(keyStats, stats)
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()
	if _, err := s.get(keyStats, stats); err != nil {
		return nil, err
	}
	if stats.GamesByMode == nil {
		stats.GamesByMode = make(map[string]int)
	}
	return stats, nil
}

// RecordGame records a completed game and updates statistics
func (s *Storage) RecordGame(result GameResult) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.GamesPlayed++
	stats.TotalTurns += result.Turns
	stats.TotalPlayTime += result.Duration
	if result.Turns > stats.LongestGame {
		stats.LongestGame = result.Turns
	}
	stats.GamesByMode[modeKey(result.WhiteBot, result.BlackBot)]++

	switch result.Result {
	case game.WhiteWins:
		stats.WhiteWins++
	case game.BlackWins:
		stats.BlackWins++
	case game.Draw:
		stats.Draws++
	default:
		return fmt.Errorf("cannot record unfinished game (%s)", result.Result)
	}

	return s.SaveStats(stats)
}

// WhiteWinRate returns the share of games won by White as a percentage (0-100)
func (s *GameStats) WhiteWinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.WhiteWins) / float64(s.GamesPlayed) * 100
}

// AverageTurns returns the mean game length.
func (s *GameStats) AverageTurns() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.TotalTurns) / float64(s.GamesPlayed)
}

func modeKey(whiteBot, blackBot bool) string {
	switch {
	case whiteBot && blackBot:
		return "bvb"
	case whiteBot || blackBot:
		return "hvb"
	default:
		return "hvh"
	}
}

// SaveGame stores a game history, replacing any earlier save.
func (s *Storage) SaveGame(history []game.HistoryEntry) error {
	if len(history) == 0 {
		return errors.New("empty history")
	}

	entries := make([]SavedEntry, len(history))
	for i, h := range history {
		entries[i] = SavedEntry{
			Position:   board.FormatPosition(h.Grid, h.Side),
			Turn:       h.Turn,
			BeatSeries: h.BeatSeries,
		}
		if h.Active != board.NoSquare {
			entries[i].Active = h.Active.String()
		}
	}
	return s.put(keySavedGame, entries)
}

// LoadGame returns the saved history, or ErrNoSavedGame.
func (s *Storage) LoadGame() ([]game.HistoryEntry, error) {
	var entries []SavedEntry
	found, err := s.get(keySavedGame, &entries)
	if err != nil {
		return nil, err
	}
	if !found || len(entries) == 0 {
		return nil, ErrNoSavedGame
	}

	history := make([]game.HistoryEntry, len(entries))
	for i, e := range entries {
		grid, side, err := board.ParsePosition(e.Position)
		if err != nil {
			return nil, fmt.Errorf("saved entry %d: %w", i, err)
		}
		active := board.NoSquare
		if e.Active != "" {
			if active, err = board.ParseSquare(e.Active); err != nil {
				return nil, fmt.Errorf("saved entry %d: %w", i, err)
			}
		}
		history[i] = game.HistoryEntry{
			Grid:       grid,
			Side:       side,
			Turn:       e.Turn,
			BeatSeries: e.BeatSeries,
			Active:     active,
		}
	}
	return history, nil
}

// DeleteGame removes the saved game, if any.
func (s *Storage) DeleteGame() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keySavedGame))
	})
}

func (s *Storage) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get decodes the value under key into v and reports whether it existed.
func (s *Storage) get(key string, v any) (bool, error) {
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})

	return found, err
}
