package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hailam/checkers/internal/engine"
	"github.com/hailam/checkers/internal/game"
)

// Settings holds player and engine configuration.
type Settings struct {
	IsWhiteBot    bool   `json:"is_white_bot"`
	IsBlackBot    bool   `json:"is_black_bot"`
	WhiteBotLevel int    `json:"white_bot_level"`
	BlackBotLevel int    `json:"black_bot_level"`
	ScoringMode   string `json:"scoring_mode"`
	BotDelayMS    int    `json:"bot_delay_ms"`
	NoRandom      bool   `json:"no_random"`
	MaxTurns      int    `json:"max_turns"`
	CacheSize     int64  `json:"cache_size"` // BestMove results kept in memory, 0 disables the cache
}

// DefaultSettings returns the settings used when nothing is stored:
// a human playing White against a bot.
func DefaultSettings() *Settings {
	return &Settings{
		IsWhiteBot:    false,
		IsBlackBot:    true,
		WhiteBotLevel: game.DefaultDepth,
		BlackBotLevel: game.DefaultDepth,
		ScoringMode:   engine.NumberAndPotential.String(),
		BotDelayMS:    0,
		NoRandom:      false,
		MaxTurns:      120,
		CacheSize:     1 << 14,
	}
}

// LoadSettingsFile reads a JSON settings file. Fields missing from the file
// keep their default values.
func LoadSettingsFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s := DefaultSettings()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings %s: %w", path, err)
	}
	return s, nil
}

// Validate checks that every value is usable.
func (s *Settings) Validate() error {
	for _, lvl := range []int{s.WhiteBotLevel, s.BlackBotLevel} {
		if lvl <= 0 || lvl > engine.MaxDepth {
			return fmt.Errorf("%w: bot level %d", engine.ErrInvalidDepth, lvl)
		}
	}
	if _, err := engine.ParseScoringMode(s.ScoringMode); err != nil {
		return err
	}
	if s.BotDelayMS < 0 {
		return fmt.Errorf("negative bot delay %d", s.BotDelayMS)
	}
	if s.MaxTurns < 0 {
		return fmt.Errorf("negative turn limit %d", s.MaxTurns)
	}
	if s.CacheSize < 0 {
		return fmt.Errorf("negative cache size %d", s.CacheSize)
	}
	return nil
}

// Scoring returns the parsed scoring mode. Unknown names fall back to NumberOnly.
func (s *Settings) Scoring() engine.ScoringMode {
	mode, err := engine.ParseScoringMode(s.ScoringMode)
	if err != nil {
		return engine.NumberOnly
	}
	return mode
}

// BotDelay returns the pause a bot makes before each move.
func (s *Settings) BotDelay() time.Duration {
	return time.Duration(s.BotDelayMS) * time.Millisecond
}

// GameOptions converts the settings into game options.
func (s *Settings) GameOptions() game.Options {
	return game.Options{
		White:    game.Player{Bot: s.IsWhiteBot, Depth: s.WhiteBotLevel},
		Black:    game.Player{Bot: s.IsBlackBot, Depth: s.BlackBotLevel},
		MaxTurns: s.MaxTurns,
		BotDelay: s.BotDelay(),
	}
}
