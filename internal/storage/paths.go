// Package storage persists settings, game statistics and the saved game.
package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName = "checkers"
	dbName  = "db"

	// DirEnv overrides the database location.
	DirEnv = "CHECKERS_DB_DIR"
)

// DefaultDir returns where Open("") keeps the database, creating it if
// needed. $CHECKERS_DB_DIR wins; otherwise it is <data home>/checkers/db,
// where data home is $XDG_DATA_HOME or ~/.local/share on Unix and the user
// config directory on macOS and Windows.
func DefaultDir() (string, error) {
	dir := os.Getenv(DirEnv)
	if dir == "" {
		home, err := dataHome()
		if err != nil {
			return "", fmt.Errorf("locate data directory: %w", err)
		}
		dir = filepath.Join(home, appName, dbName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create database directory: %w", err)
	}
	log.Printf("database directory: %s", dir)
	return dir, nil
}

func dataHome() (string, error) {
	switch runtime.GOOS {
	case "darwin", "windows":
		return os.UserConfigDir()
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share"), nil
}
