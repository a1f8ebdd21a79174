package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the server.
type Config struct {
	ServerPort int

	// DatabaseURL is optional: when empty the server runs memory-only,
	// which is the normal single-box LAN deployment.
	DatabaseURL string

	// PlayersFile optionally seeds the in-memory player directory from a
	// JSON array when no database is configured.
	PlayersFile string

	// ResetClearsPlayers controls whether a match reset also drops the
	// assigned players and restores the default display names.
	ResetClearsPlayers bool
}

// Load reads configuration from environment variables, optionally loading
// a .env file first for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	resetClearsPlayers := false
	if v := os.Getenv("RESET_CLEARS_PLAYERS"); v != "" {
		resetClearsPlayers, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RESET_CLEARS_PLAYERS environment variable: %w", err)
		}
	}

	return &Config{
		ServerPort:         port,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		PlayersFile:        os.Getenv("PLAYERS_FILE"),
		ResetClearsPlayers: resetClearsPlayers,
	}, nil
}
