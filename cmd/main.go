package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/score-control/config"
	"github.com/Dosada05/score-control/db"
	"github.com/Dosada05/score-control/handlers"
	"github.com/Dosada05/score-control/models"
	"github.com/Dosada05/score-control/repositories"
	api "github.com/Dosada05/score-control/routes"
	"github.com/Dosada05/score-control/scoreboard"
	"github.com/Dosada05/score-control/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	var (
		matchStateRepo repositories.MatchStateRepository
		playerRepo     repositories.PlayerRepository
	)
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			}
		}()
		matchStateRepo = repositories.NewPostgresMatchStateRepository(dbConn)
		playerRepo = repositories.NewPostgresPlayerRepository(dbConn)
		logger.Info("database connection established, snapshots persisted")
	} else {
		players, err := loadPlayersFile(cfg.PlayersFile)
		if err != nil {
			logger.Error("failed to load players file", slog.Any("error", err))
			os.Exit(1)
		}
		playerRepo = repositories.NewInMemoryPlayerRepository(players...)
		logger.Info("running memory-only, no DATABASE_URL configured",
			slog.Int("seeded_players", len(players)))
	}

	clock := clockwork.NewRealClock()

	store := scoreboard.NewStore(clock, matchStateRepo, logger)
	hub := scoreboard.NewHub(logger)

	matchService := services.NewMatchService(store, playerRepo, hub, clock, cfg.ResetClearsPlayers, logger)

	matchHandler := handlers.NewMatchHandler(matchService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, store, clock, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, matchHandler, webSocketHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("shutting down server")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server shutdown complete")
}

// loadPlayersFile reads a JSON array of players for the in-memory
// directory. An empty path yields an empty directory.
func loadPlayersFile(path string) ([]models.Player, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read players file %q: %w", path, err)
	}
	var players []models.Player
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, fmt.Errorf("failed to parse players file %q: %w", path, err)
	}
	return players, nil
}
