package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"compact-conflict/internal/config"
	"compact-conflict/internal/logger"
	"compact-conflict/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Config file")
	port := flag.String("port", "", "Server port (overrides config)")
	dbPath := flag.String("db", "", "Database path (overrides config)")
	maxMatches := flag.Int("max-matches", 8, "Maximum concurrently hosted matches, 0 for no limit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	logger.Init(cfg.Log.Level)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}

	// Flags win over both the file and the environment
	if *port != "" {
		cfg.Server.Addr = ":" + *port
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}

	setup, err := cfg.Setup()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid game settings")
	}

	srv, err := server.New(server.Config{
		Addr:        cfg.Server.Addr,
		DBPath:      cfg.Server.DBPath,
		SnapshotDir: cfg.Server.SnapshotDir,
		Setup:       setup,
		Picker:      cfg.PickerOptions(),
		MaxMatches:  *maxMatches,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	// Handle shutdown gracefully
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			done <- syscall.SIGTERM
		}
	}()

	<-done
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped")
}
