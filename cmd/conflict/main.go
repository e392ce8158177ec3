package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"compact-conflict/internal/ai"
	"compact-conflict/internal/config"
	"compact-conflict/internal/database"
	"compact-conflict/internal/game"
	"compact-conflict/internal/logger"
	"compact-conflict/internal/match"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Config file")
	headless := flag.Bool("headless", false, "Let the AI play every occupied seat")
	seed := flag.Int64("seed", 0, "Map seed, 0 for a random map")
	record := flag.Bool("record", false, "Store the match in the database")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	logger.InitWriter(cfg.Log.Level, os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}

	setup, err := cfg.Setup()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid game settings")
	}
	if *seed != 0 {
		setup.Seed = *seed
	}
	if setup.Seed == 0 {
		setup.Seed = time.Now().UnixNano()
	}
	if *headless {
		for i, c := range setup.Seats {
			if c == game.ControllerHuman {
				setup.Seats[i] = game.ControllerAI
			}
		}
	}

	g, err := game.NewGame(setup)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create game")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := play(ctx, cfg, g, *record); err != nil && !errors.Is(err, errQuit) && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Match failed")
	}
}

func play(ctx context.Context, cfg config.Config, g *game.GameState, record bool) error {
	fmt.Printf("seed %d, %d regions, %s\n", g.Setup.Seed, g.Map.Len(), g.Setup.Difficulty)

	runCfg := match.Config{
		ID:        uuid.NewString(),
		Observers: []match.Observer{announcer{out: os.Stdout}},
	}
	if record {
		db, err := database.New(cfg.Server.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		rec, err := db.CreateGame(g.Setup, g.Players)
		if err != nil {
			return fmt.Errorf("create game: %w", err)
		}
		runCfg.ID = rec.ID
		runCfg.Recorder = db
		runCfg.SnapshotDir = cfg.Server.SnapshotDir
		fmt.Printf("recording as %s\n", rec.ID)
	}

	computer := ai.NewPicker(cfg.PickerOptions())
	human := newConsole(os.Stdin, os.Stdout)
	runner, err := match.NewRunner(g, match.Pickers(g.Players, computer, human), runCfg)
	if err != nil {
		return err
	}

	final, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	printBoard(os.Stdout, final)
	return nil
}
