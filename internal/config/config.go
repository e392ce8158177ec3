// Package config loads server and match settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"compact-conflict/internal/ai"
	"compact-conflict/internal/game"
	"compact-conflict/pkg/maps"
)

// Config is the full runtime configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Game   GameConfig   `yaml:"game"`
	AI     AIConfig     `yaml:"ai"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	DBPath      string `yaml:"db_path"`
	SnapshotDir string `yaml:"snapshot_dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// GameConfig describes the matches the server starts by default.
type GameConfig struct {
	TurnLimit  int      `yaml:"turn_limit"`
	Difficulty string   `yaml:"difficulty"`
	Players    []string `yaml:"players"` // controller per seat: human, ai or off
	Seed       int64    `yaml:"seed"`    // 0 picks a fresh seed per match
	Cheat      float64  `yaml:"cheat"`
}

type AIConfig struct {
	BudgetMs   int `yaml:"budget_ms"`
	MinThinkMs int `yaml:"min_think_ms"`
	BatchSize  int `yaml:"batch_size"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	opts := ai.DefaultOptions()
	return Config{
		Server: ServerConfig{
			Addr:        ":30000",
			DBPath:      "data/conflict.db",
			SnapshotDir: "data/snapshots",
		},
		Log: LogConfig{Level: "info"},
		Game: GameConfig{
			TurnLimit:  12,
			Difficulty: game.DifficultyMean.String(),
			Players:    []string{"ai", "ai", "off", "off"},
			Seed:       0,
		},
		AI: AIConfig{
			BudgetMs:   int(opts.Budget / time.Millisecond),
			MinThinkMs: int(opts.MinThink / time.Millisecond),
			BatchSize:  opts.BatchSize,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if port := getenv("PORT"); port != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	if path := getenv("DB_PATH"); path != "" {
		c.Server.DBPath = path
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if raw := getenv("TURN_LIMIT"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("TURN_LIMIT: %w", err)
		}
		c.Game.TurnLimit = n
	}
	if d := getenv("AI_DIFFICULTY"); d != "" {
		c.Game.Difficulty = d
	}
	return nil
}

// Validate checks that the game section describes a playable setup.
func (c Config) Validate() error {
	_, err := c.Setup()
	return err
}

// Setup converts the game section into a game.Setup.
func (c Config) Setup() (game.Setup, error) {
	s := game.DefaultSetup()
	d, err := game.ParseDifficulty(c.Game.Difficulty)
	if err != nil {
		return s, err
	}
	if c.Game.TurnLimit < 0 {
		return s, fmt.Errorf("%w: negative turn limit", game.ErrInvalidSetup)
	}
	if len(c.Game.Players) > maps.MaxPlayers {
		return s, fmt.Errorf("%w: %d seats", game.ErrTooManyPlayers, len(c.Game.Players))
	}
	if len(c.Game.Players) > 0 {
		s.Seats = make([]game.Controller, len(c.Game.Players))
		for i, raw := range c.Game.Players {
			if s.Seats[i], err = game.ParseController(raw); err != nil {
				return s, err
			}
		}
	}
	s.Difficulty = d
	s.TurnLimit = c.Game.TurnLimit
	s.Seed = c.Game.Seed
	s.Cheat = c.Game.Cheat
	return s, nil
}

// PickerOptions converts the AI section into search options.
func (c Config) PickerOptions() ai.Options {
	opts := ai.DefaultOptions()
	if c.AI.BudgetMs > 0 {
		opts.Budget = time.Duration(c.AI.BudgetMs) * time.Millisecond
	}
	opts.MinThink = time.Duration(max(c.AI.MinThinkMs, 0)) * time.Millisecond
	if c.AI.BatchSize > 0 {
		opts.BatchSize = c.AI.BatchSize
	}
	return opts
}
