// Package match drives a game from setup to result: it asks each player's
// picker for a move, applies it, records it and tells observers.
package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"compact-conflict/internal/game"
	"compact-conflict/internal/logger"
	"compact-conflict/internal/snapshot"
)

// Picker chooses the next move for the current player.
type Picker interface {
	Pick(ctx context.Context, g *game.GameState) (game.Move, error)
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(ctx context.Context, g *game.GameState) (game.Move, error)

func (f PickerFunc) Pick(ctx context.Context, g *game.GameState) (game.Move, error) {
	return f(ctx, g)
}

// Event describes one applied move.
type Event struct {
	GameID string
	Seq    int // 1-based position in the match history
	Turn   int // turn the move was made in
	Player int // player who made the move
	Move   game.Move
	Battle *game.Battle    // nil unless the move fought
	State  *game.GameState // state after the move
}

// Observer is told about every applied move and about the end of the match.
// Calls happen on the runner's goroutine, in move order.
type Observer interface {
	MoveApplied(ev Event)
	MatchEnded(id string, g *game.GameState)
}

// Recorder persists match progress. *database.DB implements it.
type Recorder interface {
	AddMove(gameID string, seq, turn, player int, m game.Move, battle *game.Battle) error
	UpdateTurn(id string, turn int) error
	FinishGame(id string, turn int, result *game.Result, snapshotPath string) error
	AbortGame(id string) error
}

// ErrPickerCount is returned when pickers do not match the players.
var ErrPickerCount = errors.New("one picker per player required")

// Config holds the optional collaborators of a Runner.
type Config struct {
	ID          string
	Recorder    Recorder
	SnapshotDir string // final snapshot destination, none when empty
	Observers   []Observer
}

// Runner plays one match. It is not safe for concurrent use; Run blocks
// until the match ends or ctx is cancelled.
type Runner struct {
	cfg     Config
	pickers []Picker
	state   *game.GameState
	seq     int
	log     zerolog.Logger
}

// NewRunner prepares a match from g with one picker per player.
func NewRunner(g *game.GameState, pickers []Picker, cfg Config) (*Runner, error) {
	if len(pickers) != len(g.Players) {
		return nil, fmt.Errorf("%w: %d pickers for %d players", ErrPickerCount, len(pickers), len(g.Players))
	}
	for i, p := range pickers {
		if p == nil {
			return nil, fmt.Errorf("%w: player %d has none", ErrPickerCount, i)
		}
	}
	return &Runner{
		cfg:     cfg,
		pickers: pickers,
		state:   g,
		log:     logger.ForGame(cfg.ID),
	}, nil
}

// State returns the latest state.
func (r *Runner) State() *game.GameState {
	return r.state
}

// Run plays until the game is over. A cancelled match is recorded as
// aborted and returns the context error together with the last state.
func (r *Runner) Run(ctx context.Context) (*game.GameState, error) {
	r.log.Info().Int("players", len(r.state.Players)).Int("turnLimit", r.state.Setup.TurnLimit).Msg("Match started")

	for !r.state.IsOver() {
		if err := r.step(ctx); err != nil {
			r.abort()
			if ctx.Err() != nil {
				return r.state, ctx.Err()
			}
			return r.state, err
		}
	}

	return r.state, r.finish()
}

func (r *Runner) step(ctx context.Context) error {
	g := r.state
	player, turn := g.Current, g.Turn

	m, err := r.pickers[player].Pick(ctx, g)
	if err != nil {
		return fmt.Errorf("player %d pick: %w", player, err)
	}
	next, battle, err := g.Apply(m)
	if err != nil {
		return fmt.Errorf("player %d move %v: %w", player, m, err)
	}

	r.seq++
	r.state = next
	r.log.Debug().Int("seq", r.seq).Int("player", player).Str("move", fmt.Sprint(m)).Msg("Move applied")
	if battle != nil {
		r.log.Debug().
			Int("attacker", battle.Attacker).
			Int("defender", battle.Defender).
			Int("attackerLosses", battle.AttackerLosses()).
			Int("defenderLosses", battle.DefenderLosses()).
			Bool("conquered", battle.Conquered).
			Msg("Battle")
	}

	if rec := r.cfg.Recorder; rec != nil {
		if err := rec.AddMove(r.cfg.ID, r.seq, turn, player, m, battle); err != nil {
			return fmt.Errorf("record move: %w", err)
		}
		if next.Turn != turn && !next.IsOver() {
			if err := rec.UpdateTurn(r.cfg.ID, next.Turn); err != nil {
				return fmt.Errorf("record turn: %w", err)
			}
		}
	}

	ev := Event{GameID: r.cfg.ID, Seq: r.seq, Turn: turn, Player: player, Move: m, Battle: battle, State: next}
	for _, o := range r.cfg.Observers {
		o.MoveApplied(ev)
	}
	return nil
}

func (r *Runner) finish() error {
	g := r.state
	ev := r.log.Info().Int("turn", g.Turn).Int("moves", r.seq)
	if g.Result.Draw {
		ev = ev.Bool("draw", true)
	} else {
		ev = ev.Int("winner", g.Result.Winner)
	}
	ev.Msg("Match ended")

	var path string
	if r.cfg.SnapshotDir != "" {
		path = snapshot.Path(r.cfg.SnapshotDir, r.cfg.ID)
		if err := snapshot.WriteSnapshot(path, snapshot.Capture(r.cfg.ID, g)); err != nil {
			r.log.Error().Err(err).Str("path", path).Msg("Failed to write snapshot")
			path = ""
		}
	}

	if rec := r.cfg.Recorder; rec != nil {
		if err := rec.FinishGame(r.cfg.ID, g.Turn, g.Result, path); err != nil {
			return fmt.Errorf("record result: %w", err)
		}
	}
	for _, o := range r.cfg.Observers {
		o.MatchEnded(r.cfg.ID, g)
	}
	return nil
}

func (r *Runner) abort() {
	r.log.Warn().Int("turn", r.state.Turn).Int("moves", r.seq).Msg("Match aborted")
	if rec := r.cfg.Recorder; rec != nil {
		if err := rec.AbortGame(r.cfg.ID); err != nil {
			r.log.Error().Err(err).Msg("Failed to record abort")
		}
	}
	for _, o := range r.cfg.Observers {
		o.MatchEnded(r.cfg.ID, r.state)
	}
}
