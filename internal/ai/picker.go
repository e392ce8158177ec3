package ai

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"compact-conflict/internal/game"
)

// Options bound the work a Picker does per decision.
type Options struct {
	Budget    time.Duration // wall-clock budget for the search
	MinThink  time.Duration // minimum delay before a move is reported
	BatchSize int           // node operations between yields
	Seed      int64
}

// DefaultOptions returns the budgets used in regular play.
func DefaultOptions() Options {
	return Options{
		Budget:    2 * time.Second,
		MinThink:  500 * time.Millisecond,
		BatchSize: 100,
		Seed:      time.Now().UnixNano(),
	}
}

// Picker chooses moves for AI players.
type Picker struct {
	opts Options

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker creates a picker.
func NewPicker(opts Options) *Picker {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultOptions().BatchSize
	}
	return &Picker{opts: opts, rng: rand.New(rand.NewSource(opts.Seed))}
}

// Pick returns a legal move for the current player of g. The move is never
// delivered before MinThink has passed. A cancelled context still yields
// the best move found so far together with the context error.
func (p *Picker) Pick(ctx context.Context, g *game.GameState) (game.Move, error) {
	start := time.Now()
	move := p.decide(ctx, g)

	if wait := p.opts.MinThink - time.Since(start); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return move, ctx.Err()
		}
	}
	return move, ctx.Err()
}

// PickMove runs Pick and hands the result to report exactly once. Errors
// degrade to EndMove.
func (p *Picker) PickMove(ctx context.Context, g *game.GameState, report func(game.Move)) {
	move, err := p.Pick(ctx, g)
	if err != nil && move == nil {
		move = game.EndMove{}
	}
	report(move)
}

func (p *Picker) decide(ctx context.Context, g *game.GameState) game.Move {
	if g.IsOver() || g.RegionCount(g.Current) == 0 {
		return game.EndMove{}
	}
	if m, ok := SoldierPurchase(g); ok {
		return m
	}
	if m, ok := UpgradePurchase(g); ok {
		return m
	}

	p.mu.Lock()
	rng := rand.New(rand.NewSource(p.rng.Int63()))
	p.mu.Unlock()

	s := NewSearch[*game.GameState, game.Move](conflictGame{rng: rng}, g.Simulation(), g.Current, g.MovesRemaining)
	deadline := time.Now().Add(p.opts.Budget)
	for s.Step(p.opts.BatchSize) {
		if time.Now().After(deadline) || ctx.Err() != nil {
			s.Truncate()
			break
		}
		runtime.Gosched()
	}

	if m, _, ok := s.Best(); ok {
		return m
	}
	return game.EndMove{}
}
