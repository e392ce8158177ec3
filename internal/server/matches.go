package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"compact-conflict/internal/ai"
	"compact-conflict/internal/database"
	"compact-conflict/internal/game"
	"compact-conflict/internal/match"
)

var (
	// ErrHumanSeat is returned when a hosted match asks for a human player.
	ErrHumanSeat = errors.New("hosted matches are AI only")
	// ErrNotRunning is returned when stopping a match that is not live.
	ErrNotRunning = errors.New("match is not running")
	// ErrTooManyMatches is returned when the server already hosts its limit.
	ErrTooManyMatches = errors.New("too many running matches")
)

type liveMatch struct {
	mu     sync.RWMutex
	state  *game.GameState
	seq    int
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager hosts the running AI matches. It implements match.Observer to
// keep the latest state of each match for late spectators.
type Manager struct {
	db          *database.DB
	hub         *Hub
	snapshotDir string
	picker      ai.Options
	limit       int

	mu   sync.Mutex
	live map[string]*liveMatch
	wg   sync.WaitGroup
}

// NewManager creates a manager that records to db and streams to hub.
func NewManager(db *database.DB, hub *Hub, snapshotDir string, picker ai.Options, limit int) *Manager {
	return &Manager{
		db:          db,
		hub:         hub,
		snapshotDir: snapshotDir,
		picker:      picker,
		limit:       limit,
		live:        make(map[string]*liveMatch),
	}
}

// Start creates and launches a match for setup. A zero seed is replaced by
// a fresh one.
func (m *Manager) Start(setup game.Setup) (*database.Game, error) {
	for _, c := range setup.Seats {
		if c == game.ControllerHuman {
			return nil, ErrHumanSeat
		}
	}
	if setup.Seed == 0 {
		setup.Seed = time.Now().UnixNano()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.limit > 0 && len(m.live) >= m.limit {
		return nil, ErrTooManyMatches
	}

	g, err := game.NewGame(setup)
	if err != nil {
		return nil, err
	}
	rec, err := m.db.CreateGame(setup, g.Players)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	opts := m.picker
	opts.Seed = setup.Seed
	picker := ai.NewPicker(opts)
	runner, err := match.NewRunner(g, match.Pickers(g.Players, picker, nil), match.Config{
		ID:          rec.ID,
		Recorder:    m.db,
		SnapshotDir: m.snapshotDir,
		Observers:   []match.Observer{m, m.hub},
	})
	if err != nil {
		m.db.AbortGame(rec.ID)
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	lm := &liveMatch{state: g, cancel: cancel, done: make(chan struct{})}
	m.live[rec.ID] = lm

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(lm.done)
		defer cancel()

		if _, err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("game", rec.ID).Msg("Match failed")
		}
		m.mu.Lock()
		delete(m.live, rec.ID)
		m.mu.Unlock()
	}()

	return rec, nil
}

// Live returns the latest state of a running match.
func (m *Manager) Live(id string) (*game.GameState, int, bool) {
	m.mu.Lock()
	lm, ok := m.live[id]
	m.mu.Unlock()
	if !ok {
		return nil, 0, false
	}
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return lm.state, lm.seq, true
}

// Running returns the number of live matches.
func (m *Manager) Running() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Stop cancels a running match and waits for it to wind down.
func (m *Manager) Stop(ctx context.Context, id string) error {
	m.mu.Lock()
	lm, ok := m.live[id]
	m.mu.Unlock()
	if !ok {
		return ErrNotRunning
	}
	lm.cancel()
	select {
	case <-lm.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown cancels every match and waits for them until ctx expires.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for _, lm := range m.live {
		lm.cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every match started so far has ended.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) MoveApplied(ev match.Event) {
	m.mu.Lock()
	lm, ok := m.live[ev.GameID]
	m.mu.Unlock()
	if !ok {
		return
	}
	lm.mu.Lock()
	lm.state, lm.seq = ev.State, ev.Seq
	lm.mu.Unlock()
}

func (m *Manager) MatchEnded(string, *game.GameState) {}
