package match

import (
	"context"
	"errors"
	"testing"
	"time"

	"compact-conflict/internal/ai"
	"compact-conflict/internal/game"
	"compact-conflict/internal/snapshot"
	"compact-conflict/pkg/maps"
)

type fakeRecorder struct {
	moves    []int // seq numbers in arrival order
	turns    []int
	finished *game.Result
	snapshot string
	aborted  bool
}

func (f *fakeRecorder) AddMove(_ string, seq, _, _ int, _ game.Move, _ *game.Battle) error {
	f.moves = append(f.moves, seq)
	return nil
}

func (f *fakeRecorder) UpdateTurn(_ string, turn int) error {
	f.turns = append(f.turns, turn)
	return nil
}

func (f *fakeRecorder) FinishGame(_ string, _ int, result *game.Result, path string) error {
	f.finished, f.snapshot = result, path
	return nil
}

func (f *fakeRecorder) AbortGame(string) error {
	f.aborted = true
	return nil
}

type fakeObserver struct {
	events []Event
	ended  int
}

func (f *fakeObserver) MoveApplied(ev Event)               { f.events = append(f.events, ev) }
func (f *fakeObserver) MatchEnded(string, *game.GameState) { f.ended++ }

// duel has player 0 with a crushing army next to player 1's only soldier.
func duel() *game.GameState {
	players := []*game.Player{game.NewPlayer(0, "P0"), game.NewPlayer(1, "P1")}
	setup := game.Setup{Seats: []game.Controller{game.ControllerHuman, game.ControllerHuman}, Seed: 5}
	g := game.NewState(maps.New([][]int{{1}, {}}), players, setup, game.NewArena(5))
	return g.Place(0, 0, 5).Place(1, 1, 1)
}

func TestRunnerPlaysToResult(t *testing.T) {
	g := duel()
	attack, _ := game.NewArmyMove(g.Map, 0, 1, 4)
	rec := &fakeRecorder{}
	obs := &fakeObserver{}
	dir := t.TempDir()

	r, err := NewRunner(g, []Picker{Script(attack), Script()}, Config{
		ID:          "duel",
		Recorder:    rec,
		SnapshotDir: dir,
		Observers:   []Observer{obs},
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	final, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if final.Result == nil || final.Result.Winner != 0 {
		t.Fatalf("expected player 0 to win, got %+v", final.Result)
	}
	if len(rec.moves) != 1 || rec.moves[0] != 1 {
		t.Errorf("expected one recorded move, got %v", rec.moves)
	}
	if rec.finished == nil || rec.finished.Winner != 0 || rec.aborted {
		t.Errorf("unexpected recorder state %+v", rec)
	}
	if len(obs.events) != 1 || obs.events[0].Battle == nil || !obs.events[0].Battle.Conquered {
		t.Errorf("expected one conquering battle event, got %+v", obs.events)
	}
	if obs.ended != 1 {
		t.Errorf("MatchEnded called %d times", obs.ended)
	}

	if rec.snapshot != snapshot.Path(dir, "duel") {
		t.Fatalf("snapshot path %q", rec.snapshot)
	}
	h, err := snapshot.ReadHeader(rec.snapshot)
	if err != nil || h.GameID != "duel" {
		t.Errorf("snapshot header %+v, %v", h, err)
	}
}

func TestRunnerAbortsOnPickerError(t *testing.T) {
	boom := errors.New("boom")
	rec := &fakeRecorder{}
	obs := &fakeObserver{}
	failing := PickerFunc(func(context.Context, *game.GameState) (game.Move, error) { return nil, boom })

	r, _ := NewRunner(duel(), []Picker{failing, Script()}, Config{ID: "x", Recorder: rec, Observers: []Observer{obs}})
	if _, err := r.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected picker error, got %v", err)
	}
	if !rec.aborted || rec.finished != nil {
		t.Errorf("expected an aborted record, got %+v", rec)
	}
	if obs.ended != 1 {
		t.Errorf("observers should hear about the abort, got %d", obs.ended)
	}
}

func TestRunnerRejectsIllegalMove(t *testing.T) {
	g := duel()
	steal, _ := game.NewArmyMove(g.Map, 1, 0, 1)
	r, _ := NewRunner(g, []Picker{Script(steal), Script()}, Config{ID: "x"})
	if _, err := r.Run(context.Background()); !errors.Is(err, game.ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &fakeRecorder{}
	r, _ := NewRunner(duel(), []Picker{Script(), Script()}, Config{ID: "x", Recorder: rec})
	final, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if final == nil || final.IsOver() || !rec.aborted {
		t.Errorf("expected the unfinished state and an abort record")
	}
}

func TestNewRunnerNeedsPickerPerPlayer(t *testing.T) {
	if _, err := NewRunner(duel(), []Picker{Script()}, Config{}); !errors.Is(err, ErrPickerCount) {
		t.Errorf("expected ErrPickerCount, got %v", err)
	}
	if _, err := NewRunner(duel(), []Picker{Script(), nil}, Config{}); !errors.Is(err, ErrPickerCount) {
		t.Errorf("expected ErrPickerCount for a nil picker, got %v", err)
	}
}

func TestPickersByController(t *testing.T) {
	players := []*game.Player{game.NewPlayer(0, "H"), game.NewAIPlayer(1, "C", game.Personalities[0])}
	computer := PickerFunc(func(context.Context, *game.GameState) (game.Move, error) {
		return game.BuildMove{Upgrade: game.UpgradeSoldier}, nil
	})
	human := Script()

	got := Pickers(players, computer, human)
	for i, want := range []string{"end", "build"} {
		m, err := got[i].Pick(context.Background(), duel())
		if err != nil || m.Kind() != want {
			t.Errorf("seat %d: got %v (%v), want a %s move", i, m, err, want)
		}
	}
}

func TestAIMatchRunsToTurnLimit(t *testing.T) {
	setup := game.Setup{
		Seats:      []game.Controller{game.ControllerAI, game.ControllerAI},
		Difficulty: game.DifficultyRude,
		TurnLimit:  2,
		Seed:       4,
	}
	g, err := game.NewGame(setup)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	picker := ai.NewPicker(ai.Options{Budget: 20 * time.Millisecond, BatchSize: 50, Seed: 4})
	rec := &fakeRecorder{}
	obs := &fakeObserver{}

	r, err := NewRunner(g, Pickers(g.Players, picker, nil), Config{ID: "ai", Recorder: rec, Observers: []Observer{obs}})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	final, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !final.IsOver() || rec.finished == nil {
		t.Fatal("expected a finished match")
	}
	for i, seq := range rec.moves {
		if seq != i+1 {
			t.Fatalf("move %d recorded with seq %d", i, seq)
		}
	}
	for i := 1; i < len(obs.events); i++ {
		if obs.events[i].Turn < obs.events[i-1].Turn {
			t.Fatalf("events out of turn order at %d", i)
		}
	}
}
