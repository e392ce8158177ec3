package database

import (
	"reflect"
	"testing"

	"compact-conflict/internal/game"
	"compact-conflict/pkg/maps"
)

func skirmish() *game.GameState {
	players := []*game.Player{game.NewPlayer(0, "P0"), game.NewPlayer(1, "P1")}
	setup := game.Setup{Seats: []game.Controller{game.ControllerHuman, game.ControllerHuman}, Seed: 3}
	g := game.NewState(maps.New([][]int{{1}, {2}, {}}), players, setup, game.NewArena(3))
	return g.Place(0, 0, 6).Place(1, game.Neutral, 4).Place(2, 1, 2)
}

func TestAddAndReplayMoves(t *testing.T) {
	db := newTestDB(t)
	start := skirmish()
	rec, err := db.CreateGame(start.Setup, start.Players)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	attack, err := game.NewArmyMove(start.Map, 0, 1, 5)
	if err != nil {
		t.Fatalf("NewArmyMove: %v", err)
	}
	moves := []game.Move{attack, game.EndMove{}}

	g := start
	for i, m := range moves {
		player, turn := g.Current, g.Turn
		next, battle, err := g.Apply(m)
		if err != nil {
			t.Fatalf("Apply %v: %v", m, err)
		}
		if err := db.AddMove(rec.ID, i+1, turn, player, m, battle); err != nil {
			t.Fatalf("AddMove: %v", err)
		}
		g = next
	}

	stored, err := db.GetMoves(rec.ID)
	if err != nil {
		t.Fatalf("GetMoves: %v", err)
	}
	if len(stored) != 2 || stored[0].Kind != "army" || stored[1].Kind != "end" {
		t.Fatalf("unexpected history %+v", stored)
	}
	if b, err := stored[0].Battle(); err != nil || b == nil || b.Defenders != 4 {
		t.Errorf("battle not stored: %+v %v", b, err)
	}
	if b, _ := stored[1].Battle(); b != nil {
		t.Errorf("end move should carry no battle, got %+v", b)
	}

	since, err := db.GetMovesSince(rec.ID, 1)
	if err != nil || len(since) != 1 || since[0].Seq != 2 {
		t.Errorf("GetMovesSince(1) = %+v, %v", since, err)
	}

	replayed, err := db.Replay(rec.ID, skirmish())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !reflect.DeepEqual(replayed.View(), g.View()) {
		t.Errorf("replay diverged:\n got %+v\nwant %+v", replayed.View(), g.View())
	}
}

func TestAddMoveRejectsDuplicateSeq(t *testing.T) {
	db := newTestDB(t)
	rec, g := newTestGame(t, db)
	if err := db.AddMove(rec.ID, 1, g.Turn, g.Current, game.EndMove{}, nil); err != nil {
		t.Fatalf("AddMove: %v", err)
	}
	if err := db.AddMove(rec.ID, 1, g.Turn, g.Current, game.EndMove{}, nil); err == nil {
		t.Error("expected a uniqueness error for a repeated sequence number")
	}
}

func TestSetupPreferences(t *testing.T) {
	db := newTestDB(t)

	s, err := db.LoadSetup()
	if err != nil {
		t.Fatalf("LoadSetup: %v", err)
	}
	if !reflect.DeepEqual(s, game.DefaultSetup()) {
		t.Errorf("expected defaults before anything is saved, got %+v", s)
	}

	want := game.Setup{
		Seats:      []game.Controller{game.ControllerAI, game.ControllerHuman, game.ControllerOff, game.ControllerAI},
		Difficulty: game.DifficultyEvil,
		TurnLimit:  game.UnlimitedTurns,
		Seed:       99,
		Cheat:      1.2,
	}
	if err := db.SaveSetup(want); err != nil {
		t.Fatalf("SaveSetup: %v", err)
	}
	if err := db.SetPreference("theme", "dark"); err != nil {
		t.Fatalf("SetPreference: %v", err)
	}
	got, err := db.LoadSetup()
	if err != nil {
		t.Fatalf("LoadSetup: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}

	// a later setup without a cheat override must not inherit the old one
	want.Cheat = 0
	if err := db.SaveSetup(want); err != nil {
		t.Fatalf("SaveSetup: %v", err)
	}
	if got, _ := db.LoadSetup(); got.Cheat != 0 {
		t.Errorf("stale cheat %v survived", got.Cheat)
	}

	prefs, _ := db.Preferences()
	if prefs["theme"] != "dark" {
		t.Errorf("unrelated preference lost: %v", prefs)
	}
}
