package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"compact-conflict/internal/game"
)

// GameStatus represents the current status of a game.
type GameStatus string

const (
	GameStatusRunning  GameStatus = "running"  // match in progress
	GameStatusFinished GameStatus = "finished" // decided or turn limit reached
	GameStatusAborted  GameStatus = "aborted"  // stopped before a result
)

// GameInfo contains basic game information for listings.
type GameInfo struct {
	ID          string     `db:"id" json:"id"`
	Status      GameStatus `db:"status" json:"status"`
	PlayerCount int        `db:"player_count" json:"playerCount"`
	Turn        int        `db:"turn" json:"turn"`
	Winner      *int       `db:"winner" json:"winner,omitempty"`
	Draw        bool       `db:"draw" json:"draw"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	EndedAt     *time.Time `db:"ended_at" json:"endedAt,omitempty"`
}

// Game contains full game data.
type Game struct {
	GameInfo
	SetupJSON    string        `db:"setup_json" json:"-"`
	SnapshotPath string        `db:"snapshot_path" json:"snapshotPath,omitempty"`
	Setup        game.Setup    `db:"-" json:"setup"`
	Players      []*GamePlayer `db:"-" json:"players"`
}

// GamePlayer is one seat of a stored game.
type GamePlayer struct {
	GameID      string `db:"game_id" json:"-"`
	Seat        int    `db:"seat" json:"seat"`
	Name        string `db:"name" json:"name"`
	Color       string `db:"color" json:"color"`
	Controller  string `db:"controller" json:"controller"`
	Personality string `db:"personality" json:"personality,omitempty"`
}

// ErrGameNotFound is returned when a game is not found.
var ErrGameNotFound = errors.New("game not found")

// ErrGameClosed is returned when updating a game that has already ended.
var ErrGameClosed = errors.New("game already ended")

// CreateGame stores a new running game and its players.
func (db *DB) CreateGame(setup game.Setup, players []*game.Player) (*Game, error) {
	setupJSON, err := json.Marshal(setup.Values())
	if err != nil {
		return nil, err
	}

	g := &Game{
		GameInfo: GameInfo{
			ID:          uuid.New().String(),
			Status:      GameStatusRunning,
			PlayerCount: len(players),
			Turn:        1,
			CreatedAt:   time.Now().UTC(),
		},
		SetupJSON: string(setupJSON),
		Setup:     setup,
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`
		INSERT INTO games (id, status, setup_json, player_count, turn, created_at)
		VALUES (:id, :status, :setup_json, :player_count, :turn, :created_at)
	`, g)
	if err != nil {
		return nil, err
	}

	for _, p := range players {
		gp := &GamePlayer{
			GameID:     g.ID,
			Seat:       p.Index,
			Name:       p.Name,
			Color:      string(p.Color),
			Controller: p.Controller.String(),
		}
		if p.Personality != nil {
			gp.Personality = p.Personality.Name
		}
		_, err = tx.NamedExec(`
			INSERT INTO game_players (game_id, seat, name, color, controller, personality)
			VALUES (:game_id, :seat, :name, :color, :controller, :personality)
		`, gp)
		if err != nil {
			return nil, err
		}
		g.Players = append(g.Players, gp)
	}

	return g, tx.Commit()
}

// GetGame retrieves a game by ID.
func (db *DB) GetGame(id string) (*Game, error) {
	var g Game
	err := db.conn.Get(&g, `
		SELECT id, status, setup_json, player_count, turn, winner, draw,
		       created_at, ended_at, snapshot_path
		FROM games WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(g.SetupJSON), &values); err != nil {
		return nil, fmt.Errorf("game %s setup: %w", id, err)
	}
	if g.Setup, err = game.ParseSetup(values); err != nil {
		return nil, fmt.Errorf("game %s setup: %w", id, err)
	}

	err = db.conn.Select(&g.Players, `
		SELECT game_id, seat, name, color, controller, personality
		FROM game_players WHERE game_id = ?
		ORDER BY seat ASC
	`, id)
	if err != nil {
		return nil, err
	}

	return &g, nil
}

// ListGames returns the most recent games first, at most limit of them.
func (db *DB) ListGames(limit int) ([]*GameInfo, error) {
	if limit <= 0 {
		limit = 50
	}
	var games []*GameInfo
	err := db.conn.Select(&games, `
		SELECT id, status, player_count, turn, winner, draw, created_at, ended_at
		FROM games
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	return games, err
}

// UpdateTurn records the turn a running game has reached.
func (db *DB) UpdateTurn(id string, turn int) error {
	return db.updateRunning(id, `UPDATE games SET turn = ? WHERE id = ? AND status = ?`,
		turn, id, GameStatusRunning)
}

// FinishGame closes a running game with its result and snapshot location.
func (db *DB) FinishGame(id string, turn int, result *game.Result, snapshotPath string) error {
	var winner *int
	draw := false
	if result != nil {
		draw = result.Draw
		if result.Winner != game.Neutral {
			w := result.Winner
			winner = &w
		}
	}
	return db.updateRunning(id, `
		UPDATE games SET status = ?, turn = ?, winner = ?, draw = ?, snapshot_path = ?, ended_at = ?
		WHERE id = ? AND status = ?
	`, GameStatusFinished, turn, winner, draw, snapshotPath, time.Now().UTC(), id, GameStatusRunning)
}

// AbortGame closes a running game without a result.
func (db *DB) AbortGame(id string) error {
	return db.updateRunning(id, `UPDATE games SET status = ?, ended_at = ? WHERE id = ? AND status = ?`,
		GameStatusAborted, time.Now().UTC(), id, GameStatusRunning)
}

// AbortInterrupted marks every game still recorded as running as aborted
// and returns how many there were. Hosted matches die with the process that
// ran them, so a server calls this once at startup.
func (db *DB) AbortInterrupted() (int64, error) {
	result, err := db.conn.Exec(`UPDATE games SET status = ?, ended_at = ? WHERE status = ?`,
		GameStatusAborted, time.Now().UTC(), GameStatusRunning)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (db *DB) updateRunning(id, query string, args ...any) error {
	result, err := db.conn.Exec(query, args...)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}
	if _, err := db.GetGame(id); err != nil {
		return err
	}
	return ErrGameClosed
}

// DeleteGame removes a game together with its players and move log.
func (db *DB) DeleteGame(id string) error {
	result, err := db.conn.Exec(`DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrGameNotFound
	}
	return nil
}
