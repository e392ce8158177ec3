package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"compact-conflict/internal/game"
)

// MoveRecord is one applied move in a game's history.
type MoveRecord struct {
	ID         int64          `db:"id"`
	GameID     string         `db:"game_id"`
	Seq        int            `db:"seq"`
	Turn       int            `db:"turn"`
	Player     int            `db:"player"`
	Kind       string         `db:"kind"`
	MoveJSON   string         `db:"move_json"`
	BattleJSON sql.NullString `db:"battle_json"`
	CreatedAt  time.Time      `db:"created_at"`
}

// Move decodes the stored move.
func (r *MoveRecord) Move() (game.Move, error) {
	return game.DecodeMove([]byte(r.MoveJSON))
}

// Battle decodes the stored battle, nil when the move fought none.
func (r *MoveRecord) Battle() (*game.Battle, error) {
	if !r.BattleJSON.Valid {
		return nil, nil
	}
	var b game.Battle
	if err := json.Unmarshal([]byte(r.BattleJSON.String), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// AddMove appends a move to the game history. seq numbers moves from 1 in
// the order they were applied.
func (db *DB) AddMove(gameID string, seq, turn, player int, m game.Move, battle *game.Battle) error {
	moveJSON, err := game.EncodeMove(m)
	if err != nil {
		return err
	}
	var battleJSON sql.NullString
	if battle != nil {
		data, err := json.Marshal(battle)
		if err != nil {
			return err
		}
		battleJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err = db.conn.Exec(`
		INSERT INTO game_moves (game_id, seq, turn, player, kind, move_json, battle_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, gameID, seq, turn, player, m.Kind(), string(moveJSON), battleJSON, time.Now().UTC())
	return err
}

// GetMoves retrieves all moves for a game, ordered chronologically.
func (db *DB) GetMoves(gameID string) ([]*MoveRecord, error) {
	return db.GetMovesSince(gameID, 0)
}

// GetMovesSince retrieves moves after a given sequence number (for incremental updates).
func (db *DB) GetMovesSince(gameID string, afterSeq int) ([]*MoveRecord, error) {
	var moves []*MoveRecord
	err := db.conn.Select(&moves, `
		SELECT id, game_id, seq, turn, player, kind, move_json, battle_json, created_at
		FROM game_moves
		WHERE game_id = ? AND seq > ?
		ORDER BY seq ASC
	`, gameID, afterSeq)
	return moves, err
}

// Replay rebuilds the state reached after the stored moves by applying them
// to start in order.
func (db *DB) Replay(gameID string, start *game.GameState) (*game.GameState, error) {
	moves, err := db.GetMoves(gameID)
	if err != nil {
		return nil, err
	}
	g := start
	for _, rec := range moves {
		m, err := rec.Move()
		if err != nil {
			return nil, err
		}
		battle, err := rec.Battle()
		if err != nil {
			return nil, err
		}
		if army, ok := m.(game.ArmyMove); ok && battle != nil {
			army.Battle = battle
			m = army
		}
		if g, _, err = g.Apply(m); err != nil {
			return nil, err
		}
	}
	return g, nil
}
