package database

import (
	"compact-conflict/internal/game"
)

// SetPreference stores a single key/value pair.
func (db *DB) SetPreference(key, value string) error {
	_, err := db.conn.Exec(`
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Preferences returns every stored key/value pair.
func (db *DB) Preferences() (map[string]string, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := db.conn.Select(&rows, `SELECT key, value FROM preferences`); err != nil {
		return nil, err
	}
	prefs := make(map[string]string, len(rows))
	for _, r := range rows {
		prefs[r.Key] = r.Value
	}
	return prefs, nil
}

// SaveSetup remembers setup as the defaults for the next game.
func (db *DB) SaveSetup(setup game.Setup) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// seats and cheat are omitted by Values when unused
	if _, err := tx.Exec(`DELETE FROM preferences WHERE key IN ('p0', 'p1', 'p2', 'p3', 'cheat')`); err != nil {
		return err
	}
	for k, v := range setup.Values() {
		if _, err := tx.Exec(`
			INSERT INTO preferences (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadSetup returns the stored setup, or game.DefaultSetup when none was saved.
func (db *DB) LoadSetup() (game.Setup, error) {
	prefs, err := db.Preferences()
	if err != nil {
		return game.DefaultSetup(), err
	}
	return game.ParseSetup(prefs)
}
