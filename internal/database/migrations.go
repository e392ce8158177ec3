package database

type migration struct {
	id   int
	name string
	sql  string
}

var migrations = []migration{
	{
		id:   1,
		name: "initial_schema",
		sql: `
			-- Games table: one row per match
			CREATE TABLE games (
				id TEXT PRIMARY KEY,
				status TEXT NOT NULL DEFAULT 'running',
				setup_json TEXT NOT NULL,
				player_count INTEGER NOT NULL,
				turn INTEGER NOT NULL DEFAULT 1,
				winner INTEGER,
				draw BOOLEAN NOT NULL DEFAULT FALSE,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				ended_at DATETIME
			);
			CREATE INDEX idx_games_status ON games(status);

			-- Seats of each match
			CREATE TABLE game_players (
				game_id TEXT NOT NULL,
				seat INTEGER NOT NULL,
				name TEXT NOT NULL,
				color TEXT NOT NULL,
				controller TEXT NOT NULL,
				personality TEXT NOT NULL DEFAULT '',
				PRIMARY KEY (game_id, seat),
				FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE
			);

			-- Move log for replay and spectators
			CREATE TABLE game_moves (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				game_id TEXT NOT NULL,
				seq INTEGER NOT NULL,
				turn INTEGER NOT NULL,
				player INTEGER NOT NULL,
				kind TEXT NOT NULL,
				move_json TEXT NOT NULL,
				battle_json TEXT,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (game_id, seq),
				FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE
			);
			CREATE INDEX idx_game_moves_game ON game_moves(game_id);

			-- Stored setup and other key/value preferences
			CREATE TABLE preferences (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);
		`,
	},
	{
		id:   2,
		name: "add_snapshot_path_column",
		sql: `
			-- Final state snapshot written when a match ends
			ALTER TABLE games ADD COLUMN snapshot_path TEXT NOT NULL DEFAULT '';
		`,
	},
}
