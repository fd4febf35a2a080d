// Package database keeps the moderator-action audit log in SQLite. Every
// administrative XP correction, settings write and restore lands here so
// corrections stay attributable.
package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type Database struct {
	db *sql.DB
}

var globalDB *Database

// Initialize opens (or creates) the audit database at dbPath.
func Initialize(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open audit database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping audit database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	globalDB = &Database{db: db}

	if err := globalDB.createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// GetDB returns the global audit database, or nil when unavailable.
func GetDB() *Database {
	return globalDB
}

// Close closes the database connection.
func Close() error {
	if globalDB != nil && globalDB.db != nil {
		return globalDB.db.Close()
	}
	return nil
}

func (d *Database) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS mod_actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		target_id TEXT DEFAULT '',
		action TEXT NOT NULL,
		detail TEXT DEFAULT '',
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_mod_actions_guild ON mod_actions(guild_id);
	CREATE INDEX IF NOT EXISTS idx_mod_actions_timestamp ON mod_actions(timestamp);
	`
	_, err := d.db.Exec(schema)
	return err
}

// LogAction records one moderator action.
func (d *Database) LogAction(action *ModAction) error {
	if action.Timestamp == 0 {
		action.Timestamp = time.Now().UnixMilli()
	}
	_, err := d.db.Exec(
		`INSERT INTO mod_actions (guild_id, actor_id, target_id, action, detail, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		action.GuildID, action.ActorID, action.TargetID, action.Action, action.Detail, action.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to log moderator action: %w", err)
	}
	return nil
}

// GetRecentActions returns the newest actions for guildID, most recent
// first. limit is clamped to [1, 100].
func (d *Database) GetRecentActions(guildID string, limit int) ([]*ModAction, error) {
	if limit <= 0 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := d.db.Query(
		`SELECT id, guild_id, actor_id, target_id, action, detail, timestamp
		 FROM mod_actions WHERE guild_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		guildID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query moderator actions: %w", err)
	}
	defer rows.Close()

	var actions []*ModAction
	for rows.Next() {
		var a ModAction
		if err := rows.Scan(&a.ID, &a.GuildID, &a.ActorID, &a.TargetID, &a.Action, &a.Detail, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan moderator action: %w", err)
		}
		actions = append(actions, &a)
	}
	return actions, rows.Err()
}
