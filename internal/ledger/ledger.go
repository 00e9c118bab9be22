// Package ledger records every milestone side effect (role grant,
// announcement) with its outcome in SQLite. The persisted message counter is
// the durable fact; these rows exist so a grant that failed (role renamed,
// API hiccup) can be found and replayed instead of being lost.
package ledger

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	EffectRoleGrant = "role_grant"
	EffectAnnounce  = "announce"
)

type Entry struct {
	ID        int64
	UserID    string
	Role      string
	Effect    string
	OK        bool
	Detail    string
	Retries   int64
	CreatedAt int64
}

type Ledger struct {
	db *sql.DB
}

func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0755)
	}

	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Simple, safe defaults for a bot
	d.SetMaxOpenConns(1)
	d.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := d.PingContext(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}

	l := &Ledger{db: d}
	if err := l.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// migrate ensures the schema exists (idempotent).
func (l *Ledger) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS milestone_effects (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			role_name  TEXT NOT NULL,
			effect     TEXT NOT NULL,
			ok         INTEGER NOT NULL,
			detail     TEXT NOT NULL DEFAULT '',
			retries    INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_milestone_effects_failed
			ON milestone_effects(ok, effect);`,
	}
	for _, q := range stmts {
		if _, err := l.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Record stores the outcome of one grant or announcement attempt.
func (l *Ledger) Record(userID, roleName, effect string, ok bool, detail string) error {
	_, err := l.db.Exec(
		`INSERT INTO milestone_effects(user_id, role_name, effect, ok, detail, created_at)
		 VALUES(?,?,?,?,?,?)`,
		userID, roleName, effect, boolToInt(ok), detail, time.Now().UnixMilli(),
	)
	return err
}

// ListFailed returns failed attempts of one effect kind, oldest first.
func (l *Ledger) ListFailed(effect string, limit int) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT id, user_id, role_name, effect, ok, detail, retries, created_at
		 FROM milestone_effects
		 WHERE ok = 0 AND effect = ?
		 ORDER BY id ASC
		 LIMIT ?`,
		effect, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ok int
		if err := rows.Scan(&e.ID, &e.UserID, &e.Role, &e.Effect, &ok, &e.Detail, &e.Retries, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.OK = ok != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkRetried bumps the retry counter and records the retry's outcome.
func (l *Ledger) MarkRetried(id int64, ok bool) error {
	_, err := l.db.Exec(
		`UPDATE milestone_effects SET ok = ?, retries = retries + 1 WHERE id = ?`,
		boolToInt(ok), id,
	)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
