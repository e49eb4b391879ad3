// Package sqlite provides the persistent session store backend and the
// snapshot history log written by the worker.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"finadvisor/internal/core"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db  *sql.DB
	ttl time.Duration
}

// HistoryEntry is one row of the append-only snapshot history.
type HistoryEntry struct {
	SessionID     string
	Month         string
	Source        string
	Income        decimal.Decimal
	TotalExpenses decimal.Decimal
	Savings       decimal.Decimal
	HealthScore   int
	CreatedAt     time.Time
}

func New(dbPath string, ttl time.Duration) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, ttl: ttl}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Get implements session.Store. Expired rows are deleted and reported
// as absent.
func (r *Repository) Get(ctx context.Context, sessionID string) (core.Snapshot, bool, error) {
	var payload string
	var expiresAt time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT snapshot, expires_at FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		return core.Snapshot{}, false, nil
	}
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("query session %s: %w", sessionID, err)
	}

	if time.Now().After(expiresAt) {
		if err := r.Clear(ctx, sessionID); err != nil {
			return core.Snapshot{}, false, err
		}
		return core.Snapshot{}, false, nil
	}

	var snap core.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return core.Snapshot{}, false, fmt.Errorf("decode session snapshot: %w", err)
	}
	return snap, true, nil
}

// Set implements session.Store, replacing the snapshot wholesale.
func (r *Repository) Set(ctx context.Context, sessionID string, snap core.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session snapshot: %w", err)
	}

	now := time.Now()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, snapshot, updated_at, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   snapshot = excluded.snapshot,
		   updated_at = excluded.updated_at,
		   expires_at = excluded.expires_at`,
		sessionID, string(payload), now, now.Add(r.ttl))
	if err != nil {
		return fmt.Errorf("upsert session %s: %w", sessionID, err)
	}
	return nil
}

// Clear implements session.Store.
func (r *Repository) Clear(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// AppendHistory records one ingestion event in the history log.
func (r *Repository) AppendHistory(ctx context.Context, e HistoryEntry) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO snapshot_history
		   (session_id, month, source, income, total_expenses, savings, health_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Month, e.Source,
		e.Income.String(), e.TotalExpenses.String(), e.Savings.String(),
		e.HealthScore, createdAt)
	if err != nil {
		return fmt.Errorf("append history for session %s: %w", e.SessionID, err)
	}
	return nil
}

// HistoryFor returns a session's history, most recent first.
func (r *Repository) HistoryFor(ctx context.Context, sessionID string, limit int) ([]HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT session_id, month, source, income, total_expenses, savings, health_score, created_at
		 FROM snapshot_history
		 WHERE session_id = ?
		 ORDER BY id DESC
		 LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var income, total, savings string
		if err := rows.Scan(&e.SessionID, &e.Month, &e.Source,
			&income, &total, &savings, &e.HealthScore, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if e.Income, err = decimal.NewFromString(income); err != nil {
			return nil, fmt.Errorf("decode history income: %w", err)
		}
		if e.TotalExpenses, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("decode history total: %w", err)
		}
		if e.Savings, err = decimal.NewFromString(savings); err != nil {
			return nil, fmt.Errorf("decode history savings: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
