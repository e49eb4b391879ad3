// Package session defines the snapshot store port and the signed-cookie
// session manager. The store keeps exactly one snapshot per session,
// replaced wholesale on each ingestion event; backends are selected at
// startup (in-memory by default, SQLite for persistence).
package session

import (
	"context"

	"finadvisor/internal/core"
)

// Store is the port every session backend implements.
type Store interface {
	// Get returns the session's current snapshot. The boolean reports
	// whether one exists; expired entries count as absent.
	Get(ctx context.Context, sessionID string) (core.Snapshot, bool, error)

	// Set replaces the session's snapshot wholesale.
	Set(ctx context.Context, sessionID string, snap core.Snapshot) error

	// Clear removes the session's snapshot.
	Clear(ctx context.Context, sessionID string) error
}
