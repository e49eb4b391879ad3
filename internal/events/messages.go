package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"finadvisor/internal/core"
	"finadvisor/internal/health"
)

// SnapshotIngested carries the summary of one ingestion event. It is
// self-contained so consumers do not need access to the session store.
type SnapshotIngested struct {
	SessionID     string          `json:"session_id"`
	Month         string          `json:"month"`
	Source        string          `json:"source"`
	Income        decimal.Decimal `json:"income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Savings       decimal.Decimal `json:"savings"`
	HealthScore   int             `json:"health_score"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewSnapshotIngested builds the event for a freshly ingested snapshot.
func NewSnapshotIngested(sessionID string, snap core.Snapshot, result health.Result) *SnapshotIngested {
	return &SnapshotIngested{
		SessionID:     sessionID,
		Month:         snap.Month,
		Source:        string(snap.Source),
		Income:        snap.Income,
		TotalExpenses: snap.TotalExpenses,
		Savings:       snap.Savings,
		HealthScore:   result.Score,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotIngested) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotIngestedFromJSON creates a message from JSON bytes
func SnapshotIngestedFromJSON(data []byte) (*SnapshotIngested, error) {
	var msg SnapshotIngested
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
