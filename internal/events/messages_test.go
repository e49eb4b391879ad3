package events

import (
	"testing"

	"github.com/shopspring/decimal"

	"finadvisor/internal/core"
	"finadvisor/internal/health"
)

func TestSnapshotIngested_JSONRoundTrip(t *testing.T) {
	snap := core.BuildSnapshot(core.RawInput{
		Income: decimal.NewFromInt(50000),
		Expenses: map[string]decimal.Decimal{
			"Rent": decimal.NewFromInt(15000),
			"EMI":  decimal.NewFromInt(20000),
		},
		Month: "May 2025",
	}, core.SourceCSV)

	msg := NewSnapshotIngested("sess1", snap, health.Score(snap))

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := SnapshotIngestedFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}

	if got.SessionID != "sess1" || got.Month != "May 2025" || got.Source != "csv" {
		t.Errorf("identity fields wrong: %+v", got)
	}
	if !got.Income.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("Income = %s, want 50000", got.Income)
	}
	if !got.Savings.Equal(decimal.NewFromInt(15000)) {
		t.Errorf("Savings = %s, want 15000", got.Savings)
	}
	if got.HealthScore != msg.HealthScore {
		t.Errorf("HealthScore = %d, want %d", got.HealthScore, msg.HealthScore)
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestSnapshotIngestedFromJSON_Malformed(t *testing.T) {
	if _, err := SnapshotIngestedFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
