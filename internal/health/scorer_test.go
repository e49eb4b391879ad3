package health

import (
	"testing"

	"github.com/shopspring/decimal"

	"finadvisor/internal/core"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func snapshot(income string, expenses map[string]string) core.Snapshot {
	in := core.RawInput{Income: dec(income), Expenses: map[string]decimal.Decimal{}}
	for c, v := range expenses {
		in.Expenses[c] = dec(v)
	}
	return core.BuildSnapshot(in, core.SourceManual)
}

func TestScore_ReferenceScenario(t *testing.T) {
	// income 50000, rent 15000, food 8000, EMI 20000:
	// savings 7000, rate 14% -> 20; positive savings -> 20;
	// EMI at 40% -> 10; largest expense at 40% -> 15. Total 65.
	snap := snapshot("50000", map[string]string{
		"Rent": "15000",
		"Food": "8000",
		"EMI":  "20000",
	})

	got := Score(snap)
	if got.Score != 65 {
		t.Errorf("Score = %d, want 65", got.Score)
	}
	if got.Status != "Good" || got.Color != "lightgreen" {
		t.Errorf("Status/Color = %s/%s, want Good/lightgreen", got.Status, got.Color)
	}
}

func TestScore_Excellent(t *testing.T) {
	// savings rate 70% -> 40; positive savings -> 20; no EMI -> 20;
	// rent at 20% of income -> 20. Total 100.
	snap := snapshot("10000", map[string]string{
		"Rent": "2000",
		"Food": "1000",
	})

	got := Score(snap)
	if got.Score != 100 {
		t.Errorf("Score = %d, want 100", got.Score)
	}
	if got.Status != "Excellent" || got.Color != "green" {
		t.Errorf("Status/Color = %s/%s, want Excellent/green", got.Status, got.Color)
	}
}

func TestScore_ZeroIncomeAllZero(t *testing.T) {
	// Established behavior: savings of exactly zero stays within the
	// -10% floor (10 pts) and a zero EMI share pays 20 pts.
	snap := snapshot("0", nil)

	got := Score(snap)
	if got.Score != 30 {
		t.Errorf("Score = %d, want 30", got.Score)
	}
	if got.Status != "Needs Improvement" || got.Color != "red" {
		t.Errorf("Status/Color = %s/%s, want Needs Improvement/red", got.Status, got.Color)
	}
}

func TestScore_DeepDeficit(t *testing.T) {
	// Expenses at double the income: rate -100% -> 0; savings below
	// the -10% floor -> 0; EMI zero -> 20; concentration over 60% -> 0.
	snap := snapshot("1000", map[string]string{
		"Rent": "2000",
	})

	got := Score(snap)
	if got.Score != 20 {
		t.Errorf("Score = %d, want 20", got.Score)
	}
}

func TestScore_BoundsForAdversarialSnapshots(t *testing.T) {
	cases := []core.Snapshot{
		snapshot("0", map[string]string{"Rent": "99999"}),
		snapshot("1", map[string]string{"EMI": "100000"}),
		snapshot("1000000", nil),
		snapshot("50", map[string]string{"Others": "50"}),
	}

	for i, snap := range cases {
		got := Score(snap)
		if got.Score < 0 || got.Score > 100 {
			t.Errorf("case %d: Score = %d, out of [0,100]", i, got.Score)
		}
	}
}

func TestScore_MalformedSnapshot(t *testing.T) {
	got := Score(core.Snapshot{})
	if got != ErrorResult {
		t.Errorf("Score(zero snapshot) = %+v, want %+v", got, ErrorResult)
	}
	if got.Status != "Error" || got.Color != "gray" || got.Score != 0 {
		t.Errorf("ErrorResult = %+v", got)
	}
}

func TestSavingsRatePoints_MonotonicBuckets(t *testing.T) {
	rates := []string{"0", "4.99", "5", "9.99", "10", "15", "19.99", "20", "25", "29.99", "30", "90"}
	prev := -1
	prevRate := ""
	for _, r := range rates {
		pts := savingsRatePoints(dec(r))
		if pts < prev {
			t.Errorf("savingsRatePoints(%s) = %d < savingsRatePoints(%s) = %d", r, pts, prevRate, prev)
		}
		prev = pts
		prevRate = r
	}

	if savingsRatePoints(dec("15")) != 20 {
		t.Errorf("rate 15%% should award 20 points")
	}
	if savingsRatePoints(dec("25")) != 30 {
		t.Errorf("rate 25%% should award 30 points")
	}
}

func TestEMIPoints(t *testing.T) {
	tests := []struct {
		name   string
		emi    string
		income string
		want   int
	}{
		{name: "no EMI", emi: "0", income: "1000", want: 20},
		{name: "light burden", emi: "250", income: "1000", want: 15},
		{name: "boundary 30", emi: "300", income: "1000", want: 15},
		{name: "boundary 40", emi: "400", income: "1000", want: 10},
		{name: "boundary 50", emi: "500", income: "1000", want: 5},
		{name: "crushing", emi: "600", income: "1000", want: 0},
		{name: "zero income", emi: "500", income: "0", want: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := emiPoints(dec(tt.emi), dec(tt.income)); got != tt.want {
				t.Errorf("emiPoints(%s, %s) = %d, want %d", tt.emi, tt.income, got, tt.want)
			}
		})
	}
}
