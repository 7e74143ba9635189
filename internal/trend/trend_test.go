package trend

import (
	"math"
	"testing"
	"time"

	"github.com/fdg312/adaptive-tdee/internal/storage"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func ptr(v float64) *float64 { return &v }

func obsAt(day string, hour int, kg float64) storage.WeightObservation {
	t, _ := time.Parse("2006-01-02", day)
	return storage.WeightObservation{WeightKg: kg, ObservedAt: t.Add(time.Duration(hour) * time.Hour)}
}

func TestUpdateTrend_MissingHoldsExactly(t *testing.T) {
	for _, prev := range []float64{30, 71.3333333, 80.05, 299.99} {
		if got := UpdateTrend(prev, nil); got != prev {
			t.Errorf("UpdateTrend(%v, nil) = %v, want exactly %v", prev, got, prev)
		}
	}
}

func TestUpdateTrend_EMA(t *testing.T) {
	got := UpdateTrend(80, ptr(79))
	if !almostEqual(got, 79.9, 1e-9) {
		t.Errorf("UpdateTrend(80, 79) = %v, want 79.9", got)
	}
}

func TestCalculateWeightDelta(t *testing.T) {
	if got := CalculateWeightDelta(79.9, 80); !almostEqual(got, -0.1, 1e-9) {
		t.Errorf("delta = %v, want -0.1", got)
	}
}

func TestCalculateTrendWeights_OnePointPerDay(t *testing.T) {
	obs := []storage.WeightObservation{
		obsAt("2026-03-03", 7, 80),
		obsAt("2026-03-03", 20, 81), // second reading of the day is ignored
		obsAt("2026-03-06", 7, 79),
	}
	points, err := CalculateTrendWeights(obs, "2026-03-01", "2026-03-08", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 8 {
		t.Fatalf("expected 8 points, got %d", len(points))
	}

	seen := map[string]bool{}
	for _, p := range points {
		if seen[p.Date] {
			t.Fatalf("duplicate date %s", p.Date)
		}
		seen[p.Date] = true
	}

	// days before the seed carry the seed
	if points[0].TrendWeightKg != 80 || points[1].TrendWeightKg != 80 {
		t.Errorf("expected seed carried backwards, got %v %v", points[0].TrendWeightKg, points[1].TrendWeightKg)
	}
	if points[2].ScaleWeightKg == nil || *points[2].ScaleWeightKg != 80 {
		t.Errorf("expected first reading of 03-03 to be used")
	}
	// gap days hold
	if points[3].TrendWeightKg != 80 || points[4].TrendWeightKg != 80 {
		t.Errorf("expected gap to forward-fill, got %v %v", points[3].TrendWeightKg, points[4].TrendWeightKg)
	}
	if !almostEqual(points[5].TrendWeightKg, 79.9, 1e-9) {
		t.Errorf("expected 79.9 on 03-06, got %v", points[5].TrendWeightKg)
	}
	if points[7].TrendWeightKg != points[5].TrendWeightKg {
		t.Errorf("expected trailing gap to hold")
	}
}

func TestCalculateTrendWeights_NoObservations(t *testing.T) {
	points, err := CalculateTrendWeights(nil, "2026-03-01", "2026-03-08", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("expected empty series, got %d points", len(points))
	}
}

func TestCalculateTrendWeights_InvalidRange(t *testing.T) {
	if _, err := CalculateTrendWeights(nil, "2026-03-08", "2026-03-01", time.UTC); err != ErrInvalidRange {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := CalculateTrendWeights(nil, "bad", "2026-03-01", time.UTC); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestCalculateTrendWeights_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// 20:00 UTC on 03-01 is 06:00 on 03-02 in loc
	obs := []storage.WeightObservation{obsAt("2026-03-01", 20, 75)}
	points, err := CalculateTrendWeights(obs, "2026-03-01", "2026-03-02", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if points[0].ScaleWeightKg != nil {
		t.Error("expected no reading on 03-01 in local time")
	}
	if points[1].ScaleWeightKg == nil {
		t.Error("expected the reading on 03-02 in local time")
	}
}

func TestGetWeeklyWeightChange(t *testing.T) {
	short := make([]Point, 6)
	if GetWeeklyWeightChange(short) != nil {
		t.Error("expected nil for fewer than 7 points")
	}

	series := []Point{
		{TrendWeightKg: 81}, {TrendWeightKg: 80.8}, {TrendWeightKg: 80.7}, {TrendWeightKg: 80.5},
		{TrendWeightKg: 80.4}, {TrendWeightKg: 80.3}, {TrendWeightKg: 80.2}, {TrendWeightKg: 80.0},
	}
	got := GetWeeklyWeightChange(series)
	if got == nil {
		t.Fatal("expected a value for 8 points")
	}
	if !almostEqual(*got, -0.8, 1e-9) {
		t.Errorf("weekly change = %v, want -0.8", *got)
	}
}
