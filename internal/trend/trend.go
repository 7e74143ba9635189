// Package trend turns sparse scale readings into a gap-free daily
// exponential moving average ("trend weight").
package trend

import (
	"errors"
	"sort"
	"time"

	"github.com/fdg312/adaptive-tdee/internal/calendar"
	"github.com/fdg312/adaptive-tdee/internal/storage"
)

// Alpha is the EMA smoothing factor applied to each new scale reading.
const Alpha = 0.1

var ErrInvalidRange = errors.New("start date is after end date")

// Point is one day of the trend series.
type Point struct {
	Date          string   `json:"date"`
	TrendWeightKg float64  `json:"trend_weight_kg"`
	ScaleWeightKg *float64 `json:"scale_weight_kg,omitempty"`
}

// UpdateTrend folds one raw reading into the trend. A missing reading holds
// the trend exactly.
func UpdateTrend(prevTrendKg float64, rawWeightKg *float64) float64 {
	if rawWeightKg == nil {
		return prevTrendKg
	}
	return Alpha*(*rawWeightKg) + (1-Alpha)*prevTrendKg
}

// CalculateWeightDelta is today's trend minus yesterday's.
func CalculateWeightDelta(trendToday, trendYesterday float64) float64 {
	return trendToday - trendYesterday
}

// FirstPerDay keeps the earliest observation of each calendar day in loc.
func FirstPerDay(observations []storage.WeightObservation, loc *time.Location) map[string]float64 {
	sorted := make([]storage.WeightObservation, len(observations))
	copy(sorted, observations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ObservedAt.Before(sorted[j].ObservedAt)
	})

	byDay := make(map[string]float64, len(sorted))
	for _, o := range sorted {
		day := calendar.DayOf(o.ObservedAt, loc)
		if _, seen := byDay[day]; !seen {
			byDay[day] = o.WeightKg
		}
	}
	return byDay
}

// CalculateTrendWeights walks [startDate, endDate] day by day and returns
// exactly one point per day. The series is seeded by the first observation in
// range; days before it carry the seed and gaps are forward-filled. Without
// any observation in range the series is empty.
func CalculateTrendWeights(observations []storage.WeightObservation, startDate, endDate string, loc *time.Location) ([]Point, error) {
	days, err := calendar.Range(startDate, endDate)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, ErrInvalidRange
	}

	byDay := FirstPerDay(observations, loc)

	var seed *float64
	for _, d := range days {
		if w, ok := byDay[d]; ok {
			seed = &w
			break
		}
	}
	if seed == nil {
		return []Point{}, nil
	}

	points := make([]Point, 0, len(days))
	current := *seed
	seeded := false
	for _, d := range days {
		var raw *float64
		if w, ok := byDay[d]; ok {
			raw = &w
		}
		if !seeded {
			if raw != nil {
				// the seed day takes the reading as-is
				seeded = true
			}
		} else {
			current = UpdateTrend(current, raw)
		}
		points = append(points, Point{Date: d, TrendWeightKg: current, ScaleWeightKg: raw})
	}
	return points, nil
}

// GetWeeklyWeightChange returns the trend change across the trailing
// seven-point window, or nil when the series is shorter than that.
func GetWeeklyWeightChange(series []Point) *float64 {
	if len(series) < 7 {
		return nil
	}
	change := series[len(series)-1].TrendWeightKg - series[len(series)-7].TrendWeightKg
	return &change
}
