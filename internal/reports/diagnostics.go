package reports

import (
	"context"
	"fmt"

	"github.com/fdg312/adaptive-tdee/internal/calendar"
	"github.com/fdg312/adaptive-tdee/internal/edgecase"
	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/fdg312/adaptive-tdee/internal/trend"
	"github.com/google/uuid"
)

// outlierWindowDays is how many preceding back-solved days form the
// baseline of the outlier check.
const outlierWindowDays = 7

// Diagnostics explains the chain over [from, to]: data quality, outlier
// days, partial-log reasons and whoosh events. It never changes the chain.
func (s *Service) Diagnostics(ctx context.Context, userID uuid.UUID, from, to string) (*DiagnosticsResponse, error) {
	days, err := s.validateRange(from, to)
	if err != nil {
		return nil, err
	}

	lookback := calendar.AddDays(from, -outlierWindowDays)
	states, err := s.store.ListComputedStates(ctx, userID, lookback, to)
	if err != nil {
		return nil, fmt.Errorf("list computed states: %w", err)
	}
	records, err := s.store.ListDailyRecords(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list daily records: %w", err)
	}
	return buildDiagnostics(from, to, days, states, records), nil
}

func buildDiagnostics(from, to string, days []string, states []storage.ComputedState, records []storage.DailyRecord) *DiagnosticsResponse {
	stateByDate := make(map[string]storage.ComputedState, len(states))
	for _, st := range states {
		stateByDate[st.Date] = st
	}
	recordByDate := make(map[string]storage.DailyRecord, len(records))
	for _, r := range records {
		recordByDate[r.Date] = r
	}

	resp := &DiagnosticsResponse{
		From:    from,
		To:      to,
		Quality: edgecase.DataQuality(records, len(days)),
		Days:    make([]DayDiagnostics, 0, len(days)),
	}

	var points []trend.Point
	for _, d := range days {
		dd := DayDiagnostics{Date: d}
		prev := stateByDate[calendar.AddDays(d, -1)]

		if r, ok := recordByDate[d]; ok {
			dd.Status = string(r.Status)
			dd.StatusLocked = r.StatusLocked
			dd.IntakeCalories = r.IntakeCalories
			dd.ScaleWeightKg = r.ScaleWeightKg
			if r.Status == storage.StatusPartial {
				dd.PartialReason = partialReason(r, prev.EstimatedTdeeKcal)
			}
		}

		if st, ok := stateByDate[d]; ok {
			trendKg, raw, est, flux := st.TrendWeightKg, st.RawTdeeKcal, st.EstimatedTdeeKcal, st.FluxConfidenceRange
			dd.TrendWeightKg = &trendKg
			dd.RawTdeeKcal = &raw
			dd.EstimatedTdee = &est
			dd.FluxKcal = &flux
			dd.Source = string(st.Source)
			dd.WhooshSeverity = st.WhooshSeverity

			if st.Source == storage.SourceBackSolved {
				dd.Outlier = edgecase.IsOutlier(raw, recentRaw(stateByDate, d))
			}
			if dd.Outlier {
				resp.OutlierDays++
			}
			if st.WhooshSeverity != "" {
				resp.WhooshDays++
			}
			if st.Source == storage.SourceCarried {
				resp.CarriedDays++
			}

			resp.LatestTdee = &est
			resp.LatestFluxKcal = &flux
			points = append(points, trend.Point{Date: d, TrendWeightKg: trendKg, ScaleWeightKg: dd.ScaleWeightKg})
		}
		resp.Days = append(resp.Days, dd)
	}
	resp.WeeklyChangeKg = trend.GetWeeklyWeightChange(points)
	return resp
}

// recentRaw collects the raw TDEE of back-solved days in the window before day.
func recentRaw(stateByDate map[string]storage.ComputedState, day string) []int {
	var out []int
	for i := outlierWindowDays; i >= 1; i-- {
		if st, ok := stateByDate[calendar.AddDays(day, -i)]; ok && st.Source == storage.SourceBackSolved {
			out = append(out, st.RawTdeeKcal)
		}
	}
	return out
}

// partialReason explains a partial day against the previous day's estimate.
func partialReason(r storage.DailyRecord, prevTdee int) string {
	switch {
	case r.StatusLocked:
		return "marked partial by the user"
	case r.IntakeCalories == nil:
		return "no intake logged"
	}
	if reason := edgecase.ExplainPartial(r.IntakeCalories, prevTdee); reason != "" {
		return reason
	}
	return "intake looks incomplete"
}
