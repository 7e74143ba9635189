package edgecase

import (
	"fmt"
	"math"

	"github.com/fdg312/adaptive-tdee/internal/storage"
)

const (
	completionPenaltyMax  = 40
	partialPenaltyMax     = 30
	weightPenaltyMax      = 30
	lowVariancePenalty    = 10
	lowVarianceStdKcal    = 50
	lowVarianceMinSamples = 5
)

// Quality is a 0-100 data-quality score with the issues that lowered it.
type Quality struct {
	Score  int      `json:"score"`
	Issues []string `json:"issues"`
}

// DataQuality scores records spanning a window of days. Days without a
// record count as incomplete and unweighed.
func DataQuality(records []storage.DailyRecord, days int) Quality {
	q := Quality{Score: 100, Issues: []string{}}
	if days <= 0 {
		return q
	}

	var complete, partial, logged, weighed int
	intakes := make([]int, 0, len(records))
	for _, r := range records {
		if r.ScaleWeightKg != nil {
			weighed++
		}
		if r.IntakeCalories == nil || r.Status == storage.StatusSkipped {
			continue
		}
		logged++
		intakes = append(intakes, *r.IntakeCalories)
		switch r.Status {
		case storage.StatusComplete:
			complete++
		case storage.StatusPartial:
			partial++
		}
	}

	completion := math.Min(1, float64(complete)/float64(days))
	if p := penalty(1-completion, completionPenaltyMax); p > 0 {
		q.Score -= p
		q.Issues = append(q.Issues, fmt.Sprintf("only %d of %d days fully logged", complete, days))
	}

	if logged > 0 {
		if p := penalty(float64(partial)/float64(logged), partialPenaltyMax); p > 0 {
			q.Score -= p
			q.Issues = append(q.Issues, fmt.Sprintf("%d of %d logged days look partial", partial, logged))
		}
	}

	weightCoverage := math.Min(1, float64(weighed)/float64(days))
	if p := penalty(1-weightCoverage, weightPenaltyMax); p > 0 {
		q.Score -= p
		q.Issues = append(q.Issues, fmt.Sprintf("weighed in on %d of %d days", weighed, days))
	}

	if len(intakes) >= lowVarianceMinSamples && stdDev(intakes) < lowVarianceStdKcal {
		q.Score -= lowVariancePenalty
		q.Issues = append(q.Issues, "logged calories barely vary from day to day")
	}

	if q.Score < 0 {
		q.Score = 0
	}
	if q.Score > 100 {
		q.Score = 100
	}
	return q
}

func penalty(rate float64, max int) int {
	if rate <= 0 {
		return 0
	}
	return int(math.Round(rate * float64(max)))
}

func stdDev(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := float64(v) - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}
