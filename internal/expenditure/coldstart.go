package expenditure

import (
	"math"

	"github.com/fdg312/adaptive-tdee/internal/calendar"
	"github.com/fdg312/adaptive-tdee/internal/storage"
)

const (
	// DefaultColdStartDays is how many days of history use the population
	// formula instead of back-solving.
	DefaultColdStartDays = 7
	// DefaultActivityFactor is the multiplier applied to BMR during cold start.
	DefaultActivityFactor = 1.55
	// athleteBonus corrects for the higher organ and muscle mass of athletes.
	athleteBonus = 1.10
)

// InColdStart reports whether the 1-based dayIndex falls in the cold-start window.
func InColdStart(dayIndex, coldStartDays int) bool {
	return dayIndex <= coldStartDays
}

// BMR computes the Mifflin-St Jeor basal metabolic rate. Returns ok=false
// when height, birth date or sex is missing, or the age is implausible.
func BMR(p storage.Profile, weightKg float64, on string) (float64, bool) {
	if p.HeightCm == nil || p.BirthDate == nil || p.Sex == nil {
		return 0, false
	}
	age, err := calendar.Age(*p.BirthDate, on)
	if err != nil {
		return 0, false
	}
	// Guard against implausible ages (e.g. DOB in the future, or over 130 years ago)
	if age < 0 || age > 130 {
		return 0, false
	}

	bmr := 10*weightKg + 6.25*(*p.HeightCm) - 5*float64(age)
	switch *p.Sex {
	case storage.SexMale:
		bmr += 5
	case storage.SexFemale:
		bmr -= 161
	default:
		return 0, false
	}
	return bmr, true
}

// BootstrapTDEE is the cold-start estimate: BMR × activity factor, plus 10%
// for athletes. A non-positive activity factor falls back to the default.
func BootstrapTDEE(p storage.Profile, weightKg float64, on string, activityFactor float64) (int, bool) {
	bmr, ok := BMR(p, weightKg, on)
	if !ok {
		return 0, false
	}
	if activityFactor <= 0 {
		activityFactor = DefaultActivityFactor
	}
	tdee := bmr * activityFactor
	if p.Athlete {
		tdee *= athleteBonus
	}
	return int(math.Round(tdee)), true
}
