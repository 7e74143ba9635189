package expenditure

import (
	"testing"

	"github.com/fdg312/adaptive-tdee/internal/storage"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func sptr(v string) *string   { return &v }

func TestEnergyDensity_SignRule(t *testing.T) {
	for _, d := range []float64{-5, -0.5, -0.0001, -1e-12} {
		if got := EnergyDensity(d); got != 7700 {
			t.Errorf("EnergyDensity(%v) = %d, want 7700", d, got)
		}
	}
	for _, d := range []float64{0, 1e-12, 0.1, 3} {
		if got := EnergyDensity(d); got != 5500 {
			t.Errorf("EnergyDensity(%v) = %d, want 5500", d, got)
		}
	}
}

func TestRawTDEE(t *testing.T) {
	tests := []struct {
		name   string
		intake int
		delta  float64
		want   int
	}{
		{"loss day", 2000, -0.1, 2770},
		{"gain day", 2500, 0.1, 1950},
		{"flat day", 2300, 0, 2300},
		{"fast day", 0, -0.2, 1540},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RawTDEE(tc.intake, tc.delta); got != tc.want {
				t.Errorf("RawTDEE(%d, %v) = %d, want %d", tc.intake, tc.delta, got, tc.want)
			}
		})
	}
}

func TestSmoothTDEE_Scenario(t *testing.T) {
	raw := RawTDEE(2000, -0.1)
	got := SmoothTDEE(raw, 2200, SmoothingAlpha(nil))
	if got != 2229 {
		t.Errorf("SmoothTDEE = %d, want 2229", got)
	}
}

func TestSmoothingAlpha(t *testing.T) {
	tests := []struct {
		name  string
		delta *float64
		want  float64
	}{
		{"no steps", nil, NormalAlpha},
		{"small change", fptr(0.1), NormalAlpha},
		{"at threshold", fptr(0.2), NormalAlpha},
		{"big increase", fptr(0.35), ResponsiveAlpha},
		{"big decrease", fptr(-0.4), ResponsiveAlpha},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SmoothingAlpha(tc.delta); got != tc.want {
				t.Errorf("SmoothingAlpha = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRelativeStepDelta(t *testing.T) {
	if RelativeStepDelta(nil, []int{8000}) != nil {
		t.Error("expected nil without today's steps")
	}
	if RelativeStepDelta(iptr(8000), nil) != nil {
		t.Error("expected nil without a baseline")
	}
	if RelativeStepDelta(iptr(8000), []int{0, 0}) != nil {
		t.Error("expected nil for a zero baseline")
	}
	d := RelativeStepDelta(iptr(12000), []int{8000, 12000})
	if d == nil || *d != 0.2 {
		t.Errorf("expected 0.2, got %v", d)
	}
}

func TestFluxRange(t *testing.T) {
	if got := FluxRange(0, nil); got != 500 {
		t.Errorf("FluxRange(0) = %d, want 500", got)
	}
	if got := FluxRange(10, []int{2000, 2200}); got != 350 {
		t.Errorf("FluxRange(10, noisy) = %d, want 350", got)
	}
	if got := FluxRange(30, []int{2400, 2400, 2400}); got != 100 {
		t.Errorf("FluxRange(30) = %d, want floor 100", got)
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		days, missing int
		want          storage.ConfidenceLevel
	}{
		{3, 0, storage.ConfidenceLearning},
		{20, 4, storage.ConfidenceLow},
		{20, 3, storage.ConfidenceMedium},
		{20, 2, storage.ConfidenceMedium},
		{20, 1, storage.ConfidenceHigh},
		{7, 0, storage.ConfidenceHigh},
	}
	for _, tc := range tests {
		if got := Confidence(tc.days, tc.missing, DefaultColdStartDays); got != tc.want {
			t.Errorf("Confidence(%d, %d) = %s, want %s", tc.days, tc.missing, got, tc.want)
		}
	}
}

func makeProfile(sex string, heightCm float64, birth string) storage.Profile {
	return storage.Profile{Sex: &sex, HeightCm: &heightCm, BirthDate: &birth}
}

func TestBootstrapTDEE(t *testing.T) {
	male := makeProfile("male", 180, "1990-01-01")
	got, ok := BootstrapTDEE(male, 81, "2026-03-08", DefaultActivityFactor)
	if !ok {
		t.Fatal("expected ok=true")
	}
	// BMR = 810 + 1125 - 180 + 5 = 1760; x1.55 = 2728
	if got != 2728 {
		t.Errorf("male bootstrap = %d, want 2728", got)
	}

	female := makeProfile("female", 165, "1990-01-01")
	got, _ = BootstrapTDEE(female, 65, "2026-03-08", DefaultActivityFactor)
	// BMR = 650 + 1031.25 - 180 - 161 = 1340.25; x1.55 = 2077.39
	if got != 2077 {
		t.Errorf("female bootstrap = %d, want 2077", got)
	}

	female.Athlete = true
	got, _ = BootstrapTDEE(female, 65, "2026-03-08", DefaultActivityFactor)
	if got != 2285 {
		t.Errorf("athlete bootstrap = %d, want 2285", got)
	}
}

func TestBootstrapTDEE_MissingFields(t *testing.T) {
	cases := []struct {
		name  string
		mutFn func(p *storage.Profile)
	}{
		{"nil Sex", func(p *storage.Profile) { p.Sex = nil }},
		{"nil HeightCm", func(p *storage.Profile) { p.HeightCm = nil }},
		{"nil BirthDate", func(p *storage.Profile) { p.BirthDate = nil }},
		{"unknown Sex", func(p *storage.Profile) { p.Sex = sptr("other") }},
		{"future BirthDate", func(p *storage.Profile) { p.BirthDate = sptr("2030-01-01") }},
		{"ancient BirthDate", func(p *storage.Profile) { p.BirthDate = sptr("1800-01-01") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := makeProfile("male", 180, "1990-01-01")
			tc.mutFn(&p)
			if _, ok := BootstrapTDEE(p, 80, "2026-03-08", DefaultActivityFactor); ok {
				t.Errorf("expected ok=false when %s", tc.name)
			}
		})
	}
}

func TestInColdStart(t *testing.T) {
	for day := 1; day <= 7; day++ {
		if !InColdStart(day, DefaultColdStartDays) {
			t.Errorf("day %d should be cold start", day)
		}
	}
	if InColdStart(8, DefaultColdStartDays) {
		t.Error("day 8 should be past cold start")
	}
}
