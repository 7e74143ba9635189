package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStaleChain is returned when a chain write was computed against an
	// older chain version than the one currently stored.
	ErrStaleChain = errors.New("stale chain version")
)

// Physical bounds for a body-weight observation.
const (
	MinWeightKg = 30.0
	MaxWeightKg = 300.0
)

// DayStatus describes how completely a day was logged.
type DayStatus string

const (
	StatusComplete DayStatus = "complete"
	StatusPartial  DayStatus = "partial"
	StatusSkipped  DayStatus = "skipped"
)

// Valid reports whether s is one of the known statuses.
func (s DayStatus) Valid() bool {
	switch s {
	case StatusComplete, StatusPartial, StatusSkipped:
		return true
	}
	return false
}

// GoalType is the user's body-weight goal direction.
type GoalType string

const (
	GoalLose     GoalType = "lose"
	GoalGain     GoalType = "gain"
	GoalMaintain GoalType = "maintain"
)

func (g GoalType) Valid() bool {
	switch g {
	case GoalLose, GoalGain, GoalMaintain:
		return true
	}
	return false
}

// Goal is a goal type together with its rate in kg per week.
type Goal struct {
	Type          GoalType
	RateKgPerWeek float64
}

// Sex values accepted by the basal metabolic rate formula.
const (
	SexMale   = "male"
	SexFemale = "female"
)

// StateSource records which branch of the chain produced a ComputedState.
type StateSource string

const (
	SourceColdStart  StateSource = "cold_start"
	SourceBackSolved StateSource = "back_solved"
	SourceCarried    StateSource = "carried"
)

// ConfidenceLevel grades how much a TDEE estimate can be trusted.
type ConfidenceLevel string

const (
	ConfidenceLearning ConfidenceLevel = "learning"
	ConfidenceLow      ConfidenceLevel = "low"
	ConfidenceMedium   ConfidenceLevel = "medium"
	ConfidenceHigh     ConfidenceLevel = "high"
)

// WeightObservation is a single scale reading. Immutable once stored.
type WeightObservation struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	WeightKg   float64
	ObservedAt time.Time
	Note       string
	CreatedAt  time.Time
}

// MealEntry is one logged food item; aggregation sums them per day.
type MealEntry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Date      string // YYYY-MM-DD
	Name      string
	Calories  int
	ProteinG  *float64
	CarbsG    *float64
	FatG      *float64
	CreatedAt time.Time
}

// DailyRecord is the aggregated input for one calendar day.
// IntakeCalories nil means untracked; 0 means an intentional fast.
type DailyRecord struct {
	UserID         uuid.UUID
	Date           string // YYYY-MM-DD
	ScaleWeightKg  *float64
	IntakeCalories *int
	IntakeProteinG *float64
	IntakeCarbsG   *float64
	IntakeFatG     *float64
	StepCount      *int
	Status         DayStatus
	StatusLocked   bool // explicit user override, preserved by aggregation
	UpdatedAt      time.Time
}

// ComputedState is the derived energy-balance state for one day.
type ComputedState struct {
	UserID              uuid.UUID
	Date                string
	TrendWeightKg       float64
	EstimatedTdeeKcal   int
	RawTdeeKcal         int
	FluxConfidenceRange int
	EnergyDensityUsed   int
	WeightDeltaKg       float64
	DaysTracked         int
	Source              StateSource
	WhooshSeverity      string
	ChainVersion        int64
}

// WeeklyCheckIn is the coaching summary for one Monday-to-Sunday week.
type WeeklyCheckIn struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	WeekStart          string
	WeekEnd            string
	AverageTdee        int
	SuggestedCalories  int
	AdherenceScore     float64
	ConfidenceLevel    ConfidenceLevel
	TrendWeightStart   float64
	TrendWeightEnd     float64
	WeeklyWeightChange float64
	Eligible           bool
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Profile holds the body and goal settings of a user.
type Profile struct {
	UserID            uuid.UUID
	HeightCm          *float64
	BirthDate         *string // YYYY-MM-DD
	Sex               *string
	Athlete           bool
	GoalType          GoalType
	GoalRateKgPerWeek float64
	TargetWeightKg    *float64
	Units             string // kg|lb, display only
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Goal returns the profile's current goal.
func (p Profile) Goal() Goal {
	return Goal{Type: p.GoalType, RateKgPerWeek: p.GoalRateKgPerWeek}
}

// GoalTransition records a goal switch so that replays reproduce its effect.
type GoalTransition struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	EffectiveDate string
	From          Goal
	To            Goal
	CreatedAt     time.Time
}

// WeightStorage persists weight observations.
type WeightStorage interface {
	CreateWeightObservation(ctx context.Context, obs *WeightObservation) error
	GetWeightObservation(ctx context.Context, userID, id uuid.UUID) (*WeightObservation, error)
	DeleteWeightObservation(ctx context.Context, userID, id uuid.UUID) error
	// ListWeightObservations returns observations with from <= ObservedAt < to, ascending.
	ListWeightObservations(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]WeightObservation, error)
}

// MealStorage persists meal entries.
type MealStorage interface {
	CreateMeal(ctx context.Context, meal *MealEntry) error
	GetMeal(ctx context.Context, userID, id uuid.UUID) (*MealEntry, error)
	DeleteMeal(ctx context.Context, userID, id uuid.UUID) error
	ListMealsForDate(ctx context.Context, userID uuid.UUID, date string) ([]MealEntry, error)
}

// DailyRecordStorage persists per-day aggregates.
type DailyRecordStorage interface {
	UpsertDailyRecord(ctx context.Context, rec *DailyRecord) error
	GetDailyRecord(ctx context.Context, userID uuid.UUID, date string) (*DailyRecord, error)
	// ListDailyRecords returns records in [from, to], ascending by date.
	ListDailyRecords(ctx context.Context, userID uuid.UUID, from, to string) ([]DailyRecord, error)
	// FirstWeighedDate returns the earliest date with a scale weight.
	FirstWeighedDate(ctx context.Context, userID uuid.UUID) (string, bool, error)
}

// ComputedStateStorage persists the derived chain.
type ComputedStateStorage interface {
	// ListComputedStates returns states in [from, to], ascending by date.
	ListComputedStates(ctx context.Context, userID uuid.UUID, from, to string) ([]ComputedState, error)
	ChainVersion(ctx context.Context, userID uuid.UUID) (int64, error)
	// ReplaceComputedStates atomically deletes every state on or after from,
	// writes states and bumps the chain version. It fails with ErrStaleChain
	// when the stored version differs from expectedVersion.
	ReplaceComputedStates(ctx context.Context, userID uuid.UUID, from string, states []ComputedState, expectedVersion int64) (int64, error)
}

// CheckInStorage persists weekly check-ins.
type CheckInStorage interface {
	UpsertCheckIn(ctx context.Context, c *WeeklyCheckIn) error
	GetCheckIn(ctx context.Context, userID uuid.UUID, weekStart string) (*WeeklyCheckIn, error)
	// ListCheckIns returns check-ins whose week starts in [from, to], ascending.
	ListCheckIns(ctx context.Context, userID uuid.UUID, from, to string) ([]WeeklyCheckIn, error)
	DeleteCheckIn(ctx context.Context, userID uuid.UUID, weekStart string) error
}

// ReportMeta is the metadata of a generated diagnostics report. Data is only
// populated in local mode, where the document is kept next to its metadata.
type ReportMeta struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Format    string
	FromDate  string
	ToDate    string
	ObjectKey *string
	SizeBytes int64
	Status    string
	Error     *string
	CreatedAt time.Time
	UpdatedAt time.Time
	Data      []byte
}

// ReportStorage persists report metadata.
type ReportStorage interface {
	CreateReport(ctx context.Context, r *ReportMeta) error
	GetReport(ctx context.Context, userID, id uuid.UUID) (*ReportMeta, error)
	// ListReports returns the user's reports, newest first.
	ListReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ReportMeta, error)
	DeleteReport(ctx context.Context, userID, id uuid.UUID) error
}

// ProfileStorage persists user profiles and goal history.
type ProfileStorage interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	UpsertProfile(ctx context.Context, p *Profile) error
	CreateGoalTransition(ctx context.Context, gt *GoalTransition) error
	// ListGoalTransitions returns transitions effective in [from, to], ascending.
	ListGoalTransitions(ctx context.Context, userID uuid.UUID, from, to string) ([]GoalTransition, error)
}

// Storage is the full persistence surface of the service.
type Storage interface {
	WeightStorage
	MealStorage
	DailyRecordStorage
	ComputedStateStorage
	CheckInStorage
	ProfileStorage
	ReportStorage

	// Close releases the underlying connection (Postgres).
	Close() error
}
