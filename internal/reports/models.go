package reports

import (
	"time"

	"github.com/fdg312/adaptive-tdee/internal/edgecase"
	"github.com/google/uuid"
)

// Report represents a generated report metadata
type Report struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Format    string // "pdf" or "csv"
	FromDate  string // YYYY-MM-DD
	ToDate    string // YYYY-MM-DD
	ObjectKey *string
	SizeBytes int64
	Status    string // "ready" or "failed"
	Error     *string
	CreatedAt time.Time
	UpdatedAt time.Time
	Data      []byte // Only used in local mode
}

// CreateReportRequest is the request to create a new report
type CreateReportRequest struct {
	From   string `json:"from"`   // YYYY-MM-DD
	To     string `json:"to"`     // YYYY-MM-DD
	Format string `json:"format"` // "pdf" or "csv"
}

// ReportDTO is the response representation of a report
type ReportDTO struct {
	ID          uuid.UUID `json:"id"`
	Format      string    `json:"format"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	DownloadURL string    `json:"download_url"`
	SizeBytes   int64     `json:"size_bytes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReportsResponse is the list response
type ReportsResponse struct {
	Reports []ReportDTO `json:"reports"`
}

// DayDiagnostics explains how one day entered the chain.
type DayDiagnostics struct {
	Date           string   `json:"date"`
	Status         string   `json:"status,omitempty"`
	StatusLocked   bool     `json:"status_locked,omitempty"`
	IntakeCalories *int     `json:"intake_calories,omitempty"`
	ScaleWeightKg  *float64 `json:"scale_weight_kg,omitempty"`
	TrendWeightKg  *float64 `json:"trend_weight_kg,omitempty"`
	RawTdeeKcal    *int     `json:"raw_tdee_kcal,omitempty"`
	EstimatedTdee  *int     `json:"estimated_tdee_kcal,omitempty"`
	FluxKcal       *int     `json:"flux_kcal,omitempty"`
	Source         string   `json:"source,omitempty"`
	WhooshSeverity string   `json:"whoosh_severity,omitempty"`
	Outlier        bool     `json:"outlier"`
	PartialReason  string   `json:"partial_reason,omitempty"`
}

// DiagnosticsResponse summarizes the data quality of a date range.
type DiagnosticsResponse struct {
	From           string           `json:"from"`
	To             string           `json:"to"`
	Quality        edgecase.Quality `json:"quality"`
	WeeklyChangeKg *float64         `json:"weekly_change_kg,omitempty"`
	LatestTdee     *int             `json:"latest_tdee_kcal,omitempty"`
	LatestFluxKcal *int             `json:"latest_flux_kcal,omitempty"`
	OutlierDays    int              `json:"outlier_days"`
	WhooshDays     int              `json:"whoosh_days"`
	CarriedDays    int              `json:"carried_days"`
	Days           []DayDiagnostics `json:"days"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Constants for validation
const (
	FormatPDF = "pdf"
	FormatCSV = "csv"

	StatusReady  = "ready"
	StatusFailed = "failed"
)
