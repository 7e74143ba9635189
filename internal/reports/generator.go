package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/jung-kurt/gofpdf"
)

// recentDaysLimit caps the day table of the PDF.
const recentDaysLimit = 28

// Generator renders diagnostics as PDF or CSV
type Generator struct {
	fontName string
}

// NewGenerator creates a new report generator. Uses the core Arial font,
// so labels stay in Latin-1.
func NewGenerator() *Generator {
	return &Generator{fontName: "Arial"}
}

// Generate renders the report in the requested format
func (g *Generator) Generate(format string, diag *DiagnosticsResponse, checkins []storage.WeeklyCheckIn) ([]byte, error) {
	switch format {
	case FormatPDF:
		return g.generatePDF(diag, checkins)
	case FormatCSV:
		return g.generateCSV(diag)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// generateCSV writes one row per day of the range
func (g *Generator) generateCSV(diag *DiagnosticsResponse) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"date", "status", "intake_kcal", "scale_weight_kg", "trend_weight_kg",
		"raw_tdee_kcal", "estimated_tdee_kcal", "flux_kcal", "source", "whoosh", "outlier", "partial_reason",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, d := range diag.Days {
		row := []string{
			d.Date,
			d.Status,
			optInt(d.IntakeCalories),
			optFloat(d.ScaleWeightKg, 2),
			optFloat(d.TrendWeightKg, 2),
			optInt(d.RawTdeeKcal),
			optInt(d.EstimatedTdee),
			optInt(d.FluxKcal),
			d.Source,
			d.WhooshSeverity,
			strconv.FormatBool(d.Outlier),
			d.PartialReason,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// generatePDF renders a one-document summary: quality, estimate, check-ins and recent days
func (g *Generator) generatePDF(diag *DiagnosticsResponse, checkins []storage.WeeklyCheckIn) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	font := g.fontName

	pdf.AddPage()
	pdf.SetFont(font, "B", 16)
	pdf.Cell(0, 10, "Energy Expenditure Report")
	pdf.Ln(8)

	pdf.SetFont(font, "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s - %s", diag.From, diag.To))
	pdf.Ln(12)

	// Summary
	pdf.SetFont(font, "B", 14)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont(font, "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Estimated TDEE: %s", formatTdee(diag.LatestTdee, diag.LatestFluxKcal)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Weekly trend change: %s", formatChange(diag.WeeklyChangeKg)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Data quality score: %d/100", diag.Quality.Score))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Outlier days: %d   Whoosh days: %d   Carried days: %d", diag.OutlierDays, diag.WhooshDays, diag.CarriedDays))
	pdf.Ln(7)
	for _, issue := range diag.Quality.Issues {
		pdf.Cell(0, 5, "- "+issue)
		pdf.Ln(5)
	}
	pdf.Ln(6)

	if len(checkins) > 0 {
		pdf.SetFont(font, "B", 14)
		pdf.Cell(0, 8, "Weekly check-ins")
		pdf.Ln(8)
		g.drawCheckInsTable(pdf, checkins)
		pdf.Ln(6)
	}

	pdf.SetFont(font, "B", 14)
	pdf.Cell(0, 8, "Recent days")
	pdf.Ln(8)
	g.drawRecentDaysTable(pdf, diag.Days)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func (g *Generator) drawCheckInsTable(pdf *gofpdf.Fpdf, checkins []storage.WeeklyCheckIn) {
	pdf.SetFont(g.fontName, "B", 8)
	pdf.CellFormat(25, 6, "Week", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Avg TDEE", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Target", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Adherence", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Change, kg", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Confidence", "1", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 8)
	for _, c := range checkins {
		target := strconv.Itoa(c.SuggestedCalories)
		if !c.Eligible {
			target += " (held)"
		}
		pdf.CellFormat(25, 6, c.WeekStart, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, strconv.Itoa(c.AverageTdee), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, target, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.0f%%", c.AdherenceScore*100), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%+.2f", c.WeeklyWeightChange), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, string(c.ConfidenceLevel), "1", 1, "C", false, 0, "")
	}
}

func (g *Generator) drawRecentDaysTable(pdf *gofpdf.Fpdf, days []DayDiagnostics) {
	recent := days
	if len(recent) > recentDaysLimit {
		recent = recent[len(recent)-recentDaysLimit:]
	}

	pdf.SetFont(g.fontName, "B", 8)
	pdf.CellFormat(22, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(18, 6, "Status", "1", 0, "C", false, 0, "")
	pdf.CellFormat(18, 6, "Intake", "1", 0, "C", false, 0, "")
	pdf.CellFormat(18, 6, "Scale", "1", 0, "C", false, 0, "")
	pdf.CellFormat(18, 6, "Trend", "1", 0, "C", false, 0, "")
	pdf.CellFormat(18, 6, "Raw", "1", 0, "C", false, 0, "")
	pdf.CellFormat(18, 6, "TDEE", "1", 0, "C", false, 0, "")
	pdf.CellFormat(22, 6, "Source", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Flags", "1", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 8)
	for _, d := range recent {
		flags := d.WhooshSeverity
		if d.Outlier {
			if flags != "" {
				flags += ","
			}
			flags += "outlier"
		}
		pdf.CellFormat(22, 6, d.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, d.Status, "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, dash(optInt(d.IntakeCalories)), "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, dash(optFloat(d.ScaleWeightKg, 1)), "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, dash(optFloat(d.TrendWeightKg, 1)), "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, dash(optInt(d.RawTdeeKcal)), "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, dash(optInt(d.EstimatedTdee)), "1", 0, "C", false, 0, "")
		pdf.CellFormat(22, 6, d.Source, "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, flags, "1", 1, "C", false, 0, "")
	}
}

func formatTdee(tdee, flux *int) string {
	if tdee == nil {
		return "No data"
	}
	if flux == nil {
		return fmt.Sprintf("%d kcal", *tdee)
	}
	return fmt.Sprintf("%d +/- %d kcal", *tdee, *flux)
}

func formatChange(kg *float64) string {
	if kg == nil {
		return "No data"
	}
	return fmt.Sprintf("%+.2f kg", *kg)
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optFloat(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
