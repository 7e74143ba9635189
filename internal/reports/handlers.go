package reports

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fdg312/adaptive-tdee/internal/calendar"
	"github.com/google/uuid"
)

// Handlers handles HTTP requests for diagnostics and reports
type Handlers struct {
	service *Service
	today   func() string
}

// NewHandlers creates new handlers. today supplies the default end of the
// diagnostics range.
func NewHandlers(service *Service, today func() string) *Handlers {
	return &Handlers{service: service, today: today}
}

// HandleDiagnostics handles GET /v1/users/{user_id}/diagnostics?from=&to=
func (h *Handlers) HandleDiagnostics(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	to := r.URL.Query().Get("to")
	if to == "" {
		to = h.today()
	}
	from := r.URL.Query().Get("from")
	if from == "" {
		from = calendar.AddDays(to, -27)
	}

	diag, err := h.service.Diagnostics(r.Context(), userID, from, to)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(diag)
}

// HandleCreate handles POST /v1/users/{user_id}/reports
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON")
		return
	}
	if req.Format == "" {
		req.Format = FormatPDF
	}

	report, err := h.service.CreateReport(r.Context(), userID, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	downloadURL, err := h.service.DownloadURL(r.Context(), report, getBaseURL(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to generate download URL")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toDTO(report, downloadURL))
}

// HandleList handles GET /v1/users/{user_id}/reports
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	reports, err := h.service.ListReports(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	baseURL := getBaseURL(r)
	dtos := make([]ReportDTO, len(reports))
	for i := range reports {
		downloadURL, _ := h.service.DownloadURL(r.Context(), &reports[i], baseURL)
		dtos[i] = toDTO(&reports[i], downloadURL)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ReportsResponse{Reports: dtos})
}

// HandleDownload handles GET /v1/users/{user_id}/reports/{id}/download
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	reportID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "Invalid report ID")
		return
	}

	report, err := h.service.GetReport(r.Context(), userID, reportID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if !h.service.IsLocalMode() {
		// S3 mode: redirect to presigned URL
		url, err := h.service.DownloadURL(r.Context(), report, getBaseURL(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to generate download URL")
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	data, contentType, err := h.service.GetReportData(r.Context(), userID, reportID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	filename := fmt.Sprintf("tdee_report_%s_%s.%s", report.FromDate, report.ToDate, report.Format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", strconv.FormatInt(int64(len(data)), 10))
	w.Write(data)
}

// HandleDelete handles DELETE /v1/users/{user_id}/reports/{id}
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	reportID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "Invalid report ID")
		return
	}

	if err := h.service.DeleteReport(r.Context(), userID, reportID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions

func (h *Handlers) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id", "Invalid user ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, "invalid_format", "Format must be 'pdf' or 'csv'")
	case errors.Is(err, ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", "Invalid date format, use YYYY-MM-DD")
	case errors.Is(err, ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, "invalid_range", "From date must be before to date")
	case errors.Is(err, ErrRangeTooLarge):
		writeError(w, http.StatusBadRequest, "range_too_large", fmt.Sprintf("Date range exceeds maximum of %d days", h.service.maxRangeDays))
	case errors.Is(err, ErrReportNotFound):
		writeError(w, http.StatusNotFound, "report_not_found", "Report not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func toDTO(report *Report, downloadURL string) ReportDTO {
	return ReportDTO{
		ID:          report.ID,
		Format:      report.Format,
		From:        report.FromDate,
		To:          report.ToDate,
		DownloadURL: downloadURL,
		SizeBytes:   report.SizeBytes,
		Status:      report.Status,
		CreatedAt:   report.CreatedAt,
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func getBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	host := r.Host
	return fmt.Sprintf("%s://%s", scheme, host)
}
