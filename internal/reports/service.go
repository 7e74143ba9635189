// Package reports serves chain diagnostics and renders them into
// downloadable PDF or CSV reports.
package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fdg312/adaptive-tdee/internal/blob"
	"github.com/fdg312/adaptive-tdee/internal/calendar"
	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/google/uuid"
)

// Errors
var (
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidDate      = errors.New("invalid date format")
	ErrInvalidDateRange = errors.New("from date must be before to date")
	ErrRangeTooLarge    = errors.New("date range too large")
	ErrReportNotFound   = errors.New("report not found")
)

// Store is the persistence the reports service reads and writes.
type Store interface {
	ListComputedStates(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.ComputedState, error)
	ListDailyRecords(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.DailyRecord, error)
	ListCheckIns(ctx context.Context, userID uuid.UUID, from, to string) ([]storage.WeeklyCheckIn, error)
	storage.ReportStorage
}

// Service handles reports business logic
type Service struct {
	store           Store
	generator       *Generator
	blobStore       blob.Store
	maxRangeDays    int
	presignTTL      int
	localMode       bool   // true if no S3 configured
	publicBaseURL   string // S3 public base URL (if prefer_public_url mode)
	preferPublicURL bool   // if true, use public URLs instead of presigned
	log             *slog.Logger
}

// NewService creates a new reports service. A nil blobStore keeps report
// bytes next to their metadata.
func NewService(
	store Store,
	blobStore blob.Store,
	maxRangeDays int,
	presignTTL int,
	publicBaseURL string,
	preferPublicURL bool,
) *Service {
	if maxRangeDays <= 0 {
		maxRangeDays = 90
	}
	return &Service{
		store:           store,
		generator:       NewGenerator(),
		blobStore:       blobStore,
		maxRangeDays:    maxRangeDays,
		presignTTL:      presignTTL,
		localMode:       blobStore == nil,
		publicBaseURL:   publicBaseURL,
		preferPublicURL: preferPublicURL,
		log:             slog.Default().With(slog.String("component", "reports")),
	}
}

func (s *Service) WithLogger(l *slog.Logger) *Service {
	if l != nil {
		s.log = l.With(slog.String("component", "reports"))
	}
	return s
}

// CreateReport renders diagnostics for the range and stores the document
func (s *Service) CreateReport(ctx context.Context, userID uuid.UUID, req CreateReportRequest) (*Report, error) {
	if req.Format != FormatPDF && req.Format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	diag, err := s.Diagnostics(ctx, userID, req.From, req.To)
	if err != nil {
		return nil, err
	}
	weekFrom, _ := calendar.WeekStart(req.From)
	checkins, err := s.store.ListCheckIns(ctx, userID, weekFrom, req.To)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}

	data, err := s.generator.Generate(req.Format, diag, checkins)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	report := &storage.ReportMeta{
		ID:        uuid.New(),
		UserID:    userID,
		Format:    req.Format,
		FromDate:  req.From,
		ToDate:    req.To,
		SizeBytes: int64(len(data)),
		Status:    StatusReady,
	}

	if s.localMode {
		report.Data = data
	} else {
		objectKey := fmt.Sprintf("reports/%s/%s_%s_%s.%s",
			userID.String(),
			req.From,
			req.To,
			report.ID.String(),
			req.Format,
		)
		if _, err := s.blobStore.PutObject(ctx, objectKey, data, contentType(req.Format)); err != nil {
			return nil, fmt.Errorf("failed to upload to S3: %w", err)
		}
		report.ObjectKey = &objectKey
	}

	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report metadata: %w", err)
	}

	s.log.Info("report_created",
		slog.String("user_id", userID.String()),
		slog.String("report_id", report.ID.String()),
		slog.String("format", req.Format),
		slog.Int64("size_bytes", report.SizeBytes))
	return toReport(report), nil
}

// GetReport retrieves a report by ID
func (s *Service) GetReport(ctx context.Context, userID, id uuid.UUID) (*Report, error) {
	meta, err := s.getMeta(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return toReport(meta), nil
}

// ListReports lists the user's reports, newest first
func (s *Service) ListReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Report, error) {
	metaList, err := s.store.ListReports(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]Report, len(metaList))
	for i := range metaList {
		reports[i] = *toReport(&metaList[i])
	}
	return reports, nil
}

// DeleteReport deletes a report and its object
func (s *Service) DeleteReport(ctx context.Context, userID, id uuid.UUID) error {
	meta, err := s.getMeta(ctx, userID, id)
	if err != nil {
		return err
	}

	if !s.localMode && meta.ObjectKey != nil {
		if err := s.blobStore.DeleteObject(ctx, *meta.ObjectKey); err != nil {
			// metadata deletion still goes ahead
			s.log.Warn("report_object_delete_failed", slog.String("key", *meta.ObjectKey), slog.Any("err", err))
		}
	}

	if err := s.store.DeleteReport(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete report metadata: %w", err)
	}
	return nil
}

// GetReportDownloadURL generates a download URL for a report
func (s *Service) GetReportDownloadURL(ctx context.Context, userID, id uuid.UUID, baseURL string) (string, error) {
	meta, err := s.getMeta(ctx, userID, id)
	if err != nil {
		return "", err
	}
	return s.downloadURL(ctx, meta, baseURL)
}

// DownloadURL is the URL a client should fetch the report from
func (s *Service) DownloadURL(ctx context.Context, r *Report, baseURL string) (string, error) {
	return s.downloadURL(ctx, &storage.ReportMeta{ID: r.ID, UserID: r.UserID, ObjectKey: r.ObjectKey}, baseURL)
}

func (s *Service) downloadURL(ctx context.Context, meta *storage.ReportMeta, baseURL string) (string, error) {
	if s.localMode {
		return fmt.Sprintf("%s/v1/users/%s/reports/%s/download",
			strings.TrimSuffix(baseURL, "/"), meta.UserID.String(), meta.ID.String()), nil
	}

	if meta.ObjectKey == nil {
		return "", fmt.Errorf("object key is missing")
	}
	if s.preferPublicURL && s.publicBaseURL != "" {
		return strings.TrimSuffix(s.publicBaseURL, "/") + "/" + *meta.ObjectKey, nil
	}

	presignedURL, err := s.blobStore.PresignGet(ctx, *meta.ObjectKey, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return presignedURL, nil
}

// GetReportData returns the raw document and its content type
func (s *Service) GetReportData(ctx context.Context, userID, id uuid.UUID) ([]byte, string, error) {
	meta, err := s.getMeta(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}

	ct := contentType(meta.Format)
	if s.localMode {
		return meta.Data, ct, nil
	}
	if meta.ObjectKey == nil {
		return nil, "", fmt.Errorf("object key is missing")
	}
	data, err := s.blobStore.GetObject(ctx, *meta.ObjectKey)
	if err != nil {
		return nil, "", err
	}
	return data, ct, nil
}

// IsLocalMode reports whether documents are kept in the metadata store
func (s *Service) IsLocalMode() bool {
	return s.localMode
}

func (s *Service) getMeta(ctx context.Context, userID, id uuid.UUID) (*storage.ReportMeta, error) {
	meta, err := s.store.GetReport(ctx, userID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return meta, nil
}

// validateRange returns the days of [from, to] within the configured max range
func (s *Service) validateRange(from, to string) ([]string, error) {
	if calendar.Validate(from) != nil || calendar.Validate(to) != nil {
		return nil, ErrInvalidDate
	}
	if from > to {
		return nil, ErrInvalidDateRange
	}
	n, _ := calendar.DaysBetween(from, to)
	if n > s.maxRangeDays {
		return nil, ErrRangeTooLarge
	}
	return calendar.Range(from, to)
}

func contentType(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}

// toReport converts ReportMeta to Report model
func toReport(meta *storage.ReportMeta) *Report {
	return &Report{
		ID:        meta.ID,
		UserID:    meta.UserID,
		Format:    meta.Format,
		FromDate:  meta.FromDate,
		ToDate:    meta.ToDate,
		ObjectKey: meta.ObjectKey,
		SizeBytes: meta.SizeBytes,
		Status:    meta.Status,
		Error:     meta.Error,
		CreatedAt: meta.CreatedAt,
		UpdatedAt: meta.UpdatedAt,
		Data:      meta.Data,
	}
}
