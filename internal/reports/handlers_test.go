package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/fdg312/adaptive-tdee/internal/storage/memory"
	"github.com/google/uuid"
)

// fakeBlobStore implements blob.Store in memory
type fakeBlobStore struct {
	objects map[string][]byte
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) PutObject(ctx context.Context, key string, data []byte, contentType string) (int64, error) {
	f.objects[key] = data
	return int64(len(data)), nil
}

func (f *fakeBlobStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	return f.objects[key], nil
}

func (f *fakeBlobStore) PresignGet(ctx context.Context, key string, ttlSeconds int) (string, error) {
	return "https://storage.example.com/" + key + "?signed=1", nil
}

func (f *fakeBlobStore) DeleteObject(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return nil
}

func setupTestService(t *testing.T, blobStore *fakeBlobStore) (*Handlers, *http.ServeMux, uuid.UUID) {
	t.Helper()
	store := memory.New()
	userID := uuid.New()
	ctx := context.Background()

	states := chainFixture("2026-02-01", []int{2400, 2380, 2420, 2400, 2410, 2390, 2400, 2405, 2395, 2400})
	if _, err := store.ReplaceComputedStates(ctx, userID, "2026-02-01", states, 0); err != nil {
		t.Fatalf("seed states: %v", err)
	}
	for i, st := range states {
		intake := 2100 + 40*i
		weight := 80 - 0.1*float64(i)
		store.UpsertDailyRecord(ctx, &storage.DailyRecord{
			UserID: userID, Date: st.Date, IntakeCalories: &intake, ScaleWeightKg: &weight, Status: storage.StatusComplete,
		})
	}

	var service *Service
	if blobStore == nil {
		service = NewService(store, nil, 90, 900, "", false)
	} else {
		service = NewService(store, blobStore, 90, 900, "", false)
	}
	handler := NewHandlers(service, func() string { return "2026-02-15" })

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/users/{user_id}/diagnostics", handler.HandleDiagnostics)
	mux.HandleFunc("POST /v1/users/{user_id}/reports", handler.HandleCreate)
	mux.HandleFunc("GET /v1/users/{user_id}/reports", handler.HandleList)
	mux.HandleFunc("GET /v1/users/{user_id}/reports/{id}/download", handler.HandleDownload)
	mux.HandleFunc("DELETE /v1/users/{user_id}/reports/{id}", handler.HandleDelete)
	return handler, mux, userID
}

func createReport(t *testing.T, mux *http.ServeMux, userID uuid.UUID, req CreateReportRequest) (*httptest.ResponseRecorder, ReportDTO) {
	t.Helper()
	body, _ := json.Marshal(req)
	r := httptest.NewRequest(http.MethodPost, "/v1/users/"+userID.String()+"/reports", bytes.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	var dto ReportDTO
	if w.Code == http.StatusCreated {
		if err := json.NewDecoder(w.Body).Decode(&dto); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return w, dto
}

func TestHandleDiagnostics(t *testing.T) {
	_, mux, userID := setupTestService(t, nil)

	r := httptest.NewRequest(http.MethodGet, "/v1/users/"+userID.String()+"/diagnostics?from=2026-02-01&to=2026-02-10", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp DiagnosticsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Days) != 10 {
		t.Errorf("expected 10 days, got %d", len(resp.Days))
	}
	if resp.Quality.Score != 100 {
		t.Errorf("expected quality 100, got %d (%v)", resp.Quality.Score, resp.Quality.Issues)
	}
	if resp.WeeklyChangeKg == nil {
		t.Error("expected weekly change")
	}
}

func TestHandleDiagnostics_InvalidParams(t *testing.T) {
	_, mux, userID := setupTestService(t, nil)

	tests := []struct {
		name   string
		path   string
		code   string
		status int
	}{
		{"bad user", "/v1/users/nope/diagnostics", "invalid_user_id", http.StatusBadRequest},
		{"bad date", "/v1/users/" + userID.String() + "/diagnostics?from=01-02-2026", "invalid_date", http.StatusBadRequest},
		{"reversed", "/v1/users/" + userID.String() + "/diagnostics?from=2026-02-10&to=2026-02-01", "invalid_range", http.StatusBadRequest},
		{"too long", "/v1/users/" + userID.String() + "/diagnostics?from=2025-01-01&to=2026-02-01", "range_too_large", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			var resp ErrorResponse
			json.NewDecoder(w.Body).Decode(&resp)
			if resp.Error.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, resp.Error.Code)
			}
		})
	}
}

func TestHandleCreate_CSV_LocalDownload(t *testing.T) {
	_, mux, userID := setupTestService(t, nil)

	w, dto := createReport(t, mux, userID, CreateReportRequest{From: "2026-02-01", To: "2026-02-10", Format: FormatCSV})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if dto.Format != FormatCSV || dto.SizeBytes == 0 {
		t.Errorf("unexpected report %+v", dto)
	}
	if !strings.Contains(dto.DownloadURL, "/v1/users/"+userID.String()+"/reports/"+dto.ID.String()+"/download") {
		t.Errorf("unexpected download URL %s", dto.DownloadURL)
	}

	r := httptest.NewRequest(http.MethodGet, "/v1/users/"+userID.String()+"/reports/"+dto.ID.String()+"/download", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %s", ct)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 11 {
		t.Errorf("expected header + 10 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "date,status,intake_kcal") {
		t.Errorf("unexpected header %q", lines[0])
	}
}

func TestHandleCreate_PDF(t *testing.T) {
	_, mux, userID := setupTestService(t, nil)

	w, dto := createReport(t, mux, userID, CreateReportRequest{From: "2026-02-01", To: "2026-02-10"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d. Body: %s", w.Code, w.Body.String())
	}
	if dto.Format != FormatPDF {
		t.Errorf("expected default format pdf, got %s", dto.Format)
	}

	r := httptest.NewRequest(http.MethodGet, "/v1/users/"+userID.String()+"/reports/"+dto.ID.String()+"/download", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("expected a PDF document")
	}
}

func TestHandleCreate_InvalidFormat(t *testing.T) {
	_, mux, userID := setupTestService(t, nil)

	w, _ := createReport(t, mux, userID, CreateReportRequest{From: "2026-02-01", To: "2026-02-10", Format: "xlsx"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestHandleListAndDelete(t *testing.T) {
	_, mux, userID := setupTestService(t, nil)
	_, first := createReport(t, mux, userID, CreateReportRequest{From: "2026-02-01", To: "2026-02-05", Format: FormatCSV})
	createReport(t, mux, userID, CreateReportRequest{From: "2026-02-01", To: "2026-02-10", Format: FormatCSV})

	list := func() ReportsResponse {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/users/"+userID.String()+"/reports", nil))
		var resp ReportsResponse
		json.NewDecoder(w.Body).Decode(&resp)
		return resp
	}
	if got := len(list().Reports); got != 2 {
		t.Fatalf("expected 2 reports, got %d", got)
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/users/"+userID.String()+"/reports/"+first.ID.String(), nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := len(list().Reports); got != 1 {
		t.Errorf("expected 1 report after delete, got %d", got)
	}

	// чужой пользователь не видит отчёт
	w = httptest.NewRecorder()
	other := uuid.New()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/users/"+other.String()+"/reports/"+first.ID.String(), nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestS3Mode_UploadsAndRedirects(t *testing.T) {
	blobStore := newFakeBlobStore()
	_, mux, userID := setupTestService(t, blobStore)

	w, dto := createReport(t, mux, userID, CreateReportRequest{From: "2026-02-01", To: "2026-02-10", Format: FormatCSV})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(blobStore.objects) != 1 {
		t.Fatalf("expected 1 uploaded object, got %d", len(blobStore.objects))
	}
	if !strings.HasPrefix(dto.DownloadURL, "https://storage.example.com/reports/"+userID.String()+"/") {
		t.Errorf("unexpected download URL %s", dto.DownloadURL)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/users/"+userID.String()+"/reports/"+dto.ID.String()+"/download", nil))
	if w.Code != http.StatusFound {
		t.Errorf("expected redirect, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/users/"+userID.String()+"/reports/"+dto.ID.String(), nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if len(blobStore.deleted) != 1 {
		t.Errorf("expected object to be deleted, got %v", blobStore.deleted)
	}
}
