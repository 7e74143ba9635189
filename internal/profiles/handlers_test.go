package profiles

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/adaptive-tdee/internal/recalc"
	"github.com/fdg312/adaptive-tdee/internal/storage"
	"github.com/fdg312/adaptive-tdee/internal/storage/memory"
	"github.com/google/uuid"
)

const today = "2026-03-10"

type recomputeCall struct {
	from    string
	trigger string
	all     bool
}

// fakeRecomputer записывает вызовы пересчёта
type fakeRecomputer struct {
	calls []recomputeCall
	err   error
}

func (f *fakeRecomputer) RecomputeFrom(ctx context.Context, userID uuid.UUID, from, trigger string) (*recalc.RecomputeResult, error) {
	f.calls = append(f.calls, recomputeCall{from: from, trigger: trigger})
	if f.err != nil {
		return nil, f.err
	}
	return &recalc.RecomputeResult{From: from, To: today}, nil
}

func (f *fakeRecomputer) RecomputeAll(ctx context.Context, userID uuid.UUID, trigger string) (*recalc.RecomputeResult, error) {
	f.calls = append(f.calls, recomputeCall{trigger: trigger, all: true})
	if f.err != nil {
		return nil, f.err
	}
	return &recalc.RecomputeResult{To: today}, nil
}

func (f *fakeRecomputer) Today() string { return today }

func strp(v string) *string { return &v }
func fp(v float64) *float64 { return &v }
func bp(v bool) *bool       { return &v }

func fullRequest() UpsertProfileRequest {
	return UpsertProfileRequest{
		HeightCm:          fp(180),
		BirthDate:         strp("1990-01-01"),
		Sex:               strp("male"),
		GoalType:          strp("lose"),
		GoalRateKgPerWeek: fp(0.5),
	}
}

func TestUpsertProfile_NewProfileRecomputesAll(t *testing.T) {
	store := memory.New()
	rec := &fakeRecomputer{}
	svc := NewService(store, rec)
	userID := uuid.New()

	resp, err := svc.UpsertProfile(context.Background(), userID, fullRequest())
	if err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	if resp.Profile.DailyAdjustmentKcal != -550 {
		t.Errorf("expected -550 kcal adjustment, got %d", resp.Profile.DailyAdjustmentKcal)
	}
	if resp.Profile.Units != UnitsKg {
		t.Errorf("expected default units kg, got %q", resp.Profile.Units)
	}
	if len(rec.calls) != 1 || !rec.calls[0].all || rec.calls[0].trigger != recalc.TriggerProfile {
		t.Errorf("expected one full recompute, got %+v", rec.calls)
	}
	transitions, _ := store.ListGoalTransitions(context.Background(), userID, "2000-01-01", "2100-01-01")
	if len(transitions) != 0 {
		t.Errorf("a new profile must not record a goal transition, got %d", len(transitions))
	}
}

func TestUpsertProfile_GoalChangeRecordsTransition(t *testing.T) {
	store := memory.New()
	rec := &fakeRecomputer{}
	svc := NewService(store, rec)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.UpsertProfile(ctx, userID, fullRequest()); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec.calls = nil

	resp, err := svc.UpsertProfile(ctx, userID, UpsertProfileRequest{GoalType: strp("maintain")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if resp.Profile.GoalRateKgPerWeek != 0 {
		t.Errorf("maintain must zero the rate, got %v", resp.Profile.GoalRateKgPerWeek)
	}

	transitions, _ := store.ListGoalTransitions(ctx, userID, "2000-01-01", "2100-01-01")
	if len(transitions) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(transitions))
	}
	gt := transitions[0]
	if gt.EffectiveDate != today || gt.From.Type != storage.GoalLose || gt.To.Type != storage.GoalMaintain {
		t.Errorf("unexpected transition %+v", gt)
	}
	if len(rec.calls) != 1 || rec.calls[0].all || rec.calls[0].from != today || rec.calls[0].trigger != recalc.TriggerGoal {
		t.Errorf("expected recompute from today with goal trigger, got %+v", rec.calls)
	}
}

func TestUpsertProfile_BodyChangeRecomputesAll(t *testing.T) {
	store := memory.New()
	rec := &fakeRecomputer{}
	svc := NewService(store, rec)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.UpsertProfile(ctx, userID, fullRequest()); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec.calls = nil

	if _, err := svc.UpsertProfile(ctx, userID, UpsertProfileRequest{Athlete: bp(true)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(rec.calls) != 1 || !rec.calls[0].all {
		t.Errorf("expected full recompute, got %+v", rec.calls)
	}

	// только единицы измерения: без пересчёта
	rec.calls = nil
	if _, err := svc.UpsertProfile(ctx, userID, UpsertProfileRequest{Units: strp("lb")}); err != nil {
		t.Fatalf("update units: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("units change must not recompute, got %+v", rec.calls)
	}
}

func TestUpsertProfile_IncompleteProfileStillSaves(t *testing.T) {
	store := memory.New()
	rec := &fakeRecomputer{err: recalc.ErrProfileIncomplete}
	svc := NewService(store, rec)
	userID := uuid.New()

	resp, err := svc.UpsertProfile(context.Background(), userID, UpsertProfileRequest{Sex: strp("female")})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Recompute != nil {
		t.Error("expected no recompute result")
	}
	if _, err := store.GetProfile(context.Background(), userID); err != nil {
		t.Errorf("expected profile to be stored: %v", err)
	}
}

func TestUpsertProfile_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  UpsertProfileRequest
		want error
	}{
		{"bad sex", UpsertProfileRequest{Sex: strp("other")}, ErrInvalidSex},
		{"short", UpsertProfileRequest{HeightCm: fp(50)}, ErrInvalidHeight},
		{"tall", UpsertProfileRequest{HeightCm: fp(300)}, ErrInvalidHeight},
		{"future birth date", UpsertProfileRequest{BirthDate: strp("2030-01-01")}, ErrInvalidBirthDate},
		{"ancient birth date", UpsertProfileRequest{BirthDate: strp("1850-01-01")}, ErrInvalidBirthDate},
		{"malformed birth date", UpsertProfileRequest{BirthDate: strp("01.01.1990")}, ErrInvalidBirthDate},
		{"bad goal", UpsertProfileRequest{GoalType: strp("bulk")}, ErrInvalidGoalType},
		{"negative rate", UpsertProfileRequest{GoalRateKgPerWeek: fp(-0.5)}, ErrInvalidGoalRate},
		{"aggressive rate", UpsertProfileRequest{GoalRateKgPerWeek: fp(1.5)}, ErrInvalidGoalRate},
		{"bad target", UpsertProfileRequest{TargetWeightKg: fp(10)}, ErrInvalidTarget},
		{"bad units", UpsertProfileRequest{Units: strp("stone")}, ErrInvalidUnits},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &fakeRecomputer{}
			svc := NewService(memory.New(), rec)
			if _, err := svc.UpsertProfile(context.Background(), uuid.New(), tc.req); err != tc.want {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
			if len(rec.calls) != 0 {
				t.Error("invalid request must not recompute")
			}
		})
	}
}

func TestHandleGetAndPut(t *testing.T) {
	store := memory.New()
	handler := NewHandler(NewService(store, &fakeRecomputer{}))
	userID := uuid.New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/users/{user_id}/profile", handler.HandleGet)
	mux.HandleFunc("PUT /v1/users/{user_id}/profile", handler.HandlePut)
	path := "/v1/users/" + userID.String() + "/profile"

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before creation, got %d", w.Code)
	}

	body, _ := json.Marshal(fullRequest())
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPut, path, bytes.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var dto ProfileDTO
	if err := json.NewDecoder(w.Body).Decode(&dto); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if dto.GoalType != "lose" || dto.Sex == nil || *dto.Sex != "male" {
		t.Errorf("unexpected profile %+v", dto)
	}
}

func TestHandlePut_Errors(t *testing.T) {
	handler := NewHandler(NewService(memory.New(), &fakeRecomputer{}))

	tests := []struct {
		name   string
		userID string
		body   string
		status int
		code   string
	}{
		{"bad user id", "nope", `{}`, http.StatusBadRequest, "invalid_user_id"},
		{"bad json", uuid.New().String(), `{`, http.StatusBadRequest, "invalid_json"},
		{"bad sex", uuid.New().String(), `{"sex":"x"}`, http.StatusBadRequest, "invalid_sex"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(tc.body))
			req.SetPathValue("user_id", tc.userID)
			w := httptest.NewRecorder()
			handler.HandlePut(w, req)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			var resp ErrorResponse
			json.NewDecoder(w.Body).Decode(&resp)
			if resp.Error.Code != tc.code {
				t.Errorf("expected code %q, got %q", tc.code, resp.Error.Code)
			}
		})
	}
}
