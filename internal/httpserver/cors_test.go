package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/adaptive-tdee/internal/config"
)

const corsPath = "/v1/users/4f7c7d8e-9a51-4c3e-8f2a-1b2c3d4e5f60/states"

func TestCORS_PreflightAllowedOrigin(t *testing.T) {
	cfg := &config.Config{CORSAllowedOrigins: []string{"https://app.example.com"}}

	handler := CORSMiddleware(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called for preflight")
	}))

	req := httptest.NewRequest(http.MethodOptions, corsPath, nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("expected Allow-Origin=https://app.example.com, got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != corsAllowMethods {
		t.Errorf("expected Allow-Methods=%s, got %q", corsAllowMethods, got)
	}
	if got := rr.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Errorf("expected Max-Age=600, got %q", got)
	}
}

func TestCORS_Requests(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		credentials bool
		origin      string
		wantOrigin  string
		wantCreds   string
	}{
		{"disallowed origin", []string{"https://app.example.com"}, false, "https://evil.com", "", ""},
		{"allowed with credentials", []string{"https://app.example.com"}, true, "https://app.example.com", "https://app.example.com", "true"},
		{"no origin header", []string{"https://app.example.com"}, false, "", "", ""},
		{"wildcard never sends credentials", []string{"*"}, true, "https://any.example.com", "https://any.example.com", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{CORSAllowedOrigins: tc.origins, CORSAllowCredentials: tc.credentials}
			innerCalled := false
			handler := CORSMiddleware(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				innerCalled = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, corsPath, nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if !innerCalled {
				t.Error("expected inner handler to be called")
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tc.wantOrigin)
			}
			if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != tc.wantCreds {
				t.Errorf("Allow-Credentials = %q, want %q", got, tc.wantCreds)
			}
		})
	}
}

func TestCORS_PlainOptionsPassesThrough(t *testing.T) {
	cfg := &config.Config{CORSAllowedOrigins: []string{"https://app.example.com"}}
	innerCalled := false
	handler := CORSMiddleware(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		innerCalled = true
	}))

	req := httptest.NewRequest(http.MethodOptions, corsPath, nil)
	req.Header.Set("Origin", "https://app.example.com")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !innerCalled {
		t.Error("OPTIONS without Access-Control-Request-Method is not a preflight")
	}
}
