package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPMiddleware(t *testing.T) {
	const secret = "test-secret"
	valid, err := GenerateToken("alice", secret, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	tests := []struct {
		name       string
		method     string
		path       string
		header     string
		wantStatus int
		wantCaller string
	}{
		{name: "public read", method: http.MethodGet, path: "/v1/stats", wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
		{name: "write without token", method: http.MethodPost, path: "/v1/organizations", wantStatus: http.StatusUnauthorized},
		{name: "write with bad prefix", method: http.MethodPost, path: "/v1/organizations", header: "Token " + valid, wantStatus: http.StatusUnauthorized},
		{name: "write with bad token", method: http.MethodPost, path: "/v1/organizations", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "write with token", method: http.MethodPost, path: "/v1/organizations", header: "Bearer " + valid, wantStatus: http.StatusOK, wantCaller: "alice"},
		{name: "dashboard without token", method: http.MethodGet, path: "/v1/organizations/1/dashboard", wantStatus: http.StatusUnauthorized},
		{name: "employee list without token", method: http.MethodGet, path: "/v1/organizations/1/employees", wantStatus: http.StatusUnauthorized},
		{name: "own schedules with token", method: http.MethodGet, path: "/v1/me/schedules", header: "Bearer " + valid, wantStatus: http.StatusOK, wantCaller: "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var caller string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				caller, _ = IdentityFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			HTTPMiddleware(next, secret).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if caller != tt.wantCaller {
				t.Errorf("expected caller %q, got %q", tt.wantCaller, caller)
			}
		})
	}
}
