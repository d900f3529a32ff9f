package jobshandler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"boutika/internal/domain/auth"
	"boutika/internal/platform/jobs"
	"boutika/internal/transport/http/middleware"
)

func runJobRequest(t *testing.T, role, jobType string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(&jobs.Service{}, auth.Permissions{})
	router := chi.NewRouter()
	h.RegisterRoutes(router)

	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", WorkspaceID: "ws1", Role: role}, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/jobs/"+jobType+"/run", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	middleware.Auth(secret)(router).ServeHTTP(rec, req)
	return rec
}

func TestRunRejectsUnknownJobType(t *testing.T) {
	rec := runJobRequest(t, auth.RoleAdmin, "mystery_scan")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unknown_job_type") {
		t.Fatalf("expected unknown_job_type envelope, got %s", rec.Body.String())
	}
}

func TestRunRequiresTeamManage(t *testing.T) {
	rec := runJobRequest(t, auth.RoleVendeur, jobs.JobLowStockScan)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
