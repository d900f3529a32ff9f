package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"boutika/internal/domain/auth"
)

func TestAuthAttachesUser(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", WorkspaceID: "ws1", Role: auth.RoleVendeur}, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	var got auth.UserContext
	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = GetUser(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	Auth(secret)(next).ServeHTTP(httptest.NewRecorder(), req)

	if !found {
		t.Fatal("expected user in context")
	}
	if got.UserID != "u1" || got.WorkspaceID != "ws1" || got.Role != auth.RoleVendeur {
		t.Fatalf("unexpected user context: %+v", got)
	}
}

func TestAuthIgnoresInvalidToken(t *testing.T) {
	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = GetUser(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	Auth("test-secret")(next).ServeHTTP(httptest.NewRecorder(), req)

	if found {
		t.Fatal("invalid token must not attach a user")
	}
}

func TestRequirePermission(t *testing.T) {
	store := auth.Permissions{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequirePermission(auth.PermAuditRead, store)(next)

	tests := []struct {
		name string
		role string
		want int
	}{
		{name: "admin allowed", role: auth.RoleAdmin, want: http.StatusNoContent},
		{name: "vendeur forbidden", role: auth.RoleVendeur, want: http.StatusForbidden},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			secret := "test-secret"
			token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", WorkspaceID: "ws1", Role: tc.role}, time.Hour)
			if err != nil {
				t.Fatalf("token: %v", err)
			}
			req := httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			Auth(secret)(handler).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}

	t.Run("anonymous unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}
