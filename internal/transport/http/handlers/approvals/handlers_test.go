package approvalshandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"boutika/internal/domain/approval"
	"boutika/internal/domain/auth"
	"boutika/internal/domain/catalog"
	"boutika/internal/domain/messaging"
	"boutika/internal/transport/http/middleware"
)

type fakeApprovalStore struct {
	requests  map[string]*approval.DeletionRequest
	confirmed map[string]bool
}

func (f *fakeApprovalStore) CreatePending(_ context.Context, _ string, req approval.NewRequest) (string, bool, error) {
	return "", false, errors.New("not used")
}

func (f *fakeApprovalStore) MarkProcessed(_ context.Context, _, requestID, status, processedBy, reason string) (bool, error) {
	req, ok := f.requests[requestID]
	if !ok || req.Status != approval.StatusPending {
		return false, nil
	}
	now := time.Now()
	req.Status = status
	req.ProcessedBy = processedBy
	req.ProcessedAt = &now
	req.Reason = reason
	return true, nil
}

func (f *fakeApprovalStore) ConfirmDeletion(_ context.Context, _, requestID string) error {
	if f.confirmed == nil {
		f.confirmed = map[string]bool{}
	}
	f.confirmed[requestID] = true
	return nil
}

func (f *fakeApprovalStore) GetRequest(_ context.Context, _, requestID string) (approval.DeletionRequest, error) {
	req, ok := f.requests[requestID]
	if !ok {
		return approval.DeletionRequest{}, pgx.ErrNoRows
	}
	return *req, nil
}

func (f *fakeApprovalStore) ListRequests(_ context.Context, _, _ string, _, _ int) ([]approval.DeletionRequest, int, error) {
	return nil, 0, nil
}

func (f *fakeApprovalStore) StalePending(_ context.Context, _ string, _ time.Time) ([]approval.DeletionRequest, error) {
	return nil, nil
}

type fakeMsgStore struct {
	roleUsers     []string
	notifications []messaging.Notification
}

func (f *fakeMsgStore) CreateNotification(_ context.Context, _, userID, ntype, title, body string) error {
	f.notifications = append(f.notifications, messaging.Notification{ID: userID, Type: ntype, Title: title, Body: body})
	return nil
}

func (f *fakeMsgStore) UserEmail(_ context.Context, _, _ string) (string, error) { return "", nil }

func (f *fakeMsgStore) UserIDsByRoles(_ context.Context, _ string, _ []string) ([]string, error) {
	return f.roleUsers, nil
}

func (f *fakeMsgStore) ListNotifications(_ context.Context, _, _ string, _, _ int) ([]messaging.Notification, error) {
	return f.notifications, nil
}

func (f *fakeMsgStore) CountUnread(_ context.Context, _, _ string) (int, error) { return 0, nil }

func (f *fakeMsgStore) MarkNotificationRead(_ context.Context, _, _, _ string) error { return nil }

func (f *fakeMsgStore) CreateMessage(_ context.Context, _ string, msg messaging.Message) (messaging.Message, error) {
	return msg, nil
}

func (f *fakeMsgStore) ListMessages(_ context.Context, _, _ string, _, _ int) ([]messaging.Message, error) {
	return nil, nil
}

func (f *fakeMsgStore) MarkMessageRead(_ context.Context, _, _, _ string) error { return nil }

// stubDB satisfies querier.Querier so the catalog delete can be forced
// to succeed or fail without a database.
type stubDB struct{ err error }

func (s stubDB) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, s.err }

func (s stubDB) QueryRow(context.Context, string, ...any) pgx.Row { return stubRow{s.err} }

func (s stubDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, s.err
}

type stubRow struct{ err error }

func (r stubRow) Scan(...any) error { return r.err }

func newTestHandler(db stubDB, apStore *fakeApprovalStore, msgStore *fakeMsgStore) http.Handler {
	approvalSvc := approval.NewService(apStore, approval.Thresholds{})
	catalogSvc := catalog.NewService(catalog.NewStore(db))
	notify := messaging.New(msgStore, nil)
	h := NewHandler(approvalSvc, catalogSvc, nil, nil, auth.Permissions{}, notify, nil)
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	return middleware.Auth("test-secret")(router)
}

func approveRequest(t *testing.T, handler http.Handler, requestID string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateToken("test-secret", auth.Claims{UserID: "adm1", WorkspaceID: "ws1", Role: auth.RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/approvals/"+requestID+"/approve", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func pendingProductRequest(id string) *approval.DeletionRequest {
	return &approval.DeletionRequest{
		ID:          id,
		ItemType:    approval.TypeProduct,
		ItemID:      "p1",
		RequestedBy: approval.Actor{UserID: "v1", Name: "Awa", Role: auth.RoleVendeur},
		Status:      approval.StatusPending,
		Reasons:     []string{approval.ReasonLimitedRole},
		CreatedAt:   time.Now(),
	}
}

func TestApproveDeletionFailureAlertsAdmins(t *testing.T) {
	apStore := &fakeApprovalStore{requests: map[string]*approval.DeletionRequest{"r1": pendingProductRequest("r1")}}
	msgStore := &fakeMsgStore{roleUsers: []string{"adm1", "own1"}}
	handler := newTestHandler(stubDB{err: errors.New("db down")}, apStore, msgStore)

	rec := approveRequest(t, handler, "r1")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	if apStore.requests["r1"].Status != approval.StatusApproved {
		t.Fatalf("request must stay approved, got %q", apStore.requests["r1"].Status)
	}
	if apStore.confirmed["r1"] {
		t.Fatal("deletion must not be confirmed when the callback fails")
	}
	if len(msgStore.notifications) != 2 {
		t.Fatalf("expected an alert per admin/owner, got %d", len(msgStore.notifications))
	}
	for _, n := range msgStore.notifications {
		if n.Type != messaging.TypeApprovalUnconfirmed {
			t.Fatalf("expected %s notification, got %s", messaging.TypeApprovalUnconfirmed, n.Type)
		}
	}
}

func TestApproveSuccessNotifiesRequesterOnly(t *testing.T) {
	apStore := &fakeApprovalStore{requests: map[string]*approval.DeletionRequest{"r1": pendingProductRequest("r1")}}
	msgStore := &fakeMsgStore{roleUsers: []string{"adm1", "own1"}}
	handler := newTestHandler(stubDB{}, apStore, msgStore)

	rec := approveRequest(t, handler, "r1")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !apStore.confirmed["r1"] {
		t.Fatal("deletion must be confirmed on success")
	}
	if len(msgStore.notifications) != 1 {
		t.Fatalf("expected only the requester notification, got %d", len(msgStore.notifications))
	}
	if n := msgStore.notifications[0]; n.ID != "v1" || n.Type != messaging.TypeApprovalApproved {
		t.Fatalf("unexpected notification: %+v", n)
	}
}
