package approval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeStore struct {
	requests    map[string]*DeletionRequest
	failMark    bool
	markCalls   int
	confirmed   map[string]bool
	insertCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests:  map[string]*DeletionRequest{},
		confirmed: map[string]bool{},
	}
}

func (f *fakeStore) CreatePending(_ context.Context, _ string, req NewRequest) (string, bool, error) {
	for id, existing := range f.requests {
		if existing.ItemID == req.ItemID && existing.ItemType == req.ItemType && existing.Status == StatusPending {
			return id, false, nil
		}
	}
	f.insertCalls++
	id := uuid.NewString()
	f.requests[id] = &DeletionRequest{
		ID:          id,
		ItemType:    req.ItemType,
		ItemID:      req.ItemID,
		RequestedBy: req.RequestedBy,
		Status:      StatusPending,
		Reasons:     req.Reasons,
		CreatedAt:   time.Now(),
	}
	return id, true, nil
}

func (f *fakeStore) MarkProcessed(_ context.Context, _ string, requestID, status, processedBy, reason string) (bool, error) {
	f.markCalls++
	if f.failMark {
		return false, errors.New("store unavailable")
	}
	req, ok := f.requests[requestID]
	if !ok || req.Status != StatusPending {
		return false, nil
	}
	now := time.Now()
	req.Status = status
	req.ProcessedBy = processedBy
	req.ProcessedAt = &now
	req.Reason = reason
	return true, nil
}

func (f *fakeStore) ConfirmDeletion(_ context.Context, _ string, requestID string) error {
	f.confirmed[requestID] = true
	return nil
}

func (f *fakeStore) GetRequest(_ context.Context, _ string, requestID string) (DeletionRequest, error) {
	req, ok := f.requests[requestID]
	if !ok {
		return DeletionRequest{}, errors.New("not found")
	}
	return *req, nil
}

func (f *fakeStore) ListRequests(_ context.Context, _ string, status string, _, _ int) ([]DeletionRequest, int, error) {
	var out []DeletionRequest
	for _, req := range f.requests {
		if status == "" || req.Status == status {
			out = append(out, *req)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) StalePending(_ context.Context, _ string, before time.Time) ([]DeletionRequest, error) {
	var out []DeletionRequest
	for _, req := range f.requests {
		if req.Status == StatusPending && req.CreatedAt.Before(before) {
			out = append(out, *req)
		}
	}
	return out, nil
}

const workspaceID = "ws-1"

var vendeur = Actor{UserID: "user-1", Name: "Awa", Role: "vendeur"}
var admin = Actor{UserID: "admin-1", Name: "Moussa", Role: "admin"}

func TestCreateIsIdempotentForPendingRequests(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, DefaultThresholds())
	ctx := context.Background()

	first, err := svc.Create(ctx, workspaceID, TypeProduct, "prod-1", map[string]any{"name": "Riz 25kg"}, vendeur, []string{ReasonLimitedRole})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Create(ctx, workspaceID, TypeProduct, "prod-1", map[string]any{"name": "Riz 25kg"}, vendeur, []string{ReasonLimitedRole})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Fatalf("expected same request id, got %s and %s", first, second)
	}
	if store.insertCalls != 1 {
		t.Fatalf("expected exactly one stored request, got %d", store.insertCalls)
	}
}

func TestCreateAllowsNewRequestAfterProcessing(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, DefaultThresholds())
	ctx := context.Background()

	first, err := svc.Create(ctx, workspaceID, TypeCustomer, "cust-1", nil, vendeur, []string{ReasonCustomerDebt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Reject(ctx, workspaceID, first, admin, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := svc.Create(ctx, workspaceID, TypeCustomer, "cust-1", nil, vendeur, []string{ReasonCustomerDebt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == second {
		t.Fatal("rejected request must not block a new pending request")
	}
}

func TestApproveRunsCallbackOnceAndConfirms(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, DefaultThresholds())
	ctx := context.Background()

	id, err := svc.Create(ctx, workspaceID, TypeSale, "sale-1", nil, vendeur, []string{ReasonUnpaidDebt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := 0
	err = svc.Approve(ctx, workspaceID, id, admin, func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected callback to run exactly once, ran %d times", calls)
	}
	req := store.requests[id]
	if req.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", req.Status)
	}
	if req.ProcessedBy != admin.UserID {
		t.Fatalf("expected processedBy %s, got %s", admin.UserID, req.ProcessedBy)
	}
	if !store.confirmed[id] {
		t.Fatal("expected deletion confirmation")
	}
}

func TestApproveFailsClosedWhenUpdateFails(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, DefaultThresholds())
	ctx := context.Background()

	id, err := svc.Create(ctx, workspaceID, TypeProduct, "prod-1", nil, vendeur, []string{ReasonLimitedRole})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.failMark = true

	calls := 0
	err = svc.Approve(ctx, workspaceID, id, admin, func(context.Context) error {
		calls++
		return nil
	})
	if err == nil {
		t.Fatal("expected error from failing status update")
	}
	if calls != 0 {
		t.Fatal("callback must not run when the status update fails")
	}
}

func TestApproveCallbackFailureLeavesUnconfirmed(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, DefaultThresholds())
	ctx := context.Background()

	id, err := svc.Create(ctx, workspaceID, TypeProduct, "prod-1", nil, vendeur, []string{ReasonLimitedRole})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = svc.Approve(ctx, workspaceID, id, admin, func(context.Context) error {
		return errors.New("collection unavailable")
	})
	if !errors.Is(err, ErrDeletionFailed) {
		t.Fatalf("expected ErrDeletionFailed, got %v", err)
	}

	req := store.requests[id]
	if req.Status != StatusApproved {
		t.Fatalf("request must stay approved after callback failure, got %s", req.Status)
	}
	if store.confirmed[id] {
		t.Fatal("deletion must not be confirmed after callback failure")
	}
}

func TestApproveTerminalRequestReturnsErrNotPending(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, DefaultThresholds())
	ctx := context.Background()

	id, err := svc.Create(ctx, workspaceID, TypeProduct, "prod-1", nil, vendeur, []string{ReasonLimitedRole})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Approve(ctx, workspaceID, id, admin, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := 0
	err = svc.Approve(ctx, workspaceID, id, admin, func(context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if calls != 0 {
		t.Fatal("callback must not run on a terminal request")
	}
}

func TestRejectStoresDefaultReasonAndSkipsCallback(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, DefaultThresholds())
	ctx := context.Background()

	id, err := svc.Create(ctx, workspaceID, TypeIngredient, "ing-1", nil, vendeur, []string{ReasonHighStock})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Reject(ctx, workspaceID, id, admin, "  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := store.requests[id]
	if req.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", req.Status)
	}
	if req.Reason != DefaultRejectReason {
		t.Fatalf("expected default reason, got %q", req.Reason)
	}
	if req.ProcessedBy != admin.UserID {
		t.Fatalf("expected processedBy %s, got %s", admin.UserID, req.ProcessedBy)
	}
	if store.confirmed[id] {
		t.Fatal("reject must not confirm a deletion")
	}
}
