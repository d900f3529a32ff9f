package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultRejectReason is stored when an admin rejects without a note.
const DefaultRejectReason = "Demande rejetée par l'administrateur"

type Service struct {
	Store      StoreAPI
	Thresholds Thresholds
}

func NewService(store StoreAPI, thresholds Thresholds) *Service {
	return &Service{Store: store, Thresholds: thresholds}
}

// RequiresApproval evaluates the rule engine against the current clock.
func (s *Service) RequiresApproval(item Item, actor Actor, itemType ItemType, extra Aggregates) Decision {
	return Evaluate(item, actor, itemType, extra, time.Now(), s.Thresholds)
}

// Create queues a pending deletion request, snapshotting the item so it
// can be displayed after the entity is gone. Timestamps marshal to
// RFC3339 text inside the snapshot. When a pending request already
// exists for the same (itemId, type) its id is returned instead.
func (s *Service) Create(ctx context.Context, workspaceID string, itemType ItemType, itemID string, snapshot any, requestedBy Actor, reasons []string) (string, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return "", err
	}
	id, _, err := s.Store.CreatePending(ctx, workspaceID, NewRequest{
		ItemType:    itemType,
		ItemID:      itemID,
		Snapshot:    raw,
		RequestedBy: requestedBy,
		Reasons:     reasons,
	})
	return id, err
}

// Approve marks the request approved, then runs deleteFn to remove the
// underlying entity from its own collection. The status update comes
// first and fails closed: if it errors or the request is no longer
// pending, deleteFn never runs. A deleteFn failure leaves the request
// approved with no deletion confirmation and returns ErrDeletionFailed
// so the caller can raise a reconciliation alert.
func (s *Service) Approve(ctx context.Context, workspaceID, requestID string, admin Actor, deleteFn func(context.Context) error) error {
	ok, err := s.Store.MarkProcessed(ctx, workspaceID, requestID, StatusApproved, admin.UserID, "")
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotPending
	}

	if deleteFn != nil {
		if err := deleteFn(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrDeletionFailed, err)
		}
	}
	return s.Store.ConfirmDeletion(ctx, workspaceID, requestID)
}

// Reject is a pure state transition; no callback runs.
func (s *Service) Reject(ctx context.Context, workspaceID, requestID string, admin Actor, reason string) error {
	if strings.TrimSpace(reason) == "" {
		reason = DefaultRejectReason
	}
	ok, err := s.Store.MarkProcessed(ctx, workspaceID, requestID, StatusRejected, admin.UserID, reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotPending
	}
	return nil
}

func (s *Service) Get(ctx context.Context, workspaceID, requestID string) (DeletionRequest, error) {
	return s.Store.GetRequest(ctx, workspaceID, requestID)
}

func (s *Service) List(ctx context.Context, workspaceID, status string, limit, offset int) ([]DeletionRequest, int, error) {
	return s.Store.ListRequests(ctx, workspaceID, status, limit, offset)
}

// StalePending lists pending requests created before now-age, for the
// periodic reminder job.
func (s *Service) StalePending(ctx context.Context, workspaceID string, age time.Duration, now time.Time) ([]DeletionRequest, error) {
	return s.Store.StalePending(ctx, workspaceID, now.Add(-age))
}
