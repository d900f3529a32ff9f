package approval

import (
	"context"
	"time"
)

type NewRequest struct {
	ItemType    ItemType
	ItemID      string
	Snapshot    []byte
	RequestedBy Actor
	Reasons     []string
}

type StoreAPI interface {
	// CreatePending inserts a pending request unless one already exists
	// for the same (itemId, type); created reports whether a new row was
	// written. Must be atomic under concurrent calls.
	CreatePending(ctx context.Context, workspaceID string, req NewRequest) (id string, created bool, err error)
	// MarkProcessed moves a pending request to a terminal status; ok is
	// false when the request was not pending (or not found).
	MarkProcessed(ctx context.Context, workspaceID, requestID, status, processedBy, reason string) (ok bool, err error)
	ConfirmDeletion(ctx context.Context, workspaceID, requestID string) error
	GetRequest(ctx context.Context, workspaceID, requestID string) (DeletionRequest, error)
	ListRequests(ctx context.Context, workspaceID, status string, limit, offset int) ([]DeletionRequest, int, error)
	StalePending(ctx context.Context, workspaceID string, before time.Time) ([]DeletionRequest, error)
}
