package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const requestColumns = `
  id, item_type, item_id, item_snapshot,
  requested_by, requested_by_name, requested_by_role,
  status, reasons, created_at, processed_at, processed_by, reason,
  deletion_confirmed_at
`

// CreatePending relies on the partial unique index over
// (workspace_id, item_type, item_id) WHERE status = 'pending': the
// insert and the dedup check are a single atomic statement, so two
// concurrent calls for the same item cannot both insert.
func (s *Store) CreatePending(ctx context.Context, workspaceID string, req NewRequest) (string, bool, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    SELECT id FROM deletion_requests
    WHERE workspace_id = $1 AND item_type = $2 AND item_id = $3 AND status = 'pending'
  `, workspaceID, req.ItemType, req.ItemID).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, err
	}

	err = s.DB.QueryRow(ctx, `
    INSERT INTO deletion_requests
      (workspace_id, item_type, item_id, item_snapshot, requested_by, requested_by_name, requested_by_role, status, reasons)
    VALUES ($1,$2,$3,$4,$5,$6,$7,'pending',$8)
    ON CONFLICT (workspace_id, item_type, item_id) WHERE status = 'pending' DO NOTHING
    RETURNING id
  `, workspaceID, req.ItemType, req.ItemID, req.Snapshot,
		req.RequestedBy.UserID, req.RequestedBy.Name, req.RequestedBy.Role, req.Reasons).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, err
	}

	// Lost a concurrent insert; return the winner.
	err = s.DB.QueryRow(ctx, `
    SELECT id FROM deletion_requests
    WHERE workspace_id = $1 AND item_type = $2 AND item_id = $3 AND status = 'pending'
  `, workspaceID, req.ItemType, req.ItemID).Scan(&id)
	return id, false, err
}

func (s *Store) MarkProcessed(ctx context.Context, workspaceID, requestID, status, processedBy, reason string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE deletion_requests
    SET status = $1, processed_by = $2, processed_at = now(), reason = NULLIF($3, '')
    WHERE workspace_id = $4 AND id = $5 AND status = 'pending'
  `, status, processedBy, reason, workspaceID, requestID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ConfirmDeletion(ctx context.Context, workspaceID, requestID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE deletion_requests
    SET deletion_confirmed_at = now()
    WHERE workspace_id = $1 AND id = $2
  `, workspaceID, requestID)
	return err
}

func (s *Store) GetRequest(ctx context.Context, workspaceID, requestID string) (DeletionRequest, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM deletion_requests
    WHERE workspace_id = $1 AND id = $2
  `, workspaceID, requestID)
	return scanRequest(row)
}

func (s *Store) ListRequests(ctx context.Context, workspaceID, status string, limit, offset int) ([]DeletionRequest, int, error) {
	query := "SELECT " + requestColumns + " FROM deletion_requests WHERE workspace_id = $1"
	countQuery := "SELECT COUNT(1) FROM deletion_requests WHERE workspace_id = $1"
	args := []any{workspaceID}
	if status != "" {
		query += " AND status = $2"
		countQuery += " AND status = $2"
		args = append(args, status)
	}

	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var requests []DeletionRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, req)
	}
	return requests, total, rows.Err()
}

func (s *Store) StalePending(ctx context.Context, workspaceID string, before time.Time) ([]DeletionRequest, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM deletion_requests
    WHERE workspace_id = $1 AND status = 'pending' AND created_at < $2
    ORDER BY created_at
  `, workspaceID, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []DeletionRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanRequest(row pgx.Row) (DeletionRequest, error) {
	var req DeletionRequest
	var processedBy, reason *string
	if err := row.Scan(
		&req.ID, &req.ItemType, &req.ItemID, &req.ItemSnapshot,
		&req.RequestedBy.UserID, &req.RequestedBy.Name, &req.RequestedBy.Role,
		&req.Status, &req.Reasons, &req.CreatedAt, &req.ProcessedAt, &processedBy, &reason,
		&req.DeletionConfirmedAt,
	); err != nil {
		return DeletionRequest{}, err
	}
	if processedBy != nil {
		req.ProcessedBy = *processedBy
	}
	if reason != nil {
		req.Reason = *reason
	}
	return req, nil
}
