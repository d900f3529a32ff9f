package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"boutika/internal/domain/approval"
	"boutika/internal/domain/auth"
	"boutika/internal/domain/catalog"
	"boutika/internal/domain/messaging"
	"boutika/internal/platform/config"
)

const (
	JobLowStockScan  = "low_stock_scan"
	JobStaleApproval = "stale_approval_scan"
)

var ErrUnknownJobType = errors.New("unknown job type")

type Service struct {
	DB        *pgxpool.Pool
	Cfg       config.Config
	Catalog   *catalog.Service
	Approvals *approval.Service
	Messages  *messaging.Service
	queue     chan job
}

type job struct {
	Type        string
	WorkspaceID string
	Run         func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config, cat *catalog.Service, appr *approval.Service, msg *messaging.Service) *Service {
	return &Service{
		DB:        db,
		Cfg:       cfg,
		Catalog:   cat,
		Approvals: appr,
		Messages:  msg,
		queue:     make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.LowStockInterval > 0 {
		go s.schedule(ctx, s.Cfg.LowStockInterval, JobLowStockScan, s.lowStockScan)
	}
	if s.Cfg.StaleApprovalInterval > 0 {
		go s.schedule(ctx, s.Cfg.StaleApprovalInterval, JobStaleApproval, s.staleApprovalScan)
	}
}

func (s *Service) Enqueue(jobType, workspaceID string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, WorkspaceID: workspaceID, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType, "workspaceId", workspaceID)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, workspaceID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, WorkspaceID: workspaceID, Run: run})
}

// Trigger runs one scheduled scan immediately for a workspace, outside
// the ticker cycle, and reports the pass details.
func (s *Service) Trigger(ctx context.Context, jobType, workspaceID string) (any, error) {
	switch jobType {
	case JobLowStockScan:
		return s.RunNow(ctx, jobType, workspaceID, func(ctx context.Context) (any, error) {
			return s.lowStockScan(ctx, workspaceID)
		})
	case JobStaleApproval:
		return s.RunNow(ctx, jobType, workspaceID, func(ctx context.Context) (any, error) {
			return s.staleApprovalScan(ctx, workspaceID)
		})
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, jobType)
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "workspaceId", j.WorkspaceID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (workspace_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, j.WorkspaceID, j.Type, "running").Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) schedule(ctx context.Context, interval time.Duration, jobType string, pass func(context.Context, string) (any, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			workspaces, err := s.listWorkspaces(ctx)
			if err != nil {
				slog.Warn("scheduler workspace lookup failed", "jobType", jobType, "err", err)
				continue
			}
			for _, workspaceID := range workspaces {
				ws := workspaceID
				s.Enqueue(jobType, ws, func(ctx context.Context) (any, error) {
					return pass(ctx, ws)
				})
			}
		}
	}
}

func (s *Service) lowStockScan(ctx context.Context, workspaceID string) (any, error) {
	items, err := s.Catalog.LowStock(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return map[string]any{"lowStock": 0}, nil
	}

	body := fmt.Sprintf("%d article(s) sous le seuil de stock minimum.", len(items))
	roles := []string{auth.RoleManagerVentes, auth.RoleAdmin, auth.RoleOwner}
	if err := s.Messages.NotifyRoles(ctx, workspaceID, roles, messaging.TypeLowStock, "Alerte stock bas", body); err != nil {
		return nil, err
	}
	return map[string]any{"lowStock": len(items)}, nil
}

func (s *Service) staleApprovalScan(ctx context.Context, workspaceID string) (any, error) {
	stale, err := s.Approvals.StalePending(ctx, workspaceID, s.Cfg.StaleApprovalAge, time.Now())
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return map[string]any{"stale": 0}, nil
	}

	body := fmt.Sprintf("%d demande(s) de suppression en attente depuis plus de %s.", len(stale), s.Cfg.StaleApprovalAge)
	roles := []string{auth.RoleAdmin, auth.RoleOwner}
	if err := s.Messages.NotifyRoles(ctx, workspaceID, roles, messaging.TypeApprovalStale, "Demandes en attente", body); err != nil {
		return nil, err
	}
	return map[string]any{"stale": len(stale)}, nil
}

func (s *Service) listWorkspaces(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT id FROM workspaces`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
