package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"boutika/internal/domain/auth"
	"boutika/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	workspaceID, err := ensureWorkspace(ctx, pool, cfg.SeedWorkspaceName)
	if err != nil {
		return err
	}
	return ensureOwnerUser(ctx, pool, workspaceID, cfg.SeedOwnerEmail, cfg.SeedOwnerPassword)
}

func ensureWorkspace(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM workspaces WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}

	err = pool.QueryRow(ctx, "INSERT INTO workspaces (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func ensureOwnerUser(ctx context.Context, pool *pgxpool.Pool, workspaceID, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE workspace_id = $1 AND email = $2", workspaceID, email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	return pool.QueryRow(ctx, `
    INSERT INTO users (workspace_id, email, full_name, password_hash, role, status)
    VALUES ($1, $2, $3, $4, $5, 'active')
    RETURNING id
  `, workspaceID, email, "Propriétaire", hash, auth.RoleOwner).Scan(&id)
}
