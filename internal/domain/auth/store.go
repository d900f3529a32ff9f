package auth

import (
	"context"
	"time"

	"boutika/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

type AuthUser struct {
	ID          string
	WorkspaceID string
	Role        string
	FullName    string
	Password    string
}

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT id, workspace_id, role, full_name, password_hash
    FROM users
    WHERE email = $1 AND status = 'active'
  `, email).Scan(&out.ID, &out.WorkspaceID, &out.Role, &out.FullName, &out.Password)
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) CreateSession(ctx context.Context, userID, refreshTokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sessions (user_id, refresh_token, expires_at)
    VALUES ($1,$2,$3)
  `, userID, refreshTokenHash, expires)
	return err
}

func (s *Store) RevokeSession(ctx context.Context, userID, refreshTokenHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND refresh_token = $2", userID, refreshTokenHash)
	return err
}

func (s *Store) UserIDByEmail(ctx context.Context, email string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	return id, err
}

func (s *Store) CreatePasswordReset(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO password_resets (user_id, token_hash, expires_at)
    VALUES ($1,$2,$3)
  `, userID, tokenHash, expires)
	return err
}

func (s *Store) PasswordResetUserID(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    SELECT user_id
    FROM password_resets
    WHERE token_hash = $1 AND expires_at > now() AND used_at IS NULL
  `, tokenHash).Scan(&userID)
	return userID, err
}

func (s *Store) MarkPasswordResetUsed(ctx context.Context, tokenHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE password_resets SET used_at = now() WHERE token_hash = $1", tokenHash)
	return err
}

func (s *Store) UpdateUserPassword(ctx context.Context, userID, hash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET password_hash = $1 WHERE id = $2", hash, userID)
	return err
}

func (s *Store) CreateUser(ctx context.Context, workspaceID, email, fullName, role, passwordHash string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (workspace_id, email, full_name, role, password_hash, status)
    VALUES ($1,$2,$3,$4,$5,'active')
    RETURNING id
  `, workspaceID, email, fullName, role, passwordHash).Scan(&id)
	return id, err
}

func (s *Store) ListUsers(ctx context.Context, workspaceID string) ([]User, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, email, full_name, role, status, last_login, created_at
    FROM users
    WHERE workspace_id = $1
    ORDER BY created_at
  `, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.Status, &u.LastLogin, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserRole(ctx context.Context, workspaceID, userID, role string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET role = $1 WHERE workspace_id = $2 AND id = $3", role, workspaceID, userID)
	return err
}

func (s *Store) SetUserStatus(ctx context.Context, workspaceID, userID, status string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET status = $1 WHERE workspace_id = $2 AND id = $3", status, workspaceID, userID)
	return err
}

func (s *Store) UserEmail(ctx context.Context, workspaceID, userID string) (string, error) {
	var email string
	err := s.DB.QueryRow(ctx, "SELECT email FROM users WHERE workspace_id = $1 AND id = $2", workspaceID, userID).Scan(&email)
	return email, err
}

func (s *Store) UserName(ctx context.Context, workspaceID, userID string) (string, error) {
	var name string
	err := s.DB.QueryRow(ctx, "SELECT full_name FROM users WHERE workspace_id = $1 AND id = $2", workspaceID, userID).Scan(&name)
	return name, err
}

func (s *Store) UserIDsByRoles(ctx context.Context, workspaceID string, roles []string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id FROM users
    WHERE workspace_id = $1 AND status = 'active' AND role = ANY($2)
  `, workspaceID, roles)
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
