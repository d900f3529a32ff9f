package expenses

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"boutika/internal/platform/querier"
)

var (
	ErrLabelRequired   = errors.New("expense label is required")
	ErrInvalidCategory = errors.New("unknown expense category")
	ErrInvalidAmount   = errors.New("expense amount must be positive")
	ErrInvalidDate     = errors.New("expense date must be YYYY-MM-DD")
)

func ValidateInput(input ExpenseInput) error {
	if strings.TrimSpace(input.Label) == "" {
		return ErrLabelRequired
	}
	known := false
	for _, c := range Categories {
		if input.Category == c {
			known = true
			break
		}
	}
	if !known {
		return ErrInvalidCategory
	}
	if input.Amount <= 0 {
		return ErrInvalidAmount
	}
	if _, err := time.Parse("2006-01-02", input.SpentOn); err != nil {
		return ErrInvalidDate
	}
	return nil
}

type Service struct {
	DB querier.Querier
}

func NewService(db querier.Querier) *Service {
	return &Service{DB: db}
}

func (s *Service) Create(ctx context.Context, workspaceID, userID string, input ExpenseInput) (Expense, error) {
	if err := ValidateInput(input); err != nil {
		return Expense{}, err
	}
	exp := Expense{
		Label:     strings.TrimSpace(input.Label),
		Category:  input.Category,
		Amount:    input.Amount,
		SpentOn:   input.SpentOn,
		CreatedBy: userID,
	}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO expenses (workspace_id, label, category, amount, spent_on, created_by)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id, created_at, updated_at
  `, workspaceID, exp.Label, exp.Category, exp.Amount, exp.SpentOn, userID).Scan(&exp.ID, &exp.CreatedAt, &exp.UpdatedAt)
	if err != nil {
		return Expense{}, err
	}
	return exp, nil
}

func (s *Service) Update(ctx context.Context, workspaceID, expenseID string, input ExpenseInput) (Expense, error) {
	if err := ValidateInput(input); err != nil {
		return Expense{}, err
	}
	var exp Expense
	err := s.DB.QueryRow(ctx, `
    UPDATE expenses
    SET label = $1, category = $2, amount = $3, spent_on = $4, updated_at = now()
    WHERE workspace_id = $5 AND id = $6
    RETURNING id, label, category, amount, spent_on::text, COALESCE(created_by::text, ''), created_at, updated_at
  `, strings.TrimSpace(input.Label), input.Category, input.Amount, input.SpentOn, workspaceID, expenseID).
		Scan(&exp.ID, &exp.Label, &exp.Category, &exp.Amount, &exp.SpentOn, &exp.CreatedBy, &exp.CreatedAt, &exp.UpdatedAt)
	if err != nil {
		return Expense{}, err
	}
	return exp, nil
}

func (s *Service) Get(ctx context.Context, workspaceID, expenseID string) (Expense, error) {
	var exp Expense
	err := s.DB.QueryRow(ctx, `
    SELECT id, label, category, amount, spent_on::text, COALESCE(created_by::text, ''), created_at, updated_at
    FROM expenses
    WHERE workspace_id = $1 AND id = $2
  `, workspaceID, expenseID).
		Scan(&exp.ID, &exp.Label, &exp.Category, &exp.Amount, &exp.SpentOn, &exp.CreatedBy, &exp.CreatedAt, &exp.UpdatedAt)
	if err != nil {
		return Expense{}, err
	}
	return exp, nil
}

type ListResult struct {
	Expenses []Expense
	Total    int
	Sum      int64
}

// List filters by an optional inclusive date range; from and to are
// YYYY-MM-DD or empty.
func (s *Service) List(ctx context.Context, workspaceID, from, to string, limit, offset int) (ListResult, error) {
	where := "workspace_id = $1"
	args := []any{workspaceID}
	if from != "" {
		args = append(args, from)
		where += " AND spent_on >= $2"
	}
	if to != "" {
		args = append(args, to)
		if from != "" {
			where += " AND spent_on <= $3"
		} else {
			where += " AND spent_on <= $2"
		}
	}

	var result ListResult
	if err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1), COALESCE(SUM(amount), 0) FROM expenses WHERE "+where, args...).
		Scan(&result.Total, &result.Sum); err != nil {
		return ListResult{}, err
	}

	args = append(args, limit, offset)
	n := len(args)
	rows, err := s.DB.Query(ctx, `
    SELECT id, label, category, amount, spent_on::text, COALESCE(created_by::text, ''), created_at, updated_at
    FROM expenses
    WHERE `+where+`
    ORDER BY spent_on DESC, created_at DESC
    LIMIT $`+strconv.Itoa(n-1)+` OFFSET $`+strconv.Itoa(n), args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var exp Expense
		if err := rows.Scan(&exp.ID, &exp.Label, &exp.Category, &exp.Amount, &exp.SpentOn, &exp.CreatedBy, &exp.CreatedAt, &exp.UpdatedAt); err != nil {
			return ListResult{}, err
		}
		result.Expenses = append(result.Expenses, exp)
	}
	return result, rows.Err()
}

func (s *Service) Delete(ctx context.Context, workspaceID, expenseID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM expenses WHERE workspace_id = $1 AND id = $2", workspaceID, expenseID)
	return err
}
