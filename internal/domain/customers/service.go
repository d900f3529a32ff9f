package customers

import (
	"context"
	"fmt"

	"boutika/internal/platform/querier"
)

type Service struct {
	Store *Store
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

const customerColumns = `
  c.id, c.name, COALESCE(c.phone, ''), c.debt, c.total_spent, c.purchase_count,
  COALESCE(c.created_by::text, ''), c.created_at, c.updated_at
`

type ListResult struct {
	Customers []Customer
	Total     int
}

func (s *Service) List(ctx context.Context, workspaceID, search string, limit, offset int) (ListResult, error) {
	query := "SELECT " + customerColumns + " FROM customers c WHERE c.workspace_id = $1"
	countQuery := "SELECT COUNT(1) FROM customers c WHERE c.workspace_id = $1"
	args := []any{workspaceID}
	if search != "" {
		query += " AND (c.name ILIKE $2 OR c.phone ILIKE $2)"
		countQuery += " AND (c.name ILIKE $2 OR c.phone ILIKE $2)"
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := s.Store.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	query += fmt.Sprintf(" ORDER BY c.name LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Store.DB.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Debt, &c.TotalSpent, &c.PurchaseCount, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return ListResult{}, err
		}
		customers = append(customers, c)
	}
	return ListResult{Customers: customers, Total: total}, rows.Err()
}

func (s *Service) Get(ctx context.Context, workspaceID, customerID string) (Customer, error) {
	var c Customer
	err := s.Store.DB.QueryRow(ctx, `
    SELECT `+customerColumns+`
    FROM customers c
    WHERE c.workspace_id = $1 AND c.id = $2
  `, workspaceID, customerID).Scan(&c.ID, &c.Name, &c.Phone, &c.Debt, &c.TotalSpent, &c.PurchaseCount, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Service) Create(ctx context.Context, workspaceID, userID string, payload Customer) (string, error) {
	var id string
	err := s.Store.DB.QueryRow(ctx, `
    INSERT INTO customers (workspace_id, name, phone, created_by)
    VALUES ($1,$2,NULLIF($3,''),$4)
    RETURNING id
  `, workspaceID, payload.Name, payload.Phone, userID).Scan(&id)
	return id, err
}

func (s *Service) Update(ctx context.Context, workspaceID, customerID string, payload Customer) error {
	_, err := s.Store.DB.Exec(ctx, `
    UPDATE customers
    SET name = $1, phone = NULLIF($2,''), updated_at = now()
    WHERE workspace_id = $3 AND id = $4
  `, payload.Name, payload.Phone, workspaceID, customerID)
	return err
}

func (s *Service) Delete(ctx context.Context, workspaceID, customerID string) error {
	_, err := s.Store.DB.Exec(ctx, "DELETE FROM customers WHERE workspace_id = $1 AND id = $2", workspaceID, customerID)
	return err
}

// PurchaseCount is the aggregate fed to the approval engine; it counts
// stored sales rather than trusting the denormalized counter.
func (s *Service) PurchaseCount(ctx context.Context, workspaceID, customerID string) (int, error) {
	var count int
	err := s.Store.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM sales
    WHERE workspace_id = $1 AND customer_id = $2
  `, workspaceID, customerID).Scan(&count)
	return count, err
}

// RecordPayment reduces the customer's debt and writes a ledger entry
// in one transaction.
func (s *Service) RecordPayment(ctx context.Context, workspaceID, customerID, userID string, amount int64, note string) (CreditPayment, error) {
	customer, err := s.Get(ctx, workspaceID, customerID)
	if err != nil {
		return CreditPayment{}, err
	}
	remaining, err := ApplyPayment(customer.Debt, amount)
	if err != nil {
		return CreditPayment{}, err
	}

	var payment CreditPayment
	tag, err := s.Store.DB.Exec(ctx, `
    UPDATE customers SET debt = $1, updated_at = now()
    WHERE workspace_id = $2 AND id = $3 AND debt = $4
  `, remaining, workspaceID, customerID, customer.Debt)
	if err != nil {
		return CreditPayment{}, err
	}
	if tag.RowsAffected() == 0 {
		// Debt changed between read and write; retry from a fresh read.
		return CreditPayment{}, ErrExceedsBalance
	}

	err = s.Store.DB.QueryRow(ctx, `
    INSERT INTO credit_payments (workspace_id, customer_id, amount, note, recorded_by)
    VALUES ($1,$2,$3,NULLIF($4,''),$5)
    RETURNING id, customer_id, amount, COALESCE(note, ''), COALESCE(recorded_by::text, ''), created_at
  `, workspaceID, customerID, amount, note, userID).Scan(
		&payment.ID, &payment.CustomerID, &payment.Amount, &payment.Note, &payment.RecordedBy, &payment.CreatedAt)
	return payment, err
}

func (s *Service) ListPayments(ctx context.Context, workspaceID, customerID string, limit, offset int) ([]CreditPayment, error) {
	rows, err := s.Store.DB.Query(ctx, `
    SELECT id, customer_id, amount, COALESCE(note, ''), COALESCE(recorded_by::text, ''), created_at
    FROM credit_payments
    WHERE workspace_id = $1 AND customer_id = $2
    ORDER BY created_at DESC
    LIMIT $3 OFFSET $4
  `, workspaceID, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []CreditPayment
	for rows.Next() {
		var p CreditPayment
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.Amount, &p.Note, &p.RecordedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
