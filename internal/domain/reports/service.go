package reports

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"boutika/internal/platform/querier"
)

type Dashboard struct {
	TodayRevenue     int64 `json:"todayRevenue"`
	TodaySalesCount  int   `json:"todaySalesCount"`
	OutstandingDebt  int64 `json:"outstandingDebt"`
	LowStockCount    int   `json:"lowStockCount"`
	MonthExpenses    int64 `json:"monthExpenses"`
	PendingApprovals int   `json:"pendingApprovals"`
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

func (s *Service) Dashboard(ctx context.Context, workspaceID string) (Dashboard, error) {
	var d Dashboard

	if err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(total), 0), COUNT(1)
    FROM sales
    WHERE workspace_id = $1 AND created_at >= date_trunc('day', now())
  `, workspaceID).Scan(&d.TodayRevenue, &d.TodaySalesCount); err != nil {
		return Dashboard{}, err
	}

	if err := s.DB.QueryRow(ctx,
		"SELECT COALESCE(SUM(debt), 0) FROM customers WHERE workspace_id = $1",
		workspaceID).Scan(&d.OutstandingDebt); err != nil {
		return Dashboard{}, err
	}

	if err := s.DB.QueryRow(ctx, `
    SELECT (SELECT COUNT(1) FROM products WHERE workspace_id = $1 AND stock <= min_stock)
         + (SELECT COUNT(1) FROM ingredients WHERE workspace_id = $1 AND stock <= min_stock)
  `, workspaceID).Scan(&d.LowStockCount); err != nil {
		return Dashboard{}, err
	}

	if err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(amount), 0)
    FROM expenses
    WHERE workspace_id = $1 AND spent_on >= date_trunc('month', now())::date
  `, workspaceID).Scan(&d.MonthExpenses); err != nil {
		return Dashboard{}, err
	}

	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM deletion_requests
    WHERE workspace_id = $1 AND status = 'pending'
  `, workspaceID).Scan(&d.PendingApprovals); err != nil {
		return Dashboard{}, err
	}

	return d, nil
}

// ExportSalesCSV streams all sales of the date range (YYYY-MM-DD,
// inclusive; empty bounds are open) as CSV.
func (s *Service) ExportSalesCSV(ctx context.Context, w io.Writer, workspaceID, from, to string) error {
	query := `
    SELECT s.id, s.created_at, COALESCE(c.name, ''), s.total, s.amount_paid,
           s.payment_method, COALESCE(u.full_name, '')
    FROM sales s
    LEFT JOIN customers c ON c.id = s.customer_id
    LEFT JOIN users u ON u.id = s.created_by
    WHERE s.workspace_id = $1`
	args := []any{workspaceID}
	if from != "" {
		args = append(args, from)
		query += fmt.Sprintf(" AND s.created_at >= $%d::date", len(args))
	}
	if to != "" {
		args = append(args, to)
		query += fmt.Sprintf(" AND s.created_at < $%d::date + interval '1 day'", len(args))
	}
	query += " ORDER BY s.created_at"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "date", "client", "total_fcfa", "paye_fcfa", "paiement", "vendeur"}); err != nil {
		return err
	}
	for rows.Next() {
		var id, customer, method, seller string
		var createdAt time.Time
		var total, paid int64
		if err := rows.Scan(&id, &createdAt, &customer, &total, &paid, &method, &seller); err != nil {
			return err
		}
		record := []string{
			id,
			createdAt.Format("2006-01-02 15:04"),
			customer,
			fmt.Sprintf("%d", total),
			fmt.Sprintf("%d", paid),
			method,
			seller,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
