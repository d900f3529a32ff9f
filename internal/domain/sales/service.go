package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"boutika/internal/domain/catalog"
)

type Service struct {
	DB *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

// Checkout writes the sale, decrements product stock and applies
// customer credit in a single transaction, so a failed line leaves no
// partial sale behind.
func (s *Service) Checkout(ctx context.Context, workspaceID, userID string, input CheckoutInput) (Sale, error) {
	if err := ValidateCheckout(input); err != nil {
		return Sale{}, err
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Sale{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var items []SaleItem
	var total int64
	for _, line := range input.Lines {
		var name string
		var price int64
		err := tx.QueryRow(ctx, `
      UPDATE products
      SET stock = stock - $1, updated_at = now()
      WHERE workspace_id = $2 AND id = $3 AND stock >= $1
      RETURNING name, price
    `, line.Quantity, workspaceID, line.ProductID).Scan(&name, &price)
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, fmt.Errorf("product %s: %w", line.ProductID, catalog.ErrInsufficientStock)
		}
		if err != nil {
			return Sale{}, err
		}

		lineTotal := LineTotal(price, line.Quantity)
		total += lineTotal
		items = append(items, SaleItem{
			ProductID: line.ProductID,
			Name:      name,
			Quantity:  line.Quantity,
			UnitPrice: price,
			LineTotal: lineTotal,
		})
	}

	settlement, err := Settle(total, input.AmountPaid)
	if err != nil {
		return Sale{}, err
	}
	if settlement.Outstanding > 0 && input.CustomerID == "" {
		return Sale{}, ErrCreditRequiresCustomer
	}

	sale := Sale{
		CustomerID:    input.CustomerID,
		Items:         items,
		Total:         total,
		AmountPaid:    settlement.AmountPaid,
		Change:        settlement.Change,
		PaymentMethod: input.PaymentMethod,
		CreatedBy:     userID,
	}
	if err := tx.QueryRow(ctx, `
    INSERT INTO sales (workspace_id, customer_id, total, amount_paid, payment_method, created_by)
    VALUES ($1,NULLIF($2,'')::uuid,$3,$4,$5,$6)
    RETURNING id, created_at
  `, workspaceID, input.CustomerID, total, settlement.AmountPaid, input.PaymentMethod, userID).Scan(&sale.ID, &sale.CreatedAt); err != nil {
		return Sale{}, err
	}

	for _, item := range items {
		if _, err := tx.Exec(ctx, `
      INSERT INTO sale_items (workspace_id, sale_id, product_id, name, quantity, unit_price, line_total)
      VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, workspaceID, sale.ID, item.ProductID, item.Name, item.Quantity, item.UnitPrice, item.LineTotal); err != nil {
			return Sale{}, err
		}
	}

	if input.CustomerID != "" {
		if _, err := tx.Exec(ctx, `
      UPDATE customers
      SET total_spent = total_spent + $1,
          purchase_count = purchase_count + 1,
          debt = debt + $2,
          updated_at = now()
      WHERE workspace_id = $3 AND id = $4
    `, total, settlement.Outstanding, workspaceID, input.CustomerID); err != nil {
			return Sale{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

func (s *Service) Get(ctx context.Context, workspaceID, saleID string) (Sale, error) {
	var sale Sale
	err := s.DB.QueryRow(ctx, `
    SELECT s.id, COALESCE(s.customer_id::text, ''), COALESCE(c.name, ''),
           s.total, s.amount_paid, s.payment_method, COALESCE(s.created_by::text, ''), s.created_at
    FROM sales s
    LEFT JOIN customers c ON c.id = s.customer_id
    WHERE s.workspace_id = $1 AND s.id = $2
  `, workspaceID, saleID).Scan(&sale.ID, &sale.CustomerID, &sale.CustomerName, &sale.Total, &sale.AmountPaid, &sale.PaymentMethod, &sale.CreatedBy, &sale.CreatedAt)
	if err != nil {
		return Sale{}, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT product_id::text, name, quantity, unit_price, line_total
    FROM sale_items
    WHERE workspace_id = $1 AND sale_id = $2
    ORDER BY name
  `, workspaceID, saleID)
	if err != nil {
		return Sale{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return Sale{}, err
		}
		sale.Items = append(sale.Items, item)
	}
	return sale, rows.Err()
}

type ListResult struct {
	Sales []Sale
	Total int
}

func (s *Service) List(ctx context.Context, workspaceID string, limit, offset int) (ListResult, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM sales WHERE workspace_id = $1", workspaceID).Scan(&total); err != nil {
		return ListResult{}, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT s.id, COALESCE(s.customer_id::text, ''), COALESCE(c.name, ''),
           s.total, s.amount_paid, s.payment_method, COALESCE(s.created_by::text, ''), s.created_at
    FROM sales s
    LEFT JOIN customers c ON c.id = s.customer_id
    WHERE s.workspace_id = $1
    ORDER BY s.created_at DESC
    LIMIT $2 OFFSET $3
  `, workspaceID, limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(&sale.ID, &sale.CustomerID, &sale.CustomerName, &sale.Total, &sale.AmountPaid, &sale.PaymentMethod, &sale.CreatedBy, &sale.CreatedAt); err != nil {
			return ListResult{}, err
		}
		out = append(out, sale)
	}
	return ListResult{Sales: out, Total: total}, rows.Err()
}

// Delete reverses the sale: stock is restored and the customer's
// credit counters are rolled back, then the rows are removed. Runs in
// one transaction; used as the approval engine's deletion callback.
func (s *Service) Delete(ctx context.Context, workspaceID, saleID string) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var customerID *string
	var total, amountPaid int64
	if err := tx.QueryRow(ctx, `
    SELECT customer_id::text, total, amount_paid
    FROM sales
    WHERE workspace_id = $1 AND id = $2
  `, workspaceID, saleID).Scan(&customerID, &total, &amountPaid); err != nil {
		return err
	}

	rows, err := tx.Query(ctx, `
    SELECT product_id::text, quantity
    FROM sale_items
    WHERE workspace_id = $1 AND sale_id = $2
  `, workspaceID, saleID)
	if err != nil {
		return err
	}
	type restock struct {
		productID string
		quantity  float64
	}
	var restocks []restock
	for rows.Next() {
		var r restock
		var productID *string
		if err := rows.Scan(&productID, &r.quantity); err != nil {
			rows.Close()
			return err
		}
		if productID != nil {
			r.productID = *productID
			restocks = append(restocks, r)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range restocks {
		if _, err := tx.Exec(ctx, `
      UPDATE products SET stock = stock + $1, updated_at = now()
      WHERE workspace_id = $2 AND id = $3
    `, r.quantity, workspaceID, r.productID); err != nil {
			return err
		}
	}

	if customerID != nil && *customerID != "" {
		outstanding := total - amountPaid
		if _, err := tx.Exec(ctx, `
      UPDATE customers
      SET total_spent = GREATEST(total_spent - $1, 0),
          purchase_count = GREATEST(purchase_count - 1, 0),
          debt = GREATEST(debt - $2, 0),
          updated_at = now()
      WHERE workspace_id = $3 AND id = $4
    `, total, outstanding, workspaceID, *customerID); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM sale_items WHERE workspace_id = $1 AND sale_id = $2", workspaceID, saleID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM sales WHERE workspace_id = $1 AND id = $2", workspaceID, saleID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
