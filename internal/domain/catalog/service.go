package catalog

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

type ProductListResult struct {
	Products []Product
	Total    int
}

func (s *Service) ListProducts(ctx context.Context, workspaceID, search string, limit, offset int) (ProductListResult, error) {
	query := `
    SELECT id, name, COALESCE(category, ''), price, cost, stock, min_stock, COALESCE(created_by::text, ''), created_at, updated_at
    FROM products
    WHERE workspace_id = $1
  `
	countQuery := "SELECT COUNT(1) FROM products WHERE workspace_id = $1"
	args := []any{workspaceID}
	if search != "" {
		query += " AND name ILIKE $2"
		countQuery += " AND name ILIKE $2"
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := s.Store.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return ProductListResult{}, err
	}

	query += fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Store.DB.Query(ctx, query, args...)
	if err != nil {
		return ProductListResult{}, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Cost, &p.Stock, &p.MinStock, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return ProductListResult{}, err
		}
		products = append(products, p)
	}
	return ProductListResult{Products: products, Total: total}, rows.Err()
}

func (s *Service) GetProduct(ctx context.Context, workspaceID, productID string) (Product, error) {
	var p Product
	err := s.Store.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(category, ''), price, cost, stock, min_stock, COALESCE(created_by::text, ''), created_at, updated_at
    FROM products
    WHERE workspace_id = $1 AND id = $2
  `, workspaceID, productID).Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Cost, &p.Stock, &p.MinStock, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Service) CreateProduct(ctx context.Context, workspaceID, userID string, payload Product) (string, error) {
	var id string
	err := s.Store.DB.QueryRow(ctx, `
    INSERT INTO products (workspace_id, name, category, price, cost, stock, min_stock, created_by)
    VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8)
    RETURNING id
  `, workspaceID, payload.Name, payload.Category, payload.Price, payload.Cost, payload.Stock, payload.MinStock, userID).Scan(&id)
	return id, err
}

func (s *Service) UpdateProduct(ctx context.Context, workspaceID, productID string, payload Product) error {
	_, err := s.Store.DB.Exec(ctx, `
    UPDATE products
    SET name = $1, category = NULLIF($2,''), price = $3, cost = $4, min_stock = $5, updated_at = now()
    WHERE workspace_id = $6 AND id = $7
  `, payload.Name, payload.Category, payload.Price, payload.Cost, payload.MinStock, workspaceID, productID)
	return err
}

func (s *Service) AdjustProductStock(ctx context.Context, workspaceID, productID string, delta float64) (float64, error) {
	current, err := s.productStock(ctx, workspaceID, productID)
	if err != nil {
		return 0, err
	}
	next, err := NextStock(current, delta)
	if err != nil {
		return 0, err
	}
	_, err = s.Store.DB.Exec(ctx, `
    UPDATE products SET stock = $1, updated_at = now()
    WHERE workspace_id = $2 AND id = $3
  `, next, workspaceID, productID)
	return next, err
}

func (s *Service) DeleteProduct(ctx context.Context, workspaceID, productID string) error {
	_, err := s.Store.DB.Exec(ctx, "DELETE FROM products WHERE workspace_id = $1 AND id = $2", workspaceID, productID)
	return err
}

func (s *Service) productStock(ctx context.Context, workspaceID, productID string) (float64, error) {
	var stock float64
	err := s.Store.DB.QueryRow(ctx, "SELECT stock FROM products WHERE workspace_id = $1 AND id = $2", workspaceID, productID).Scan(&stock)
	return stock, err
}

func (s *Service) ListIngredients(ctx context.Context, workspaceID string, limit, offset int) ([]Ingredient, int, error) {
	var total int
	if err := s.Store.DB.QueryRow(ctx, "SELECT COUNT(1) FROM ingredients WHERE workspace_id = $1", workspaceID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.Store.DB.Query(ctx, `
    SELECT id, name, unit, stock, min_stock, unit_cost, COALESCE(created_by::text, ''), created_at, updated_at
    FROM ingredients
    WHERE workspace_id = $1
    ORDER BY name
    LIMIT $2 OFFSET $3
  `, workspaceID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var ingredients []Ingredient
	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Unit, &ing.Stock, &ing.MinStock, &ing.UnitCost, &ing.CreatedBy, &ing.CreatedAt, &ing.UpdatedAt); err != nil {
			return nil, 0, err
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, total, rows.Err()
}

func (s *Service) GetIngredient(ctx context.Context, workspaceID, ingredientID string) (Ingredient, error) {
	var ing Ingredient
	err := s.Store.DB.QueryRow(ctx, `
    SELECT id, name, unit, stock, min_stock, unit_cost, COALESCE(created_by::text, ''), created_at, updated_at
    FROM ingredients
    WHERE workspace_id = $1 AND id = $2
  `, workspaceID, ingredientID).Scan(&ing.ID, &ing.Name, &ing.Unit, &ing.Stock, &ing.MinStock, &ing.UnitCost, &ing.CreatedBy, &ing.CreatedAt, &ing.UpdatedAt)
	return ing, err
}

func (s *Service) CreateIngredient(ctx context.Context, workspaceID, userID string, payload Ingredient) (string, error) {
	var id string
	err := s.Store.DB.QueryRow(ctx, `
    INSERT INTO ingredients (workspace_id, name, unit, stock, min_stock, unit_cost, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, workspaceID, payload.Name, payload.Unit, payload.Stock, payload.MinStock, payload.UnitCost, userID).Scan(&id)
	return id, err
}

func (s *Service) UpdateIngredient(ctx context.Context, workspaceID, ingredientID string, payload Ingredient) error {
	_, err := s.Store.DB.Exec(ctx, `
    UPDATE ingredients
    SET name = $1, unit = $2, min_stock = $3, unit_cost = $4, updated_at = now()
    WHERE workspace_id = $5 AND id = $6
  `, payload.Name, payload.Unit, payload.MinStock, payload.UnitCost, workspaceID, ingredientID)
	return err
}

func (s *Service) AdjustIngredientStock(ctx context.Context, workspaceID, ingredientID string, delta float64) (float64, error) {
	var current float64
	if err := s.Store.DB.QueryRow(ctx, "SELECT stock FROM ingredients WHERE workspace_id = $1 AND id = $2", workspaceID, ingredientID).Scan(&current); err != nil {
		return 0, err
	}
	next, err := NextStock(current, delta)
	if err != nil {
		return 0, err
	}
	_, err = s.Store.DB.Exec(ctx, `
    UPDATE ingredients SET stock = $1, updated_at = now()
    WHERE workspace_id = $2 AND id = $3
  `, next, workspaceID, ingredientID)
	return next, err
}

func (s *Service) DeleteIngredient(ctx context.Context, workspaceID, ingredientID string) error {
	_, err := s.Store.DB.Exec(ctx, "DELETE FROM ingredients WHERE workspace_id = $1 AND id = $2", workspaceID, ingredientID)
	return err
}

type LowStockItem struct {
	ID       string  `json:"id"`
	Kind     string  `json:"kind"`
	Name     string  `json:"name"`
	Stock    float64 `json:"stock"`
	MinStock float64 `json:"minStock"`
}

func (s *Service) LowStock(ctx context.Context, workspaceID string) ([]LowStockItem, error) {
	rows, err := s.Store.DB.Query(ctx, `
    SELECT id, 'product', name, stock, min_stock FROM products
    WHERE workspace_id = $1 AND min_stock > 0 AND stock <= min_stock
    UNION ALL
    SELECT id, 'ingredient', name, stock, min_stock FROM ingredients
    WHERE workspace_id = $1 AND min_stock > 0 AND stock <= min_stock
    ORDER BY name
  `, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LowStockItem
	for rows.Next() {
		var item LowStockItem
		if err := rows.Scan(&item.ID, &item.Kind, &item.Name, &item.Stock, &item.MinStock); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
