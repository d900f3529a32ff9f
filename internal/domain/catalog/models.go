package catalog

import "time"

type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	Price     int64     `json:"price"`
	Cost      int64     `json:"cost"`
	Stock     float64   `json:"stock"`
	MinStock  float64   `json:"minStock"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Ingredient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Stock     float64   `json:"stock"`
	MinStock  float64   `json:"minStock"`
	UnitCost  int64     `json:"unitCost"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type StockAdjustment struct {
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}
