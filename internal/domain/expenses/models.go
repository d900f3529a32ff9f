package expenses

import "time"

const (
	CategoryStock     = "achat_stock"
	CategoryRent      = "loyer"
	CategorySalary    = "salaire"
	CategoryTransport = "transport"
	CategoryUtilities = "factures"
	CategoryOther     = "autre"
)

var Categories = []string{
	CategoryStock,
	CategoryRent,
	CategorySalary,
	CategoryTransport,
	CategoryUtilities,
	CategoryOther,
}

type Expense struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Category  string    `json:"category"`
	Amount    int64     `json:"amount"`
	SpentOn   string    `json:"spentOn"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ExpenseInput struct {
	Label    string `json:"label"`
	Category string `json:"category"`
	Amount   int64  `json:"amount"`
	SpentOn  string `json:"spentOn"`
}
