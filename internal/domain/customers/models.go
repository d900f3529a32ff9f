package customers

import "time"

type Customer struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone,omitempty"`
	Debt          int64     `json:"debt"`
	TotalSpent    int64     `json:"totalSpent"`
	PurchaseCount int       `json:"purchaseCount"`
	CreatedBy     string    `json:"createdBy,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type CreditPayment struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId"`
	Amount     int64     `json:"amount"`
	Note       string    `json:"note,omitempty"`
	RecordedBy string    `json:"recordedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}
