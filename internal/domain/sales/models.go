package sales

import "time"

const (
	PaymentCash        = "cash"
	PaymentMobileMoney = "mobile_money"
	PaymentCredit      = "credit"
)

var PaymentMethods = []string{PaymentCash, PaymentMobileMoney, PaymentCredit}

type SaleItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice int64   `json:"unitPrice"`
	LineTotal int64   `json:"lineTotal"`
}

type Sale struct {
	ID            string     `json:"id"`
	CustomerID    string     `json:"customerId,omitempty"`
	CustomerName  string     `json:"customerName,omitempty"`
	Items         []SaleItem `json:"items,omitempty"`
	Total         int64      `json:"total"`
	AmountPaid    int64      `json:"amountPaid"`
	Change        int64      `json:"change"`
	PaymentMethod string     `json:"paymentMethod"`
	CreatedBy     string     `json:"createdBy"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type CheckoutLine struct {
	ProductID string  `json:"productId"`
	Quantity  float64 `json:"quantity"`
}

type CheckoutInput struct {
	CustomerID    string         `json:"customerId"`
	Lines         []CheckoutLine `json:"lines"`
	AmountPaid    int64          `json:"amountPaid"`
	PaymentMethod string         `json:"paymentMethod"`
}
