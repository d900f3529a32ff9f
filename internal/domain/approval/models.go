package approval

import (
	"encoding/json"
	"errors"
	"time"

	"boutika/internal/domain/auth"
)

type ItemType string

const (
	TypeProduct    ItemType = "product"
	TypeIngredient ItemType = "ingredient"
	TypeCustomer   ItemType = "customer"
	TypeSale       ItemType = "sale"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	ReasonItemOld           = "ITEM_OLD"
	ReasonNotCreator        = "NOT_CREATOR"
	ReasonHighStock         = "HIGH_STOCK"
	ReasonHighValue         = "HIGH_VALUE"
	ReasonCustomerHistory   = "CUSTOMER_HISTORY"
	ReasonCustomerDebt      = "CUSTOMER_DEBT"
	ReasonHighValueCustomer = "HIGH_VALUE_CUSTOMER"
	ReasonHighValueSale     = "HIGH_VALUE_SALE"
	ReasonUnpaidDebt        = "UNPAID_DEBT"
	ReasonLimitedRole       = "LIMITED_ROLE"
)

var (
	// ErrNotPending: the request is already approved or rejected.
	ErrNotPending = errors.New("deletion request is not pending")
	// ErrDeletionFailed: the request was approved but the entity
	// deletion callback failed, leaving an approved-unconfirmed request
	// that needs admin reconciliation.
	ErrDeletionFailed = errors.New("entity deletion failed after approval")
)

// Actor is the user on whose behalf an evaluation or transition runs.
type Actor struct {
	UserID string `json:"userId"`
	Name   string `json:"userName"`
	Role   string `json:"userRole"`
}

// Item carries the entity fields the rule engine looks at. Fields that
// do not apply to a given item type stay at their zero value and never
// trigger a check.
type Item struct {
	ID         string
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Stock      float64
	MinStock   float64
	Price      int64
	Debt       int64
	TotalSpent int64
	Total      int64
	AmountPaid int64
}

// Aggregates supplies values not stored on the item itself.
type Aggregates struct {
	PurchaseCount  int
	EstimatedValue int64
}

type Decision struct {
	Required bool     `json:"required"`
	Reasons  []string `json:"reasons"`
}

// Thresholds configures the rule engine. All amount comparisons are
// strict greater-than on exact integer FCFA.
type Thresholds struct {
	MaxItemAge           time.Duration
	HighStockUnits       float64
	HighValue            int64
	HighValueSale        int64
	HistoryPurchases     int
	IngredientStockRatio float64
	LimitedRoles         []string
	BypassRoles          []string
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxItemAge:           36 * time.Hour,
		HighStockUnits:       20,
		HighValue:            100000,
		HighValueSale:        50000,
		HistoryPurchases:     5,
		IngredientStockRatio: 10,
		LimitedRoles:         []string{auth.RoleVendeur, auth.RoleComptable},
		BypassRoles:          []string{auth.RoleAdmin, auth.RoleOwner},
	}
}

type DeletionRequest struct {
	ID                  string          `json:"id"`
	ItemType            ItemType        `json:"itemType"`
	ItemID              string          `json:"itemId"`
	ItemSnapshot        json.RawMessage `json:"itemSnapshot,omitempty"`
	RequestedBy         Actor           `json:"requestedBy"`
	Status              string          `json:"status"`
	Reasons             []string        `json:"approvalReasons"`
	CreatedAt           time.Time       `json:"createdAt"`
	ProcessedAt         *time.Time      `json:"processedAt,omitempty"`
	ProcessedBy         string          `json:"processedBy,omitempty"`
	Reason              string          `json:"reason,omitempty"`
	DeletionConfirmedAt *time.Time      `json:"deletionConfirmedAt,omitempty"`
}
