package approval

import "time"

// Evaluate decides whether deleting item must be deferred for admin
// review and returns the reason codes that fired, in check order.
//
// Admin and owner bypass every check. The limited-role reason is a
// floor, not stacked: it is appended only when no other reason fired,
// so limited roles always require approval with at least one reason.
func Evaluate(item Item, actor Actor, itemType ItemType, extra Aggregates, now time.Time, t Thresholds) Decision {
	for _, role := range t.BypassRoles {
		if actor.Role == role {
			return Decision{Required: false, Reasons: []string{}}
		}
	}

	var reasons []string

	reference := item.UpdatedAt
	if reference.IsZero() {
		reference = item.CreatedAt
	}
	if !reference.IsZero() && now.Sub(reference) > t.MaxItemAge {
		reasons = append(reasons, ReasonItemOld)
	}

	if item.CreatedBy != "" && item.CreatedBy != actor.UserID {
		reasons = append(reasons, ReasonNotCreator)
	}

	switch itemType {
	case TypeProduct:
		if item.Stock > t.HighStockUnits {
			reasons = append(reasons, ReasonHighStock)
		}
		if float64(item.Price)*item.Stock > float64(t.HighValue) {
			reasons = append(reasons, ReasonHighValue)
		}
	case TypeCustomer:
		if extra.PurchaseCount > t.HistoryPurchases {
			reasons = append(reasons, ReasonCustomerHistory)
		}
		if item.Debt > 0 {
			reasons = append(reasons, ReasonCustomerDebt)
		}
		if item.TotalSpent > t.HighValue {
			reasons = append(reasons, ReasonHighValueCustomer)
		}
	case TypeSale:
		if item.Total > t.HighValueSale {
			reasons = append(reasons, ReasonHighValueSale)
		}
		if item.AmountPaid < item.Total {
			reasons = append(reasons, ReasonUnpaidDebt)
		}
	case TypeIngredient:
		if item.Stock > item.MinStock*t.IngredientStockRatio {
			reasons = append(reasons, ReasonHighStock)
		}
		if extra.EstimatedValue > t.HighValue {
			reasons = append(reasons, ReasonHighValue)
		}
	}

	if len(reasons) == 0 {
		for _, role := range t.LimitedRoles {
			if actor.Role == role {
				reasons = append(reasons, ReasonLimitedRole)
				break
			}
		}
	}

	if reasons == nil {
		reasons = []string{}
	}
	return Decision{Required: len(reasons) > 0, Reasons: reasons}
}
