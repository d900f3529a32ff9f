package approval

import (
	"testing"
	"time"

	"boutika/internal/domain/auth"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func evaluate(item Item, role string, itemType ItemType, extra Aggregates) Decision {
	actor := Actor{UserID: "user-1", Name: "Awa", Role: role}
	return Evaluate(item, actor, itemType, extra, now, DefaultThresholds())
}

func TestEvaluateAdminBypass(t *testing.T) {
	item := Item{
		CreatedBy:  "someone-else",
		UpdatedAt:  now.Add(-200 * time.Hour),
		Stock:      500,
		Price:      10000,
		Debt:       99999,
		TotalSpent: 9999999,
	}

	for _, role := range []string{auth.RoleAdmin, auth.RoleOwner} {
		for _, itemType := range []ItemType{TypeProduct, TypeCustomer, TypeSale, TypeIngredient} {
			decision := evaluate(item, role, itemType, Aggregates{PurchaseCount: 100})
			if decision.Required {
				t.Fatalf("role %s type %s: expected bypass, got reasons %v", role, itemType, decision.Reasons)
			}
			if len(decision.Reasons) != 0 {
				t.Fatalf("role %s: expected empty reasons, got %v", role, decision.Reasons)
			}
		}
	}
}

func TestEvaluateAgeThresholdIsStrict(t *testing.T) {
	tests := []struct {
		name    string
		age     time.Duration
		wantOld bool
	}{
		{name: "exactly 36h", age: 36 * time.Hour, wantOld: false},
		{name: "just over 36h", age: 36*time.Hour + 36*time.Second, wantOld: true},
		{name: "fresh", age: 2 * time.Hour, wantOld: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			item := Item{CreatedBy: "user-1", UpdatedAt: now.Add(-tc.age)}
			decision := evaluate(item, auth.RoleManagerVentes, TypeProduct, Aggregates{})
			got := containsReason(decision.Reasons, ReasonItemOld)
			if got != tc.wantOld {
				t.Fatalf("age %v: ITEM_OLD = %v, want %v (reasons %v)", tc.age, got, tc.wantOld, decision.Reasons)
			}
		})
	}
}

func TestEvaluatePrefersUpdatedAtOverCreatedAt(t *testing.T) {
	item := Item{
		CreatedBy: "user-1",
		CreatedAt: now.Add(-100 * time.Hour),
		UpdatedAt: now.Add(-1 * time.Hour),
	}
	decision := evaluate(item, auth.RoleManagerVentes, TypeProduct, Aggregates{})
	if containsReason(decision.Reasons, ReasonItemOld) {
		t.Fatalf("recent update should win over old creation, got %v", decision.Reasons)
	}
}

func TestEvaluateProductValueThresholdIsExact(t *testing.T) {
	tests := []struct {
		name     string
		price    int64
		stock    float64
		wantHigh bool
	}{
		{name: "value exactly 100000", price: 1000, stock: 100, wantHigh: false},
		{name: "value 100100", price: 1001, stock: 100, wantHigh: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			item := Item{CreatedBy: "user-1", UpdatedAt: now, Price: tc.price, Stock: tc.stock}
			decision := evaluate(item, auth.RoleManagerVentes, TypeProduct, Aggregates{})
			got := containsReason(decision.Reasons, ReasonHighValue)
			if got != tc.wantHigh {
				t.Fatalf("price=%d stock=%v: HIGH_VALUE = %v, want %v", tc.price, tc.stock, got, tc.wantHigh)
			}
		})
	}
}

func TestEvaluateProductStockThreshold(t *testing.T) {
	item := Item{CreatedBy: "user-1", UpdatedAt: now, Stock: 20}
	decision := evaluate(item, auth.RoleManagerVentes, TypeProduct, Aggregates{})
	if containsReason(decision.Reasons, ReasonHighStock) {
		t.Fatal("stock of exactly 20 must not trigger HIGH_STOCK")
	}

	item.Stock = 21
	decision = evaluate(item, auth.RoleManagerVentes, TypeProduct, Aggregates{})
	if !containsReason(decision.Reasons, ReasonHighStock) {
		t.Fatal("stock of 21 must trigger HIGH_STOCK")
	}
}

func TestEvaluateLimitedRoleFloor(t *testing.T) {
	// Fresh, self-created, low-stock, low-value product: no rule fires,
	// but a limited role still requires approval.
	item := Item{CreatedBy: "user-1", UpdatedAt: now.Add(-time.Hour), Stock: 3, Price: 500}

	for _, role := range []string{auth.RoleVendeur, auth.RoleComptable} {
		decision := evaluate(item, role, TypeProduct, Aggregates{})
		if !decision.Required {
			t.Fatalf("role %s: expected approval required", role)
		}
		if len(decision.Reasons) != 1 || decision.Reasons[0] != ReasonLimitedRole {
			t.Fatalf("role %s: expected [LIMITED_ROLE], got %v", role, decision.Reasons)
		}
	}
}

func TestEvaluateLimitedRoleNotStacked(t *testing.T) {
	item := Item{CreatedBy: "someone-else", UpdatedAt: now.Add(-time.Hour)}
	decision := evaluate(item, auth.RoleVendeur, TypeProduct, Aggregates{})
	if containsReason(decision.Reasons, ReasonLimitedRole) {
		t.Fatalf("LIMITED_ROLE must not stack on other reasons, got %v", decision.Reasons)
	}
	if !containsReason(decision.Reasons, ReasonNotCreator) {
		t.Fatalf("expected NOT_CREATOR, got %v", decision.Reasons)
	}
}

func TestEvaluateCustomerScenario(t *testing.T) {
	// Customer with debt, 3 prior purchases, created by another user,
	// updated 10h ago, requested by a sales manager.
	item := Item{
		CreatedBy:  "someone-else",
		UpdatedAt:  now.Add(-10 * time.Hour),
		Debt:       5000,
		TotalSpent: 50000,
	}
	decision := evaluate(item, auth.RoleManagerVentes, TypeCustomer, Aggregates{PurchaseCount: 3})
	if !decision.Required {
		t.Fatal("expected approval required")
	}
	want := []string{ReasonNotCreator, ReasonCustomerDebt}
	if len(decision.Reasons) != len(want) {
		t.Fatalf("expected reasons %v, got %v", want, decision.Reasons)
	}
	for i, code := range want {
		if decision.Reasons[i] != code {
			t.Fatalf("expected reasons %v, got %v", want, decision.Reasons)
		}
	}
}

func TestEvaluateSaleChecks(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		amountPaid int64
		want       []string
	}{
		{name: "exactly 50000 fully paid", total: 50000, amountPaid: 50000, want: nil},
		{name: "over 50000", total: 50001, amountPaid: 50001, want: []string{ReasonHighValueSale}},
		{name: "unpaid balance", total: 10000, amountPaid: 4000, want: []string{ReasonUnpaidDebt}},
		{name: "large and unpaid", total: 80000, amountPaid: 0, want: []string{ReasonHighValueSale, ReasonUnpaidDebt}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			item := Item{CreatedBy: "user-1", CreatedAt: now, Total: tc.total, AmountPaid: tc.amountPaid}
			decision := evaluate(item, auth.RoleManagerVentes, TypeSale, Aggregates{})
			if len(decision.Reasons) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, decision.Reasons)
			}
			for i, code := range tc.want {
				if decision.Reasons[i] != code {
					t.Fatalf("expected %v, got %v", tc.want, decision.Reasons)
				}
			}
		})
	}
}

func TestEvaluateIngredientChecks(t *testing.T) {
	item := Item{CreatedBy: "user-1", UpdatedAt: now, Stock: 50, MinStock: 5}
	decision := evaluate(item, auth.RoleManagerVentes, TypeIngredient, Aggregates{})
	if containsReason(decision.Reasons, ReasonHighStock) {
		t.Fatal("stock equal to minStock*10 must not trigger HIGH_STOCK")
	}

	item.Stock = 51
	decision = evaluate(item, auth.RoleManagerVentes, TypeIngredient, Aggregates{})
	if !containsReason(decision.Reasons, ReasonHighStock) {
		t.Fatal("stock over minStock*10 must trigger HIGH_STOCK")
	}

	item.Stock = 10
	decision = evaluate(item, auth.RoleManagerVentes, TypeIngredient, Aggregates{EstimatedValue: 100001})
	if !containsReason(decision.Reasons, ReasonHighValue) {
		t.Fatal("estimated value over threshold must trigger HIGH_VALUE")
	}
}

func TestEvaluateMissingFieldsDoNotFire(t *testing.T) {
	// No timestamps, no ownership, zero numerics: nothing fires for a
	// non-limited role.
	decision := evaluate(Item{}, auth.RoleManagerVentes, TypeProduct, Aggregates{})
	if decision.Required {
		t.Fatalf("expected no approval, got %v", decision.Reasons)
	}
}

func containsReason(reasons []string, code string) bool {
	for _, reason := range reasons {
		if reason == code {
			return true
		}
	}
	return false
}
