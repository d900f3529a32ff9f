package catalog

import "testing"

func TestNextStock(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		delta   float64
		want    float64
		wantErr bool
	}{
		{name: "restock", current: 10, delta: 5, want: 15},
		{name: "sale", current: 10, delta: -4, want: 6},
		{name: "drain to zero", current: 4, delta: -4, want: 0},
		{name: "below zero", current: 3, delta: -4, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextStock(tc.current, tc.delta)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestIngredientValue(t *testing.T) {
	if got := IngredientValue(12.5, 800); got != 10000 {
		t.Fatalf("expected 10000, got %d", got)
	}
	if got := IngredientValue(0, 800); got != 0 {
		t.Fatalf("expected 0 for empty stock, got %d", got)
	}
	if got := IngredientValue(3, 0); got != 0 {
		t.Fatalf("expected 0 for free ingredient, got %d", got)
	}
}
