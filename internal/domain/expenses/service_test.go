package expenses

import (
	"errors"
	"testing"
)

func TestValidateInput(t *testing.T) {
	valid := ExpenseInput{Label: "Loyer boutique", Category: CategoryRent, Amount: 75000, SpentOn: "2026-08-01"}

	tests := []struct {
		name    string
		mutate  func(*ExpenseInput)
		wantErr error
	}{
		{name: "valid", mutate: func(*ExpenseInput) {}},
		{name: "blank label", mutate: func(in *ExpenseInput) { in.Label = "  " }, wantErr: ErrLabelRequired},
		{name: "unknown category", mutate: func(in *ExpenseInput) { in.Category = "divers" }, wantErr: ErrInvalidCategory},
		{name: "zero amount", mutate: func(in *ExpenseInput) { in.Amount = 0 }, wantErr: ErrInvalidAmount},
		{name: "negative amount", mutate: func(in *ExpenseInput) { in.Amount = -100 }, wantErr: ErrInvalidAmount},
		{name: "bad date", mutate: func(in *ExpenseInput) { in.SpentOn = "01/08/2026" }, wantErr: ErrInvalidDate},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			err := ValidateInput(in)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}
