package customers

import (
	"errors"
	"testing"
)

func TestApplyPayment(t *testing.T) {
	tests := []struct {
		name    string
		debt    int64
		amount  int64
		want    int64
		wantErr error
	}{
		{name: "partial repayment", debt: 10000, amount: 4000, want: 6000},
		{name: "full repayment", debt: 10000, amount: 10000, want: 0},
		{name: "zero amount", debt: 10000, amount: 0, wantErr: ErrInvalidAmount},
		{name: "negative amount", debt: 10000, amount: -500, wantErr: ErrInvalidAmount},
		{name: "overpayment", debt: 10000, amount: 10001, wantErr: ErrExceedsBalance},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ApplyPayment(tc.debt, tc.amount)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected remaining debt %d, got %d", tc.want, got)
			}
		})
	}
}
