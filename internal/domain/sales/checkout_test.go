package sales

import (
	"errors"
	"testing"
)

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		price    int64
		quantity float64
		want     int64
	}{
		{name: "unit quantity", price: 1500, quantity: 1, want: 1500},
		{name: "multiple units", price: 250, quantity: 4, want: 1000},
		{name: "fractional kg", price: 900, quantity: 2.5, want: 2250},
		{name: "rounds to whole francs", price: 1000, quantity: 0.333, want: 333},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := LineTotal(tc.price, tc.quantity); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		tendered int64
		want     Settlement
		wantErr  bool
	}{
		{name: "exact", total: 5000, tendered: 5000, want: Settlement{AmountPaid: 5000}},
		{name: "change returned", total: 5000, tendered: 6000, want: Settlement{AmountPaid: 5000, Change: 1000}},
		{name: "partial leaves credit", total: 5000, tendered: 2000, want: Settlement{AmountPaid: 2000, Outstanding: 3000}},
		{name: "nothing tendered", total: 5000, tendered: 0, want: Settlement{Outstanding: 5000}},
		{name: "negative tendered", total: 5000, tendered: -1, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := Settle(tc.total, tc.tendered)
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
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestValidateCheckout(t *testing.T) {
	valid := CheckoutInput{
		Lines:         []CheckoutLine{{ProductID: "p1", Quantity: 2}},
		AmountPaid:    1000,
		PaymentMethod: PaymentCash,
	}
	if err := ValidateCheckout(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	empty := valid
	empty.Lines = nil
	if err := ValidateCheckout(empty); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}

	badQty := valid
	badQty.Lines = []CheckoutLine{{ProductID: "p1", Quantity: 0}}
	if err := ValidateCheckout(badQty); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}

	badMethod := valid
	badMethod.PaymentMethod = "cheque"
	if err := ValidateCheckout(badMethod); !errors.Is(err, ErrUnknownPaymentMethod) {
		t.Fatalf("expected ErrUnknownPaymentMethod, got %v", err)
	}

	badAmount := valid
	badAmount.AmountPaid = -5
	if err := ValidateCheckout(badAmount); !errors.Is(err, ErrInvalidPayment) {
		t.Fatalf("expected ErrInvalidPayment, got %v", err)
	}
}
