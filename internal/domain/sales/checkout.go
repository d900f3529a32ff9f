package sales

import (
	"errors"
	"math"
)

var (
	ErrEmptyCart              = errors.New("cart is empty")
	ErrInvalidQuantity        = errors.New("line quantity must be positive")
	ErrInvalidPayment         = errors.New("invalid payment amount")
	ErrUnknownPaymentMethod   = errors.New("unknown payment method")
	ErrCreditRequiresCustomer = errors.New("credit sale requires a customer")
)

// LineTotal rounds to whole FCFA; quantities may be fractional (kg,
// litres) but amounts never are.
func LineTotal(unitPrice int64, quantity float64) int64 {
	return int64(math.Round(float64(unitPrice) * quantity))
}

// Settlement splits the tendered amount into what the sale absorbs,
// what is returned as change and what stays outstanding as customer
// credit.
type Settlement struct {
	AmountPaid  int64
	Change      int64
	Outstanding int64
}

func Settle(total, tendered int64) (Settlement, error) {
	if tendered < 0 {
		return Settlement{}, ErrInvalidPayment
	}
	if tendered >= total {
		return Settlement{AmountPaid: total, Change: tendered - total}, nil
	}
	return Settlement{AmountPaid: tendered, Outstanding: total - tendered}, nil
}

func ValidateCheckout(input CheckoutInput) error {
	if len(input.Lines) == 0 {
		return ErrEmptyCart
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	valid := false
	for _, method := range PaymentMethods {
		if input.PaymentMethod == method {
			valid = true
			break
		}
	}
	if !valid {
		return ErrUnknownPaymentMethod
	}
	if input.AmountPaid < 0 {
		return ErrInvalidPayment
	}
	return nil
}
