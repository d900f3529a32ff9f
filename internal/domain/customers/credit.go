package customers

import "errors"

var (
	ErrInvalidAmount  = errors.New("payment amount must be positive")
	ErrExceedsBalance = errors.New("payment exceeds outstanding debt")
)

// ApplyPayment returns the remaining debt after a credit repayment.
// Amounts are whole FCFA; overpayment is rejected rather than carried
// as a negative balance.
func ApplyPayment(debt, amount int64) (int64, error) {
	if amount <= 0 {
		return debt, ErrInvalidAmount
	}
	if amount > debt {
		return debt, ErrExceedsBalance
	}
	return debt - amount, nil
}
