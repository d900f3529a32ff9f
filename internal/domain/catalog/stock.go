package catalog

import "errors"

var ErrInsufficientStock = errors.New("insufficient stock")

// NextStock applies a signed adjustment and rejects results below zero.
func NextStock(current, delta float64) (float64, error) {
	next := current + delta
	if next < 0 {
		return 0, ErrInsufficientStock
	}
	return next, nil
}

// IngredientValue estimates the stock value in whole FCFA.
func IngredientValue(stock float64, unitCost int64) int64 {
	if stock <= 0 || unitCost <= 0 {
		return 0
	}
	return int64(stock * float64(unitCost))
}
