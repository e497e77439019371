// Package core provides money handling utilities.
//
// Amounts are carried as decimal.Decimal so that budgets and expenses keep
// exactly the precision they were submitted with.
package core

import "github.com/shopspring/decimal"

// ValidateAmount rejects negative amounts.
func ValidateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Sum adds up amounts.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
