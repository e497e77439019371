package core

import "github.com/shopspring/decimal"

// MonthSummary compares a month's budget with what was spent.
type MonthSummary struct {
	Year      int
	Month     int // 1-12
	Budget    decimal.Decimal
	BudgetSet bool
	Spent     decimal.Decimal
	Remaining decimal.Decimal
	Days      int // days with a recorded expense
}

// NewMonthSummary derives a summary from a year's budget and a month's expenses keyed by day.
func NewMonthSummary(year, month int, budget MonthlyAmounts, expenses map[int]decimal.Decimal) MonthSummary {
	s := MonthSummary{Year: year, Month: month, Budget: decimal.Zero, Spent: decimal.Zero}
	if b, ok := budget[month]; ok {
		s.Budget = b
		s.BudgetSet = true
	}
	amounts := make([]decimal.Decimal, 0, len(expenses))
	for _, amount := range expenses {
		amounts = append(amounts, amount)
	}
	s.Spent = Sum(amounts...)
	s.Days = len(amounts)
	s.Remaining = s.Budget.Sub(s.Spent)
	return s
}

// Overspent reports whether expenses exceed a set budget.
func (s MonthSummary) Overspent() bool {
	return s.BudgetSet && s.Remaining.IsNegative()
}
