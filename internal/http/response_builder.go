package http

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
)

func messageBody(message string) gin.H {
	return gin.H{"message": message}
}

// amount renders a decimal as a bare JSON number with its stored precision.
func amount(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// amountsByKey renders a month or day keyed map as a JSON object.
func amountsByKey(m map[int]decimal.Decimal) map[string]json.Number {
	out := make(map[string]json.Number, len(m))
	for k, v := range m {
		out[strconv.Itoa(k)] = amount(v)
	}
	return out
}

type expenseView struct {
	Date   string      `json:"date"`
	Amount json.Number `json:"amount"`
}

type summaryView struct {
	Year      int          `json:"year"`
	Month     int          `json:"month"`
	Budget    *json.Number `json:"budget"`
	Spent     json.Number  `json:"spent"`
	Remaining json.Number  `json:"remaining"`
	Days      int          `json:"days"`
	Overspent bool         `json:"overspent"`
}

func newSummaryView(s core.MonthSummary) summaryView {
	v := summaryView{
		Year:      s.Year,
		Month:     s.Month,
		Spent:     amount(s.Spent),
		Remaining: amount(s.Remaining),
		Days:      s.Days,
		Overspent: s.Overspent(),
	}
	if s.BudgetSet {
		b := amount(s.Budget)
		v.Budget = &b
	}
	return v
}

func newSummaryViews(months []core.MonthSummary) []summaryView {
	out := make([]summaryView, 0, len(months))
	for _, m := range months {
		out = append(out, newSummaryView(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
