package http

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
)

// bindJSON decodes the request body, answering 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, fmt.Errorf("%w: malformed JSON body", core.ErrInvalidRequest))
		return false
	}
	return true
}

// parseYear accepts a positive decimal year.
func parseYear(raw string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidYear, raw)
	}
	if err := core.ValidateYear(year); err != nil {
		return 0, err
	}
	return year, nil
}

func parseMonth(raw string) (int, error) {
	month, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidMonth, raw)
	}
	if err := core.ValidateMonth(month); err != nil {
		return 0, err
	}
	return month, nil
}

// parseResetMonth is parseMonth that also accepts core.AllMonths.
func parseResetMonth(raw string) (int, error) {
	if month, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && month == core.AllMonths {
		return core.AllMonths, nil
	}
	return parseMonth(raw)
}

// parseYearNumber accepts a JSON year sent either as a number or a numeric string.
func parseYearNumber(n json.Number) (int, error) {
	if n == "" {
		return 0, fmt.Errorf("%w: year is required", core.ErrInvalidRequest)
	}
	return parseYear(n.String())
}

// parseMonthlyAmounts converts {"1": 100000, ...} into typed months.
func parseMonthlyAmounts(raw map[string]decimal.Decimal) (core.MonthlyAmounts, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: budgets are required", core.ErrInvalidRequest)
	}
	months := make(core.MonthlyAmounts, len(raw))
	for key, amount := range raw {
		month, err := parseMonth(key)
		if err != nil {
			return nil, err
		}
		months[month] = amount
	}
	return months, nil
}
