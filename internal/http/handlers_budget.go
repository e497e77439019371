package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
)

type budgetRequest struct {
	Year    json.Number                `json:"year"`
	Budgets map[string]decimal.Decimal `json:"budgets"`
}

func (s *Server) handleSubmitBudget(c *gin.Context) {
	var req budgetRequest
	if !bindJSON(c, &req) {
		return
	}
	year, err := parseYearNumber(req.Year)
	if err != nil {
		respondError(c, err)
		return
	}
	months, err := parseMonthlyAmounts(req.Budgets)
	if err != nil {
		respondError(c, err)
		return
	}
	written, err := s.ledger.SubmitBudget(c.Request.Context(), currentUser(c), year, months)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Budget for %d saved.", written),
		"year":    written,
	})
}

// handleGetBudget answers {} for a year that has no budget.
func (s *Server) handleGetBudget(c *gin.Context) {
	year, err := parseYear(c.Param("year"))
	if err != nil {
		respondError(c, err)
		return
	}
	months, err := s.ledger.Budget(c.Request.Context(), currentUser(c), year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, amountsByKey(months))
}

// handleResetYear clears one year, or every year when the segment is "all".
func (s *Server) handleResetYear(c *gin.Context) {
	ctx := c.Request.Context()
	if c.Param("year") == "all" {
		if err := s.ledger.ResetAll(ctx, currentUser(c)); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, messageBody("All budgets and expenses deleted."))
		return
	}
	year, err := parseYear(c.Param("year"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.ledger.ResetScope(ctx, currentUser(c), year, core.AllMonths); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageBody(fmt.Sprintf("Budgets and expenses for %d deleted.", year)))
}

func (s *Server) handleResetMonth(c *gin.Context) {
	year, err := parseYear(c.Param("year"))
	if err != nil {
		respondError(c, err)
		return
	}
	month, err := parseResetMonth(c.Param("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.ledger.ResetScope(c.Request.Context(), currentUser(c), year, month); err != nil {
		respondError(c, err)
		return
	}
	if month == core.AllMonths {
		c.JSON(http.StatusOK, messageBody(fmt.Sprintf("Budgets and expenses for %d deleted.", year)))
		return
	}
	c.JSON(http.StatusOK, messageBody(fmt.Sprintf("Budget and expenses for %d-%d deleted.", year, month)))
}
