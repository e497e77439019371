package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
)

type expenseRequest struct {
	Date   string           `json:"date"`
	Amount *decimal.Decimal `json:"amount"`
}

func (s *Server) handleSubmitExpense(c *gin.Context) {
	var req expenseRequest
	if !bindJSON(c, &req) {
		return
	}
	day, err := core.ParseDay(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	stored, err := s.ledger.SubmitExpense(c.Request.Context(), currentUser(c), day, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Expense saved.",
		"expense": expenseView{Date: day.String(), Amount: amount(stored)},
	})
}

func (s *Server) handleMonthExpenses(c *gin.Context) {
	year, err := parseYear(c.Param("year"))
	if err != nil {
		respondError(c, err)
		return
	}
	month, err := parseMonth(c.Param("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	days, err := s.ledger.MonthExpenses(c.Request.Context(), currentUser(c), year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, amountsByKey(days))
}
