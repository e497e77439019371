package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleMonthSummary(c *gin.Context) {
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
	summary, err := s.ledger.MonthSummary(c.Request.Context(), currentUser(c), year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSummaryView(summary))
}

func (s *Server) handleYearSummary(c *gin.Context) {
	year, err := parseYear(c.Param("year"))
	if err != nil {
		respondError(c, err)
		return
	}
	months, err := s.ledger.YearSummary(c.Request.Context(), currentUser(c), year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "months": newSummaryViews(months)})
}
