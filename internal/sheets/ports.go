package sheets

import (
	"context"

	"budgetbook/internal/core"
)

// Ports for outbound adapters.
type (
	// YearWriter renders a user's year overview into a spreadsheet.
	YearWriter interface {
		// WriteYear replaces the sheet for (userID, year) with one row per month.
		WriteYear(ctx context.Context, userID string, year int, months []core.MonthSummary) (ref string, err error)
	}

	// UserClearer removes everything mirrored for a user.
	UserClearer interface {
		ClearUser(ctx context.Context, userID string) error
	}

	YearMirror interface {
		YearWriter
		UserClearer
	}
)
