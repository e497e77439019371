//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"budgetbook/internal/core"

	"github.com/shopspring/decimal"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_YearMirror(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if os.Getenv("GOOGLE_SPREADSHEET_ID") == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON") == "" && os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE") == "" &&
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	client, err := NewFromEnv(ctx)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	user := "it-" + time.Now().Format("20060102150405")
	months := []core.MonthSummary{
		core.NewMonthSummary(2024, 1, core.MonthlyAmounts{1: decimal.NewFromInt(500)},
			map[int]decimal.Decimal{3: decimal.NewFromInt(40)}),
	}

	t.Run("WriteYear", func(t *testing.T) {
		ref, err := client.WriteYear(ctx, user, 2024, months)
		if err != nil {
			t.Fatalf("WriteYear: %v", err)
		}
		t.Logf("wrote %s", ref)

		// Second write hits the existing sheet.
		if _, err := client.WriteYear(ctx, user, 2024, months); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
	})

	t.Run("ClearUser", func(t *testing.T) {
		if err := client.ClearUser(ctx, user); err != nil {
			t.Fatalf("ClearUser: %v", err)
		}
		if err := client.ClearUser(ctx, user); err != nil {
			t.Fatalf("ClearUser on empty user: %v", err)
		}
	})
}
