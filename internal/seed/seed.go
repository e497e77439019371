// Package seed fills a ledger with plausible demo data.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/log"
	"budgetbook/internal/users"
)

// Ledger is the subset of the ledger service the generator writes through.
type Ledger interface {
	SubmitBudget(ctx context.Context, userID string, year int, months core.MonthlyAmounts) (int, error)
	SubmitExpense(ctx context.Context, userID string, day core.Day, amount *decimal.Decimal) (decimal.Decimal, error)
}

type Registrar interface {
	Register(ctx context.Context, r users.Registration) error
}

type Options struct {
	Users int
	Year  int
	// DaysPerMonth is how many distinct days per month get an expense.
	DaysPerMonth int
	// Password is shared by every generated account.
	Password string
}

// Result lists what was written.
type Result struct {
	Users    []string
	Budgets  int
	Expenses int
}

type Generator struct {
	ledger   Ledger
	accounts Registrar
	faker    *gofakeit.Faker
	logger   *log.Logger
}

// New builds a generator. A zero seed picks a random one.
func New(ledger Ledger, accounts Registrar, seed int64, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Generator{
		ledger:   ledger,
		accounts: accounts,
		faker:    gofakeit.New(seed),
		logger:   logger.WithComponent(log.ComponentSeed),
	}
}

// Run registers opts.Users accounts and gives each a budget for opts.Year
// plus daily expenses. Existing accounts are reused.
func (g *Generator) Run(ctx context.Context, opts Options) (Result, error) {
	if err := core.ValidateYear(opts.Year); err != nil {
		return Result{}, err
	}
	if opts.Users < 1 {
		return Result{}, fmt.Errorf("%w: at least one user is required", core.ErrInvalidRequest)
	}

	var res Result
	for i := 0; i < opts.Users; i++ {
		id, err := g.registerUser(ctx, i, opts.Password)
		if err != nil {
			return res, err
		}
		res.Users = append(res.Users, id)

		months := make(core.MonthlyAmounts, 12)
		for m := 1; m <= 12; m++ {
			months[m] = g.amount(800, 2500)
		}
		if _, err := g.ledger.SubmitBudget(ctx, id, opts.Year, months); err != nil {
			return res, fmt.Errorf("seed budget for %s: %w", id, err)
		}
		res.Budgets++

		for m := 1; m <= 12; m++ {
			for _, d := range g.days(opts.Year, m, opts.DaysPerMonth) {
				amount := g.amount(3, 150)
				if _, err := g.ledger.SubmitExpense(ctx, id, core.NewDay(opts.Year, m, d), &amount); err != nil {
					return res, fmt.Errorf("seed expense for %s: %w", id, err)
				}
				res.Expenses++
			}
		}
		g.logger.InfoContext(ctx, "Seeded user", log.FieldUserID, id, log.FieldYear, opts.Year)
	}
	return res, nil
}

func (g *Generator) registerUser(ctx context.Context, n int, password string) (string, error) {
	if password == "" {
		password = "password"
	}
	id := fmt.Sprintf("%s%d", g.faker.Username(), n)
	err := g.accounts.Register(ctx, users.Registration{
		ID:       id,
		Password: password,
		Name:     g.faker.Name(),
		Email:    g.faker.Email(),
		Phone:    g.faker.Phone(),
		Nickname: g.faker.FirstName(),
	})
	if err != nil && !errors.Is(err, core.ErrUserExists) {
		return "", fmt.Errorf("register %s: %w", id, err)
	}
	return id, nil
}

func (g *Generator) amount(min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(g.faker.Price(min, max)).Round(2)
}

// days picks n distinct days of the month in ascending order.
func (g *Generator) days(year, month, n int) []int {
	total := core.DaysIn(year, month)
	if n > total {
		n = total
	}
	picked := make(map[int]bool, n)
	for len(picked) < n {
		picked[g.faker.Number(1, total)] = true
	}
	out := make([]int, 0, n)
	for d := 1; d <= total; d++ {
		if picked[d] {
			out = append(out, d)
		}
	}
	return out
}
