package main

import (
	"context"
	"flag"
	"os"
	"time"

	"budgetbook/internal/backend"
	"budgetbook/internal/cli"
	"budgetbook/internal/ledger"
	"budgetbook/internal/log"
	"budgetbook/internal/seed"
	"budgetbook/internal/services"
	"budgetbook/internal/users"
)

func main() {
	numUsers := flag.Int("users", 3, "number of accounts to create")
	year := flag.Int("year", time.Now().Year(), "budget year to fill")
	days := flag.Int("days", 8, "expense days per month")
	password := flag.String("password", "password", "password shared by the generated accounts")
	randSeed := flag.Int64("seed", 0, "random seed, 0 for a random one")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, nil)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	ledgerService := services.NewLedgerService(ledger.New(result.Store), nil, logger)
	accounts := users.NewService(result.Users, cli.NewCodec(cfg))

	res, runErr := seed.New(ledgerService, accounts, *randSeed, logger).Run(context.Background(), seed.Options{
		Users:        *numUsers,
		Year:         *year,
		DaysPerMonth: *days,
		Password:     *password,
	})
	if result.Cleanup != nil {
		if err := result.Cleanup(); err != nil {
			logger.Error("Failed to release backend", log.FieldError, err)
		}
	}
	if runErr != nil {
		logger.Error("Seeding failed", log.FieldError, runErr)
		os.Exit(1)
	}

	logger.Info("Seeding complete",
		"users", res.Users,
		"budgets", res.Budgets,
		"expenses", res.Expenses,
		log.FieldYear, *year)
}
