// Package services wires the ledger to its side effects.
package services

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/log"
)

// EventPublisher announces committed ledger changes.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// LedgerService runs ledger commands, then publishes a change event on a best-effort basis.
type LedgerService struct {
	ledger    *ledger.Ledger
	publisher EventPublisher
	logger    *log.Logger
}

// NewLedgerService accepts a nil publisher; events are then skipped.
func NewLedgerService(l *ledger.Ledger, publisher EventPublisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerService{
		ledger:    l,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

func (s *LedgerService) SubmitBudget(ctx context.Context, userID string, year int, months core.MonthlyAmounts) (int, error) {
	written, err := s.ledger.UpsertYear(ctx, userID, year, months)
	if err != nil {
		return 0, fmt.Errorf("submit budget: %w", err)
	}
	s.logger.LogMutation(ctx, log.OpUpsertYear, userID, log.NewFields().WithDate(year, 0, 0))
	s.publish(ctx, amqp.NewLedgerEvent(amqp.KindBudgetUpserted, userID, year, 0, 0))
	return written, nil
}

func (s *LedgerService) Budget(ctx context.Context, userID string, year int) (core.MonthlyAmounts, error) {
	months, err := s.ledger.GetYear(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return months, nil
}

func (s *LedgerService) SubmitExpense(ctx context.Context, userID string, day core.Day, amount *decimal.Decimal) (decimal.Decimal, error) {
	stored, err := s.ledger.UpsertDay(ctx, userID, day, amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("submit expense: %w", err)
	}
	s.logger.LogMutation(ctx, log.OpUpsertDay, userID,
		log.NewFields().WithDate(day.Year, day.Month, day.Day).WithAmount(stored))
	s.publish(ctx, amqp.NewLedgerEvent(amqp.KindExpenseUpserted, userID, day.Year, day.Month, day.Day))
	return stored, nil
}

func (s *LedgerService) MonthExpenses(ctx context.Context, userID string, year, month int) (map[int]decimal.Decimal, error) {
	days, err := s.ledger.QueryMonth(ctx, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("get expenses: %w", err)
	}
	return days, nil
}

// ResetScope clears a year (month == core.AllMonths) or a month.
// A *ledger.PartialFailure is returned unwrapped so callers can report what was applied.
func (s *LedgerService) ResetScope(ctx context.Context, userID string, year, month int) error {
	fields := log.NewFields().WithDate(year, month, 0)
	if err := s.ledger.ResetScope(ctx, userID, year, month); err != nil {
		s.logger.LogError(ctx, "Reset failed", err, log.OpResetScope, fields.WithUser(userID))
		if isPartial(err) {
			s.publish(ctx, amqp.NewLedgerEvent(amqp.KindScopeReset, userID, year, month, 0))
			return err
		}
		return fmt.Errorf("reset scope: %w", err)
	}
	s.logger.LogMutation(ctx, log.OpResetScope, userID, fields)
	s.publish(ctx, amqp.NewLedgerEvent(amqp.KindScopeReset, userID, year, month, 0))
	return nil
}

func (s *LedgerService) ResetAll(ctx context.Context, userID string) error {
	if err := s.ledger.ResetAll(ctx, userID); err != nil {
		s.logger.LogError(ctx, "Reset failed", err, log.OpResetAll, log.NewFields().WithUser(userID))
		if isPartial(err) {
			s.publish(ctx, amqp.NewLedgerEvent(amqp.KindAllReset, userID, 0, 0, 0))
			return err
		}
		return fmt.Errorf("reset all: %w", err)
	}
	s.logger.LogMutation(ctx, log.OpResetAll, userID, nil)
	s.publish(ctx, amqp.NewLedgerEvent(amqp.KindAllReset, userID, 0, 0, 0))
	return nil
}

func (s *LedgerService) MonthSummary(ctx context.Context, userID string, year, month int) (core.MonthSummary, error) {
	sum, err := s.ledger.MonthSummary(ctx, userID, year, month)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("month summary: %w", err)
	}
	return sum, nil
}

func (s *LedgerService) YearSummary(ctx context.Context, userID string, year int) ([]core.MonthSummary, error) {
	months, err := s.ledger.YearSummary(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("year summary: %w", err)
	}
	return months, nil
}

// publish never fails the caller: the change is already committed.
func (s *LedgerService) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Event publisher not configured, skipping event", log.FieldEventKind, event.Kind)
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, event); err != nil {
		s.logger.LogError(ctx, "Failed to publish ledger event", err, log.OpPublish,
			log.NewFields().WithUser(event.UserID).WithDate(event.Year, event.Month, event.Day))
	}
}

// Close releases the publisher if it holds resources.
func (s *LedgerService) Close() error {
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}
