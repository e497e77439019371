package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/log"
	"budgetbook/internal/sheets"
)

// Summarizer produces the twelve month overview the mirror renders.
type Summarizer interface {
	YearSummary(ctx context.Context, userID string, year int) ([]core.MonthSummary, error)
}

type yearKey struct {
	user string
	year int
}

// MirrorWorker collects ledger events and refreshes the spreadsheet mirror in
// batches. Many events for the same (user, year) between two flushes produce
// one write.
type MirrorWorker struct {
	summaries   Summarizer
	mirror      sheets.YearMirror
	concurrency int
	logger      *log.Logger

	mu     sync.Mutex
	dirty  map[yearKey]struct{}
	clears map[string]struct{}

	flushMu sync.Mutex
	cron    *cron.Cron
}

func NewMirrorWorker(summaries Summarizer, mirror sheets.YearMirror, concurrency int, logger *log.Logger) *MirrorWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		summaries:   summaries,
		mirror:      mirror,
		concurrency: concurrency,
		logger:      logger.WithComponent(log.ComponentWorker),
		dirty:       make(map[yearKey]struct{}),
		clears:      make(map[string]struct{}),
	}
}

// HandleEvent records the change carried by one ledger event. It never
// touches the spreadsheet; Flush does.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	if ev == nil {
		return errors.New("nil ledger event")
	}
	if ev.UserID == "" {
		return fmt.Errorf("handle event %s: %w", ev.ID, core.ErrMissingUser)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	switch ev.Kind {
	case amqp.KindAllReset:
		for k := range w.dirty {
			if k.user == ev.UserID {
				delete(w.dirty, k)
			}
		}
		w.clears[ev.UserID] = struct{}{}
	case amqp.KindBudgetUpserted, amqp.KindExpenseUpserted, amqp.KindScopeReset:
		if err := core.ValidateYear(ev.Year); err != nil {
			return fmt.Errorf("handle event %s: %w", ev.ID, err)
		}
		w.dirty[yearKey{user: ev.UserID, year: ev.Year}] = struct{}{}
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown ledger event",
			log.FieldEventID, ev.ID,
			log.FieldEventKind, ev.Kind)
		return nil
	}

	w.logger.DebugContext(ctx, "Ledger event recorded",
		log.FieldEventID, ev.ID,
		log.FieldEventKind, ev.Kind,
		log.FieldUserID, ev.UserID,
		log.FieldYear, ev.Year)
	return nil
}

// Pending reports how many user clears and year writes wait for the next flush.
func (w *MirrorWorker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirty) + len(w.clears)
}

// Flush applies pending clears, then rewrites every dirty year with at most
// concurrency writes in flight. Failed entries stay pending for the next run.
func (w *MirrorWorker) Flush(ctx context.Context) error {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.mu.Lock()
	dirty, clears := w.dirty, w.clears
	w.dirty = make(map[yearKey]struct{})
	w.clears = make(map[string]struct{})
	w.mu.Unlock()

	if len(dirty) == 0 && len(clears) == 0 {
		return nil
	}
	start := time.Now()

	var (
		errMu sync.Mutex
		errs  []error
	)
	fail := func(err error) {
		errMu.Lock()
		errs = append(errs, err)
		errMu.Unlock()
	}

	failedClears := make(map[string]bool)
	for user := range clears {
		if err := w.mirror.ClearUser(ctx, user); err != nil {
			fail(fmt.Errorf("clear %s: %w", user, err))
			w.requeueClear(user)
			failedClears[user] = true
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(w.concurrency)
	written, deferred := 0, 0
	var writtenMu sync.Mutex
	for key := range dirty {
		// The retried clear would delete this tab, so the write waits for it.
		if failedClears[key.user] {
			w.deferYear(key)
			deferred++
			continue
		}
		g.Go(func() error {
			if err := w.writeYear(ctx, key); err != nil {
				fail(err)
				w.requeueYear(key)
				return nil
			}
			writtenMu.Lock()
			written++
			writtenMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	if err != nil {
		w.logger.ErrorContext(ctx, "Mirror flush incomplete",
			log.FieldOperation, log.OpMirror,
			"cleared", len(clears),
			"written", written,
			"deferred", deferred,
			"failed", len(errs),
			log.FieldError, err)
		return err
	}
	w.logger.InfoContext(ctx, "Mirror flush completed",
		log.FieldOperation, log.OpMirror,
		"cleared", len(clears),
		"written", written,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

func (w *MirrorWorker) writeYear(ctx context.Context, key yearKey) error {
	months, err := w.summaries.YearSummary(ctx, key.user, key.year)
	if err != nil {
		return fmt.Errorf("summarize %s/%d: %w", key.user, key.year, err)
	}
	ref, err := w.mirror.WriteYear(ctx, key.user, key.year, months)
	if err != nil {
		return fmt.Errorf("write %s/%d: %w", key.user, key.year, err)
	}
	w.logger.DebugContext(ctx, "Year mirrored",
		log.FieldUserID, key.user,
		log.FieldYear, key.year,
		log.FieldSheetsRef, ref)
	return nil
}

func (w *MirrorWorker) requeueYear(key yearKey) {
	w.mu.Lock()
	defer w.mu.Unlock()
	// A reset-all that arrived during the flush supersedes the write.
	if _, cleared := w.clears[key.user]; cleared {
		return
	}
	w.dirty[key] = struct{}{}
}

// deferYear keeps a year that arrived after a reset-all pending behind the
// user's retried clear. Flush runs clears before writes.
func (w *MirrorWorker) deferYear(key yearKey) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirty[key] = struct{}{}
}

func (w *MirrorWorker) requeueClear(user string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clears[user] = struct{}{}
}

// Schedule runs Flush on a cron spec (e.g. "@every 1m" or "*/5 * * * *").
// Each run is bounded by timeout.
func (w *MirrorWorker) Schedule(spec string, timeout time.Duration) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := w.Flush(ctx); err != nil {
			w.logger.Warn("Scheduled mirror flush failed", log.FieldError, err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule mirror flush %q: %w", spec, err)
	}
	w.cron = c
	c.Start()
	w.logger.Info("Mirror flush scheduled", "schedule", spec, "concurrency", w.concurrency)
	return nil
}

// Stop halts the schedule and waits for a running flush to finish.
func (w *MirrorWorker) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
}
