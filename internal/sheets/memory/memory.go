package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"budgetbook/internal/core"
	ports "budgetbook/internal/sheets"
)

var _ ports.YearMirror = (*Mirror)(nil)

// Mirror keeps written year overviews in memory. Used in development and tests.
type Mirror struct {
	mu     sync.Mutex
	years  map[string]map[int][]core.MonthSummary
	writes int
}

func New() *Mirror {
	return &Mirror{years: make(map[string]map[int][]core.MonthSummary)}
}

// WriteYear stores the months and returns a synthetic sheet reference.
func (m *Mirror) WriteYear(_ context.Context, userID string, year int, months []core.MonthSummary) (string, error) {
	if userID == "" {
		return "", core.ErrMissingUser
	}
	if err := core.ValidateYear(year); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	byYear, ok := m.years[userID]
	if !ok {
		byYear = make(map[int][]core.MonthSummary)
		m.years[userID] = byYear
	}
	byYear[year] = append([]core.MonthSummary(nil), months...)
	m.writes++
	return fmt.Sprintf("mem:%s:%d", userID, year), nil
}

// ClearUser drops every year written for userID.
func (m *Mirror) ClearUser(_ context.Context, userID string) error {
	if userID == "" {
		return core.ErrMissingUser
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.years, userID)
	return nil
}

// Year returns the last written overview for (userID, year).
func (m *Mirror) Year(userID string, year int) ([]core.MonthSummary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	months, ok := m.years[userID][year]
	if !ok {
		return nil, false
	}
	return append([]core.MonthSummary(nil), months...), true
}

// Years lists the years mirrored for userID in ascending order.
func (m *Mirror) Years(userID string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, 0, len(m.years[userID]))
	for y := range m.years[userID] {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// Writes counts successful WriteYear calls.
func (m *Mirror) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
