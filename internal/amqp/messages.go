package amqp

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// EventKind names the ledger mutation an event reports.
type EventKind string

const (
	KindBudgetUpserted  EventKind = "budget.upserted"
	KindExpenseUpserted EventKind = "expense.upserted"
	KindScopeReset      EventKind = "scope.reset"
	KindAllReset        EventKind = "all.reset"
)

// LedgerEvent announces a committed ledger change. It carries keys only;
// consumers read current state from the ledger.
type LedgerEvent struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	UserID    string    `json:"user_id"`
	Year      int       `json:"year,omitempty"`
	Month     int       `json:"month,omitempty"`
	Day       int       `json:"day,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind EventKind, userID string, year, month, day int) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		UserID:    userID,
		Year:      year,
		Month:     month,
		Day:       day,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
