package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
)

type EventType string

const (
	EventCreated EventType = "expense.created"
	EventUpdated EventType = "expense.updated"
	EventDeleted EventType = "expense.deleted"
)

func (t EventType) Valid() bool {
	switch t {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	}
	return false
}

// ExpensePayload is the wire form of an expense. Cost carries the same value
// as CostCents in its canonical two-decimal text form.
type ExpensePayload struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	CostCents int64  `json:"cost_cents"`
	Cost      string `json:"cost"`
	Store     string `json:"store"`
	Date      string `json:"date"`
	Currency  string `json:"currency"`
}

// ExpenseEvent announces a change to an expense. For deletions Expense holds
// the last known state of the record.
type ExpenseEvent struct {
	ID        uuid.UUID      `json:"id"`
	Type      EventType      `json:"type"`
	Expense   ExpensePayload `json:"expense"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewExpenseEvent(t EventType, e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		ID:   uuid.New(),
		Type: t,
		Expense: ExpensePayload{
			ID:        e.ID,
			Title:     e.Title,
			Category:  e.Category,
			CostCents: e.Cost.Cents,
			Cost:      e.Cost.String(),
			Store:     e.Store,
			Date:      e.Date,
			Currency:  e.Currency,
		},
		Timestamp: time.Now().UTC(),
	}
}

// Core converts the payload back to a domain expense.
func (p ExpensePayload) Core() core.Expense {
	return core.Expense{
		ID:       p.ID,
		Title:    p.Title,
		Category: p.Category,
		Cost:     core.Money{Cents: p.CostCents},
		Store:    p.Store,
		Date:     p.Date,
		Currency: p.Currency,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and sanity checks an event.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == uuid.Nil {
		return nil, fmt.Errorf("event without id")
	}
	if !msg.Type.Valid() {
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	return &msg, nil
}
