// Package sheets declares the spreadsheet export port.
package sheets

import (
	"context"
	"time"

	"expensetracker/internal/amqp"
)

// EventAppender writes one row per expense change event and returns a
// reference to the written range.
type EventAppender interface {
	AppendEvent(ctx context.Context, ev *amqp.ExpenseEvent) (rowRef string, err error)
}

// Header is the column layout of exported rows.
var Header = []string{"Timestamp", "Event", "ID", "Title", "Category", "Cost", "Currency", "Store", "Date"}

// Row renders ev in Header order.
func Row(ev *amqp.ExpenseEvent) []any {
	e := ev.Expense
	return []any{
		ev.Timestamp.UTC().Format(time.RFC3339),
		string(ev.Type),
		e.ID,
		e.Title,
		e.Category,
		e.Cost,
		e.Currency,
		e.Store,
		e.Date,
	}
}
