package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// WithTx returns Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Expense is a row of the expenses table.
type Expense struct {
	ID        int64
	Title     string
	Category  string
	CostCents int64
	Store     string
	Date      string
	Currency  string
}

const expenseColumns = `id, title, category, cost_cents, store, date, currency`

const createExpense = `-- name: CreateExpense :one
INSERT INTO expenses (title, category, cost_cents, store, date, currency)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + expenseColumns

type CreateExpenseParams struct {
	Title     string
	Category  string
	CostCents int64
	Store     string
	Date      string
	Currency  string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.Title,
		arg.Category,
		arg.CostCents,
		arg.Store,
		arg.Date,
		arg.Currency,
	)
	return scanExpense(row)
}

const updateExpense = `-- name: UpdateExpense :execrows
UPDATE expenses
SET title = ?, category = ?, cost_cents = ?, store = ?, date = ?, currency = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

type UpdateExpenseParams struct {
	ID        int64
	Title     string
	Category  string
	CostCents int64
	Store     string
	Date      string
	Currency  string
}

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateExpense,
		arg.Title,
		arg.Category,
		arg.CostCents,
		arg.Store,
		arg.Date,
		arg.Currency,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteExpense = `-- name: DeleteExpense :execrows
DELETE FROM expenses WHERE id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpense, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getExpense = `-- name: GetExpense :one
SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getExpense, id))
}

const listExpenses = `-- name: ListExpenses :many
SELECT ` + expenseColumns + ` FROM expenses
ORDER BY date DESC, id DESC`

func (q *Queries) ListExpenses(ctx context.Context) ([]Expense, error) {
	return q.queryExpenses(ctx, listExpenses)
}

const listExpensesByCategory = `-- name: ListExpensesByCategory :many
SELECT ` + expenseColumns + ` FROM expenses
WHERE category = ?
ORDER BY date DESC, id DESC`

func (q *Queries) ListExpensesByCategory(ctx context.Context, category string) ([]Expense, error) {
	return q.queryExpenses(ctx, listExpensesByCategory, category)
}

const findExpensesByTitle = `-- name: FindExpensesByTitle :many
SELECT ` + expenseColumns + ` FROM expenses
WHERE title LIKE ?
ORDER BY date DESC, id DESC`

func (q *Queries) FindExpensesByTitle(ctx context.Context, pattern string) ([]Expense, error) {
	return q.queryExpenses(ctx, findExpensesByTitle, pattern)
}

const listCategories = `-- name: ListCategories :many
SELECT DISTINCT category FROM expenses ORDER BY category`

func (q *Queries) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		items = append(items, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPreference = `-- name: GetPreference :one
SELECT value FROM preferences WHERE key = ?`

func (q *Queries) GetPreference(ctx context.Context, key string) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx, getPreference, key).Scan(&value)
	return value, err
}

const upsertPreference = `-- name: UpsertPreference :exec
INSERT INTO preferences (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertPreference(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, upsertPreference, key, value)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (Expense, error) {
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Category,
		&i.CostCents,
		&i.Store,
		&i.Date,
		&i.Currency,
	)
	return i, err
}

func (q *Queries) queryExpenses(ctx context.Context, query string, args ...any) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Expense{}
	for rows.Next() {
		i, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
