package backend

import (
	"context"

	"expensetracker/internal/core"
	"expensetracker/internal/ports"
	"expensetracker/internal/services"
)

// Store is what every storage backend provides: expenses and preferences.
type Store interface {
	ports.ExpenseStore
	ports.PreferenceStore
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the wired services and an optional cleanup function
type BackendResult struct {
	Store       Store
	Expenses    *services.ExpenseService
	Preferences *services.PreferenceService
	Cleanup     CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Change events; an empty URL disables publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	Currencies *core.CurrencyRegistry
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
