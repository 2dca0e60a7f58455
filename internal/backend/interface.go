package backend

import (
	"context"

	"haushaltskasse/internal/amqp"
	"haushaltskasse/internal/storage"
)

// CleanupFunc releases the resources of a backend.
type CleanupFunc func() error

// BackendResult is a ready record store plus the optional change event client.
type BackendResult struct {
	Store storage.Store
	// Events is nil when AMQP is not configured or unreachable.
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory specific: optional backup document loaded at startup
	SeedFile string

	// Change events, shared by every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
