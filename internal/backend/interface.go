package backend

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/ledger"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result is a ready ledger store plus the optional event publisher.
type Result struct {
	Store ledger.Store
	// Publisher is nil when no broker is configured or it was unreachable.
	Publisher *amqp.Client
	// Ready is nil for stores that cannot be down.
	Ready   Pinger
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

type Factory interface {
	CreateBackend(ctx context.Context, cfg Config) (*Result, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string

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
	return bt == SQLiteBackend || bt == MemoryBackend
}
