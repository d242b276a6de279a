package backend

import (
	"context"
	"path/filepath"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/core"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown type", Config{Type: "sheets"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://localhost", AMQPExchange: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("nil config accepted")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "data/f.db", AMQPExchange: "e", AMQPQueue: "q"})
	if err != nil || cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "data/f.db" {
		t.Fatalf("FromAppConfig = %+v, %v", cfg, err)
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	mem, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil || mem.Store == nil || mem.Ready != nil || mem.Publisher != nil {
		t.Fatalf("memory backend = %+v, %v", mem, err)
	}
	if err := mem.Close(); err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	sql, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: dbPath})
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	defer sql.Close()
	if err := sql.Ready.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	id, err := sql.Store.InsertExpense(ctx, core.Expense{
		UserID: 1, Category: "Food", Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 1, 2), Method: "Cash",
	})
	if err != nil || id == 0 {
		t.Fatalf("InsertExpense = %d, %v", id, err)
	}
}
