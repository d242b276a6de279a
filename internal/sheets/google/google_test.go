package google

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
)

func TestNewRequiresSpreadsheet(t *testing.T) {
	tests := []struct {
		name          string
		spreadsheetID string
		sheetName     string
	}{
		{"missing id", "  ", "Transactions"},
		{"missing sheet", "abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(context.Background(), tt.spreadsheetID, tt.sheetName, nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	if _, err := New(context.Background(), "abc", "Transactions", nil); err == nil {
		t.Fatal("expected credentials error")
	}
}

func TestExportWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "abc", sheetName: "Transactions"}
	tx := core.Transaction{
		UserID: 1, Type: core.TypeIncome, Category: "Work",
		Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 1, 1),
	}

	if _, err := c.Export(context.Background(), tx); !errors.Is(err, errNoService) {
		t.Fatalf("err = %v, want errNoService", err)
	}
	if _, err := c.Export(context.Background(), core.Transaction{}); err == nil {
		t.Fatal("invalid transaction accepted")
	}
	if err := c.EnsureHeader(context.Background()); !errors.Is(err, errNoService) {
		t.Fatalf("EnsureHeader err = %v", err)
	}
}
