// Package memory is an in-process exporter used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows [][]any
}

var _ sheets.Exporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// Export stores the rendered row and returns a synthetic row reference.
func (e *Exporter) Export(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = append(e.rows, sheets.Row(t))
	return fmt.Sprintf("mem:%d", len(e.rows)), nil
}

// Rows returns a copy of the exported rows in export order.
func (e *Exporter) Rows() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]any, len(e.rows))
	copy(out, e.rows)
	return out
}
