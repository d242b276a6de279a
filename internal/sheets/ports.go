// Package sheets declares the spreadsheet export port used by the worker.
package sheets

import (
	"context"
	"strconv"

	"fintrack/internal/core"
)

// Exporter appends a transaction row to an external sheet and returns a
// reference to the written range.
type Exporter interface {
	Export(ctx context.Context, t core.Transaction) (rowRef string, err error)
}

// Header is the column layout of an exported row.
var Header = []string{"Date", "Type", "Category", "Description", "Amount", "User", "Source"}

// Row renders t in Header order. Amounts are signed, expenses negative.
func Row(t core.Transaction) []any {
	return []any{
		t.Date.String(),
		string(t.Type),
		t.Category,
		t.Description,
		t.Signed().Float(),
		t.UserID,
		SourceLabel(core.SourceRef{Type: t.Type, ID: t.SourceID}),
	}
}

// SourceLabel identifies the ledger row behind an exported line.
func SourceLabel(ref core.SourceRef) string {
	return string(ref.Type) + ":" + strconv.FormatInt(ref.ID, 10)
}
