// Package session keeps the per-user chat state the assistant needs between
// turns: at most one pending add action and the conversation log. State is
// process-lifetime only.
package session

import (
	"time"

	"fintrack/internal/core"
)

// Role identifies the author of a conversation entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one line of the conversation log.
type Entry struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// PendingAction is a partially specified add-income or add-expense request
// waiting for the fields it still lacks. Unresolved optional fields are nil.
type PendingAction struct {
	Kind        core.TransactionType
	Amount      *core.Money
	Category    *string
	Source      *string
	Date        *core.Date
	Description string
	Notes       string
	Method      string
}

// Clone returns a deep copy so callers never share pointers with the store.
func (p PendingAction) Clone() PendingAction {
	out := p
	if p.Amount != nil {
		v := *p.Amount
		out.Amount = &v
	}
	if p.Category != nil {
		v := *p.Category
		out.Category = &v
	}
	if p.Source != nil {
		v := *p.Source
		out.Source = &v
	}
	if p.Date != nil {
		v := *p.Date
		out.Date = &v
	}
	return out
}

// PendingStore holds zero or one pending action per user.
type PendingStore interface {
	GetPending(userID int64) (PendingAction, bool)
	PutPending(userID int64, p PendingAction)
	DeletePending(userID int64)
}

// ConversationLog is an append-only per-user history.
type ConversationLog interface {
	// Append adds an entry unless it repeats the immediately preceding one
	// (same role and text). It reports whether the entry was stored.
	Append(userID int64, role Role, text string) bool
	History(userID int64) []Entry
	Clear(userID int64)
}

// Resetter is implemented by stores that hold both the pending action and
// the history and can drop them under one lock.
type Resetter interface {
	Reset(userID int64)
}
