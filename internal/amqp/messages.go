package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"fintrack/internal/core"
)

// LedgerEvent announces a committed income or expense. It carries only
// identifiers; consumers load the record from the ledger.
type LedgerEvent struct {
	Kind          core.TransactionType `json:"kind"`
	ID            int64                `json:"id"`
	UserID        int64                `json:"user_id"`
	MirrorWritten bool                 `json:"mirror_written"`
	Timestamp     time.Time            `json:"timestamp"`
}

var errInvalidEvent = errors.New("invalid ledger event")

func NewLedgerEvent(kind core.TransactionType, id, userID int64, mirrorWritten bool) *LedgerEvent {
	return &LedgerEvent{
		Kind:          kind,
		ID:            id,
		UserID:        userID,
		MirrorWritten: mirrorWritten,
		Timestamp:     time.Now(),
	}
}

// Ref returns the ledger row the event points at.
func (m *LedgerEvent) Ref() core.SourceRef {
	return core.SourceRef{Type: m.Kind, ID: m.ID}
}

func (m *LedgerEvent) Validate() error {
	if !m.Kind.Valid() || m.ID <= 0 || m.UserID <= 0 {
		return errInvalidEvent
	}
	return nil
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and validates a delivery body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
