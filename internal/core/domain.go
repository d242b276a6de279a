package core

import (
	"errors"
	"strings"
	"time"
)

// CurrencySymbol prefixes every rendered amount.
const CurrencySymbol = "₹"

// DateLayout is the calendar-day format used in storage, JSON and replies.
const DateLayout = "2006-01-02"

const maxTextLength = 200

type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

type (
	// Date is a calendar day at UTC midnight.
	Date struct {
		time.Time
	}

	Expense struct {
		ID          int64  `json:"id"`
		UserID      int64  `json:"user_id"`
		Category    string `json:"category"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		Date        Date   `json:"date"`
		Method      string `json:"method"`
	}

	Income struct {
		ID       int64  `json:"id"`
		UserID   int64  `json:"user_id"`
		Source   string `json:"source"`
		Amount   Money  `json:"amount"`
		Date     Date   `json:"date"`
		Category string `json:"category"`
		Notes    string `json:"notes"`
	}

	// Transaction is a row of the unified mirror table. SourceID points
	// back at the primary expense or income row of the same Type.
	Transaction struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"user_id"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		Date        Date            `json:"date"`
		SourceID    int64           `json:"source_id,omitempty"`
	}

	User struct {
		ID           int64  `json:"id"`
		Name         string `json:"name"`
		Email        string `json:"email"`
		PasswordHash string `json:"-"`
	}

	// SourceRef identifies a primary ledger row.
	SourceRef struct {
		Type TransactionType
		ID   int64
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidUser     = errors.New("invalid user id")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptySource     = errors.New("empty source")
	ErrEmptyName       = errors.New("empty name")
	ErrTextTooLong     = errors.New("text too long (max 200 characters)")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrMissingPassword = errors.New("missing password")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current calendar day in local time.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD literal.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays shifts the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (e Expense) Validate() error {
	if e.UserID <= 0 {
		return ErrInvalidUser
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(e.Description) > maxTextLength || len(e.Category) > maxTextLength {
		return ErrTextTooLong
	}
	return nil
}

// Mirror returns the transaction row shadowing this expense. The mirror
// description falls back to the payment method.
func (e Expense) Mirror() Transaction {
	desc := e.Description
	if strings.TrimSpace(desc) == "" {
		desc = e.Method
	}
	return Transaction{
		UserID:      e.UserID,
		Type:        TypeExpense,
		Category:    e.Category,
		Description: desc,
		Amount:      e.Amount,
		Date:        e.Date,
		SourceID:    e.ID,
	}
}

func (i Income) Validate() error {
	if i.UserID <= 0 {
		return ErrInvalidUser
	}
	if strings.TrimSpace(i.Source) == "" {
		return ErrEmptySource
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if len(i.Notes) > maxTextLength || len(i.Source) > maxTextLength {
		return ErrTextTooLong
	}
	return nil
}

// Mirror returns the transaction row shadowing this income. The mirror
// description falls back to the source.
func (i Income) Mirror() Transaction {
	desc := i.Notes
	if strings.TrimSpace(desc) == "" {
		desc = i.Source
	}
	return Transaction{
		UserID:      i.UserID,
		Type:        TypeIncome,
		Category:    i.Category,
		Description: desc,
		Amount:      i.Amount,
		Date:        i.Date,
		SourceID:    i.ID,
	}
}

func (t Transaction) Validate() error {
	if t.UserID <= 0 {
		return ErrInvalidUser
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return t.Date.Validate()
}

// Signed returns the amount with expenses negated.
func (t Transaction) Signed() Money {
	if t.Type == TypeExpense {
		return Money{Cents: -t.Amount.Cents}
	}
	return t.Amount
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	if u.PasswordHash == "" {
		return ErrMissingPassword
	}
	return nil
}
