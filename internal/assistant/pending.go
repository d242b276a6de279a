package assistant

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/session"
)

const (
	defaultMethod         = "Unknown"
	defaultIncomeCategory = "Work"
	defaultIncomeSource   = "Other"
	maxNoteLength         = 200
)

// missingFields lists the required fields p still lacks, in the order they
// are asked for.
func missingFields(p session.PendingAction) []string {
	var missing []string
	if p.Amount == nil {
		missing = append(missing, "amount")
	}
	switch p.Kind {
	case core.TypeExpense:
		if p.Category == nil {
			missing = append(missing, "category")
		}
	case core.TypeIncome:
		if p.Source == nil && p.Category == nil {
			missing = append(missing, "source/category")
		}
	}
	return missing
}

// merge folds the fields found in text into p. Fields that matter for p's
// kind are overwritten; the others only fill gaps.
func (a *Assistant) merge(p *session.PendingAction, text string, today core.Date) {
	x := a.extractor
	if amt, ok := x.Amount(text); ok {
		p.Amount = &amt
	}

	cat, hasCat := x.Category(text)
	src, hasSrc := x.Source(text)
	switch p.Kind {
	case core.TypeExpense:
		if hasCat {
			p.Category = &cat
		}
		if hasSrc && p.Source == nil {
			p.Source = &src
		}
	case core.TypeIncome:
		if hasSrc {
			p.Source = &src
		}
		if hasCat && p.Category == nil {
			p.Category = &cat
		}
	}

	if d, ok := x.Date(text, today); ok {
		p.Date = &d
	}
}

// followUp advances the user's pending action with text. It commits and
// clears the action once complete, otherwise stores it and asks again.
func (a *Assistant) followUp(ctx context.Context, userID int64, p session.PendingAction, text string, today core.Date) string {
	a.merge(&p, text, today)

	if missing := missingFields(p); len(missing) > 0 {
		a.pending.PutPending(userID, p)
		return fmt.Sprintf("I still need %s to add this %s. Please tell me.", strings.Join(missing, ", "), p.Kind)
	}

	a.pending.DeletePending(userID)
	return a.commit(ctx, userID, p, today)
}

// open starts a pending action for an add intent that lacks fields.
func (a *Assistant) open(userID int64, p session.PendingAction) string {
	a.pending.PutPending(userID, p)
	missing := strings.Join(missingFields(p), ", ")
	if p.Kind == core.TypeIncome {
		return fmt.Sprintf("I can add this income. I still need %s. Please reply with the missing info (e.g., 'from Salary').", missing)
	}
	return fmt.Sprintf("I can add this expense. I still need %s. Please reply with the missing info (e.g., '₹500 on Food today').", missing)
}

// commit writes a complete action through the record service.
func (a *Assistant) commit(ctx context.Context, userID int64, p session.PendingAction, today core.Date) string {
	date := today
	if p.Date != nil {
		date = *p.Date
	}

	switch p.Kind {
	case core.TypeExpense:
		method := p.Method
		if method == "" {
			method = defaultMethod
		}
		e := core.Expense{
			UserID:      userID,
			Category:    *p.Category,
			Description: truncate(p.Description, maxNoteLength),
			Amount:      *p.Amount,
			Date:        date,
			Method:      method,
		}
		if _, err := a.records.CreateExpense(ctx, e); err != nil {
			a.logger.ErrorContext(ctx, "Adding expense failed", log.FieldUserID, userID, log.FieldError, err)
			return fmt.Sprintf("Error adding expense: %v", err)
		}
		return fmt.Sprintf("✅ Added expense: %s%s under '%s' on %s.", core.CurrencySymbol, e.Amount, e.Category, date)

	case core.TypeIncome:
		source := defaultIncomeSource
		switch {
		case p.Source != nil:
			source = *p.Source
		case p.Category != nil:
			source = *p.Category
		}
		category := defaultIncomeCategory
		if p.Category != nil {
			category = *p.Category
		}
		in := core.Income{
			UserID:   userID,
			Source:   source,
			Amount:   *p.Amount,
			Date:     date,
			Category: category,
			Notes:    truncate(p.Notes, maxNoteLength),
		}
		if _, err := a.records.CreateIncome(ctx, in); err != nil {
			a.logger.ErrorContext(ctx, "Adding income failed", log.FieldUserID, userID, log.FieldError, err)
			return fmt.Sprintf("Error adding income: %v", err)
		}
		return fmt.Sprintf("✅ Added income: %s%s from '%s' on %s.", core.CurrencySymbol, in.Amount, in.Source, date)
	}

	return fmt.Sprintf("Error adding record: unknown kind %q", p.Kind)
}
