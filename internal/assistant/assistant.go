// Package assistant implements the chat side of the tracker: it classifies
// a free-text turn, fills in add-income/add-expense requests over several
// turns, answers aggregate questions from the ledger and keeps the
// per-user conversation log.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/session"
)

// Status is the outcome reported with every reply.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

const (
	MsgReset       = "✅ Chat history and any pending actions have been reset."
	MsgAskCategory = "Which category would you like to check? (e.g., Food, Bills, Transport)"
)

// MsgCapabilities is the reply when no intent matches.
const MsgCapabilities = "I'm a personal finance assistant. I can help you with:\n" +
	"1. **Adding Data**: Say 'I spent ₹500 on Food' or 'Received salary of ₹50,000'.\n" +
	"2. **Checking Data**: Ask 'What is my balance?' or 'How much did I spend on Transport?' or 'Compare income and expenses'.\n" +
	"3. **Viewing History**: Say 'Show recent transactions.'\n" +
	"4. **Resetting**: Say 'Reset chat'."

const internalErrorPrefix = "Internal error during command execution: "

// Response is the result of one chat turn. ChartData is only set by the
// general summary.
type Response struct {
	Text      string             `json:"text"`
	ChartData map[string]float64 `json:"chart_data,omitempty"`
	Status    Status             `json:"status"`
}

// RecordCreator commits complete records. *services.RecordService
// satisfies it.
type RecordCreator interface {
	CreateExpense(ctx context.Context, e core.Expense) (services.Receipt, error)
	CreateIncome(ctx context.Context, in core.Income) (services.Receipt, error)
}

// Deps are the collaborators of an Assistant. Composer, Vocabulary, Now
// and Logger are optional.
type Deps struct {
	Ledger     ledger.Reader
	Records    RecordCreator
	Pending    session.PendingStore
	History    session.ConversationLog
	Composer   *Composer
	Vocabulary *Vocabulary
	Now        func() time.Time
	Logger     *log.Logger
}

type Assistant struct {
	ledger     ledger.Reader
	records    RecordCreator
	pending    session.PendingStore
	history    session.ConversationLog
	composer   *Composer
	extractor  *Extractor
	classifier *Classifier
	now        func() time.Time
	logger     *log.Logger
}

func New(d Deps) *Assistant {
	vocab := DefaultVocabulary()
	if d.Vocabulary != nil {
		vocab = *d.Vocabulary
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = log.Discard()
	}
	if d.Composer == nil {
		d.Composer = NewComposer(nil, 0, d.Logger)
	}

	x := NewExtractor(vocab)
	return &Assistant{
		ledger:     d.Ledger,
		records:    d.Records,
		pending:    d.Pending,
		history:    d.History,
		composer:   d.Composer,
		extractor:  x,
		classifier: NewClassifier(vocab, x),
		now:        d.Now,
		logger:     d.Logger.WithComponent(log.ComponentAssistant),
	}
}

// HandleQuery runs one chat turn for userID. It always returns a reply;
// failures inside the turn come back with StatusError.
func (a *Assistant) HandleQuery(ctx context.Context, userID int64, text string) (resp Response) {
	text = strings.TrimSpace(text)
	a.history.Append(userID, session.RoleUser, text)

	defer func() {
		if r := recover(); r != nil {
			resp = a.internalError(ctx, userID, fmt.Errorf("%v", r))
		}
	}()

	return a.route(ctx, userID, text)
}

func (a *Assistant) route(ctx context.Context, userID int64, text string) Response {
	today := core.DateOf(a.now())
	intent := a.classifier.Classify(text)

	// Reset wins over a pending action; its reply is not logged so the
	// history stays empty.
	if intent.Kind == IntentReset {
		a.ResetSession(userID)
		a.logTurn(ctx, userID, "reset", false)
		return Response{Text: MsgReset, Status: StatusOK}
	}

	if p, ok := a.pending.GetPending(userID); ok {
		a.logTurn(ctx, userID, "follow_up", true)
		return a.reply(userID, a.followUp(ctx, userID, p, text, today), nil)
	}

	a.logTurn(ctx, userID, intent.String(), false)

	switch intent.Kind {
	case IntentQuery:
		return a.answer(ctx, userID, text, intent)

	case IntentAddExpense:
		p := session.PendingAction{Kind: core.TypeExpense, Description: text}
		if amt, ok := a.extractor.Amount(text); ok {
			p.Amount = &amt
		}
		if cat, ok := a.extractor.Category(text); ok {
			p.Category = &cat
		}
		if d, ok := a.extractor.Date(text, today); ok {
			p.Date = &d
		}
		return a.reply(userID, a.commitOrOpen(ctx, userID, p, today), nil)

	case IntentAddIncome:
		p := session.PendingAction{Kind: core.TypeIncome, Notes: text}
		src, ok := a.extractor.Source(text)
		if !ok {
			src, ok = a.extractor.Category(text)
		}
		if ok {
			p.Source = &src
		}
		if amt, ok := a.extractor.Amount(text); ok {
			p.Amount = &amt
		}
		if d, ok := a.extractor.Date(text, today); ok {
			p.Date = &d
		}
		return a.reply(userID, a.commitOrOpen(ctx, userID, p, today), nil)

	case IntentShowRecent:
		return a.reply(userID, recentReply(a.recent(ctx, userID)), nil)
	}

	return a.reply(userID, MsgCapabilities, nil)
}

func (a *Assistant) commitOrOpen(ctx context.Context, userID int64, p session.PendingAction, today core.Date) string {
	if len(missingFields(p)) == 0 {
		return a.commit(ctx, userID, p, today)
	}
	return a.open(userID, p)
}

func (a *Assistant) answer(ctx context.Context, userID int64, text string, intent Intent) Response {
	switch intent.Query {
	case QueryCategorySpend:
		if intent.Category == "" {
			return a.reply(userID, MsgAskCategory, nil)
		}
		facts := categoryFacts(intent.Category, a.sumExpenses(ctx, userID, intent.Category))
		return a.reply(userID, a.composer.Compose(ctx, text, facts), nil)

	case QueryIncomeTotal:
		facts := incomeFacts(a.sumIncome(ctx, userID))
		return a.reply(userID, a.composer.Compose(ctx, text, facts), nil)
	}

	rows := a.breakdown(ctx, userID)
	s := core.NewSummary(a.sumIncome(ctx, userID), a.sumExpenses(ctx, userID, ""), rows)
	facts := summaryFacts(s, a.recent(ctx, userID))
	return a.reply(userID, a.composer.Compose(ctx, text, facts), s.ChartData())
}

func (a *Assistant) reply(userID int64, text string, chart map[string]float64) Response {
	a.history.Append(userID, session.RoleAssistant, text)
	return Response{Text: text, ChartData: chart, Status: StatusOK}
}

func (a *Assistant) internalError(ctx context.Context, userID int64, err error) Response {
	a.logger.ErrorContext(ctx, "Chat turn failed", log.FieldUserID, userID, log.FieldError, err)
	text := internalErrorPrefix + err.Error()
	a.history.Append(userID, session.RoleAssistant, text)
	return Response{Text: text, Status: StatusError}
}

func (a *Assistant) logTurn(ctx context.Context, userID int64, intent string, pending bool) {
	a.logger.DebugContext(ctx, "Routing chat turn",
		log.FieldOperation, log.OpClassify,
		log.FieldUserID, userID,
		log.FieldIntent, intent,
		"pending", pending)
}

// ChatHistory returns the user's conversation, oldest first.
func (a *Assistant) ChatHistory(userID int64) []session.Entry {
	return a.history.History(userID)
}

// ResetSession drops the pending action and the conversation of userID.
// Logout calls it too.
func (a *Assistant) ResetSession(userID int64) {
	if r, ok := a.pending.(session.Resetter); ok && any(a.pending) == any(a.history) {
		r.Reset(userID)
		return
	}
	a.pending.DeletePending(userID)
	a.history.Clear(userID)
}
