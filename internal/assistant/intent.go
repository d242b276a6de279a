package assistant

// IntentKind is the coarse routing decision for one chat turn.
type IntentKind int

const (
	IntentUnknown IntentKind = iota
	IntentReset
	IntentQuery
	IntentAddExpense
	IntentAddIncome
	IntentShowRecent
)

func (k IntentKind) String() string {
	switch k {
	case IntentReset:
		return "reset"
	case IntentQuery:
		return "query"
	case IntentAddExpense:
		return "add_expense"
	case IntentAddIncome:
		return "add_income"
	case IntentShowRecent:
		return "show_recent"
	default:
		return "unknown"
	}
}

// QueryKind narrows IntentQuery.
type QueryKind int

const (
	QuerySummary QueryKind = iota
	QueryCategorySpend
	QueryIncomeTotal
)

func (q QueryKind) String() string {
	switch q {
	case QueryCategorySpend:
		return "category_spend"
	case QueryIncomeTotal:
		return "income_total"
	default:
		return "summary"
	}
}

// Intent is the result of Classify. Category is set for QueryCategorySpend
// when the text names one; an empty Category means the user must be asked.
type Intent struct {
	Kind     IntentKind
	Query    QueryKind
	Category string
}

func (i Intent) String() string {
	if i.Kind == IntentQuery {
		return i.Kind.String() + ":" + i.Query.String()
	}
	return i.Kind.String()
}

// Classifier is an ordered keyword rule list; the first rule that matches
// wins.
type Classifier struct {
	vocab     Vocabulary
	extractor *Extractor
}

func NewClassifier(vocab Vocabulary, extractor *Extractor) *Classifier {
	return &Classifier{vocab: vocab, extractor: extractor}
}

// Classify maps text to an intent. Pending follow-ups are not its concern;
// the assistant offers text to the pending action before classifying.
func (c *Classifier) Classify(text string) Intent {
	k := c.vocab.Keywords
	toks := tokenize(text)

	if hasAny(toks, k.Reset) {
		return Intent{Kind: IntentReset}
	}

	if hasAny(toks, k.Query) {
		cat, hasCat := c.extractor.Category(text)
		// Questions naming both sides get the full summary.
		income := hasAny(toks, k.IncomeQuery) && !hasAny(toks, k.ExpenseQuery)
		if hasPhrase(toks, "spent on") || (hasPhrase(toks, "how much") && hasCat && !income) {
			return Intent{Kind: IntentQuery, Query: QueryCategorySpend, Category: cat}
		}
		if income {
			return Intent{Kind: IntentQuery, Query: QueryIncomeTotal}
		}
		return Intent{Kind: IntentQuery, Query: QuerySummary}
	}

	// "paid me" is income; its "paid" must not read as an expense.
	if hasAny(mask(toks, multiWord(k.Income)), k.Expense) {
		return Intent{Kind: IntentAddExpense}
	}
	if hasAny(toks, k.Income) {
		return Intent{Kind: IntentAddIncome}
	}
	if hasAny(toks, k.Recent) {
		return Intent{Kind: IntentShowRecent}
	}
	return Intent{Kind: IntentUnknown}
}

func multiWord(phrases []string) []string {
	var out []string
	for _, p := range phrases {
		if len(tokenize(p)) > 1 {
			out = append(out, p)
		}
	}
	return out
}
