package assistant

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Term maps a lower-case word as typed by the user to the label stored in
// the ledger.
type Term struct {
	Word  string `yaml:"word"`
	Label string `yaml:"label"`
}

// Keywords are the phrase lists that drive intent classification. Phrases
// match on whole words, case-insensitively.
type Keywords struct {
	Reset        []string `yaml:"reset"`
	Query        []string `yaml:"query"`
	IncomeQuery  []string `yaml:"income_query"`
	ExpenseQuery []string `yaml:"expense_query"`
	Expense      []string `yaml:"expense"`
	Income       []string `yaml:"income"`
	Recent       []string `yaml:"recent"`
}

// Vocabulary is the lookup table behind the field extractors and the
// classifier. It is English-only; plural handling is whatever the table
// lists.
type Vocabulary struct {
	Categories []Term   `yaml:"categories"`
	Sources    []Term   `yaml:"sources"`
	Keywords   Keywords `yaml:"keywords"`
}

// DefaultVocabulary returns the built-in table.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Categories: []Term{
			{"food", "Food"},
			{"bills", "Bill"},
			{"bill", "Bill"},
			{"transport", "Transport"},
			{"rent", "Rent"},
			{"shopping", "Shopping"},
			{"entertainment", "Entertainment"},
			{"groceries", "Grocery"},
			{"salary", "Salary"},
			{"freelance", "Freelance"},
			{"investments", "Investment"},
		},
		Sources: []Term{
			{"salary", "Salary"},
			{"freelance", "Freelance"},
			{"gift", "Gift"},
			{"investments", "Investments"},
		},
		Keywords: Keywords{
			Reset: []string{"reset", "clear chat", "delete history", "start over"},
			Query: []string{
				"summary", "balance", "total", "how much", "spent on", "how much i spent",
				"top spending", "top expense", "breakdown", "expense total", "income total",
				"explain my incomes", "explain my income", "received total",
				"expence", "expences", "compare",
			},
			IncomeQuery:  []string{"income", "incomes", "earned", "received", "explain my incomes", "explain my income"},
			ExpenseQuery: []string{"expense", "expenses", "expence", "expences", "spent", "spend", "spending"},
			Expense:      []string{"spent", "bought", "paid", "expense", "purchase", "paid for", "expence"},
			Income:       []string{"earned", "got", "received", "income", "salary", "i got", "paid me"},
			Recent:       []string{"recent", "last transactions", "show transactions", "recent tx", "last 5"},
		},
	}
}

// LoadVocabulary reads a YAML table. Sections the file leaves out keep
// their defaults.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary: %w", err)
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	v.fillDefaults()
	if err := v.Validate(); err != nil {
		return Vocabulary{}, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

func (v *Vocabulary) fillDefaults() {
	d := DefaultVocabulary()
	if len(v.Categories) == 0 {
		v.Categories = d.Categories
	}
	if len(v.Sources) == 0 {
		v.Sources = d.Sources
	}
	k := &v.Keywords
	for _, pair := range []struct {
		dst *[]string
		def []string
	}{
		{&k.Reset, d.Keywords.Reset},
		{&k.Query, d.Keywords.Query},
		{&k.IncomeQuery, d.Keywords.IncomeQuery},
		{&k.ExpenseQuery, d.Keywords.ExpenseQuery},
		{&k.Expense, d.Keywords.Expense},
		{&k.Income, d.Keywords.Income},
		{&k.Recent, d.Keywords.Recent},
	} {
		if len(*pair.dst) == 0 {
			*pair.dst = pair.def
		}
	}
	for i := range v.Categories {
		v.Categories[i].normalize()
	}
	for i := range v.Sources {
		v.Sources[i].normalize()
	}
}

func (t *Term) normalize() {
	t.Word = strings.ToLower(strings.TrimSpace(t.Word))
	t.Label = strings.TrimSpace(t.Label)
	if t.Label == "" {
		t.Label = titleCase(t.Word)
	}
}

func (v Vocabulary) Validate() error {
	for _, t := range append(append([]Term{}, v.Categories...), v.Sources...) {
		if t.Word == "" {
			return fmt.Errorf("term with label %q has no word", t.Label)
		}
	}
	return nil
}

// lookup returns the label of the first term, in table order, whose word
// occurs in the tokenized text.
func lookup(terms []Term, toks []string) (string, bool) {
	for _, t := range terms {
		if hasPhrase(toks, t.Word) {
			return t.Label, true
		}
	}
	return "", false
}
