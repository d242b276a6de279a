package assistant

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"fintrack/internal/core"
)

var (
	isoDateRe   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	slashDateRe = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	amountRe    = regexp.MustCompile(`\d+(?:\.\d+)?`)
	onRe        = regexp.MustCompile(`(?i)\b(?:on|for|in)\s+`)
	fromRe      = regexp.MustCompile(`(?i)\bfrom\s+`)
	wordsRe     = regexp.MustCompile(`^[a-zA-Z][a-zA-Z ]*`)
	deadlineRe  = regexp.MustCompile(`(?i)\b(?:in|within)\s+\d+\s+(?:day|week|month)`)

	categoryLeadRe = regexp.MustCompile(`(?i)\b(?:on|for)\s+`)
	wordRe         = regexp.MustCompile(`[a-zA-Z]+`)
)

// Words that end an "on X" / "from X" phrase.
var phraseStops = map[string]bool{
	"today": true, "yesterday": true, "tomorrow": true, "tonight": true,
	"last": true, "this": true, "next": true, "ago": true,
	"day": true, "week": true, "month": true, "year": true,
	"on": true, "at": true, "for": true, "in": true, "from": true, "to": true,
	"of": true, "by": true, "via": true, "using": true, "with": true, "and": true,
	"i": true, "me": true, "my": true, "we": true, "total": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

var phraseArticles = map[string]bool{"the": true, "a": true, "an": true, "my": true, "some": true}

// Extractor pulls amount, category, source and date out of free text.
// Every method is pure given its inputs and reports absence with ok=false.
type Extractor struct {
	vocab  Vocabulary
	parser *when.Parser
}

func NewExtractor(vocab Vocabulary) *Extractor {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Extractor{vocab: vocab, parser: w}
}

// Amount returns the first positive number in text. Thousands separators
// are ignored and date literals are skipped.
func (x *Extractor) Amount(text string) (core.Money, bool) {
	text = isoDateRe.ReplaceAllString(text, " ")
	text = slashDateRe.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, ",", "")
	for _, m := range amountRe.FindAllString(text, -1) {
		if money, err := core.ParseMoney(m); err == nil {
			return money, true
		}
	}
	return core.Money{}, false
}

// Category prefers an explicit "on/for/in X" phrase, then the vocabulary.
func (x *Extractor) Category(text string) (string, bool) {
	if label, ok := phraseLabel(onRe, text, x.vocab.Categories); ok {
		return label, true
	}
	return lookup(x.vocab.Categories, tokenize(text))
}

// Source prefers an explicit "from X" phrase, then the vocabulary.
func (x *Extractor) Source(text string) (string, bool) {
	if label, ok := phraseLabel(fromRe, text, x.vocab.Sources); ok {
		return label, true
	}
	return lookup(x.vocab.Sources, tokenize(text))
}

// Date resolves today/yesterday, then a YYYY-MM-DD literal, then
// natural-language dates biased to the past. A literal that is not a real
// calendar date means no date.
func (x *Extractor) Date(text string, today core.Date) (core.Date, bool) {
	toks := tokenize(text)
	switch {
	case hasPhrase(toks, "yesterday"):
		return today.AddDays(-1), true
	case hasPhrase(toks, "today"):
		return today, true
	}

	if lits := isoDateRe.FindAllString(text, -1); len(lits) > 0 {
		for _, m := range lits {
			if d, err := core.ParseDate(m); err == nil {
				return d, true
			}
		}
		return core.Date{}, false
	}

	base := today.Time.Add(12 * time.Hour)
	r, err := x.parser.Parse(maskCategoryPhrases(text), base)
	if err != nil || r == nil {
		return core.Date{}, false
	}
	d := core.DateOf(r.Time)
	if today.Before(d) && !wantsFuture(text, toks) {
		if d.Before(today.AddDays(8)) {
			d = d.AddDays(-7)
		} else {
			d = core.DateOf(d.Time.AddDate(-1, 0, 0))
		}
	}
	return d, true
}

// maskCategoryPhrases blanks the words of "on/for X" phrases so names like
// "sun glasses" or "may day" are not read as weekdays or months. A phrase
// followed by a number ("on may 5") is left alone.
func maskCategoryPhrases(text string) string {
	buf := []byte(text)
	for _, loc := range categoryLeadRe.FindAllStringIndex(text, -1) {
		rest := text[loc[1]:]
		start, end, ok := phraseSpan(wordsRe.FindString(rest))
		if !ok {
			continue
		}
		if next := strings.TrimLeft(rest[end:], " "); next != "" && next[0] >= '0' && next[0] <= '9' {
			continue
		}
		for i := loc[1] + start; i < loc[1]+end; i++ {
			buf[i] = ' '
		}
	}
	return string(buf)
}

// phraseSpan returns the byte span of the words trimPhrase would keep.
func phraseSpan(raw string) (start, end int, ok bool) {
	words := wordRe.FindAllStringIndex(raw, -1)
	i := 0
	for i < len(words) && phraseArticles[strings.ToLower(raw[words[i][0]:words[i][1]])] {
		i++
	}
	j := i
	for j < len(words) && !phraseStops[strings.ToLower(raw[words[j][0]:words[j][1]])] {
		j++
	}
	if j == i {
		return 0, 0, false
	}
	return words[i][0], words[j-1][1], true
}

func wantsFuture(text string, toks []string) bool {
	return hasAny(toks, []string{"tomorrow", "next"}) || deadlineRe.MatchString(text)
}

// phraseLabel returns the first non-empty phrase introduced by re, mapped
// through the vocabulary when it names a known term, title-cased otherwise.
func phraseLabel(re *regexp.Regexp, text string, terms []Term) (string, bool) {
	for _, loc := range re.FindAllStringIndex(text, -1) {
		phrase := trimPhrase(wordsRe.FindString(text[loc[1]:]))
		if phrase == "" {
			continue
		}
		for _, t := range terms {
			if t.Word == phrase {
				return t.Label, true
			}
		}
		return titleCase(phrase), true
	}
	return "", false
}

func trimPhrase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for len(words) > 0 && phraseArticles[words[0]] {
		words = words[1:]
	}
	for i, w := range words {
		if phraseStops[w] {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}
