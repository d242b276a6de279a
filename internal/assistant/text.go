package assistant

import (
	"strings"
	"unicode"
)

// tokenize lower-cases text and splits it into letter/digit runs.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// phraseAt reports whether phrase (already tokenized) starts at toks[i].
func phraseAt(toks, phrase []string, i int) bool {
	if len(phrase) == 0 || i+len(phrase) > len(toks) {
		return false
	}
	for j, p := range phrase {
		if toks[i+j] != p {
			return false
		}
	}
	return true
}

// hasPhrase reports whether phrase occurs in toks as whole words.
func hasPhrase(toks []string, phrase string) bool {
	p := tokenize(phrase)
	for i := range toks {
		if phraseAt(toks, p, i) {
			return true
		}
	}
	return false
}

func hasAny(toks []string, phrases []string) bool {
	for _, p := range phrases {
		if hasPhrase(toks, p) {
			return true
		}
	}
	return false
}

// mask blanks every occurrence of the given phrases so their words no
// longer match shorter keywords.
func mask(toks []string, phrases []string) []string {
	out := append([]string(nil), toks...)
	for _, phrase := range phrases {
		p := tokenize(phrase)
		for i := range out {
			if phraseAt(out, p, i) {
				for j := range p {
					out[i+j] = ""
				}
			}
		}
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	end := 0
	for i := range s {
		if i > n {
			break
		}
		end = i
	}
	return s[:end]
}
