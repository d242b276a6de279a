package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/log"
)

const (
	rewriteHint      = "(Set GEMINI_API_KEY in .env to get a friendlier rewrite.)"
	noteEmptyRewrite = "(LLM rewrite failed: empty response)"
	noteBadFigures   = "(LLM rewrite discarded: introduced unverified figures)"
)

// Rewriter turns a verified facts block into friendlier prose. It must not
// change the figures; Composer checks that it did not.
type Rewriter interface {
	Rewrite(ctx context.Context, query, facts string) (string, error)
}

// Composer produces the reply for a facts block, through the rewriter when
// one is configured. The facts block is always the fallback.
type Composer struct {
	rewriter Rewriter
	timeout  time.Duration
	logger   *log.Logger
}

func NewComposer(r Rewriter, timeout time.Duration, logger *log.Logger) *Composer {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Composer{rewriter: r, timeout: timeout, logger: logger.WithComponent(log.ComponentRewrite)}
}

func (c *Composer) Enabled() bool { return c != nil && c.rewriter != nil }

// Compose returns the text shown to the user for facts.
func (c *Composer) Compose(ctx context.Context, query, facts string) string {
	if !c.Enabled() {
		return facts + "\n\n" + rewriteHint
	}

	start := time.Now()
	out, err := c.rewrite(ctx, query, facts)
	if err != nil {
		c.logger.WarnContext(ctx, "Rewrite failed, using verified facts",
			log.FieldOperation, log.OpRewrite,
			log.FieldError, err,
			log.FieldDuration, time.Since(start).Milliseconds())
		return fmt.Sprintf("%s\n\n(LLM rewrite failed: %v)", facts, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		c.logger.WarnContext(ctx, "Rewrite returned nothing, using verified facts",
			log.FieldOperation, log.OpRewrite)
		return facts + "\n\n" + noteEmptyRewrite
	}
	if bad := foreignFigures(out, facts); len(bad) > 0 {
		c.logger.WarnContext(ctx, "Rewrite introduced figures, using verified facts",
			log.FieldOperation, log.OpRewrite,
			"figures", bad)
		return facts + "\n\n" + noteBadFigures
	}
	return out
}

// rewrite runs the collaborator under the timeout and stops waiting once
// it expires, even if the collaborator ignores its context.
func (c *Composer) rewrite(ctx context.Context, query, facts string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := c.rewriter.Rewrite(ctx, query, facts)
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

var figureRe = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

func figures(s string) map[string]bool {
	out := make(map[string]bool)
	for _, m := range figureRe.FindAllString(s, -1) {
		d, err := decimal.NewFromString(strings.ReplaceAll(m, ",", ""))
		if err != nil {
			continue
		}
		out[d.String()] = true
	}
	return out
}

// foreignFigures lists the numbers in text that do not appear in facts.
func foreignFigures(text, facts string) []string {
	known := figures(facts)
	var bad []string
	for f := range figures(text) {
		if !known[f] {
			bad = append(bad, f)
		}
	}
	return bad
}
