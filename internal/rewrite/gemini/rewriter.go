// Package gemini rewrites verified facts into short prose with a Gemini
// model. It is optional: the assistant falls back to the facts when the
// rewrite fails.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"fintrack/internal/log"
)

const DefaultModel = "gemini-2.5-flash"

var errEmptyResponse = errors.New("empty response from model")

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Rewriter struct {
	models generator
	model  string
	logger *log.Logger
}

// New creates a rewriter backed by the Gemini API.
func New(ctx context.Context, apiKey, model string, logger *log.Logger) (*Rewriter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: missing API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newRewriter(client.Models, model, logger), nil
}

func newRewriter(models generator, model string, logger *log.Logger) *Rewriter {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Rewriter{models: models, model: model, logger: logger.WithComponent(log.ComponentRewrite)}
}

// Rewrite asks the model for one to three sentences built only from facts.
func (r *Rewriter) Rewrite(ctx context.Context, query, facts string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: BuildPrompt(query, facts)}},
		},
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.2),
		MaxOutputTokens: 256,
	}

	resp, err := r.models.GenerateContent(ctx, r.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errEmptyResponse
	}
	r.logger.DebugContext(ctx, "Rewrote facts", log.FieldOperation, log.OpRewrite, "model", r.model)
	return text, nil
}

// BuildPrompt embeds the user's question and the verified facts.
func BuildPrompt(query, facts string) string {
	var b strings.Builder
	b.WriteString("You are a concise personal finance assistant.\n")
	b.WriteString("The user asked:\n")
	fmt.Fprintf(&b, "%q\n\n", query)
	b.WriteString("Here is the verified data (from the user's database). ")
	b.WriteString("Use this exact data to answer, do NOT invent numbers or facts:\n")
	b.WriteString(facts)
	b.WriteString("\n\nProduce 1-3 short sentences referencing the verified numbers.\n")
	return b.String()
}
