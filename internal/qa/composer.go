// Package qa composes grounded answers from retrieved context chunks using
// the bound generation model.
package qa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/ziadkadry99/docchat/internal/llm"
)

const (
	defaultMaxTokens   = 1024
	defaultTemperature = 0.3
)

// Answer is the result of one grounded question.
type Answer struct {
	Question string
	// Context holds the chunks the answer was grounded on, best first.
	Context      []string
	Text         string
	Model        string
	Latency      time.Duration
	InputTokens  int
	OutputTokens int
	// EstimatedCost is in USD; zero for local or unpriced models.
	EstimatedCost float64
}

// SetUsage records the accounted model, token counts and cost.
func (a *Answer) SetUsage(u llm.Usage) {
	a.Model = u.Model
	a.InputTokens = u.InputTokens
	a.OutputTokens = u.OutputTokens
	a.EstimatedCost = u.Cost
}

// NotFound reports whether the model abstained.
func (a *Answer) NotFound() bool {
	return a.Text == FallbackAnswer
}

// Composer turns a question plus context into an answer.
type Composer struct {
	provider    llm.Provider
	model       string
	maxTokens   int
	temperature float64
	now         func() time.Time
}

// ComposerOption customises a Composer.
type ComposerOption func(*Composer)

// WithMaxTokens caps the generated answer length.
func WithMaxTokens(n int) ComposerOption {
	return func(c *Composer) { c.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ComposerOption {
	return func(c *Composer) { c.temperature = t }
}

// NewComposer creates a composer bound to a generation provider and model.
func NewComposer(provider llm.Provider, model string, opts ...ComposerOption) *Composer {
	c := &Composer{
		provider:    provider,
		model:       model,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose answers question from contexts. With no context the fallback
// answer is returned without calling the model.
func (c *Composer) Compose(ctx context.Context, question string, contexts []string) (*Answer, error) {
	start := c.now()
	ans := &Answer{
		Question: question,
		Context:  contexts,
		Model:    c.model,
	}

	if len(contexts) == 0 {
		ans.Text = FallbackAnswer
		ans.Latency = c.now().Sub(start)
		log.Info().Dur("latency", ans.Latency).Msg("no context retrieved, answer not found")
		return ans, nil
	}

	messages := buildMessages(question, contexts)
	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	ans.Text = strings.TrimSpace(resp.Content)
	ans.Latency = c.now().Sub(start)
	ans.SetUsage(llm.MeasureUsage(c.model, messages, resp))

	log.Info().
		Str("provider", c.provider.Name()).
		Str("model", ans.Model).
		Int("context_chunks", len(contexts)).
		Int("input_tokens", ans.InputTokens).
		Int("output_tokens", ans.OutputTokens).
		Dur("latency", ans.Latency).
		Msg("answer generated")

	return ans, nil
}
