package llm

import "unicode/utf8"

// pricing is USD per 1M tokens.
type pricing struct {
	input  float64
	output float64
}

// priceTable covers the preset cloud models. Local models are free and
// unknown models report zero.
var priceTable = map[string]pricing{
	"claude-sonnet-4-5-20250929": {input: 3.00, output: 15.00},
	"claude-haiku-4-5-20251001":  {input: 0.80, output: 4.00},
	"claude-opus-4-6":            {input: 15.00, output: 75.00},

	"gpt-4o":       {input: 2.50, output: 10.00},
	"gpt-4o-mini":  {input: 0.15, output: 0.60},
	"gpt-4.1-mini": {input: 0.40, output: 1.60},

	"gemini-2.0-flash": {input: 0.10, output: 0.40},
	"gemini-2.5-flash": {input: 0.30, output: 2.50},
	"gemini-1.5-pro":   {input: 1.25, output: 5.00},
}

// EstimateCost returns the USD cost of a call, or 0 for models without a
// known price.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := priceTable[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1_000_000*p.input + float64(outputTokens)/1_000_000*p.output
}

// EstimateTokens approximates a token count as one per four characters.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n > 0 && n < 4 {
		return 1
	}
	return n / 4
}

// Usage is the accounted size and price of one completion.
type Usage struct {
	Model        string
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// MeasureUsage accounts for a completion. Counts the backend did not
// report are estimated from the prompt and the reply. The reported model
// wins over the requested one.
func MeasureUsage(model string, messages []Message, resp *CompletionResponse) Usage {
	u := Usage{Model: model, InputTokens: resp.InputTokens, OutputTokens: resp.OutputTokens}
	if resp.Model != "" {
		u.Model = resp.Model
	}
	if u.InputTokens == 0 {
		for _, m := range messages {
			u.InputTokens += EstimateTokens(m.Content)
		}
	}
	if u.OutputTokens == 0 {
		u.OutputTokens = EstimateTokens(resp.Content)
	}
	u.Cost = EstimateCost(u.Model, u.InputTokens, u.OutputTokens)
	return u
}
