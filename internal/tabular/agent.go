// Package tabular answers questions about a staged CSV file by handing a
// preview of the table to the generation model.
package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/qa"
)

// DefaultMaxRows is how many data rows are placed in the prompt.
const DefaultMaxRows = 200

const systemPrompt = `You are a data analyst. Answer questions about the CSV table supplied by the user. Work only from the rows shown and the stated row count. If the table does not contain the answer, say so.`

const tablePromptTemplate = `The file %s has %d data rows and these columns: %s.
%s
` + "```csv\n%s```" + `

Question: %s

Answer:`

// Table is a parsed CSV file.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable parses a CSV file. The first record is the header.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty csv file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	t := &Table{Header: header}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// Agent answers questions about CSV files.
type Agent struct {
	provider llm.Provider
	model    string
	maxRows  int
}

// NewAgent creates an agent. maxRows <= 0 means DefaultMaxRows.
func NewAgent(provider llm.Provider, model string, maxRows int) *Agent {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Agent{provider: provider, model: model, maxRows: maxRows}
}

// Ask answers question about the CSV at csvPath.
func (a *Agent) Ask(ctx context.Context, csvPath, question string) (*qa.Answer, error) {
	start := time.Now()

	table, err := ReadTable(csvPath)
	if err != nil {
		return nil, err
	}

	messages := a.buildMessages(csvPath, table, question)
	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Model:       a.model,
		Messages:    messages,
		MaxTokens:   1024,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("tabular agent: %w", err)
	}

	ans := &qa.Answer{
		Question: question,
		Text:     strings.TrimSpace(resp.Content),
		Latency:  time.Since(start),
	}
	ans.SetUsage(llm.MeasureUsage(a.model, messages, resp))

	log.Info().
		Str("file", csvPath).
		Int("rows", len(table.Rows)).
		Dur("latency", ans.Latency).
		Msg("csv response generated")

	return ans, nil
}

func (a *Agent) buildMessages(path string, t *Table, question string) []llm.Message {
	rows := t.Rows
	note := ""
	if len(rows) > a.maxRows {
		rows = rows[:a.maxRows]
		note = fmt.Sprintf("Only the first %d rows are shown.\n", a.maxRows)
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write(t.Header)
	_ = w.WriteAll(rows)

	userPrompt := fmt.Sprintf(tablePromptTemplate,
		filepath.Base(path), len(t.Rows), strings.Join(t.Header, ", "), note, sb.String(), question)

	return llm.Prompt(systemPrompt, userPrompt)
}
