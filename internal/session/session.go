// Package session records the question/answer turns of a chat session and
// exports them.
package session

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Source says which path produced an answer.
type Source string

const (
	SourceDocuments Source = "documents"
	SourceTabular   Source = "tabular"
)

// ChatTurn is one answered question. Turns are never modified once
// appended.
type ChatTurn struct {
	Question  string
	Answer    string
	Source    Source
	CreatedAt time.Time
}

// Session is the caller-owned ledger of one conversation. Mode selects the
// path used for new questions; TabularSource is the staged CSV when Mode is
// SourceTabular.
type Session struct {
	ID            string
	CreatedAt     time.Time
	Mode          Source
	TabularSource string

	turns []ChatTurn
}

// New starts an empty session in documents mode.
func New() *Session {
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Mode:      SourceDocuments,
	}
}

// Restore rebuilds a session from persisted turns, given in append order.
func Restore(id string, createdAt time.Time, mode Source, tabularSource string, turns []ChatTurn) *Session {
	if mode == "" {
		mode = SourceDocuments
	}
	return &Session{
		ID:            id,
		CreatedAt:     createdAt,
		Mode:          mode,
		TabularSource: tabularSource,
		turns:         append([]ChatTurn(nil), turns...),
	}
}

// Append records a turn and returns it.
func (s *Session) Append(question, answer string, source Source) ChatTurn {
	turn := ChatTurn{
		Question:  question,
		Answer:    answer,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	s.turns = append(s.turns, turn)
	return turn
}

// Len returns the number of turns.
func (s *Session) Len() int { return len(s.turns) }

// Turns returns the turns in the order they were appended.
func (s *Session) Turns() []ChatTurn {
	return append([]ChatTurn(nil), s.turns...)
}

// Recent returns the turns newest first, the order they are displayed in.
func (s *Session) Recent() []ChatTurn {
	out := make([]ChatTurn, len(s.turns))
	for i, t := range s.turns {
		out[len(s.turns)-1-i] = t
	}
	return out
}

// UseTabular switches new questions to the CSV staged at path.
func (s *Session) UseTabular(path string) {
	s.Mode = SourceTabular
	s.TabularSource = path
}

// UseDocuments switches new questions back to the vector index.
func (s *Session) UseDocuments() {
	s.Mode = SourceDocuments
	s.TabularSource = ""
}

// WriteCSV writes the session as CSV with a question,answer header and one
// row per turn in append order. Fields are quoted only when they contain a
// comma, quote or line break.
func (s *Session) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"question", "answer"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, t := range s.turns {
		if err := cw.Write([]string{t.Question, t.Answer}); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
