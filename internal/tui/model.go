// Package tui is the terminal chat interface: a question input above the
// session's turns, newest first.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ziadkadry99/docchat/internal/qa"
	"github.com/ziadkadry99/docchat/internal/session"
)

// Asker is the TUI-facing subset of the assistant service.
type Asker interface {
	Ask(ctx context.Context, sess *session.Session, question string) (*qa.Answer, error)
}

type answerMsg struct {
	answer *qa.Answer
	err    error
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx      context.Context
	asker    Asker
	sess     *session.Session
	summary  string
	input    textinput.Model
	viewport viewport.Model
	status   string
	busy     bool
	ready    bool
}

// New creates the chat model. summary is shown under the title, typically
// the bound backend and model.
func New(ctx context.Context, asker Asker, sess *session.Session, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 200
	vp := viewport.New(0, 0)
	m := Model{
		ctx:      ctx,
		asker:    asker,
		sess:     sess,
		summary:  summary,
		input:    ti,
		viewport: vp,
		status:   "Ready. Esc or Ctrl+C to quit.",
	}
	m.viewport.SetContent(m.renderTurns())
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := turnsBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header lines, status, input box
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-th-1)
		m.viewport.SetContent(m.renderTurns())
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Answered in %s", msg.answer.Latency.Round(time.Millisecond))
		}
		m.viewport.SetContent(m.renderTurns())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Thinking..."
			m.input.SetValue("")
			return m, m.ask(q)
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	ctx, asker, sess := m.ctx, m.asker, m.sess
	return func() tea.Msg {
		ans, err := asker.Ask(ctx, sess, question)
		return answerMsg{answer: ans, err: err}
	}
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("docchat")
	summary := summaryStyle.Render(m.summary)
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	turns := turnsBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + input + "\n" + turns + "\n" + status
}

// renderTurns lists the session newest first.
func (m Model) renderTurns() string {
	turns := m.sess.Recent()
	if len(turns) == 0 {
		return "No questions yet."
	}
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(questionStyle.Render("Q: " + t.Question))
		sb.WriteString("\n")
		sb.WriteString(lipgloss.NewStyle().Width(max(20, m.viewport.Width-2)).Render("A: " + t.Answer))
	}
	return sb.String()
}

// Run starts the full-screen chat program and blocks until it exits.
func Run(ctx context.Context, asker Asker, sess *session.Session, summary string) error {
	p := tea.NewProgram(New(ctx, asker, sess, summary), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	summaryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	turnsBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
