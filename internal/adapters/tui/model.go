// Package tui renders load progress as an interactive Bubble Tea progress bar.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/ui/style"
)

const (
	defaultBarWidth = 48
	maxBarWidth     = 80
	historySize     = 4
)

// ProgressMsg carries a load progress update into the program.
type ProgressMsg domain.LoadProgress

// Model is the Bubble Tea model of the progress screen.
type Model struct {
	bar      progress.Model
	current  domain.LoadProgress
	history  []string
	quitting bool
}

// NewModel creates a Model with an empty bar.
func NewModel() Model {
	return Model{
		bar: progress.New(
			progress.WithGradient(string(style.Violet), string(style.Mint)),
			progress.WithWidth(defaultBarWidth),
		),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-4, 10), maxBarWidth)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
	case ProgressMsg:
		p := domain.LoadProgress(msg)
		if m.current.Message != "" && m.current.Message != p.Message {
			m.history = append(m.history, m.current.Message)
			if len(m.history) > historySize {
				m.history = m.history[len(m.history)-historySize:]
			}
		}
		m.current = p
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(style.Card+" flipfusion") + "\n\n")
	for _, h := range m.history {
		b.WriteString(historyStyle.Render("  "+h) + "\n")
	}

	b.WriteString("  " + m.bar.ViewAs(float64(m.current.Percentage)/100) + "\n")
	b.WriteString("  " + messageStyle(m.current.Message).Render(m.current.Message) + "\n")

	if m.quitting {
		b.WriteString("\n" + historyStyle.Render("  interrupted") + "\n")
	}
	return b.String()
}

// Current returns the last update received.
func (m Model) Current() domain.LoadProgress {
	return m.current
}

// History returns the previous messages, oldest first.
func (m Model) History() []string {
	return append([]string(nil), m.history...)
}
