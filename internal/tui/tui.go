package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sokinpui/apf.go/apf"
	"github.com/sokinpui/apf.go/cli"
	"github.com/sokinpui/apf.go/internal/planner"
	"github.com/sokinpui/apf.go/model"
)

// --- Styles ---
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")) // Mauve
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))            // Green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))           // Red
	addStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	removeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	pathStyle    = lipgloss.NewStyle()
	faintStyle   = lipgloss.NewStyle().Faint(true)
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// --- Messages ---
type planMsg struct {
	plan *planner.Plan
	meta model.Metadata
}

type summaryMsg struct {
	model.Summary
}

type errorMsg struct{ err error }

func (e errorMsg) Error() string { return e.err.Error() }

// --- Model ---
type Model struct {
	app     *apf.App
	cfg     *cli.Config
	spinner spinner.Model
	state   state
	plan    *planner.Plan
	meta    model.Metadata
	summary summaryMsg
	err     error
}

type state int

const (
	statePlanning state = iota
	stateConfirm
	stateApplying
	stateSummary
	stateError
)

func New(app *apf.App, cfg *cli.Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		app:     app,
		cfg:     cfg,
		spinner: s,
		state:   statePlanning,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.start}
	if !m.cfg.NoAnimation {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "y", "Y", "enter":
			if m.state == stateConfirm {
				m.state = stateApplying
				return m, m.commit
			}
		case "n", "N":
			if m.state == stateConfirm {
				m.summary = summaryMsg{model.Summary{Message: "Patch declined. Nothing applied."}}
				m.state = stateSummary
				return m, tea.Quit
			}
		}

	case planMsg:
		if msg.plan == nil || len(msg.plan.Entries) == 0 {
			m.summary = summaryMsg{model.Summary{Message: "Nothing to apply."}}
			m.state = stateSummary
			return m, tea.Quit
		}
		m.plan = msg.plan
		m.meta = msg.meta
		if m.cfg.Yes {
			m.state = stateApplying
			return m, m.commit
		}
		m.state = stateConfirm
		return m, nil

	case summaryMsg:
		m.state = stateSummary
		m.summary = msg
		return m, tea.Quit

	case errorMsg:
		m.state = stateError
		m.err = msg
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state == statePlanning || m.state == stateApplying {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case statePlanning:
		return fmt.Sprintf("%s Verifying patch...", m.spinner.View())
	case stateApplying:
		return fmt.Sprintf("%s Applying...", m.spinner.View())
	case stateConfirm:
		return m.renderConfirm()
	case stateError:
		return errorStyle.Render("Error: ", m.err.Error())
	case stateSummary:
		return m.renderSummary()
	default:
		return ""
	}
}

func (m *Model) renderConfirm() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("The patch will make the following changes:"))
	b.WriteString("\n\n")
	b.WriteString(renderDiff(m.meta.Diff))
	b.WriteString("\n")
	for _, f := range m.meta.Files {
		fmt.Fprintf(&b, "  %s %s (+%d -%d)\n",
			faintStyle.Render(string(f.Type)), pathStyle.Render(f.RelativePath), f.Additions, f.Deletions)
	}
	b.WriteString("\n")
	b.WriteString(promptStyle.Render("Apply? (y/N) "))
	return b.String()
}

func renderDiff(diff string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			b.WriteString(headerStyle.Render(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(hunkStyle.Render(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(addStyle.Render(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(removeStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderSummary() string {
	var b strings.Builder

	if m.summary.Message != "" {
		b.WriteString(headerStyle.Render(m.summary.Message))
		b.WriteString("\n\n")
	}

	writeGroup := func(style lipgloss.Style, label string, files []string) {
		if len(files) == 0 {
			return
		}
		b.WriteString(style.Render(label))
		b.WriteString("\n")
		for _, f := range files {
			b.WriteString(fmt.Sprintf("  %s\n", pathStyle.Render(f)))
		}
	}

	writeGroup(successStyle, "Created:", m.summary.Created)
	writeGroup(successStyle, "Modified:", m.summary.Modified)
	writeGroup(successStyle, "Deleted:", m.summary.Deleted)
	writeGroup(successStyle, "Moved:", m.summary.Moved)
	writeGroup(errorStyle, "Failed:", m.summary.Failed)

	if m.summary.Empty() && m.summary.Message == "" {
		b.WriteString(faintStyle.Render("Nothing to do."))
	}

	return b.String()
}

// start either plans the patch from the source, or, for history and
// preview modes, runs the whole operation directly.
func (m Model) start() tea.Msg {
	ctx := context.Background()

	if m.cfg.Undo || m.cfg.Redo || m.cfg.OutputDiff {
		summary, err := m.app.Execute(ctx)
		if err != nil {
			return wrapErr(err)
		}
		return summaryMsg{Summary: summary}
	}

	plan, meta, err := m.app.PlanFromSource(ctx)
	if err != nil {
		return wrapErr(err)
	}
	return planMsg{plan: plan, meta: meta}
}

func (m Model) commit() tea.Msg {
	summary, err := m.app.Commit(context.Background(), m.plan)
	if err != nil {
		return wrapErr(err)
	}
	return summaryMsg{Summary: summary}
}

func wrapErr(err error) tea.Msg {
	// Check for detailed error to print stack
	if e, ok := err.(*apf.DetailedError); ok {
		// The TUI will exit, so print the stack trace straight to stderr.
		fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", e.Stack)
	}
	return errorMsg{err}
}
