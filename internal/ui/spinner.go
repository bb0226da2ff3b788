package ui

// spinner.go provides a blocking spinner for long-running operations.

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user presses ctrl+c while the spinner runs
var ErrCancelled = errors.New("cancelled")

// actionDoneMsg signals the action completed
type actionDoneMsg struct{}

// titleMsg replaces the spinner title while the action runs
type titleMsg string

// blockingSpinnerModel runs a spinner while an action executes
type blockingSpinnerModel struct {
	spinner   spinner.Model
	title     string
	action    func()
	done      bool
	cancelled bool
}

// RunWithSpinner executes action while displaying a spinner on stderr.
// The action receives an update function that changes the spinner title,
// which is how page progress is reported.
//
// Example:
//
//	var result models.AnalysisResult
//	err := RunWithSpinner("Searching...", func(update func(string)) {
//	    result = analyzer.AnalyzeWithProgress(ctx, term, from, max, func(fetched, page, pages int) {
//	        update(fmt.Sprintf("Page %d/%d", page, pages))
//	    })
//	})
func RunWithSpinner(title string, action func(update func(string))) error {
	var p *tea.Program

	m := blockingSpinnerModel{
		spinner: NewAppSpinner(),
		title:   title,
		action: func() {
			action(func(s string) { p.Send(titleMsg(s)) })
		},
	}

	p = tea.NewProgram(m, tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("spinner program error: %w", err)
	}

	if finalModel.(blockingSpinnerModel).cancelled {
		return ErrCancelled
	}
	return nil
}

func (m blockingSpinnerModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.runAction(),
	)
}

func (m blockingSpinnerModel) runAction() tea.Cmd {
	return func() tea.Msg {
		m.action()
		return actionDoneMsg{}
	}
}

func (m blockingSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case actionDoneMsg:
		m.done = true
		return m, tea.Quit

	case titleMsg:
		m.title = string(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancelled = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m blockingSpinnerModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), ProgressStyle.Render(m.title))
}
