package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var progressLabelStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#98FB98"))

// progressReporter drives an optional live TUI showing per-function
// translation progress. assemble.TranslateModule reports each finished
// function over doneCh; the TUI runs on bubbletea's own goroutine and
// reads from it, per the single-producer / single-consumer channel
// design this package's concurrency model allows (translator state
// itself is never touched from the TUI side).
type progressReporter struct {
	enabled bool
	total   int
	doneCh  chan string
	program *tea.Program
	exited  chan struct{}
}

func newProgressReporter(enabled bool, total int) *progressReporter {
	return &progressReporter{
		enabled: enabled && total > 0,
		total:   total,
		doneCh:  make(chan string, 1),
		exited:  make(chan struct{}),
	}
}

// funcDone reports that funcName finished translating; a no-op when
// the TUI isn't running so callers don't need to check enabled.
func (p *progressReporter) funcDone(funcName string) {
	if !p.enabled {
		return
	}
	p.doneCh <- funcName
}

func (p *progressReporter) start() {
	if !p.enabled {
		return
	}
	model := newProgressModel(p.total, p.doneCh)
	p.program = tea.NewProgram(model)
	go func() {
		defer close(p.exited)
		p.program.Run()
	}()
}

func (p *progressReporter) stop() {
	if !p.enabled {
		return
	}
	close(p.doneCh)
	<-p.exited
}

type progressModel struct {
	bar      progress.Model
	doneCh   chan string
	total    int
	done     int
	lastFunc string
}

func newProgressModel(total int, doneCh chan string) progressModel {
	return progressModel{
		bar:    progress.New(progress.WithDefaultGradient()),
		doneCh: doneCh,
		total:  total,
	}
}

type funcDoneMsg struct {
	name string
	ok   bool
}

func waitForDone(doneCh chan string) tea.Cmd {
	return func() tea.Msg {
		name, ok := <-doneCh
		return funcDoneMsg{name: name, ok: ok}
	}
}

func (m progressModel) Init() tea.Cmd {
	return waitForDone(m.doneCh)
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case funcDoneMsg:
		if !msg.ok {
			return m, tea.Quit
		}
		m.done++
		m.lastFunc = msg.name
		if m.done >= m.total {
			return m, tea.Quit
		}
		return m, waitForDone(m.doneCh)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	percent := float64(m.done) / float64(m.total)
	return fmt.Sprintf("%s %s\n", m.bar.ViewAs(percent), progressLabelStyle.Render(m.lastFunc))
}
