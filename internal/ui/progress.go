package ui

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SpinnerFrames defines the animation frames shared by all progress views.
var SpinnerFrames = spinner.Spinner{
	Frames: []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"},
	FPS:    spinner.Line.FPS,
}

type stepMsg struct{ label string }

type stepDoneMsg struct {
	symbol string
	style  lipgloss.Style
	note   string
}

type quitMsg struct{}

type progressModel struct {
	sp    spinner.Model
	label string
}

func newProgressModel() progressModel {
	sp := spinner.New()
	sp.Spinner = SpinnerFrames
	sp.Style = lipgloss.NewStyle().Foreground(ColorSecondary)
	return progressModel{sp: sp}
}

func (m progressModel) Init() tea.Cmd {
	return m.sp.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.sp, cmd = m.sp.Update(msg)
		return m, cmd
	case stepMsg:
		m.label = msg.label
		return m, nil
	case stepDoneMsg:
		line := fmt.Sprintf("%s %s", msg.style.Render(msg.symbol), m.label)
		if msg.note != "" {
			line += " " + Muted(msg.note)
		}
		m.label = ""
		return m, tea.Println(line)
	case quitMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.label == "" {
		return ""
	}
	return fmt.Sprintf("%s %s...\n", m.sp.View(), m.label)
}

// Progress shows a live spinner for a sequence of labelled steps. Completed
// steps are printed as persistent lines above the spinner. On terminals
// without color support it degrades to plain line output.
type Progress struct {
	program *tea.Program
	plain   bool
	label   string

	mu   sync.Mutex
	done chan struct{}
}

// NewProgress starts the progress display. Call Finish when done.
func NewProgress() *Progress {
	p := &Progress{done: make(chan struct{})}

	if !ColorEnabled() {
		p.plain = true
		close(p.done)
		return p
	}

	p.program = tea.NewProgram(newProgressModel())
	go func() {
		defer close(p.done)
		// Input handling is limited to ctrl+c; errors just mean we lose
		// the live display, not the deployment.
		_, _ = p.program.Run()
	}()
	return p
}

// Step begins a new labelled step.
func (p *Progress) Step(label string) {
	p.mu.Lock()
	p.label = label
	p.mu.Unlock()

	if p.plain {
		fmt.Printf("%s %s...\n", SymbolProgress, label)
		return
	}
	p.program.Send(stepMsg{label: label})
}

// StepSuccess completes the current step successfully.
func (p *Progress) StepSuccess(note string) {
	p.finishStep(SymbolSuccess, successStyle, note)
}

// StepWarn completes the current step with a warning.
func (p *Progress) StepWarn(note string) {
	p.finishStep(SymbolWarning, warnStyle, note)
}

// StepFail completes the current step as failed.
func (p *Progress) StepFail(note string) {
	p.finishStep(SymbolFail, errorStyle, note)
}

func (p *Progress) finishStep(symbol string, style lipgloss.Style, note string) {
	if p.plain {
		p.mu.Lock()
		label := p.label
		p.mu.Unlock()
		if note != "" {
			fmt.Printf("%s %s %s\n", symbol, label, note)
		} else {
			fmt.Printf("%s %s\n", symbol, label)
		}
		return
	}
	p.program.Send(stepDoneMsg{symbol: symbol, style: style, note: note})
}

// Finish tears down the live display and waits for it to exit.
func (p *Progress) Finish() {
	if p.plain {
		return
	}
	p.program.Send(quitMsg{})
	<-p.done
}
