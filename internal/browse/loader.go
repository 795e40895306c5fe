package browse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobradar/internal/pipeline"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ErrCancelled is returned when the user aborts a run from the loader.
var ErrCancelled = errors.New("cancelled")

type eventMsg struct {
	ev pipeline.Event
	ok bool
}

type spinnerTickMsg struct{}

func spinnerTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

type loaderModel struct {
	events <-chan pipeline.Event
	cancel context.CancelFunc
	frame  int
	stage  string
	lines  []string
	result *pipeline.Result
	err    error
	done   bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.next(), spinnerTick())
}

func (m loaderModel) next() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		return eventMsg{ev: ev, ok: ok}
	}
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		if !msg.ok {
			m.done = true
			if m.result == nil && m.err == nil {
				m.err = fmt.Errorf("run ended without a result")
			}
			return m, tea.Quit
		}
		switch msg.ev.Type {
		case pipeline.EventStageStart:
			m.stage = msg.ev.Node
		case pipeline.EventStageEnd:
			if msg.ev.Progress != "" {
				m.lines = append(m.lines, msg.ev.Progress)
			}
		case pipeline.EventComplete:
			m.result = msg.ev.Result
			m.done = true
			return m, tea.Quit
		}
		return m, m.next()
	case spinnerTickMsg:
		if m.done {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, spinnerTick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.done = true
			m.err = ErrCancelled
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(doneLineStyle.Render("✓ "+line) + "\n")
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	stage := m.stage
	if stage == "" {
		stage = "starting"
	}
	fmt.Fprintf(&b, "%s Running %s...\n", spinner, stage)
	return b.String()
}

// RunLoader shows stage progress inline while stream runs the pipeline and
// returns the final result.
func RunLoader(ctx context.Context, stream func(context.Context) <-chan pipeline.Event) (pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := loaderModel{events: stream(ctx), cancel: cancel}
	out, err := tea.NewProgram(m).Run()
	if err != nil {
		return pipeline.Result{}, err
	}
	final := out.(loaderModel)
	if final.err != nil {
		return pipeline.Result{}, final.err
	}
	return *final.result, nil
}
