package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/mdsim/internal/dynamo"
	"github.com/san-kum/mdsim/internal/metrics"
	"github.com/san-kum/mdsim/internal/sim"
)

const (
	barWidth   = 40
	graphWidth = 60
)

type TickMsg time.Time

// ReportMsg carries one energy report from the running driver.
type ReportMsg metrics.Report

// DoneMsg is sent once the driver returns.
type DoneMsg struct {
	Result *sim.Result
	Err    error
}

// Observer returns a driver observer that forwards energy reports to send,
// typically tea.Program.Send.
func Observer(send func(tea.Msg)) dynamo.Observer {
	ac := metrics.NewAccountant()
	return dynamo.ObserverFunc(func(ctx context.Context, step int, a *dynamo.Atoms) error {
		r, err := ac.Account(ctx, a)
		if err != nil {
			return err
		}
		r.Step = step
		send(ReportMsg(r))
		return nil
	})
}

// Model follows one run. It never touches the atoms; all data arrives as
// messages.
type Model struct {
	title   string
	steps   int
	cancel  context.CancelFunc
	reports []metrics.Report
	frame   int
	done    bool
	result  *sim.Result
	err     error
}

// NewModel returns a model for a run of steps steps. cancel stops the run when
// the user quits.
func NewModel(title string, steps int, cancel context.CancelFunc) Model {
	return Model{title: title, steps: steps, cancel: cancel}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case ReportMsg:
		m.reports = append(m.reports, metrics.Report(msg))
	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
	case TickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m Model) Reports() []metrics.Report { return m.reports }
func (m Model) Done() bool                { return m.done }
func (m Model) Err() error                { return m.err }

func (m Model) step() int {
	if len(m.reports) == 0 {
		return 0
	}
	return m.reports[len(m.reports)-1].Step
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render(m.title) + "\n\n")

	switch {
	case m.err != nil:
		s.WriteString(StatusFailed.Render("✗ "+m.err.Error()) + "\n")
	case m.done:
		status := "✓ finished"
		if m.result != nil {
			status += fmt.Sprintf(" in %s, %d frames", m.result.Elapsed.Round(time.Millisecond), m.result.Frames)
		}
		s.WriteString(StatusDone.Render(status) + "\n")
	default:
		s.WriteString(StatusRunning.Render(AnimatedSpinner(m.frame)+" running") + "\n")
	}

	progress := 0.0
	if m.steps > 0 {
		progress = float64(m.step()) / float64(m.steps)
	}
	s.WriteString(ProgressBar(progress, barWidth) + fmt.Sprintf(" %d/%d\n\n", m.step(), m.steps))

	if n := len(m.reports); n > 0 {
		r := m.reports[n-1]
		row := func(label, value string) {
			s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
		}
		row("Epot", fmt.Sprintf("%.4f eV", r.PotentialPerAtom))
		row("Ekin", fmt.Sprintf("%.4f eV", r.KineticPerAtom))
		row("T", fmt.Sprintf("%.0f K", r.Temperature))
		row("Etot", fmt.Sprintf("%.4f eV", r.TotalPerAtom))
	}

	if len(m.reports) >= 2 {
		etot := make([]float64, len(m.reports))
		temps := make([]float64, len(m.reports))
		for i, r := range m.reports {
			etot[i] = r.TotalPerAtom
			temps[i] = r.Temperature
		}
		chart := asciigraph.Plot(etot,
			asciigraph.Height(6),
			asciigraph.Width(graphWidth),
			asciigraph.Precision(4),
			asciigraph.Caption("Etot per atom (eV)"),
		)
		s.WriteString(GraphStyle.Render(chart) + "\n")
		s.WriteString(MetricLabel.Render("T") + SparklineChart(temps, graphWidth) + "\n")
	}

	s.WriteString("\n" + Separator(graphWidth) + "\n")
	s.WriteString(KeyHint.Render("q: stop and quit"))
	return GlassPanel.Render(s.String())
}
