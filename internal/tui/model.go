package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stabilize/internal/processor"
)

// Model draws batch progress from the processor's update channel. It quits
// when the channel is closed.
type Model struct {
	updates   <-chan processor.ProgressUpdate
	cancel    context.CancelFunc
	started   time.Time
	total     int
	processed int
	file      string
	stage     processor.Stage
	bar       progress.Model
	spinner   spinner.Model
	stopping  bool
	quitting  bool
}

type doneMsg struct{}

type updateMsg processor.ProgressUpdate

// NewModel builds the view. cancel is invoked on ctrl+c, since the terminal
// is in raw mode and SIGINT never reaches the process.
func NewModel(updates <-chan processor.ProgressUpdate, cancel context.CancelFunc) Model {
	bar := progress.New(progress.WithGradient(string(ColorAccentAlt), string(ColorAccent)))
	bar.Width = 40
	bar.PercentageStyle = lipgloss.NewStyle().Foreground(ColorDim)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	return Model{
		updates: updates,
		cancel:  cancel,
		started: time.Now(),
		bar:     bar,
		spinner: s,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(listenForUpdates(m.updates), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.total += msg.TotalDelta
		m.processed += msg.ProcessedDelta
		if msg.File != "" {
			m.file = msg.File
		}
		if msg.Stage != "" {
			m.stage = msg.Stage
		}
		return m, tea.Batch(listenForUpdates(m.updates), m.bar.SetPercent(m.ratio()))
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && !m.stopping {
			m.stopping = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.bar.Width = clamp(msg.Width-10, 20, 60)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case progress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		m.bar = model.(progress.Model)
		return m, cmd
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	current := dimStyle.Render("discovering files...")
	if m.file != "" {
		current = fileStyle.Render(m.file) + dimStyle.Render(" "+string(m.stage))
	}
	if m.stopping {
		current = warnStyle.Render("stopping after ffmpeg exits...")
	}

	elapsed := time.Since(m.started).Round(time.Second)
	lines := []string{
		titleStyle.Render("stabilize"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.processed, m.total)),
		m.spinner.View() + " " + current,
		m.bar.View(),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
	}
	return strings.Join(lines, "\n")
}

func (m Model) ratio() float64 {
	if m.total == 0 {
		return 0
	}
	return min(float64(m.processed)/float64(m.total), 1)
}

func listenForUpdates(updates <-chan processor.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	fileStyle  = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorWarn)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
)
