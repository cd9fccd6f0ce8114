// Package tui renders engine snapshots as a terminal dashboard. It only reads
// the engine; starting and stopping stays with the caller.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-setups/internal/types"
)

// DefaultRefresh is the snapshot polling interval.
const DefaultRefresh = 500 * time.Millisecond

// SnapshotFunc reads the current engine snapshot.
type SnapshotFunc func() types.Snapshot

// TickMsg asks the model to read a fresh snapshot.
type TickMsg time.Time

// SnapshotMsg carries a snapshot into the model.
type SnapshotMsg struct {
	Snapshot types.Snapshot
}

// Model is the dashboard model.
type Model struct {
	read      SnapshotFunc
	refresh   time.Duration
	spinner   spinner.Model
	signals   table.Model
	snapshot  types.Snapshot
	prevPrice float64
	width     int
	height    int
}

// NewModel creates a dashboard reading snapshots from read every refresh.
func NewModel(read SnapshotFunc, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		read:      read,
		refresh:   refresh,
		spinner:   sp,
		signals:   NewSignalTable(),
		snapshot:  read(),
		prevPrice: 0,
		width:     0,
		height:    0,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.signals.SetWidth(msg.Width)
		m.signals.SetHeight(max(msg.Height-18, 3))

		return m, nil

	case TickMsg:
		m = m.apply(m.read())

		return m, m.tick()

	case SnapshotMsg:
		m = m.apply(msg.Snapshot)

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	var cmd tea.Cmd
	m.signals, cmd = m.signals.Update(msg)

	return m, cmd
}

func (m Model) apply(snap types.Snapshot) Model {
	if m.snapshot.Price.IsSome() && snap.RunID == m.snapshot.RunID {
		m.prevPrice = m.snapshot.Price.Unwrap()
	} else {
		m.prevPrice = 0
	}

	m.snapshot = snap
	m.signals = UpdateSignalRows(m.signals, snap.Signals)

	return m
}

// Snapshot returns the snapshot currently displayed.
func (m Model) Snapshot() types.Snapshot {
	return m.snapshot
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	snap := m.snapshot
	params := snap.Params

	s.WriteString(TitleStyle.Render(fmt.Sprintf("Setup Monitor | %s | %s", params.Symbol, params.Setup.DisplayName())))
	s.WriteString("\n\n")

	status := FormatStatus(snap.Status)
	if snap.Status == types.EngineStatusRunning || snap.Status == types.EngineStatusStarting {
		status = m.spinner.View() + " " + status
	}

	s.WriteString(fmt.Sprintf("Status: %s   Feed: %s   Bars: %d\n", status, params.FeedMode, snap.BarCount))

	price := "-"
	if snap.Price.IsSome() {
		price = FormatPrice(snap.Price.Unwrap(), m.prevPrice)
	}

	s.WriteString(fmt.Sprintf("Price: %s   Prev close: %.2f   Leverage: %.2f   Ratio: %.2f\n",
		price, params.PreviousClose, params.Leverage, params.Ratio))

	if line := Sparkline(snap.Bars, m.sparkWidth()); line != "" {
		s.WriteString(line)
		s.WriteString("\n")
	}

	if snap.ErrorMessage != "" {
		s.WriteString("\n")
		s.WriteString(ErrorStyle.Render("Error: " + snap.ErrorMessage))
		s.WriteString("\n")
	}

	s.WriteString("\n")

	if latest := snap.LatestSignal(); latest.IsSome() {
		s.WriteString(PanelStyle.Render(FormatSignal(latest.Unwrap())))
		s.WriteString("\n\n")
		s.WriteString(m.signals.View())
	} else {
		s.WriteString("Waiting for signals...\n")
	}

	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("q: quit | ↑/↓: scroll signals"))

	return s.String()
}

func (m Model) sparkWidth() int {
	if m.width <= 0 {
		return 60
	}

	return m.width
}
