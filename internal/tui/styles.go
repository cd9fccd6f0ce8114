package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-setups/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	// LongStyle and ShortStyle color the signal side.
	LongStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	ShortStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))

	// PanelStyle frames the latest signal.
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// FormatPrice formats a price with an arrow showing the move from previous.
func FormatPrice(current, previous float64) string {
	priceStr := fmt.Sprintf("%.2f", current)

	if previous == 0 {
		return priceStr
	}

	if current > previous {
		return priceStr + " ▲"
	} else if current < previous {
		return priceStr + " ▼"
	}

	return priceStr
}

// FormatSide renders the side in its color.
func FormatSide(side types.Side) string {
	if side == types.SideShort {
		return ShortStyle.Render(string(side))
	}

	return LongStyle.Render(string(side))
}

// FormatStatus renders the engine status in a color matching its meaning.
func FormatStatus(status types.EngineStatus) string {
	style := lipgloss.NewStyle().Bold(true)

	switch status {
	case types.EngineStatusRunning:
		style = style.Foreground(lipgloss.Color("42"))
	case types.EngineStatusStarting:
		style = style.Foreground(lipgloss.Color("220"))
	case types.EngineStatusError:
		style = style.Foreground(lipgloss.Color("196"))
	case types.EngineStatusStopped:
		style = style.Faint(true)
	}

	return style.Render(string(status))
}
