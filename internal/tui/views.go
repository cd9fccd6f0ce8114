package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-setups/internal/types"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// NewSignalTable creates the signal history table.
func NewSignalTable() table.Model {
	columns := []table.Column{
		{Title: "Time", Width: 8},
		{Title: "Setup", Width: 22},
		{Title: "Side", Width: 6},
		{Title: "Entry", Width: 10},
		{Title: "Stop", Width: 10},
		{Title: "Target", Width: 10},
		{Title: "R:R", Width: 5},
		{Title: "Turbo", Width: 22},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// UpdateSignalRows fills the table newest first.
func UpdateSignalRows(t table.Model, signals []types.Signal) table.Model {
	rows := make([]table.Row, 0, len(signals))

	for i := len(signals) - 1; i >= 0; i-- {
		sig := signals[i]
		rows = append(rows, table.Row{
			sig.Time.Format("15:04"),
			sig.Setup.DisplayName(),
			string(sig.Side),
			fmt.Sprintf("%.2f", sig.Entry),
			fmt.Sprintf("%.2f", sig.Stop),
			fmt.Sprintf("%.2f", sig.Target),
			fmt.Sprintf("%.1f", sig.RiskReward()),
			formatLevelsShort(sig.Levels),
		})
	}

	t.SetRows(rows)

	return t
}

// FormatSignal renders the detail panel of one signal.
func FormatSignal(sig types.Signal) string {
	var s strings.Builder

	s.WriteString(fmt.Sprintf("%s %s @ %s\n", FormatSide(sig.Side), sig.Setup.DisplayName(), sig.Time.Format("15:04")))
	s.WriteString(fmt.Sprintf("Entry %.2f   Stop %.2f   Target %.2f   R:R %.1f", sig.Entry, sig.Stop, sig.Target, sig.RiskReward()))

	levels := sig.Levels
	if levels == nil {
		return s.String()
	}

	s.WriteString("\n")

	if isin := levels.ISIN(sig.Side); isin != "" {
		s.WriteString(fmt.Sprintf("Turbo %s x%.2f\n", isin, levels.Leverage))
	} else {
		s.WriteString(fmt.Sprintf("Turbo x%.2f\n", levels.Leverage))
	}

	switch {
	case levels.Absolute != nil:
		abs := levels.Absolute
		s.WriteString(fmt.Sprintf("Financing %.4f   Buy %.2f   Stop %.2f   Target %.2f",
			abs.Financing, abs.MarketPrice, abs.StopPrice, abs.TargetPrice))
	case levels.Distance != nil:
		s.WriteString(fmt.Sprintf("Stop distance %.4f   Target distance %.4f",
			levels.Distance.StopDistance, levels.Distance.TargetDistance))
	}

	return s.String()
}

func formatLevelsShort(levels *types.DerivativeLevels) string {
	switch {
	case levels == nil:
		return "-"
	case levels.Absolute != nil:
		return fmt.Sprintf("SL %.2f TP %.2f", levels.Absolute.StopPrice, levels.Absolute.TargetPrice)
	case levels.Distance != nil:
		return fmt.Sprintf("±%.2f / ±%.2f", levels.Distance.StopDistance, levels.Distance.TargetDistance)
	default:
		return "-"
	}
}

// Sparkline draws the closes of the newest bars that fit in width.
func Sparkline(bars []types.Bar, width int) string {
	if len(bars) == 0 || width <= 0 {
		return ""
	}

	if len(bars) > width {
		bars = bars[len(bars)-width:]
	}

	low, high := math.Inf(1), math.Inf(-1)
	for _, bar := range bars {
		low = math.Min(low, bar.Close)
		high = math.Max(high, bar.Close)
	}

	var s strings.Builder

	span := high - low
	top := len(sparkRunes) - 1

	for _, bar := range bars {
		idx := top / 2
		if span > 0 {
			idx = int(math.Round((bar.Close - low) / span * float64(top)))
		}

		s.WriteRune(sparkRunes[idx])
	}

	return s.String()
}
