package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/liver-predict/internal/domain"
)

var (
	colorHealthy  = lipgloss.Color("#2E9E6B")
	colorAlert    = lipgloss.Color("#D64545")
	colorMild     = lipgloss.Color("#E8B93C")
	colorModerate = lipgloss.Color("#E8833A")
	colorHigh     = lipgloss.Color("#C0392B")
	colorMuted    = lipgloss.Color("#6B7B83")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	sectionStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// trackHalf is the number of cells on each side of the bar track centre.
const trackHalf = 20

// TierColor returns the terminal colour of t.
func TierColor(t Tier) lipgloss.Color {
	switch t {
	case TierHealthy:
		return colorHealthy
	case TierAlert:
		return colorAlert
	case TierMild:
		return colorMild
	case TierModerate:
		return colorModerate
	case TierHigh:
		return colorHigh
	default:
		return colorMuted
	}
}

// Render draws view for a terminal.
func Render(view View) string {
	var b strings.Builder

	tone := lipgloss.NewStyle().Foreground(TierColor(view.Tier))
	header := []string{
		titleStyle.Inherit(tone).Render("● " + view.Headline),
	}
	if view.Risk != "" {
		risk := view.Risk
		if view.Confidence != nil {
			risk = fmt.Sprintf("%s (confidence %.1f%%)", risk, *view.Confidence*100)
		}
		header = append(header, risk)
	}
	if view.Summary != "" {
		header = append(header, view.Summary)
	}
	header = append(header, mutedStyle.Render(view.Advice))
	b.WriteString(boxStyle.BorderForeground(TierColor(view.Tier)).Render(strings.Join(header, "\n")))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Liver Health Insights"))
	b.WriteString("\n")
	if len(view.Insights) == 0 {
		b.WriteString(mutedStyle.Render(view.InsightsNote))
		b.WriteString("\n")
	}
	for _, in := range view.Insights {
		badge := lipgloss.NewStyle().Foreground(TierColor(in.Tier)).Render("[" + in.SeverityLabel + "]")
		fmt.Fprintf(&b, "%s %s: %g\n  %s\n", badge, in.Marker, in.Value, in.Message)
	}

	if len(view.Bars) > 0 {
		b.WriteString(sectionStyle.Render("Feature Contributions (SHAP Analysis)"))
		b.WriteString("\n")
		for _, bar := range view.Bars {
			fmt.Fprintf(&b, "%-22s %s %s\n", fmt.Sprintf("%s = %g", bar.Feature, bar.Value), drawBar(bar), bar.Label)
		}
		b.WriteString(mutedStyle.Render(fmt.Sprintf("Base value: %.3f  ◀ decreases risk | increases risk ▶", view.BaseValue)))
		b.WriteString("\n")
	}

	return b.String()
}

// drawBar renders bar on a track of 2*trackHalf cells around a centre line.
func drawBar(bar Bar) string {
	cells := int(math.Round(bar.Width / 100 * trackHalf))
	if cells > trackHalf {
		cells = trackHalf
	}
	fill := lipgloss.NewStyle().Foreground(TierColor(bar.Tier)).Render(strings.Repeat("█", cells))

	if bar.Impact == domain.ImpactPositive {
		return strings.Repeat(" ", trackHalf) + "│" + fill + strings.Repeat(" ", trackHalf-cells)
	}
	return strings.Repeat(" ", trackHalf-cells) + fill + "│" + strings.Repeat(" ", trackHalf)
}

// RenderFieldErrors lists validation messages in form order.
func RenderFieldErrors(errs domain.FieldErrors) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(colorAlert).Bold(true).Render("Please correct the following fields:"))
	b.WriteString("\n")
	for _, f := range errs.Fields() {
		for _, msg := range errs[f] {
			fmt.Fprintf(&b, "  • %s: %s\n", f, msg)
		}
	}
	return b.String()
}

// RenderWarnings lists locally computed marker warnings.
func RenderWarnings(warnings []domain.MedicalWarning) string {
	if len(warnings) == 0 {
		return mutedStyle.Render(NoInsights) + "\n"
	}
	var b strings.Builder
	for _, w := range warnings {
		badge := lipgloss.NewStyle().Foreground(TierColor(SeverityTier(w.Severity))).Render("[" + SeverityLabel(w.Severity) + "]")
		fmt.Fprintf(&b, "%s %s\n", badge, w.Message)
	}
	return b.String()
}
