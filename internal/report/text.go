package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/bikedash/internal/analysis"
	"github.com/KaramelBytes/bikedash/internal/dataset"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent = lipgloss.Color("#72BCD4")
	colorWarn   = lipgloss.Color("11")
	colorDim    = lipgloss.Color("8")

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	cardStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(0, 2).Width(22)
	cardLabelStyle = lipgloss.NewStyle().Foreground(colorDim)
	cardValueStyle = lipgloss.NewStyle().Bold(true)
	headerStyle    = lipgloss.NewStyle().Bold(true).MarginTop(1)
	warnStyle      = lipgloss.NewStyle().Foreground(colorWarn)
	dimStyle       = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
)

const barCells = 30

// RenderText writes a terminal view of r: metric cards followed by compact
// tables with proportional bars.
func RenderText(w io.Writer, r *Report) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Bike Sharing Dashboard") + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s of %s", r.Range, r.Span)) + "\n")

	cards := r.Cards()
	rendered := make([]string, 0, len(cards))
	for _, c := range cards {
		rendered = append(rendered, cardStyle.Render(cardLabelStyle.Render(c.Label)+"\n"+cardValueStyle.Render(c.Value)))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...) + "\n")
	for _, warn := range r.Warnings {
		b.WriteString(warnStyle.Render("⚠ "+warn) + "\n")
	}

	textCounts(&b, "Season", byPalette(r.Seasons, dataset.SeasonPalette))
	textCounts(&b, "Weather", byPalette(r.Weather, dataset.WeatherPalette))
	textCounts(&b, "Day type", byPalette(r.DayTypes, dataset.DayTypePalette))
	textHours(&b, "Busiest hours", r.BusiestHours)
	textHours(&b, "Quietest hours", r.QuietestHours)

	b.WriteString(headerStyle.Render("Users") + "\n")
	for _, s := range r.Share {
		b.WriteString(fmt.Sprintf("  %-12s %5.1f%%\n", s.Label, s.Percent))
	}

	if r.GroupingNote != "" {
		b.WriteString(headerStyle.Render("Segments") + "\n")
		if r.SegmentWarning != "" {
			b.WriteString(warnStyle.Render("⚠ "+r.SegmentWarning) + "\n")
		} else {
			for _, s := range r.Segments {
				b.WriteString(fmt.Sprintf("  %-14s %4d groups %12s\n", s.Segment, s.Groups, FormatThousands(s.Rentals)))
			}
		}
		b.WriteString(dimStyle.Render(r.GroupingNote) + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func bar(v, max int64) string {
	if max <= 0 || v <= 0 {
		return ""
	}
	n := int(v * barCells / max)
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

func textCounts(b *strings.Builder, title string, counts []analysis.KeyCount) {
	b.WriteString(headerStyle.Render(title) + "\n")
	if len(counts) == 0 {
		b.WriteString(dimStyle.Render("  "+noData) + "\n")
		return
	}
	var max int64
	for _, c := range counts {
		if c.Count > max {
			max = c.Count
		}
	}
	for _, c := range counts {
		b.WriteString(fmt.Sprintf("  %-15s %12s %s\n", c.Key, FormatThousands(c.Count), bar(c.Count, max)))
	}
}

func textHours(b *strings.Builder, title string, hours []analysis.HourCount) {
	b.WriteString(headerStyle.Render(title) + "\n")
	if len(hours) == 0 {
		b.WriteString(dimStyle.Render("  "+noData) + "\n")
		return
	}
	var max int64
	for _, h := range hours {
		if h.Count > max {
			max = h.Count
		}
	}
	for _, h := range hours {
		b.WriteString(fmt.Sprintf("  %-15s %12s %s\n", hourLabel(h.Hour), FormatThousands(h.Count), bar(h.Count, max)))
	}
}
