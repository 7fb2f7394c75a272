package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/bikedash/internal/analysis"
	"github.com/KaramelBytes/bikedash/internal/dataset"
)

// Markdown renders the report as plain sections suitable for a terminal or a
// Markdown file.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[BIKE SHARING REPORT]\n")
	b.WriteString(fmt.Sprintf("Range: %s (%d days)\n", r.Range, r.Range.Days()))
	b.WriteString(fmt.Sprintf("Available: %s\n", r.Span))
	b.WriteString(fmt.Sprintf("Rows: %d daily, %d hourly\n", r.DayRows, r.HourRows))
	b.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))

	b.WriteString("[SUMMARY]\n")
	for _, c := range r.Cards() {
		b.WriteString(fmt.Sprintf("- %s: %s\n", c.Label, c.Value))
	}
	for _, s := range r.Share {
		b.WriteString(fmt.Sprintf("- %s share: %.1f%%\n", s.Label, s.Percent))
	}
	for _, w := range r.Warnings {
		b.WriteString("⚠ " + w + "\n")
	}

	writeCounts(&b, "SEASON", byPalette(r.Seasons, dataset.SeasonPalette))
	writeCounts(&b, "WEATHER", byPalette(r.Weather, dataset.WeatherPalette))
	writeCounts(&b, "DAY TYPE", byPalette(r.DayTypes, dataset.DayTypePalette))
	writeHours(&b, "BUSIEST HOURS", r.BusiestHours)
	writeHours(&b, "QUIETEST HOURS", r.QuietestHours)

	if len(r.Profile) > 0 {
		b.WriteString("\n[HOURLY PROFILE]\n")
		for _, s := range r.Profile {
			b.WriteString(fmt.Sprintf("- %s\n", s.DayType))
			for _, p := range s.Points {
				b.WriteString(fmt.Sprintf("  %s mean %.1f (95%% CI %.1f..%.1f, n=%d)\n", hourLabel(p.Hour), p.Mean, p.Low, p.High, p.N))
			}
		}
	}

	b.WriteString("\n[HUMIDITY]\n")
	if f := r.Humidity.Fit; f != nil {
		b.WriteString(fmt.Sprintf("count_rent ≈ %.1f + %.1f × humidity (r=%.3f, n=%d)\n", f.Intercept, f.Slope, f.R, len(r.Humidity.Points)))
	} else {
		b.WriteString("not enough variation to fit a line\n")
	}

	if len(r.Daily) > 0 {
		peak := r.Daily[0]
		for _, d := range r.Daily[1:] {
			if d.Count > peak.Count {
				peak = d
			}
		}
		b.WriteString("\n[DAILY TREND]\n")
		b.WriteString(fmt.Sprintf("Days: %d, peak %s on %s\n", len(r.Daily), FormatThousands(peak.Count), peak.Date.Format("2006-01-02")))
	}

	if r.GroupingNote != "" {
		b.WriteString("\n[SEGMENTS]\n")
		b.WriteString("Note: " + r.GroupingNote + "\n")
		if r.SegmentWarning != "" {
			b.WriteString("⚠ " + r.SegmentWarning + "\n")
		} else {
			b.WriteString(fmt.Sprintf("Reference date: %s, groups: %d\n", r.RFM.ReferenceDate.Format("2006-01-02"), len(r.RFM.Rows)))
			for _, s := range r.Segments {
				b.WriteString(fmt.Sprintf("- %s: %d groups, %s rentals\n", s.Segment, s.Groups, FormatThousands(s.Rentals)))
			}
		}
	}
	return b.String()
}

func writeCounts(b *strings.Builder, title string, counts []analysis.KeyCount) {
	b.WriteString("\n[" + title + "]\n")
	if len(counts) == 0 {
		b.WriteString("no data\n")
		return
	}
	for _, c := range counts {
		b.WriteString(fmt.Sprintf("- %s: %s\n", c.Key, FormatThousands(c.Count)))
	}
}

func writeHours(b *strings.Builder, title string, hours []analysis.HourCount) {
	b.WriteString("\n[" + title + "]\n")
	if len(hours) == 0 {
		b.WriteString("no data\n")
		return
	}
	for _, h := range hours {
		b.WriteString(fmt.Sprintf("- %s: %s\n", hourLabel(h.Hour), FormatThousands(h.Count)))
	}
}
