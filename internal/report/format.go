package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/bikedash/internal/analysis"
	"github.com/KaramelBytes/bikedash/internal/dataset"
	"github.com/dustin/go-humanize"
)

// FormatThousands renders n with "." as the thousands separator.
func FormatThousands(n int64) string {
	return strings.ReplaceAll(humanize.Comma(n), ",", ".")
}

// Card is one headline metric.
type Card struct {
	Label string
	Value string
}

// Cards returns the three headline metrics of r.
func (r *Report) Cards() []Card {
	return []Card{
		{Label: "Total Rentals", Value: FormatThousands(r.Totals.CountRent)},
		{Label: "Total Registered", Value: FormatThousands(r.Totals.Registered)},
		{Label: "Total Casual", Value: FormatThousands(r.Totals.Casual)},
	}
}

// byPalette orders counts by the palette's category order. Categories the
// palette does not know keep their relative order after the known ones.
func byPalette(counts []analysis.KeyCount, p dataset.Palette) []analysis.KeyCount {
	out := append([]analysis.KeyCount(nil), counts...)
	sort.SliceStable(out, func(i, j int) bool { return p.Rank(out[i].Key) < p.Rank(out[j].Key) })
	return out
}

func hourLabel(h int) string { return fmt.Sprintf("%02d:00", h) }
