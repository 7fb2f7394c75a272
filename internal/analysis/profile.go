package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/bikedash/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// OutlierThreshold is the robust |z| above which a value counts as an outlier.
const OutlierThreshold = 3.5

// ColumnProfile summarizes one column of a loaded dataset.
type ColumnProfile struct {
	Name string
	Kind string // numeric|categorical
	// Numeric stats
	Min, Max, Mean, Std float64
	Outliers            int
	MaxAbsZ             float64
	// Categorical top values
	Unique    int
	TopValues []KeyCount
}

// PairCorr is the Pearson correlation between two numeric columns.
type PairCorr struct {
	A, B string
	R    float64
}

// DatasetProfile is a schema-level summary of one dataset.
type DatasetProfile struct {
	Name  string
	Rows  int
	Span  dataset.DateRange
	Cols  []ColumnProfile
	Corrs []PairCorr
}

type numericCol struct {
	name string
	vals []float64
}

type categoryCol struct {
	name string
	vals []string
}

// ProfileDays profiles the daily dataset.
func ProfileDays(days []dataset.DayRecord) DatasetProfile {
	p := DatasetProfile{Name: "day", Rows: len(days)}
	p.Span, _ = dataset.Span(days)
	num := []numericCol{{name: "humidity"}, {name: "count_rent"}, {name: "registered"}, {name: "casual"}}
	cat := []categoryCol{{name: "season"}, {name: "weather_situation"}, {name: "category_days"}}
	for _, d := range days {
		num[0].vals = append(num[0].vals, d.Humidity)
		num[1].vals = append(num[1].vals, float64(d.CountRent))
		num[2].vals = append(num[2].vals, float64(d.Registered))
		num[3].vals = append(num[3].vals, float64(d.Casual))
		cat[0].vals = append(cat[0].vals, d.Season)
		cat[1].vals = append(cat[1].vals, d.Weather)
		cat[2].vals = append(cat[2].vals, d.DayType)
	}
	p.fill(num, cat)
	return p
}

// ProfileHours profiles the hourly dataset.
func ProfileHours(hours []dataset.HourRecord) DatasetProfile {
	p := DatasetProfile{Name: "hour", Rows: len(hours)}
	for i, h := range hours {
		if i == 0 || h.Date.Before(p.Span.Start) {
			p.Span.Start = h.Date
		}
		if h.Date.After(p.Span.End) {
			p.Span.End = h.Date
		}
	}
	num := []numericCol{{name: "hours"}, {name: "count_rent"}, {name: "registered"}, {name: "casual"}}
	cat := []categoryCol{{name: "category_days"}}
	for _, h := range hours {
		num[0].vals = append(num[0].vals, float64(h.Hour))
		num[1].vals = append(num[1].vals, float64(h.CountRent))
		num[2].vals = append(num[2].vals, float64(h.Registered))
		num[3].vals = append(num[3].vals, float64(h.Casual))
		cat[0].vals = append(cat[0].vals, h.DayType)
	}
	p.fill(num, cat)
	return p
}

func (p *DatasetProfile) fill(num []numericCol, cat []categoryCol) {
	for _, c := range num {
		p.Cols = append(p.Cols, numericProfile(c.name, c.vals))
	}
	for _, c := range cat {
		p.Cols = append(p.Cols, categoryProfile(c.name, c.vals))
	}
	for i := 0; i < len(num); i++ {
		for j := i + 1; j < len(num); j++ {
			if len(num[i].vals) < 2 {
				continue
			}
			r := stat.Correlation(num[i].vals, num[j].vals, nil)
			if math.IsNaN(r) {
				continue
			}
			p.Corrs = append(p.Corrs, PairCorr{A: num[i].name, B: num[j].name, R: r})
		}
	}
	sort.SliceStable(p.Corrs, func(a, b int) bool { return math.Abs(p.Corrs[a].R) > math.Abs(p.Corrs[b].R) })
}

func numericProfile(name string, vals []float64) ColumnProfile {
	c := ColumnProfile{Name: name, Kind: "numeric"}
	if len(vals) == 0 {
		return c
	}
	c.Min, c.Max = vals[0], vals[0]
	for _, v := range vals[1:] {
		c.Min, c.Max = math.Min(c.Min, v), math.Max(c.Max, v)
	}
	if len(vals) > 1 {
		c.Mean, c.Std = stat.MeanStdDev(vals, nil)
	} else {
		c.Mean = vals[0]
	}
	median, mad := medianMAD(vals)
	if mad > 0 {
		for _, v := range vals {
			z := math.Abs(0.6745 * (v - median) / mad)
			if z > OutlierThreshold {
				c.Outliers++
			}
			c.MaxAbsZ = math.Max(c.MaxAbsZ, z)
		}
	}
	return c
}

func categoryProfile(name string, vals []string) ColumnProfile {
	c := ColumnProfile{Name: name, Kind: "categorical"}
	order, sums := sumBy(vals, func(s string) string { return s }, func(string) int64 { return 1 })
	if len(order) == 1 && order[0] == "" {
		order = nil
	}
	c.Unique = len(order)
	top := keyCounts(order, sums)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	if len(top) > 5 {
		top = top[:5]
	}
	c.TopValues = top
	return c
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// Markdown renders the profile in the same bracketed layout as reports.
func (p DatasetProfile) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[DATASET SUMMARY: %s]\n", strings.ToUpper(p.Name)))
	b.WriteString(fmt.Sprintf("Rows: %d\n", p.Rows))
	if p.Rows > 0 {
		b.WriteString(fmt.Sprintf("Dates: %s\n", p.Span))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(p.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range p.Cols {
		b.WriteString(fmt.Sprintf("- %s: %s", c.Name, c.Kind))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(" (min %.4g, max %.4g, mean %.4g, std %.4g)", c.Min, c.Max, c.Mean, c.Std))
			if c.Outliers > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f (max |z|≈%.2f)", c.Outliers, OutlierThreshold, c.MaxAbsZ))
			}
		case "categorical":
			if c.Unique == 0 {
				b.WriteString(" (absent)")
				break
			}
			parts := make([]string, 0, len(c.TopValues))
			for _, kv := range c.TopValues {
				parts = append(parts, fmt.Sprintf("%s(%d)", kv.Key, kv.Count))
			}
			b.WriteString(" top: " + strings.Join(parts, ", "))
			if c.Unique > len(c.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
		}
		b.WriteString("\n")
	}
	if len(p.Corrs) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, pc := range p.Corrs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", pc.A, pc.B, pc.R))
		}
	}
	return b.String()
}
