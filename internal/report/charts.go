package report

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io"
	"math"
	"strings"
	"time"

	"github.com/KaramelBytes/bikedash/internal/analysis"
	"github.com/KaramelBytes/bikedash/internal/dataset"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"
)

// ChartOptions sizes every rendered chart.
type ChartOptions struct {
	Width  int
	Height int
}

// DefaultChartOptions matches the config defaults.
func DefaultChartOptions() ChartOptions { return ChartOptions{Width: 960, Height: 480} }

// Chart is one rendered SVG chart. SVG is empty when Placeholder is set.
type Chart struct {
	ID          string
	Title       string
	SVG         template.HTML
	Placeholder string
}

const (
	noData       = "No data for this date range."
	tooFewPoints = "Not enough days in this range to draw a line."
	renderFailed = "Chart could not be rendered."
)

// errTooFewPoints marks a line chart whose data cannot span an axis.
var errTooFewPoints = errors.New("too few points")

func tooFew(io.Writer) error { return errTooFewPoints }

// svgText escapes text that go-chart writes verbatim into <text> elements.
func svgText(s string) string { return html.EscapeString(s) }

var (
	profileColors  = []string{"#E41A1C", "#377EB8", "#4DAF4A", "#984EA3"}
	segmentPalette = dataset.Palette{
		Order: []string{string(analysis.TopCustomer), string(analysis.Loyal), string(analysis.AtRisk), string(analysis.Others)},
		Colors: map[string]string{
			string(analysis.TopCustomer): "#66C2A5",
			string(analysis.Loyal):       "#FC8D62",
			string(analysis.AtRisk):      "#8DA0CB",
			string(analysis.Others):      "#E78AC3",
		},
	}
)

const (
	trendColor    = "#90CAF9"
	humidityColor = "#42A5F5"
)

func hex(c string) drawing.Color { return drawing.ColorFromHex(strings.TrimPrefix(c, "#")) }

// RenderCharts draws every chart of the dashboard in display order. A chart
// that has no data or fails to render becomes a placeholder; failures are
// logged and never abort the others.
func RenderCharts(r *Report, opts ChartOptions, logger *zap.Logger) []Chart {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultChartOptions()
	}
	c := charter{opts: opts, logger: logger}

	charts := []Chart{
		c.render("season", "Rentals by Season", categoryBars(byPalette(r.Seasons, dataset.SeasonPalette), dataset.SeasonPalette, opts)),
		c.render("weather", "Rentals by Weather", categoryBars(byPalette(r.Weather, dataset.WeatherPalette), dataset.WeatherPalette, opts)),
		c.render("busiest-hours", "Busiest Hours", hourBars(r.BusiestHours, "#72BCD4", opts)),
		c.render("quietest-hours", "Quietest Hours", hourBars(r.QuietestHours, "#D3D3D3", opts)),
		c.render("hourly-profile", "Hourly Rentals: Weekday vs Weekend", profileChart(r.Profile, opts)),
		c.render("day-type", "Rentals by Day Type", categoryBars(byPalette(r.DayTypes, dataset.DayTypePalette), dataset.DayTypePalette, opts)),
		c.render("user-share", "Registered vs Casual", sharePie(r.Share, opts)),
		c.render("humidity", "Humidity vs Rentals", humidityChart(r.Humidity, opts)),
		c.render("daily-trend", "Daily Rentals", trendChart(r.Daily, opts)),
	}
	if r.GroupingNote != "" {
		rfm := Chart{ID: "rfm", Title: "RFM Segments", Placeholder: r.SegmentWarning}
		if r.SegmentWarning == "" {
			rfm = c.render("rfm", "RFM Segments", rfmChart(r.RFM, opts))
		}
		charts = append(charts, rfm)
	}
	return charts
}

type renderFunc func(w io.Writer) error

type charter struct {
	opts   ChartOptions
	logger *zap.Logger
}

func (c charter) render(id, title string, fn renderFunc) (out Chart) {
	out = Chart{ID: id, Title: title}
	if fn == nil {
		out.Placeholder = noData
		return out
	}
	defer func() {
		if p := recover(); p != nil {
			c.logger.Warn("chart render panicked", zap.String("chart", id), zap.Any("panic", p))
			out.SVG, out.Placeholder = "", renderFailed
		}
	}()
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		if errors.Is(err, errTooFewPoints) {
			out.Placeholder = tooFewPoints
			return out
		}
		c.logger.Warn("chart render failed", zap.String("chart", id), zap.Error(err))
		out.Placeholder = renderFailed
		return out
	}
	out.SVG = template.HTML(buf.String())
	return out
}

// yRange pads the top of a non-negative axis so bars never touch the frame.
func yRange(max float64) *chart.ContinuousRange {
	if max <= 0 {
		max = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: max * 1.1}
}

func barWidth(n int, opts ChartOptions) int {
	w := (opts.Width - 120) / (n*4/3 + 1)
	if w > 80 {
		w = 80
	}
	if w < 8 {
		w = 8
	}
	return w
}

func countFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return FormatThousands(int64(math.Round(f)))
	}
	return ""
}

func categoryBars(counts []analysis.KeyCount, p dataset.Palette, opts ChartOptions) renderFunc {
	if len(counts) == 0 {
		return nil
	}
	bars := make([]chart.Value, 0, len(counts))
	var max float64
	for _, kc := range counts {
		col := hex(p.Color(kc.Key))
		bars = append(bars, chart.Value{
			Label: svgText(kc.Key),
			Value: float64(kc.Count),
			Style: chart.Style{FillColor: col, StrokeColor: col},
		})
		max = math.Max(max, float64(kc.Count))
	}
	return barChart(bars, max, opts)
}

func hourBars(hours []analysis.HourCount, color string, opts ChartOptions) renderFunc {
	if len(hours) == 0 {
		return nil
	}
	col := hex(color)
	bars := make([]chart.Value, 0, len(hours))
	var max float64
	for _, h := range hours {
		bars = append(bars, chart.Value{
			Label: hourLabel(h.Hour),
			Value: float64(h.Count),
			Style: chart.Style{FillColor: col, StrokeColor: col},
		})
		max = math.Max(max, float64(h.Count))
	}
	return barChart(bars, max, opts)
}

func barChart(bars []chart.Value, max float64, opts ChartOptions) renderFunc {
	return func(w io.Writer) error {
		bc := chart.BarChart{
			Width:    opts.Width,
			Height:   opts.Height,
			BarWidth: barWidth(len(bars), opts),
			Background: chart.Style{
				Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16},
			},
			YAxis: chart.YAxis{
				Range:          yRange(max),
				ValueFormatter: countFormatter,
			},
			Bars: bars,
		}
		return bc.Render(chart.SVG, w)
	}
}

func sharePie(shares []analysis.Share, opts ChartOptions) renderFunc {
	var total int64
	for _, s := range shares {
		total += s.Value
	}
	if total == 0 {
		return nil
	}
	values := make([]chart.Value, 0, len(shares))
	for _, s := range shares {
		values = append(values, chart.Value{
			Label: svgText(fmt.Sprintf("%s %.1f%%", s.Label, s.Percent)),
			Value: float64(s.Value),
			Style: chart.Style{FillColor: hex(dataset.UserPalette.Color(s.Label))},
		})
	}
	return func(w io.Writer) error {
		pc := chart.PieChart{Width: opts.Height, Height: opts.Height, Values: values}
		return pc.Render(chart.SVG, w)
	}
}

func seriesChart(series []chart.Series, xAxis chart.XAxis, yMax float64, legend bool, opts ChartOptions) renderFunc {
	return func(w io.Writer) error {
		ch := chart.Chart{
			Width:      opts.Width,
			Height:     opts.Height,
			Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 16, Bottom: 16}},
			XAxis:      xAxis,
			YAxis:      chart.YAxis{Range: yRange(yMax), ValueFormatter: countFormatter},
			Series:     series,
		}
		if legend {
			ch.Elements = []chart.Renderable{chart.Legend(&ch)}
		}
		return ch.Render(chart.SVG, w)
	}
}

func profileChart(profile []analysis.ProfileSeries, opts ChartOptions) renderFunc {
	var series []chart.Series
	var max float64
	var points int
	for i, s := range profile {
		points += len(s.Points)
		if len(s.Points) < 2 {
			continue
		}
		col := hex(profileColors[i%len(profileColors)])
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for j, p := range s.Points {
			xs[j], ys[j] = float64(p.Hour), p.Mean
			max = math.Max(max, p.High)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    svgText(s.DayType),
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: col, StrokeWidth: 2, DotColor: col, DotWidth: 3},
		})
	}
	if len(series) == 0 {
		if points > 0 {
			return tooFew
		}
		return nil
	}
	xAxis := chart.XAxis{
		Name:           "Hour",
		Range:          &chart.ContinuousRange{Min: 0, Max: 23},
		ValueFormatter: func(v interface{}) string { return fmt.Sprintf("%.0f", v) },
	}
	return seriesChart(series, xAxis, max, true, opts)
}

func humidityChart(t analysis.Trend, opts ChartOptions) renderFunc {
	if len(t.Points) == 0 {
		return nil
	}
	xs := make([]float64, len(t.Points))
	ys := make([]float64, len(t.Points))
	var max float64
	for i, p := range t.Points {
		xs[i], ys[i] = p.Humidity, float64(p.Count)
		max = math.Max(max, ys[i])
	}
	if xs[0] == xs[len(xs)-1] {
		return tooFew
	}
	col := hex(humidityColor)
	series := []chart.Series{chart.ContinuousSeries{
		Name:    "days",
		XValues: xs,
		YValues: ys,
		Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: 3, DotColor: col.WithAlpha(200)},
	}}
	if f := t.Fit; f != nil {
		lo, hi := xs[0], xs[len(xs)-1]
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("fit (r=%.2f)", f.R),
			XValues: []float64{lo, hi},
			YValues: []float64{f.At(lo), f.At(hi)},
			Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 2},
		})
		max = math.Max(max, math.Max(f.At(lo), f.At(hi)))
	}
	return seriesChart(series, chart.XAxis{Name: "Humidity"}, max, true, opts)
}

func trendChart(daily []analysis.DateCount, opts ChartOptions) renderFunc {
	switch len(daily) {
	case 0:
		return nil
	case 1:
		return tooFew
	}
	xs := make([]time.Time, len(daily))
	ys := make([]float64, len(daily))
	var max float64
	for i, d := range daily {
		xs[i], ys[i] = d.Date, float64(d.Count)
		max = math.Max(max, ys[i])
	}
	col := hex(trendColor)
	series := []chart.Series{chart.TimeSeries{
		Name:    "count_rent",
		XValues: xs,
		YValues: ys,
		Style:   chart.Style{StrokeColor: col, StrokeWidth: 2, DotColor: col, DotWidth: 2},
	}}
	xAxis := chart.XAxis{Name: "Date", ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02")}
	return seriesChart(series, xAxis, max, false, opts)
}

// rfmChart plots recency against frequency, one series per segment, with dot
// size scaled by monetary value.
func rfmChart(res *analysis.RFMResult, opts ChartOptions) renderFunc {
	if res == nil || len(res.Rows) == 0 {
		return nil
	}
	var minM, maxM float64 = math.MaxFloat64, 0
	var maxF float64
	for _, r := range res.Rows {
		m := float64(r.Monetary)
		minM, maxM = math.Min(minM, m), math.Max(maxM, m)
		maxF = math.Max(maxF, float64(r.Frequency))
	}
	size := func(m float64) float64 {
		if maxM == minM {
			return 6
		}
		return 3 + 9*(m-minM)/(maxM-minM)
	}

	var series []chart.Series
	for _, seg := range analysis.SegmentOrder {
		var xs, ys, sizes []float64
		for _, r := range res.Rows {
			if r.Segment != seg {
				continue
			}
			xs = append(xs, float64(r.Recency))
			ys = append(ys, float64(r.Frequency))
			sizes = append(sizes, size(float64(r.Monetary)))
		}
		if len(xs) == 0 {
			continue
		}
		col := hex(segmentPalette.Color(string(seg))).WithAlpha(204)
		series = append(series, chart.ContinuousSeries{
			Name:    svgText(string(seg)),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotColor:    col,
				DotWidth:    6,
				DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
					return sizes[index]
				},
			},
		})
	}
	xAxis := chart.XAxis{Name: "Recency (days since last rental)"}
	return seriesChart(series, xAxis, maxF, true, opts)
}
