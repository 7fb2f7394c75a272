package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/bikedash/internal/analysis"
	"github.com/KaramelBytes/bikedash/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := dataset.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func fixture() *dataset.Datasets {
	days := []dataset.DayRecord{
		{Date: day("2011-01-01"), Season: "Summer", Weather: "Clear", DayType: "weekend", Humidity: 0.3, CountRent: 10, Registered: 6, Casual: 4},
		{Date: day("2011-01-02"), Season: "Spring", Weather: "Mist", DayType: "weekend", Humidity: 0.5, CountRent: 20, Registered: 15, Casual: 5},
		{Date: day("2011-01-03"), Season: "Spring", Weather: "Clear", DayType: "weekday", Humidity: 0.7, CountRent: 30, Registered: 25, Casual: 5},
		{Date: day("2011-01-04"), Season: "Spring", Weather: "Clear", DayType: "weekday", Humidity: 0.6, CountRent: 1500, Registered: 1200, Casual: 300},
	}
	var hours []dataset.HourRecord
	regs := []int64{3, 5, 8, 13, 21, 34}
	for i, reg := range regs {
		d := days[i%len(days)]
		hours = append(hours,
			dataset.HourRecord{Instant: int64(2*i + 1), Date: d.Date, Hour: i, DayType: d.DayType, CountRent: reg + 1, Registered: reg, Casual: 1},
			dataset.HourRecord{Instant: int64(2*i + 2), Date: d.Date, Hour: i + 6, DayType: d.DayType, CountRent: reg + 2, Registered: reg, Casual: 2},
		)
	}
	return &dataset.Datasets{Days: days, Hours: hours}
}

func TestFormatThousands(t *testing.T) {
	assert.Equal(t, "50", FormatThousands(50))
	assert.Equal(t, "1.234", FormatThousands(1234))
	assert.Equal(t, "3.292.679", FormatThousands(3292679))
	assert.Equal(t, "0", FormatThousands(0))
}

func TestBuildFiltersToRange(t *testing.T) {
	p := DefaultParams()
	p.Range = dataset.NewDateRange(day("2011-01-02"), day("2011-01-03"))
	r, err := Build(fixture(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(50), r.Totals.CountRent)
	assert.Equal(t, "50", r.Cards()[0].Value)
	assert.Equal(t, 2, r.DayRows)
	assert.Equal(t, "2011-01-01..2011-01-04", r.Span.String())
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, []analysis.KeyCount{{Key: "Spring", Count: 50}}, r.Seasons)
}

func TestBuildDefaultsToFullSpan(t *testing.T) {
	r, err := Build(fixture(), DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, r.Span, r.Range)
	assert.Equal(t, int64(1560), r.Totals.CountRent)
	assert.Equal(t, "1.560", r.Cards()[0].Value)
	assert.LessOrEqual(t, len(r.BusiestHours), 5)
	assert.Equal(t, analysis.SumDateCounts(r.Daily), r.Totals.CountRent)
}

func TestBuildEmptyRangeIsNotFatal(t *testing.T) {
	p := DefaultParams()
	p.Range = dataset.NewDateRange(day("2012-01-01"), day("2012-01-02"))
	r, err := Build(fixture(), p)
	require.NoError(t, err)
	assert.Zero(t, r.Totals.CountRent)
	assert.Empty(t, r.Seasons)
	assert.ErrorIs(t, r.SegmentErr, analysis.ErrNoSegmentData)
	assert.NotEmpty(t, r.SegmentWarning)
	assert.Len(t, r.Warnings, 2)

	md := r.Markdown()
	assert.Contains(t, md, r.SegmentWarning)
	assert.Contains(t, md, "no data")

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, r, HTMLOptions{}))
	assert.Contains(t, buf.String(), noData)
	assert.Contains(t, buf.String(), r.SegmentWarning)
}

func TestBuildWithoutDays(t *testing.T) {
	_, err := Build(&dataset.Datasets{}, DefaultParams())
	assert.ErrorIs(t, err, ErrNoDays)
	_, err = Build(nil, DefaultParams())
	assert.ErrorIs(t, err, ErrNoDays)
}

func TestBuildSegmentationToggle(t *testing.T) {
	p := DefaultParams()
	p.Segmentation = false
	r, err := Build(fixture(), p)
	require.NoError(t, err)
	assert.Nil(t, r.RFM)
	assert.Empty(t, r.GroupingNote)

	r, err = Build(fixture(), DefaultParams())
	require.NoError(t, err)
	require.NotNil(t, r.RFM)
	assert.Len(t, r.RFM.Rows, 6)
	assert.Len(t, r.Segments, len(analysis.SegmentOrder))
	assert.Contains(t, r.Markdown(), analysis.GroupingNote)
}

func TestMarkdownSections(t *testing.T) {
	r, err := Build(fixture(), DefaultParams())
	require.NoError(t, err)
	md := r.Markdown()
	for _, section := range []string{"[SUMMARY]", "[SEASON]", "[WEATHER]", "[DAY TYPE]", "[BUSIEST HOURS]", "[QUIETEST HOURS]", "[HOURLY PROFILE]", "[HUMIDITY]", "[SEGMENTS]"} {
		assert.Contains(t, md, section)
	}
	assert.Contains(t, md, "- Total Rentals: 1.560")
	// palette order puts Spring before Summer even though Summer is seen first
	assert.Less(t, strings.Index(md, "- Spring:"), strings.Index(md, "- Summer:"))
}

func TestRenderHTML(t *testing.T) {
	r, err := Build(fixture(), DefaultParams())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, r, HTMLOptions{Charts: ChartOptions{Width: 640, Height: 320}}))
	page := buf.String()
	assert.Contains(t, page, "1.560")
	assert.Contains(t, page, `min="2011-01-01"`)
	assert.Contains(t, page, `max="2011-01-04"`)
	assert.Contains(t, page, `id="season"`)
	assert.Contains(t, page, "<svg")
}

func TestRenderHTMLEscapesCategoryLabels(t *testing.T) {
	ds := fixture()
	ds.Days[0].Season = "<script>alert(1)</script>"
	ds.Days[0].Weather = "Rain & Snow"
	ds.Days[0].DayType = "<b>holiday</b>"
	r, err := Build(ds, DefaultParams())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, r, HTMLOptions{}))
	page := buf.String()
	assert.NotContains(t, page, "<script>")
	assert.NotContains(t, page, "<b>holiday</b>")
	assert.NotContains(t, page, "Rain & Snow")
	assert.Contains(t, page, "&lt;script&gt;")
}

func TestRenderChartsSingleDay(t *testing.T) {
	p := DefaultParams()
	p.Range = dataset.NewDateRange(day("2011-01-04"), day("2011-01-04"))
	r, err := Build(fixture(), p)
	require.NoError(t, err)
	require.Equal(t, 1, r.DayRows)

	byID := map[string]Chart{}
	for _, c := range RenderCharts(r, ChartOptions{}, nil) {
		byID[c.ID] = c
	}
	assert.Equal(t, tooFewPoints, byID["humidity"].Placeholder)
	assert.Equal(t, tooFewPoints, byID["daily-trend"].Placeholder)
	assert.NotEmpty(t, byID["season"].SVG)
}

func TestRenderChartsIsolatesEmptyCharts(t *testing.T) {
	r, err := Build(fixture(), DefaultParams())
	require.NoError(t, err)
	r.Weather = nil
	charts := RenderCharts(r, ChartOptions{}, nil)
	byID := map[string]Chart{}
	for _, c := range charts {
		byID[c.ID] = c
	}
	assert.Equal(t, noData, byID["weather"].Placeholder)
	assert.Empty(t, byID["weather"].SVG)
	assert.NotEmpty(t, byID["season"].SVG)
	assert.Contains(t, byID, "rfm")
}

func TestRenderText(t *testing.T) {
	r, err := Build(fixture(), DefaultParams())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, r))
	out := buf.String()
	assert.Contains(t, out, "1.560")
	assert.Contains(t, out, "Busiest hours")
	assert.Contains(t, out, analysis.GroupingNote)
}

func TestRenderJSON(t *testing.T) {
	r, err := Build(fixture(), DefaultParams())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, r))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, map[string]any{"start": "2011-01-01", "end": "2011-01-04"}, decoded["range"])
	assert.Contains(t, decoded, "seasons")
	assert.NotContains(t, decoded, "SegmentErr")
}

func TestExport(t *testing.T) {
	ds := fixture()
	p := DefaultParams()
	p.Range = dataset.NewDateRange(day("2011-01-02"), day("2011-01-04"))
	r, err := Build(ds, p)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	files, err := Export(dir, ds, r)
	require.NoError(t, err)
	assert.Contains(t, files, filepath.Join(dir, "day.parquet"))
	assert.Contains(t, files, filepath.Join(dir, "report.json"))

	days, err := dataset.LoadDays(filepath.Join(dir, "day.parquet"))
	require.NoError(t, err)
	assert.Equal(t, dataset.FilterDays(ds.Days, r.Range), days)

	_, err = os.Stat(filepath.Join(dir, "season.parquet"))
	assert.NoError(t, err)
}
