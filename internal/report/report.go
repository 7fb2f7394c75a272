// Package report runs the dashboard pipeline over loaded datasets and renders
// the result as Markdown, HTML, terminal text or JSON.
package report

import (
	"errors"
	"time"

	"github.com/KaramelBytes/bikedash/internal/analysis"
	"github.com/KaramelBytes/bikedash/internal/dataset"
	"github.com/google/uuid"
)

// ErrNoDays is returned by Build when the daily dataset has no rows, so no
// date span exists to filter against.
var ErrNoDays = errors.New("daily dataset is empty")

// Params selects what Build computes.
type Params struct {
	// Range defaults to the full span of the daily dataset when zero.
	Range dataset.DateRange
	// Segmentation enables RFM scoring of the hourly rows.
	Segmentation bool
	// HourRankLimit caps the busiest and quietest hour tables. Zero keeps all.
	HourRankLimit int
}

// DefaultParams covers the full span with segmentation and five ranked hours.
func DefaultParams() Params {
	return Params{Segmentation: true, HourRankLimit: 5}
}

// Report is one fully computed pipeline run.
type Report struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Span        dataset.DateRange `json:"span"`
	Range       dataset.DateRange `json:"range"`
	DayRows     int               `json:"day_rows"`
	HourRows    int               `json:"hour_rows"`

	Totals analysis.Totals  `json:"totals"`
	Share  []analysis.Share `json:"user_share"`

	Seasons  []analysis.KeyCount `json:"seasons"`
	Weather  []analysis.KeyCount `json:"weather"`
	DayTypes []analysis.KeyCount `json:"day_types"`

	Hours         []analysis.HourCount `json:"hours"`
	BusiestHours  []analysis.HourCount `json:"busiest_hours"`
	QuietestHours []analysis.HourCount `json:"quietest_hours"`

	Daily      []analysis.DateCount `json:"daily"`
	Registered []analysis.DateCount `json:"registered_daily"`
	Casual     []analysis.DateCount `json:"casual_daily"`

	Profile  []analysis.ProfileSeries `json:"hourly_profile"`
	Humidity analysis.Trend           `json:"humidity"`

	RFM            *analysis.RFMResult     `json:"rfm,omitempty"`
	Segments       []analysis.SegmentCount `json:"segments,omitempty"`
	SegmentErr     error                   `json:"-"`
	SegmentWarning string                  `json:"segment_warning,omitempty"`
	GroupingNote   string                  `json:"grouping_note,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
}

// Build filters ds to p.Range and computes every aggregate. The range is
// used as given; callers validate it against the span first.
func Build(ds *dataset.Datasets, p Params) (*Report, error) {
	if ds == nil {
		return nil, ErrNoDays
	}
	span, ok := dataset.Span(ds.Days)
	if !ok {
		return nil, ErrNoDays
	}
	rng := p.Range
	if rng.IsZero() {
		rng = span
	}
	filtered := ds.Filter(rng)
	days, hours := filtered.Days, filtered.Hours

	r := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Span:        span,
		Range:       rng,
		DayRows:     len(days),
		HourRows:    len(hours),

		Totals:   analysis.SumTotals(days),
		Seasons:  analysis.CountBySeason(days),
		Weather:  analysis.CountByWeather(days),
		DayTypes: analysis.CountByDayType(days),

		Hours:         analysis.CountByHour(hours),
		BusiestHours:  limit(analysis.RankHours(hours), p.HourRankLimit),
		QuietestHours: limit(analysis.QuietestHours(hours), p.HourRankLimit),

		Daily:      analysis.CountByDate(days),
		Registered: analysis.RegisteredByDate(days),
		Casual:     analysis.CasualByDate(days),

		Profile:  analysis.HourlyProfile(hours),
		Humidity: analysis.HumidityTrend(days),
	}
	r.Share = analysis.UserShare(r.Totals)

	if len(days) == 0 {
		r.Warnings = append(r.Warnings, "No daily rows in "+rng.String()+".")
	}
	if len(hours) == 0 {
		r.Warnings = append(r.Warnings, "No hourly rows in "+rng.String()+".")
	}

	if p.Segmentation {
		r.GroupingNote = analysis.GroupingNote
		res, err := analysis.ScoreRFM(hours)
		if err != nil {
			r.SegmentErr = err
			r.SegmentWarning = segmentWarning(err)
		} else {
			r.RFM = res
			r.Segments = analysis.SummarizeSegments(res)
		}
	}
	return r, nil
}

func segmentWarning(err error) string {
	switch {
	case errors.Is(err, analysis.ErrNoSegmentData):
		return "No data for segmentation in this date range."
	case errors.Is(err, analysis.ErrTooFewGroups):
		return "Not enough distinct groups in this date range to split into tertiles."
	case errors.Is(err, analysis.ErrDegenerateBins):
		return "Recency values in this date range are too uniform to split into tertiles."
	}
	return "Segmentation failed: " + err.Error()
}

func limit(hours []analysis.HourCount, n int) []analysis.HourCount {
	if n > 0 && len(hours) > n {
		return hours[:n]
	}
	return hours
}
