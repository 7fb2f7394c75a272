// Package analysis computes the aggregates and scores behind a usage report.
// Every function is pure: it reads the rows it is given and returns fresh
// slices in first-seen key order unless documented otherwise.
package analysis

import (
	"sort"
	"time"

	"github.com/KaramelBytes/bikedash/internal/dataset"
	"github.com/samber/lo"
)

// KeyCount is a categorical key and the summed rental count for it.
type KeyCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// HourCount is an hour of day and the summed rental count for it.
type HourCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// DateCount is a calendar date and a summed count for it.
type DateCount struct {
	Date  time.Time `json:"date"`
	Count int64     `json:"count"`
}

// Totals are the figures shown on the summary cards.
type Totals struct {
	CountRent  int64 `json:"count_rent"`
	Registered int64 `json:"registered"`
	Casual     int64 `json:"casual"`
}

// sumBy groups rows by key and sums val, keeping keys in first-seen order.
func sumBy[R any, K comparable](rows []R, key func(R) K, val func(R) int64) ([]K, map[K]int64) {
	var order []K
	sums := make(map[K]int64)
	for _, r := range rows {
		k := key(r)
		if _, seen := sums[k]; !seen {
			order = append(order, k)
		}
		sums[k] += val(r)
	}
	return order, sums
}

func keyCounts(order []string, sums map[string]int64) []KeyCount {
	out := make([]KeyCount, 0, len(order))
	for _, k := range order {
		out = append(out, KeyCount{Key: k, Count: sums[k]})
	}
	return out
}

func countRent(d dataset.DayRecord) int64 { return d.CountRent }

// CountBySeason sums count_rent per season.
func CountBySeason(days []dataset.DayRecord) []KeyCount {
	return keyCounts(sumBy(days, func(d dataset.DayRecord) string { return d.Season }, countRent))
}

// CountByWeather sums count_rent per weather situation.
func CountByWeather(days []dataset.DayRecord) []KeyCount {
	return keyCounts(sumBy(days, func(d dataset.DayRecord) string { return d.Weather }, countRent))
}

// CountByDayType sums count_rent per weekday/weekend category.
func CountByDayType(days []dataset.DayRecord) []KeyCount {
	return keyCounts(sumBy(days, func(d dataset.DayRecord) string { return d.DayType }, countRent))
}

// CountByHour sums count_rent per hour of day.
func CountByHour(hours []dataset.HourRecord) []HourCount {
	order, sums := sumBy(hours,
		func(h dataset.HourRecord) int { return h.Hour },
		func(h dataset.HourRecord) int64 { return h.CountRent })
	out := make([]HourCount, 0, len(order))
	for _, h := range order {
		out = append(out, HourCount{Hour: h, Count: sums[h]})
	}
	return out
}

// RankHours returns CountByHour sorted by count, highest first. Ties keep
// first-seen order.
func RankHours(hours []dataset.HourRecord) []HourCount {
	out := CountByHour(hours)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// QuietestHours returns CountByHour sorted by count, lowest first. Ties keep
// first-seen order.
func QuietestHours(hours []dataset.HourRecord) []HourCount {
	out := CountByHour(hours)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count < out[j].Count })
	return out
}

func byDate(days []dataset.DayRecord, val func(dataset.DayRecord) int64) []DateCount {
	order, sums := sumBy(days, func(d dataset.DayRecord) time.Time { return d.Date }, val)
	out := make([]DateCount, 0, len(order))
	for _, d := range order {
		out = append(out, DateCount{Date: d, Count: sums[d]})
	}
	return out
}

// CountByDate sums count_rent per date.
func CountByDate(days []dataset.DayRecord) []DateCount { return byDate(days, countRent) }

// RegisteredByDate sums registered rentals per date.
func RegisteredByDate(days []dataset.DayRecord) []DateCount {
	return byDate(days, func(d dataset.DayRecord) int64 { return d.Registered })
}

// CasualByDate sums casual rentals per date.
func CasualByDate(days []dataset.DayRecord) []DateCount {
	return byDate(days, func(d dataset.DayRecord) int64 { return d.Casual })
}

// SumTotals adds up the card figures over days.
func SumTotals(days []dataset.DayRecord) Totals {
	return Totals{
		CountRent:  lo.SumBy(days, countRent),
		Registered: lo.SumBy(days, func(d dataset.DayRecord) int64 { return d.Registered }),
		Casual:     lo.SumBy(days, func(d dataset.DayRecord) int64 { return d.Casual }),
	}
}

// SumDateCounts adds up a per-date series.
func SumDateCounts(series []DateCount) int64 {
	return lo.SumBy(series, func(d DateCount) int64 { return d.Count })
}

// Share is one slice of the casual/registered split.
type Share struct {
	Label   string  `json:"label"`
	Value   int64   `json:"value"`
	Percent float64 `json:"percent"`
}

// UserShare splits totals into casual and registered percentages. Percentages
// are zero when there are no rentals.
func UserShare(t Totals) []Share {
	sum := t.Casual + t.Registered
	pct := func(v int64) float64 {
		if sum == 0 {
			return 0
		}
		return float64(v) * 100 / float64(sum)
	}
	return []Share{
		{Label: "Casual", Value: t.Casual, Percent: pct(t.Casual)},
		{Label: "Registered", Value: t.Registered, Percent: pct(t.Registered)},
	}
}
