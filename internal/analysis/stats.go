package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/bikedash/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// z for a two-sided 95% normal interval.
const z95 = 1.959963984540054

// AllDays labels the profile series of hourly rows without a day type.
const AllDays = "all"

// ProfilePoint is the mean hourly count for one hour of day with its 95%
// confidence bounds.
type ProfilePoint struct {
	Hour int     `json:"hour"`
	Mean float64 `json:"mean"`
	Low  float64 `json:"low"`
	High float64 `json:"high"`
	N    int     `json:"n"`
}

// ProfileSeries is the hour-of-day profile for one day type.
type ProfileSeries struct {
	DayType string         `json:"day_type"`
	Points  []ProfilePoint `json:"points"`
}

// HourlyProfile averages count_rent per (day type, hour). Series keep the
// first-seen order of day types, points are ordered by hour. A single
// observation yields a zero-width interval.
func HourlyProfile(hours []dataset.HourRecord) []ProfileSeries {
	type key struct {
		dayType string
		hour    int
	}
	var types []string
	samples := make(map[key][]float64)
	seenType := make(map[string]bool)
	for _, h := range hours {
		dt := h.DayType
		if dt == "" {
			dt = AllDays
		}
		if !seenType[dt] {
			seenType[dt] = true
			types = append(types, dt)
		}
		k := key{dt, h.Hour}
		samples[k] = append(samples[k], float64(h.CountRent))
	}

	out := make([]ProfileSeries, 0, len(types))
	for _, dt := range types {
		s := ProfileSeries{DayType: dt}
		for hour := 0; hour < 24; hour++ {
			xs, ok := samples[key{dt, hour}]
			if !ok {
				continue
			}
			p := ProfilePoint{Hour: hour, N: len(xs)}
			if len(xs) == 1 {
				p.Mean, p.Low, p.High = xs[0], xs[0], xs[0]
			} else {
				mean, sd := stat.MeanStdDev(xs, nil)
				half := z95 * sd / math.Sqrt(float64(len(xs)))
				p.Mean, p.Low, p.High = mean, mean-half, mean+half
			}
			s.Points = append(s.Points, p)
		}
		out = append(out, s)
	}
	return out
}

// TrendPoint is one day plotted as humidity against rentals.
type TrendPoint struct {
	Humidity float64 `json:"humidity"`
	Count    int64   `json:"count"`
}

// LineFit is an ordinary least-squares line with its Pearson correlation.
type LineFit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R         float64 `json:"r"`
}

// At evaluates the line at x.
func (f LineFit) At(x float64) float64 { return f.Intercept + f.Slope*x }

// Trend is the humidity scatter with its fitted line. Fit is nil when fewer
// than two points exist or humidity does not vary.
type Trend struct {
	Points []TrendPoint `json:"points"`
	Fit    *LineFit     `json:"fit,omitempty"`
}

// HumidityTrend regresses daily count_rent on humidity. Days whose humidity
// is NaN or infinite are left out.
func HumidityTrend(days []dataset.DayRecord) Trend {
	t := Trend{Points: make([]TrendPoint, 0, len(days))}
	xs := make([]float64, 0, len(days))
	ys := make([]float64, 0, len(days))
	for _, d := range days {
		if math.IsNaN(d.Humidity) || math.IsInf(d.Humidity, 0) {
			continue
		}
		t.Points = append(t.Points, TrendPoint{Humidity: d.Humidity, Count: d.CountRent})
		xs = append(xs, d.Humidity)
		ys = append(ys, float64(d.CountRent))
	}
	sort.SliceStable(t.Points, func(i, j int) bool { return t.Points[i].Humidity < t.Points[j].Humidity })
	if len(xs) < 2 || stat.Variance(xs, nil) == 0 {
		return t
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		// constant counts
		r = 0
	}
	t.Fit = &LineFit{Slope: beta, Intercept: alpha, R: r}
	return t
}
