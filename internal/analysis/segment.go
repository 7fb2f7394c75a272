package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/KaramelBytes/bikedash/internal/dataset"
)

// Segment is the label assigned to an RFM group.
type Segment string

const (
	TopCustomer Segment = "Top Customer"
	Loyal       Segment = "Loyal"
	AtRisk      Segment = "At Risk"
	Others      Segment = "Others"
)

// SegmentOrder is the fixed display order of segments.
var SegmentOrder = []Segment{TopCustomer, Loyal, AtRisk, Others}

// GroupingNote explains the customer key used by ScoreRFM. Renderers show it
// next to every segmentation output.
const GroupingNote = "Groups are keyed by the registered-rental count of each hourly row, not by a customer id."

var (
	// ErrNoSegmentData means the filtered hourly dataset is empty.
	ErrNoSegmentData = errors.New("no data for segmentation in this date range")
	// ErrTooFewGroups means fewer than three groups exist to split into tertiles.
	ErrTooFewGroups = errors.New("too few groups for tertile segmentation")
	// ErrDegenerateBins means the recency values cannot form three distinct bins.
	ErrDegenerateBins = errors.New("recency values do not form three distinct bins")
)

// RFMRow is the score of one group.
type RFMRow struct {
	Registered int64   `json:"registered"`
	Recency    int     `json:"recency"`
	Frequency  int     `json:"frequency"`
	Monetary   int64   `json:"monetary"`
	RScore     int     `json:"r_score"`
	FScore     int     `json:"f_score"`
	MScore     int     `json:"m_score"`
	Code       string  `json:"code"`
	Segment    Segment `json:"segment"`
}

// RFMResult is the scoring table and the date recency is measured from.
type RFMResult struct {
	ReferenceDate time.Time `json:"reference_date"`
	Rows          []RFMRow  `json:"rows"`
}

// Classify maps R, F and M scores to a segment. The first matching rule wins.
func Classify(r, f, m int) Segment {
	switch {
	case r == 3 && f == 3 && m == 3:
		return TopCustomer
	case r == 3:
		return Loyal
	case r == 1 && f <= 2:
		return AtRisk
	default:
		return Others
	}
}

// ScoreRFM groups hourly rows by their registered count and scores each
// group on recency, frequency and monetary value in tertiles. Rows are
// returned in ascending registered order.
func ScoreRFM(hours []dataset.HourRecord) (*RFMResult, error) {
	if len(hours) == 0 {
		return nil, ErrNoSegmentData
	}
	ref := hours[0].Date
	for _, h := range hours[1:] {
		if h.Date.After(ref) {
			ref = h.Date
		}
	}

	type group struct {
		last      time.Time
		frequency int
		monetary  int64
	}
	groups := make(map[int64]*group)
	for _, h := range hours {
		g, ok := groups[h.Registered]
		if !ok {
			g = &group{last: h.Date}
			groups[h.Registered] = g
		}
		if h.Date.After(g.last) {
			g.last = h.Date
		}
		g.frequency++
		g.monetary += h.CountRent
	}
	if len(groups) < 3 {
		return nil, fmt.Errorf("%w: %d groups", ErrTooFewGroups, len(groups))
	}

	keys := make([]int64, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rows := make([]RFMRow, len(keys))
	recency := make([]float64, len(keys))
	frequency := make([]float64, len(keys))
	monetary := make([]float64, len(keys))
	for i, k := range keys {
		g := groups[k]
		days := int(ref.Sub(g.last).Hours() / 24)
		rows[i] = RFMRow{Registered: k, Recency: days, Frequency: g.frequency, Monetary: g.monetary}
		recency[i] = float64(days)
		frequency[i] = float64(g.frequency)
		monetary[i] = float64(g.monetary)
	}

	rBins, err := qcut(recency, 3)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateBins, err)
	}
	// ranks are unique, so these cannot collapse with three or more groups
	fBins, err := qcut(rankFirst(frequency), 3)
	if err != nil {
		return nil, fmt.Errorf("frequency bins: %w", err)
	}
	mBins, err := qcut(rankFirst(monetary), 3)
	if err != nil {
		return nil, fmt.Errorf("monetary bins: %w", err)
	}

	for i := range rows {
		row := &rows[i]
		row.RScore = 3 - rBins[i]
		row.FScore = fBins[i] + 1
		row.MScore = mBins[i] + 1
		row.Code = strconv.Itoa(row.RScore) + strconv.Itoa(row.FScore) + strconv.Itoa(row.MScore)
		row.Segment = Classify(row.RScore, row.FScore, row.MScore)
	}
	return &RFMResult{ReferenceDate: ref, Rows: rows}, nil
}

// SegmentCount is the number of groups in a segment.
type SegmentCount struct {
	Segment Segment `json:"segment"`
	Groups  int     `json:"groups"`
	Rentals int64   `json:"rentals"`
}

// SummarizeSegments counts groups and rentals per segment in SegmentOrder.
// Segments without groups are included with zero counts.
func SummarizeSegments(res *RFMResult) []SegmentCount {
	out := make([]SegmentCount, len(SegmentOrder))
	pos := make(map[Segment]int, len(SegmentOrder))
	for i, s := range SegmentOrder {
		out[i].Segment = s
		pos[s] = i
	}
	if res == nil {
		return out
	}
	for _, r := range res.Rows {
		i := pos[r.Segment]
		out[i].Groups++
		out[i].Rentals += r.Monetary
	}
	return out
}
