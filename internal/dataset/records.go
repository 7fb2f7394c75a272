package dataset

import "time"

// DayRecord is one row of the daily dataset.
type DayRecord struct {
	Date       time.Time
	Season     string
	Weather    string
	DayType    string
	Humidity   float64
	CountRent  int64
	Registered int64
	Casual     int64
}

// HourRecord is one row of the hourly dataset. DayType is empty when the
// source file carries no category_days column.
type HourRecord struct {
	Instant    int64
	Date       time.Time
	Hour       int
	DayType    string
	CountRent  int64
	Registered int64
	Casual     int64
}

// Datasets bundles the daily and hourly tables. Loaded datasets are shared
// between pipeline runs and must not be mutated.
type Datasets struct {
	Days  []DayRecord
	Hours []HourRecord
}

// Filter returns a new Datasets holding only the rows inside r.
func (d *Datasets) Filter(r DateRange) *Datasets {
	return &Datasets{
		Days:  FilterDays(d.Days, r),
		Hours: FilterHours(d.Hours, r),
	}
}
