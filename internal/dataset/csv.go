package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

type csvSource struct{}

func (csvSource) CanRead(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvSource) ReadDays(path string) ([]DayRecord, error) {
	var out []DayRecord
	err := readCSV(path, dayColumns, func(row int, f fields) error {
		date, err := f.date(colDate)
		if err != nil {
			return err
		}
		hum, err := f.number(colHumidity)
		if err != nil {
			return err
		}
		cnt, err := f.integer(colCountRent)
		if err != nil {
			return err
		}
		reg, err := f.integer(colRegistered)
		if err != nil {
			return err
		}
		cas, err := f.integer(colCasual)
		if err != nil {
			return err
		}
		out = append(out, DayRecord{
			Date:       date,
			Season:     f.str(colSeason),
			Weather:    f.str(colWeather),
			DayType:    f.str(colDayType),
			Humidity:   hum,
			CountRent:  cnt,
			Registered: reg,
			Casual:     cas,
		})
		return nil
	})
	return out, err
}

func (csvSource) ReadHours(path string) ([]HourRecord, error) {
	var out []HourRecord
	err := readCSV(path, hourColumns, func(row int, f fields) error {
		date, err := f.date(colDate)
		if err != nil {
			return err
		}
		hr, err := f.integer(colHour)
		if err != nil {
			return err
		}
		if hr < 0 || hr > 23 {
			return fmt.Errorf("hours %d out of range 0-23", hr)
		}
		cnt, err := f.integer(colCountRent)
		if err != nil {
			return err
		}
		reg, err := f.integer(colRegistered)
		if err != nil {
			return err
		}
		cas, err := f.integer(colCasual)
		if err != nil {
			return err
		}
		instant := int64(row)
		if f.has(colInstant) {
			if instant, err = f.integer(colInstant); err != nil {
				return err
			}
		}
		out = append(out, HourRecord{
			Instant:    instant,
			Date:       date,
			Hour:       int(hr),
			DayType:    f.str(colDayType),
			CountRent:  cnt,
			Registered: reg,
			Casual:     cas,
		})
		return nil
	})
	return out, err
}

// readCSV streams path and calls fn once per data row (1-based row numbers).
func readCSV(path string, cols []column, fn func(row int, f fields) error) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer fh.Close()
	r := csv.NewReader(fh)
	r.ReuseRecord = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = sniffDelimiter(path)

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty file", path)
		}
		return fmt.Errorf("read header: %w", err)
	}
	idx, err := resolveHeader(header, cols)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for row := 1; ; row++ {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read row %d: %w", row, err)
		}
		if err := fn(row, fields{rec: rec, idx: idx}); err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
	}
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// fields gives typed access to one CSV record by canonical column name.
type fields struct {
	rec []string
	idx map[string]int
}

func (f fields) has(col string) bool {
	_, ok := f.idx[col]
	return ok
}

func (f fields) str(col string) string {
	i, ok := f.idx[col]
	if !ok || i >= len(f.rec) {
		return ""
	}
	return strings.TrimSpace(f.rec[i])
}

func (f fields) integer(col string) (int64, error) {
	s := f.str(col)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	// Cleaned exports sometimes write integers as "985.0".
	x, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(x, 0) || x != math.Trunc(x) {
		return 0, fmt.Errorf("parse %s %q: not an integer", col, s)
	}
	return int64(x), nil
}

func (f fields) number(col string) (float64, error) {
	s := f.str(col)
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", col, s, err)
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("parse %s %q: not a finite number", col, s)
	}
	return x, nil
}

func (f fields) date(col string) (time.Time, error) {
	s := f.str(col)
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", col, err)
	}
	return t, nil
}

var dateLayouts = []string{
	"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04",
	"2006/01/02", "1/2/2006", "1/2/2006 15:04:05",
}

// ParseDate parses s with the layouts found in cleaned exports and truncates
// the result to a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
