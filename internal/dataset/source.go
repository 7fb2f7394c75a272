package dataset

import (
	"errors"
	"fmt"
	"sort"
)

// Source reads dataset files of one on-disk format.
type Source interface {
	CanRead(path string) bool
	ReadDays(path string) ([]DayRecord, error)
	ReadHours(path string) ([]HourRecord, error)
}

var registry []Source

// Register adds a source implementation to the registry.
func Register(s Source) {
	registry = append(registry, s)
}

// ErrUnsupported indicates no registered source understands a file.
var ErrUnsupported = errors.New("unsupported dataset format")

func sourceFor(path string) (Source, error) {
	for _, s := range registry {
		if s.CanRead(path) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
}

// LoadDays reads the daily dataset at path, sorted by date.
func LoadDays(path string) ([]DayRecord, error) {
	src, err := sourceFor(path)
	if err != nil {
		return nil, err
	}
	days, err := src.ReadDays(path)
	if err != nil {
		return nil, fmt.Errorf("load day dataset: %w", err)
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}

// LoadHours reads the hourly dataset at path, sorted by date.
func LoadHours(path string) ([]HourRecord, error) {
	src, err := sourceFor(path)
	if err != nil {
		return nil, err
	}
	hours, err := src.ReadHours(path)
	if err != nil {
		return nil, fmt.Errorf("load hour dataset: %w", err)
	}
	sort.SliceStable(hours, func(i, j int) bool { return hours[i].Date.Before(hours[j].Date) })
	return hours, nil
}

func init() {
	Register(csvSource{})
	Register(parquetSource{})
}
