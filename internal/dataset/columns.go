package dataset

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// column describes an input column and the header spellings accepted for it.
type column struct {
	name     string
	aliases  []string
	optional bool
}

const (
	colDate       = "dteday"
	colSeason     = "season"
	colWeather    = "weather_situation"
	colDayType    = "category_days"
	colHumidity   = "humidity"
	colCountRent  = "count_rent"
	colRegistered = "registered"
	colCasual     = "casual"
	colHour       = "hours"
	colInstant    = "instant"
)

var dayColumns = []column{
	{name: colDate, aliases: []string{"date"}},
	{name: colSeason},
	{name: colWeather, aliases: []string{"weathersit", "weather"}},
	{name: colDayType, aliases: []string{"day_type"}},
	{name: colHumidity, aliases: []string{"hum"}},
	{name: colCountRent, aliases: []string{"cnt", "count"}},
	{name: colRegistered},
	{name: colCasual},
}

var hourColumns = []column{
	{name: colInstant, optional: true},
	{name: colDate, aliases: []string{"date"}},
	{name: colHour, aliases: []string{"hr", "hour"}},
	{name: colDayType, aliases: []string{"day_type"}, optional: true},
	{name: colCountRent, aliases: []string{"cnt", "count"}},
	{name: colRegistered},
	{name: colCasual},
}

// MissingColumnError reports a required column absent from a header.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

// resolveHeader maps canonical column names to their index in header. Every
// missing required column is reported, not just the first one.
func resolveHeader(header []string, cols []column) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}
	idx := make(map[string]int, len(cols))
	var errs *multierror.Error
	for _, c := range cols {
		found := false
		for _, name := range append([]string{c.name}, c.aliases...) {
			if i, ok := pos[name]; ok {
				idx[c.name] = i
				found = true
				break
			}
		}
		if !found && !c.optional {
			errs = multierror.Append(errs, &MissingColumnError{Column: c.name})
		}
	}
	return idx, errs.ErrorOrNil()
}
