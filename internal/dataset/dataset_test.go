package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dayCSV = `dteday,season,weather_situation,category_days,humidity,count_rent,registered,casual
2011-01-03,Spring,Mist,weekday,0.44,30,25,5
2011-01-01,Spring,Clear,weekend,0.81,10,6,4
2011-01-02,Spring,Clear,weekend,0.69,20,15,5
`

const hourCSV = `instant,dteday,hours,category_days,count_rent,registered,casual
1,2011-01-01,0,weekend,4,3,1
2,2011-01-01,1,weekend,6,3,3
3,2011-01-02,0,weekend,20,15,5
4,2011-01-03,8,weekday,30,25,5
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func date(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestLoadDaysSortsByDate(t *testing.T) {
	p := writeFile(t, t.TempDir(), "day_clean.csv", dayCSV)
	days, err := LoadDays(p)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, date("2011-01-01"), days[0].Date)
	assert.Equal(t, date("2011-01-03"), days[2].Date)
	assert.Equal(t, "Mist", days[2].Weather)
	assert.Equal(t, int64(25), days[2].Registered)
	assert.InDelta(t, 0.44, days[2].Humidity, 1e-9)
}

func TestLoadDaysAcceptsHeaderAliases(t *testing.T) {
	content := "date,season,weathersit,day_type,hum,cnt,registered,casual\n" +
		"2011-01-01,Fall,Clear,weekday,0.5,985.0,654,331\n"
	p := writeFile(t, t.TempDir(), "day.csv", content)
	days, err := LoadDays(p)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, int64(985), days[0].CountRent)
	assert.Equal(t, "weekday", days[0].DayType)
}

func TestLoadDaysReportsEveryMissingColumn(t *testing.T) {
	p := writeFile(t, t.TempDir(), "day.csv", "dteday,season\n2011-01-01,Spring\n")
	_, err := LoadDays(p)
	require.Error(t, err)
	var missing *MissingColumnError
	assert.True(t, errors.As(err, &missing))
	for _, col := range []string{"weather_situation", "humidity", "count_rent", "registered", "casual"} {
		assert.Contains(t, err.Error(), col)
	}
}

func TestLoadHoursRejectsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "hour.csv", "dteday,hours,count_rent,registered,casual\n2011-01-01,24,1,1,0\n")
	_, err := LoadHours(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")

	p = writeFile(t, dir, "hour2.csv", "dteday,hours,count_rent,registered,casual\n2011-01-01,3,abc,1,0\n")
	_, err = LoadHours(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"abc"`)
}

func TestLoadDaysRejectsNonFiniteNumbers(t *testing.T) {
	dir := t.TempDir()
	header := "dteday,season,weather_situation,category_days,humidity,count_rent,registered,casual\n"
	for name, row := range map[string]string{
		"nan.csv":    "2011-01-01,Spring,Clear,weekend,NaN,10,6,4\n",
		"inf.csv":    "2011-01-01,Spring,Clear,weekend,+Inf,10,6,4\n",
		"infint.csv": "2011-01-01,Spring,Clear,weekend,0.5,Inf,6,4\n",
	} {
		_, err := LoadDays(writeFile(t, dir, name, header+row))
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "row 1", name)
	}
}

func TestLoadHoursWithoutInstantUsesRowNumber(t *testing.T) {
	p := writeFile(t, t.TempDir(), "hour.tsv", "dteday\thr\tcnt\tregistered\tcasual\n2011-01-01\t5\t3\t2\t1\n")
	hours, err := LoadHours(p)
	require.NoError(t, err)
	require.Len(t, hours, 1)
	assert.Equal(t, int64(1), hours[0].Instant)
	assert.Equal(t, 5, hours[0].Hour)
	assert.Empty(t, hours[0].DayType)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := LoadDays("day.xlsx")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFilterIsInclusiveAndIdempotent(t *testing.T) {
	p := writeFile(t, t.TempDir(), "day.csv", dayCSV)
	days, err := LoadDays(p)
	require.NoError(t, err)

	r := NewDateRange(date("2011-01-02"), date("2011-01-03"))
	once := FilterDays(days, r)
	require.Len(t, once, 2)
	assert.Equal(t, once, FilterDays(once, r))

	empty := FilterDays(days, NewDateRange(date("2012-01-01"), date("2012-01-02")))
	assert.Empty(t, empty)
}

func TestDateRangeValidate(t *testing.T) {
	span := NewDateRange(date("2011-01-01"), date("2012-12-31"))
	assert.NoError(t, NewDateRange(date("2011-01-01"), date("2011-01-01")).Validate(span))
	assert.ErrorIs(t, NewDateRange(date("2011-02-01"), date("2011-01-01")).Validate(span), ErrInvalidRange)
	assert.ErrorIs(t, NewDateRange(date("2010-12-31"), date("2011-01-05")).Validate(span), ErrInvalidRange)
	assert.Equal(t, 731, span.Days())
}

func TestSpan(t *testing.T) {
	_, ok := Span(nil)
	assert.False(t, ok)
	p := writeFile(t, t.TempDir(), "day.csv", dayCSV)
	days, err := LoadDays(p)
	require.NoError(t, err)
	span, ok := Span(days)
	require.True(t, ok)
	assert.Equal(t, "2011-01-01..2011-01-03", span.String())
}

func TestParquetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	days, err := LoadDays(writeFile(t, dir, "day.csv", dayCSV))
	require.NoError(t, err)
	hours, err := LoadHours(writeFile(t, dir, "hour.csv", hourCSV))
	require.NoError(t, err)

	b, err := EncodeParquet(DayRows(days))
	require.NoError(t, err)
	dayPath := filepath.Join(dir, "day.parquet")
	require.NoError(t, os.WriteFile(dayPath, b, 0o644))
	b, err = EncodeParquet(HourRows(hours))
	require.NoError(t, err)
	hourPath := filepath.Join(dir, "hour.parquet")
	require.NoError(t, os.WriteFile(hourPath, b, 0o644))

	gotDays, err := LoadDays(dayPath)
	require.NoError(t, err)
	assert.Equal(t, days, gotDays)
	gotHours, err := LoadHours(hourPath)
	require.NoError(t, err)
	assert.Equal(t, hours, gotHours)
}

type recordingObserver struct{ lookups []string }

func (r *recordingObserver) CacheLookup(kind string, hit bool) {
	state := "miss"
	if hit {
		state = "hit"
	}
	r.lookups = append(r.lookups, kind+":"+state)
}

func TestCacheReusesUntilFileChanges(t *testing.T) {
	dir := t.TempDir()
	dayPath := writeFile(t, dir, "day.csv", dayCSV)
	hourPath := writeFile(t, dir, "hour.csv", hourCSV)

	c, err := NewCache(4, nil)
	require.NoError(t, err)
	obs := &recordingObserver{}
	c.SetObserver(obs)

	ctx := context.Background()
	first, err := c.Load(ctx, dayPath, hourPath)
	require.NoError(t, err)
	second, err := c.Load(ctx, dayPath, hourPath)
	require.NoError(t, err)
	assert.Equal(t, first.Days, second.Days)
	assert.Equal(t, []string{"day:miss", "hour:miss", "day:hit", "hour:hit"}, obs.lookups)

	extra := dayCSV + "2011-01-04,Spring,Clear,weekday,0.5,40,30,10\n"
	require.NoError(t, os.WriteFile(dayPath, []byte(extra), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(dayPath, future, future))

	third, err := c.Load(ctx, dayPath, hourPath)
	require.NoError(t, err)
	assert.Len(t, third.Days, 4)
	assert.Equal(t, "day:miss", obs.lookups[4])
	assert.Equal(t, "hour:hit", obs.lookups[5])
}

func TestCacheLoadHonoursContextAndMissingFiles(t *testing.T) {
	c, err := NewCache(2, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Load(ctx, "day.csv", "hour.csv")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = c.Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), "hour.csv")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "open day dataset"))
}

func TestResolveRange(t *testing.T) {
	span := NewDateRange(date("2011-01-01"), date("2012-12-31"))
	r, err := ResolveRange("", "", span)
	require.NoError(t, err)
	assert.Equal(t, span, r)

	r, err = ResolveRange("2011-03-01", "", span)
	require.NoError(t, err)
	assert.Equal(t, date("2011-03-01"), r.Start)
	assert.Equal(t, span.End, r.End)

	for _, c := range [][2]string{{"2011-05-01", "2011-04-01"}, {"2010-01-01", ""}, {"yesterday", ""}, {"", "2013-01-01"}} {
		_, err := ResolveRange(c[0], c[1], span)
		assert.ErrorIs(t, err, ErrInvalidRange, c)
	}
}
