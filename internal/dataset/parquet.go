package dataset

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// DayRow is the Parquet layout of a daily record.
type DayRow struct {
	Date       string  `parquet:"name=dteday,type=BYTE_ARRAY,convertedtype=UTF8"`
	Season     string  `parquet:"name=season,type=BYTE_ARRAY,convertedtype=UTF8"`
	Weather    string  `parquet:"name=weather_situation,type=BYTE_ARRAY,convertedtype=UTF8"`
	DayType    string  `parquet:"name=category_days,type=BYTE_ARRAY,convertedtype=UTF8"`
	Humidity   float64 `parquet:"name=humidity,type=DOUBLE"`
	CountRent  int64   `parquet:"name=count_rent,type=INT64"`
	Registered int64   `parquet:"name=registered,type=INT64"`
	Casual     int64   `parquet:"name=casual,type=INT64"`
}

// HourRow is the Parquet layout of an hourly record.
type HourRow struct {
	Instant    int64  `parquet:"name=instant,type=INT64"`
	Date       string `parquet:"name=dteday,type=BYTE_ARRAY,convertedtype=UTF8"`
	Hour       int32  `parquet:"name=hours,type=INT32"`
	DayType    string `parquet:"name=category_days,type=BYTE_ARRAY,convertedtype=UTF8"`
	CountRent  int64  `parquet:"name=count_rent,type=INT64"`
	Registered int64  `parquet:"name=registered,type=INT64"`
	Casual     int64  `parquet:"name=casual,type=INT64"`
}

const dateFormat = "2006-01-02"

type parquetSource struct{}

func (parquetSource) CanRead(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".parquet")
}

func (parquetSource) ReadDays(path string) ([]DayRecord, error) {
	rows, err := readParquet[DayRow](path)
	if err != nil {
		return nil, err
	}
	out := make([]DayRecord, 0, len(rows))
	for i, r := range rows {
		date, err := ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, DayRecord{
			Date: date, Season: r.Season, Weather: r.Weather, DayType: r.DayType,
			Humidity: r.Humidity, CountRent: r.CountRent, Registered: r.Registered, Casual: r.Casual,
		})
	}
	return out, nil
}

func (parquetSource) ReadHours(path string) ([]HourRecord, error) {
	rows, err := readParquet[HourRow](path)
	if err != nil {
		return nil, err
	}
	out := make([]HourRecord, 0, len(rows))
	for i, r := range rows {
		date, err := ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if r.Hour < 0 || r.Hour > 23 {
			return nil, fmt.Errorf("row %d: hours %d out of range 0-23", i+1, r.Hour)
		}
		out = append(out, HourRecord{
			Instant: r.Instant, Date: date, Hour: int(r.Hour), DayType: r.DayType,
			CountRent: r.CountRent, Registered: r.Registered, Casual: r.Casual,
		})
	}
	return out, nil
}

func readParquet[T any](path string) ([]T, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(T), 1)
	if err != nil {
		return nil, fmt.Errorf("read parquet schema: %w", err)
	}
	defer pr.ReadStop()
	rows := make([]T, int(pr.GetNumRows()))
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}
	return rows, nil
}

// EncodeParquet serializes rows into an in-memory Parquet file. T must carry
// parquet struct tags.
func EncodeParquet[T any](rows []T) (out []byte, err error) {
	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(T), 1)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		if err := pw.Write(r); err != nil {
			return nil, fmt.Errorf("write parquet row: %w", err)
		}
	}
	// WriteStop panics on some schema mismatches instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("finalize parquet: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize parquet: %w", err)
	}
	return buf.Bytes(), nil
}

// DayRows converts records to their Parquet layout.
func DayRows(days []DayRecord) []DayRow {
	out := make([]DayRow, len(days))
	for i, d := range days {
		out[i] = DayRow{
			Date: d.Date.Format(dateFormat), Season: d.Season, Weather: d.Weather, DayType: d.DayType,
			Humidity: d.Humidity, CountRent: d.CountRent, Registered: d.Registered, Casual: d.Casual,
		}
	}
	return out
}

// HourRows converts records to their Parquet layout.
func HourRows(hours []HourRecord) []HourRow {
	out := make([]HourRow, len(hours))
	for i, h := range hours {
		out[i] = HourRow{
			Instant: h.Instant, Date: h.Date.Format(dateFormat), Hour: int32(h.Hour), DayType: h.DayType,
			CountRent: h.CountRent, Registered: h.Registered, Casual: h.Casual,
		}
	}
	return out
}
