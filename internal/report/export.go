package report

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/KaramelBytes/bikedash/internal/analysis"
	"github.com/KaramelBytes/bikedash/internal/dataset"
	"github.com/KaramelBytes/bikedash/internal/utils"
	"github.com/hashicorp/go-multierror"
)

// RenderJSON writes r as indented JSON.
func RenderJSON(w io.Writer, r *Report) error {
	b, err := utils.PrettyJSON(r)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// KeyCountRow is the Parquet layout of a categorical aggregate.
type KeyCountRow struct {
	Key   string `parquet:"name=key,type=BYTE_ARRAY,convertedtype=UTF8"`
	Count int64  `parquet:"name=count_rent,type=INT64"`
}

// HourCountRow is the Parquet layout of the per-hour aggregate.
type HourCountRow struct {
	Hour  int32 `parquet:"name=hours,type=INT32"`
	Count int64 `parquet:"name=count_rent,type=INT64"`
}

// DailyRow is the Parquet layout of the per-date trend.
type DailyRow struct {
	Date       string `parquet:"name=dteday,type=BYTE_ARRAY,convertedtype=UTF8"`
	CountRent  int64  `parquet:"name=count_rent,type=INT64"`
	Registered int64  `parquet:"name=registered,type=INT64"`
	Casual     int64  `parquet:"name=casual,type=INT64"`
}

// RFMParquetRow is the Parquet layout of one scored group.
type RFMParquetRow struct {
	Registered int64  `parquet:"name=registered,type=INT64"`
	Recency    int32  `parquet:"name=recency,type=INT32"`
	Frequency  int32  `parquet:"name=frequency,type=INT32"`
	Monetary   int64  `parquet:"name=monetary,type=INT64"`
	Code       string `parquet:"name=rfm_score,type=BYTE_ARRAY,convertedtype=UTF8"`
	Segment    string `parquet:"name=segment,type=BYTE_ARRAY,convertedtype=UTF8"`
}

// Export writes the filtered datasets and every aggregate table of r into dir
// as Parquet files, plus report.json. Files that fail do not stop the others;
// the returned paths are the files written.
func Export(dir string, ds *dataset.Datasets, r *Report) ([]string, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	filtered := ds.Filter(r.Range)

	var (
		written []string
		errs    *multierror.Error
	)
	write := func(name string, encode func() ([]byte, error)) {
		b, err := encode()
		if err == nil {
			err = utils.SafeWriteFile(filepath.Join(dir, name), b)
		}
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		written = append(written, filepath.Join(dir, name))
	}

	write("day.parquet", func() ([]byte, error) { return dataset.EncodeParquet(dataset.DayRows(filtered.Days)) })
	write("hour.parquet", func() ([]byte, error) { return dataset.EncodeParquet(dataset.HourRows(filtered.Hours)) })
	write("season.parquet", func() ([]byte, error) { return dataset.EncodeParquet(keyRows(r.Seasons)) })
	write("weather.parquet", func() ([]byte, error) { return dataset.EncodeParquet(keyRows(r.Weather)) })
	write("day_type.parquet", func() ([]byte, error) { return dataset.EncodeParquet(keyRows(r.DayTypes)) })
	write("hours.parquet", func() ([]byte, error) { return dataset.EncodeParquet(hourRows(r.Hours)) })
	write("daily.parquet", func() ([]byte, error) { return dataset.EncodeParquet(dailyRows(r)) })
	if r.RFM != nil {
		write("rfm.parquet", func() ([]byte, error) { return dataset.EncodeParquet(rfmRows(r.RFM)) })
	}
	write("report.json", func() ([]byte, error) { return utils.PrettyJSON(r) })
	return written, errs.ErrorOrNil()
}

func keyRows(counts []analysis.KeyCount) []KeyCountRow {
	out := make([]KeyCountRow, len(counts))
	for i, c := range counts {
		out[i] = KeyCountRow{Key: c.Key, Count: c.Count}
	}
	return out
}

func hourRows(hours []analysis.HourCount) []HourCountRow {
	out := make([]HourCountRow, len(hours))
	for i, h := range hours {
		out[i] = HourCountRow{Hour: int32(h.Hour), Count: h.Count}
	}
	return out
}

// dailyRows joins the three per-date series, which share first-seen date order.
func dailyRows(r *Report) []DailyRow {
	out := make([]DailyRow, len(r.Daily))
	for i, d := range r.Daily {
		out[i] = DailyRow{Date: d.Date.Format(dateFormat), CountRent: d.Count}
		if i < len(r.Registered) {
			out[i].Registered = r.Registered[i].Count
		}
		if i < len(r.Casual) {
			out[i].Casual = r.Casual[i].Count
		}
	}
	return out
}

func rfmRows(res *analysis.RFMResult) []RFMParquetRow {
	out := make([]RFMParquetRow, len(res.Rows))
	for i, row := range res.Rows {
		out[i] = RFMParquetRow{
			Registered: row.Registered,
			Recency:    int32(row.Recency),
			Frequency:  int32(row.Frequency),
			Monetary:   row.Monetary,
			Code:       row.Code,
			Segment:    string(row.Segment),
		}
	}
	return out
}
