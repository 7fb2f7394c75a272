package cmd

import (
	"context"

	"github.com/KaramelBytes/bikedash/internal/dataset"
	"github.com/KaramelBytes/bikedash/internal/report"
	"github.com/spf13/cobra"
)

func newCache() (*dataset.Cache, error) {
	return dataset.NewCache(cfg.CacheEntries, logger)
}

func loadDatasets(cmd *cobra.Command) (*dataset.Datasets, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cache, err := newCache()
	if err != nil {
		return nil, err
	}
	return cache.Load(ctx, cfg.DayPath, cfg.HourPath)
}

// buildReport loads both datasets and runs the pipeline over start..end,
// either of which may be empty to use the dataset's own bound.
func buildReport(cmd *cobra.Command, start, end string, segmentation bool) (*dataset.Datasets, *report.Report, error) {
	ds, err := loadDatasets(cmd)
	if err != nil {
		return nil, nil, err
	}
	span, ok := dataset.Span(ds.Days)
	if !ok {
		return nil, nil, report.ErrNoDays
	}
	rng, err := dataset.ResolveRange(start, end, span)
	if err != nil {
		return nil, nil, err
	}
	r, err := report.Build(ds, report.Params{
		Range:         rng,
		Segmentation:  segmentation,
		HourRankLimit: cfg.HourRankLimit,
	})
	if err != nil {
		return nil, nil, err
	}
	return ds, r, nil
}

func chartOptions() report.ChartOptions {
	return report.ChartOptions{Width: cfg.ChartWidth, Height: cfg.ChartHeight}
}
