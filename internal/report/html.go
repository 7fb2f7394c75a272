package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"go.uber.org/zap"
)

//go:embed templates/dashboard.html.tmpl
var templateFS embed.FS

var dashboardTmpl = template.Must(
	template.New("dashboard.html.tmpl").
		Funcs(template.FuncMap{"thousands": FormatThousands}).
		ParseFS(templateFS, "templates/dashboard.html.tmpl"),
)

const dateFormat = "2006-01-02"

// HTMLOptions configures RenderHTML.
type HTMLOptions struct {
	Charts ChartOptions
	Logger *zap.Logger
}

type dashboardData struct {
	Report     *Report
	Cards      []Card
	Charts     []Chart
	Start, End string
	Min, Max   string
}

// RenderHTML writes the dashboard page for r: the date form bounded to the
// available span, the metric cards and every chart.
func RenderHTML(w io.Writer, r *Report, opts HTMLOptions) error {
	data := dashboardData{
		Report: r,
		Cards:  r.Cards(),
		Charts: RenderCharts(r, opts.Charts, opts.Logger),
		Start:  r.Range.Start.Format(dateFormat),
		End:    r.Range.End.Format(dateFormat),
		Min:    r.Span.Start.Format(dateFormat),
		Max:    r.Span.End.Format(dateFormat),
	}
	if err := dashboardTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}
