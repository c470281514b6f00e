package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteHTML renders the cohort outcomes and timings as a standalone HTML page.
func WriteHTML(w io.Writer, r Report) error {
	sizes := make([]string, len(r.Cohorts))
	var (
		ok, failed       []opts.BarData
		wall, mean, peak []opts.LineData
	)
	for i, c := range r.Cohorts {
		sizes[i] = strconv.Itoa(c.Size)
		ok = append(ok, opts.BarData{Value: c.Succeeded})
		failed = append(failed, opts.BarData{Value: c.Failed})
		wall = append(wall, opts.LineData{Value: round2(c.Seconds)})
		mean = append(mean, opts.LineData{Value: round2(c.MeanAgent)})
		peak = append(peak, opts.LineData{Value: round2(c.MaxAgent)})
	}

	title := fmt.Sprintf("Sweep %s", r.Start.Format("2006-01-02 15:04:05"))
	if r.Interrupted {
		title += " (interrupted)"
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title}),
		charts.WithTitleOpts(opts.Title{Title: "Charge points per cohort", Subtitle: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Cohort size"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Agents"}),
	)
	bar.SetXAxis(sizes).
		AddSeries("succeeded", ok).
		AddSeries("failed", failed)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Run time per cohort"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Cohort size"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Seconds"}),
	)
	line.SetXAxis(sizes).
		AddSeries("cohort", wall).
		AddSeries("agent mean", mean).
		AddSeries("agent max", peak)

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(bar, line)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
