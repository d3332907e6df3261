package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/seenimoa/housingdash/internal/dashboard"
	"github.com/seenimoa/housingdash/pkg/models"
	"github.com/seenimoa/housingdash/pkg/utils"
)

var (
	warnColor = color.New(color.FgYellow)
	upColor   = color.New(color.FgGreen)
	downColor = color.New(color.FgRed)
)

func renderSnapshot(w io.Writer, snap dashboard.Snapshot, withRecords bool) {
	source := "live data"
	if snap.Synthetic() {
		source = "synthetic data"
	}
	fmt.Fprintf(w, "Housing dashboard (%s, %s records, generated %s)\n",
		source, humanize.Comma(int64(len(snap.Records))), snap.GeneratedAt.Format("2006-01-02 15:04 MST"))
	if snap.Error != "" {
		warnColor.Fprintf(w, "⚠️  %s\n", snap.Error)
	}
	for _, m := range snap.FailedSeries {
		warnColor.Fprintf(w, "⚠️  %s could not be fetched\n", m)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tSERIES\tLATEST\tTREND")
	for _, c := range snap.Metrics {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, c.Series, c.Latest, trendText(c))
	}
	tw.Flush()

	if !withRecords {
		return
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "DATE\tMONTH\t")
	for _, m := range models.AllMetrics() {
		fmt.Fprintf(tw, "%s\t", m)
	}
	fmt.Fprintln(tw)
	for i := range snap.Records {
		r := &snap.Records[i]
		fmt.Fprintf(tw, "%s\t%s\t", r.Date, r.Month)
		for _, m := range models.AllMetrics() {
			reading := models.NotAvailable
			if v, ok := r.Value(m); ok {
				reading = models.Available(v)
			}
			fmt.Fprintf(tw, "%s\t", utils.FormatValue(reading))
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

func renderSeries(w io.Writer, series []dashboard.SeriesInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tSERIES\tNAME\tCOLOR")
	for _, s := range series {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Metric, s.Code, s.Name, s.Color)
	}
	tw.Flush()
}

// trendText colors a trend by direction. The trend is the last column so
// escape codes do not disturb the alignment.
func trendText(c dashboard.MetricCard) string {
	switch {
	case !c.TrendPercent.Available:
		return c.Trend
	case c.TrendPercent.Value > 0:
		return upColor.Sprint(c.Trend)
	case c.TrendPercent.Value < 0:
		return downColor.Sprint(c.Trend)
	}
	return c.Trend
}
