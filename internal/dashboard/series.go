// Package dashboard acquires the five housing indicator series through the
// proxy, normalizes and joins them on date, and derives the latest value and
// trend of each metric. When live data cannot be produced it substitutes a
// synthetic dataset so callers always have something to chart.
package dashboard

import (
	"github.com/seenimoa/housingdash/internal/provider"
	"github.com/seenimoa/housingdash/pkg/models"
)

// SeriesInfo ties a metric to its upstream series code and display metadata.
type SeriesInfo struct {
	Metric models.Metric `json:"metric"`
	Code   string        `json:"series"`
	Name   string        `json:"name"`
	Color  string        `json:"color"`
}

// catalog is the static metric to series table, in display order.
var catalog = []SeriesInfo{
	// S&P/Case-Shiller U.S. National Home Price Index
	{Metric: models.MetricPriceIndex, Code: "CSUSHPINSA", Name: "Price Index", Color: "#0f766e"},
	// Monthly Supply of New Houses
	{Metric: models.MetricInventory, Code: "MSACSR", Name: "Inventory (months)", Color: "#0369a1"},
	// 30-Year Fixed Rate Mortgage Average
	{Metric: models.MetricMortgageRate, Code: "MORTGAGE30US", Name: "Mortgage Rate (%)", Color: "#9333ea"},
	// Total Residential Construction Spending
	{Metric: models.MetricConstructionSpend, Code: "TLRESCONS", Name: "Construction Spending", Color: "#0891b2"},
	// Commercial and Industrial Loans
	{Metric: models.MetricBankruptcies, Code: "BUSLOANS", Name: "Business Loans", Color: "#4f46e5"},
}

// Series returns the catalogue in display order.
func Series() []SeriesInfo {
	out := make([]SeriesInfo, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalogue entry for m.
func Lookup(m models.Metric) (SeriesInfo, error) {
	for _, s := range catalog {
		if s.Metric == m {
			return s, nil
		}
	}
	return SeriesInfo{}, &provider.ErrUnknownSeries{Key: string(m)}
}

// LookupCode returns the catalogue entry whose series code is code.
func LookupCode(code string) (SeriesInfo, bool) {
	for _, s := range catalog {
		if s.Code == code {
			return s, true
		}
	}
	return SeriesInfo{}, false
}
