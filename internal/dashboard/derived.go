package dashboard

import (
	"github.com/shopspring/decimal"

	"github.com/seenimoa/housingdash/pkg/models"
)

// Derive computes the latest value of metric m and its percent change
// against the previous present value. Records must be in ascending date
// order. The trend is not available when fewer than two values are present
// or the previous value is zero.
func Derive(records []models.CombinedRecord, m models.Metric) models.DerivedMetric {
	d := models.DerivedMetric{
		Metric:       m,
		LatestValue:  models.NotAvailable,
		TrendPercent: models.NotAvailable,
	}

	last := -1
	var latest float64
	for i := len(records) - 1; i >= 0; i-- {
		if v, ok := records[i].Value(m); ok {
			latest, last = v, i
			break
		}
	}
	if last < 0 {
		return d
	}
	d.LatestValue = models.Available(latest)

	for i := last - 1; i >= 0; i-- {
		prev, ok := records[i].Value(m)
		if !ok {
			continue
		}
		if prev != 0 {
			d.TrendPercent = models.Available(trendPercent(prev, latest))
		}
		break
	}
	return d
}

// DeriveAll derives every metric in display order.
func DeriveAll(records []models.CombinedRecord) []models.DerivedMetric {
	out := make([]models.DerivedMetric, 0, len(catalog))
	for _, m := range models.AllMetrics() {
		out = append(out, Derive(records, m))
	}
	return out
}

// trendPercent is (latest-prev)/prev*100 rounded half away from zero to one
// decimal place.
func trendPercent(prev, latest float64) float64 {
	p := decimal.NewFromFloat(prev)
	change := decimal.NewFromFloat(latest).Sub(p).Div(p).Mul(decimal.NewFromInt(100))
	return change.Round(1).InexactFloat64()
}
