package dashboard

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/seenimoa/housingdash/pkg/models"
)

func TestGenerateFallbackShape(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	records := GenerateFallback(now, rand.New(rand.NewPCG(1, 2)))

	if len(records) != FallbackMonths {
		t.Fatalf("len: got %d, want %d", len(records), FallbackMonths)
	}
	if first := records[0].Date; !first.Equal(models.NewDate(2021, time.November, 1).Time) {
		t.Errorf("first date: got %s, want 2021-11-01", first)
	}
	if last := records[len(records)-1].Date; !last.Equal(models.NewDate(2026, time.October, 1).Time) {
		t.Errorf("last date: got %s, want 2026-10-01", last)
	}

	for i, r := range records {
		if i > 0 {
			prev := records[i-1].Date.AddDate(0, 1, 0)
			if !r.Date.Equal(prev) {
				t.Errorf("record %d: got %s, want consecutive month %s", i, r.Date, prev.Format(models.DateLayout))
			}
		}
		if r.Month != r.Date.Format("Jan") {
			t.Errorf("record %d month: got %q", i, r.Month)
		}
		for _, m := range models.AllMetrics() {
			v, ok := r.Value(m)
			if !ok {
				t.Errorf("record %d: %s missing", i, m)
				continue
			}
			if v != math.Round(v*100)/100 {
				t.Errorf("record %d: %s = %v not rounded to 2 decimals", i, m, v)
			}
		}
	}
}

func TestGenerateFallbackRanges(t *testing.T) {
	records := GenerateFallback(time.Now(), nil)

	ranges := map[models.Metric][2]float64{
		models.MetricPriceIndex:        {100, 135},
		models.MetricInventory:         {2.5, 6},
		models.MetricMortgageRate:      {2, 4.3},
		models.MetricConstructionSpend: {1100, 1950},
		models.MetricBankruptcies:      {1800, 2300},
	}
	for i, r := range records {
		for m, bounds := range ranges {
			v, _ := r.Value(m)
			if v < bounds[0] || v > bounds[1] {
				t.Errorf("record %d: %s = %v outside [%v, %v]", i, m, v, bounds[0], bounds[1])
			}
		}
	}
}

func TestGenerateFallbackDeterministicWithSeed(t *testing.T) {
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	a := GenerateFallback(now, rand.New(rand.NewPCG(7, 7)))
	b := GenerateFallback(now, rand.New(rand.NewPCG(7, 7)))
	for i := range a {
		for _, m := range models.AllMetrics() {
			va, _ := a[i].Value(m)
			vb, _ := b[i].Value(m)
			if va != vb {
				t.Fatalf("record %d %s: %v != %v", i, m, va, vb)
			}
		}
	}
}
