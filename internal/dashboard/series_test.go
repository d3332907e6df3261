package dashboard

import (
	"errors"
	"testing"

	"github.com/seenimoa/housingdash/internal/provider"
	"github.com/seenimoa/housingdash/pkg/models"
)

func TestSeriesCatalog(t *testing.T) {
	want := map[models.Metric]string{
		models.MetricPriceIndex:        "CSUSHPINSA",
		models.MetricInventory:         "MSACSR",
		models.MetricMortgageRate:      "MORTGAGE30US",
		models.MetricConstructionSpend: "TLRESCONS",
		models.MetricBankruptcies:      "BUSLOANS",
	}
	series := Series()
	if len(series) != len(want) {
		t.Fatalf("len: got %d, want %d", len(series), len(want))
	}
	for i, m := range models.AllMetrics() {
		if series[i].Metric != m {
			t.Errorf("position %d: got %q, want %q", i, series[i].Metric, m)
		}
		if series[i].Code != want[m] {
			t.Errorf("%s code: got %q, want %q", m, series[i].Code, want[m])
		}
		if series[i].Name == "" || series[i].Color == "" {
			t.Errorf("%s: missing display metadata", m)
		}
	}

	series[0].Code = "MUTATED"
	if info, _ := Lookup(models.MetricPriceIndex); info.Code != "CSUSHPINSA" {
		t.Error("Series() must return a copy")
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("rent")
	var unknown *provider.ErrUnknownSeries
	if !errors.As(err, &unknown) || unknown.Key != "rent" {
		t.Errorf("got %v, want ErrUnknownSeries", err)
	}
}

func TestLookupCode(t *testing.T) {
	info, ok := LookupCode("MSACSR")
	if !ok || info.Metric != models.MetricInventory {
		t.Errorf("LookupCode(MSACSR): got %+v, %v", info, ok)
	}
	for _, code := range []string{"", "msacsr", "GDP"} {
		if _, ok := LookupCode(code); ok {
			t.Errorf("LookupCode(%q) should miss", code)
		}
	}
}
