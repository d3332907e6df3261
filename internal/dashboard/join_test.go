package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/seenimoa/housingdash/pkg/models"
)

func point(y int, m int, v float64) models.ProcessedPoint {
	d := models.NewDate(y, time.Month(m), 1)
	return models.ProcessedPoint{Date: d, Month: d.Format("Jan"), Value: v}
}

func TestJoinUnionOfDates(t *testing.T) {
	series := map[models.Metric][]models.ProcessedPoint{
		models.MetricPriceIndex:   {point(2024, 1, 300), point(2024, 3, 302)},
		models.MetricMortgageRate: {point(2024, 2, 6.6), point(2024, 3, 6.8)},
		models.MetricInventory:    {point(2023, 12, 8.1)},
	}

	records, err := Join(series)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	wantDates := []models.Date{
		models.NewDate(2023, 12, 1),
		models.NewDate(2024, 1, 1),
		models.NewDate(2024, 2, 1),
		models.NewDate(2024, 3, 1),
	}
	if len(records) != len(wantDates) {
		t.Fatalf("len: got %d, want %d", len(records), len(wantDates))
	}
	for i, d := range wantDates {
		if !records[i].Date.Equal(d.Time) {
			t.Errorf("record %d date: got %s, want %s", i, records[i].Date, d)
		}
	}
	if records[0].Month != "Dec" || records[3].Month != "Mar" {
		t.Errorf("months: got %q, %q", records[0].Month, records[3].Month)
	}
}

func TestJoinAbsentIsNil(t *testing.T) {
	series := map[models.Metric][]models.ProcessedPoint{
		models.MetricPriceIndex:   {point(2024, 1, 300)},
		models.MetricMortgageRate: {point(2024, 2, 0)},
	}
	records, err := Join(series)
	if err != nil {
		t.Fatal(err)
	}

	jan, feb := records[0], records[1]
	if jan.PriceIndex == nil || *jan.PriceIndex != 300 {
		t.Errorf("jan price: got %v", jan.PriceIndex)
	}
	if jan.MortgageRate != nil {
		t.Errorf("jan mortgage should be absent, got %v", *jan.MortgageRate)
	}
	if feb.PriceIndex != nil {
		t.Errorf("feb price should be absent, got %v", *feb.PriceIndex)
	}
	// A zero observation is present, not absent.
	if feb.MortgageRate == nil || *feb.MortgageRate != 0 {
		t.Errorf("feb mortgage: got %v, want 0", feb.MortgageRate)
	}
	for _, r := range records {
		if r.Inventory != nil || r.ConstructionSpend != nil || r.Bankruptcies != nil {
			t.Errorf("%s: series without data should be nil: %+v", r.Date, r)
		}
	}
}

func TestJoinDuplicateDateFirstWins(t *testing.T) {
	series := map[models.Metric][]models.ProcessedPoint{
		models.MetricInventory: {point(2024, 1, 1), point(2024, 1, 2)},
	}
	records, err := Join(series)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("len: got %d, want 1", len(records))
	}
	if v, _ := records[0].Value(models.MetricInventory); v != 1 {
		t.Errorf("got %v, want first value 1", v)
	}
}

func TestJoinOrdersAcrossYears(t *testing.T) {
	series := map[models.Metric][]models.ProcessedPoint{
		models.MetricBankruptcies: {point(2025, 1, 1), point(2023, 6, 2), point(2024, 11, 3)},
	}
	records, err := Join(series)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(records); i++ {
		if !records[i-1].Date.Before(records[i].Date.Time) {
			t.Errorf("records not ascending at %d: %s then %s", i, records[i-1].Date, records[i].Date)
		}
	}
}

func TestJoinAllEmpty(t *testing.T) {
	tests := []struct {
		name   string
		series map[models.Metric][]models.ProcessedPoint
	}{
		{"nil map", nil},
		{"all empty", map[models.Metric][]models.ProcessedPoint{
			models.MetricPriceIndex: {},
			models.MetricInventory:  nil,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Join(tt.series)
			if !errors.Is(err, ErrNoData) {
				t.Errorf("got %v, want ErrNoData", err)
			}
		})
	}
}
