// Package models defines the data types shared by the housing dashboard:
// raw upstream observations, normalized points, the joined table and the
// metrics derived from it.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date layout used on the wire.
const DateLayout = "2006-01-02"

// Date is a calendar date at midnight UTC.
type Date struct {
	time.Time
}

// NewDate returns the given calendar date in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string as a UTC calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time.UTC().Format(DateLayout)
}

// Key returns a comparable day number, suitable as a map key.
func (d Date) Key() int64 {
	return d.Time.Unix() / 86400
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Metric is the logical key of one dashboard series.
type Metric string

const (
	MetricPriceIndex        Metric = "priceIndex"
	MetricInventory         Metric = "inventory"
	MetricMortgageRate      Metric = "mortgageRate"
	MetricConstructionSpend Metric = "constructionSpend"
	// MetricBankruptcies is charted from commercial and industrial loans.
	MetricBankruptcies Metric = "bankruptcies"
)

// AllMetrics returns every metric in display order.
func AllMetrics() []Metric {
	return []Metric{
		MetricPriceIndex,
		MetricInventory,
		MetricMortgageRate,
		MetricConstructionSpend,
		MetricBankruptcies,
	}
}

// Valid reports whether m is one of the known metrics.
func (m Metric) Valid() bool {
	for _, k := range AllMetrics() {
		if k == m {
			return true
		}
	}
	return false
}

// --- Upstream ---

// Observation is one raw (date, value) pair from a series. Value may be a
// non-numeric sentinel such as ".".
type Observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// ObservationsResponse is the part of the upstream observations body the
// dashboard consumes.
type ObservationsResponse struct {
	Count        int           `json:"count,omitempty"`
	Observations []Observation `json:"observations"`
}

// --- Normalized ---

// ProcessedPoint is one normalized observation of a single series.
type ProcessedPoint struct {
	Date  Date    `json:"date"`
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// CombinedRecord is one row of the joined table. A nil slot means the series
// had no observation on that date.
type CombinedRecord struct {
	Date              Date     `json:"date"`
	Month             string   `json:"month"`
	PriceIndex        *float64 `json:"priceIndex"`
	Inventory         *float64 `json:"inventory"`
	MortgageRate      *float64 `json:"mortgageRate"`
	ConstructionSpend *float64 `json:"constructionSpend"`
	Bankruptcies      *float64 `json:"bankruptcies"`
}

func (r *CombinedRecord) slot(m Metric) **float64 {
	switch m {
	case MetricPriceIndex:
		return &r.PriceIndex
	case MetricInventory:
		return &r.Inventory
	case MetricMortgageRate:
		return &r.MortgageRate
	case MetricConstructionSpend:
		return &r.ConstructionSpend
	case MetricBankruptcies:
		return &r.Bankruptcies
	}
	return nil
}

// Value returns the metric's value at this record and whether it is present.
func (r *CombinedRecord) Value(m Metric) (float64, bool) {
	p := r.slot(m)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// Set stores v in the metric's slot. Unknown metrics are ignored.
func (r *CombinedRecord) Set(m Metric, v float64) {
	if p := r.slot(m); p != nil {
		*p = &v
	}
}

// --- Derived ---

// Reading is a computed number that may be not available. A reading that is
// not available is never reported as zero.
type Reading struct {
	Value     float64 `json:"value"`
	Available bool    `json:"available"`
}

// NotAvailable is the reading for a value that cannot be computed.
var NotAvailable = Reading{}

// Available wraps v as an available reading.
func Available(v float64) Reading {
	return Reading{Value: v, Available: true}
}

// String renders the value, or "N/A".
func (r Reading) String() string {
	if !r.Available {
		return "N/A"
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}

// DerivedMetric holds the latest value of a metric and its change against
// the previous present value.
type DerivedMetric struct {
	Metric       Metric  `json:"metric"`
	LatestValue  Reading `json:"latestValue"`
	TrendPercent Reading `json:"trendPercent"`
}

// TrendLabel renders the trend as a signed percentage with one decimal,
// e.g. "+25.0%", or "N/A".
func (d DerivedMetric) TrendLabel() string {
	if !d.TrendPercent.Available {
		return "N/A"
	}
	sign := ""
	if d.TrendPercent.Value > 0 {
		sign = "+"
	}
	return sign + strconv.FormatFloat(d.TrendPercent.Value, 'f', 1, 64) + "%"
}
