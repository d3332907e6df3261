// Package utils provides date and formatting helpers for the housing dashboard.
package utils

import (
	"math"

	"github.com/dustin/go-humanize"

	"github.com/seenimoa/housingdash/pkg/models"
)

// FormatValue renders a reading with thousands separators and at most one
// fraction digit (1234.56 → "1,234.6"). Unavailable readings render "N/A".
func FormatValue(r models.Reading) string {
	if !r.Available {
		return "N/A"
	}
	return humanize.CommafWithDigits(math.Round(r.Value*10)/10, 1)
}
