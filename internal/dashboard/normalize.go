package dashboard

import (
	"math"
	"strconv"
	"strings"

	"github.com/seenimoa/housingdash/pkg/models"
	"github.com/seenimoa/housingdash/pkg/utils"
)

// Normalize converts raw observations into processed points. Observations
// whose value is not a finite number (including the "." missing-value
// sentinel) or whose date does not parse are dropped. Order is preserved.
func Normalize(obs []models.Observation) []models.ProcessedPoint {
	out := make([]models.ProcessedPoint, 0, len(obs))
	for _, o := range obs {
		v, ok := parseValue(o.Value)
		if !ok {
			continue
		}
		d, err := models.ParseDate(o.Date)
		if err != nil {
			continue
		}
		out = append(out, models.ProcessedPoint{
			Date:  d,
			Month: utils.ShortMonthUTC(d.Time),
			Value: v,
		})
	}
	return out
}

func parseValue(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
