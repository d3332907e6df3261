package dashboard

import (
	"sort"

	"github.com/seenimoa/housingdash/pkg/models"
	"github.com/seenimoa/housingdash/pkg/utils"
)

// Join merges the per-metric series into one table keyed by date. The table
// holds one record per distinct date across all series, in ascending
// calendar order. A slot is nil exactly when that series has no observation
// on the record's date; when a series repeats a date the first observation
// wins. Join returns ErrNoData when no series has any point.
func Join(series map[models.Metric][]models.ProcessedPoint) ([]models.CombinedRecord, error) {
	index := make(map[int64]*models.CombinedRecord)
	var dates []models.Date

	for _, m := range models.AllMetrics() {
		seen := make(map[int64]bool, len(series[m]))
		for _, p := range series[m] {
			k := p.Date.Key()
			rec, ok := index[k]
			if !ok {
				rec = &models.CombinedRecord{Date: p.Date, Month: utils.ShortMonthUTC(p.Date.Time)}
				index[k] = rec
				dates = append(dates, p.Date)
			}
			if seen[k] {
				continue
			}
			seen[k] = true
			rec.Set(m, p.Value)
		}
	}

	if len(dates) == 0 {
		return nil, ErrNoData
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j].Time) })

	records := make([]models.CombinedRecord, 0, len(dates))
	for _, d := range dates {
		records = append(records, *index[d.Key()])
	}
	return records, nil
}
