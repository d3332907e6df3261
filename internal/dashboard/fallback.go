package dashboard

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/seenimoa/housingdash/pkg/models"
	"github.com/seenimoa/housingdash/pkg/utils"
)

// FallbackMonths is the length of the synthetic dataset.
const FallbackMonths = 60

// GenerateFallback builds FallbackMonths consecutive monthly records ending
// at the month containing now, with every metric populated by a plausible
// value. Values are rounded to two decimals. A nil rng uses a randomly
// seeded source.
func GenerateFallback(now time.Time, rng *rand.Rand) []models.CombinedRecord {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	start := utils.AddMonthsUTC(now, -(FallbackMonths - 1))

	records := make([]models.CombinedRecord, 0, FallbackMonths)
	for i := 0; i < FallbackMonths; i++ {
		d := models.DateOf(utils.AddMonthsUTC(start, i))
		x := float64(i)

		rec := models.CombinedRecord{Date: d, Month: utils.ShortMonthUTC(d.Time)}
		rec.Set(models.MetricPriceIndex, round2(100+x*0.5+rng.Float64()*5))
		rec.Set(models.MetricInventory, round2(4+math.Sin(x/10)*1.5+rng.Float64()*0.5))
		rec.Set(models.MetricMortgageRate, round2(3+math.Sin(x/15)+rng.Float64()*0.3))
		rec.Set(models.MetricConstructionSpend, round2(1200+x*10+math.Sin(x/8)*100+rng.Float64()*50))
		rec.Set(models.MetricBankruptcies, round2(2000+math.Sin(x/12)*200+rng.Float64()*100))
		records = append(records, rec)
	}
	return records
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
