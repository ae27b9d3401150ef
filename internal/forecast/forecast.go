// Package forecast estimates how fast stocked items are used up.
package forecast

import (
	"math"
	"time"
)

// Alpha is the weight given to the newest observation.
const Alpha = 0.3

// Rate returns the updated daily consumption rate after quantity fell from
// before to after. Elapsed time is rounded up to whole days with a floor of
// one, so several decreases on the same day each count as a full day.
// If quantity did not fall the old rate is returned unchanged.
func Rate(oldRate, before, after float64, lastUpdated, now time.Time) float64 {
	if after >= before {
		return oldRate
	}
	consumed := before - after
	days := math.Max(1, math.Ceil(now.Sub(lastUpdated).Hours()/24))
	daily := consumed / days
	return Alpha*daily + (1-Alpha)*oldRate
}

// DaysUntil returns the whole days from now until t, rounded up.
func DaysUntil(t, now time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}
