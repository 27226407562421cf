package runwalk

import (
	"fmt"
	"math"
)

// CadenceFloor excludes standing and near-zero cadence readings from threshold estimation.
const CadenceFloor = 80

// EstimateWalkCadence returns the cadence at or below which a sample counts as walking.
//
// Over cadences above CadenceFloor it takes the midpoint of the slowest and fastest value
// (rounded half to even) and returns the largest observed cadence strictly below it.
func EstimateWalkCadence(s *Series) (int, error) {
	minCad, maxCad := math.MaxInt, math.MinInt
	found := false
	for _, sm := range s.Samples {
		if sm.CadenceSPM <= CadenceFloor {
			continue
		}
		found = true
		minCad = min(minCad, sm.CadenceSPM)
		maxCad = max(maxCad, sm.CadenceSPM)
	}
	if !found {
		return 0, fmt.Errorf("%w: no cadence above %d spm", ErrInsufficientData, CadenceFloor)
	}

	avg := int(math.RoundToEven(float64(minCad+maxCad) / 2))
	walk := -1
	for _, sm := range s.Samples {
		c := sm.CadenceSPM
		if c <= CadenceFloor || c >= avg {
			continue
		}
		if c > walk {
			walk = c
		}
	}
	if walk < 0 {
		return 0, fmt.Errorf("%w: no cadence below midpoint %d spm", ErrInsufficientData, avg)
	}
	return walk, nil
}
