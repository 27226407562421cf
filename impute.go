package runwalk

import (
	"fmt"
	"math"
)

// Clean turns raw samples into a cleaned Series.
//
// Speed, cadence, latitude, longitude and altitude treat zero as "not recorded" and are
// forward-filled from the previous recorded value; a leading gap is filled from the first
// recorded value. A column that is never recorded stays empty (zero speed and cadence, nil
// position and altitude). Distance and heart rate keep zero as a real value and only fill
// nil gaps; if either is absent from every sample Clean fails with ErrMissingField.
//
// Samples whose timestamp does not advance past the previous kept sample are dropped, so
// elapsed time is strictly increasing. A zero speed at a genuine full stop is
// indistinguishable from a dropout and is filled like one.
func Clean(raw []RawSample) (*Series, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrInsufficientData)
	}

	kept := collapseTimestamps(raw)
	first := kept[0]
	if !positive(first.SpeedMPS) && !positiveInt(first.CadenceSPM) &&
		!nonZero(first.Latitude) && !nonZero(first.Longitude) && !nonZero(first.AltitudeM) {
		return nil, fmt.Errorf("%w: first sample has no speed, cadence, position or altitude", ErrInsufficientData)
	}

	n := len(kept)
	distance, ok := fillColumn(n, func(i int) (float64, bool) {
		return present(kept[i].DistanceM)
	})
	if !ok {
		return nil, fmt.Errorf("%w: distance", ErrMissingField)
	}
	heartRate, ok := fillColumn(n, func(i int) (float64, bool) {
		if kept[i].HeartRateBPM == nil || *kept[i].HeartRateBPM < 0 {
			return 0, false
		}
		return float64(*kept[i].HeartRateBPM), true
	})
	if !ok {
		return nil, fmt.Errorf("%w: heart_rate", ErrMissingField)
	}

	speed, _ := fillColumn(n, func(i int) (float64, bool) {
		return recorded(kept[i].SpeedMPS, positive)
	})
	cadence, _ := fillColumn(n, func(i int) (float64, bool) {
		if !positiveInt(kept[i].CadenceSPM) {
			return 0, false
		}
		return float64(*kept[i].CadenceSPM), true
	})
	lat, hasLat := fillColumn(n, func(i int) (float64, bool) {
		return recorded(kept[i].Latitude, nonZero)
	})
	lon, hasLon := fillColumn(n, func(i int) (float64, bool) {
		return recorded(kept[i].Longitude, nonZero)
	})
	alt, hasAlt := fillColumn(n, func(i int) (float64, bool) {
		return recorded(kept[i].AltitudeM, nonZero)
	})

	start := first.Time
	samples := make([]Sample, 0, n)
	lastDistance := 0.0
	for i := 0; i < n; i++ {
		d := math.Max(distance[i], lastDistance)
		lastDistance = d

		s := Sample{
			ElapsedSeconds: kept[i].Time.Sub(start).Seconds(),
			DistanceM:      d,
			HeartRateBPM:   int(heartRate[i]),
			CadenceSPM:     int(cadence[i]),
			SpeedMPS:       speed[i],
			PaceMinPerKM:   paceFromSpeed(speed[i]),
		}
		if hasLat {
			s.Latitude = floatPtr(lat[i])
		}
		if hasLon {
			s.Longitude = floatPtr(lon[i])
		}
		if hasAlt {
			s.AltitudeM = floatPtr(alt[i])
		}
		samples = append(samples, s)
	}

	return &Series{Start: start, Samples: samples}, nil
}

// paceFromSpeed converts m/s to min/km rounded to two decimals. Zero speed has no pace.
func paceFromSpeed(speed float64) *float64 {
	if speed <= 0 || !isFinite(speed) {
		return nil
	}
	return floatPtr(round(1/(0.06*speed), 2))
}

func collapseTimestamps(raw []RawSample) []RawSample {
	out := make([]RawSample, 0, len(raw))
	for _, r := range raw {
		if len(out) > 0 && !r.Time.After(out[len(out)-1].Time) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// fillColumn forward-fills a column and backfills its leading gap. It reports false when
// no row has a value.
func fillColumn(n int, at func(i int) (float64, bool)) ([]float64, bool) {
	out := make([]float64, n)
	firstIdx := -1
	var last float64
	for i := 0; i < n; i++ {
		v, ok := at(i)
		if ok {
			last = v
			if firstIdx < 0 {
				firstIdx = i
			}
		}
		out[i] = last
	}
	if firstIdx < 0 {
		return out, false
	}
	for i := 0; i < firstIdx; i++ {
		out[i] = out[firstIdx]
	}
	return out, true
}

func present(v *float64) (float64, bool) {
	if v == nil || !isFinite(*v) {
		return 0, false
	}
	return math.Max(*v, 0), true
}

func recorded(v *float64, valid func(*float64) bool) (float64, bool) {
	if !valid(v) {
		return 0, false
	}
	return *v, true
}

func positive(v *float64) bool {
	return v != nil && isFinite(*v) && *v > 0
}

func positiveInt(v *int) bool {
	return v != nil && *v > 0
}

func nonZero(v *float64) bool {
	return v != nil && isFinite(*v) && *v != 0
}
