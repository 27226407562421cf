package runwalk

import (
	"math"
	"time"
)

// RawSample is one sensor reading as delivered by a file parser. Nil fields were not recorded.
type RawSample struct {
	Time         time.Time `json:"time"`
	DistanceM    *float64  `json:"distance_m,omitempty"`
	HeartRateBPM *int      `json:"heart_rate_bpm,omitempty"`
	SpeedMPS     *float64  `json:"speed_mps,omitempty"`
	CadenceSPM   *int      `json:"cadence_spm,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	AltitudeM    *float64  `json:"altitude_m,omitempty"`
}

// Recording is one raw activity trace. ID is the activity start timestamp.
type Recording struct {
	ID      time.Time   `json:"id"`
	Source  string      `json:"source,omitempty"`
	Samples []RawSample `json:"samples"`
}

// Sample is one cleaned trackpoint.
type Sample struct {
	ElapsedSeconds float64  `json:"elapsed_seconds"`
	DistanceM      float64  `json:"distance_m"`
	HeartRateBPM   int      `json:"heart_rate_bpm"`
	CadenceSPM     int      `json:"cadence_spm"`
	SpeedMPS       float64  `json:"speed_mps"`
	PaceMinPerKM   *float64 `json:"pace_min_per_km,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	AltitudeM      *float64 `json:"altitude_m,omitempty"`
}

// Series is a cleaned, time-ordered sample sequence. It is not modified after Clean returns it.
type Series struct {
	Start   time.Time `json:"start"`
	Samples []Sample  `json:"samples"`
}

// Len returns the number of samples.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Samples)
}

// Last returns the final sample.
func (s *Series) Last() Sample {
	return s.Samples[len(s.Samples)-1]
}

// TimeAt returns the absolute timestamp of sample i.
func (s *Series) TimeAt(i int) time.Time {
	return s.Start.Add(secondsToDuration(s.Samples[i].ElapsedSeconds))
}

// Raw converts the series back into raw samples with absolute timestamps.
func (s *Series) Raw() []RawSample {
	out := make([]RawSample, 0, s.Len())
	for i, sm := range s.Samples {
		out = append(out, RawSample{
			Time:         s.TimeAt(i),
			DistanceM:    floatPtr(sm.DistanceM),
			HeartRateBPM: intPtr(sm.HeartRateBPM),
			SpeedMPS:     floatPtr(sm.SpeedMPS),
			CadenceSPM:   intPtr(sm.CadenceSPM),
			Latitude:     copyFloat(sm.Latitude),
			Longitude:    copyFloat(sm.Longitude),
			AltitudeM:    copyFloat(sm.AltitudeM),
		})
	}
	return out
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

func floatPtr(v float64) *float64 {
	out := v
	return &out
}

func intPtr(v int) *int {
	out := v
	return &out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return floatPtr(*v)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
