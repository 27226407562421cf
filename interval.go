package runwalk

import "math"

// Interval is one running or walking stretch with its aggregate statistics.
type Interval struct {
	Kind       Kind    `json:"kind"`
	StartIndex int     `json:"start_index"`
	StopIndex  int     `json:"stop_index"`
	StartTime  float64 `json:"start_time_s"`
	StopTime   float64 `json:"stop_time_s"`
	StartDist  float64 `json:"start_dist_m"`
	StopDist   float64 `json:"stop_dist_m"`
	Duration   float64 `json:"duration_s"`
	Distance   float64 `json:"distance_m"`
	DeltaHR    int     `json:"delta_hr_bpm"`
	HRRate     float64 `json:"hr_rate_bpm_per_min"`
}

// Aggregate builds one Interval per non-degenerate segment, ordered by start index.
// Segments whose duration is zero are left out.
func Aggregate(s *Series, sg Segmentation) []Interval {
	spans := sg.Emitted()
	out := make([]Interval, 0, len(spans))
	for _, sp := range spans {
		start := s.Samples[sp.Start]
		stop := s.Samples[sp.Stop]

		duration := stop.ElapsedSeconds - start.ElapsedSeconds
		if duration <= 0 {
			continue
		}
		dHR := stop.HeartRateBPM - start.HeartRateBPM
		out = append(out, Interval{
			Kind:       sp.Kind,
			StartIndex: sp.Start,
			StopIndex:  sp.Stop,
			StartTime:  start.ElapsedSeconds,
			StopTime:   stop.ElapsedSeconds,
			StartDist:  start.DistanceM,
			StopDist:   stop.DistanceM,
			Duration:   duration,
			Distance:   stop.DistanceM - start.DistanceM,
			DeltaHR:    dHR,
			HRRate:     math.Abs(float64(dHR) / duration * 60),
		})
	}
	return out
}
