package runwalk

import (
	"fmt"
	"math"
)

// Summary holds the activity-level statistics.
type Summary struct {
	TotalDurationSeconds float64  `json:"total_duration_s"`
	TotalDuration        string   `json:"total_duration"`
	TotalDistanceKM      float64  `json:"total_distance_km"`
	AvgPaceMinPerKM      *float64 `json:"avg_pace_min_per_km,omitempty"`
	AvgHeartRateBPM      float64  `json:"avg_heart_rate_bpm"`
	RunDurationSeconds   float64  `json:"run_duration_s"`
	WalkDurationSeconds  float64  `json:"walk_duration_s"`
	RunPercentage        float64  `json:"run_percentage"`
	WalkCadence          int      `json:"walk_cadence_spm"`
	RunCount             int      `json:"run_count"`
	WalkCount            int      `json:"walk_count"`
}

// Summarize computes the activity summary from the cleaned series and its intervals.
func Summarize(s *Series, intervals []Interval) (Summary, error) {
	if s.Len() == 0 {
		return Summary{}, fmt.Errorf("%w: empty series", ErrInsufficientData)
	}

	var sum Summary
	for _, iv := range intervals {
		switch iv.Kind {
		case Run:
			sum.RunDurationSeconds += iv.Duration
			sum.RunCount++
		case Walk:
			sum.WalkDurationSeconds += iv.Duration
			sum.WalkCount++
		}
	}
	total := sum.RunDurationSeconds + sum.WalkDurationSeconds
	if total == 0 {
		return Summary{}, fmt.Errorf("%w: no run or walk duration", ErrDegenerateActivity)
	}
	sum.RunPercentage = round(sum.RunDurationSeconds/total*100, 1)

	last := s.Last()
	sum.TotalDurationSeconds = last.ElapsedSeconds
	sum.TotalDuration = FormatClock(last.ElapsedSeconds)
	sum.TotalDistanceKM = round(last.DistanceM/1000, 1)

	paceTotal, paceCount, hrTotal := 0.0, 0, 0.0
	for _, sm := range s.Samples {
		if sm.PaceMinPerKM != nil {
			paceTotal += *sm.PaceMinPerKM
			paceCount++
		}
		hrTotal += float64(sm.HeartRateBPM)
	}
	if paceCount > 0 {
		sum.AvgPaceMinPerKM = floatPtr(round(paceTotal/float64(paceCount), 1))
	}
	sum.AvgHeartRateBPM = math.RoundToEven(hrTotal / float64(s.Len()))

	return sum, nil
}

// FormatClock renders seconds as H:MM:SS, dropping fractional seconds.
func FormatClock(seconds float64) string {
	if seconds < 0 || !isFinite(seconds) {
		seconds = 0
	}
	total := int64(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
}
