package runwalk

import (
	"fmt"
	"math"
	"strings"
)

// BuildNotes turns an analysis into a readable activity summary with an interval table.
func BuildNotes(a *Analysis) string {
	if a == nil {
		return ""
	}

	var b strings.Builder
	s := a.Summary

	fmt.Fprintf(&b, "Activity: %s\n", a.ActivityID.Format("2006-01-02 15:04:05"))
	pace := "n/a"
	if s.AvgPaceMinPerKM != nil {
		pace = paceClock(*s.AvgPaceMinPerKM) + " /km"
	}
	fmt.Fprintf(
		&b,
		"Duration %s | Distance %.1f km | Pace %s | HR %.0f avg bpm\n",
		s.TotalDuration,
		s.TotalDistanceKM,
		pace,
		s.AvgHeartRateBPM,
	)
	fmt.Fprintf(
		&b,
		"Running %.1f%% (%s run / %s walk) | Walk cadence threshold %d spm\n",
		s.RunPercentage,
		formatDuration(s.RunDurationSeconds),
		formatDuration(s.WalkDurationSeconds),
		a.WalkCadence,
	)

	if a.Pattern.CanonicalLabel != "" {
		b.WriteString("\nRun/Walk Pattern\n")
		fmt.Fprintf(&b, "- %s (confidence %.0f%%)\n", a.Pattern.CanonicalLabel, a.Pattern.Confidence*100.0)
		if ms := a.Pattern.MainSet; ms != nil && ms.Reps >= 2 {
			fmt.Fprintf(
				&b,
				"- Run reps: %d, median %s over %.0f m, HR rate drift %+.1f bpm/min first to last.\n",
				ms.Reps,
				formatDuration(ms.RunSeconds),
				ms.RunDistanceMeters,
				ms.HRRateDriftBPMPerMin,
			)
		}
	}

	if len(a.Intervals) > 0 {
		b.WriteString("\nIntervals\n")
		for i, iv := range a.Intervals {
			fmt.Fprintf(
				&b,
				"- %02d %-4s | %8s | %6.0f m | %+4d bpm | %5.1f bpm/min\n",
				i+1,
				iv.Kind,
				formatDuration(iv.Duration),
				iv.Distance,
				iv.DeltaHR,
				iv.HRRate,
			)
		}
	}

	b.WriteString("\nNotes\n- ")
	b.WriteString(pacingAssessment(a))
	b.WriteByte('\n')

	return strings.TrimSpace(b.String())
}

func pacingAssessment(a *Analysis) string {
	s := a.Summary
	ms := a.Pattern.MainSet
	switch {
	case s.RunPercentage >= 95:
		return "Essentially continuous running; walk breaks were negligible."
	case ms != nil && ms.Reps >= 3 && ms.RunDurationCV < 0.2:
		return "Run/walk intervals were evenly repeated; the structure looks planned rather than forced."
	case ms != nil && ms.Reps >= 3 && ms.HRRateDriftBPMPerMin > 5:
		return "Heart rate climbed faster in later runs; walk breaks may need to start earlier or last longer."
	case s.RunPercentage < 30:
		return "Mostly walking; running segments were short relative to the session."
	default:
		return "Mixed run/walk session with irregular segment lengths."
	}
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

// paceClock renders decimal minutes per km as M:SS.
func paceClock(minutes float64) string {
	return shortClock(minutes * 60)
}
