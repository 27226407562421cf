package runwalk

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func buildRecording(cadence []int) Recording {
	samples := make([]RawSample, 0, len(cadence))
	for i, c := range cadence {
		samples = append(samples, rawAt(i, float64(i)*3, 140, c, 3.0))
	}
	return Recording{ID: testStart, Source: "activity_1.tcx", Samples: samples}
}

func TestAnalyzeShortScenario(t *testing.T) {
	a, err := Analyze(buildRecording([]int{70, 70, 70, 160, 162, 160, 158, 70, 70, 70}))
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if a.WalkCadence != 158 {
		t.Fatalf("walk cadence = %d, want 158", a.WalkCadence)
	}
	want := []struct {
		kind        Kind
		start, stop int
	}{
		{Walk, 0, 2},
		{Run, 3, 5},
		{Walk, 6, 9},
	}
	if len(a.Intervals) != len(want) {
		t.Fatalf("expected %d intervals, got %+v", len(want), a.Intervals)
	}
	for i, w := range want {
		iv := a.Intervals[i]
		if iv.Kind != w.kind || iv.StartIndex != w.start || iv.StopIndex != w.stop {
			t.Fatalf("interval %d = %s[%d,%d], want %s[%d,%d]", i, iv.Kind, iv.StartIndex, iv.StopIndex, w.kind, w.start, w.stop)
		}
		if iv.Distance != iv.Duration*3 {
			t.Fatalf("interval %d distance = %v, want %v", i, iv.Distance, iv.Duration*3)
		}
		if iv.DeltaHR != 0 || iv.HRRate != 0 {
			t.Fatalf("interval %d should have flat heart rate, got %+v", i, iv)
		}
	}
	if a.Summary.RunPercentage != 28.6 {
		t.Fatalf("run percentage = %v, want 28.6", a.Summary.RunPercentage)
	}
}

func TestAnalyzeRunWalkScenario(t *testing.T) {
	a, err := Analyze(buildRecording([]int{110, 112, 110, 166, 168, 166, 164, 110, 112, 110}))
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	s := a.Summary
	if a.WalkCadence != 112 || s.WalkCadence != 112 {
		t.Fatalf("walk cadence = %d/%d, want 112", a.WalkCadence, s.WalkCadence)
	}
	if len(a.Intervals) != 3 || a.Intervals[1].Kind != Run || a.Intervals[1].StartIndex != 3 || a.Intervals[1].StopIndex != 6 {
		t.Fatalf("unexpected intervals: %+v", a.Intervals)
	}
	if s.RunPercentage != 42.9 {
		t.Fatalf("run percentage = %v, want 42.9", s.RunPercentage)
	}
	if s.RunDurationSeconds != 3 || s.WalkDurationSeconds != 4 {
		t.Fatalf("durations run=%v walk=%v, want 3/4", s.RunDurationSeconds, s.WalkDurationSeconds)
	}
	if s.TotalDurationSeconds != 9 || s.TotalDuration != "0:00:09" {
		t.Fatalf("total duration = %v (%s)", s.TotalDurationSeconds, s.TotalDuration)
	}
	if s.TotalDistanceKM != 0.0 {
		t.Fatalf("total distance = %v, want 0.0", s.TotalDistanceKM)
	}
	if s.AvgPaceMinPerKM == nil || *s.AvgPaceMinPerKM != 5.6 {
		t.Fatalf("avg pace = %v, want 5.6", s.AvgPaceMinPerKM)
	}
	if s.AvgHeartRateBPM != 140 {
		t.Fatalf("avg hr = %v, want 140", s.AvgHeartRateBPM)
	}
	if !strings.Contains(a.Notes, "Running 42.9%") {
		t.Fatalf("notes missing run share:\n%s", a.Notes)
	}
}

func TestAnalyzeSingleTransition(t *testing.T) {
	a, err := Analyze(buildRecording([]int{100, 100, 100, 100, 170, 170, 170, 170}))
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if len(a.Intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %+v", a.Intervals)
	}
	if a.Intervals[0].Kind != Walk || a.Intervals[0].StartIndex != 0 || a.Intervals[0].StopIndex != 3 {
		t.Fatalf("unexpected walk: %+v", a.Intervals[0])
	}
	if a.Intervals[1].Kind != Run || a.Intervals[1].StartIndex != 4 || a.Intervals[1].StopIndex != 7 {
		t.Fatalf("unexpected run: %+v", a.Intervals[1])
	}
	if a.Summary.RunPercentage != 50 {
		t.Fatalf("run percentage = %v, want 50", a.Summary.RunPercentage)
	}
}

func TestAnalyzeStageErrors(t *testing.T) {
	noHR := buildRecording([]int{100, 170, 100})
	for i := range noHR.Samples {
		noHR.Samples[i].HeartRateBPM = nil
	}

	tests := []struct {
		name  string
		rec   Recording
		stage Stage
		want  error
	}{
		{name: "empty", rec: Recording{ID: testStart}, stage: StageImpute, want: ErrInsufficientData},
		{name: "missing heart rate", rec: noHR, stage: StageImpute, want: ErrMissingField},
		{name: "all zero cadence", rec: buildRecording([]int{0, 0, 0, 0, 0}), stage: StageThreshold, want: ErrInsufficientData},
		{name: "no measurable interval", rec: buildRecording([]int{100, 170}), stage: StageSummary, want: ErrDegenerateActivity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := Analyze(tc.rec)
			if a != nil {
				t.Fatalf("expected no analysis on failure")
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
			var se *StageError
			if !errors.As(err, &se) {
				t.Fatalf("expected *StageError, got %T", err)
			}
			if se.Stage != tc.stage {
				t.Fatalf("stage = %s, want %s", se.Stage, tc.stage)
			}
			if !se.ActivityID.Equal(testStart) {
				t.Fatalf("activity id = %v, want %v", se.ActivityID, testStart)
			}
			if !IsActivityError(err) {
				t.Fatalf("IsActivityError(%v) = false", err)
			}
		})
	}
}

func TestAnalyzeDefaultsActivityIDToFirstSample(t *testing.T) {
	rec := buildRecording([]int{100, 100, 170, 170, 100, 100})
	rec.ID = time.Time{}
	a, err := Analyze(rec)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if !a.ActivityID.Equal(testStart) {
		t.Fatalf("activity id = %v, want %v", a.ActivityID, testStart)
	}
}

func TestSummarizeRunPercentageBounds(t *testing.T) {
	s := seriesFromCadence([]int{100, 100, 170, 170, 170, 100})
	intervals := []Interval{
		{Kind: Run, Duration: 2},
		{Kind: Walk, Duration: 1},
	}
	sum, err := Summarize(s, intervals)
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if sum.RunPercentage < 0 || sum.RunPercentage > 100 {
		t.Fatalf("run percentage out of bounds: %v", sum.RunPercentage)
	}
	if sum.RunPercentage != 66.7 {
		t.Fatalf("run percentage = %v, want 66.7", sum.RunPercentage)
	}
	if sum.RunCount != 1 || sum.WalkCount != 1 {
		t.Fatalf("counts = %d/%d, want 1/1", sum.RunCount, sum.WalkCount)
	}

	if _, err := Summarize(s, nil); !errors.Is(err, ErrDegenerateActivity) {
		t.Fatalf("error = %v, want ErrDegenerateActivity", err)
	}
}

func TestSummarizeAveragesRoundHalfToEven(t *testing.T) {
	s := seriesFromCadence([]int{100, 170})
	s.Samples[0].HeartRateBPM = 140
	s.Samples[1].HeartRateBPM = 141
	sum, err := Summarize(s, []Interval{{Kind: Run, Duration: 1}})
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if sum.AvgHeartRateBPM != 140 {
		t.Fatalf("avg hr = %v, want 140", sum.AvgHeartRateBPM)
	}
}

func TestFormatClock(t *testing.T) {
	tests := map[float64]string{
		0:       "0:00:00",
		9:       "0:00:09",
		3725:    "1:02:05",
		3599.9:  "0:59:59",
		36000.0: "10:00:00",
		-4:      "0:00:00",
	}
	for in, want := range tests {
		if got := FormatClock(in); got != want {
			t.Fatalf("FormatClock(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestErrorKind(t *testing.T) {
	if ErrorKind(nil) != "" {
		t.Fatalf("ErrorKind(nil) should be empty")
	}
	wrapped := &StageError{ActivityID: testStart, Stage: StageSegment, Err: ErrSegmentationInconsistency}
	if ErrorKind(wrapped) != "segmentation_inconsistency" {
		t.Fatalf("Kind = %q", ErrorKind(wrapped))
	}
	if IsActivityError(errors.New("disk full")) {
		t.Fatalf("unexpected errors must not count as activity errors")
	}
	if !strings.Contains(wrapped.Error(), "2024-05-04T07:30:00Z: segment") {
		t.Fatalf("unexpected error text: %s", wrapped.Error())
	}
}
