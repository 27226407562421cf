package runwalk

import (
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"
)

const patternSchemaVersion = "runwalk_pattern_v1"

// Pattern is a readable view of how the runner alternated between running and walking.
type Pattern struct {
	SchemaVersion  string         `json:"schema_version"`
	Confidence     float64        `json:"confidence"`
	CanonicalLabel string         `json:"canonical_label"`
	Blocks         []PatternBlock `json:"blocks,omitempty"`
	MainSet        *RunWalkSet    `json:"main_set,omitempty"`
}

// PatternBlock is one contiguous group of intervals.
type PatternBlock struct {
	BlockType          string  `json:"block_type"`
	StartInterval      int     `json:"start_interval"`
	EndInterval        int     `json:"end_interval"`
	StartOffsetSeconds float64 `json:"start_offset_seconds"`
	EndOffsetSeconds   float64 `json:"end_offset_seconds"`
	DurationSeconds    float64 `json:"duration_seconds"`
	DistanceMeters     float64 `json:"distance_meters"`
	Description        string  `json:"description"`
}

// RunWalkSet summarizes the repeated run/walk block between the first and last run.
type RunWalkSet struct {
	Reps                 int          `json:"reps"`
	RunSeconds           float64      `json:"run_seconds"`
	WalkSeconds          float64      `json:"walk_seconds"`
	RunDistanceMeters    float64      `json:"run_distance_meters"`
	WalkDistanceMeters   float64      `json:"walk_distance_meters"`
	RunPaceMinPerKM      float64      `json:"run_pace_min_per_km"`
	RunDurationCV        float64      `json:"run_duration_cv"`
	HRRateDriftBPMPerMin float64      `json:"hr_rate_drift_bpm_per_min"`
	Prescription         string       `json:"prescription"`
	RepsDetail           []RunWalkRep `json:"reps_detail,omitempty"`
}

// RunWalkRep is one run and the walk that follows it.
type RunWalkRep struct {
	Rep                int     `json:"rep"`
	RunInterval        int     `json:"run_interval"`
	WalkInterval       int     `json:"walk_interval,omitempty"`
	RunSeconds         float64 `json:"run_seconds"`
	WalkSeconds        float64 `json:"walk_seconds,omitempty"`
	RunDistanceMeters  float64 `json:"run_distance_meters"`
	RunHRRateBPMPerMin float64 `json:"run_hr_rate_bpm_per_min"`
}

// InferPattern groups intervals into warmup, run/walk set and cooldown blocks.
func InferPattern(intervals []Interval) Pattern {
	p := Pattern{
		SchemaVersion: patternSchemaVersion,
		Confidence:    0.25,
	}
	if len(intervals) == 0 {
		p.CanonicalLabel = "unable to infer run/walk pattern (no intervals)"
		return p
	}

	firstRun, lastRun := -1, -1
	for i, iv := range intervals {
		if iv.Kind == Run {
			if firstRun < 0 {
				firstRun = i
			}
			lastRun = i
		}
	}
	if firstRun < 0 {
		p.Blocks = append(p.Blocks, buildPatternBlock(intervals, "walk", 0, len(intervals)-1, "Walking only"))
		p.CanonicalLabel = fmt.Sprintf("walk %s", shortClock(p.Blocks[0].DurationSeconds))
		return p
	}

	if firstRun > 0 {
		p.Blocks = append(p.Blocks, buildPatternBlock(intervals, "warmup", 0, firstRun-1, "Walking warmup before the first run"))
		p.Confidence += 0.08
	}

	set := buildRunWalkSet(intervals, firstRun, lastRun)
	p.MainSet = &set
	p.Blocks = append(p.Blocks, buildPatternBlock(intervals, "main_set", firstRun, lastRun, set.Prescription))
	if set.Reps >= 2 {
		p.Confidence += 0.36
		if set.RunDurationCV < 0.2 {
			p.Confidence += 0.2
		}
	}

	if lastRun < len(intervals)-1 {
		p.Blocks = append(p.Blocks, buildPatternBlock(intervals, "cooldown", lastRun+1, len(intervals)-1, "Walking cooldown after the last run"))
		p.Confidence += 0.08
	}
	if p.Confidence > 0.99 {
		p.Confidence = 0.99
	}

	p.CanonicalLabel = buildPatternLabel(p)
	return p
}

func buildRunWalkSet(intervals []Interval, first, last int) RunWalkSet {
	var (
		runDur, walkDur   []float64
		runDist, walkDist []float64
		runHRRate         []float64
		reps              []RunWalkRep
	)
	for i := first; i <= last; i++ {
		iv := intervals[i]
		if iv.Kind != Run {
			continue
		}
		rep := RunWalkRep{
			Rep:                len(reps) + 1,
			RunInterval:        i + 1,
			RunSeconds:         iv.Duration,
			RunDistanceMeters:  iv.Distance,
			RunHRRateBPMPerMin: iv.HRRate,
		}
		runDur = append(runDur, iv.Duration)
		runDist = append(runDist, iv.Distance)
		runHRRate = append(runHRRate, iv.HRRate)

		if i+1 <= last && intervals[i+1].Kind == Walk {
			w := intervals[i+1]
			rep.WalkInterval = i + 2
			rep.WalkSeconds = w.Duration
			walkDur = append(walkDur, w.Duration)
			walkDist = append(walkDist, w.Distance)
		}
		reps = append(reps, rep)
	}

	set := RunWalkSet{
		Reps:               len(reps),
		RunSeconds:         median(runDur),
		WalkSeconds:        median(walkDur),
		RunDistanceMeters:  median(runDist),
		WalkDistanceMeters: median(walkDist),
		RunDurationCV:      coefficientOfVariation(runDur),
		RepsDetail:         reps,
	}
	if set.RunDistanceMeters > 0 {
		set.RunPaceMinPerKM = round((set.RunSeconds/60)/(set.RunDistanceMeters/1000), 2)
	}
	if len(runHRRate) >= 2 {
		set.HRRateDriftBPMPerMin = runHRRate[len(runHRRate)-1] - runHRRate[0]
	}

	if set.WalkSeconds > 0 {
		set.Prescription = fmt.Sprintf("%dx %s run / %s walk", set.Reps, shortClock(set.RunSeconds), shortClock(set.WalkSeconds))
	} else {
		set.Prescription = fmt.Sprintf("%dx %s run", set.Reps, shortClock(set.RunSeconds))
	}
	return set
}

func buildPatternLabel(p Pattern) string {
	parts := make([]string, 0, len(p.Blocks))
	for _, b := range p.Blocks {
		switch b.BlockType {
		case "warmup":
			parts = append(parts, fmt.Sprintf("warmup walk %s", shortClock(b.DurationSeconds)))
		case "main_set":
			if p.MainSet != nil && p.MainSet.Reps == 1 && p.MainSet.WalkSeconds == 0 {
				parts = append(parts, fmt.Sprintf("continuous run %s", shortClock(b.DurationSeconds)))
			} else {
				parts = append(parts, b.Description)
			}
		case "cooldown":
			parts = append(parts, fmt.Sprintf("cooldown walk %s", shortClock(b.DurationSeconds)))
		}
	}
	if len(parts) == 0 {
		return "unclassified run/walk pattern"
	}
	return strings.Join(parts, " + ")
}

func buildPatternBlock(intervals []Interval, blockType string, start, end int, description string) PatternBlock {
	dur, dist := 0.0, 0.0
	for i := start; i <= end && i < len(intervals); i++ {
		dur += intervals[i].Duration
		dist += intervals[i].Distance
	}
	return PatternBlock{
		BlockType:          blockType,
		StartInterval:      start + 1,
		EndInterval:        end + 1,
		StartOffsetSeconds: intervals[start].StartTime,
		EndOffsetSeconds:   intervals[end].StopTime,
		DurationSeconds:    dur,
		DistanceMeters:     dist,
		Description:        description,
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, err := stats.Float64Data(values).Median()
	if err != nil {
		return 0
	}
	return m
}

func coefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	data := stats.Float64Data(values)
	mean, err := data.Mean()
	if err != nil || mean == 0 {
		return 0
	}
	sd, err := data.StandardDeviation()
	if err != nil {
		return 0
	}
	return sd / mean
}

// shortClock renders seconds as M:SS.
func shortClock(seconds float64) string {
	s := int(math.Round(seconds))
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
