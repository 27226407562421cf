package runwalk

import "time"

// Analysis is the full result for one activity.
type Analysis struct {
	ActivityID   time.Time    `json:"activity_id"`
	Source       string       `json:"source,omitempty"`
	Series       *Series      `json:"-"`
	WalkCadence  int          `json:"walk_cadence_spm"`
	Segmentation Segmentation `json:"segmentation"`
	Intervals    []Interval   `json:"intervals"`
	Summary      Summary      `json:"summary"`
	Pattern      Pattern      `json:"pattern"`
	Notes        string       `json:"notes"`
}

// Analyze runs imputation, threshold estimation, segmentation, aggregation and the
// summary for one recording. Any stage failure is returned as a *StageError and no
// partial result is returned.
func Analyze(rec Recording) (*Analysis, error) {
	id := rec.ID
	if id.IsZero() && len(rec.Samples) > 0 {
		id = rec.Samples[0].Time
	}
	fail := func(stage Stage, err error) (*Analysis, error) {
		return nil, &StageError{ActivityID: id, Stage: stage, Err: err}
	}

	series, err := Clean(rec.Samples)
	if err != nil {
		return fail(StageImpute, err)
	}
	walk, err := EstimateWalkCadence(series)
	if err != nil {
		return fail(StageThreshold, err)
	}
	seg, err := Segment(series, walk)
	if err != nil {
		return fail(StageSegment, err)
	}
	intervals := Aggregate(series, seg)
	summary, err := Summarize(series, intervals)
	if err != nil {
		return fail(StageSummary, err)
	}
	summary.WalkCadence = walk

	a := &Analysis{
		ActivityID:   id,
		Source:       rec.Source,
		Series:       series,
		WalkCadence:  walk,
		Segmentation: seg,
		Intervals:    intervals,
		Summary:      summary,
		Pattern:      InferPattern(intervals),
	}
	a.Notes = BuildNotes(a)
	return a, nil
}
