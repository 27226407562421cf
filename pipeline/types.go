package pipeline

import runwalk "github.com/lucasjlepore/runwalk-analyzer"

// ArtifactFormatVersion tags activity_summary.json.
const ArtifactFormatVersion = "runwalk_artifacts_v1"

// Options configures the runwalk_analyze pipeline.
type Options struct {
	InputPath  string
	OutDir     string
	Format     string // parquet|csv
	Overwrite  bool
	CopySource bool
}

// Result returns generated output paths.
type Result struct {
	OutputDir           string            `json:"output_dir"`
	TrackpointsPath     string            `json:"trackpoints_path"`
	IntervalsPath       string            `json:"intervals_path"`
	ActivitySummaryPath string            `json:"activity_summary_path"`
	NotesPath           string            `json:"notes_path"`
	RoutePath           string            `json:"route_path,omitempty"`
	SourceCopyPath      string            `json:"source_copy_path,omitempty"`
	Analysis            *runwalk.Analysis `json:"-"`
}

// BytesOptions configures RunBytes for callers that hold the activity in memory.
type BytesOptions struct {
	SourceFileName string
	Data           []byte
	Format         string // parquet|csv
	CopySource     bool
}

// BytesResult maps artifact file names to their contents.
type BytesResult struct {
	Files    map[string][]byte `json:"-"`
	Analysis *runwalk.Analysis `json:"-"`
}

// TrackpointRow is one cleaned sample labelled with the segment it belongs to.
type TrackpointRow struct {
	ActID        string   `json:"act_id"`
	TSUTCISO     string   `json:"ts_utc_iso"`
	Time         float64  `json:"time"`
	Distance     float64  `json:"distance"`
	HR           int      `json:"hr"`
	Speed        float64  `json:"speed"`
	Cadence      int      `json:"cadence"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Altitude     *float64 `json:"altitude,omitempty"`
	Pace         *float64 `json:"pace,omitempty"`
	SegmentKind  string   `json:"type"`
	SegmentIndex int      `json:"segment_index"`
}

// IntervalRow is one emitted interval.
type IntervalRow struct {
	ActID      string  `json:"act_id"`
	Type       string  `json:"type"`
	StartIndex int     `json:"start_index"`
	StopIndex  int     `json:"stop_index"`
	StartTime  float64 `json:"start_time"`
	StopTime   float64 `json:"stop_time"`
	StartDist  float64 `json:"start_dist"`
	StopDist   float64 `json:"stop_dist"`
	DHR        int     `json:"dhr"`
	Duration   float64 `json:"duration"`
	Distance   float64 `json:"distance"`
	HRRate     float64 `json:"hrrate"`
}

// ActivitySummaryFile is the activity_summary.json artifact.
type ActivitySummaryFile struct {
	FormatVersion  string             `json:"format_version"`
	ActivityID     string             `json:"activity_id"`
	SourceFile     string             `json:"source_file,omitempty"`
	SampleCount    int                `json:"sample_count"`
	WalkCadenceSPM int                `json:"walk_cadence_spm"`
	Summary        runwalk.Summary    `json:"summary"`
	Pattern        runwalk.Pattern    `json:"pattern"`
	Intervals      []runwalk.Interval `json:"intervals"`
	Warnings       []string           `json:"warnings,omitempty"`
}
