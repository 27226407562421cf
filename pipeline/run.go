package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	runwalk "github.com/lucasjlepore/runwalk-analyzer"
	"github.com/lucasjlepore/runwalk-analyzer/parser"
)

const (
	trackpointsBase     = "trackpoints"
	intervalsBase       = "intervals"
	activitySummaryName = "activity_summary.json"
	notesName           = "training_summary.md"
)

var (
	trackpointsHeader = []string{
		"act_id", "ts_utc_iso", "time", "distance", "hr", "speed", "cadence",
		"latitude", "longitude", "altitude", "pace", "type", "segment_index",
	}
	intervalsHeader = []string{
		"act_id", "type", "start_index", "stop_index", "start_time", "stop_time",
		"start_dist", "stop_dist", "dhr", "duration", "distance", "hrrate",
	}
)

// Run analyzes one activity file and writes all artifacts into opts.OutDir.
func Run(opts Options) (*Result, error) {
	if strings.TrimSpace(opts.InputPath) == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format, err := normalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	rec, err := parser.ParseFile(opts.InputPath)
	if err != nil {
		return nil, err
	}
	analysis, err := runwalk.Analyze(*rec)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", opts.InputPath, err)
	}

	if err := ensureOutputDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}

	trackpoints := buildTrackpoints(analysis)
	intervals := buildIntervalRows(analysis)

	trackpointsPath := filepath.Join(opts.OutDir, trackpointsBase+"."+format)
	intervalsPath := filepath.Join(opts.OutDir, intervalsBase+"."+format)
	switch format {
	case "csv":
		if err := writeBytes(trackpointsPath, marshalTrackpointsCSV, trackpoints); err != nil {
			return nil, fmt.Errorf("write trackpoints csv: %w", err)
		}
		if err := writeBytes(intervalsPath, marshalIntervalsCSV, intervals); err != nil {
			return nil, fmt.Errorf("write intervals csv: %w", err)
		}
	case "parquet":
		if err := writeTrackpointsParquet(trackpointsPath, trackpoints); err != nil {
			return nil, fmt.Errorf("write trackpoints parquet: %w", err)
		}
		if err := writeIntervalsParquet(intervalsPath, intervals); err != nil {
			return nil, fmt.Errorf("write intervals parquet: %w", err)
		}
	}

	summaryPath := filepath.Join(opts.OutDir, activitySummaryName)
	if err := writeJSON(summaryPath, buildActivitySummary(analysis)); err != nil {
		return nil, fmt.Errorf("write %s: %w", activitySummaryName, err)
	}

	notesPath := filepath.Join(opts.OutDir, notesName)
	if err := os.WriteFile(notesPath, []byte(analysis.Notes), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", notesName, err)
	}

	routePath := ""
	if route, ok, err := marshalRoute(analysis); err != nil {
		return nil, fmt.Errorf("marshal %s: %w", routeName, err)
	} else if ok {
		routePath = filepath.Join(opts.OutDir, routeName)
		if err := os.WriteFile(routePath, route, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", routeName, err)
		}
	}

	res := &Result{
		OutputDir:           opts.OutDir,
		TrackpointsPath:     trackpointsPath,
		IntervalsPath:       intervalsPath,
		ActivitySummaryPath: summaryPath,
		NotesPath:           notesPath,
		RoutePath:           routePath,
		Analysis:            analysis,
	}
	if opts.CopySource {
		data, err := os.ReadFile(opts.InputPath)
		if err != nil {
			return nil, fmt.Errorf("read source file: %w", err)
		}
		res.SourceCopyPath = filepath.Join(opts.OutDir, sourceCopyName(opts.InputPath))
		if err := os.WriteFile(res.SourceCopyPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("copy source file: %w", err)
		}
	}
	return res, nil
}

// RunBytes analyzes in-memory activity data and returns the artifacts without touching disk.
func RunBytes(opts BytesOptions) (*BytesResult, error) {
	if len(opts.Data) == 0 {
		return nil, fmt.Errorf("activity data is required")
	}
	format, err := normalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(opts.SourceFileName)
	if name == "" {
		name = "activity"
	}

	rec, err := parser.ParseData(name, opts.Data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	analysis, err := runwalk.Analyze(*rec)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", name, err)
	}

	trackpoints := buildTrackpoints(analysis)
	intervals := buildIntervalRows(analysis)

	files := make(map[string][]byte, 5)
	var tpData, ivData []byte
	switch format {
	case "csv":
		if tpData, err = marshalTrackpointsCSV(trackpoints); err != nil {
			return nil, fmt.Errorf("marshal trackpoints csv: %w", err)
		}
		if ivData, err = marshalIntervalsCSV(intervals); err != nil {
			return nil, fmt.Errorf("marshal intervals csv: %w", err)
		}
	case "parquet":
		if tpData, err = marshalTrackpointsParquet(trackpoints); err != nil {
			return nil, fmt.Errorf("marshal trackpoints parquet: %w", err)
		}
		if ivData, err = marshalIntervalsParquet(intervals); err != nil {
			return nil, fmt.Errorf("marshal intervals parquet: %w", err)
		}
	}
	files[trackpointsBase+"."+format] = tpData
	files[intervalsBase+"."+format] = ivData

	summary, err := marshalJSON(buildActivitySummary(analysis))
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", activitySummaryName, err)
	}
	files[activitySummaryName] = summary
	files[notesName] = []byte(analysis.Notes)
	route, ok, err := marshalRoute(analysis)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", routeName, err)
	}
	if ok {
		files[routeName] = route
	}
	if opts.CopySource {
		files[sourceCopyName(name)] = append([]byte(nil), opts.Data...)
	}

	return &BytesResult{Files: files, Analysis: analysis}, nil
}

func normalizeFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return "", fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}
	return format, nil
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (set overwrite=true to allow)", path)
	}
	return nil
}

func sourceCopyName(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		ext = ".bin"
	}
	return "source" + ext
}

func activityKey(a *runwalk.Analysis) string {
	return a.ActivityID.UTC().Format(time.RFC3339)
}

func buildTrackpoints(a *runwalk.Analysis) []TrackpointRow {
	n := a.Series.Len()
	kinds := make([]runwalk.Kind, n)
	segment := make([]int, n)
	for idx, sp := range a.Segmentation.Partition() {
		for i := sp.Start; i <= sp.Stop && i < n; i++ {
			kinds[i] = sp.Kind
			segment[i] = idx
		}
	}

	actID := activityKey(a)
	out := make([]TrackpointRow, 0, n)
	for i, s := range a.Series.Samples {
		out = append(out, TrackpointRow{
			ActID:        actID,
			TSUTCISO:     a.Series.TimeAt(i).UTC().Format(time.RFC3339Nano),
			Time:         s.ElapsedSeconds,
			Distance:     s.DistanceM,
			HR:           s.HeartRateBPM,
			Speed:        s.SpeedMPS,
			Cadence:      s.CadenceSPM,
			Latitude:     s.Latitude,
			Longitude:    s.Longitude,
			Altitude:     s.AltitudeM,
			Pace:         s.PaceMinPerKM,
			SegmentKind:  string(kinds[i]),
			SegmentIndex: segment[i],
		})
	}
	return out
}

func buildIntervalRows(a *runwalk.Analysis) []IntervalRow {
	actID := activityKey(a)
	out := make([]IntervalRow, 0, len(a.Intervals))
	for _, iv := range a.Intervals {
		out = append(out, IntervalRow{
			ActID:      actID,
			Type:       string(iv.Kind),
			StartIndex: iv.StartIndex,
			StopIndex:  iv.StopIndex,
			StartTime:  iv.StartTime,
			StopTime:   iv.StopTime,
			StartDist:  iv.StartDist,
			StopDist:   iv.StopDist,
			DHR:        iv.DeltaHR,
			Duration:   iv.Duration,
			Distance:   iv.Distance,
			HRRate:     iv.HRRate,
		})
	}
	return out
}

func buildActivitySummary(a *runwalk.Analysis) ActivitySummaryFile {
	return ActivitySummaryFile{
		FormatVersion:  ArtifactFormatVersion,
		ActivityID:     activityKey(a),
		SourceFile:     a.Source,
		SampleCount:    a.Series.Len(),
		WalkCadenceSPM: a.WalkCadence,
		Summary:        a.Summary,
		Pattern:        a.Pattern,
		Intervals:      a.Intervals,
		Warnings:       buildWarnings(a),
	}
}

func buildWarnings(a *runwalk.Analysis) []string {
	var warnings []string
	partition := a.Segmentation.Partition()
	if dropped := len(partition) - len(a.Intervals); dropped > 0 {
		warnings = append(warnings, fmt.Sprintf("%d single-sample or zero-duration segments omitted from intervals", dropped))
	}
	if a.Summary.AvgPaceMinPerKM == nil {
		warnings = append(warnings, "speed not recorded; pace unavailable")
	}
	if a.Series.Len() > 0 && a.Series.Samples[0].Latitude == nil {
		warnings = append(warnings, "no GPS position recorded")
	}
	return warnings
}

func writeBytes[T any](path string, marshal func(T) ([]byte, error), v T) error {
	data, err := marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func marshalJSON(v any) ([]byte, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func marshalTrackpointsCSV(rows []TrackpointRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(trackpointsHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		record := []string{
			r.ActID,
			r.TSUTCISO,
			formatFloat(r.Time),
			formatFloat(r.Distance),
			strconv.Itoa(r.HR),
			formatFloat(r.Speed),
			strconv.Itoa(r.Cadence),
			formatFloatPtr(r.Latitude),
			formatFloatPtr(r.Longitude),
			formatFloatPtr(r.Altitude),
			formatFloatPtr(r.Pace),
			r.SegmentKind,
			strconv.Itoa(r.SegmentIndex),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalIntervalsCSV(rows []IntervalRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(intervalsHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		record := []string{
			r.ActID,
			r.Type,
			strconv.Itoa(r.StartIndex),
			strconv.Itoa(r.StopIndex),
			formatFloat(r.StartTime),
			formatFloat(r.StopTime),
			formatFloat(r.StartDist),
			formatFloat(r.StopDist),
			strconv.Itoa(r.DHR),
			formatFloat(r.Duration),
			formatFloat(r.Distance),
			formatFloat(r.HRRate),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
