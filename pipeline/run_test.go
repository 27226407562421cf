package pipeline

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// runWalkTCX renders a 1 Hz TCX activity. Cadence values are steps per minute.
func runWalkTCX(cadence []int) []byte {
	start := time.Date(2024, 5, 4, 7, 30, 0, 0, time.UTC)
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<TrainingCenterDatabase xmlns="http://www.garmin.com/xmlschemas/TrainingCenterDatabase/v2" xmlns:ns3="http://www.garmin.com/xmlschemas/ActivityExtension/v2">
<Activities><Activity Sport="Running">
`)
	fmt.Fprintf(&b, "<Id>%s</Id>\n<Lap><Track>\n", start.Format(time.RFC3339))
	for i, c := range cadence {
		fmt.Fprintf(&b, `<Trackpoint><Time>%s</Time><DistanceMeters>%.1f</DistanceMeters><HeartRateBpm><Value>140</Value></HeartRateBpm><Extensions><ns3:TPX><ns3:Speed>3.0</ns3:Speed><ns3:RunCadence>%d</ns3:RunCadence></ns3:TPX></Extensions></Trackpoint>
`, start.Add(time.Duration(i)*time.Second).Format(time.RFC3339), float64(i)*3, c/2)
	}
	b.WriteString("</Track></Lap></Activity></Activities></TrainingCenterDatabase>\n")
	return []byte(b.String())
}

var testCadence = []int{110, 110, 110, 170, 170, 170, 170, 110, 110, 110}

func writeFixture(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestRunWritesCSVArtifacts(t *testing.T) {
	input := writeFixture(t, "activity_42.tcx", runWalkTCX(testCadence))
	outDir := filepath.Join(t.TempDir(), "out")

	res, err := Run(Options{InputPath: input, OutDir: outDir, Format: "csv", CopySource: true})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	rows := readCSV(t, res.TrackpointsPath)
	if len(rows) != len(testCadence)+1 {
		t.Fatalf("expected %d trackpoint rows, got %d", len(testCadence), len(rows)-1)
	}
	for i, col := range trackpointsHeader {
		if rows[0][i] != col {
			t.Fatalf("unexpected header column %d: got %q want %q", i, rows[0][i], col)
		}
	}
	if rows[1][11] != "walk" || rows[5][11] != "run" {
		t.Fatalf("trackpoints not labelled by segment: %v / %v", rows[1], rows[5])
	}

	intervals := readCSV(t, res.IntervalsPath)
	if len(intervals) != 4 {
		t.Fatalf("expected 3 intervals, got %d", len(intervals)-1)
	}
	if intervals[2][1] != "run" || intervals[2][2] != "3" || intervals[2][3] != "6" {
		t.Fatalf("unexpected run interval row: %v", intervals[2])
	}

	var summary ActivitySummaryFile
	data, err := os.ReadFile(res.ActivitySummaryPath)
	if err != nil {
		t.Fatalf("read activity summary: %v", err)
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("unmarshal activity summary: %v", err)
	}
	if summary.FormatVersion != ArtifactFormatVersion || summary.ActivityID != "2024-05-04T07:30:00Z" {
		t.Fatalf("unexpected summary header: %+v", summary)
	}
	if summary.WalkCadenceSPM != 110 || summary.Summary.RunPercentage != 42.9 {
		t.Fatalf("unexpected summary: walk=%d run_pct=%v", summary.WalkCadenceSPM, summary.Summary.RunPercentage)
	}
	if summary.SampleCount != len(testCadence) {
		t.Fatalf("sample_count = %d", summary.SampleCount)
	}

	notes, err := os.ReadFile(res.NotesPath)
	if err != nil {
		t.Fatalf("read notes: %v", err)
	}
	if !strings.Contains(string(notes), "Running 42.9%") {
		t.Fatalf("notes missing run share:\n%s", notes)
	}
	if filepath.Base(res.SourceCopyPath) != "source.tcx" {
		t.Fatalf("source copy path = %s", res.SourceCopyPath)
	}
}

func TestRunWritesParquet(t *testing.T) {
	input := writeFixture(t, "activity_42.tcx", runWalkTCX(testCadence))
	outDir := t.TempDir()

	res, err := Run(Options{InputPath: input, OutDir: outDir})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	for _, path := range []string{res.TrackpointsPath, res.IntervalsPath} {
		if filepath.Ext(path) != ".parquet" {
			t.Fatalf("expected parquet default, got %s", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if !bytes.HasPrefix(data, []byte("PAR1")) || !bytes.HasSuffix(data, []byte("PAR1")) {
			t.Fatalf("%s is not a parquet file", path)
		}
	}
}

func TestRunRefusesNonEmptyOutputDir(t *testing.T) {
	input := writeFixture(t, "activity_42.tcx", runWalkTCX(testCadence))
	outDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(outDir, "keep.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed output dir: %v", err)
	}

	if _, err := Run(Options{InputPath: input, OutDir: outDir, Format: "csv"}); err == nil {
		t.Fatal("expected error for non-empty output directory")
	}
	if _, err := Run(Options{InputPath: input, OutDir: outDir, Format: "csv", Overwrite: true}); err != nil {
		t.Fatalf("Run() with overwrite error: %v", err)
	}
}

func TestRunRejectsBadOptions(t *testing.T) {
	cases := []Options{
		{OutDir: t.TempDir()},
		{InputPath: "a.tcx"},
		{InputPath: "a.tcx", OutDir: t.TempDir(), Format: "xlsx"},
	}
	for i, opts := range cases {
		if _, err := Run(opts); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestRunReportsAnalysisFailure(t *testing.T) {
	input := writeFixture(t, "activity_1.tcx", runWalkTCX([]int{0, 0, 0}))
	_, err := Run(Options{InputPath: input, OutDir: t.TempDir(), Format: "csv"})
	if err == nil || !strings.Contains(err.Error(), "threshold") {
		t.Fatalf("expected threshold stage error, got %v", err)
	}
}

func TestRunBytesProducesArtifacts(t *testing.T) {
	res, err := RunBytes(BytesOptions{
		SourceFileName: "activity_42.tcx",
		Data:           runWalkTCX(testCadence),
		CopySource:     true,
	})
	if err != nil {
		t.Fatalf("RunBytes() error: %v", err)
	}

	required := []string{
		"trackpoints.parquet",
		"intervals.parquet",
		"activity_summary.json",
		"training_summary.md",
		"source.tcx",
	}
	for _, name := range required {
		if _, ok := res.Files[name]; !ok {
			t.Fatalf("missing artifact %s", name)
		}
	}
	if _, ok := res.Files["route.geojson"]; ok {
		t.Fatal("route.geojson written for an activity without positions")
	}
	if !bytes.HasPrefix(res.Files["trackpoints.parquet"], []byte("PAR1")) {
		t.Fatal("trackpoints.parquet has no parquet magic")
	}
	if res.Analysis == nil || len(res.Analysis.Intervals) != 3 {
		t.Fatalf("unexpected analysis: %+v", res.Analysis)
	}
}

func TestRunBytesCSV(t *testing.T) {
	res, err := RunBytes(BytesOptions{Data: runWalkTCX(testCadence), Format: "CSV"})
	if err != nil {
		t.Fatalf("RunBytes() error: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(res.Files["intervals.csv"])).ReadAll()
	if err != nil {
		t.Fatalf("read intervals csv: %v", err)
	}
	if len(rows) != 4 || rows[0][0] != "act_id" {
		t.Fatalf("unexpected intervals csv: %v", rows)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestZipArtifactsIsDeterministic(t *testing.T) {
	files := map[string][]byte{
		"b.txt": []byte("second"),
		"a.txt": []byte("first"),
	}
	first, err := ZipArtifacts(files)
	if err != nil {
		t.Fatalf("ZipArtifacts() error: %v", err)
	}
	second, err := ZipArtifacts(files)
	if err != nil {
		t.Fatalf("ZipArtifacts() error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("zip output differs between calls")
	}

	zr, err := zip.NewReader(bytes.NewReader(first), int64(len(first)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	if len(zr.File) != 2 || zr.File[0].Name != "a.txt" || zr.File[1].Name != "b.txt" {
		t.Fatalf("unexpected zip entries: %v", zr.File)
	}
}
