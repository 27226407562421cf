package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasjlepore/runwalk-analyzer/pipeline"
)

func main() {
	var (
		inputPath = flag.String("in", "", "Path to input .tcx or .fit file")
		outDir    = flag.String("out", "", "Output directory")
		format    = flag.String("format", "parquet", "Trackpoint and interval table format: parquet|csv")
		overwrite = flag.Bool("overwrite", true, "Allow writing into non-empty output directories")
		copySrc   = flag.Bool("copy-source", true, "Copy the input file into the output directory")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --in activity.tcx --out outdir [--format parquet|csv]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*inputPath) == "" || strings.TrimSpace(*outDir) == "" {
		flag.Usage()
		os.Exit(2)
	}

	result, err := pipeline.Run(pipeline.Options{
		InputPath:  *inputPath,
		OutDir:     *outDir,
		Format:     *format,
		Overwrite:  *overwrite,
		CopySource: *copySrc,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "runwalk_analyze failed: %v\n", err)
		os.Exit(1)
	}

	sum := result.Analysis.Summary
	fmt.Printf("runwalk_analyze complete\n")
	fmt.Printf("Output dir:          %s\n", result.OutputDir)
	fmt.Printf("trackpoints:         %s\n", result.TrackpointsPath)
	fmt.Printf("intervals:           %s\n", result.IntervalsPath)
	fmt.Printf("activity summary:    %s\n", result.ActivitySummaryPath)
	fmt.Printf("training notes:      %s\n", result.NotesPath)
	if result.RoutePath != "" {
		fmt.Printf("route:               %s\n", result.RoutePath)
	}
	if result.SourceCopyPath != "" {
		fmt.Printf("source copy:         %s\n", result.SourceCopyPath)
	}
	fmt.Printf("run share:           %.1f%% (%d runs, %d walks, walk cadence %d spm)\n",
		sum.RunPercentage, sum.RunCount, sum.WalkCount, sum.WalkCadence)
}
