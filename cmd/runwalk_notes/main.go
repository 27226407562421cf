package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	runwalk "github.com/lucasjlepore/runwalk-analyzer"
	"github.com/lucasjlepore/runwalk-analyzer/parser"
)

func main() {
	var (
		jsonOut       = flag.Bool("json", false, "Emit full analysis as JSON")
		showIntervals = flag.Bool("intervals", false, "Include sample index ranges and start/stop times per interval")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path-to-tcx-or-fit-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	rec, err := parser.ParseFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse failed: %v\n", err)
		os.Exit(1)
	}
	analysis, err := runwalk.Analyze(*rec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed (%s): %v\n", runwalk.ErrorKind(err), err)
		os.Exit(1)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(analysis); err != nil {
			fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(analysis.Notes)
	if *showIntervals && len(analysis.Intervals) > 0 {
		fmt.Println()
		fmt.Println("Interval Detail")
		for i, iv := range analysis.Intervals {
			fmt.Printf(
				"- %02d | %-4s | samples %5d-%-5d | %8.1fs-%-8.1fs | %7.1f-%-7.1f m\n",
				i+1,
				iv.Kind,
				iv.StartIndex,
				iv.StopIndex,
				iv.StartTime,
				iv.StopTime,
				iv.StartDist,
				iv.StopDist,
			)
		}
	}
}
