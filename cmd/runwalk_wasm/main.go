//go:build js && wasm

package main

import (
	"fmt"
	"sort"
	"syscall/js"

	"github.com/lucasjlepore/runwalk-analyzer/pipeline"
)

func main() {
	js.Global().Set("analyzeRunWalk", js.FuncOf(analyzeRunWalk))
	select {}
}

func analyzeRunWalk(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		return failure("expected arguments: fileBytes(Uint8Array), options(object)")
	}
	fileArg := args[0]
	optsArg := args[1]
	if fileArg.IsUndefined() || fileArg.IsNull() || fileArg.Get("length").Int() == 0 {
		return failure("activity file bytes are required")
	}

	fileBytes := make([]byte, fileArg.Get("length").Int())
	if n := js.CopyBytesToGo(fileBytes, fileArg); n == 0 {
		return failure("failed to read activity bytes from JS input")
	}

	result, err := pipeline.RunBytes(pipeline.BytesOptions{
		SourceFileName: getString(optsArg, "source_file_name", "activity.tcx"),
		Data:           fileBytes,
		Format:         getString(optsArg, "format", "parquet"),
		CopySource:     true,
	})
	if err != nil {
		return failure(err.Error())
	}

	zipBytes, err := pipeline.ZipArtifacts(result.Files)
	if err != nil {
		return failure(fmt.Sprintf("create zip: %v", err))
	}
	payload := js.Global().Get("Uint8Array").New(len(zipBytes))
	js.CopyBytesToJS(payload, zipBytes)

	fileNames := make([]string, 0, len(result.Files))
	for name := range result.Files {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	sum := result.Analysis.Summary
	return map[string]any{
		"ok":             true,
		"zip":            payload,
		"files":          stringsToAny(fileNames),
		"run_percentage": sum.RunPercentage,
		"walk_cadence":   sum.WalkCadence,
		"duration":       sum.TotalDuration,
		"pattern":        result.Analysis.Pattern.CanonicalLabel,
	}
}

func failure(msg string) map[string]any {
	return map[string]any{
		"ok":    false,
		"error": msg,
	}
}

func getString(v js.Value, key, fallback string) string {
	if v.IsUndefined() || v.IsNull() {
		return fallback
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() {
		return fallback
	}
	s := out.String()
	if s == "" || s == "undefined" || s == "null" {
		return fallback
	}
	return s
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
