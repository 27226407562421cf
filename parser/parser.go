package parser

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	runwalk "github.com/lucasjlepore/runwalk-analyzer"
)

// ParseFile reads an activity file, choosing the decoder by extension and then by content.
func ParseFile(path string) (*runwalk.Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read activity file: %w", err)
	}
	rec, err := ParseData(filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rec, nil
}

// ParseData decodes activity bytes. name is used for the format hint and as Recording.Source.
func ParseData(name string, data []byte) (*runwalk.Recording, error) {
	kind := typeFromExtension(name)
	if kind == FileTypeUnknown {
		kind = DetectFileTypeFromData(data)
	}

	var (
		rec *runwalk.Recording
		err error
	)
	switch kind {
	case FileTypeFIT:
		rec, err = DecodeFIT(bytes.NewReader(data))
	case FileTypeTCX:
		rec, err = ParseTCX(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported activity file type for %q", name)
	}
	if err != nil {
		return nil, err
	}
	rec.Source = name
	return rec, nil
}

func typeFromExtension(name string) FileType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".fit":
		return FileTypeFIT
	case ".tcx":
		return FileTypeTCX
	default:
		return FileTypeUnknown
	}
}

// ListActivityFiles returns the .tcx and .fit files in dir, ordered by the numeric suffix
// after the last underscore in the file name (activity_1234.tcx), then by name.
func ListActivityFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read activities directory: %w", err)
	}

	type entry struct {
		path   string
		name   string
		id     int64
		hasNum bool
	}
	files := make([]entry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || typeFromExtension(e.Name()) == FileTypeUnknown {
			continue
		}
		id, ok := activityNumber(e.Name())
		files = append(files, entry{
			path:   filepath.Join(dir, e.Name()),
			name:   e.Name(),
			id:     id,
			hasNum: ok,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.hasNum != b.hasNum {
			return a.hasNum
		}
		if a.hasNum && a.id != b.id {
			return a.id < b.id
		}
		return a.name < b.name
	})

	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.path)
	}
	return out, nil
}

func activityNumber(name string) (int64, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	idx := strings.LastIndex(stem, "_")
	if idx < 0 || idx == len(stem)-1 {
		return 0, false
	}
	n, err := strconv.ParseInt(stem[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
