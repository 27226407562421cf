package runwalk

import "fmt"

// Kind classifies an interval.
type Kind string

const (
	Run  Kind = "run"
	Walk Kind = "walk"
)

// Boundary is an inclusive index range of one segment.
type Boundary struct {
	Start int `json:"start"`
	Stop  int `json:"stop"`
}

// Degenerate reports whether the segment spans a single sample.
func (b Boundary) Degenerate() bool {
	return b.Start == b.Stop
}

// Segmentation is the run/walk partition of a series. Runs and Walks together cover
// every index exactly once, including single-sample segments.
type Segmentation struct {
	WalkCadence int        `json:"walk_cadence"`
	Runs        []Boundary `json:"runs"`
	Walks       []Boundary `json:"walks"`
}

// Segment scans the series once and splits it into running and walking segments.
//
// A sample is running when its cadence is above walkCadence. The scan starts with a
// walking segment open at index 0 and closes whichever segment is open at the last index.
func Segment(s *Series, walkCadence int) (Segmentation, error) {
	n := s.Len()
	if n == 0 {
		return Segmentation{}, fmt.Errorf("%w: empty series", ErrInsufficientData)
	}

	var (
		runStarts, runStops   []int
		walkStarts, walkStops = []int{0}, []int(nil)
		running               bool
	)
	for i := 1; i < n; i++ {
		now := s.Samples[i].CadenceSPM > walkCadence
		switch {
		case now && !running:
			runStarts = append(runStarts, i)
			walkStops = append(walkStops, i-1)
		case !now && running:
			runStops = append(runStops, i-1)
			walkStarts = append(walkStarts, i)
		}
		running = now
	}
	if running {
		runStops = append(runStops, n-1)
	} else {
		walkStops = append(walkStops, n-1)
	}

	runs, err := pairBoundaries(Run, runStarts, runStops)
	if err != nil {
		return Segmentation{}, err
	}
	walks, err := pairBoundaries(Walk, walkStarts, walkStops)
	if err != nil {
		return Segmentation{}, err
	}
	return Segmentation{WalkCadence: walkCadence, Runs: runs, Walks: walks}, nil
}

func pairBoundaries(kind Kind, starts, stops []int) ([]Boundary, error) {
	if len(starts) != len(stops) {
		return nil, fmt.Errorf("%w: %d %s starts but %d stops", ErrSegmentationInconsistency, len(starts), kind, len(stops))
	}
	out := make([]Boundary, 0, len(starts))
	for i := range starts {
		if stops[i] < starts[i] {
			return nil, fmt.Errorf("%w: %s segment %d stops at %d before start %d", ErrSegmentationInconsistency, kind, i, stops[i], starts[i])
		}
		out = append(out, Boundary{Start: starts[i], Stop: stops[i]})
	}
	return out, nil
}

// Partition returns every segment ordered by start index.
func (sg Segmentation) Partition() []Span {
	out := make([]Span, 0, len(sg.Runs)+len(sg.Walks))
	r, w := 0, 0
	for r < len(sg.Runs) || w < len(sg.Walks) {
		if w >= len(sg.Walks) || (r < len(sg.Runs) && sg.Runs[r].Start < sg.Walks[w].Start) {
			out = append(out, Span{Kind: Run, Boundary: sg.Runs[r]})
			r++
			continue
		}
		out = append(out, Span{Kind: Walk, Boundary: sg.Walks[w]})
		w++
	}
	return out
}

// Emitted returns the partition without single-sample segments.
func (sg Segmentation) Emitted() []Span {
	all := sg.Partition()
	out := make([]Span, 0, len(all))
	for _, seg := range all {
		if seg.Degenerate() {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// Span is a kind-tagged boundary.
type Span struct {
	Kind Kind `json:"kind"`
	Boundary
}
