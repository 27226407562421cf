package pipeline

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	runwalk "github.com/lucasjlepore/runwalk-analyzer"
)

const routeName = "route.geojson"

// buildRoute returns one LineString feature per interval. Samples without a position are
// skipped; intervals left with fewer than two points are dropped. ok is false when the
// activity has no usable positions.
func buildRoute(a *runwalk.Analysis) (*geojson.FeatureCollection, bool) {
	fc := geojson.NewFeatureCollection()
	for i, iv := range a.Intervals {
		line := make(orb.LineString, 0, iv.StopIndex-iv.StartIndex+1)
		for j := iv.StartIndex; j <= iv.StopIndex && j < a.Series.Len(); j++ {
			s := a.Series.Samples[j]
			if s.Latitude == nil || s.Longitude == nil {
				continue
			}
			line = append(line, orb.Point{*s.Longitude, *s.Latitude})
		}
		if len(line) < 2 {
			continue
		}
		f := geojson.NewFeature(line)
		f.Properties["interval"] = i + 1
		f.Properties["type"] = string(iv.Kind)
		f.Properties["duration_s"] = iv.Duration
		f.Properties["distance_m"] = iv.Distance
		f.Properties["hr_rate_bpm_per_min"] = iv.HRRate
		fc.Append(f)
	}
	return fc, len(fc.Features) > 0
}

func marshalRoute(a *runwalk.Analysis) ([]byte, bool, error) {
	fc, ok := buildRoute(a)
	if !ok {
		return nil, false, nil
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
