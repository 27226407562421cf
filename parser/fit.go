package parser

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	runwalk "github.com/lucasjlepore/runwalk-analyzer"
	"github.com/tormoder/fit"
)

// DecodeFIT reads the record messages of a FIT activity file.
//
// Running cadence in FIT counts one foot per minute and is doubled to steps per minute.
// The activity id is the first session's start time, falling back to the first record.
func DecodeFIT(r io.Reader) (*runwalk.Recording, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}

	records := make([]*fit.RecordMsg, 0, len(activity.Records))
	for _, rec := range activity.Records {
		if rec == nil || validTimeOrZero(rec.Timestamp).IsZero() {
			continue
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	out := &runwalk.Recording{Samples: make([]runwalk.RawSample, 0, len(records))}
	for _, rec := range records {
		out.Samples = append(out.Samples, runwalk.RawSample{
			Time:         rec.Timestamp,
			DistanceM:    scaled(rec.GetDistanceScaled()),
			HeartRateBPM: extractHeartRate(rec),
			SpeedMPS:     extractSpeed(rec),
			CadenceSPM:   extractCadence(rec),
			Latitude:     extractLatitude(rec),
			Longitude:    extractLongitude(rec),
			AltitudeM:    extractAltitude(rec),
		})
	}

	if len(activity.Sessions) > 0 && activity.Sessions[0] != nil {
		out.ID = validTimeOrZero(activity.Sessions[0].StartTime)
	}
	if out.ID.IsZero() && len(out.Samples) > 0 {
		out.ID = out.Samples[0].Time
	}
	return out, nil
}

func extractHeartRate(rec *fit.RecordMsg) *int {
	if rec.HeartRate == math.MaxUint8 {
		return nil
	}
	hr := int(rec.HeartRate)
	return &hr
}

func extractCadence(rec *fit.RecordMsg) *int {
	if rec.Cadence == math.MaxUint8 {
		return nil
	}
	steps := int(rec.Cadence) * 2
	return &steps
}

func extractSpeed(rec *fit.RecordMsg) *float64 {
	if v := scaled(rec.GetEnhancedSpeedScaled()); v != nil {
		return v
	}
	return scaled(rec.GetSpeedScaled())
}

func extractAltitude(rec *fit.RecordMsg) *float64 {
	if v := scaled(rec.GetEnhancedAltitudeScaled()); v != nil {
		return v
	}
	return scaled(rec.GetAltitudeScaled())
}

func extractLatitude(rec *fit.RecordMsg) *float64 {
	if rec.PositionLat.Invalid() {
		return nil
	}
	v := rec.PositionLat.Degrees()
	return &v
}

func extractLongitude(rec *fit.RecordMsg) *float64 {
	if rec.PositionLong.Invalid() {
		return nil
	}
	v := rec.PositionLong.Degrees()
	return &v
}

// scaled drops the NaN the fit getters return for invalid fields.
func scaled(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}
