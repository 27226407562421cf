package runwalk

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

var testStart = time.Date(2024, 5, 4, 7, 30, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }
func i32(v int) *int         { return &v }

func rawAt(sec int, dist float64, hr, cad int, speed float64) RawSample {
	return RawSample{
		Time:         testStart.Add(time.Duration(sec) * time.Second),
		DistanceM:    f64(dist),
		HeartRateBPM: i32(hr),
		SpeedMPS:     f64(speed),
		CadenceSPM:   i32(cad),
	}
}

func TestCleanForwardFillsZeroSentinels(t *testing.T) {
	raw := []RawSample{
		rawAt(0, 0, 120, 150, 2.5),
		rawAt(1, 3, 121, 0, 0),
		rawAt(2, 6, 122, 0, 0),
		rawAt(3, 9, 123, 160, 3.0),
	}
	raw[0].Latitude, raw[0].Longitude = f64(52.1), f64(21.0)
	raw[1].Latitude, raw[1].Longitude = f64(0), f64(0)
	raw[3].Latitude, raw[3].Longitude = f64(52.2), f64(21.1)

	s, err := Clean(raw)
	if err != nil {
		t.Fatalf("Clean error: %v", err)
	}
	wantSpeed := []float64{2.5, 2.5, 2.5, 3.0}
	wantCad := []int{150, 150, 150, 160}
	wantLat := []float64{52.1, 52.1, 52.1, 52.2}
	for i, sm := range s.Samples {
		if sm.SpeedMPS != wantSpeed[i] {
			t.Fatalf("speed[%d] = %v, want %v", i, sm.SpeedMPS, wantSpeed[i])
		}
		if sm.CadenceSPM != wantCad[i] {
			t.Fatalf("cadence[%d] = %d, want %d", i, sm.CadenceSPM, wantCad[i])
		}
		if sm.Latitude == nil || *sm.Latitude != wantLat[i] {
			t.Fatalf("latitude[%d] = %v, want %v", i, sm.Latitude, wantLat[i])
		}
		if sm.AltitudeM != nil {
			t.Fatalf("altitude[%d] should stay unrecorded, got %v", i, *sm.AltitudeM)
		}
	}
}

func TestCleanBackfillsLeadingGap(t *testing.T) {
	raw := []RawSample{
		rawAt(0, 0, 120, 0, 2.0),
		rawAt(1, 2, 120, 0, 2.0),
		rawAt(2, 4, 120, 148, 2.0),
	}
	raw[0].HeartRateBPM = nil

	s, err := Clean(raw)
	if err != nil {
		t.Fatalf("Clean error: %v", err)
	}
	if s.Samples[0].CadenceSPM != 148 || s.Samples[1].CadenceSPM != 148 {
		t.Fatalf("leading cadence not backfilled: %+v", s.Samples[:2])
	}
	if s.Samples[0].HeartRateBPM != 120 {
		t.Fatalf("leading heart rate not backfilled: %d", s.Samples[0].HeartRateBPM)
	}
}

func TestCleanZeroSpeedAtStopIsFilled(t *testing.T) {
	raw := []RawSample{
		rawAt(0, 0, 130, 160, 3.2),
		rawAt(1, 3, 130, 160, 0),
		rawAt(2, 3, 130, 160, 0),
	}
	s, err := Clean(raw)
	if err != nil {
		t.Fatalf("Clean error: %v", err)
	}
	for i, sm := range s.Samples {
		if sm.SpeedMPS != 3.2 {
			t.Fatalf("speed[%d] = %v, zero speed should be treated as missing", i, sm.SpeedMPS)
		}
		if sm.PaceMinPerKM == nil || *sm.PaceMinPerKM != 5.21 {
			t.Fatalf("pace[%d] = %v, want 5.21", i, sm.PaceMinPerKM)
		}
	}
}

func TestCleanPaceUndefinedWithoutSpeed(t *testing.T) {
	raw := []RawSample{
		rawAt(0, 0, 130, 160, 0),
		rawAt(1, 3, 130, 160, 0),
	}
	s, err := Clean(raw)
	if err != nil {
		t.Fatalf("Clean error: %v", err)
	}
	for i, sm := range s.Samples {
		if sm.SpeedMPS != 0 {
			t.Fatalf("speed[%d] = %v, want 0", i, sm.SpeedMPS)
		}
		if sm.PaceMinPerKM != nil {
			t.Fatalf("pace[%d] = %v, want undefined", i, *sm.PaceMinPerKM)
		}
	}
}

func TestCleanNormalizesTimeAndCollapsesTies(t *testing.T) {
	raw := []RawSample{
		rawAt(0, 0, 120, 150, 2.0),
		rawAt(1, 2, 121, 150, 2.0),
		rawAt(1, 2, 199, 150, 2.0),
		rawAt(0, 2, 198, 150, 2.0),
		rawAt(3, 6, 123, 150, 2.0),
	}
	s, err := Clean(raw)
	if err != nil {
		t.Fatalf("Clean error: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 samples after collapsing ties, got %d", s.Len())
	}
	wantElapsed := []float64{0, 1, 3}
	for i, sm := range s.Samples {
		if sm.ElapsedSeconds != wantElapsed[i] {
			t.Fatalf("elapsed[%d] = %v, want %v", i, sm.ElapsedSeconds, wantElapsed[i])
		}
	}
	if s.Samples[1].HeartRateBPM != 121 {
		t.Fatalf("tie should keep the earlier sample, got hr %d", s.Samples[1].HeartRateBPM)
	}
	if !s.Start.Equal(testStart) {
		t.Fatalf("start = %v, want %v", s.Start, testStart)
	}
}

func TestCleanClampsDistance(t *testing.T) {
	raw := []RawSample{
		rawAt(0, 0, 120, 150, 2.0),
		rawAt(1, 5, 120, 150, 2.0),
		rawAt(2, 4, 120, 150, 2.0),
		rawAt(3, 10, 120, 150, 2.0),
	}
	s, err := Clean(raw)
	if err != nil {
		t.Fatalf("Clean error: %v", err)
	}
	want := []float64{0, 5, 5, 10}
	for i, sm := range s.Samples {
		if sm.DistanceM != want[i] {
			t.Fatalf("distance[%d] = %v, want %v", i, sm.DistanceM, want[i])
		}
	}
}

func TestCleanErrors(t *testing.T) {
	noDistance := []RawSample{rawAt(0, 0, 120, 150, 2.0), rawAt(1, 0, 120, 150, 2.0)}
	for i := range noDistance {
		noDistance[i].DistanceM = nil
	}
	noHR := []RawSample{rawAt(0, 0, 120, 150, 2.0), rawAt(1, 2, 120, 150, 2.0)}
	for i := range noHR {
		noHR[i].HeartRateBPM = nil
	}
	bareFirst := []RawSample{rawAt(0, 0, 120, 0, 0), rawAt(1, 2, 120, 150, 2.0)}

	tests := []struct {
		name string
		raw  []RawSample
		want error
	}{
		{name: "empty", raw: nil, want: ErrInsufficientData},
		{name: "no distance", raw: noDistance, want: ErrMissingField},
		{name: "no heart rate", raw: noHR, want: ErrMissingField},
		{name: "first sample has nothing to fill from", raw: bareFirst, want: ErrInsufficientData},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Clean(tc.raw)
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
			if s != nil {
				t.Fatalf("expected no series on error")
			}
		})
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	raw := []RawSample{
		rawAt(0, 0, 120, 0, 2.5),
		rawAt(1, 3, 121, 150, 0),
		rawAt(2, 6, 122, 0, 3.1),
		rawAt(3, 9, 123, 172, 3.3),
		rawAt(5, 12, 125, 174, 0),
	}
	raw[0].AltitudeM = f64(101.5)
	raw[2].AltitudeM = f64(0)
	raw[3].AltitudeM = f64(103.0)

	once, err := Clean(raw)
	if err != nil {
		t.Fatalf("Clean error: %v", err)
	}
	twice, err := Clean(once.Raw())
	if err != nil {
		t.Fatalf("second Clean error: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("cleaning is not idempotent:\nonce:  %+v\ntwice: %+v", once.Samples, twice.Samples)
	}
}
