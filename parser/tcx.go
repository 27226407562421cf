package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	runwalk "github.com/lucasjlepore/runwalk-analyzer"
)

type tcxDatabase struct {
	XMLName    xml.Name      `xml:"TrainingCenterDatabase"`
	Activities []tcxActivity `xml:"Activities>Activity"`
}

type tcxActivity struct {
	Sport string   `xml:"Sport,attr"`
	ID    string   `xml:"Id"`
	Laps  []tcxLap `xml:"Lap"`
}

type tcxLap struct {
	StartTime   string          `xml:"StartTime,attr"`
	Trackpoints []tcxTrackpoint `xml:"Track>Trackpoint"`
}

type tcxTrackpoint struct {
	Time       string   `xml:"Time"`
	Latitude   *float64 `xml:"Position>LatitudeDegrees"`
	Longitude  *float64 `xml:"Position>LongitudeDegrees"`
	AltitudeM  *float64 `xml:"AltitudeMeters"`
	DistanceM  *float64 `xml:"DistanceMeters"`
	HeartRate  *int     `xml:"HeartRateBpm>Value"`
	SpeedMPS   *float64 `xml:"Extensions>TPX>Speed"`
	RunCadence *int     `xml:"Extensions>TPX>RunCadence"`
}

// ParseTCX reads the first activity of a Garmin TCX document.
//
// RunCadence counts one foot, so it is doubled to steps per minute.
func ParseTCX(r io.Reader) (*runwalk.Recording, error) {
	var db tcxDatabase
	if err := xml.NewDecoder(r).Decode(&db); err != nil {
		return nil, fmt.Errorf("decode TCX document: %w", err)
	}
	if len(db.Activities) == 0 {
		return nil, fmt.Errorf("TCX document has no activity")
	}
	act := db.Activities[0]

	rec := &runwalk.Recording{}
	if act.ID != "" {
		id, err := parseTCXTime(act.ID)
		if err != nil {
			return nil, fmt.Errorf("parse activity id: %w", err)
		}
		rec.ID = id
	}

	for _, lap := range act.Laps {
		for _, tp := range lap.Trackpoints {
			if strings.TrimSpace(tp.Time) == "" {
				continue
			}
			ts, err := parseTCXTime(tp.Time)
			if err != nil {
				return nil, fmt.Errorf("parse trackpoint time: %w", err)
			}
			sample := runwalk.RawSample{
				Time:         ts,
				DistanceM:    tp.DistanceM,
				HeartRateBPM: tp.HeartRate,
				SpeedMPS:     tp.SpeedMPS,
				Latitude:     tp.Latitude,
				Longitude:    tp.Longitude,
				AltitudeM:    tp.AltitudeM,
			}
			if tp.RunCadence != nil {
				steps := *tp.RunCadence * 2
				sample.CadenceSPM = &steps
			}
			rec.Samples = append(rec.Samples, sample)
		}
	}
	if rec.ID.IsZero() && len(rec.Samples) > 0 {
		rec.ID = rec.Samples[0].Time
	}
	return rec, nil
}

func parseTCXTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
}
