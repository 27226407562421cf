package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TrackpointRecord is one stored trackpoint row.
type TrackpointRecord struct {
	ActID     time.Time `json:"act_id"`
	Time      float64   `json:"time"`
	Distance  float64   `json:"distance"`
	HR        int       `json:"hr"`
	Speed     float64   `json:"speed"`
	Cadence   int       `json:"cadence"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Pace      *float64  `json:"pace,omitempty"`
}

// IntervalRecord is one stored interval row.
type IntervalRecord struct {
	ActID     time.Time `json:"act_id"`
	StartTime float64   `json:"start_time"`
	StopTime  float64   `json:"stop_time"`
	StartDist float64   `json:"start_dist"`
	StopDist  float64   `json:"stop_dist"`
	DHR       int       `json:"dhr"`
	Type      string    `json:"type"`
	Duration  float64   `json:"duration"`
	Distance  float64   `json:"distance"`
	HRRate    float64   `json:"hrrate"`
}

// SummaryRecord is one stored summary row.
type SummaryRecord struct {
	ActID    time.Time `json:"act_id"`
	Duration string    `json:"duration"`
	Distance float64   `json:"distance"`
	Pace     *float64  `json:"pace,omitempty"`
	AvgHR    float64   `json:"avg_hr"`
	RunPct   float64   `json:"run_pct"`
}

// ActivityData groups the rows of one or more activities.
type ActivityData struct {
	Trackpoints []TrackpointRecord `json:"trackpoints"`
	Intervals   []IntervalRecord   `json:"intervals"`
	Summaries   []SummaryRecord    `json:"summaries"`
}

const (
	selectTrackpoints = "SELECT act_id, time, distance, hr, speed, cadence, latitude, longitude, altitude, pace FROM trackpoints"
	selectIntervals   = "SELECT act_id, start_time, stop_time, start_dist, stop_dist, dhr, type, duration, distance, hrrate FROM intervals"
	selectSummaries   = "SELECT act_id, duration, distance, pace, avg_hr, run_pct FROM summary"
)

// FetchOne returns the rows stored for one activity.
func (s *Store) FetchOne(ctx context.Context, actID time.Time) (*ActivityData, error) {
	return s.FetchMany(ctx, []time.Time{actID})
}

// FetchMany returns the rows stored for the given activities. Summaries are newest first.
func (s *Store) FetchMany(ctx context.Context, actIDs []time.Time) (*ActivityData, error) {
	if len(actIDs) == 0 {
		return &ActivityData{}, nil
	}
	where := " WHERE act_id IN (" + placeholders(len(actIDs)) + ")"
	args := make([]any, 0, len(actIDs))
	for _, id := range actIDs {
		args = append(args, id.UTC())
	}
	return s.fetch(ctx, where, args)
}

// FetchAll returns every stored row. Summaries are newest first.
func (s *Store) FetchAll(ctx context.Context) (*ActivityData, error) {
	return s.fetch(ctx, "", nil)
}

func (s *Store) fetch(ctx context.Context, where string, args []any) (*ActivityData, error) {
	var (
		data ActivityData
		err  error
	)
	data.Trackpoints, err = s.queryTrackpoints(ctx, selectTrackpoints+where+" ORDER BY act_id, time", args)
	if err != nil {
		return nil, fmt.Errorf("fetch trackpoints: %w", err)
	}
	data.Intervals, err = s.queryIntervals(ctx, selectIntervals+where+" ORDER BY act_id, start_time", args)
	if err != nil {
		return nil, fmt.Errorf("fetch intervals: %w", err)
	}
	data.Summaries, err = s.querySummaries(ctx, selectSummaries+where+" ORDER BY act_id DESC", args)
	if err != nil {
		return nil, fmt.Errorf("fetch summary: %w", err)
	}
	return &data, nil
}

func (s *Store) queryTrackpoints(ctx context.Context, query string, args []any) ([]TrackpointRecord, error) {
	rows, err := s.db.QueryContext(ctx, rebind(s.dialect, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrackpointRecord
	for rows.Next() {
		var (
			r                   TrackpointRecord
			lat, lon, alt, pace sql.NullFloat64
		)
		if err := rows.Scan(&r.ActID, &r.Time, &r.Distance, &r.HR, &r.Speed, &r.Cadence, &lat, &lon, &alt, &pace); err != nil {
			return nil, err
		}
		r.ActID = r.ActID.UTC()
		r.Latitude, r.Longitude, r.Altitude, r.Pace = floatOrNil(lat), floatOrNil(lon), floatOrNil(alt), floatOrNil(pace)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) queryIntervals(ctx context.Context, query string, args []any) ([]IntervalRecord, error) {
	rows, err := s.db.QueryContext(ctx, rebind(s.dialect, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IntervalRecord
	for rows.Next() {
		var r IntervalRecord
		if err := rows.Scan(&r.ActID, &r.StartTime, &r.StopTime, &r.StartDist, &r.StopDist, &r.DHR, &r.Type, &r.Duration, &r.Distance, &r.HRRate); err != nil {
			return nil, err
		}
		r.ActID = r.ActID.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) querySummaries(ctx context.Context, query string, args []any) ([]SummaryRecord, error) {
	rows, err := s.db.QueryContext(ctx, rebind(s.dialect, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SummaryRecord
	for rows.Next() {
		var (
			r    SummaryRecord
			pace sql.NullFloat64
		)
		if err := rows.Scan(&r.ActID, &r.Duration, &r.Distance, &pace, &r.AvgHR, &r.RunPct); err != nil {
			return nil, err
		}
		r.ActID = r.ActID.UTC()
		r.Pace = floatOrNil(pace)
		out = append(out, r)
	}
	return out, rows.Err()
}
