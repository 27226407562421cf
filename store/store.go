package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	runwalk "github.com/lucasjlepore/runwalk-analyzer"
)

// ErrDuplicateActivity is returned when an activity id or file name is already stored.
var ErrDuplicateActivity = errors.New("activity already stored")

// Store persists analyzed activities in the activities, trackpoints, intervals and summary tables.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// New wraps an open database handle.
func New(db *sql.DB, dialect Dialect, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, dialect: dialect, logger: logger}
}

// Open connects to driver (sqlite3 or postgres) and verifies the connection.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, error) {
	dialect := Dialect(driver)
	switch dialect {
	case SQLite:
		if !strings.Contains(dsn, "?") {
			dsn += "?_foreign_keys=on"
		}
	case Postgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s database: %w", driver, err)
	}
	if dialect == SQLite {
		// sqlite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	return New(db, dialect, logger), nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTables creates the tables and indexes if they do not exist.
func (s *Store) CreateTables(ctx context.Context) error {
	for _, stmt := range schema(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	s.logger.Info("Tables ready", zap.String("dialect", string(s.dialect)))
	return nil
}

// TruncateTables removes every row from all tables.
func (s *Store) TruncateTables(ctx context.Context) error {
	if s.dialect == Postgres {
		if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE "+strings.Join(tables, ", ")); err != nil {
			return fmt.Errorf("truncate tables: %w", err)
		}
		s.logger.Info("Tables truncated")
		return nil
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for i := len(tables) - 1; i >= 0; i-- {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+tables[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	s.logger.Info("Tables truncated")
	return nil
}

// DropTables drops all tables.
func (s *Store) DropTables(ctx context.Context) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+tables[i]); err != nil {
			return fmt.Errorf("drop table %s: %w", tables[i], err)
		}
	}
	s.logger.Info("Tables dropped")
	return nil
}

// ProcessedFiles returns the stored file names ordered by activity id.
func (s *Store) ProcessedFiles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT filename FROM activities ORDER BY act_id")
	if err != nil {
		return nil, fmt.Errorf("query processed files: %w", err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan processed file: %w", err)
		}
		if name.Valid {
			files = append(files, name.String)
		}
	}
	return files, rows.Err()
}

// ProcessedActivities returns the stored activity ids in ascending order.
func (s *Store) ProcessedActivities(ctx context.Context) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT act_id FROM activities ORDER BY act_id")
	if err != nil {
		return nil, fmt.Errorf("query processed activities: %w", err)
	}
	defer rows.Close()

	var ids []time.Time
	for rows.Next() {
		var id time.Time
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan activity id: %w", err)
		}
		ids = append(ids, id.UTC())
	}
	return ids, rows.Err()
}

const (
	insertActivity   = "INSERT INTO activities (act_id, filename) VALUES (?, ?)"
	insertTrackpoint = "INSERT INTO trackpoints (act_id, time, distance, hr, speed, cadence, latitude, longitude, altitude, pace) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	insertInterval   = "INSERT INTO intervals (act_id, start_time, stop_time, start_dist, stop_dist, dhr, type, duration, distance, hrrate) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	insertSummary    = "INSERT INTO summary (act_id, duration, distance, pace, avg_hr, run_pct) VALUES (?, ?, ?, ?, ?, ?)"
)

// SaveActivity stores one analysis under filename in a single transaction.
// A repeated activity id or file name returns ErrDuplicateActivity and stores nothing.
func (s *Store) SaveActivity(ctx context.Context, filename string, a *runwalk.Analysis) error {
	actID := a.ActivityID.UTC()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, rebind(s.dialect, insertActivity), actID, filename); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateActivity
			}
			return fmt.Errorf("insert activity: %w", err)
		}

		trackpoints := make([][]any, 0, a.Series.Len())
		for _, sm := range a.Series.Samples {
			trackpoints = append(trackpoints, []any{
				actID, sm.ElapsedSeconds, sm.DistanceM, sm.HeartRateBPM, sm.SpeedMPS, sm.CadenceSPM,
				nullFloat(sm.Latitude), nullFloat(sm.Longitude), nullFloat(sm.AltitudeM), nullFloat(sm.PaceMinPerKM),
			})
		}
		if err := s.insertRows(ctx, tx, insertTrackpoint, trackpoints); err != nil {
			return fmt.Errorf("insert trackpoints: %w", err)
		}

		intervals := make([][]any, 0, len(a.Intervals))
		for _, iv := range a.Intervals {
			intervals = append(intervals, []any{
				actID, iv.StartTime, iv.StopTime, iv.StartDist, iv.StopDist, iv.DeltaHR,
				string(iv.Kind), iv.Duration, iv.Distance, iv.HRRate,
			})
		}
		if err := s.insertRows(ctx, tx, insertInterval, intervals); err != nil {
			return fmt.Errorf("insert intervals: %w", err)
		}

		sum := a.Summary
		if _, err := tx.ExecContext(ctx, rebind(s.dialect, insertSummary),
			actID, sum.TotalDuration, sum.TotalDistanceKM, nullFloat(sum.AvgPaceMinPerKM), sum.AvgHeartRateBPM, sum.RunPercentage,
		); err != nil {
			return fmt.Errorf("insert summary: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateActivity) {
			return fmt.Errorf("save %s (%s): %w", filename, actID.Format(time.RFC3339), err)
		}
		return fmt.Errorf("save %s: %w", filename, err)
	}

	s.logger.Debug("Activity saved",
		zap.String("file", filename),
		zap.Time("activity_id", actID),
		zap.Int("trackpoints", a.Series.Len()),
		zap.Int("intervals", len(a.Intervals)),
	)
	return nil
}

func (s *Store) insertRows(ctx context.Context, tx *sql.Tx, query string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, rebind(s.dialect, query))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, args := range rows {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("Rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatOrNil(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	out := v.Float64
	return &out
}
