package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	runwalk "github.com/lucasjlepore/runwalk-analyzer"
	"github.com/lucasjlepore/runwalk-analyzer/parser"
	"github.com/lucasjlepore/runwalk-analyzer/store"
)

// Store is the persistence the ingest service needs.
type Store interface {
	ProcessedFiles(ctx context.Context) ([]string, error)
	SaveActivity(ctx context.Context, filename string, a *runwalk.Analysis) error
}

// Failure describes one activity file that was skipped.
type Failure struct {
	File       string    `json:"file"`
	ActivityID time.Time `json:"activity_id,omitempty"`
	Kind       string    `json:"kind"`
	Stage      string    `json:"stage,omitempty"`
	Error      string    `json:"error"`
}

// Report summarizes one Update or Actualize call.
type Report struct {
	RunID           string        `json:"run_id"`
	Found           int           `json:"found"`
	SkippedExisting int           `json:"skipped_existing"`
	Processed       int           `json:"processed"`
	Duplicates      int           `json:"duplicates"`
	Failed          []Failure     `json:"failed,omitempty"`
	UpToDate        bool          `json:"up_to_date"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Service loads activity files from a directory into a Store.
type Service struct {
	store   Store
	logger  *zap.Logger
	workers int
	parse   func(path string) (*runwalk.Recording, error)
}

// NewService creates an ingest service that analyzes up to workers files at once.
func NewService(st Store, logger *zap.Logger, workers int) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		store:   st,
		logger:  logger,
		workers: workers,
		parse:   parser.ParseFile,
	}
}

type outcome struct {
	analysis *runwalk.Analysis
	err      error
	parseErr bool
}

// Update analyzes every activity file in dir whose name is not stored yet and saves the results
// in file order. Per-activity failures are logged and reported; storage errors abort the batch.
func (s *Service) Update(ctx context.Context, dir string) (Report, error) {
	started := time.Now()
	report := Report{RunID: uuid.NewString()}
	logger := s.logger.With(zap.String("run_id", report.RunID), zap.String("dir", dir))

	pending, err := s.pending(ctx, dir, &report)
	if err != nil {
		return report, err
	}
	logger.Info("Update started",
		zap.Int("found", report.Found),
		zap.Int("skipped_existing", report.SkippedExisting),
		zap.Int("pending", len(pending)),
	)

	outcomes := make([]outcome, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := s.parse(path)
			if err != nil {
				outcomes[i] = outcome{err: err, parseErr: true}
				return nil
			}
			a, err := runwalk.Analyze(*rec)
			outcomes[i] = outcome{analysis: a, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("analyze activities: %w", err)
	}

	for i, path := range pending {
		name := filepath.Base(path)
		o := outcomes[i]
		if o.err != nil {
			f, ok := classify(name, o)
			if !ok {
				return report, fmt.Errorf("analyze %s: %w", name, o.err)
			}
			report.Failed = append(report.Failed, f)
			logger.Warn("Activity skipped",
				zap.String("file", f.File),
				zap.Time("activity_id", f.ActivityID),
				zap.String("kind", f.Kind),
				zap.String("stage", f.Stage),
				zap.Error(o.err),
			)
			continue
		}

		if err := s.store.SaveActivity(ctx, name, o.analysis); err != nil {
			if errors.Is(err, store.ErrDuplicateActivity) {
				report.Duplicates++
				logger.Info("Entry already exists", zap.String("file", name), zap.Time("activity_id", o.analysis.ActivityID))
				continue
			}
			return report, err
		}
		report.Processed++
		logger.Debug("Activity stored",
			zap.String("file", name),
			zap.Time("activity_id", o.analysis.ActivityID),
			zap.Float64("run_percentage", o.analysis.Summary.RunPercentage),
		)
	}

	report.Elapsed = time.Since(started)
	logger.Info("Update finished",
		zap.Int("processed", report.Processed),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// Actualize runs Update only when dir holds files that are not stored yet.
func (s *Service) Actualize(ctx context.Context, dir string) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	pending, err := s.pending(ctx, dir, &report)
	if err != nil {
		return report, err
	}
	if len(pending) == 0 {
		report.UpToDate = true
		s.logger.Info("Store up to date", zap.String("run_id", report.RunID), zap.String("dir", dir), zap.Int("found", report.Found))
		return report, nil
	}
	return s.Update(ctx, dir)
}

func (s *Service) pending(ctx context.Context, dir string, report *Report) ([]string, error) {
	files, err := parser.ListActivityFiles(dir)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.ProcessedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load processed files: %w", err)
	}
	known := make(map[string]struct{}, len(stored))
	for _, name := range stored {
		known[name] = struct{}{}
	}

	report.Found = len(files)
	pending := make([]string, 0, len(files))
	for _, path := range files {
		if _, ok := known[filepath.Base(path)]; ok {
			report.SkippedExisting++
			continue
		}
		pending = append(pending, path)
	}
	return pending, nil
}

// classify turns a per-activity error into a Failure. It reports false for errors that
// are not tied to one activity.
func classify(name string, o outcome) (Failure, bool) {
	f := Failure{File: name, Error: o.err.Error()}
	if o.parseErr {
		f.Kind = "parse_error"
		return f, true
	}
	if !runwalk.IsActivityError(o.err) {
		return f, false
	}
	f.Kind = runwalk.ErrorKind(o.err)
	var se *runwalk.StageError
	if errors.As(o.err, &se) {
		f.ActivityID = se.ActivityID
		f.Stage = string(se.Stage)
	}
	return f, true
}
