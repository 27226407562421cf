package runwalk

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds returned by the analysis stages. Each is terminal for one activity only.
var (
	ErrInsufficientData          = errors.New("insufficient data")
	ErrMissingField              = errors.New("missing field")
	ErrSegmentationInconsistency = errors.New("segmentation inconsistency")
	ErrDegenerateActivity        = errors.New("degenerate activity")
)

// Stage names one step of the analysis pipeline.
type Stage string

const (
	StageImpute    Stage = "impute"
	StageThreshold Stage = "threshold"
	StageSegment   Stage = "segment"
	StageSummary   Stage = "summary"
)

// StageError attaches the activity and the failing stage to a stage error.
type StageError struct {
	ActivityID time.Time
	Stage      Stage
	Err        error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("activity %s: %s: %v", e.ActivityID.UTC().Format(time.RFC3339), e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ErrorKind maps an error to a short label for logs and reports. Unknown errors map to "unexpected".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrSegmentationInconsistency):
		return "segmentation_inconsistency"
	case errors.Is(err, ErrDegenerateActivity):
		return "degenerate_activity"
	default:
		return "unexpected"
	}
}

// IsActivityError reports whether err is one of the per-activity error kinds.
func IsActivityError(err error) bool {
	k := ErrorKind(err)
	return k != "" && k != "unexpected"
}
