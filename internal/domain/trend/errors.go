package trend

import (
	"errors"
	"fmt"
)

// ErrAnalysisUnavailable is returned when the analysis engine cannot
// produce an insight for a trend. It is the only error the UI-facing
// layer is expected to render explicitly; failed computations are
// never cached.
var ErrAnalysisUnavailable = errors.New("trend analysis unavailable")

// ErrNotFound is returned when a trend or analysis key does not exist.
var ErrNotFound = errors.New("not found")

// SourceError reports that a source could not be read. Adapters absorb
// these into fallback data; only the manual store surfaces one, since
// there is no meaningful fallback for user-authored entries.
type SourceError struct {
	Source Source
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
