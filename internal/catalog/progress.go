package catalog

import (
	"fmt"
	"time"
)

// unknownProgress is displayed when no estimate can be made.
const unknownProgress = "(?)"

// PercentComplete reports build progress as a numeric fraction and a
// display string. The display is clamped to "99.9%" above 0.999: for large
// scans the rounded value would read 100% well before the last file, which
// is misleading. The numeric fraction is exact so ETA math stays usable.
//
//	total < 1      -> (0, "(?)")  degenerate or empty scan
//	completed < 1  -> (0, "0%")
func PercentComplete(completed, total int64) (float64, string) {
	if total < 1 {
		return 0, unknownProgress
	}
	if completed < 1 {
		return 0, "0%"
	}
	pct := float64(completed) / float64(total)
	if pct > 0.999 {
		return pct, "99.9%"
	}
	return pct, fmt.Sprintf("%.1f%%", pct*100)
}

// Estimator projects a finish time by linear extrapolation of elapsed time
// over the completed fraction. The start anchor must be captured after the
// up-front enumerate/size pass, not at process start, so the one-time walk
// cost does not distort the per-file rate.
type Estimator struct {
	clock Clock
	start time.Time
}

// NewEstimator anchors an estimator at the clock's current time.
func NewEstimator(clock Clock) *Estimator {
	return &Estimator{clock: clock, start: clock.Now()}
}

// Start returns the extrapolation anchor.
func (e *Estimator) Start() time.Time { return e.start }

// EstimateFinish returns the projected completion time for the given
// fraction, formatted as a local timestamp. A fraction of exactly zero
// cannot be extrapolated and yields "(?)".
func (e *Estimator) EstimateFinish(fraction float64) string {
	if fraction == 0 {
		return unknownProgress
	}
	elapsed := e.clock.Now().Sub(e.start)
	finish := e.start.Add(time.Duration(float64(elapsed) / fraction))
	return finish.Format(mtimeFormat)
}
