package lahc

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/copyleftdev/LAHC/internal/optimization"
)

// timeString formats a duration in seconds as HHHH:MM:SS.
func timeString(seconds float64) string {
	s := int(seconds + 0.5)
	h := s / 3600
	s -= h * 3600
	m := s / 60
	s -= m * 60
	return fmt.Sprintf("%4d:%02d:%02d", h, m, s)
}

// NewTableReporter returns the default reporter: a plain-text progress
// table written to w (normally a diagnostic stream). The header row is
// printed on the step-0 report. stepsMin feeds the time-remaining
// estimate; pass 0 to leave that column at zero.
func NewTableReporter(w io.Writer, stepsMin int) optimization.Reporter {
	start := time.Now()
	return func(p optimization.Progress) {
		elapsed := time.Since(start).Seconds()
		if p.Step == 0 {
			start = time.Now()
			fmt.Fprintf(w, "%12s%12s%12s%14s%12s%12s%12s\n",
				"Step", "Idle steps", "Energy", "Hist mean", "Hist CoV", "Elapsed", "Remaining")
		}

		// Linear extrapolation to the step floor; past the floor the
		// idle-driven tail length is unknowable, so report zero.
		remaining := 0.0
		if p.Step > 0 && p.Step < stepsMin {
			remaining = elapsed * (float64(stepsMin)/float64(p.Step) - 1)
		}

		fmt.Fprintf(w, "%12d%12d%12.3e%14.3e%12.2e%12s%12s\n",
			p.Step, p.IdleSteps, p.Energy, p.HistoryMean, p.CoV(),
			timeString(elapsed), timeString(remaining))
	}
}

// NewZapReporter returns a reporter that emits structured progress events
// on log. Used by the run service and the CLI so search telemetry lands in
// the same stream as the rest of the service logs.
func NewZapReporter(log *zap.Logger) optimization.Reporter {
	return func(p optimization.Progress) {
		log.Info("search progress",
			zap.Int("step", p.Step),
			zap.Int("idle_steps", p.IdleSteps),
			zap.Float64("energy", p.Energy),
			zap.Float64("history_mean", p.HistoryMean),
			zap.Float64("history_cov", p.CoV()),
		)
	}
}

// Trace accumulates every reported step, for solution-history logging or
// post-run analysis. Wrap it around any other reporter; the engine itself
// is unaware of the recording.
type Trace struct {
	entries []optimization.Progress
}

// Wrap returns a reporter that appends each report to the trace and then
// forwards it to next. next may be nil.
func (t *Trace) Wrap(next optimization.Reporter) optimization.Reporter {
	return func(p optimization.Progress) {
		t.entries = append(t.entries, p)
		if next != nil {
			next(p)
		}
	}
}

// Entries returns the recorded reports in arrival order.
func (t *Trace) Entries() []optimization.Progress {
	return t.entries
}
