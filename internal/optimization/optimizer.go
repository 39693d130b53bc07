package optimization

import "math"

// Problem defines the capability set a state type must supply to be
// searched. The engine owns the live state for the duration of a run and
// calls Move and Energy on it synchronously, never concurrently.
type Problem[S any] interface {
	// Move mutates the state in place into a neighboring candidate.
	Move(state S)

	// Energy returns the scalar cost of the state; lower is better.
	// The value must be finite for every reachable state. A non-nil
	// error aborts the run immediately.
	Energy(state S) (float64, error)
}

// Terminator is an optional capability a Problem may implement to
// override the default termination predicate.
type Terminator interface {
	// TerminateSearch reports whether the search loop should stop given
	// the current step count and the idle-step count.
	TerminateSearch(step, idleSteps int) bool
}

// Cloner is implemented by state types that carry their own cloning
// capability, used by the delegated copy strategy.
type Cloner[S any] interface {
	// Clone returns an independent copy of the receiver.
	Clone() S
}

// Config contains configuration for a search run. It is read once at the
// start of Run and never mutated during it.
type Config struct {
	// HistoryLength is the number of past accepted energies kept for the
	// late-acceptance comparison. Must be >= 1. A length of 1 degenerates
	// to greedy hill climbing with tie tolerance.
	HistoryLength int

	// StepsMin is the minimum number of steps before the default
	// termination predicate may fire.
	StepsMin int

	// IdleFraction is the idle-step tolerance: by default the search
	// stops once idleSteps > step*IdleFraction (and step > StepsMin).
	IdleFraction float64

	// UpdatesEvery is the reporting interval in steps. 0 disables
	// progress reporting.
	UpdatesEvery int

	// CopyStrategy selects how state snapshots are taken.
	CopyStrategy CopyStrategy

	// SaveStateOnExit persists the best state when the run finishes.
	SaveStateOnExit bool
}

// DefaultConfig returns the stock configuration: a long history, a high
// step floor, and a 2% idle tolerance. Most problems only need to tune
// HistoryLength.
func DefaultConfig() Config {
	return Config{
		HistoryLength: 5000,
		StepsMin:      100000,
		IdleFraction:  0.02,
		UpdatesEvery:  100,
		CopyStrategy:  CopyFull,
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.HistoryLength < 1 {
		return NewErrorf("history length must be >= 1, got %d", c.HistoryLength).WithComponent("config")
	}
	if c.StepsMin < 0 {
		return NewErrorf("minimum steps must be >= 0, got %d", c.StepsMin).WithComponent("config")
	}
	if c.IdleFraction < 0 {
		return NewErrorf("idle fraction must be >= 0, got %v", c.IdleFraction).WithComponent("config")
	}
	if c.UpdatesEvery < 0 {
		return NewErrorf("update interval must be >= 0, got %d", c.UpdatesEvery).WithComponent("config")
	}
	return nil
}

// Progress is a read-only telemetry snapshot handed to reporters.
type Progress struct {
	// Step is the number of steps attempted so far.
	Step int

	// IdleSteps is the number of consecutive steps whose candidate did
	// not improve on the previously accepted energy.
	IdleSteps int

	// Energy is the effective energy of the current step (the previous
	// accepted energy if the candidate was rejected).
	Energy float64

	// HistoryMean is the running mean of the history buffer.
	HistoryMean float64

	// HistoryVariance is the running population variance of the history
	// buffer.
	HistoryVariance float64
}

// CoV returns the coefficient of variation of the history buffer,
// sqrt(variance)/mean, a cheap convergence indicator. It is 0 when the
// mean is 0.
func (p Progress) CoV() float64 {
	if p.HistoryMean == 0 {
		return 0
	}
	return math.Sqrt(p.HistoryVariance) / p.HistoryMean
}

// Reporter receives periodic telemetry during a run. Reporters must not
// retain or mutate engine state; everything they need is in the Progress
// value.
type Reporter func(Progress)

// Result is the outcome of a search run.
type Result[S any] struct {
	// State is the best state found.
	State S

	// Energy is the energy of State.
	Energy float64

	// BestStep is the step at which State was first found.
	BestStep int

	// Steps is the total number of steps attempted.
	Steps int
}
