// Package lahc implements the Late Acceptance Hill Climbing metaheuristic:
// an iterative local search that accepts a candidate state when it is no
// worse than the energy recorded a fixed number of steps earlier, or no
// worse than the last accepted energy.
//
// In contrast to most metaheuristics the method relies on a single
// parameter, the history length, but remains competitive with more complex
// heuristics for many applications. See E. K. Burke, Y. Bykov, "The late
// acceptance Hill-Climbing heuristic", European Journal of Operational
// Research 258 (2017).
package lahc

import (
	"context"
	"os"
	"time"

	"github.com/copyleftdev/LAHC/internal/optimization"
	"github.com/copyleftdev/LAHC/internal/snapshot"
)

// Climber runs the late acceptance hill climbing search over states of
// type S. A Climber is single-threaded: Move and Energy are invoked
// inline, never concurrently, and at most one Run may be in flight per
// instance.
type Climber[S any] struct {
	cfg      optimization.Config
	problem  optimization.Problem[S]
	reporter optimization.Reporter

	// Live state. Exclusively owned by the engine while a run is active.
	state    S
	hasState bool

	// Snapshot paths. loadPath doubles as the save destination unless
	// savePath overrides it.
	loadPath  string
	loadState bool
	savePath  string
}

// Option configures a Climber at construction time.
type Option[S any] func(*Climber[S])

// WithInitialState supplies the starting state. Mutually exclusive with
// WithStateFile.
func WithInitialState[S any](state S) Option[S] {
	return func(c *Climber[S]) {
		c.state = state
		c.hasState = true
	}
}

// WithStateFile restores the starting state from a snapshot file written
// by a previous run. Mutually exclusive with WithInitialState. The same
// path is used as the save destination when SaveStateOnExit is set.
func WithStateFile[S any](path string) Option[S] {
	return func(c *Climber[S]) {
		c.loadPath = path
		c.loadState = true
	}
}

// WithSaveFile sets the snapshot destination used when SaveStateOnExit is
// set, without restoring from it. Without it a save falls back to a
// timestamped file in the working directory.
func WithSaveFile[S any](path string) Option[S] {
	return func(c *Climber[S]) {
		c.savePath = path
	}
}

// WithReporter replaces the default stderr progress reporter.
func WithReporter[S any](r optimization.Reporter) Option[S] {
	return func(c *Climber[S]) {
		c.reporter = r
	}
}

// New creates a Climber for the given problem. Exactly one of
// WithInitialState or WithStateFile must be supplied; anything else is a
// configuration error and no engine is created.
func New[S any](problem optimization.Problem[S], cfg optimization.Config, opts ...Option[S]) (*Climber[S], error) {
	if problem == nil {
		return nil, optimization.NewError("problem must not be nil").
			WithComponent("lahc").WithOperation("new")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Climber[S]{
		cfg:      cfg,
		problem:  problem,
		reporter: NewTableReporter(os.Stderr, cfg.StepsMin),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.hasState == c.loadState {
		return nil, optimization.NewError("exactly one of an initial state or a state file must be supplied").
			WithComponent("lahc").WithOperation("new")
	}

	if c.loadState {
		state, err := snapshot.Load[S](c.loadPath)
		if err != nil {
			return nil, optimization.WrapError(err, "restoring state").
				WithComponent("lahc").WithOperation("new")
		}
		c.state = state
		return c, nil
	}

	// Take ownership of the caller's state so later mutation of the
	// original cannot reach into the run.
	state, err := c.copyState(c.state)
	if err != nil {
		return nil, err
	}
	c.state = state
	return c, nil
}

// State returns the live state. After Run returns it holds a copy of the
// best state found.
func (c *Climber[S]) State() S {
	return c.state
}

// Run minimizes the problem's energy by late acceptance hill climbing and
// returns the best state and energy found.
//
// Cancellation via ctx is cooperative: the context is polled once per
// iteration at the loop boundary, so an in-progress Move or Energy call is
// never preempted. A cancelled run is not an error; it returns the best
// result found so far.
func (c *Climber[S]) Run(ctx context.Context) (optimization.Result[S], error) {
	var zero optimization.Result[S]

	step := 0
	idleSteps := 0

	energy, err := c.problem.Energy(c.state)
	if err != nil {
		return zero, optimization.WrapError(err, "evaluating initial state").
			WithComponent("lahc").WithOperation("run")
	}

	prevState, err := c.copyState(c.state)
	if err != nil {
		return zero, err
	}
	prevEnergy := energy

	bestState, err := c.copyState(c.state)
	if err != nil {
		return zero, err
	}
	bestEnergy := energy
	bestStep := 0

	history := NewHistory(c.cfg.HistoryLength, energy)

	trials := 0
	c.report(step, idleSteps, energy, history)

search:
	for !c.shouldStop(step, idleSteps) {
		select {
		case <-ctx.Done():
			break search
		default:
		}

		c.problem.Move(c.state)
		energy, err = c.problem.Energy(c.state)
		if err != nil {
			return zero, optimization.WrapError(err, "evaluating candidate").
				WithComponent("lahc").WithOperation("run")
		}
		trials++

		if energy >= prevEnergy {
			idleSteps++
		} else {
			idleSteps = 0
		}

		// The slot value is captured before any update this iteration.
		if energy < history.At(step) || energy <= prevEnergy {
			// Accept the candidate.
			prevState, err = c.copyState(c.state)
			if err != nil {
				return zero, err
			}
			prevEnergy = energy
			if energy < bestEnergy {
				bestState, err = c.copyState(c.state)
				if err != nil {
					return zero, err
				}
				bestEnergy = energy
				bestStep = step
			}
		} else {
			// Reject: roll back to the previous accepted state. The
			// effective energy of this step is the unchanged previous
			// energy; the history update below sees the trajectory the
			// engine actually followed, not the rejected proposal.
			c.state, err = c.copyState(prevState)
			if err != nil {
				return zero, err
			}
			energy = prevEnergy
		}

		history.RecordIfImproved(step, energy)
		step++

		if trials == c.cfg.UpdatesEvery {
			c.report(step, idleSteps, energy, history)
			trials = 0
		}
	}

	c.state, err = c.copyState(bestState)
	if err != nil {
		return zero, err
	}

	result := optimization.Result[S]{
		State:    bestState,
		Energy:   bestEnergy,
		BestStep: bestStep,
		Steps:    step,
	}

	if c.cfg.SaveStateOnExit {
		// The result is still valid when the save fails; the error only
		// reports the storage failure.
		if err := c.saveState(); err != nil {
			return result, err
		}
	}
	return result, nil
}

// shouldStop evaluates the termination predicate: the problem's own, if it
// implements Terminator, otherwise the default step-floor plus
// proportionally growing idle tolerance.
func (c *Climber[S]) shouldStop(step, idleSteps int) bool {
	if t, ok := c.problem.(optimization.Terminator); ok {
		return t.TerminateSearch(step, idleSteps)
	}
	return step > c.cfg.StepsMin && float64(idleSteps) > float64(step)*c.cfg.IdleFraction
}

func (c *Climber[S]) copyState(state S) (S, error) {
	return optimization.CopyState(c.cfg.CopyStrategy, state)
}

func (c *Climber[S]) report(step, idleSteps int, energy float64, history *History) {
	if c.reporter == nil || c.cfg.UpdatesEvery <= 0 {
		return
	}
	c.reporter(optimization.Progress{
		Step:            step,
		IdleSteps:       idleSteps,
		Energy:          energy,
		HistoryMean:     history.Mean(),
		HistoryVariance: history.Variance(),
	})
}

func (c *Climber[S]) saveState() error {
	path := c.savePath
	if path == "" {
		path = c.loadPath
	}
	if path == "" {
		path = time.Now().Format("2006-01-02T15h04m05s") + "_lahc.state.json"
	}
	if err := snapshot.Save(path, c.state); err != nil {
		return optimization.WrapError(err, "saving state").
			WithComponent("lahc").WithOperation("run")
	}
	return nil
}
