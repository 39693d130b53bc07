package lahc

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/LAHC/internal/optimization"
	"github.com/copyleftdev/LAHC/internal/snapshot"
)

// sphereProblem is a shifted quadratic bowl over a []float64 state with
// gaussian polar moves, the stock convergence fixture.
type sphereProblem struct {
	target []float64
	rng    *rand.Rand
}

func newSphereProblem(tx, ty float64, seed int64) *sphereProblem {
	return &sphereProblem{
		target: []float64{tx, ty},
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (p *sphereProblem) Move(state []float64) {
	a := p.rng.NormFloat64()
	theta := p.rng.Float64() * 2 * math.Pi
	state[0] += a * math.Cos(theta)
	state[1] += a * math.Sin(theta)
}

func (p *sphereProblem) Energy(state []float64) (float64, error) {
	dx := state[0] - p.target[0]
	dy := state[1] - p.target[1]
	return dx*dx + dy*dy, nil
}

// worseningProblem only ever moves uphill, so every candidate is rejected
// and every step is idle.
type worseningProblem struct{}

func (worseningProblem) Move(state []float64) { state[0] += 1.0 }

func (worseningProblem) Energy(state []float64) (float64, error) { return state[0], nil }

// steppedProblem runs forever under the default predicate but stops itself
// after a fixed number of steps via the Terminator capability.
type steppedProblem struct {
	sphereProblem
	stopAfter int
}

func (p *steppedProblem) TerminateSearch(step, idleSteps int) bool {
	return step >= p.stopAfter
}

// failingProblem returns an energy error after a set number of
// evaluations.
type failingProblem struct {
	calls     int
	failAfter int
}

func (p *failingProblem) Move(state []float64) { state[0] += 1.0 }

func (p *failingProblem) Energy(state []float64) (float64, error) {
	p.calls++
	if p.calls > p.failAfter {
		return 0, errors.New("objective overflow")
	}
	return state[0], nil
}

func silentConfig() optimization.Config {
	cfg := optimization.DefaultConfig()
	cfg.CopyStrategy = optimization.CopySlice
	cfg.UpdatesEvery = 0
	return cfg
}

func TestNewRequiresProblem(t *testing.T) {
	_, err := New[[]float64](nil, silentConfig(), WithInitialState([]float64{0}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "problem must not be nil")
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := silentConfig()
	cfg.HistoryLength = 0

	_, err := New[[]float64](newSphereProblem(0, 0, 1), cfg, WithInitialState([]float64{0, 0}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history length")
}

func TestNewRequiresExactlyOneStateSource(t *testing.T) {
	problem := newSphereProblem(0, 0, 1)

	// Neither source.
	_, err := New[[]float64](problem, silentConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of")

	// Both sources.
	_, err = New[[]float64](problem, silentConfig(),
		WithInitialState([]float64{0, 0}),
		WithStateFile[[]float64]("state.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of")
}

func TestNewCopiesInitialState(t *testing.T) {
	initial := []float64{11.0, 0.7}
	climber, err := New[[]float64](newSphereProblem(2, 5, 1), silentConfig(),
		WithInitialState(initial))
	require.NoError(t, err)

	// Mutating the caller's slice must not reach the engine.
	initial[0] = -999.0
	assert.Equal(t, []float64{11.0, 0.7}, climber.State())
}

func TestNewRestoresStateFromSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.state.json")
	require.NoError(t, snapshot.Save(path, []float64{3.5, -1.25}))

	climber, err := New[[]float64](newSphereProblem(2, 5, 1), silentConfig(),
		WithStateFile[[]float64](path))
	require.NoError(t, err)
	assert.Equal(t, []float64{3.5, -1.25}, climber.State())
}

func TestNewReportsMissingSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.state.json")

	_, err := New[[]float64](newSphereProblem(2, 5, 1), silentConfig(),
		WithStateFile[[]float64](path))
	require.Error(t, err)
	assert.ErrorIs(t, err, &snapshot.NotFoundError{})
}

// TestRunGreedyConvergence is the canonical acceptance check: a history of
// length 1 degenerates to greedy hill climbing, which must walk the bowl
// from a distant start to the minimum within three decimal places.
func TestRunGreedyConvergence(t *testing.T) {
	cfg := silentConfig()
	cfg.HistoryLength = 1

	climber, err := New[[]float64](newSphereProblem(2.0, 5.0, 42), cfg,
		WithInitialState([]float64{11.0, 0.7}))
	require.NoError(t, err)

	result, err := climber.Run(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 2.0, result.State[0], 1e-3)
	assert.InDelta(t, 5.0, result.State[1], 1e-3)
	assert.Less(t, result.Energy, 1e-5)
	assert.Greater(t, result.Steps, cfg.StepsMin)
	assert.Equal(t, climber.State(), result.State)
}

func TestRunBestEnergyNeverAboveInitial(t *testing.T) {
	problem := newSphereProblem(2.0, 5.0, 7)
	initial := []float64{11.0, 0.7}
	initialEnergy, err := problem.Energy(initial)
	require.NoError(t, err)

	cfg := silentConfig()
	cfg.StepsMin = 500

	climber, err := New[[]float64](problem, cfg, WithInitialState(initial))
	require.NoError(t, err)

	result, err := climber.Run(context.Background())
	require.NoError(t, err)

	assert.LessOrEqual(t, result.Energy, initialEnergy)

	// The reported energy must match a fresh evaluation of the returned
	// state.
	got, err := problem.Energy(result.State)
	require.NoError(t, err)
	assert.Equal(t, got, result.Energy)
	assert.LessOrEqual(t, result.BestStep, result.Steps)
}

func TestRunStopsOnFirstIdleStepWithZeroTolerances(t *testing.T) {
	cfg := silentConfig()
	cfg.StepsMin = 0
	cfg.IdleFraction = 0

	climber, err := New[[]float64](worseningProblem{}, cfg,
		WithInitialState([]float64{0.0}))
	require.NoError(t, err)

	result, err := climber.Run(context.Background())
	require.NoError(t, err)

	// The single uphill candidate is rejected, leaving the initial state
	// as the best.
	assert.Equal(t, 1, result.Steps)
	assert.Equal(t, []float64{0.0}, result.State)
	assert.Equal(t, 0.0, result.Energy)
	assert.Equal(t, 0, result.BestStep)
}

func TestRunRejectionRollsBackState(t *testing.T) {
	cfg := silentConfig()
	cfg.StepsMin = 0
	cfg.IdleFraction = 0

	climber, err := New[[]float64](worseningProblem{}, cfg,
		WithInitialState([]float64{0.0}))
	require.NoError(t, err)

	_, err = climber.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{0.0}, climber.State())
}

func TestRunHonorsProblemTerminator(t *testing.T) {
	problem := &steppedProblem{
		sphereProblem: *newSphereProblem(2.0, 5.0, 3),
		stopAfter:     250,
	}

	climber, err := New[[]float64](problem, silentConfig(),
		WithInitialState([]float64{11.0, 0.7}))
	require.NoError(t, err)

	result, err := climber.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 250, result.Steps)
}

func TestRunCancelledContextReturnsBestSoFar(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	climber, err := New[[]float64](newSphereProblem(2.0, 5.0, 1), silentConfig(),
		WithInitialState([]float64{11.0, 0.7}))
	require.NoError(t, err)

	result, err := climber.Run(ctx)
	require.NoError(t, err)

	// Cancelled before any step: the initial state is the best found.
	assert.Equal(t, 0, result.Steps)
	assert.Equal(t, []float64{11.0, 0.7}, result.State)
}

func TestRunMidSearchCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	problem := &steppedProblem{
		sphereProblem: *newSphereProblem(2.0, 5.0, 9),
		stopAfter:     math.MaxInt, // never stops on its own
	}

	cfg := silentConfig()
	cfg.UpdatesEvery = 100

	calls := 0
	climber, err := New[[]float64](problem, cfg,
		WithInitialState([]float64{11.0, 0.7}),
		WithReporter[[]float64](func(p optimization.Progress) {
			calls++
			if calls > 5 {
				cancel()
			}
		}))
	require.NoError(t, err)

	result, err := climber.Run(ctx)
	require.NoError(t, err)
	assert.Greater(t, result.Steps, 0)
	assert.LessOrEqual(t, result.Energy, 120.0)
}

func TestRunPropagatesEnergyError(t *testing.T) {
	cfg := silentConfig()

	climber, err := New[[]float64](&failingProblem{failAfter: 10}, cfg,
		WithInitialState([]float64{0.0}))
	require.NoError(t, err)

	_, err = climber.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evaluating candidate")
	assert.Contains(t, err.Error(), "objective overflow")
}

func TestRunPropagatesInitialEnergyError(t *testing.T) {
	climber, err := New[[]float64](&failingProblem{failAfter: 0}, silentConfig(),
		WithInitialState([]float64{0.0}))
	require.NoError(t, err)

	_, err = climber.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evaluating initial state")
}

func TestRunReportingCadence(t *testing.T) {
	problem := &steppedProblem{
		sphereProblem: *newSphereProblem(2.0, 5.0, 5),
		stopAfter:     10,
	}

	cfg := silentConfig()
	cfg.UpdatesEvery = 2

	var steps []int
	climber, err := New[[]float64](problem, cfg,
		WithInitialState([]float64{11.0, 0.7}),
		WithReporter[[]float64](func(p optimization.Progress) {
			steps = append(steps, p.Step)
		}))
	require.NoError(t, err)

	_, err = climber.Run(context.Background())
	require.NoError(t, err)

	// One report at step 0, then one per two steps.
	assert.Equal(t, []int{0, 2, 4, 6, 8, 10}, steps)
}

func TestRunReportingDisabled(t *testing.T) {
	problem := &steppedProblem{
		sphereProblem: *newSphereProblem(2.0, 5.0, 5),
		stopAfter:     10,
	}

	cfg := silentConfig() // UpdatesEvery == 0

	calls := 0
	climber, err := New[[]float64](problem, cfg,
		WithInitialState([]float64{11.0, 0.7}),
		WithReporter[[]float64](func(optimization.Progress) { calls++ }))
	require.NoError(t, err)

	_, err = climber.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestRunSavesStateOnExit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best.state.json")

	problem := &steppedProblem{
		sphereProblem: *newSphereProblem(2.0, 5.0, 11),
		stopAfter:     500,
	}

	cfg := silentConfig()
	cfg.SaveStateOnExit = true

	climber, err := New[[]float64](problem, cfg,
		WithInitialState([]float64{11.0, 0.7}),
		WithSaveFile[[]float64](path))
	require.NoError(t, err)

	result, err := climber.Run(context.Background())
	require.NoError(t, err)

	restored, err := snapshot.Load[[]float64](path)
	require.NoError(t, err)
	assert.Equal(t, result.State, restored)
}

func TestRunSaveFailureStillReturnsResult(t *testing.T) {
	problem := &steppedProblem{
		sphereProblem: *newSphereProblem(2.0, 5.0, 11),
		stopAfter:     50,
	}

	cfg := silentConfig()
	cfg.SaveStateOnExit = true

	climber, err := New[[]float64](problem, cfg,
		WithInitialState([]float64{11.0, 0.7}),
		WithSaveFile[[]float64](filepath.Join(t.TempDir(), "no", "such", "dir", "x.json")))
	require.NoError(t, err)

	result, err := climber.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving state")
	assert.Equal(t, 50, result.Steps)
	assert.NotNil(t, result.State)
}

func TestNewSurfacesCopyStrategyMismatch(t *testing.T) {
	cfg := silentConfig()
	cfg.CopyStrategy = optimization.CopyDelegated // []float64 has no Clone

	_, err := New[[]float64](newSphereProblem(2.0, 5.0, 1), cfg,
		WithInitialState([]float64{11.0, 0.7}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Clone()")
}
