package problems

import (
	"context"
	"sort"

	"github.com/copyleftdev/LAHC/internal/optimization"
	"github.com/copyleftdev/LAHC/internal/optimization/lahc"
)

// RunOptions carries the per-run knobs that are not part of the search
// configuration itself.
type RunOptions struct {
	// Seed initializes the benchmark's random source.
	Seed int64

	// Resume restores the starting state from a snapshot file instead of
	// the benchmark's stock initial state.
	Resume string

	// SaveFile overrides the snapshot destination when
	// Config.SaveStateOnExit is set.
	SaveFile string

	// Reporter overrides the engine's default progress reporter.
	Reporter optimization.Reporter
}

// Summary describes a finished benchmark run in a state-type-agnostic way
// so the run service and CLI can handle every benchmark uniformly.
type Summary struct {
	Problem  string  `json:"problem"`
	Energy   float64 `json:"energy"`
	BestStep int     `json:"bestStep"`
	Steps    int     `json:"steps"`
	State    any     `json:"state"`
}

// RunFunc executes a named benchmark under the given search configuration.
// Each benchmark fixes the copy strategy that matches its state shape.
type RunFunc func(ctx context.Context, cfg optimization.Config, opts RunOptions) (*Summary, error)

var registry = map[string]RunFunc{
	"quadratic":  runQuadratic,
	"rosenbrock": runRosenbrock,
	"tsp":        runTSP,
}

// Lookup returns the run function for a benchmark name.
func Lookup(name string) (RunFunc, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Names returns the registered benchmark names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runQuadratic(ctx context.Context, cfg optimization.Config, opts RunOptions) (*Summary, error) {
	problem := NewQuadratic([]float64{2.0, 5.0}, opts.Seed)
	cfg.CopyStrategy = optimization.CopySlice
	return run[[]float64](ctx, "quadratic", problem, cfg, opts, []float64{11.0, 0.7})
}

func runRosenbrock(ctx context.Context, cfg optimization.Config, opts RunOptions) (*Summary, error) {
	problem := NewRosenbrock(1, 100, opts.Seed)
	cfg.CopyStrategy = optimization.CopyDelegated
	return run[*Point](ctx, "rosenbrock", problem, cfg, opts, &Point{X: -5.0, Y: 5.0})
}

func runTSP(ctx context.Context, cfg optimization.Config, opts RunOptions) (*Summary, error) {
	problem := NewTSP(opts.Seed)
	cfg.CopyStrategy = optimization.CopySlice
	return run[[]int](ctx, "tsp", problem, cfg, opts, problem.InitialTour())
}

// run wires a typed benchmark into the engine and flattens the result into
// a Summary.
func run[S any](ctx context.Context, name string, problem optimization.Problem[S], cfg optimization.Config, opts RunOptions, initial S) (*Summary, error) {
	engineOpts := make([]lahc.Option[S], 0, 3)
	if opts.Resume != "" {
		engineOpts = append(engineOpts, lahc.WithStateFile[S](opts.Resume))
	} else {
		engineOpts = append(engineOpts, lahc.WithInitialState(initial))
	}
	if opts.SaveFile != "" {
		engineOpts = append(engineOpts, lahc.WithSaveFile[S](opts.SaveFile))
	}
	if opts.Reporter != nil {
		engineOpts = append(engineOpts, lahc.WithReporter[S](opts.Reporter))
	}

	climber, err := lahc.New(problem, cfg, engineOpts...)
	if err != nil {
		return nil, err
	}
	result, err := climber.Run(ctx)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Problem:  name,
		Energy:   result.Energy,
		BestStep: result.BestStep,
		Steps:    result.Steps,
		State:    result.State,
	}, nil
}
