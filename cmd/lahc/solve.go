package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyleftdev/LAHC/internal/optimization"
	"github.com/copyleftdev/LAHC/internal/optimization/lahc"
	"github.com/copyleftdev/LAHC/internal/optimization/problems"
)

var (
	problemName  string
	historyLen   int
	stepsMin     int
	idleFraction float64
	updatesEvery int
	seed         int64
	resumePath   string
	savePath     string
	jsonOutput   bool
	quiet        bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run a benchmark problem to a low-energy state",
	Long: `Runs the late acceptance hill climber against a named benchmark
problem and prints the best state and energy found. Interrupting with
Ctrl-C stops the search cooperatively and still reports the best result
found so far.`,
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVar(&problemName, "problem", "quadratic", "Benchmark problem: "+strings.Join(problems.Names(), ", "))
	solveCmd.Flags().IntVar(&historyLen, "history", 5000, "History buffer length")
	solveCmd.Flags().IntVar(&stepsMin, "steps-min", 100000, "Minimum steps before termination is considered")
	solveCmd.Flags().Float64Var(&idleFraction, "idle-fraction", 0.02, "Idle step fraction for the termination predicate")
	solveCmd.Flags().IntVar(&updatesEvery, "updates", 1000, "Progress reporting interval in steps (0 disables)")
	solveCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	solveCmd.Flags().StringVar(&resumePath, "resume", "", "Resume from a state snapshot file")
	solveCmd.Flags().StringVar(&savePath, "save", "", "Save the best state to this snapshot file on exit")
	solveCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	solveCmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress the progress table")

	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	runFn, ok := problems.Lookup(problemName)
	if !ok {
		return fmt.Errorf("unknown problem %q, have: %s", problemName, strings.Join(problems.Names(), ", "))
	}

	cfg := optimization.Config{
		HistoryLength:   historyLen,
		StepsMin:        stepsMin,
		IdleFraction:    idleFraction,
		UpdatesEvery:    updatesEvery,
		SaveStateOnExit: savePath != "",
	}

	opts := problems.RunOptions{
		Seed:     seed,
		Resume:   resumePath,
		SaveFile: savePath,
	}
	if quiet {
		opts.Reporter = func(optimization.Progress) {}
	} else {
		opts.Reporter = lahc.NewTableReporter(os.Stderr, stepsMin)
	}

	// A Ctrl-C cancels the context; the engine notices at the next loop
	// boundary and returns the best state found so far.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting search",
		zap.String("problem", problemName),
		zap.Int("history_length", historyLen),
		zap.Int64("seed", seed),
	)

	start := time.Now()
	summary, err := runFn(ctx, cfg, opts)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	logger.Info("search finished",
		zap.Float64("energy", summary.Energy),
		zap.Int("steps", summary.Steps),
		zap.Int("best_step", summary.BestStep),
		zap.Duration("elapsed", elapsed),
	)

	if jsonOutput {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(summary)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "problem:   %s\n", summary.Problem)
	fmt.Fprintf(cmd.OutOrStdout(), "energy:    %g\n", summary.Energy)
	fmt.Fprintf(cmd.OutOrStdout(), "steps:     %d (best found at %d)\n", summary.Steps, summary.BestStep)
	fmt.Fprintf(cmd.OutOrStdout(), "state:     %v\n", summary.State)
	return nil
}
