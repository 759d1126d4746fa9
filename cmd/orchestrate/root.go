package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relayforge/swe-orchestrator/internal/bench"
	"github.com/relayforge/swe-orchestrator/internal/engine"
	"github.com/relayforge/swe-orchestrator/internal/policy"
	"github.com/relayforge/swe-orchestrator/internal/stage"
	"github.com/relayforge/swe-orchestrator/internal/taskio"
)

func newRootCommand() *cobra.Command {
	var (
		sourceURL  string
		repoCoord  string
		traceDir   string
		runDir     string
		concurrent int
		taskIDs    []string
	)

	root := &cobra.Command{
		Use:   "orchestrate",
		Short: "Drive the SWE-task orchestrator engine against one task or a benchmark list",
	}

	runCmd := &cobra.Command{
		Use:   "run [task-id]",
		Short: "Process a single task to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOne(cmd.Context(), args[0], sourceURL, repoCoord, traceDir)
		},
	}
	runCmd.Flags().StringVar(&sourceURL, "source-url", "", "Source URL for the task")
	runCmd.Flags().StringVar(&repoCoord, "repo", "", "Repository coordinate, e.g. org/repo")
	runCmd.Flags().StringVar(&traceDir, "trace-dir", "traces", "Directory trace files are written under")

	benchCmd := &cobra.Command{
		Use:   "bench [target]",
		Short: "Drive the engine across a list of task ids, recording a benchmark run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.Context(), args[0], taskIDs, traceDir, runDir, concurrent)
		},
	}
	benchCmd.Flags().StringVar(&traceDir, "trace-dir", "traces", "Directory trace files are written under")
	benchCmd.Flags().StringVar(&runDir, "run-dir", "experiments", "Directory benchmark run files are written under")
	benchCmd.Flags().IntVar(&concurrent, "concurrency", 4, "Maximum tasks processed in parallel")
	benchCmd.Flags().StringSliceVar(&taskIDs, "task", nil, "Task id to include in the run (repeatable)")

	root.AddCommand(runCmd, benchCmd)
	return root
}

// withSignals wires SIGINT/SIGTERM into ctx.Done(), matching the teacher's
// signal.NotifyContext usage in cmd/semspec/main.go.
func withSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

func buildConfig() (policy.Config, error) {
	cfg := envOverrides(policy.DefaultConfig())
	if err := cfg.Validate(); err != nil {
		return policy.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runOne(ctx context.Context, taskID, sourceURL, repoCoord, traceDir string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	apiKey, err := requireCredential("ORCHESTRATE_API_KEY")
	if err != nil {
		return err
	}
	registry := stubWorkers(apiKey)

	e, err := engine.New(cfg, registry, traceDir)
	if err != nil {
		return fmt.Errorf("construct engine: %w", err)
	}

	sigCtx, cancel := withSignals(ctx)
	defer cancel()

	logger.Info("processing task", "task_id", taskID)
	final := e.Process(sigCtx, taskio.Task{TaskID: taskID, SourceURL: sourceURL, RepositoryCoordinate: repoCoord})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(final); err != nil {
		return fmt.Errorf("encode final context: %w", err)
	}

	if final.State != stage.Complete {
		os.Exit(1)
	}
	return nil
}

func runBench(ctx context.Context, target string, taskIDs []string, traceDir, runDir string, concurrency int) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	apiKey, err := requireCredential("ORCHESTRATE_API_KEY")
	if err != nil {
		return err
	}
	registry := stubWorkers(apiKey)

	e, err := engine.New(cfg, registry, traceDir)
	if err != nil {
		return fmt.Errorf("construct engine: %w", err)
	}

	store := bench.NewStore(runDir)
	fan := bench.NewFan(e, store, concurrency)

	tasks := make([]taskio.Task, 0, len(taskIDs))
	for _, id := range taskIDs {
		tasks = append(tasks, taskio.Task{TaskID: id, SourceURL: "", RepositoryCoordinate: target})
	}

	sigCtx, cancel := withSignals(ctx)
	defer cancel()

	logger.Info("starting benchmark run", "target", target, "tasks", len(tasks))
	path, err := fan.Run(sigCtx, target, tasks)
	if err != nil {
		return fmt.Errorf("run benchmark: %w", err)
	}

	fmt.Println(path)
	return nil
}
