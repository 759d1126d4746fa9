package bench

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/relayforge/swe-orchestrator/internal/stage"
	"github.com/relayforge/swe-orchestrator/internal/taskio"
)

// Processor is the one capability the fan needs from an engine: drive a
// task to completion. internal/engine.Engine satisfies this directly.
type Processor interface {
	Process(ctx context.Context, task taskio.Task) *stage.Context
}

// Fan drives a Processor across a task list with bounded concurrency, per
// §5's "parallel up to a configured concurrency limit, no ordering promised
// across tasks, completion order recording" model. Concurrency is enforced
// with golang.org/x/sync/semaphore (mirrored from the example pack's own use
// of golang.org/x/sync for bounded fan-out); golang.org/x/sync/errgroup
// waits for every task goroutine. Each goroutine returns nil, since a task
// ending in stage.Failed is recorded as an outcome, not reported as an
// error of the fan.
type Fan struct {
	processor   Processor
	store       *Store
	concurrency int64
}

// NewFan builds a Fan bounded to concurrency simultaneous tasks.
func NewFan(processor Processor, store *Store, concurrency int) *Fan {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Fan{processor: processor, store: store, concurrency: int64(concurrency)}
}

// Run drives the processor across tasks, recording each outcome to a new
// run against target, and returns the path to the persisted run file.
func (f *Fan) Run(ctx context.Context, target string, tasks []taskio.Task) (string, error) {
	builder := f.store.StartRun(target)

	sem := semaphore.NewWeighted(f.concurrency)
	g, gctx := errgroup.WithContext(ctx)

	for _, task := range tasks {
		task := task
		if err := sem.Acquire(gctx, 1); err != nil {
			return "", fmt.Errorf("bench: acquire concurrency slot: %w", err)
		}

		g.Go(func() error {
			defer sem.Release(1)

			start := time.Now()
			final := f.processor.Process(gctx, task)
			wall := time.Since(start)

			out, _ := final.Slot(stage.Validate)
			gen, _ := final.Slot(stage.Generate)

			builder.Record(IssueResult{
				TaskID:         task.TaskID,
				Successful:     final.State == stage.Complete,
				TestsPassed:    out.Bool("tests_passed"),
				PatchGenerated: gen.Success,
				TokensUsed:     final.CumulativeTokens,
				CostUSD:        final.CumulativeCostUSD,
				WallTimeSec:    wall.Seconds(),
				FinalState:     string(final.State),
				RecordedAt:     time.Now().UTC(),
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("bench: run %s: %w", target, err)
	}

	return builder.CompleteRun()
}
