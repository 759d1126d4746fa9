// Package engine drives a single task's state machine to a terminal state,
// invoking stage workers under the configured retry/budget/timeout
// policies and recording every decision to a tracer. Grounded on the
// teacher's processor/workflow-orchestrator component.go control loop
// (retry-then-advance, one component owns one run) generalized from
// NATS-message-triggered steps to an in-process stage loop.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/relayforge/swe-orchestrator/internal/policy"
	"github.com/relayforge/swe-orchestrator/internal/stage"
	"github.com/relayforge/swe-orchestrator/internal/taskio"
	"github.com/relayforge/swe-orchestrator/internal/tracer"
)

// Engine owns the per-task construction of a fresh stage.Context and
// stage.Machine for each Process call; nothing on Engine itself is
// task-scoped mutable state, so one Engine is safe to reuse (and to share)
// across concurrently processed tasks, per §5's "each engine owns its own
// context, state machine, and tracer" model — the benchmark fan constructs
// one Engine and calls Process repeatedly rather than one Engine per task.
type Engine struct {
	cfg      policy.Config
	retry    *policy.RetryPolicy
	budget   *policy.BudgetPolicy
	timeout  *policy.TimeoutPolicy
	registry taskio.Registry
	traceDir string
}

// New constructs an Engine from cfg and registry. It returns an error if
// registry is missing a worker for any working stage or cfg fails
// validation, so misconfiguration surfaces at startup rather than mid-run.
func New(cfg policy.Config, registry taskio.Registry, traceDir string) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: invalid config: %w", err)
	}
	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("engine: invalid registry: %w", err)
	}

	return &Engine{
		cfg:      cfg,
		retry:    policy.NewRetryPolicy(cfg.Retry),
		budget:   policy.NewBudgetPolicy(cfg.Budget),
		timeout:  policy.NewTimeoutPolicy(cfg.Timeout),
		registry: registry,
		traceDir: traceDir,
	}, nil
}

// Process drives task to a terminal state and returns the finished context.
// It never returns an error to the caller: every fatal condition is
// recorded as a stage.ErrorEntry on the returned context and the terminal
// state is stage.Failed, per §4.3's "never raises to the caller" contract.
func (e *Engine) Process(ctx context.Context, task taskio.Task) *stage.Context {
	taskCtx := stage.NewContext(task.TaskID, task.SourceURL, task.RepositoryCoordinate)
	machine := stage.NewMachine(e.cfg.GuardConfig())
	tr := tracer.New(task.TaskID, e.traceDir)

	wholeTaskCtx, cancel := context.WithTimeout(ctx, e.timeout.For(policy.CategoryWholeTask))
	defer cancel()

	tr.Start(task.SourceURL, task.RepositoryCoordinate)

	if !machine.CanTransition(stage.Analyze, taskCtx) {
		e.fail(wholeTaskCtx, machine, taskCtx, tr, stage.Pending, policy.ErrBudgetExceeded)
		return e.finish(taskCtx, machine, tr)
	}
	if err := machine.Transition(stage.Analyze, taskCtx); err != nil {
		e.fail(wholeTaskCtx, machine, taskCtx, tr, stage.Pending, err)
		return e.finish(taskCtx, machine, tr)
	}
	tr.Transition(string(stage.Pending), string(stage.Analyze), tracer.ReasonLinear)

	for !machine.IsTerminal() {
		current := machine.CurrentState()

		select {
		case <-wholeTaskCtx.Done():
			e.fail(wholeTaskCtx, machine, taskCtx, tr, current, fmt.Errorf("%w", policy.ErrDeadlineExceeded))
			return e.finish(taskCtx, machine, tr)
		default:
		}

		worker, ok := e.registry[current]
		if !ok {
			e.fail(wholeTaskCtx, machine, taskCtx, tr, current, fmt.Errorf("engine: no worker registered for stage %s", current))
			return e.finish(taskCtx, machine, tr)
		}

		out, err := e.runWithRetry(wholeTaskCtx, worker, taskCtx, tr, current)
		if err != nil {
			e.fail(wholeTaskCtx, machine, taskCtx, tr, current, err)
			return e.finish(taskCtx, machine, tr)
		}

		cost := e.budget.EstimateCost(out.InputTokens, out.OutputTokens)
		taskCtx.ApplyStageOutput(current, out, cost)
		tr.BudgetCheckpoint(taskCtx.CumulativeTokens, taskCtx.CumulativeCostUSD)

		// Enforce §4.2's per-stage cap (and the per-task cap) against what
		// the stage actually consumed. runWithRetry's pre-flight check passes
		// no stage estimate, so before the worker runs only the per-task cap
		// is checked.
		if err := e.budget.CheckTokens(taskCtx.CumulativeTokens, out.TokensUsed); err != nil {
			e.fail(wholeTaskCtx, machine, taskCtx, tr, current, err)
			return e.finish(taskCtx, machine, tr)
		}

		target, reason := e.nextTarget(current, out)
		if !machine.CanTransition(target, taskCtx) {
			denyErr := fmt.Errorf("%w: %s -> %s", stage.ErrGuardDenied, current, target)
			if reason == tracer.ReasonRework {
				denyErr = fmt.Errorf("rework exhausted at %s: %w", current, denyErr)
			}
			e.fail(wholeTaskCtx, machine, taskCtx, tr, current, denyErr)
			return e.finish(taskCtx, machine, tr)
		}
		if err := machine.Transition(target, taskCtx); err != nil {
			e.fail(wholeTaskCtx, machine, taskCtx, tr, current, err)
			return e.finish(taskCtx, machine, tr)
		}
		if reason == tracer.ReasonRework {
			taskCtx.RetryCount++
		}
		tr.Transition(string(current), string(target), reason)
	}

	return e.finish(taskCtx, machine, tr)
}

// nextTarget applies §4.1's rework routing: Review with requires_changes or
// Validate with tests_passed==false both target Generate; everything else
// advances linearly to the edge the machine already has wired.
func (e *Engine) nextTarget(current stage.Stage, out stage.Output) (stage.Stage, tracer.TransitionReason) {
	switch current {
	case stage.Review:
		if out.Bool("requires_changes") {
			return stage.Generate, tracer.ReasonRework
		}
		return stage.Validate, tracer.ReasonLinear
	case stage.Validate:
		if !out.Bool("tests_passed") {
			return stage.Generate, tracer.ReasonRework
		}
		return stage.Complete, tracer.ReasonLinear
	case stage.Analyze:
		return stage.Assess, tracer.ReasonLinear
	case stage.Assess:
		return stage.Plan, tracer.ReasonLinear
	case stage.Plan:
		return stage.Generate, tracer.ReasonLinear
	case stage.Generate:
		return stage.Review, tracer.ReasonLinear
	default:
		return stage.Failed, tracer.ReasonFailure
	}
}

// runWithRetry implements §4.3's retry-loop pseudocode: budget check, a
// stage-worker call bounded by the stage_worker timeout, and on failure a
// policy.RetryPolicy.Decide-driven backoff sleep, both cancellable via ctx.
func (e *Engine) runWithRetry(ctx context.Context, worker stage.Worker, taskCtx *stage.Context, tr *tracer.Tracer, current stage.Stage) (stage.Output, error) {
	attempt := 0
	for {
		if err := e.budget.CheckTokens(taskCtx.CumulativeTokens, 0); err != nil {
			return stage.Output{}, err
		}
		if err := e.budget.CheckCost(taskCtx.CumulativeCostUSD); err != nil {
			return stage.Output{}, err
		}

		tr.StageStarted(string(current), attempt)
		start := time.Now()

		stageCtx, cancel := context.WithTimeout(ctx, e.timeout.For(policy.CategoryStageWorker))
		out, err := worker.Run(stageCtx, taskCtx)
		cancel()

		// A worker may report failure without raising: success=false plus a
		// retryable flag, per §7's "structured results" propagation policy.
		// Treat that exactly like a raised, retryable error; a non-retryable
		// structured failure is not a processing error at all — the engine
		// never second-guesses it, the outgoing guard decides (§4.3).
		if err == nil && !out.Success && out.Retryable {
			err = fmt.Errorf("engine: stage worker reported a retryable failure: %s", out.String("error"))
		} else if err == nil {
			tr.StageCompleted(string(current), attempt, time.Since(start), out.TokensUsed, out.TokensApproximate)
			return out, nil
		}

		tr.StageFailed(string(current), attempt, err)
		taskCtx.AppendError(stage.ErrorEntry{
			Stage:     current,
			Attempt:   attempt,
			Message:   err.Error(),
			Kind:      kindLabel(policy.Classify(err)),
			Timestamp: time.Now().UTC(),
		})

		decision := e.retry.Decide(attempt, err)
		if !decision.Retry {
			return stage.Output{}, err
		}

		timer := time.NewTimer(decision.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return stage.Output{}, fmt.Errorf("%w", policy.ErrDeadlineExceeded)
		case <-timer.C:
		}

		attempt++
	}
}

// fail records a terminal error entry and forces the machine to Failed. A
// Failed edge exists unconditionally from every working state (and Pending),
// so this is infallible short of a programmer error in the transition table.
func (e *Engine) fail(ctx context.Context, machine *stage.Machine, taskCtx *stage.Context, tr *tracer.Tracer, from stage.Stage, cause error) {
	taskCtx.AppendError(stage.ErrorEntry{
		Stage:     from,
		Message:   cause.Error(),
		Kind:      kindLabel(policy.Classify(cause)),
		Timestamp: time.Now().UTC(),
	})
	if machine.CurrentState() != stage.Failed {
		_ = machine.Transition(stage.Failed, taskCtx)
	}
	tr.Transition(string(from), string(stage.Failed), tracer.ReasonFailure)
}

// finish completes the trace, stamps the context's terminal State, and
// returns it.
func (e *Engine) finish(taskCtx *stage.Context, machine *stage.Machine, tr *tracer.Tracer) *stage.Context {
	taskCtx.State = machine.CurrentState()

	status := "failed"
	if taskCtx.State == stage.Complete {
		status = "success"
	}
	_, _ = tr.Complete(status, taskCtx.CumulativeTokens)
	return taskCtx
}

func kindLabel(k policy.ErrorKind) string {
	switch k {
	case policy.KindTransient:
		return "transient"
	case policy.KindRateLimit:
		return "rate_limit"
	case policy.KindAuth:
		return "auth"
	case policy.KindContentFilter:
		return "content_filter"
	case policy.KindBudget:
		return "budget"
	case policy.KindParsing:
		return "parsing"
	case policy.KindInvalidTransition:
		return "invalid_transition"
	case policy.KindDeadline:
		return "deadline_exceeded"
	default:
		return "unknown"
	}
}
