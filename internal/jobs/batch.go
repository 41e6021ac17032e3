package jobs

import (
	"context"
	"iter"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
	"mediagen/internal/providers/krea"
)

const (
	DefaultMaxRounds   = 60
	DefaultConcurrency = 4
)

// BatchPhase names the stage a batch snapshot was taken in.
type BatchPhase string

const (
	PhaseSubmitting BatchPhase = "submitting"
	PhasePolling    BatchPhase = "polling"
	PhaseDone       BatchPhase = "done"
)

// BatchRequest is a delimiter-separated prompt list plus the options every
// prompt shares.
type BatchRequest struct {
	PromptList string
	Delimiter  string
	Parameters domain.Parameters
	Endpoint   krea.Endpoint
	Token      string
}

// BatchOptions bounds the shared polling loop.
type BatchOptions struct {
	Interval    time.Duration
	MaxRounds   int
	Concurrency int
}

func (o BatchOptions) withDefaults() BatchOptions {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.MaxRounds <= 0 {
		o.MaxRounds = DefaultMaxRounds
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// BatchSnapshot is one published state of a batch. Run is a deep copy owned
// by the receiver.
type BatchSnapshot struct {
	Phase     BatchPhase
	Requested int
	Round     int
	TimedOut  bool
	Run       domain.BatchRun
}

// Orchestrator fans a prompt list out into independent jobs and polls them
// as a set.
type Orchestrator struct {
	submitter *Submitter
	poller    *Poller
	sleeper   Sleeper
	logger    *infra.Logger
}

// NewOrchestrator composes the shared submitter and poller.
func NewOrchestrator(submitter *Submitter, poller *Poller, logger *infra.Logger) *Orchestrator {
	return &Orchestrator{
		submitter: submitter,
		poller:    poller,
		sleeper:   poller.sleeper,
		logger:    orDiscard(logger),
	}
}

// Run validates req and returns a single-use sequence of batch snapshots.
// Jobs are created one at a time in list order, publishing a snapshot after
// each. Polling then runs in rounds: every pending job is queried once per
// round, rounds never overlap, and a snapshot follows each round. The final
// snapshot has PhaseDone; jobs still running after MaxRounds are marked
// timed out.
func (o *Orchestrator) Run(ctx context.Context, req BatchRequest, opts BatchOptions) (iter.Seq[BatchSnapshot], error) {
	if err := domain.ValidateToken(req.Token); err != nil {
		return nil, err
	}
	prompts := SplitPrompts(req.PromptList, req.Delimiter)
	if len(prompts) == 0 {
		return nil, domain.Validationf("at least one prompt is required")
	}
	opts = opts.withDefaults()

	var used atomic.Bool
	return func(yield func(BatchSnapshot) bool) {
		if !used.CompareAndSwap(false, true) {
			return
		}
		run, ok := o.submitAll(ctx, req, prompts, yield)
		if !ok {
			return
		}
		o.pollAll(ctx, req.Token, run, len(prompts), opts, yield)
	}, nil
}

// Wait drains Run and returns the final snapshot. It returns the last
// snapshot seen when ctx ends the batch early.
func (o *Orchestrator) Wait(ctx context.Context, req BatchRequest, opts BatchOptions) (BatchSnapshot, error) {
	seq, err := o.Run(ctx, req, opts)
	if err != nil {
		return BatchSnapshot{}, err
	}
	var last BatchSnapshot
	for snap := range seq {
		last = snap
	}
	return last, nil
}

func (o *Orchestrator) submitAll(ctx context.Context, req BatchRequest, prompts []string, yield func(BatchSnapshot) bool) (domain.BatchRun, bool) {
	run := domain.BatchRun{Jobs: make([]domain.Job, 0, len(prompts))}
	for _, prompt := range prompts {
		if ctx.Err() != nil {
			return run, false
		}
		// Creation failures are carried on the returned job.
		job, _ := o.submitter.Submit(ctx, domain.GenerationRequest{Prompt: prompt, Parameters: req.Parameters}, req.Endpoint, req.Token)
		run.Jobs = append(run.Jobs, job)
		if !yield(BatchSnapshot{Phase: PhaseSubmitting, Requested: len(prompts), Run: run.Clone()}) {
			return run, false
		}
	}
	o.logger.Info().
		Int("total", run.Total()).
		Int("pending", len(run.Pending())).
		Msg("jobs: batch submitted")
	return run, true
}

func (o *Orchestrator) pollAll(ctx context.Context, token string, run domain.BatchRun, requested int, opts BatchOptions, yield func(BatchSnapshot) bool) {
	for round := 1; ; round++ {
		pending := run.Pending()
		if len(pending) == 0 {
			o.finish(run, round-1, false)
			yield(BatchSnapshot{Phase: PhaseDone, Requested: requested, Round: round - 1, Run: run.Clone()})
			return
		}
		if round > 1 {
			if err := o.sleeper.Sleep(ctx, opts.Interval); err != nil {
				return
			}
		}

		next := run.Clone()
		var g errgroup.Group
		g.SetLimit(opts.Concurrency)
		for _, idx := range pending {
			g.Go(func() error {
				job, err := o.poller.Tick(ctx, token, next.Jobs[idx])
				if err != nil {
					return err
				}
				next.Jobs[idx] = job
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return
		}
		run = next

		if run.Done() {
			o.finish(run, round, false)
			yield(BatchSnapshot{Phase: PhaseDone, Requested: requested, Round: round, Run: run.Clone()})
			return
		}
		if round >= opts.MaxRounds {
			for _, idx := range run.Pending() {
				run.Jobs[idx] = run.Jobs[idx].Expire()
			}
			o.finish(run, round, true)
			yield(BatchSnapshot{Phase: PhaseDone, Requested: requested, Round: round, TimedOut: true, Run: run.Clone()})
			return
		}
		if !yield(BatchSnapshot{Phase: PhasePolling, Requested: requested, Round: round, Run: run.Clone()}) {
			return
		}
	}
}

func (o *Orchestrator) finish(run domain.BatchRun, rounds int, timedOut bool) {
	o.logger.Info().
		Int("completed", run.CompletedCount()).
		Int("total", run.Total()).
		Int("rounds", rounds).
		Bool("timed_out", timedOut).
		Msg("jobs: batch finished")
}
