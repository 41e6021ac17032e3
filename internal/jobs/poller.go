package jobs

import (
	"context"
	"iter"
	"sync/atomic"
	"time"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
	"mediagen/internal/providers/krea"
)

// DefaultInterval is the fixed wait between status queries.
const DefaultInterval = 5 * time.Second

// PollOptions bounds a poll loop.
type PollOptions struct {
	Interval    time.Duration
	MaxAttempts int
}

// OptionsFor returns the default poll budget for an endpoint.
func OptionsFor(endpoint krea.Endpoint) PollOptions {
	return PollOptions{Interval: DefaultInterval, MaxAttempts: endpoint.MaxAttempts}
}

func (o PollOptions) withDefaults() PollOptions {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = krea.ImageMaxAttempts
	}
	return o
}

// Poller observes remote jobs until they reach a terminal status.
type Poller struct {
	api     JobAPI
	sleeper Sleeper
	logger  *infra.Logger
}

// NewPoller wires a poller. A nil sleeper waits on real timers.
func NewPoller(api JobAPI, sleeper Sleeper, logger *infra.Logger) *Poller {
	if sleeper == nil {
		sleeper = TimerSleeper{}
	}
	return &Poller{api: api, sleeper: sleeper, logger: orDiscard(logger)}
}

// Tick issues one status query for job and returns the next snapshot. A
// transport failure yields a terminal error job. The only error returned is
// ctx's, when the caller abandoned the loop mid-query.
func (p *Poller) Tick(ctx context.Context, token string, job domain.Job) (domain.Job, error) {
	if job.Terminal() {
		return job, nil
	}
	resp, err := p.api.JobStatus(ctx, token, job.ID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return job, ctxErr
		}
		next := job.TransportFailure(err)
		p.logger.Warn().Err(err).Str("job_id", job.ID).Msg("jobs: status check failed")
		return next, nil
	}
	next := job.Observe(resp.Report())
	if next.Terminal() {
		p.logTerminal(next)
	} else {
		p.logger.Debug().Str("job_id", job.ID).Str("status", next.RemoteStatus).Msg("jobs: job in progress")
	}
	return next, nil
}

// Poll returns a single-use sequence of snapshots for job, one per tick. The
// first query is issued immediately; later ones follow opts.Interval. The
// sequence ends with a terminal snapshot, or early without one when ctx is
// cancelled or the consumer stops ranging. Ranging it a second time yields
// nothing.
func (p *Poller) Poll(ctx context.Context, job domain.Job, token string, opts PollOptions) iter.Seq[domain.Job] {
	opts = opts.withDefaults()
	var used atomic.Bool
	return func(yield func(domain.Job) bool) {
		if !used.CompareAndSwap(false, true) {
			return
		}
		if !job.Terminal() && !job.HasID() {
			job = domain.NewFailedSubmission(job.Prompt)
		}
		if job.Terminal() {
			yield(job)
			return
		}
		current := job
		for attempt := 1; ; attempt++ {
			next, err := p.Tick(ctx, token, current)
			if err != nil {
				return
			}
			current = next
			if current.Terminal() {
				yield(current.Clone())
				return
			}
			if attempt >= opts.MaxAttempts {
				current = current.Expire()
				p.logTerminal(current)
				yield(current.Clone())
				return
			}
			if !yield(current.Clone()) {
				return
			}
			if err := p.sleeper.Sleep(ctx, opts.Interval); err != nil {
				return
			}
		}
	}
}

// Wait drains Poll and returns the last snapshot observed.
func (p *Poller) Wait(ctx context.Context, job domain.Job, token string, opts PollOptions) domain.Job {
	last := job
	for snap := range p.Poll(ctx, job, token, opts) {
		last = snap
	}
	return last
}

func (p *Poller) logTerminal(job domain.Job) {
	event := p.logger.Info()
	if job.Status != domain.JobStatusCompleted {
		event = p.logger.Warn()
	}
	event.Str("job_id", job.ID).
		Str("status", string(job.Status)).
		Str("detail", job.ErrorDetail).
		Msg("jobs: job finished")
}
