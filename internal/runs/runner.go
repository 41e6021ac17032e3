package runs

import (
	"context"
	"strings"
	"time"

	"mediagen/internal/domain"
	"mediagen/internal/i18n"
	"mediagen/internal/infra"
	"mediagen/internal/jobs"
	"mediagen/internal/providers/krea"
)

// Options tunes the poll budgets used by every run.
type Options struct {
	Interval         time.Duration
	ImageMaxAttempts int
	VideoMaxAttempts int
	BatchMaxRounds   int
	BatchConcurrency int
}

// OptionsFromConfig maps the service configuration onto run options.
func OptionsFromConfig(cfg *infra.Config) Options {
	return Options{
		Interval:         cfg.PollInterval,
		ImageMaxAttempts: cfg.ImageMaxAttempts,
		VideoMaxAttempts: cfg.VideoMaxAttempts,
		BatchMaxRounds:   cfg.BatchMaxRounds,
		BatchConcurrency: cfg.BatchPollConcurrency,
	}
}

// ImageInput is a single image request as entered by a user.
type ImageInput struct {
	Prompt     string `json:"prompt"`
	NumImages  int    `json:"numImages"`
	Resolution string `json:"resolution"`
}

// VideoInput is a single video request as entered by a user.
type VideoInput struct {
	Prompt      string `json:"prompt"`
	Model       string `json:"model"`
	AspectRatio string `json:"aspectRatio"`
	Duration    int    `json:"duration"`
	Resolution  string `json:"resolution"`
}

// BatchInput is a delimited prompt list plus shared image options.
type BatchInput struct {
	Prompts     string `json:"prompts"`
	Delimiter   string `json:"delimiter"`
	Resolution  string `json:"resolution"`
	AspectRatio string `json:"aspectRatio"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// Plan is a validated run, ready to execute.
type Plan struct {
	Kind     Kind
	Endpoint krea.Endpoint
	Request  domain.GenerationRequest
	Batch    jobs.BatchRequest
	token    string
}

// Runner turns plans into a stream of views.
type Runner struct {
	submitter    *jobs.Submitter
	poller       *jobs.Poller
	orchestrator *jobs.Orchestrator
	opts         Options
	logger       *infra.Logger
	now          func() time.Time
}

// NewRunner wires the job components around api. A nil sleeper uses real
// timers.
func NewRunner(api jobs.JobAPI, sleeper jobs.Sleeper, opts Options, logger *infra.Logger) *Runner {
	if logger == nil {
		discard := infra.NewDiscardLogger()
		logger = &discard
	}
	submitter := jobs.NewSubmitter(api, logger)
	poller := jobs.NewPoller(api, sleeper, logger)
	return &Runner{
		submitter:    submitter,
		poller:       poller,
		orchestrator: jobs.NewOrchestrator(submitter, poller, logger),
		opts:         opts,
		logger:       logger,
		now:          time.Now,
	}
}

// PlanImage validates a single image request. The credential is checked
// first so a missing token is reported before any input problem.
func (r *Runner) PlanImage(in ImageInput, token string) (Plan, error) {
	if err := validateInput(token, in.Prompt); err != nil {
		return Plan{}, err
	}
	endpoint, err := krea.Lookup(domain.MediaKindImage, "")
	if err != nil {
		return Plan{}, err
	}
	params, err := domain.ImageParameters(in.NumImages, in.Resolution)
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		Kind:     KindImage,
		Endpoint: endpoint,
		Request:  domain.GenerationRequest{Prompt: strings.TrimSpace(in.Prompt), Parameters: params},
		token:    strings.TrimSpace(token),
	}, nil
}

// PlanVideo validates a video request against the chosen model.
func (r *Runner) PlanVideo(in VideoInput, token string) (Plan, error) {
	if err := validateInput(token, in.Prompt); err != nil {
		return Plan{}, err
	}
	endpoint, err := krea.Lookup(domain.MediaKindVideo, in.Model)
	if err != nil {
		return Plan{}, err
	}
	params, err := domain.VideoParameters(in.AspectRatio, in.Duration, in.Resolution)
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		Kind:     KindVideo,
		Endpoint: endpoint,
		Request:  domain.GenerationRequest{Prompt: strings.TrimSpace(in.Prompt), Parameters: params},
		token:    strings.TrimSpace(token),
	}, nil
}

// PlanBatch validates a prompt list and its shared options.
func (r *Runner) PlanBatch(in BatchInput, token string) (Plan, error) {
	if err := domain.ValidateToken(token); err != nil {
		return Plan{}, err
	}
	if len(jobs.SplitPrompts(in.Prompts, in.Delimiter)) == 0 {
		return Plan{}, domain.Validationf("at least one prompt is required")
	}
	endpoint, err := krea.Lookup(domain.MediaKindImage, "")
	if err != nil {
		return Plan{}, err
	}
	params, err := domain.BatchImageParameters(in.Resolution, in.AspectRatio, in.Width, in.Height)
	if err != nil {
		return Plan{}, err
	}
	token = strings.TrimSpace(token)
	return Plan{
		Kind:     KindBatch,
		Endpoint: endpoint,
		Batch: jobs.BatchRequest{
			PromptList: in.Prompts,
			Delimiter:  in.Delimiter,
			Parameters: params,
			Endpoint:   endpoint,
			Token:      token,
		},
		token: token,
	}, nil
}

// Execute runs plan to completion, calling publish with every new view.
// It returns the final view. When ctx ends first the run is marked failed.
func (r *Runner) Execute(ctx context.Context, plan Plan, view View, publish func(View)) View {
	tr := i18n.For(view.Locale)
	step := func(e Event) {
		view = Reduce(view, e, tr, r.now())
		if publish != nil {
			publish(view)
		}
	}

	switch plan.Kind {
	case KindBatch:
		r.executeBatch(ctx, plan, step)
	default:
		r.executeSingle(ctx, plan, step)
	}

	if !view.Done() {
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		r.logger.Warn().Err(err).Str("run_id", view.ID).Msg("runs: run interrupted")
		step(Failed{Err: err})
	}
	return view
}

func (r *Runner) executeSingle(ctx context.Context, plan Plan, step func(Event)) {
	job, err := r.submitter.Submit(ctx, plan.Request, plan.Endpoint, plan.token)
	if job.Status == "" {
		step(Failed{Err: err})
		return
	}
	step(JobUpdated{Job: job, Created: true})
	if job.Terminal() {
		return
	}
	opts := jobs.PollOptions{Interval: r.opts.Interval, MaxAttempts: r.maxAttempts(plan.Endpoint)}
	for snap := range r.poller.Poll(ctx, job, plan.token, opts) {
		step(JobUpdated{Job: snap})
	}
}

func (r *Runner) executeBatch(ctx context.Context, plan Plan, step func(Event)) {
	seq, err := r.orchestrator.Run(ctx, plan.Batch, jobs.BatchOptions{
		Interval:    r.opts.Interval,
		MaxRounds:   r.opts.BatchMaxRounds,
		Concurrency: r.opts.BatchConcurrency,
	})
	if err != nil {
		step(Failed{Err: err})
		return
	}
	for snap := range seq {
		step(BatchUpdated{Snapshot: snap})
	}
}

func (r *Runner) maxAttempts(endpoint krea.Endpoint) int {
	switch {
	case endpoint.Media == domain.MediaKindVideo && r.opts.VideoMaxAttempts > 0:
		return r.opts.VideoMaxAttempts
	case endpoint.Media == domain.MediaKindImage && r.opts.ImageMaxAttempts > 0:
		return r.opts.ImageMaxAttempts
	default:
		return endpoint.MaxAttempts
	}
}

func validateInput(token, prompt string) error {
	if err := domain.ValidateToken(token); err != nil {
		return err
	}
	return domain.ValidatePrompt(prompt)
}
