package jobs

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
	"mediagen/internal/providers/krea"
)

// JobAPI is the remote side of the job protocol.
type JobAPI interface {
	CreateJob(ctx context.Context, endpoint krea.Endpoint, token string, req domain.GenerationRequest) (*krea.CreateResponse, error)
	JobStatus(ctx context.Context, token, jobID string) (*krea.StatusResponse, error)
}

var _ JobAPI = (*krea.Client)(nil)

// Submitter creates one remote job per call.
type Submitter struct {
	api    JobAPI
	logger *infra.Logger
}

// NewSubmitter wires a submitter to api. A nil logger discards output.
func NewSubmitter(api JobAPI, logger *infra.Logger) *Submitter {
	return &Submitter{api: api, logger: orDiscard(logger)}
}

// Submit validates the inputs and issues a single creation call. Credential
// and prompt problems return a zero Job and make no network call. Any
// creation failure returns a failed Job together with its
// ErrSubmissionFailure; the call is never retried.
func (s *Submitter) Submit(ctx context.Context, req domain.GenerationRequest, endpoint krea.Endpoint, token string) (domain.Job, error) {
	if err := domain.ValidateToken(token); err != nil {
		return domain.Job{}, err
	}
	if err := domain.ValidatePrompt(req.Prompt); err != nil {
		return domain.Job{}, err
	}
	req.Prompt = strings.TrimSpace(req.Prompt)

	resp, err := s.api.CreateJob(ctx, endpoint, strings.TrimSpace(token), req)
	if err != nil {
		job := domain.NewFailedSubmission(req.Prompt)
		job.ErrorDetail = domain.DetailCreateFailed + ": " + err.Error()
		s.logger.Warn().Err(err).Str("endpoint", endpoint.Path).Msg("jobs: create request failed")
		return job, job.Err()
	}
	if resp == nil || strings.TrimSpace(resp.JobID) == "" {
		job := domain.NewFailedSubmission(req.Prompt)
		s.logger.Warn().Str("endpoint", endpoint.Path).Msg("jobs: create response without job id")
		return job, job.Err()
	}
	job := domain.NewSubmittedJob(strings.TrimSpace(resp.JobID), req.Prompt, resp.Status)
	s.logger.Info().
		Str("job_id", job.ID).
		Str("endpoint", endpoint.Path).
		Str("status", resp.Status).
		Msg("jobs: job created")
	return job, nil
}

func orDiscard(logger *infra.Logger) *infra.Logger {
	if logger != nil {
		return logger
	}
	discard := zerolog.New(io.Discard)
	return &discard
}
