package domain

import "strings"

// MediaKind enumerates supported generation categories.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// JobStatus enumerates job lifecycle states as seen by this client.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusError      JobStatus = "error"
	JobStatusTimeout    JobStatus = "timeout"
)

// Terminal reports whether no further transitions are allowed from s.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusError, JobStatusTimeout:
		return true
	default:
		return false
	}
}

const (
	DetailCreateFailed      = "failed to create job"
	DetailJobFailed         = "job failed"
	DetailCompletedNoResult = "completed but no result found"
	DetailTimeout           = "timeout: job took too long to complete"
)

// Job is an immutable snapshot of one remote generation task. Methods that
// change state return a new value; the receiver is never modified.
type Job struct {
	ID           string    `json:"id,omitempty"`
	Prompt       string    `json:"prompt"`
	Status       JobStatus `json:"status"`
	RemoteStatus string    `json:"remote_status,omitempty"`
	ResultURLs   []string  `json:"result_urls"`
	ErrorDetail  string    `json:"error,omitempty"`
}

// NewSubmittedJob builds the job returned by a successful creation call.
func NewSubmittedJob(id, prompt, remoteStatus string) Job {
	return Job{
		ID:           id,
		Prompt:       prompt,
		Status:       localStatus(remoteStatus),
		RemoteStatus: remoteStatus,
		ResultURLs:   []string{},
	}
}

// NewFailedSubmission builds the job returned when creation yielded no id.
func NewFailedSubmission(prompt string) Job {
	return Job{
		Prompt:      prompt,
		Status:      JobStatusFailed,
		ResultURLs:  []string{},
		ErrorDetail: DetailCreateFailed,
	}
}

// Terminal reports whether the job has reached a final state.
func (j Job) Terminal() bool {
	return j.Status.Terminal()
}

// HasID reports whether the remote side accepted the job.
func (j Job) HasID() bool {
	return strings.TrimSpace(j.ID) != ""
}

// ResultURL returns the first result URL, which is the only one surfaced to
// users, or "" when the job has no result.
func (j Job) ResultURL() string {
	if len(j.ResultURLs) == 0 {
		return ""
	}
	return j.ResultURLs[0]
}

// Err maps a terminal job onto the error taxonomy. Non-terminal and completed
// jobs return nil.
func (j Job) Err() error {
	switch j.Status {
	case JobStatusFailed:
		if !j.HasID() {
			return &JobError{Kind: ErrSubmissionFailure, JobID: j.ID, Detail: j.ErrorDetail}
		}
		return &JobError{Kind: ErrJobFailed, JobID: j.ID, Detail: j.ErrorDetail}
	case JobStatusError:
		return &JobError{Kind: ErrPollTransport, JobID: j.ID, Detail: j.ErrorDetail}
	case JobStatusTimeout:
		return &JobError{Kind: ErrTimeout, JobID: j.ID, Detail: j.ErrorDetail}
	default:
		return nil
	}
}

// Clone returns a deep copy so callers can publish snapshots safely.
func (j Job) Clone() Job {
	out := j
	out.ResultURLs = append([]string{}, j.ResultURLs...)
	return out
}

// StatusReport is the remote view of a job as returned by a status query.
type StatusReport struct {
	Status     string
	ResultURLs []string
}

// Observe applies one status report to the job. Only the exact values
// "completed" and "failed" are terminal; any non-empty URL list counts as a
// result. Terminal jobs are returned unchanged.
func (j Job) Observe(report StatusReport) Job {
	if j.Terminal() {
		return j
	}
	next := j.Clone()
	next.RemoteStatus = report.Status
	switch report.Status {
	case string(JobStatusCompleted):
		if len(report.ResultURLs) == 0 {
			next.Status = JobStatusFailed
			next.ErrorDetail = DetailCompletedNoResult
			return next
		}
		next.Status = JobStatusCompleted
		next.ResultURLs = []string{report.ResultURLs[0]}
		next.ErrorDetail = ""
	case string(JobStatusFailed):
		next.Status = JobStatusFailed
		next.ErrorDetail = DetailJobFailed
	default:
		next.Status = localStatus(report.Status)
	}
	return next
}

// TransportFailure marks the job as errored after a failed status query.
func (j Job) TransportFailure(err error) Job {
	if j.Terminal() {
		return j
	}
	next := j.Clone()
	next.Status = JobStatusError
	if err != nil {
		next.ErrorDetail = err.Error()
	}
	return next
}

// Expire marks a still-running job as timed out.
func (j Job) Expire() Job {
	if j.Terminal() {
		return j
	}
	next := j.Clone()
	next.Status = JobStatusTimeout
	next.ErrorDetail = DetailTimeout
	return next
}

// localStatus maps a non-terminal remote status onto queued or processing.
func localStatus(remote string) JobStatus {
	switch strings.ToLower(strings.TrimSpace(remote)) {
	case "queued", "backlogged", "pending", "scheduled", "":
		return JobStatusQueued
	default:
		return JobStatusProcessing
	}
}
