package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrValidation        = errors.New("validation error")
	ErrSubmissionFailure = errors.New("submission failure")
	ErrPollTransport     = errors.New("poll transport error")
	ErrJobFailed         = errors.New("job failed")
	ErrTimeout           = errors.New("timeout")
)

// JobError ties a taxonomy error to the job that produced it.
type JobError struct {
	Kind   error
	JobID  string
	Detail string
}

func (e *JobError) Error() string {
	switch {
	case e.JobID != "" && e.Detail != "":
		return fmt.Sprintf("%s: job %s: %s", e.Kind, e.JobID, e.Detail)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	case e.JobID != "":
		return fmt.Sprintf("%s: job %s", e.Kind, e.JobID)
	default:
		return e.Kind.Error()
	}
}

func (e *JobError) Unwrap() error {
	return e.Kind
}

// Validationf builds an ErrValidation with a field-specific message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
