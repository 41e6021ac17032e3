package runs

import (
	"slices"
	"strings"
	"time"

	"mediagen/internal/domain"
	"mediagen/internal/i18n"
	"mediagen/internal/jobs"
)

// Kind is the flavour of a run.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindBatch Kind = "batch"
)

// State summarizes a run for presentation.
type State string

const (
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

const promptPreviewLen = 50

// View is an immutable snapshot of a run as presented to users. New views
// are produced only by Reduce.
type View struct {
	ID        string      `json:"id"`
	Kind      Kind        `json:"kind"`
	Model     string      `json:"model"`
	Locale    string      `json:"locale"`
	State     State       `json:"state"`
	Message   string      `json:"message"`
	Log       []string    `json:"log"`
	Job       *domain.Job `json:"job,omitempty"`
	Batch     *BatchView  `json:"batch,omitempty"`
	Error     string      `json:"error,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// BatchView is the batch part of a View. Completed and Total are derived
// from Jobs when the view is built.
type BatchView struct {
	Phase     jobs.BatchPhase `json:"phase"`
	Requested int             `json:"requested"`
	Total     int             `json:"total"`
	Completed int             `json:"completed"`
	Round     int             `json:"round"`
	TimedOut  bool            `json:"timed_out"`
	Jobs      []domain.Job    `json:"jobs"`
}

// NewView returns the initial view of a run.
func NewView(id string, kind Kind, model, locale string) View {
	return View{ID: id, Kind: kind, Model: model, Locale: locale, State: StateRunning, Log: []string{}}
}

// Done reports whether the run reached a final state.
func (v View) Done() bool {
	return v.State != StateRunning
}

// Clone returns a deep copy of v.
func (v View) Clone() View {
	out := v
	out.Log = slices.Clone(v.Log)
	if v.Job != nil {
		job := v.Job.Clone()
		out.Job = &job
	}
	if v.Batch != nil {
		batch := *v.Batch
		batch.Jobs = domain.BatchRun{Jobs: v.Batch.Jobs}.Clone().Jobs
		out.Batch = &batch
	}
	return out
}

// Event is an input to Reduce.
type Event interface {
	apply(v View, tr i18n.Translator) View
}

// JobUpdated carries a new snapshot of a single-job run. Created marks the
// snapshot returned by the creation call.
type JobUpdated struct {
	Job     domain.Job
	Created bool
}

// BatchUpdated carries a new batch snapshot.
type BatchUpdated struct {
	Snapshot jobs.BatchSnapshot
}

// Failed ends a run with err.
type Failed struct {
	Err error
}

// Reduce applies e to a copy of v and returns the result. v is not modified.
func Reduce(v View, e Event, tr i18n.Translator, now time.Time) View {
	next := e.apply(v.Clone(), tr)
	next.UpdatedAt = now
	return next
}

func (e JobUpdated) apply(v View, tr i18n.Translator) View {
	job := e.Job.Clone()
	v.Job = &job
	switch {
	case job.Status == domain.JobStatusCompleted:
		v.State = StateCompleted
		return v.say(tr.Sprintf(i18n.MsgCompleted))
	case job.Terminal():
		v.State = StateFailed
		v.Error = tr.Error(job.Err())
		return v.say(v.Error)
	case e.Created:
		return v.say(tr.Sprintf(i18n.MsgJobCreated, remoteOrLocal(job)))
	default:
		return v.say(tr.Sprintf(i18n.MsgStatus, remoteOrLocal(job)))
	}
}

func (e BatchUpdated) apply(v View, tr i18n.Translator) View {
	snap := e.Snapshot
	run := snap.Run.Clone()
	v.Batch = &BatchView{
		Phase:     snap.Phase,
		Requested: snap.Requested,
		Total:     run.Total(),
		Completed: run.CompletedCount(),
		Round:     snap.Round,
		TimedOut:  snap.TimedOut,
		Jobs:      run.Jobs,
	}
	switch snap.Phase {
	case jobs.PhaseSubmitting:
		n := run.Total()
		v = v.say(tr.Sprintf(i18n.MsgCreatingJob, n, snap.Requested, preview(run.Jobs[n-1].Prompt)))
		if n == snap.Requested {
			v = v.say(tr.Sprintf(i18n.MsgJobsCreated, n))
		}
		return v
	case jobs.PhasePolling:
		return v.say(tr.Sprintf(i18n.MsgBatchProgress, run.CompletedCount(), run.Total()))
	default:
		if run.CompletedCount() == run.Total() {
			v.State = StateCompleted
		} else {
			v.State = StateFailed
		}
		if snap.TimedOut {
			return v.say(tr.Sprintf(i18n.MsgBatchTimeout, run.CompletedCount(), run.Total()))
		}
		return v.say(tr.Sprintf(i18n.MsgBatchDone, run.CompletedCount(), run.Total()))
	}
}

func (e Failed) apply(v View, tr i18n.Translator) View {
	v.State = StateFailed
	v.Error = tr.Error(e.Err)
	return v.say(v.Error)
}

// say sets the current message and appends it to the log unless it repeats
// the previous line.
func (v View) say(msg string) View {
	v.Message = msg
	if n := len(v.Log); n == 0 || v.Log[n-1] != msg {
		v.Log = append(v.Log, msg)
	}
	return v
}

func remoteOrLocal(job domain.Job) string {
	if job.RemoteStatus != "" {
		return job.RemoteStatus
	}
	return string(job.Status)
}

func preview(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	runes := []rune(prompt)
	if len(runes) <= promptPreviewLen {
		return prompt
	}
	return string(runes[:promptPreviewLen]) + "..."
}
