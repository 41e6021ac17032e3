package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mediagen/internal/domain"
	"mediagen/internal/providers/krea"
)

type statusStep struct {
	resp *krea.StatusResponse
	err  error
}

type fakeAPI struct {
	mu       sync.Mutex
	creates  []*krea.CreateResponse
	createEr []error
	created  []domain.GenerationRequest
	statuses map[string][]statusStep
	queries  map[string]int
	calls    int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{statuses: map[string][]statusStep{}, queries: map[string]int{}}
}

func (f *fakeAPI) CreateJob(ctx context.Context, endpoint krea.Endpoint, token string, req domain.GenerationRequest) (*krea.CreateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	i := len(f.created)
	f.created = append(f.created, req)
	if i < len(f.createEr) && f.createEr[i] != nil {
		return nil, f.createEr[i]
	}
	if i < len(f.creates) {
		return f.creates[i], nil
	}
	return &krea.CreateResponse{}, nil
}

func (f *fakeAPI) JobStatus(ctx context.Context, token, jobID string) (*krea.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	n := f.queries[jobID]
	f.queries[jobID] = n + 1
	steps := f.statuses[jobID]
	if len(steps) == 0 {
		return &krea.StatusResponse{Status: "processing"}, nil
	}
	if n >= len(steps) {
		n = len(steps) - 1
	}
	return steps[n].resp, steps[n].err
}

func (f *fakeAPI) script(jobID string, steps ...statusStep) {
	f.statuses[jobID] = steps
}

func status(s string, urls ...string) statusStep {
	resp := &krea.StatusResponse{Status: s}
	if len(urls) > 0 {
		resp.Result = &krea.StatusResult{URLs: urls}
	}
	return statusStep{resp: resp}
}

// fakeSleeper advances virtual time without waiting.
type fakeSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits = append(f.waits, d)
	return ctx.Err()
}

func (f *fakeSleeper) elapsed() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total time.Duration
	for _, d := range f.waits {
		total += d
	}
	return total
}

var imageEndpoint = krea.Endpoint{Key: "nano-banana-pro", Path: "generate/image/google/nano-banana-pro", MaxAttempts: krea.ImageMaxAttempts}

func TestSubmitMissingCredentialMakesNoCalls(t *testing.T) {
	api := newFakeAPI()
	sub := NewSubmitter(api, nil)
	for _, tok := range []string{"", domain.PlaceholderToken} {
		job, err := sub.Submit(context.Background(), domain.GenerationRequest{Prompt: "x"}, imageEndpoint, tok)
		if !errors.Is(err, domain.ErrMissingCredential) {
			t.Fatalf("err = %v, want ErrMissingCredential", err)
		}
		if job.Status != "" {
			t.Fatalf("job = %+v, want zero", job)
		}
	}
	if api.calls != 0 {
		t.Fatalf("network calls = %d, want 0", api.calls)
	}
}

func TestSubmitEmptyPromptIsValidationError(t *testing.T) {
	api := newFakeAPI()
	_, err := NewSubmitter(api, nil).Submit(context.Background(), domain.GenerationRequest{Prompt: "  "}, imageEndpoint, "tok")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if api.calls != 0 {
		t.Fatalf("network calls = %d, want 0", api.calls)
	}
}

func TestSubmitFailuresAreTerminal(t *testing.T) {
	api := newFakeAPI()
	api.creates = []*krea.CreateResponse{{Status: "error"}}
	api.createEr = []error{nil, errors.New("connection reset")}
	sub := NewSubmitter(api, nil)

	job, err := sub.Submit(context.Background(), domain.GenerationRequest{Prompt: "a"}, imageEndpoint, "tok")
	if !errors.Is(err, domain.ErrSubmissionFailure) {
		t.Fatalf("missing id: err = %v", err)
	}
	if job.Status != domain.JobStatusFailed || job.HasID() || job.ErrorDetail != domain.DetailCreateFailed {
		t.Fatalf("missing id: job = %+v", job)
	}

	job, err = sub.Submit(context.Background(), domain.GenerationRequest{Prompt: "b"}, imageEndpoint, "tok")
	if !errors.Is(err, domain.ErrSubmissionFailure) {
		t.Fatalf("transport: err = %v", err)
	}
	if job.Status != domain.JobStatusFailed || job.HasID() {
		t.Fatalf("transport: job = %+v", job)
	}
	if api.calls != 2 {
		t.Fatalf("calls = %d, want 2 (no retries)", api.calls)
	}
}

func TestSingleImageScenario(t *testing.T) {
	api := newFakeAPI()
	api.creates = []*krea.CreateResponse{{JobID: "j1", Status: "processing"}}
	api.script("j1", status("processing"), status("processing"), status("completed", "http://x/img.png"))
	sleeper := &fakeSleeper{}

	job, err := NewSubmitter(api, nil).Submit(context.Background(), domain.GenerationRequest{Prompt: "deep sea"}, imageEndpoint, "tok")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.Status != domain.JobStatusProcessing {
		t.Fatalf("submitted status = %q", job.Status)
	}

	var snaps []domain.Job
	for snap := range NewPoller(api, sleeper, nil).Poll(context.Background(), job, "tok", PollOptions{}) {
		snaps = append(snaps, snap)
	}
	if len(snaps) != 3 {
		t.Fatalf("snapshots = %d, want 3", len(snaps))
	}
	final := snaps[len(snaps)-1]
	if final.ID != "j1" || final.Status != domain.JobStatusCompleted || final.ResultURL() != "http://x/img.png" {
		t.Fatalf("final = %+v", final)
	}
	if api.queries["j1"] != 3 {
		t.Fatalf("ticks = %d, want 3", api.queries["j1"])
	}
	if len(sleeper.waits) != 2 || sleeper.waits[0] != DefaultInterval {
		t.Fatalf("waits = %v, want two waits of %s", sleeper.waits, DefaultInterval)
	}
}

func TestPollTimesOutAfterExactlyMaxAttempts(t *testing.T) {
	api := newFakeAPI()
	sleeper := &fakeSleeper{}
	job := domain.NewSubmittedJob("slow", "p", "queued")

	final := NewPoller(api, sleeper, nil).Wait(context.Background(), job, "tok", PollOptions{MaxAttempts: 4, Interval: time.Second})
	if final.Status != domain.JobStatusTimeout {
		t.Fatalf("status = %q, want timeout", final.Status)
	}
	if !errors.Is(final.Err(), domain.ErrTimeout) {
		t.Fatalf("Err() = %v", final.Err())
	}
	if api.queries["slow"] != 4 {
		t.Fatalf("ticks = %d, want 4", api.queries["slow"])
	}
	if sleeper.elapsed() != 3*time.Second {
		t.Fatalf("virtual time = %s, want 3s", sleeper.elapsed())
	}
}

func TestPollVideoBudgetIsTwiceImage(t *testing.T) {
	video, err := krea.Lookup(domain.MediaKindVideo, "")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	api := newFakeAPI()
	sleeper := &fakeSleeper{}
	final := NewPoller(api, sleeper, nil).Wait(context.Background(), domain.NewSubmittedJob("v", "p", "queued"), "tok", OptionsFor(video))
	if final.Status != domain.JobStatusTimeout {
		t.Fatalf("status = %q", final.Status)
	}
	if api.queries["v"] != 120 {
		t.Fatalf("ticks = %d, want 120", api.queries["v"])
	}
	if sleeper.elapsed() != 119*DefaultInterval {
		t.Fatalf("virtual time = %s", sleeper.elapsed())
	}
}

func TestPollTransportErrorStopsImmediately(t *testing.T) {
	api := newFakeAPI()
	api.script("j", status("processing"), statusStep{err: errors.New("dial tcp: i/o timeout")}, status("completed", "u"))

	final := NewPoller(api, &fakeSleeper{}, nil).Wait(context.Background(), domain.NewSubmittedJob("j", "p", "queued"), "tok", PollOptions{})
	if final.Status != domain.JobStatusError {
		t.Fatalf("status = %q, want error", final.Status)
	}
	if final.ErrorDetail != "dial tcp: i/o timeout" {
		t.Fatalf("detail = %q", final.ErrorDetail)
	}
	if api.queries["j"] != 2 {
		t.Fatalf("ticks = %d, want 2", api.queries["j"])
	}
}

func TestPollKeepsGoingThroughErrorStatusWithJSONBody(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"processing"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"completed","result":{"urls":["https://cdn.example/a.png"]}}`))
	}))
	defer server.Close()

	client := krea.NewClient(krea.Options{BaseURL: server.URL})
	final := NewPoller(client, &fakeSleeper{}, nil).Wait(context.Background(), domain.NewSubmittedJob("j1", "p", "queued"), "tok", PollOptions{MaxAttempts: 5})
	if final.Status != domain.JobStatusCompleted || final.ResultURL() != "https://cdn.example/a.png" {
		t.Fatalf("final = %+v", final)
	}
	if hits.Load() != 2 {
		t.Fatalf("status queries = %d, want 2", hits.Load())
	}
}

func TestPollCompletedWithoutResultFails(t *testing.T) {
	api := newFakeAPI()
	api.script("j", status("completed"))
	final := NewPoller(api, &fakeSleeper{}, nil).Wait(context.Background(), domain.NewSubmittedJob("j", "p", "queued"), "tok", PollOptions{})
	if final.Status != domain.JobStatusFailed || final.ErrorDetail != domain.DetailCompletedNoResult {
		t.Fatalf("final = %+v", final)
	}
}

func TestPollIsSingleUse(t *testing.T) {
	api := newFakeAPI()
	api.script("j", status("completed", "u"))
	seq := NewPoller(api, &fakeSleeper{}, nil).Poll(context.Background(), domain.NewSubmittedJob("j", "p", "queued"), "tok", PollOptions{})
	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	if first != 1 || second != 0 {
		t.Fatalf("first = %d, second = %d", first, second)
	}
	if api.queries["j"] != 1 {
		t.Fatalf("ticks = %d, want 1", api.queries["j"])
	}
}

func TestPollStopsWhenCancelled(t *testing.T) {
	api := newFakeAPI()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	seen := 0
	for snap := range NewPoller(api, &fakeSleeper{}, nil).Poll(ctx, domain.NewSubmittedJob("j", "p", "queued"), "tok", PollOptions{MaxAttempts: 10}) {
		seen++
		if snap.Terminal() {
			t.Fatalf("unexpected terminal snapshot %+v", snap)
		}
		cancel()
	}
	if seen != 1 || api.queries["j"] != 1 {
		t.Fatalf("seen = %d, ticks = %d", seen, api.queries["j"])
	}
}

func TestSplitPrompts(t *testing.T) {
	tests := []struct {
		in    string
		delim string
		want  []string
	}{
		{"a, , b,", ",", []string{"a", "b"}},
		{"", ",", []string{}},
		{" one ;two;; ", ";", []string{"one", "two"}},
		{"solo", "", []string{"solo"}},
	}
	for _, tc := range tests {
		got := SplitPrompts(tc.in, tc.delim)
		if len(got) != len(tc.want) {
			t.Fatalf("SplitPrompts(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("SplitPrompts(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}

func TestBatchPartialCreationFailure(t *testing.T) {
	api := newFakeAPI()
	api.creates = []*krea.CreateResponse{
		{JobID: "b1", Status: "queued"},
		{Status: "error"},
		{JobID: "b3", Status: "queued"},
	}
	api.script("b1", status("processing"), status("completed", "http://x/1.png"))
	api.script("b3", status("processing"), status("processing"), status("completed", "http://x/3.png"))
	sleeper := &fakeSleeper{}
	orch := NewOrchestrator(NewSubmitter(api, nil), NewPoller(api, sleeper, nil), nil)

	seq, err := orch.Run(context.Background(), BatchRequest{
		PromptList: "first, second, third",
		Parameters: domain.Parameters{BatchSize: 1, NumImages: 1, Width: 1024, Height: 1024},
		Endpoint:   imageEndpoint,
		Token:      "tok",
	}, BatchOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var snaps []BatchSnapshot
	for snap := range seq {
		if snap.Run.CompletedCount() != countCompleted(snap.Run) {
			t.Fatalf("completed count drifted in %+v", snap)
		}
		snaps = append(snaps, snap)
	}
	if len(api.created) != 3 || api.created[1].Prompt != "second" {
		t.Fatalf("created = %#v", api.created)
	}
	submitting := 0
	for _, s := range snaps {
		if s.Phase == PhaseSubmitting {
			submitting++
			if s.Run.Jobs[len(s.Run.Jobs)-1].Prompt != api.created[len(s.Run.Jobs)-1].Prompt {
				t.Fatalf("prompt/job order mismatch")
			}
		}
	}
	if submitting != 3 {
		t.Fatalf("submitting snapshots = %d, want 3", submitting)
	}

	final := snaps[len(snaps)-1]
	if final.Phase != PhaseDone || final.TimedOut {
		t.Fatalf("final phase = %s timedOut=%v", final.Phase, final.TimedOut)
	}
	if final.Run.Total() != 3 || final.Run.CompletedCount() != 2 {
		t.Fatalf("counts = %d/%d", final.Run.CompletedCount(), final.Run.Total())
	}
	second := final.Run.Jobs[1]
	if second.Status != domain.JobStatusFailed || second.ErrorDetail != domain.DetailCreateFailed {
		t.Fatalf("job 2 = %+v", second)
	}
	if api.queries[""] != 0 {
		t.Fatalf("failed job was polled %d times", api.queries[""])
	}
	if final.Round != 3 || api.queries["b1"] != 2 || api.queries["b3"] != 3 {
		t.Fatalf("round = %d, b1 = %d, b3 = %d", final.Round, api.queries["b1"], api.queries["b3"])
	}
	urls := final.Run.ResultURLs()
	if len(urls) != 2 || urls[0] != "http://x/1.png" || urls[1] != "http://x/3.png" {
		t.Fatalf("urls = %#v", urls)
	}
	if len(sleeper.waits) != 2 {
		t.Fatalf("waits = %v, want 2", sleeper.waits)
	}
}

func TestBatchSiblingFailureDoesNotAbortOthers(t *testing.T) {
	api := newFakeAPI()
	api.creates = []*krea.CreateResponse{{JobID: "x1"}, {JobID: "x2"}}
	api.script("x1", statusStep{err: errors.New("network down")})
	api.script("x2", status("processing"), status("completed", "u2"))
	orch := NewOrchestrator(NewSubmitter(api, nil), NewPoller(api, &fakeSleeper{}, nil), nil)

	final, err := orch.Wait(context.Background(), BatchRequest{PromptList: "a,b", Endpoint: imageEndpoint, Token: "tok"}, BatchOptions{})
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if final.Run.Jobs[0].Status != domain.JobStatusError {
		t.Fatalf("job 1 = %+v", final.Run.Jobs[0])
	}
	if final.Run.Jobs[1].Status != domain.JobStatusCompleted {
		t.Fatalf("job 2 = %+v", final.Run.Jobs[1])
	}
	if api.queries["x1"] != 1 {
		t.Fatalf("errored job polled %d times, want 1", api.queries["x1"])
	}
}

func TestBatchTimesOutAfterMaxRounds(t *testing.T) {
	api := newFakeAPI()
	api.creates = []*krea.CreateResponse{{JobID: "s1"}, {JobID: "s2"}}
	api.script("s2", status("completed", "u"))
	orch := NewOrchestrator(NewSubmitter(api, nil), NewPoller(api, &fakeSleeper{}, nil), nil)

	final, err := orch.Wait(context.Background(), BatchRequest{PromptList: "a,b", Endpoint: imageEndpoint, Token: "tok"}, BatchOptions{})
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !final.TimedOut || final.Round != DefaultMaxRounds {
		t.Fatalf("timedOut = %v round = %d", final.TimedOut, final.Round)
	}
	if final.Run.Jobs[0].Status != domain.JobStatusTimeout {
		t.Fatalf("job 1 = %+v", final.Run.Jobs[0])
	}
	if api.queries["s1"] != DefaultMaxRounds || api.queries["s2"] != 1 {
		t.Fatalf("s1 = %d s2 = %d", api.queries["s1"], api.queries["s2"])
	}
	if final.Run.CompletedCount() != 1 {
		t.Fatalf("completed = %d", final.Run.CompletedCount())
	}
}

func TestBatchValidation(t *testing.T) {
	api := newFakeAPI()
	orch := NewOrchestrator(NewSubmitter(api, nil), NewPoller(api, &fakeSleeper{}, nil), nil)
	if _, err := orch.Run(context.Background(), BatchRequest{PromptList: "a", Token: ""}, BatchOptions{}); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
	if _, err := orch.Run(context.Background(), BatchRequest{PromptList: " , ,", Token: "tok"}, BatchOptions{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if api.calls != 0 {
		t.Fatalf("calls = %d, want 0", api.calls)
	}
}

func countCompleted(run domain.BatchRun) int {
	n := 0
	for _, j := range run.Jobs {
		if j.Status == domain.JobStatusCompleted {
			n++
		}
	}
	return n
}
