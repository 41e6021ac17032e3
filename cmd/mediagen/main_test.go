package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
	"mediagen/internal/jobs"
	"mediagen/internal/providers/krea"
)

type stubAPI struct {
	mu       sync.Mutex
	next     int
	statuses map[string]krea.StatusResponse
	tokens   []string
}

func (s *stubAPI) CreateJob(_ context.Context, _ krea.Endpoint, token string, req domain.GenerationRequest) (*krea.CreateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.tokens = append(s.tokens, token)
	return &krea.CreateResponse{JobID: fmt.Sprintf("job-%d", s.next), Status: "queued"}, nil
}

func (s *stubAPI) JobStatus(_ context.Context, _ string, jobID string) (*krea.StatusResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resp, ok := s.statuses[jobID]; ok {
		return &resp, nil
	}
	return &krea.StatusResponse{Status: "processing"}, nil
}

type instantSleeper struct{}

func (instantSleeper) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CREDENTIAL_BACKEND", "file")
	t.Setenv("CREDENTIAL_DIR", t.TempDir())
	t.Setenv("KREA_API_TOKEN", "")
	t.Setenv("IMAGE_MAX_ATTEMPTS", "3")
	t.Setenv("BATCH_MAX_ROUNDS", "3")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")
}

func runCLI(t *testing.T, api *stubAPI, args ...string) (string, string, error) {
	t.Helper()
	ctx := newCommandContext()
	ctx.sleeper = instantSleeper{}
	ctx.newAPI = func(*infra.Config, *infra.Logger) jobs.JobAPI { return api }

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(ctx)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func completed(url string) krea.StatusResponse {
	return krea.StatusResponse{Status: "completed", Result: &krea.StatusResult{URLs: []string{url}}}
}

func TestImageRequiresToken(t *testing.T) {
	setupEnv(t)
	api := &stubAPI{}

	_, _, err := runCLI(t, api, "image", "--prompt", "a cat")
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected missing credential, got %v", err)
	}
	if err.Error() != "Please set your API token first." {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if len(api.tokens) != 0 {
		t.Fatal("no request should be sent without a token")
	}
}

func TestKeySetThenImage(t *testing.T) {
	setupEnv(t)
	api := &stubAPI{statuses: map[string]krea.StatusResponse{"job-1": completed("https://cdn.example/cat.png")}}

	if _, _, err := runCLI(t, api, "key", "set", "secret-token"); err != nil {
		t.Fatalf("key set: %v", err)
	}
	out, _, err := runCLI(t, api, "key", "status")
	if err != nil {
		t.Fatalf("key status: %v", err)
	}
	if !strings.Contains(out, "configured: yes") || !strings.Contains(out, "source: stored") || !strings.Contains(out, "backend: file") {
		t.Fatalf("unexpected status output %q", out)
	}
	if strings.Contains(out, "secret-token") {
		t.Fatal("status must not print the token")
	}

	out, _, err = runCLI(t, api, "image", "--prompt", "a cat")
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	if !strings.Contains(out, "Job created: queued") || !strings.Contains(out, "Completed!") {
		t.Fatalf("missing progress lines in %q", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "https://cdn.example/cat.png") {
		t.Fatalf("expected result URL last, got %q", out)
	}
	if len(api.tokens) != 1 || api.tokens[0] != "secret-token" {
		t.Fatalf("unexpected tokens %v", api.tokens)
	}
}

func TestKeyClear(t *testing.T) {
	setupEnv(t)
	api := &stubAPI{}
	if _, _, err := runCLI(t, api, "key", "set", "secret-token"); err != nil {
		t.Fatalf("key set: %v", err)
	}
	if _, _, err := runCLI(t, api, "key", "clear"); err != nil {
		t.Fatalf("key clear: %v", err)
	}
	out, _, err := runCLI(t, api, "key", "status")
	if err != nil {
		t.Fatalf("key status: %v", err)
	}
	if !strings.Contains(out, "configured: no") {
		t.Fatalf("expected unconfigured status, got %q", out)
	}
}

func TestBatchPartialFailureIsIncomplete(t *testing.T) {
	setupEnv(t)
	t.Setenv("KREA_API_TOKEN", "env-token")
	api := &stubAPI{statuses: map[string]krea.StatusResponse{
		"job-1": completed("https://cdn.example/1.png"),
		"job-2": {Status: "failed"},
	}}

	out, _, err := runCLI(t, api, "--locale", "id", "batch", "--prompts", "cat, dog")
	if !errors.Is(err, errIncomplete) {
		t.Fatalf("expected errIncomplete, got %v", err)
	}
	if !strings.Contains(out, "https://cdn.example/1.png") || !strings.Contains(out, "failed") {
		t.Fatalf("expected batch table in %q", out)
	}
	if len(api.tokens) != 2 {
		t.Fatalf("expected 2 jobs created, got %d", len(api.tokens))
	}
}

func TestImageRejectsInvalidInput(t *testing.T) {
	setupEnv(t)
	t.Setenv("KREA_API_TOKEN", "env-token")
	api := &stubAPI{}

	_, _, err := runCLI(t, api, "image", "--prompt", "a cat", "--num-images", "11")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(api.tokens) != 0 {
		t.Fatal("invalid input must not reach the API")
	}
}

func TestCountAndModels(t *testing.T) {
	setupEnv(t)
	out, _, err := runCLI(t, &stubAPI{}, "count", "a; b;; c", "--delimiter", ";")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if strings.TrimSpace(out) != "3" {
		t.Fatalf("expected 3 prompts, got %q", out)
	}

	out, _, err = runCLI(t, &stubAPI{}, "models")
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	for _, want := range []string{"nano-banana-pro", "kling-2.5", "Widescreen"} {
		if !strings.Contains(out, want) {
			t.Fatalf("models output missing %q:\n%s", want, out)
		}
	}
}

func TestNormalizePOSIXLocale(t *testing.T) {
	tests := map[string]string{
		"id_ID.UTF-8": "id-ID",
		"en_US":       "en-US",
		"de_DE@euro":  "de-DE",
		"C":           "C",
	}
	for in, want := range tests {
		if got := normalizePOSIXLocale(in); got != want {
			t.Fatalf("normalizePOSIXLocale(%q) = %q, want %q", in, got, want)
		}
	}
}
