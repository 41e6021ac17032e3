package krea

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
)

// DefaultBaseURL is the public generation API root.
const DefaultBaseURL = "https://api.krea.ai"

// Options configures the generation API client.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs the two HTTP calls of the job protocol: creation and
// status lookup.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// CreateResponse is the decoded creation reply. JobID is empty when the API
// did not accept the job.
type CreateResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// StatusResponse is the decoded status reply.
type StatusResponse struct {
	Status string        `json:"status"`
	Result *StatusResult `json:"result,omitempty"`
}

// StatusResult holds the media produced by a completed job.
type StatusResult struct {
	URLs []string `json:"urls"`
}

// URLs returns the result URLs, or nil when the reply carried none.
func (r StatusResponse) URLs() []string {
	if r.Result == nil {
		return nil
	}
	return r.Result.URLs
}

// Report converts the reply into the domain status report.
func (r StatusResponse) Report() domain.StatusReport {
	return domain.StatusReport{Status: r.Status, ResultURLs: r.URLs()}
}

// NewClient constructs a client with defaults for unset options.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateJob posts a generation request to endpoint. A reply without job_id
// is returned as-is; callers decide how to treat it.
func (c *Client) CreateJob(ctx context.Context, endpoint Endpoint, token string, req domain.GenerationRequest) (*CreateResponse, error) {
	body, err := json.Marshal(req.Body())
	if err != nil {
		return nil, fmt.Errorf("krea: encode request: %w", err)
	}
	target := c.baseURL + "/" + strings.TrimLeft(endpoint.Path, "/")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("krea: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	raw, status, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	var decoded CreateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if status >= 300 {
			return nil, fmt.Errorf("krea: status %d: %s", status, snippet(raw))
		}
		return nil, fmt.Errorf("krea: decode create response: %w", err)
	}
	c.logger.Debug().
		Str("endpoint", endpoint.Path).
		Int("http_status", status).
		Str("job_id", decoded.JobID).
		Str("status", decoded.Status).
		Msg("krea: create job")
	return &decoded, nil
}

// JobStatus fetches the current status of a job.
func (c *Client) JobStatus(ctx context.Context, token, jobID string) (*StatusResponse, error) {
	target := c.baseURL + "/jobs/" + url.PathEscape(jobID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("krea: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	raw, status, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	// A non-2xx reply still counts when its body reports a status.
	var decoded StatusResponse
	decodeErr := json.Unmarshal(raw, &decoded)
	if status >= 300 && (decodeErr != nil || decoded.Status == "") {
		return nil, fmt.Errorf("krea: status %d: %s", status, snippet(raw))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("krea: decode status response: %w", decodeErr)
	}
	return &decoded, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("krea: http request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("krea: read response: %w", err)
	}
	return raw, resp.StatusCode, nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
