package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

// ErrNoJobID signals that the capture endpoint acknowledged the request but
// returned no job identifier.
var ErrNoJobID = errors.New("capture response missing job_id")

// WaybackConfig captures the parameters for the wayback API client.
type WaybackConfig struct {
	// BaseURL is the service root, e.g. https://web.archive.org.
	BaseURL string
	// AccessKey and SecretKey form the "LOW {access}:{secret}" credential.
	AccessKey string
	SecretKey string
	// Timeout bounds each individual HTTP request.
	Timeout time.Duration
}

// WaybackClient talks to the archiving service's capture and status
// endpoints. It implements Submitter and StatusChecker.
type WaybackClient struct {
	baseURL string
	auth    string
	client  *http.Client
}

// NewWaybackClient builds a client for the configured service.
func NewWaybackClient(cfg WaybackConfig) *WaybackClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WaybackClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		auth:    fmt.Sprintf("LOW %s:%s", cfg.AccessKey, cfg.SecretKey),
		client:  &http.Client{Timeout: timeout},
	}
}

// Submit requests a capture of url and returns the job handle. The request
// asks the service to skip creating a duplicate first-visit snapshot.
func (c *WaybackClient) Submit(ctx context.Context, url string) (CaptureJob, error) {
	parsed, err := neturl.Parse(url)
	if err != nil || !parsed.IsAbs() {
		return CaptureJob{}, fmt.Errorf("capture url must be absolute: %q", url)
	}

	form := neturl.Values{}
	form.Set("url", url)
	form.Set("skip_first_archive", "1")

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/save",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return CaptureJob{}, fmt.Errorf("build capture request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return CaptureJob{}, fmt.Errorf("capture request: %w", err)
	}
	defer resp.Body.Close()

	var job CaptureJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return CaptureJob{}, fmt.Errorf("parse capture response: %w", err)
	}
	if job.JobID == "" {
		return CaptureJob{}, ErrNoJobID
	}
	return job, nil
}

// CheckStatus fetches the status payload for jobID.
func (c *WaybackClient) CheckStatus(ctx context.Context, jobID string) (RawStatus, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/save/status/"+neturl.PathEscape(jobID),
		nil,
	)
	if err != nil {
		return RawStatus{}, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return RawStatus{}, fmt.Errorf("status request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RawStatus{}, fmt.Errorf("read status response: %w", err)
	}

	var raw RawStatus
	if err := json.Unmarshal(body, &raw); err != nil {
		return RawStatus{}, fmt.Errorf("parse status response: %w", err)
	}
	raw.Payload = body
	return raw, nil
}
