package compute

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/specialistvlad/layergen/internal/args"
	"github.com/specialistvlad/layergen/internal/ctxlog"
	"github.com/specialistvlad/layergen/internal/model"
	"github.com/specialistvlad/layergen/internal/registry"
)

// Task states reported by the compute service.
const (
	TaskPending   = "pending"
	TaskRunning   = "running"
	TaskSucceeded = "succeeded"
	TaskFailed    = "failed"
)

var errTaskRunning = errors.New("task still running")

// Task is the compute service's view of a submitted pipeline.
type Task struct {
	ID     string `json:"task_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Client talks to the compute service.
type Client struct {
	base         *url.URL
	http         *http.Client
	pollInterval time.Duration
	maxPoll      time.Duration
	maxWait      time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithPollInterval sets the first delay between task polls. Later polls back
// off up to max.
func WithPollInterval(initial, max time.Duration) Option {
	return func(cl *Client) {
		cl.pollInterval = initial
		cl.maxPoll = max
	}
}

// WithMaxWait gives up on a task after d. Zero waits until the context ends.
func WithMaxWait(d time.Duration) Option {
	return func(cl *Client) { cl.maxWait = d }
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid compute url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid compute url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		pollInterval: 5 * time.Second,
		maxPoll:      time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Job returns a JobFunc that runs pipeline and waits for it.
func (c *Client) Job(pipeline string) registry.JobFunc {
	return func(ctx context.Context, region model.Region, params args.Params) (bool, error) {
		logger := ctxlog.FromContext(ctx).With("pipeline", pipeline)

		id, err := c.Submit(ctx, pipeline, params)
		if err != nil {
			return false, err
		}
		logger.Debug("Pipeline submitted.", "task_id", id)

		task, err := c.Wait(ctx, id)
		if err != nil {
			return false, err
		}
		if task.Status == TaskFailed {
			if task.Error != "" {
				return false, fmt.Errorf("pipeline %s failed: %s", pipeline, task.Error)
			}
			return false, nil
		}
		return true, nil
	}
}

// Submit starts pipeline with params and returns the task id.
func (c *Client) Submit(ctx context.Context, pipeline string, params args.Params) (string, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode params for %s: %w", pipeline, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("api", "v1", "pipelines", pipeline), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var task Task
	if err := c.do(req, &task); err != nil {
		return "", fmt.Errorf("failed to submit pipeline %s: %w", pipeline, err)
	}
	if task.ID == "" {
		return "", fmt.Errorf("failed to submit pipeline %s: response carries no task_id", pipeline)
	}
	return task.ID, nil
}

// Wait polls task id until it succeeds or fails. Server errors and network
// errors are retried; client errors are not.
func (c *Client) Wait(ctx context.Context, id string) (*Task, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.pollInterval
	b.MaxInterval = c.maxPoll
	b.MaxElapsedTime = c.maxWait

	task, err := backoff.RetryWithData(func() (*Task, error) {
		t, err := c.Task(ctx, id)
		if err != nil {
			return nil, err
		}
		switch t.Status {
		case TaskSucceeded, TaskFailed:
			return t, nil
		case TaskPending, TaskRunning:
			return nil, errTaskRunning
		default:
			return nil, backoff.Permanent(fmt.Errorf("task %s has unknown status %q", id, t.Status))
		}
	}, backoff.WithContext(b, ctx))
	if err != nil {
		if errors.Is(err, errTaskRunning) {
			return nil, fmt.Errorf("gave up waiting for task %s: %w", id, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return task, nil
}

// Task fetches the current state of task id.
func (c *Client) Task(ctx context.Context, id string) (*Task, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("api", "v1", "tasks", id), nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	var t Task
	if err := c.do(req, &t); err != nil {
		return nil, fmt.Errorf("failed to fetch task %s: %w", id, err)
	}
	if t.ID == "" {
		t.ID = id
	}
	return &t, nil
}

// do sends req and decodes a JSON response into out. 4xx responses are
// returned as permanent errors.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		err := fmt.Errorf("unexpected status %s: %s", resp.Status, bytes.TrimSpace(b))
		if resp.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (c *Client) endpoint(parts ...string) string {
	return c.base.JoinPath(parts...).String()
}
