package hipcall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the production Hipcall host
	DefaultBaseURL = "https://use.hipcall.com.tr"
	// DefaultUserAgent is sent unless overridden with WithUserAgent
	DefaultUserAgent = "hipcall-go"
	// DefaultLimit is the page size used when no limit is given
	DefaultLimit = 10
	// DefaultCallSort is the call list order used by both client variants
	DefaultCallSort = "started_at.desc"
	// DefaultTaskSort is the task list order
	DefaultTaskSort = "id.asc"
	// DefaultConcurrency bounds AsyncClient fan-out helpers
	DefaultConcurrency = 5

	apiPrefix = "/api/v3"
)

// doer is the transport a core sends requests through
type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// core holds the configuration and request logic shared by Client and AsyncClient.
// It never mutates after construction.
type core struct {
	apiKey  string
	baseURL string
	opts    *clientOptions
	logger  zerolog.Logger
}

func newCore(apiKey string, opts []Option) (*core, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key must be provided", ErrInvalidConfig)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &core{
		apiKey:  apiKey,
		baseURL: o.baseURL,
		opts:    o,
		logger:  o.logger,
	}, nil
}

// BaseURL returns the API host the client talks to
func (c *core) BaseURL() string {
	return c.baseURL
}

// DefaultHeaders returns the headers every request carries
func (c *core) DefaultHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"Content-Type":  "application/json",
	}
}

// CallDetailURL returns the URL of a single call
func (c *core) CallDetailURL(callID string) string {
	return c.baseURL + apiPrefix + "/calls/" + url.PathEscape(callID)
}

// CallListURL returns the URL of the call list
func (c *core) CallListURL() string {
	return c.baseURL + apiPrefix + "/calls"
}

// CallAndBridgeURL returns the call-and-bridge URL for a user
func (c *core) CallAndBridgeURL(userID int) string {
	return c.baseURL + apiPrefix + "/users/" + strconv.Itoa(userID) + "/call"
}

// TaskListURL returns the URL of the task list, also used to create tasks
func (c *core) TaskListURL() string {
	return c.baseURL + apiPrefix + "/tasks"
}

// TaskDetailURL returns the URL of a single task
func (c *core) TaskDetailURL(taskID int) string {
	return c.baseURL + apiPrefix + "/tasks/" + strconv.Itoa(taskID)
}

// listParams converts list options into query values. q is only sent when set.
func (c *core) listParams(defaultSort string, opts []ListOption) url.Values {
	o := defaultListOptions(defaultSort)
	for _, opt := range opts {
		opt(o)
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(o.limit))
	params.Set("offset", strconv.Itoa(o.offset))
	params.Set("sort", o.sort)
	if o.query != "" {
		params.Set("q", o.query)
	}
	return params
}

// newRequest creates a request carrying the default headers
func (c *core) newRequest(ctx context.Context, method, endpoint string, params url.Values, body any) (*http.Request, error) {
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range c.DefaultHeaders() {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.userAgent)

	return req, nil
}

// do performs one exchange and decodes the result into out. The body must be
// JSON before the status is classified; a non-JSON body is a DecodeError even
// for error statuses.
func (c *core) do(ctx context.Context, h doer, op, method, endpoint string, params url.Values, body any, out shaper) (err error) {
	req, err := c.newRequest(ctx, method, endpoint, params, body)
	if err != nil {
		return err
	}

	metrics := c.opts.metrics
	metrics.RecordRequestStart(op)
	defer metrics.RecordRequestEnd(op)
	defer func() { metrics.RecordError(op, err) }()

	start := time.Now()
	resp, err := h.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response body: %w", op, err)
	}
	metrics.RecordRequest(op, resp.StatusCode, time.Since(start))

	c.logger.Debug().
		Str("op", op).
		Str("method", method).
		Str("url", req.URL.Redacted()).
		Int("status", resp.StatusCode).
		Int("bytes", len(raw)).
		Dur("elapsed", time.Since(start)).
		Msg("Hipcall API request")

	var content json.RawMessage
	if err := json.Unmarshal(raw, &content); err != nil {
		return &DecodeError{Op: op, StatusCode: resp.StatusCode, Body: raw, Err: err}
	}

	data, err := HandleResponse(resp.StatusCode, content)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{Op: op, StatusCode: resp.StatusCode, Body: raw, Err: err}
	}
	if err := out.shape().check(data); err != nil {
		return &DecodeError{Op: op, StatusCode: resp.StatusCode, Body: raw, Err: err}
	}
	return nil
}

// Client is the blocking Hipcall API client. Every method waits for the HTTP
// exchange to finish. It is safe for concurrent use.
type Client struct {
	*core
	httpClient *http.Client
}

// NewClient creates a new Hipcall client. No request is made.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	c, err := newCore(apiKey, opts)
	if err != nil {
		return nil, err
	}

	httpClient := c.opts.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{core: c, httpClient: httpClient}, nil
}

// GetCall retrieves a call record. date is the day the call took place (YYYY-MM-DD).
func (c *Client) GetCall(ctx context.Context, callID, date string) (*CallDetailResponse, error) {
	return c.getCall(ctx, c.httpClient, callID, date)
}

// GetCalls lists call records.
func (c *Client) GetCalls(ctx context.Context, opts ...ListOption) (*CallListResponse, error) {
	return c.getCalls(ctx, c.httpClient, opts)
}

// CallAndBridge rings userID and bridges them with calleeNumber.
func (c *Client) CallAndBridge(ctx context.Context, userID int, calleeNumber string, opts ...BridgeOption) (*CallAndBridgeResponse, error) {
	return c.callAndBridge(ctx, c.httpClient, userID, calleeNumber, opts)
}

// GetTasks lists tasks.
func (c *Client) GetTasks(ctx context.Context, opts ...ListOption) (*TaskListResponse, error) {
	return c.getTasks(ctx, c.httpClient, opts)
}

// CreateTask creates a task. Unset optional fields are not sent.
func (c *Client) CreateTask(ctx context.Context, task TaskCreate) (*TaskResponse, error) {
	return c.createTask(ctx, c.httpClient, task)
}

// GetTask retrieves a task by ID.
func (c *Client) GetTask(ctx context.Context, taskID int) (*TaskDetailResponse, error) {
	return c.getTask(ctx, c.httpClient, taskID)
}
