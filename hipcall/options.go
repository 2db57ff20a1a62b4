package hipcall

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Option configures a Client or AsyncClient.
type Option func(*clientOptions)

// clientOptions holds configuration options shared by both client variants.
type clientOptions struct {
	baseURL     string
	httpClient  *http.Client
	logger      zerolog.Logger
	userAgent   string
	callSort    string
	taskSort    string
	concurrency int
	metrics     *MetricsCollector
}

func defaultOptions() *clientOptions {
	return &clientOptions{
		baseURL:     DefaultBaseURL,
		logger:      zerolog.Nop(),
		userAgent:   DefaultUserAgent,
		callSort:    DefaultCallSort,
		taskSort:    DefaultTaskSort,
		concurrency: DefaultConcurrency,
	}
}

// WithBaseURL overrides the API host. An empty value keeps the default.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		if baseURL = strings.TrimRight(baseURL, "/"); baseURL != "" {
			o.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets the http.Client used by Client. AsyncClient uses it as a
// template for the session it opens.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		if userAgent != "" {
			o.userAgent = userAgent
		}
	}
}

// WithCallSort sets the sort key GetCalls sends when none is given per call.
func WithCallSort(sort string) Option {
	return func(o *clientOptions) {
		if sort != "" {
			o.callSort = sort
		}
	}
}

// WithTaskSort sets the sort key GetTasks sends when none is given per call.
func WithTaskSort(sort string) Option {
	return func(o *clientOptions) {
		if sort != "" {
			o.taskSort = sort
		}
	}
}

// WithConcurrency bounds the fan-out of AsyncClient batch helpers.
func WithConcurrency(n int) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithMetrics records request metrics on collector.
func WithMetrics(collector *MetricsCollector) Option {
	return func(o *clientOptions) {
		o.metrics = collector
	}
}

// ListOption configures a GetCalls or GetTasks call.
type ListOption func(*listOptions)

// listOptions holds the query of a list call.
type listOptions struct {
	limit  int
	offset int
	query  string
	sort   string
}

func defaultListOptions(sort string) *listOptions {
	return &listOptions{
		limit:  DefaultLimit,
		offset: 0,
		sort:   sort,
	}
}

// WithLimit sets the page size. The server accepts 1 to 100.
func WithLimit(limit int) ListOption {
	return func(o *listOptions) {
		o.limit = limit
	}
}

// WithOffset sets the page offset.
func WithOffset(offset int) ListOption {
	return func(o *listOptions) {
		o.offset = offset
	}
}

// WithQuery sets the search filter. For calls it matches caller and callee
// numbers (country code without + or 00); for tasks it matches the name.
func WithQuery(q string) ListOption {
	return func(o *listOptions) {
		o.query = q
	}
}

// WithSort sets the sort key, e.g. "started_at.desc" or "name.asc_nulls_last".
func WithSort(sort string) ListOption {
	return func(o *listOptions) {
		if sort != "" {
			o.sort = sort
		}
	}
}

// BridgeOption configures a CallAndBridge call.
type BridgeOption func(*callAndBridgeRequest)

// WithRingUserFirst controls whether the user's device rings before the callee is dialed.
func WithRingUserFirst(ring bool) BridgeOption {
	return func(r *callAndBridgeRequest) {
		r.RingUserFirst = ring
	}
}
