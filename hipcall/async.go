package hipcall

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Future is the pending result of an AsyncClient operation
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// resolvedFuture returns a future that has already failed with err
func resolvedFuture[T any](err error) *Future[T] {
	f := newFuture[T]()
	f.err = err
	close(f.done)
	return f
}

// Done is closed once the operation has finished
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the operation finishes or ctx is done
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result blocks until the operation finishes
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.val, f.err
}

type sessionState int

const (
	sessionIdle sessionState = iota
	sessionOpen
	sessionClosed
)

// AsyncClient runs each operation on its own goroutine and hands back a
// Future. It owns one HTTP session that must be acquired with Open before the
// first operation and released with Close after the last one.
type AsyncClient struct {
	*core

	mu        sync.Mutex
	state     sessionState
	session   *http.Client
	transport *http.Transport
	inflight  sync.WaitGroup
}

// NewAsyncClient creates a new asynchronous Hipcall client. The session is not
// opened until Open is called.
func NewAsyncClient(apiKey string, opts ...Option) (*AsyncClient, error) {
	c, err := newCore(apiKey, opts)
	if err != nil {
		return nil, err
	}
	return &AsyncClient{core: c}, nil
}

// Open acquires the client's HTTP session. A client can be opened once.
func (c *AsyncClient) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case sessionOpen:
		return fmt.Errorf("hipcall: async session already open")
	case sessionClosed:
		return ErrSessionClosed
	}

	c.session, c.transport = c.newSession()
	c.state = sessionOpen
	c.logger.Debug().Str("base_url", c.baseURL).Msg("Opened Hipcall async session")
	return nil
}

// newSession builds a private http.Client, cloning the configured template if any
func (c *AsyncClient) newSession() (*http.Client, *http.Transport) {
	var session http.Client
	if tmpl := c.opts.httpClient; tmpl != nil {
		session = *tmpl
	}

	var transport *http.Transport
	switch t := session.Transport.(type) {
	case nil:
		transport = http.DefaultTransport.(*http.Transport).Clone()
		session.Transport = transport
	case *http.Transport:
		transport = t.Clone()
		session.Transport = transport
	}

	return &session, transport
}

// Close waits for in-flight operations and releases the session. Closing more
// than once is a no-op.
func (c *AsyncClient) Close() error {
	c.mu.Lock()
	if c.state != sessionOpen {
		c.state = sessionClosed
		c.mu.Unlock()
		return nil
	}
	c.state = sessionClosed
	transport := c.transport
	c.session, c.transport = nil, nil
	c.mu.Unlock()

	c.inflight.Wait()
	if transport != nil {
		transport.CloseIdleConnections()
	}

	c.logger.Debug().Msg("Closed Hipcall async session")
	return nil
}

// acquire returns the open session and registers an in-flight operation
func (c *AsyncClient) acquire() (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != sessionOpen {
		return nil, ErrSessionClosed
	}
	c.inflight.Add(1)
	return c.session, nil
}

// start runs fn on a new goroutine using the open session
func start[T any](c *AsyncClient, fn func(h doer) (T, error)) *Future[T] {
	session, err := c.acquire()
	if err != nil {
		return resolvedFuture[T](err)
	}

	f := newFuture[T]()
	go func() {
		defer c.inflight.Done()
		defer close(f.done)
		f.val, f.err = fn(session)
	}()
	return f
}

// WithSession opens an AsyncClient, runs fn and closes the client on every
// exit path, including when fn fails or panics.
func WithSession(ctx context.Context, apiKey string, fn func(ctx context.Context, c *AsyncClient) error, opts ...Option) (err error) {
	c, err := NewAsyncClient(apiKey, opts...)
	if err != nil {
		return err
	}
	if err := c.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	return fn(ctx, c)
}

// GetCall retrieves a call record.
func (c *AsyncClient) GetCall(ctx context.Context, callID, date string) *Future[*CallDetailResponse] {
	return start(c, func(h doer) (*CallDetailResponse, error) {
		return c.getCall(ctx, h, callID, date)
	})
}

// GetCalls lists call records.
func (c *AsyncClient) GetCalls(ctx context.Context, opts ...ListOption) *Future[*CallListResponse] {
	return start(c, func(h doer) (*CallListResponse, error) {
		return c.getCalls(ctx, h, opts)
	})
}

// CallAndBridge rings userID and bridges them with calleeNumber.
func (c *AsyncClient) CallAndBridge(ctx context.Context, userID int, calleeNumber string, opts ...BridgeOption) *Future[*CallAndBridgeResponse] {
	return start(c, func(h doer) (*CallAndBridgeResponse, error) {
		return c.callAndBridge(ctx, h, userID, calleeNumber, opts)
	})
}

// GetTasks lists tasks.
func (c *AsyncClient) GetTasks(ctx context.Context, opts ...ListOption) *Future[*TaskListResponse] {
	return start(c, func(h doer) (*TaskListResponse, error) {
		return c.getTasks(ctx, h, opts)
	})
}

// CreateTask creates a task.
func (c *AsyncClient) CreateTask(ctx context.Context, task TaskCreate) *Future[*TaskResponse] {
	return start(c, func(h doer) (*TaskResponse, error) {
		return c.createTask(ctx, h, task)
	})
}

// GetTask retrieves a task by ID.
func (c *AsyncClient) GetTask(ctx context.Context, taskID int) *Future[*TaskDetailResponse] {
	return start(c, func(h doer) (*TaskDetailResponse, error) {
		return c.getTask(ctx, h, taskID)
	})
}

// FetchTasks retrieves several tasks concurrently, at most WithConcurrency at
// a time. Results keep the order of ids; the first failure cancels the rest.
func (c *AsyncClient) FetchTasks(ctx context.Context, ids ...int) *Future[[]*TaskDetail] {
	return start(c, func(h doer) ([]*TaskDetail, error) {
		results := make([]*TaskDetail, len(ids))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.opts.concurrency)

		for i, id := range ids {
			g.Go(func() error {
				resp, err := c.getTask(gctx, h, id)
				if err != nil {
					return fmt.Errorf("task %d: %w", id, err)
				}
				results[i] = resp.Data
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
		return results, nil
	})
}
