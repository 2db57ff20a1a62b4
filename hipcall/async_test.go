package hipcall

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAsyncTestServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server.URL
}

func TestAsyncClientFailsFastOutsideSession(t *testing.T) {
	var hits atomic.Int32
	baseURL := newAsyncTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	client, err := NewAsyncClient("test-key", WithBaseURL(baseURL))
	require.NoError(t, err)

	ctx := context.Background()

	// before Open
	f := client.GetTask(ctx, 1)
	select {
	case <-f.Done():
	default:
		t.Fatal("future should already be resolved")
	}
	_, err = f.Result()
	assert.ErrorIs(t, err, ErrSessionClosed)

	require.NoError(t, client.Open(ctx))
	require.NoError(t, client.Close())

	// after Close
	_, err = client.GetCalls(ctx).Wait(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)

	// a closed client cannot be reopened
	assert.ErrorIs(t, client.Open(ctx), ErrSessionClosed)
	assert.NoError(t, client.Close())

	assert.Equal(t, int32(0), hits.Load())
}

func TestAsyncClientOpenTwice(t *testing.T) {
	client, err := NewAsyncClient("test-key")
	require.NoError(t, err)

	require.NoError(t, client.Open(context.Background()))
	defer client.Close()

	assert.Error(t, client.Open(context.Background()))
}

func TestAsyncClientOperations(t *testing.T) {
	baseURL := newAsyncTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		switch {
		case r.URL.Path == "/api/v3/calls":
			writeJSON(t, w, http.StatusOK, `{"data":[`+callJSON(1)+`],"meta":{"count":1,"limit":10,"offset":0}}`)
		case r.URL.Path == "/api/v3/tasks" && r.Method == http.MethodPost:
			writeJSON(t, w, http.StatusCreated, `{"data":{"id":3,"name":"Follow up","done":false}}`)
		case r.URL.Path == "/api/v3/tasks":
			writeJSON(t, w, http.StatusOK, `{"data":[],"meta":{"count":0,"limit":10,"offset":0}}`)
		case r.URL.Path == "/api/v3/users/5/call":
			writeJSON(t, w, http.StatusOK, `{"data":{"id":"b-1"}}`)
		case strings.HasPrefix(r.URL.Path, "/api/v3/calls/"):
			writeJSON(t, w, http.StatusOK, `{"data":{"uuid":"u","started_at":"2024-05-01T10:00:00Z","ended_at":"2024-05-01T10:01:00Z","direction":"inbound"}}`)
		case r.URL.Path == "/api/v3/tasks/404":
			writeJSON(t, w, http.StatusNotFound, `{}`)
		default:
			writeJSON(t, w, http.StatusOK, `{"data":{"id":1,"name":"t","done":true}}`)
		}
	})

	err := WithSession(context.Background(), "test-key", func(ctx context.Context, c *AsyncClient) error {
		calls := c.GetCalls(ctx, WithLimit(10))
		tasks := c.GetTasks(ctx)
		call := c.GetCall(ctx, "u", "2024-05-01")
		bridge := c.CallAndBridge(ctx, 5, "905551234567")
		created := c.CreateTask(ctx, TaskCreate{Name: "Follow up"})
		task := c.GetTask(ctx, 1)
		missing := c.GetTask(ctx, 404)

		callList, err := calls.Wait(ctx)
		require.NoError(t, err)
		assert.Len(t, callList.Data, 1)

		taskList, err := tasks.Wait(ctx)
		require.NoError(t, err)
		assert.Empty(t, taskList.Data)

		callDetail, err := call.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, "inbound", callDetail.Data.Direction)

		bridged, err := bridge.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, "b-1", bridged.Data.ID)

		createdTask, err := created.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, createdTask.Data.ID)

		detail, err := task.Wait(ctx)
		require.NoError(t, err)
		assert.True(t, detail.Data.IsDone())

		_, err = missing.Wait(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	}, WithBaseURL(baseURL))
	require.NoError(t, err)
}

func TestWithSessionClosesOnError(t *testing.T) {
	var captured *AsyncClient
	boom := errors.New("boom")

	err := WithSession(context.Background(), "test-key", func(ctx context.Context, c *AsyncClient) error {
		captured = c
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = captured.GetTask(context.Background(), 1).Result()
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestWithSessionClosesOnPanic(t *testing.T) {
	var captured *AsyncClient

	assert.Panics(t, func() {
		_ = WithSession(context.Background(), "test-key", func(ctx context.Context, c *AsyncClient) error {
			captured = c
			panic("boom")
		})
	})

	require.NotNil(t, captured)
	_, err := captured.GetTask(context.Background(), 1).Result()
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestWithSessionRequiresAPIKey(t *testing.T) {
	called := false
	err := WithSession(context.Background(), "", func(ctx context.Context, c *AsyncClient) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.False(t, called)
}

func TestAsyncCloseWaitsForInflight(t *testing.T) {
	release := make(chan struct{})
	baseURL := newAsyncTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(t, w, http.StatusOK, `{"data":{"id":1,"name":"t","done":false}}`)
	})

	client, err := NewAsyncClient("test-key", WithBaseURL(baseURL))
	require.NoError(t, err)
	require.NoError(t, client.Open(context.Background()))

	f := client.GetTask(context.Background(), 1)

	closed := make(chan struct{})
	go func() {
		_ = client.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned before the in-flight request finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-closed

	resp, err := f.Result()
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Data.ID)
}

func TestFutureWaitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	baseURL := newAsyncTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(t, w, http.StatusOK, `{"data":{"id":1,"name":"t","done":false}}`)
	})

	client, err := NewAsyncClient("test-key", WithBaseURL(baseURL))
	require.NoError(t, err)
	require.NoError(t, client.Open(context.Background()))

	f := client.GetTask(context.Background(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, client.Close())
}

func TestFetchTasks(t *testing.T) {
	var inflight, peak atomic.Int32
	baseURL := newAsyncTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)

		id := strings.TrimPrefix(r.URL.Path, "/api/v3/tasks/")
		if id == "13" {
			writeJSON(t, w, http.StatusNotFound, `{}`)
			return
		}
		writeJSON(t, w, http.StatusOK, fmt.Sprintf(`{"data":{"id":%s,"name":"task %s","done":false}}`, id, id))
	})

	client, err := NewAsyncClient("test-key", WithBaseURL(baseURL), WithConcurrency(2))
	require.NoError(t, err)
	require.NoError(t, client.Open(context.Background()))
	defer client.Close()

	ctx := context.Background()

	tasks, err := client.FetchTasks(ctx, 5, 3, 8, 1).Wait(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	for i, id := range []int{5, 3, 8, 1} {
		assert.Equal(t, id, tasks[i].ID)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))

	_, err = client.FetchTasks(ctx, 1, 13).Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "task 13")
}
