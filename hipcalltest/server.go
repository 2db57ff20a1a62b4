// Package hipcalltest provides an in-memory Hipcall API for tests.
//
// The server speaks the same /api/v3 routes as the real service, checks the
// bearer token, and answers with the status codes and error bodies the
// client maps to typed errors:
//
//	srv := hipcalltest.NewServer("test-key")
//	defer srv.Close()
//
//	srv.AddTask(hipcall.TaskDetail{Task: hipcall.Task{ID: 1, Name: "Call back"}})
//	client, _ := hipcall.NewClient("test-key", hipcall.WithBaseURL(srv.URL))
package hipcalltest

import (
	"net/http/httptest"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hipcall/hipcall-go/hipcall"
)

// MaxLimit is the largest page size the server accepts
const MaxLimit = 100

// Bridge records a call-and-bridge request received by the server
type Bridge struct {
	ID            string
	UserID        int
	CalleeNumber  string
	RingUserFirst bool
}

// Server is a fake Hipcall API backed by memory
type Server struct {
	*httptest.Server

	apiKey string

	mu         sync.Mutex
	calls      []hipcall.CallDetail
	tasks      map[int]*hipcall.TaskDetail
	nextTaskID int
	bridges    []Bridge
	taskBodies []map[string]any
	requests   int
}

// NewServer starts a server that accepts apiKey as its bearer token
func NewServer(apiKey string) *Server {
	s := &Server{
		apiKey:     apiKey,
		tasks:      make(map[int]*hipcall.TaskDetail),
		nextTaskID: 1,
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(s.count)

	r.Route("/api/v3", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/calls", s.listCalls)
		r.Get("/calls/{uuid}", s.getCall)
		r.Post("/users/{userID}/call", s.callAndBridge)

		r.Get("/tasks", s.listTasks)
		r.Post("/tasks", s.createTask)
		r.Get("/tasks/{id}", s.getTask)
	})

	return r
}

// AddCall stores a call record
func (s *Server) AddCall(call hipcall.CallDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

// AddTask stores a task. A zero ID is replaced with the next free one.
func (s *Server) AddTask(task hipcall.TaskDetail) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == 0 {
		task.ID = s.nextTaskID
	}
	if task.Done == nil {
		task.Done = hipcall.Ptr(false)
	}
	s.nextTaskID = max(s.nextTaskID, task.ID+1)
	s.tasks[task.ID] = &task
	return task.ID
}

// Bridges returns the call-and-bridge requests received so far
func (s *Server) Bridges() []Bridge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.bridges)
}

// TaskBodies returns the raw JSON bodies of task creation requests
func (s *Server) TaskBodies() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.taskBodies)
}

// Requests returns the number of requests served, including rejected ones
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// summary converts a stored call into its list representation
func summary(c hipcall.CallDetail) hipcall.Call {
	call := hipcall.Call{
		UUID:               c.UUID,
		StartedAt:          c.StartedAt.UTC().Format(time.RFC3339),
		EndedAt:            c.EndedAt.UTC().Format(time.RFC3339),
		Direction:          c.Direction,
		CallDuration:       c.CallDuration,
		FirstTouchDuration: c.FirstTouchDuration,
		MissingCall:        c.MissingCall,
	}
	if c.AnsweredAt != nil {
		call.AnsweredAt = hipcall.Ptr(c.AnsweredAt.UTC().Format(time.RFC3339))
	}
	if c.BridgedAt != nil {
		call.BridgedAt = hipcall.Ptr(c.BridgedAt.UTC().Format(time.RFC3339))
	}
	return call
}
