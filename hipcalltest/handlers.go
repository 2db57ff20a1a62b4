package hipcalltest

import (
	"cmp"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hipcall/hipcall-go/hipcall"
)

type envelope struct {
	Data any           `json:"data"`
	Meta *hipcall.Meta `json:"meta,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"errors": map[string]string{"detail": detail}})
}

func unprocessable(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": map[string][]string{field: {message}}})
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{"errors": map[string]string{"detail": "Not Found"}})
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.apiKey {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"errors": map[string]string{"detail": "Unauthorized"}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// page reads limit and offset, writing a 422 when they are out of range
func page(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	limit, offset = hipcall.DefaultLimit, 0

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxLimit {
			unprocessable(w, "limit", fmt.Sprintf("must be between 1 and %d", MaxLimit))
			return 0, 0, false
		}
		limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			unprocessable(w, "offset", "must be greater than or equal to 0")
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	return items[offset:min(offset+limit, len(items))]
}

// parseSort splits "field.direction" and reports whether the order is descending
func parseSort(sort string) (field string, desc bool) {
	field, dir, _ := strings.Cut(sort, ".")
	return field, strings.HasPrefix(dir, "desc")
}

func (s *Server) listCalls(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := page(w, r)
	if !ok {
		return
	}
	q := r.URL.Query().Get("q")

	s.mu.Lock()
	matched := make([]hipcall.CallDetail, 0, len(s.calls))
	for _, c := range s.calls {
		if q == "" || strings.Contains(deref(c.CallerNumber), q) || strings.Contains(deref(c.CalleeNumber), q) {
			matched = append(matched, c)
		}
	}
	s.mu.Unlock()

	_, desc := parseSort(r.URL.Query().Get("sort"))
	slices.SortStableFunc(matched, func(a, b hipcall.CallDetail) int {
		if desc {
			return b.StartedAt.Compare(a.StartedAt.Time)
		}
		return a.StartedAt.Compare(b.StartedAt.Time)
	})

	data := make([]hipcall.Call, 0, limit)
	for _, c := range window(matched, limit, offset) {
		data = append(data, summary(c))
	}

	writeJSON(w, http.StatusOK, envelope{
		Data: data,
		Meta: &hipcall.Meta{Count: len(matched), Limit: limit, Offset: offset},
	})
}

func (s *Server) getCall(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uuid")
	date := r.URL.Query().Get("date")

	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		badRequest(w, "Invalid date format")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.calls {
		y1, m1, d1 := c.StartedAt.UTC().Date()
		y2, m2, d2 := day.Date()
		if c.UUID == id && y1 == y2 && m1 == m2 && d1 == d2 {
			writeJSON(w, http.StatusOK, envelope{Data: c})
			return
		}
	}
	notFound(w)
}

func (s *Server) callAndBridge(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		notFound(w)
		return
	}

	var req struct {
		CalleeNumber  string `json:"callee_number"`
		RingUserFirst *bool  `json:"ring_user_first"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON body")
		return
	}
	if req.CalleeNumber == "" {
		unprocessable(w, "callee_number", "can't be blank")
		return
	}

	bridge := Bridge{
		ID:            uuid.NewString(),
		UserID:        userID,
		CalleeNumber:  req.CalleeNumber,
		RingUserFirst: req.RingUserFirst == nil || *req.RingUserFirst,
	}

	s.mu.Lock()
	s.bridges = append(s.bridges, bridge)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, envelope{Data: map[string]string{"id": bridge.ID}})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := page(w, r)
	if !ok {
		return
	}
	q := strings.ToLower(r.URL.Query().Get("q"))

	s.mu.Lock()
	matched := make([]hipcall.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if q == "" || strings.Contains(strings.ToLower(t.Name), q) {
			matched = append(matched, t.Task)
		}
	}
	s.mu.Unlock()

	field, desc := parseSort(r.URL.Query().Get("sort"))
	slices.SortFunc(matched, func(a, b hipcall.Task) int {
		c := cmp.Compare(a.ID, b.ID)
		if field == "name" {
			c = cmp.Or(cmp.Compare(a.Name, b.Name), c)
		}
		if desc {
			return -c
		}
		return c
	})

	writeJSON(w, http.StatusOK, envelope{
		Data: window(matched, limit, offset),
		Meta: &hipcall.Meta{Count: len(matched), Limit: limit, Offset: offset},
	})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		badRequest(w, "Invalid JSON body")
		return
	}

	encoded, _ := json.Marshal(raw)
	var req hipcall.TaskCreate
	if err := json.Unmarshal(encoded, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		unprocessable(w, "name", "can't be blank")
		return
	}

	detail := hipcall.TaskDetail{
		Task: hipcall.Task{
			Name:        req.Name,
			Description: req.Description,
			Done:        hipcall.Ptr(false),
		},
		AssignToUserID:   req.AssignToUserID,
		AutoAssignToUser: req.AutoAssignToUser,
		CompanyIDs:       req.CompanyIDs,
		ContactIDs:       req.ContactIDs,
		DealIDs:          req.DealIDs,
		DueDate:          req.DueDate,
		Priority:         req.Priority,
		TaskListID:       req.TaskListID,
	}

	s.mu.Lock()
	s.taskBodies = append(s.taskBodies, raw)
	s.mu.Unlock()

	detail.ID = s.AddTask(detail)
	writeJSON(w, http.StatusCreated, envelope{Data: detail.Task})
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		notFound(w)
		return
	}

	s.mu.Lock()
	task, ok := s.tasks[id]
	s.mu.Unlock()

	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: task})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
