package hipcall

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Meta contains pagination information for list responses
type Meta struct {
	Count  int `json:"count"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// HasMore reports whether another page exists after this one
func (m Meta) HasMore() bool {
	return m.Offset+m.Limit < m.Count
}

// timestampLayouts are tried in order when decoding a Timestamp.
// Naive layouts are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Timestamp is a time.Time that accepts the date-time layouts the API emits
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses s using the accepted API layouts
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// Call is the summary shape returned by the call list endpoint
type Call struct {
	UUID               string  `json:"uuid"`
	StartedAt          string  `json:"started_at"`
	EndedAt            string  `json:"ended_at"`
	Direction          string  `json:"direction"`
	CallDuration       *int    `json:"call_duration,omitempty"`
	FirstTouchDuration *int    `json:"first_touch_duration,omitempty"`
	MissingCall        *bool   `json:"missing_call,omitempty"`
	AnsweredAt         *string `json:"answered_at,omitempty"`
	BridgedAt          *string `json:"bridged_at,omitempty"`
}

// ParseUUID parses the call identifier
func (c *Call) ParseUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UUID)
}


// CallDetail is the full call record returned by the call detail endpoint
type CallDetail struct {
	UUID               string     `json:"uuid"`
	StartedAt          Timestamp  `json:"started_at"`
	EndedAt            Timestamp  `json:"ended_at"`
	Direction          string     `json:"direction"`
	CallDuration       *int       `json:"call_duration,omitempty"`
	FirstTouchDuration *int       `json:"first_touch_duration,omitempty"`
	MissingCall        *bool      `json:"missing_call,omitempty"`
	AnsweredAt         *Timestamp `json:"answered_at,omitempty"`
	BridgedAt          *Timestamp `json:"bridged_at,omitempty"`
	CallerID           *int       `json:"caller_id,omitempty"`
	ContactID          *int       `json:"contact_id,omitempty"`
	Credited           *bool      `json:"credited,omitempty"`
	RelatedID          *int       `json:"related_id,omitempty"`
	RelatedType        *string    `json:"related_type,omitempty"`
	ChannelType        *string    `json:"channel_type,omitempty"`
	NumberID           *int       `json:"number_id,omitempty"`
	CallerNumber       *string    `json:"caller_number,omitempty"`
	VoicemailID        *int       `json:"voicemail_id,omitempty"`
	VoicemailType      *string    `json:"voicemail_type,omitempty"`
	HangupBy           *string    `json:"hangup_by,omitempty"`
	MissingCallReason  *string    `json:"missing_call_reason,omitempty"`
	CallerType         *string    `json:"caller_type,omitempty"`
	CalleeID           *int       `json:"callee_id,omitempty"`
	VoicemailURL       *string    `json:"voicemail_url,omitempty"`
	ChannelID          *int       `json:"channel_id,omitempty"`
	UserID             *int       `json:"user_id,omitempty"`
	CalleeNumber       *string    `json:"callee_number,omitempty"`
	CallFlow           *string    `json:"call_flow,omitempty"`
	RecordURL          *string    `json:"record_url,omitempty"`
	CallbackTime       *Timestamp `json:"callback_time,omitempty"`
	CallbackCdrUUID    *string    `json:"callback_cdr_uuid,omitempty"`
	CalleeType         *string    `json:"callee_type,omitempty"`
	CallbackUserID     *int       `json:"callback_user_id,omitempty"`
}

// ParseUUID parses the call identifier
func (c *CallDetail) ParseUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UUID)
}


// CallListResponse is the envelope returned by GetCalls
type CallListResponse struct {
	Data []Call `json:"data"`
	Meta *Meta  `json:"meta"`
}


// CallDetailResponse is the envelope returned by GetCall
type CallDetailResponse struct {
	Data *CallDetail `json:"data"`
}


// CallAndBridge identifies a bridged call
type CallAndBridge struct {
	ID string `json:"id"`
}

// CallAndBridgeResponse is the envelope returned by CallAndBridge
type CallAndBridgeResponse struct {
	Data *CallAndBridge `json:"data"`
}


// callAndBridgeRequest is the POST body of the call-and-bridge endpoint
type callAndBridgeRequest struct {
	CalleeNumber  string `json:"callee_number"`
	RingUserFirst bool   `json:"ring_user_first"`
}

// Task is the summary shape returned by the task list endpoint
type Task struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Done        *bool      `json:"done"`
	DoneAt      *Timestamp `json:"done_at,omitempty"`
}

// IsDone reports the completion flag
func (t *Task) IsDone() bool {
	return t.Done != nil && *t.Done
}


// TaskListResponse is the envelope returned by GetTasks
type TaskListResponse struct {
	Data []Task `json:"data"`
	Meta *Meta  `json:"meta"`
}


// TaskResponse is the envelope returned by CreateTask
type TaskResponse struct {
	Data *Task `json:"data"`
}


// TaskDetail is the full task record returned by the task detail endpoint
type TaskDetail struct {
	Task
	AssignToUserID   *int       `json:"assign_to_user_id,omitempty"`
	AutoAssignToUser *bool      `json:"auto_assign_to_user,omitempty"`
	CompanyIDs       []int      `json:"company_ids,omitempty"`
	ContactIDs       []int      `json:"contact_ids,omitempty"`
	DealIDs          []int      `json:"deal_ids,omitempty"`
	DueDate          *Timestamp `json:"due_date,omitempty"`
	Priority         *string    `json:"priority,omitempty"`
	TaskListID       *int       `json:"task_list_id,omitempty"`
}

// TaskDetailResponse is the envelope returned by GetTask
type TaskDetailResponse struct {
	Data *TaskDetail `json:"data"`
}


// TaskCreate is the input for CreateTask. Only Name is required; every nil
// field is left out of the request body.
type TaskCreate struct {
	Name             string     `json:"name"`
	Description      *string    `json:"description,omitempty"`
	AssignToUserID   *int       `json:"assign_to_user_id,omitempty"`
	AutoAssignToUser *bool      `json:"auto_assign_to_user,omitempty"`
	CompanyIDs       []int      `json:"company_ids,omitempty"`
	ContactIDs       []int      `json:"contact_ids,omitempty"`
	DealIDs          []int      `json:"deal_ids,omitempty"`
	DueDate          *Timestamp `json:"due_date,omitempty"`
	Priority         *string    `json:"priority,omitempty"`
	TaskListID       *int       `json:"task_list_id,omitempty"`
}

// Validate checks the fields the API requires
func (t *TaskCreate) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: task name is required", ErrInvalidInput)
	}
	return nil
}

// Ptr returns a pointer to v. Handy for filling optional model fields.
func Ptr[T any](v T) *T {
	return &v
}
