package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hipcall/hipcall-go/hipcall"
)

func TestFormatCallList(t *testing.T) {
	f := NewConsoleFormatter()

	assert.Equal(t, "No calls found", f.FormatCallList(nil, nil))

	calls := []hipcall.Call{
		{UUID: "a", Direction: "inbound", StartedAt: "2024-05-01T10:00:00Z", EndedAt: "2024-05-01T10:02:00Z", CallDuration: hipcall.Ptr(120)},
		{UUID: "b", Direction: "outbound", StartedAt: "not a date", EndedAt: "2024-05-01 11:00:00", MissingCall: hipcall.Ptr(true)},
	}
	out := f.FormatCallList(calls, &hipcall.Meta{Count: 12, Limit: 2, Offset: 0})

	assert.Contains(t, out, "Calls (1-2 of 12):")
	assert.Contains(t, out, "├── a (inbound)")
	assert.Contains(t, out, "╰── b (outbound)")
	assert.Contains(t, out, "Started: 2024-05-01 10:00:00 | Ended: 2024-05-01 10:02:00")
	assert.Contains(t, out, "Duration: 2m0s")
	assert.Contains(t, out, "Started: not a date")
	assert.Contains(t, out, "MISSED")
	assert.Contains(t, out, "use --offset 2")
}

func TestFormatTaskList(t *testing.T) {
	f := NewConsoleFormatter()

	done := hipcall.Timestamp{Time: time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)}
	tasks := []hipcall.Task{
		{ID: 1, Name: "Call back", Done: hipcall.Ptr(true), DoneAt: &done},
		{ID: 2, Name: "Send invoice", Description: hipcall.Ptr("monthly")},
	}
	out := f.FormatTaskList(tasks, &hipcall.Meta{Count: 2, Limit: 10})

	assert.Contains(t, out, "Tasks (1-2 of 2):")
	assert.Contains(t, out, "[x] #1 Call back")
	assert.Contains(t, out, "Done: 2024-05-02 08:30:00")
	assert.Contains(t, out, "[ ] #2 Send invoice")
	assert.Contains(t, out, "monthly")
	assert.NotContains(t, out, "--offset")
}

func TestFormatDetails(t *testing.T) {
	f := NewConsoleFormatter()

	call := &hipcall.CallDetail{
		UUID:         "u",
		Direction:    "inbound",
		StartedAt:    hipcall.Timestamp{Time: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		EndedAt:      hipcall.Timestamp{Time: time.Date(2024, 5, 1, 10, 1, 0, 0, time.UTC)},
		CallerNumber: hipcall.Ptr("905551234567"),
	}
	out := f.FormatCallDetail(call)
	assert.Contains(t, out, "Call u")
	assert.Contains(t, out, "905551234567")
	assert.NotContains(t, out, "Recording")

	task := &hipcall.TaskDetail{
		Task:       hipcall.Task{ID: 7, Name: "Demo"},
		Priority:   hipcall.Ptr("high"),
		CompanyIDs: []int{1, 2},
	}
	out = f.FormatTaskDetail(task)
	assert.Contains(t, out, "Task #7 Demo")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "1, 2")
	assert.NotContains(t, out, "Deals")

	assert.Equal(t, "Call started (id: b-1)", f.FormatBridge(&hipcall.CallAndBridge{ID: "b-1"}))
	assert.Equal(t, "Task not found", f.FormatTaskDetail(nil))
}

func TestPrinterJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatJSON)

	require.NoError(t, p.Bridge(&hipcall.CallAndBridgeResponse{Data: &hipcall.CallAndBridge{ID: "b-1"}}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, map[string]any{"id": "b-1"}, decoded["data"])
}

func TestPrinterFallsBackToTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "yaml")

	require.NoError(t, p.CreatedTask(&hipcall.TaskResponse{Data: &hipcall.Task{ID: 3, Name: "Follow up"}}))
	assert.Equal(t, "Created task #3 Follow up\n", buf.String())
}
