package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hipcall/hipcall-go/hipcall"
)

const dateTimeFormat = "2006-01-02 15:04:05"

// ConsoleFormatter renders API records as tree-style console output
type ConsoleFormatter struct{}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// FormatCallList formats a page of calls
func (f *ConsoleFormatter) FormatCallList(calls []hipcall.Call, meta *hipcall.Meta) string {
	if len(calls) == 0 {
		return "No calls found"
	}

	var sb strings.Builder
	writeHeader(&sb, "Call", len(calls), meta)

	for i, call := range calls {
		isLast := i == len(calls)-1
		prefix, indent := branch(isLast)

		fmt.Fprintf(&sb, "%s── %s (%s)\n", prefix, call.UUID, call.Direction)
		fmt.Fprintf(&sb, "%sStarted: %s | Ended: %s\n", indent, formatRaw(call.StartedAt), formatRaw(call.EndedAt))

		var parts []string
		if call.CallDuration != nil {
			parts = append(parts, "Duration: "+formatSeconds(*call.CallDuration))
		}
		if call.FirstTouchDuration != nil {
			parts = append(parts, "First touch: "+formatSeconds(*call.FirstTouchDuration))
		}
		if call.MissingCall != nil && *call.MissingCall {
			parts = append(parts, "MISSED")
		}
		if len(parts) > 0 {
			fmt.Fprintf(&sb, "%s%s\n", indent, strings.Join(parts, " | "))
		}

		if !isLast {
			sb.WriteString("│\n")
		}
	}

	writeFooter(&sb, meta)
	return sb.String()
}

// FormatCallDetail formats a single call record
func (f *ConsoleFormatter) FormatCallDetail(call *hipcall.CallDetail) string {
	if call == nil {
		return "Call not found"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nCall %s\n\n", call.UUID)

	rows := [][2]string{
		{"Direction", call.Direction},
		{"Started", call.StartedAt.Format(dateTimeFormat)},
		{"Ended", call.EndedAt.Format(dateTimeFormat)},
		{"Answered", formatTimestamp(call.AnsweredAt)},
		{"Bridged", formatTimestamp(call.BridgedAt)},
		{"Duration", formatOptSeconds(call.CallDuration)},
		{"First touch", formatOptSeconds(call.FirstTouchDuration)},
		{"Missed", formatBool(call.MissingCall)},
		{"Missed reason", formatString(call.MissingCallReason)},
		{"Caller", joinNonEmpty(formatString(call.CallerNumber), formatString(call.CallerType))},
		{"Callee", joinNonEmpty(formatString(call.CalleeNumber), formatString(call.CalleeType))},
		{"User", formatInt(call.UserID)},
		{"Contact", formatInt(call.ContactID)},
		{"Hangup by", formatString(call.HangupBy)},
		{"Channel", formatString(call.ChannelType)},
		{"Call flow", formatString(call.CallFlow)},
		{"Recording", formatString(call.RecordURL)},
		{"Voicemail", formatString(call.VoicemailURL)},
		{"Callback", formatTimestamp(call.CallbackTime)},
	}

	writeRows(&sb, rows)
	return sb.String()
}

// FormatBridge formats the result of a call-and-bridge request
func (f *ConsoleFormatter) FormatBridge(result *hipcall.CallAndBridge) string {
	if result == nil {
		return "Call was not started"
	}
	return fmt.Sprintf("Call started (id: %s)", result.ID)
}

// FormatTaskList formats a page of tasks
func (f *ConsoleFormatter) FormatTaskList(tasks []hipcall.Task, meta *hipcall.Meta) string {
	if len(tasks) == 0 {
		return "No tasks found"
	}

	var sb strings.Builder
	writeHeader(&sb, "Task", len(tasks), meta)

	for i, task := range tasks {
		isLast := i == len(tasks)-1
		prefix, indent := branch(isLast)

		status := "[ ]"
		if task.IsDone() {
			status = "[x]"
		}
		fmt.Fprintf(&sb, "%s── %s #%d %s\n", prefix, status, task.ID, task.Name)

		if task.Description != nil && *task.Description != "" {
			fmt.Fprintf(&sb, "%s%s\n", indent, *task.Description)
		}
		if task.DoneAt != nil {
			fmt.Fprintf(&sb, "%sDone: %s\n", indent, task.DoneAt.Format(dateTimeFormat))
		}

		if !isLast {
			sb.WriteString("│\n")
		}
	}

	writeFooter(&sb, meta)
	return sb.String()
}

// FormatTaskDetail formats a single task record
func (f *ConsoleFormatter) FormatTaskDetail(task *hipcall.TaskDetail) string {
	if task == nil {
		return "Task not found"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nTask #%d %s\n\n", task.ID, task.Name)

	rows := [][2]string{
		{"Description", formatString(task.Description)},
		{"Done", strconv.FormatBool(task.IsDone())},
		{"Done at", formatTimestamp(task.DoneAt)},
		{"Due", formatTimestamp(task.DueDate)},
		{"Priority", formatString(task.Priority)},
		{"Assigned to", formatInt(task.AssignToUserID)},
		{"Auto assign", formatBool(task.AutoAssignToUser)},
		{"Task list", formatInt(task.TaskListID)},
		{"Companies", formatIDs(task.CompanyIDs)},
		{"Contacts", formatIDs(task.ContactIDs)},
		{"Deals", formatIDs(task.DealIDs)},
	}

	writeRows(&sb, rows)
	return sb.String()
}

// FormatTaskDetails formats several task records
func (f *ConsoleFormatter) FormatTaskDetails(tasks []*hipcall.TaskDetail) string {
	if len(tasks) == 0 {
		return "No tasks found"
	}

	parts := make([]string, 0, len(tasks))
	for _, task := range tasks {
		parts = append(parts, strings.TrimRight(f.FormatTaskDetail(task), "\n"))
	}
	return strings.Join(parts, "\n") + "\n"
}

func writeHeader(sb *strings.Builder, noun string, n int, meta *hipcall.Meta) {
	sb.WriteString("\n" + noun)
	if n != 1 {
		sb.WriteString("s")
	}
	if meta != nil {
		fmt.Fprintf(sb, " (%d-%d of %d):\n\n", meta.Offset+1, meta.Offset+n, meta.Count)
		return
	}
	fmt.Fprintf(sb, " (%d):\n\n", n)
}

func writeFooter(sb *strings.Builder, meta *hipcall.Meta) {
	if meta != nil && meta.HasMore() {
		fmt.Fprintf(sb, "\nMore results available, use --offset %d\n", meta.Offset+meta.Limit)
	}
	sb.WriteString("\n")
}

func writeRows(sb *strings.Builder, rows [][2]string) {
	width := 0
	for _, row := range rows {
		if row[1] != "" {
			width = max(width, len(row[0]))
		}
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		fmt.Fprintf(sb, "  %-*s  %s\n", width+1, row[0]+":", row[1])
	}
	sb.WriteString("\n")
}

func branch(isLast bool) (prefix, indent string) {
	if isLast {
		return "╰", "    "
	}
	return "├", "│   "
}

// formatRaw renders an API timestamp string, keeping it verbatim when it cannot be parsed
func formatRaw(s string) string {
	ts, err := hipcall.ParseTimestamp(s)
	if err != nil {
		return s
	}
	return ts.Format(dateTimeFormat)
}

func formatTimestamp(ts *hipcall.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.Format(dateTimeFormat)
}

func formatSeconds(seconds int) string {
	return (time.Duration(seconds) * time.Second).String()
}

func formatOptSeconds(seconds *int) string {
	if seconds == nil {
		return ""
	}
	return formatSeconds(*seconds)
}

func formatString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func formatIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ", ")
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
