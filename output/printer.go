package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hipcall/hipcall-go/hipcall"
)

// Supported output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Printer writes API results to w in the configured format
type Printer struct {
	w         io.Writer
	format    string
	formatter *ConsoleFormatter
}

// NewPrinter creates a printer. Unknown formats fall back to table output.
func NewPrinter(w io.Writer, format string) *Printer {
	if format != FormatJSON {
		format = FormatTable
	}
	return &Printer{w: w, format: format, formatter: NewConsoleFormatter()}
}

// Calls prints a call list response
func (p *Printer) Calls(resp *hipcall.CallListResponse) error {
	if p.format == FormatJSON {
		return p.json(resp)
	}
	return p.text(p.formatter.FormatCallList(resp.Data, resp.Meta))
}

// Call prints a call detail response
func (p *Printer) Call(resp *hipcall.CallDetailResponse) error {
	if p.format == FormatJSON {
		return p.json(resp)
	}
	return p.text(p.formatter.FormatCallDetail(resp.Data))
}

// Bridge prints a call-and-bridge response
func (p *Printer) Bridge(resp *hipcall.CallAndBridgeResponse) error {
	if p.format == FormatJSON {
		return p.json(resp)
	}
	return p.text(p.formatter.FormatBridge(resp.Data))
}

// Tasks prints a task list response
func (p *Printer) Tasks(resp *hipcall.TaskListResponse) error {
	if p.format == FormatJSON {
		return p.json(resp)
	}
	return p.text(p.formatter.FormatTaskList(resp.Data, resp.Meta))
}

// Task prints a task detail response
func (p *Printer) Task(resp *hipcall.TaskDetailResponse) error {
	if p.format == FormatJSON {
		return p.json(resp)
	}
	return p.text(p.formatter.FormatTaskDetail(resp.Data))
}

// CreatedTask prints the response to a task creation
func (p *Printer) CreatedTask(resp *hipcall.TaskResponse) error {
	if p.format == FormatJSON {
		return p.json(resp)
	}
	return p.text(fmt.Sprintf("Created task #%d %s", resp.Data.ID, resp.Data.Name))
}

// TaskDetails prints tasks fetched in bulk
func (p *Printer) TaskDetails(tasks []*hipcall.TaskDetail) error {
	if p.format == FormatJSON {
		return p.json(tasks)
	}
	return p.text(p.formatter.FormatTaskDetails(tasks))
}

func (p *Printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) text(s string) error {
	_, err := fmt.Fprintln(p.w, s)
	return err
}
