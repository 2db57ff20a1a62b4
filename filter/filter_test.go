package filter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hipcall/hipcall-go/hipcall"
)

func testCalls() []hipcall.Call {
	recent := time.Now().UTC().Add(-2 * time.Hour).Format(time.RFC3339)
	old := time.Now().UTC().AddDate(0, 0, -30).Format(time.RFC3339)

	return []hipcall.Call{
		{UUID: "a", Direction: "inbound", StartedAt: recent, EndedAt: recent, CallDuration: hipcall.Ptr(120), MissingCall: hipcall.Ptr(false)},
		{UUID: "b", Direction: "outbound", StartedAt: old, EndedAt: old, CallDuration: hipcall.Ptr(15)},
		{UUID: "c", Direction: "inbound", StartedAt: old, EndedAt: old, MissingCall: hipcall.Ptr(true)},
	}
}

func testTasks() []hipcall.Task {
	done := hipcall.Timestamp{Time: time.Now().AddDate(0, 0, -3)}
	return []hipcall.Task{
		{ID: 1, Name: "Call back ACME", Done: hipcall.Ptr(true), DoneAt: &done},
		{ID: 2, Name: "Send invoice", Description: hipcall.Ptr("monthly")},
		{ID: 3, Name: "call supplier", Done: hipcall.Ptr(false)},
	}
}

func uuids(calls []hipcall.Call) []string {
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.UUID)
	}
	return out
}

func ids(tasks []hipcall.Task) []int {
	out := make([]int, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestCallFilters(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{name: "direction", expr: `Direction == "inbound"`, want: []string{"a", "c"}},
		{name: "inbound flag", expr: `Outbound`, want: []string{"b"}},
		{name: "duration", expr: `CallDuration >= 60`, want: []string{"a"}},
		{name: "missed", expr: `MissingCall`, want: []string{"c"}},
		{name: "recent", expr: `daysSince(StartedAt) < 7`, want: []string{"a"}},
		{name: "before cutoff", expr: `StartedAt < daysAgo(7)`, want: []string{"b", "c"}},
		{name: "combined", expr: `Inbound and not MissingCall`, want: []string{"a"}},
		{name: "struct access", expr: `Call.UUID in ["b", "c"]`, want: []string{"b", "c"}},
		{name: "no match", expr: `CallDuration > 1000`, want: []string{}},
	}

	compiler := NewExprCompiler()
	evaluator := NewEvaluator()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := compiler.Compile(tt.expr)
			require.NoError(t, err)

			got, err := evaluator.Calls(context.Background(), f, testCalls())
			require.NoError(t, err)
			assert.Equal(t, tt.want, uuids(got))
		})
	}
}

func TestTaskFilters(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []int
	}{
		{name: "done", expr: `Done`, want: []int{1}},
		{name: "open", expr: `!Done`, want: []int{2, 3}},
		{name: "icontains is case insensitive", expr: `icontains(Name, "CALL")`, want: []int{1, 3}},
		{name: "has prefix", expr: `hasPrefix(Name, "send")`, want: []int{2}},
		{name: "has suffix", expr: `hasSuffix(Name, "acme")`, want: []int{1}},
		{name: "contains operator is case sensitive", expr: `Name contains "call"`, want: []int{3}},
		{name: "startsWith operator", expr: `Name startsWith "Send"`, want: []int{2}},
		{name: "description", expr: `Description == "monthly"`, want: []int{2}},
		{name: "done recently", expr: `Done and daysSince(DoneAt) <= 7`, want: []int{1}},
		{name: "id range", expr: `ID >= 2`, want: []int{2, 3}},
	}

	compiler := NewExprCompiler()
	evaluator := NewEvaluator()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := compiler.Compile(tt.expr)
			require.NoError(t, err)

			got, err := evaluator.Tasks(context.Background(), f, testTasks())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestCompileErrors(t *testing.T) {
	compiler := NewExprCompiler()

	for _, expr := range []string{"", "   ", `Name ==`, `"just a string"`} {
		t.Run(expr, func(t *testing.T) {
			_, err := compiler.Compile(expr)
			require.Error(t, err)

			var compErr *CompilationError
			assert.True(t, errors.As(err, &compErr))
		})
	}
}

func TestEvaluationError(t *testing.T) {
	compiler := NewExprCompiler()
	f, err := compiler.Compile(`Name > 5`)
	require.NoError(t, err)

	_, err = NewEvaluator().Tasks(context.Background(), f, testTasks())
	require.Error(t, err)

	var evalErr *EvaluationError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, `Name > 5`, evalErr.Expression)
	assert.Equal(t, "task Call back ACME", evalErr.Record)
}

func TestCompilerCache(t *testing.T) {
	compiler := NewExprCompiler(WithCache(2))

	first, err := compiler.Compile(`Done`)
	require.NoError(t, err)
	again, err := compiler.Compile(`Done`)
	require.NoError(t, err)
	assert.Same(t, first, again)

	_, err = compiler.Compile(`ID > 1`)
	require.NoError(t, err)
	_, err = compiler.Compile(`ID > 2`)
	require.NoError(t, err)
	assert.Equal(t, 2, compiler.Size())

	// `Done` was evicted
	evicted, err := compiler.Compile(`Done`)
	require.NoError(t, err)
	assert.NotSame(t, first, evicted)

	compiler.Clear()
	assert.Equal(t, 0, compiler.Size())

	assert.Equal(t, 0, NewExprCompiler().Size())
}

func TestCustomFunctions(t *testing.T) {
	compiler := NewExprCompiler(WithCustomFunctions(map[string]any{
		"isUrgent": func(name string) bool { return name == "Send invoice" },
	}))

	f, err := compiler.Compile(`isUrgent(Name)`)
	require.NoError(t, err)

	got, err := NewEvaluator().Tasks(context.Background(), f, testTasks())
	require.NoError(t, err)
	assert.Equal(t, []int{2}, ids(got))

	f, err = compiler.Compile(`isUrgent(Name) or daysSince(DoneAt) < 7`)
	require.NoError(t, err)

	got, err = NewEvaluator().Tasks(context.Background(), f, testTasks())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids(got))
}

func TestCustomFunctionsThroughManager(t *testing.T) {
	manager := NewManager(WithCompiler(NewExprCompiler(WithCustomFunctions(map[string]any{
		"short": func(s string) bool { return len(s) <= 12 },
	}))))
	require.NoError(t, manager.RegisterFilter("short", `short(Name)`))

	got, err := manager.FilterTasks(context.Background(), "short", testTasks())
	require.NoError(t, err)
	assert.Equal(t, []int{2}, ids(got))
}

func TestConcurrentEvaluationKeepsOrder(t *testing.T) {
	tasks := make([]hipcall.Task, 1000)
	for i := range tasks {
		tasks[i] = hipcall.Task{ID: i, Name: fmt.Sprintf("task %d", i)}
	}

	f, err := NewExprCompiler().Compile(`ID % 3 == 0`)
	require.NoError(t, err)

	evaluator := NewEvaluator(WithWorkers(4), WithBatchSize(50))
	got, err := evaluator.Tasks(context.Background(), f, tasks)
	require.NoError(t, err)

	require.Len(t, got, 334)
	for i, task := range got {
		assert.Equal(t, i*3, task.ID)
	}
}

func TestEvaluationHonoursContext(t *testing.T) {
	f, err := NewExprCompiler().Compile(`Done`)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewEvaluator().Tasks(ctx, f, testTasks())
	assert.ErrorIs(t, err, context.Canceled)

	got, err := NewEvaluator().Tasks(ctx, f, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestManager(t *testing.T) {
	m := NewManager()

	require.NoError(t, m.RegisterFilters(map[string]string{
		"missed":  `MissingCall`,
		"pending": `!Done`,
	}))
	assert.Equal(t, []string{"missed", "pending"}, m.ListFilters())

	err := m.RegisterFilters(map[string]string{"broken": `Name ==`, "ok": `Done`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, []string{"missed", "pending"}, m.ListFilters())

	ctx := context.Background()

	calls, err := m.FilterCalls(ctx, "missed", testCalls())
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, uuids(calls))

	// unknown names are compiled as expressions
	calls, err = m.FilterCalls(ctx, `Direction == "outbound"`, testCalls())
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, uuids(calls))

	tasks, err := m.FilterTasks(ctx, "pending", testTasks())
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, ids(tasks))

	_, err = m.FilterTasks(ctx, "Name ==", testTasks())
	assert.Error(t, err)

	m.UnregisterFilter("pending")
	_, ok := m.GetFilter("pending")
	assert.False(t, ok)

	require.NoError(t, m.RegisterFilter("long", `CallDuration > 60`))
	f, ok := m.GetFilter("long")
	require.True(t, ok)
	assert.Equal(t, `CallDuration > 60`, f.Expression())
}
