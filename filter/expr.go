package filter

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/hipcall/hipcall-go/hipcall"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	custom     map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[string, CompiledFilter](size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
		maps.Copy(c.custom, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: helperFunctions(),
		custom:      make(map[string]any),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	custom      map[string]any
	cache       *lruCache[string, CompiledFilter]
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Record fields are only known at run time
	program, err := expr.Compile(expression,
		expr.Env(c.helperFuncs),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		custom:     c.custom,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Len()
	}
	return 0
}

// Match evaluates the filter against a record environment.
// Custom functions from the compiler are added to env.
func (f *exprFilter) Match(env Env) (bool, error) {
	if len(f.custom) > 0 {
		merged := make(map[string]any, len(env)+len(f.custom))
		maps.Copy(merged, env)
		maps.Copy(merged, f.custom)
		env = merged
	}
	result, err := expr.Run(f.program, map[string]any(env))
	if err != nil {
		return false, err
	}
	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression returned %T, not bool", result)
	}
	return matched, nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// helperFunctions returns the helpers available to every expression
func helperFunctions() map[string]any {
	funcs := make(map[string]any, 16)
	addHelperFunctions(funcs)
	return funcs
}

func addHelperFunctions(env map[string]any) {
	// Date helpers
	env["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	env["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	env["hoursAgo"] = func(hours int) time.Time {
		return time.Now().Add(-time.Duration(hours) * time.Hour)
	}
	env["parseDate"] = func(dateStr string) time.Time {
		t, _ := time.Parse("2006-01-02", dateStr)
		return t
	}
	env["parseTime"] = func(s string) time.Time {
		ts, _ := hipcall.ParseTimestamp(s)
		return ts.Time
	}
	// String helpers. contains, startsWith and endsWith are expr operators
	// and cannot be used as function names.
	env["icontains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["hasPrefix"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["hasSuffix"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
	// Current time
	env["now"] = time.Now
}

// CallEnv builds the evaluation environment for a call summary
func CallEnv(call hipcall.Call) Env {
	env := make(Env, 32)
	addHelperFunctions(env)

	env["Call"] = call
	env["UUID"] = call.UUID
	env["Direction"] = call.Direction
	env["Inbound"] = strings.EqualFold(call.Direction, "inbound")
	env["Outbound"] = strings.EqualFold(call.Direction, "outbound")
	env["StartedAt"] = parseOrZero(call.StartedAt)
	env["EndedAt"] = parseOrZero(call.EndedAt)
	env["AnsweredAt"] = parseOrZero(deref(call.AnsweredAt))
	env["BridgedAt"] = parseOrZero(deref(call.BridgedAt))
	env["Answered"] = call.AnsweredAt != nil
	env["CallDuration"] = deref(call.CallDuration)
	env["FirstTouchDuration"] = deref(call.FirstTouchDuration)
	env["MissingCall"] = deref(call.MissingCall)
	return env
}

// TaskEnv builds the evaluation environment for a task summary
func TaskEnv(task hipcall.Task) Env {
	env := make(Env, 24)
	addHelperFunctions(env)

	var doneAt time.Time
	if task.DoneAt != nil {
		doneAt = task.DoneAt.Time
	}

	env["Task"] = task
	env["ID"] = task.ID
	env["Name"] = task.Name
	env["Description"] = deref(task.Description)
	env["Done"] = task.IsDone()
	env["DoneAt"] = doneAt
	return env
}

func parseOrZero(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := hipcall.ParseTimestamp(s)
	if err != nil {
		return time.Time{}
	}
	return ts.Time
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
