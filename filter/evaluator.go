package filter

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hipcall/hipcall-go/hipcall"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*Evaluator)

// WithWorkers sets the number of concurrent chunk evaluations
func WithWorkers(workers int) EvaluatorOption {
	return func(e *Evaluator) {
		if workers > 0 {
			e.workerCount = workers
		}
	}
}

// WithBatchSize sets the chunk size below which evaluation stays sequential
func WithBatchSize(size int) EvaluatorOption {
	return func(e *Evaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// Evaluator applies compiled filters to record slices, preserving order
type Evaluator struct {
	workerCount int
	batchSize   int
}

// NewEvaluator creates a new evaluator
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   100,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Calls returns the calls matching filter
func (e *Evaluator) Calls(ctx context.Context, filter CompiledFilter, calls []hipcall.Call) ([]hipcall.Call, error) {
	return Apply(ctx, e, filter, calls, CallEnv, func(c hipcall.Call) string {
		return "call " + c.UUID
	})
}

// Tasks returns the tasks matching filter
func (e *Evaluator) Tasks(ctx context.Context, filter CompiledFilter, tasks []hipcall.Task) ([]hipcall.Task, error) {
	return Apply(ctx, e, filter, tasks, TaskEnv, func(t hipcall.Task) string {
		return "task " + t.Name
	})
}

// Apply evaluates filter against every record and returns the matches in input order.
// The first evaluation failure aborts the run and is returned as an *EvaluationError.
func Apply[T any](ctx context.Context, e *Evaluator, filter CompiledFilter, records []T, env func(T) Env, label func(T) string) ([]T, error) {
	if len(records) == 0 {
		return []T{}, nil
	}

	if len(records) < e.batchSize {
		return applyChunk(ctx, filter, records, env, label)
	}

	chunkSize := max(len(records)/e.workerCount, e.batchSize)
	chunks := make([][]T, 0, len(records)/chunkSize+1)
	for i := 0; i < len(records); i += chunkSize {
		chunks = append(chunks, records[i:min(i+chunkSize, len(records))])
	}

	results := make([][]T, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)
	for i, chunk := range chunks {
		g.Go(func() error {
			matches, err := applyChunk(gctx, filter, chunk, env, label)
			if err != nil {
				return err
			}
			results[i] = matches
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}

	all := make([]T, 0, total)
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

func applyChunk[T any](ctx context.Context, filter CompiledFilter, records []T, env func(T) Env, label func(T) string) ([]T, error) {
	matches := make([]T, 0, len(records)/4)
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ok, err := filter.Match(env(record))
		if err != nil {
			return nil, &EvaluationError{
				Expression: filter.Expression(),
				Record:     label(record),
				Err:        err,
			}
		}
		if ok {
			matches = append(matches, record)
		}
	}
	return matches, nil
}
