package hipcall

import (
	"context"
	"net/http"
)

func (c *core) getTasks(ctx context.Context, h doer, opts []ListOption) (*TaskListResponse, error) {
	params := c.listParams(c.opts.taskSort, opts)

	var resp TaskListResponse
	if err := c.do(ctx, h, "get tasks", http.MethodGet, c.TaskListURL(), params, nil, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("count", len(resp.Data)).
		Int("total", resp.Meta.Count).
		Msg("Retrieved tasks from Hipcall")

	return &resp, nil
}

func (c *core) createTask(ctx context.Context, h doer, task TaskCreate) (*TaskResponse, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	var resp TaskResponse
	if err := c.do(ctx, h, "create task", http.MethodPost, c.TaskListURL(), nil, &task, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *core) getTask(ctx context.Context, h doer, taskID int) (*TaskDetailResponse, error) {
	var resp TaskDetailResponse
	if err := c.do(ctx, h, "get task", http.MethodGet, c.TaskDetailURL(taskID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
