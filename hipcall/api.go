package hipcall

import (
	"context"
)

// API defines the blocking Hipcall operations
type API interface {
	// GetCall retrieves a call record for the given day
	GetCall(ctx context.Context, callID, date string) (*CallDetailResponse, error)

	// GetCalls lists call records
	GetCalls(ctx context.Context, opts ...ListOption) (*CallListResponse, error)

	// CallAndBridge rings a user and bridges them with a number
	CallAndBridge(ctx context.Context, userID int, calleeNumber string, opts ...BridgeOption) (*CallAndBridgeResponse, error)

	// GetTasks lists tasks
	GetTasks(ctx context.Context, opts ...ListOption) (*TaskListResponse, error)

	// CreateTask creates a task
	CreateTask(ctx context.Context, task TaskCreate) (*TaskResponse, error)

	// GetTask retrieves a task by ID
	GetTask(ctx context.Context, taskID int) (*TaskDetailResponse, error)
}

var _ API = (*Client)(nil)
