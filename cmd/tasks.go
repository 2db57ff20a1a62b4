package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hipcall/hipcall-go/hipcall"
)

var (
	taskListFlags listFlags

	// create flags
	taskName        string
	taskDescription string
	taskAssignTo    int
	taskAutoAssign  bool
	taskCompanyIDs  []int
	taskContactIDs  []int
	taskDealIDs     []int
	taskDue         string
	taskPriority    string
	taskListID      int

	fetchConcurrency int
)

// tasksCmd groups the task commands
var tasksCmd = &cobra.Command{
	Use:                "tasks",
	Short:              "List, inspect and create tasks",
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: writeMetrics,
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List a page of tasks. The page can be narrowed with a filter expression, e.g.

  hipcall tasks list --filter '!Done and icontains(Name, "invoice")'`,
	Args: cobra.NoArgs,
	RunE: runTasksList,
}

var tasksGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a single task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksGet,
}

var tasksCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a task",
	Long:  `Create a task. Only the flags given on the command line are sent.`,
	Args:  cobra.NoArgs,
	RunE:  runTasksCreate,
}

var tasksFetchCmd = &cobra.Command{
	Use:   "fetch <id>...",
	Short: "Fetch several tasks concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTasksFetch,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksListCmd, tasksGetCmd, tasksCreateCmd, tasksFetchCmd)

	taskListFlags.register(tasksListCmd)

	f := tasksCreateCmd.Flags()
	f.StringVar(&taskName, "name", "", "task name")
	f.StringVar(&taskDescription, "description", "", "task description")
	f.IntVar(&taskAssignTo, "assign-to", 0, "user id to assign the task to")
	f.BoolVar(&taskAutoAssign, "auto-assign", false, "assign the task to the creating user")
	f.IntSliceVar(&taskCompanyIDs, "company-id", nil, "related company ids")
	f.IntSliceVar(&taskContactIDs, "contact-id", nil, "related contact ids")
	f.IntSliceVar(&taskDealIDs, "deal-id", nil, "related deal ids")
	f.StringVar(&taskDue, "due", "", "due date (YYYY-MM-DD or RFC 3339)")
	f.StringVar(&taskPriority, "priority", "", "task priority")
	f.IntVar(&taskListID, "list-id", 0, "task list id")
	_ = tasksCreateCmd.MarkFlagRequired("name")

	tasksFetchCmd.Flags().IntVarP(&fetchConcurrency, "concurrency", "c", hipcall.DefaultConcurrency, "maximum concurrent requests")
}

func runTasksList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	expr, filtered, err := taskListFlags.filterExpression()
	if err != nil {
		return err
	}

	resp, err := client.GetTasks(ctx, taskListFlags.options()...)
	if err != nil {
		logger.Error().Err(err).Int("status", hipcall.StatusCode(err)).Msg("Failed to list tasks")
		return err
	}

	if filtered {
		total := len(resp.Data)
		resp.Data, err = filters.FilterTasks(ctx, expr, resp.Data)
		if err != nil {
			return fmt.Errorf("filter failed: %w", err)
		}
		logger.Info().Str("filter", expr).Int("matched", len(resp.Data)).Int("fetched", total).Msg("Filtered tasks")
	}

	return printer.Tasks(resp)
}

func runTasksGet(cmd *cobra.Command, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	resp, err := client.GetTask(cmd.Context(), id)
	if err != nil {
		if hipcall.IsNotFound(err) {
			logger.Warn().Int("task_id", id).Msg("Task not found")
		}
		return err
	}

	return printer.Task(resp)
}

func runTasksCreate(cmd *cobra.Command, args []string) error {
	task, err := buildTaskCreate(cmd)
	if err != nil {
		return err
	}

	resp, err := client.CreateTask(cmd.Context(), task)
	if err != nil {
		if hipcall.IsUnprocessableEntity(err) {
			logger.Error().Err(err).Msg("Task rejected by the server")
		}
		return err
	}

	logger.Info().Int("task_id", resp.Data.ID).Msg("Task created")
	return printer.CreatedTask(resp)
}

func runTasksFetch(cmd *cobra.Command, args []string) error {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := parseTaskID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	opts := append(clientOptions(), hipcall.WithConcurrency(fetchConcurrency))

	var tasks []*hipcall.TaskDetail
	err := hipcall.WithSession(cmd.Context(), cfg.APIKey, func(ctx context.Context, c *hipcall.AsyncClient) error {
		var err error
		tasks, err = c.FetchTasks(ctx, ids...).Wait(ctx)
		return err
	}, opts...)
	if err != nil {
		return err
	}

	logger.Debug().Int("count", len(tasks)).Msg("Fetched tasks")
	return printer.TaskDetails(tasks)
}

// buildTaskCreate turns the create flags into a request, leaving unset flags out
func buildTaskCreate(cmd *cobra.Command) (hipcall.TaskCreate, error) {
	flags := cmd.Flags()
	task := hipcall.TaskCreate{Name: taskName}

	if flags.Changed("description") {
		task.Description = hipcall.Ptr(taskDescription)
	}
	if flags.Changed("assign-to") {
		task.AssignToUserID = hipcall.Ptr(taskAssignTo)
	}
	if flags.Changed("auto-assign") {
		task.AutoAssignToUser = hipcall.Ptr(taskAutoAssign)
	}
	if flags.Changed("company-id") {
		task.CompanyIDs = taskCompanyIDs
	}
	if flags.Changed("contact-id") {
		task.ContactIDs = taskContactIDs
	}
	if flags.Changed("deal-id") {
		task.DealIDs = taskDealIDs
	}
	if flags.Changed("due") {
		due, err := parseDue(taskDue)
		if err != nil {
			return hipcall.TaskCreate{}, err
		}
		task.DueDate = &due
	}
	if flags.Changed("priority") {
		task.Priority = hipcall.Ptr(taskPriority)
	}
	if flags.Changed("list-id") {
		task.TaskListID = hipcall.Ptr(taskListID)
	}

	return task, task.Validate()
}

func parseDue(s string) (hipcall.Timestamp, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return hipcall.Timestamp{Time: t}, nil
	}
	ts, err := hipcall.ParseTimestamp(s)
	if err != nil {
		return hipcall.Timestamp{}, fmt.Errorf("invalid due date %q: %w", s, err)
	}
	return ts, nil
}

func parseTaskID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}
