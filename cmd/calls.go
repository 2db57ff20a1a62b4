package cmd

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hipcall/hipcall-go/hipcall"
)

var (
	callListFlags listFlags
	callDate      string
	ringUserFirst bool
)

// callsCmd groups the call commands
var callsCmd = &cobra.Command{
	Use:                "calls",
	Short:              "Inspect calls and start click-to-call bridges",
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: writeMetrics,
}

var callsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List calls",
	Long: `List a page of calls. The page can be narrowed with a filter expression, e.g.

  hipcall calls list --filter 'Inbound and CallDuration > 60'
  hipcall calls list --preset missed`,
	Args: cobra.NoArgs,
	RunE: runCallsList,
}

var callsGetCmd = &cobra.Command{
	Use:   "get <uuid>",
	Short: "Show a single call",
	Args:  cobra.ExactArgs(1),
	RunE:  runCallsGet,
}

var callsBridgeCmd = &cobra.Command{
	Use:   "bridge <user-id> <number>",
	Short: "Ring a user and bridge them to a number",
	Args:  cobra.ExactArgs(2),
	RunE:  runCallsBridge,
}

func init() {
	rootCmd.AddCommand(callsCmd)
	callsCmd.AddCommand(callsListCmd, callsGetCmd, callsBridgeCmd)

	callListFlags.register(callsListCmd)

	callsGetCmd.Flags().StringVar(&callDate, "date", "", "call date (YYYY-MM-DD)")
	_ = callsGetCmd.MarkFlagRequired("date")

	callsBridgeCmd.Flags().BoolVar(&ringUserFirst, "ring-user-first", true, "ring the user before dialing the number")
}

func runCallsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	expr, filtered, err := callListFlags.filterExpression()
	if err != nil {
		return err
	}

	resp, err := client.GetCalls(ctx, callListFlags.options()...)
	if err != nil {
		logger.Error().Err(err).Int("status", hipcall.StatusCode(err)).Msg("Failed to list calls")
		return err
	}

	if filtered {
		total := len(resp.Data)
		resp.Data, err = filters.FilterCalls(ctx, expr, resp.Data)
		if err != nil {
			return fmt.Errorf("filter failed: %w", err)
		}
		logger.Info().Str("filter", expr).Int("matched", len(resp.Data)).Int("fetched", total).Msg("Filtered calls")
	}

	return printer.Calls(resp)
}

func runCallsGet(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid call uuid %q: %w", args[0], err)
	}

	resp, err := client.GetCall(cmd.Context(), id.String(), callDate)
	if err != nil {
		if hipcall.IsNotFound(err) {
			logger.Warn().Str("uuid", id.String()).Str("date", callDate).Msg("Call not found")
		}
		return err
	}

	return printer.Call(resp)
}

func runCallsBridge(cmd *cobra.Command, args []string) error {
	userID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", args[0], err)
	}

	logger.Info().Int("user_id", userID).Str("number", args[1]).Bool("ring_user_first", ringUserFirst).Msg("Starting call")

	resp, err := client.CallAndBridge(cmd.Context(), userID, args[1], hipcall.WithRingUserFirst(ringUserFirst))
	if err != nil {
		return err
	}

	return printer.Bridge(resp)
}
