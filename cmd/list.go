package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hipcall/hipcall-go/hipcall"
)

// listFlags holds the pagination and filter flags shared by list commands
type listFlags struct {
	limit  int
	offset int
	query  string
	sort   string
	filter string
	preset string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.limit, "limit", "l", hipcall.DefaultLimit, "number of records to fetch")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "number of records to skip")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "search query")
	cmd.Flags().StringVarP(&f.sort, "sort", "s", "", "sort order, e.g. started_at.desc (default from config)")
	cmd.Flags().StringVarP(&f.filter, "filter", "f", "", "filter expression applied to the fetched page")
	cmd.Flags().StringVarP(&f.preset, "preset", "p", "", "use a preset filter from config")
}

func (f *listFlags) options() []hipcall.ListOption {
	opts := []hipcall.ListOption{
		hipcall.WithLimit(f.limit),
		hipcall.WithOffset(f.offset),
		hipcall.WithQuery(f.query),
	}
	if f.sort != "" {
		opts = append(opts, hipcall.WithSort(f.sort))
	}
	return opts
}

// filterExpression determines the filter to apply, if any.
// A command line expression wins over a preset.
func (f *listFlags) filterExpression() (string, bool, error) {
	if f.filter != "" {
		return f.filter, true, nil
	}

	if f.preset != "" {
		// viper lowercases map keys, so presets are registered lowercased
		name := strings.ToLower(f.preset)
		if _, ok := filters.GetFilter(name); !ok {
			return "", false, fmt.Errorf("preset '%s' not found in config", f.preset)
		}
		return name, true, nil
	}

	return "", false, nil
}
