package cmd

import (
	"fmt"
	"runtime"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const defaultRepository = "hipcall/hipcall-go"

var (
	version   = "dev"
	buildTime = "unknown"

	updateRepository string
	checkOnly        bool
)

// SetVersion records build information injected at link time
func SetVersion(v, t string) {
	version = v
	buildTime = t
	rootCmd.Version = v
}

func userAgent() string {
	return "hipcall-go/" + version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hipcall %s (built %s, %s/%s, %s)\n",
			version, buildTime, runtime.GOOS, runtime.GOARCH, runtime.Version())
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update hipcall to the latest release",
	Args:  cobra.NoArgs,
	RunE:  runUpdate,
}

func init() {
	rootCmd.AddCommand(versionCmd, updateCmd)

	updateCmd.Flags().StringVar(&updateRepository, "repository", defaultRepository, "GitHub repository to update from (owner/name)")
	updateCmd.Flags().BoolVar(&checkOnly, "check", false, "only report whether an update is available")
}

// currentVersion parses the build version, rejecting development builds
func currentVersion() (semver.Version, error) {
	if version == "dev" || version == "" {
		return semver.Version{}, fmt.Errorf("development builds cannot be updated")
	}
	v, err := semver.ParseTolerant(version)
	if err != nil {
		return semver.Version{}, fmt.Errorf("invalid build version %q: %w", version, err)
	}
	return v, nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	current, err := currentVersion()
	if err != nil {
		return err
	}

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(updateRepository))
	if err != nil {
		return fmt.Errorf("failed to detect latest release: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s/%s in %s", runtime.GOOS, runtime.GOARCH, updateRepository)
	}

	if latest.LessOrEqual(current.String()) {
		fmt.Fprintf(out, "hipcall %s is up to date\n", current)
		return nil
	}

	if checkOnly {
		fmt.Fprintf(out, "hipcall %s is available (current %s)\n", latest.Version(), current)
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("error occurred while updating binary: %w", err)
	}

	fmt.Fprintf(out, "Successfully updated to version %s\n", latest.Version())
	return nil
}
