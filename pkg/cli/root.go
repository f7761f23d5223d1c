package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags available to all subcommands
	jsonOutput bool
	logLevel   string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "netmock",
	Short: "netmock validates and exercises HTTP mock settings",
	Long: `netmock works with the settings files used by the netmock Go library.

It validates settings against the schema and resolves requests against their
static mocks without touching the network, so mock files can be checked
before tests use them.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Run()
}

// Run executes the root command with os.Args and returns the exit code.
func Run() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// Execute runs the CLI and exits. This is called by main.main().
func Execute() {
	os.Exit(Run())
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides settings")
}
