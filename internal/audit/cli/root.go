// Package cli defines the repoaudit command tree.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var verbose bool

// RootCmd is the repoaudit entry command.
var RootCmd = &cobra.Command{
	Use:   "repoaudit",
	Short: "Health scoring and deep auditing for GitHub repositories",
	Long: `repoaudit scores a repository's overall health and, when the score
falls below a configurable threshold, runs a parallel deep audit:

  Profile          — What kind of project is this?
  Git History      — How active is it, and who keeps it alive?
  Structure        — Where are the complexity hotspots?
  Dependencies     — How risky is the dependency set?
  Test Coverage    — How much of it is tested?

Healthy repositories skip the deep audit entirely.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	RootCmd.AddCommand(auditCmd)
}
