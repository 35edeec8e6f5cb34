package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kazumasakawahara/claude-bridge/internal/diagnostics"
	"github.com/kazumasakawahara/claude-bridge/internal/logging"
	"github.com/kazumasakawahara/claude-bridge/internal/workspace"
)

var (
	cfgFile       string
	logLevel      string
	logFormat     string
	workspaceRoot string

	// Version info - set via SetVersion()
	appVersion string
	appCommit  string
	appDate    string

	crashReporter *diagnostics.CrashReporter
)

var rootCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Hand off hard problems to the Claude desktop app and apply its answers",
	Long: `claude-bridge moves a problem description from the command line to the
Claude desktop application and brings the structured answer back: it writes
a request document into a shared workspace, launches the desktop app, waits
for the response file, and can apply the proposed changes with automatic
backups and rollback.

Run 'bridge init' once to create the workspace, then 'bridge run' for the
full automated round trip.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if crashReporter != nil {
			crashReporter.SetContext(cmd.Name(), "")
		}
	},
}

func Execute() error {
	// Crash reports land in the default workspace even when a flag moves
	// the working one; a report beats losing the panic entirely.
	if paths, err := workspace.Resolve(os.Getenv("BRIDGE_WORKSPACE_ROOT")); err == nil {
		crashReporter = diagnostics.NewCrashReporter(paths, logging.New(logging.DefaultConfig()))
		defer crashReporter.Recover()
	}
	return rootCmd.Execute()
}

func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./.claude-bridge.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto",
		"log format (auto, text, json)")
	rootCmd.PersistentFlags().StringVar(&workspaceRoot, "workspace", "",
		"workspace root (default: ~/AI-Workspace/claude-bridge)")

	// Bind flags to viper (errors are nil when flag exists)
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("workspace.root", rootCmd.PersistentFlags().Lookup("workspace"))
}
