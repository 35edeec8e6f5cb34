package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kazumasakawahara/claude-bridge/internal/config"
	"github.com/kazumasakawahara/claude-bridge/internal/workspace"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the bridge workspace",
	Long: `Create the workspace directory tree, the default automation config, and
a settings file for this project. Safe to re-run; existing files are kept.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	paths, err := workspace.Resolve(workspaceRoot)
	if err != nil {
		return fmt.Errorf("resolving workspace: %w", err)
	}
	if err := paths.EnsureAll(); err != nil {
		return fmt.Errorf("creating workspace: %w", err)
	}

	if _, err := config.LoadAutomation(paths.AutomationConfig()); err != nil {
		return fmt.Errorf("writing automation config: %w", err)
	}

	if err := writeDefaultSettings(".claude-bridge.yaml"); err != nil {
		return err
	}

	fmt.Println("Workspace ready at", paths.Root)
	fmt.Println("  requests:   ", paths.Requests)
	fmt.Println("  responses:  ", paths.Responses)
	fmt.Println("  automation: ", paths.AutomationConfig())
	fmt.Println()
	fmt.Println("Run 'bridge doctor' to verify the environment")
	fmt.Println("Run 'bridge configure' to tune the automation settings")

	return nil
}

// writeDefaultSettings drops a commented settings file in the current
// directory unless one already exists.
func writeDefaultSettings(path string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Println("Settings file already exists:", path)
		return nil
	}

	defaultSettings := `# claude-bridge settings

log:
  level: info
  format: auto

workspace:
  # Empty means ~/AI-Workspace/claude-bridge
  root: ""

desktop:
  # Empty means <workspace>/automation_config.json
  config_file: ""
`
	if err := os.WriteFile(path, []byte(defaultSettings), 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	fmt.Println("Wrote", path)
	return nil
}
