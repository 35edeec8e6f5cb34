package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kazumasakawahara/claude-bridge/internal/adapters/desktop"
	"github.com/kazumasakawahara/claude-bridge/internal/diagnostics"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the environment can run a workflow",
	Long: `Verify the workspace directories, config validity, launch command, and
desktop application state.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	env, err := initEnv()
	if err != nil {
		return err
	}

	launcher := desktop.NewLauncher(env.Automation, env.Logger)
	results := diagnostics.NewDoctor(env.Paths, env.Automation, launcher).Run()

	fmt.Println("Checking environment...")
	fmt.Println()
	for _, check := range results {
		icon := "✓"
		if !check.OK {
			icon = "✗"
		}
		fmt.Printf("  %s %s", icon, check.Name)
		if check.Detail != "" {
			fmt.Printf(" (%s)", check.Detail)
		}
		fmt.Println()
	}
	fmt.Println()

	if !diagnostics.Healthy(results) {
		return fmt.Errorf("environment not ready")
	}
	fmt.Println("Everything looks good")
	return nil
}
