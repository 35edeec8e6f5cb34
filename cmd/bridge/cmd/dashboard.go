package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kazumasakawahara/claude-bridge/internal/adapters/desktop"
	"github.com/kazumasakawahara/claude-bridge/internal/diagnostics"
	"github.com/kazumasakawahara/claude-bridge/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the workspace dashboard",
	Long: `Show pending requests, recent responses, errors from the last day,
workspace statistics, automation settings, health checks, and host load.

Sections: ` + fmt.Sprint(tui.SectionNames) + `

  bridge dashboard                      # everything, once
  bridge dashboard --section pending --section errors
  bridge dashboard --watch              # live view, reloads on file changes`,
	RunE: runDashboard,
}

var (
	dashboardWatch    bool
	dashboardSections []string
)

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().BoolVar(&dashboardWatch, "watch", false, "keep the dashboard open and reload on changes")
	dashboardCmd.Flags().StringSliceVar(&dashboardSections, "section", nil, "render only these sections (repeatable)")
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	env, err := initEnv()
	if err != nil {
		return err
	}

	launcher := desktop.NewLauncher(env.Automation, env.Logger)
	doctor := diagnostics.NewDoctor(env.Paths, env.Automation, launcher)
	source := tui.NewDataSource(env.Store, env.ErrorLog, doctor, env.Automation, env.Paths)

	if dashboardWatch {
		program := tea.NewProgram(tui.NewWatchModel(source), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := source.Load(ctx)
	if err != nil {
		return err
	}
	fmt.Print(tui.Render(data, termWidth(), dashboardSections...))
	return nil
}
