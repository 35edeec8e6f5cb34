package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/kazumasakawahara/claude-bridge/internal/adapters/desktop"
	"github.com/kazumasakawahara/claude-bridge/internal/adapters/state"
	"github.com/kazumasakawahara/claude-bridge/internal/config"
	"github.com/kazumasakawahara/claude-bridge/internal/core"
	"github.com/kazumasakawahara/claude-bridge/internal/logging"
	"github.com/kazumasakawahara/claude-bridge/internal/project"
	"github.com/kazumasakawahara/claude-bridge/internal/service"
	"github.com/kazumasakawahara/claude-bridge/internal/workspace"
)

// Env bundles the dependencies every command needs: resolved workspace
// paths, settings, the automation document, and the request store.
type Env struct {
	Settings       *config.Settings
	Automation     *config.Automation
	AutomationPath string
	Paths          workspace.Paths
	Logger         *logging.Logger
	Store          *state.Store
	ErrorLog       *state.ErrorLog
}

// initEnv loads configuration and prepares the workspace. Every command
// goes through here so flags, env vars, and config files resolve the same
// way everywhere.
func initEnv() (*Env, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	settings, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	logger := logging.New(logging.Config{
		Level:  settings.Log.Level,
		Format: settings.Log.Format,
	})

	paths, err := workspace.Resolve(settings.Workspace.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace: %w", err)
	}
	if err := paths.EnsureAll(); err != nil {
		return nil, fmt.Errorf("preparing workspace: %w", err)
	}

	autoPath := settings.Desktop.ConfigFile
	if autoPath == "" {
		autoPath = paths.AutomationConfig()
	}
	automation, err := config.LoadAutomation(autoPath)
	if err != nil {
		// The document is still usable; the defaults filled the gaps.
		logger.Warn("automation config problem", "error", err)
	}

	return &Env{
		Settings:       settings,
		Automation:     automation,
		AutomationPath: autoPath,
		Paths:          paths,
		Logger:         logger,
		Store:          state.NewStore(paths),
		ErrorLog:       state.NewErrorLog(paths.ErrorLog()),
	}, nil
}

// newBridge wires the full workflow engine over an Env.
func newBridge(env *Env) *service.Bridge {
	launcher := desktop.NewLauncher(env.Automation, env.Logger)
	return service.NewBridge(env.Automation, env.Paths, env.Store, launcher, env.Logger,
		service.WithErrorHandler(service.NewHandler(env.Logger, env.ErrorLog)),
	)
}

// recordProjectUse notes the project in the registry. Registry trouble
// never fails the command that triggered it.
func recordProjectUse(env *Env, projectRoot string) {
	registry, err := project.NewFileRegistry(env.Paths.RegistryFile())
	if err != nil {
		env.Logger.Warn("project registry unavailable", "error", err)
		return
	}
	if _, err := registry.RecordUse(projectRoot); err != nil {
		env.Logger.Warn("recording project use", "error", err)
	}
}

// termWidth returns the terminal width, or a sane default when stdout is
// not a terminal.
func termWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 100
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// printExecutionReport summarizes an apply run on stdout.
func printExecutionReport(result *core.ExecutionResult) {
	fmt.Println()
	if result.Success {
		fmt.Println("Applied", result.RequestID)
	} else {
		fmt.Println("Apply incomplete for", result.RequestID)
	}
	if result.StepsTotal > 0 {
		fmt.Printf("  steps: %d/%d\n", result.StepsCompleted, result.StepsTotal)
	}
	if len(result.FilesModified) > 0 {
		fmt.Println("  files modified:")
		for _, path := range result.FilesModified {
			fmt.Println("    ", path)
		}
	}
	if len(result.BackupsCreated) > 0 {
		fmt.Printf("  backups created: %d\n", len(result.BackupsCreated))
	}
	for _, execErr := range result.Errors {
		fmt.Println("  error:", execErr.Error())
	}
	if !result.Success && result.RollbackAvailable {
		fmt.Println("  changes were rolled back to the pre-apply checkpoint")
	}
}
