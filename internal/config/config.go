package config

// Settings holds the CLI application configuration. The automation
// tunables that govern a workflow run live in Automation, loaded from
// their own document inside the workspace.
type Settings struct {
	Log       LogSettings       `mapstructure:"log"`
	Workspace WorkspaceSettings `mapstructure:"workspace"`
	Desktop   DesktopSettings   `mapstructure:"desktop"`
}

// LogSettings configures logging behavior.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// WorkspaceSettings configures where the bridge keeps its documents.
type WorkspaceSettings struct {
	// Root is the workspace base directory. Empty means the default
	// under the user's home directory.
	Root string `mapstructure:"root"`
}

// DesktopSettings configures the desktop application integration.
type DesktopSettings struct {
	// ConfigFile overrides the automation document path. Empty means
	// the default location inside the workspace.
	ConfigFile string `mapstructure:"config_file"`
}
