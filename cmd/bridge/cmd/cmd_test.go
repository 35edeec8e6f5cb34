package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTestWorkspace points every command at a fresh workspace for the
// duration of one test.
func useTestWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	viper.Set("workspace.root", dir)
	t.Cleanup(func() { viper.Set("workspace.root", "") })
	return dir
}

// captureStdout runs fn with stdout redirected into a buffer.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	runErr := fn()

	require.NoError(t, w.Close())
	os.Stdout = old

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	return buf.String(), runErr
}

func TestCommandRegistration(t *testing.T) {
	want := []string{
		"init", "new <title>", "run <title>", "check <request-id>",
		"response <request-id>", "apply <request-id>", "list", "archive <request-id>",
		"checkpoint", "configure", "dashboard", "doctor", "projects", "version",
	}
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Use] = true
	}
	for _, use := range want {
		assert.True(t, registered[use], "command %q not registered", use)
	}
}

func TestRootCommandStructure(t *testing.T) {
	assert.Equal(t, "bridge", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestCheckpointSubcommands(t *testing.T) {
	subs := make(map[string]bool)
	for _, c := range checkpointCmd.Commands() {
		subs[c.Use] = true
	}
	assert.True(t, subs["list"])
	assert.True(t, subs["rollback <checkpoint-id>"])
}

func TestVersionCommand(t *testing.T) {
	SetVersion("v1.2.3", "abc123def", "2024-01-15")

	output, err := captureStdout(t, func() error {
		versionCmd.Run(versionCmd, []string{})
		return nil
	})
	require.NoError(t, err)

	assert.Contains(t, output, "claude-bridge v1.2.3")
	assert.Contains(t, output, "commit: abc123def")
	assert.Contains(t, output, "built:  2024-01-15")
}

func TestInitEnvPreparesWorkspace(t *testing.T) {
	dir := useTestWorkspace(t)

	env, err := initEnv()
	require.NoError(t, err)

	assert.Equal(t, dir, env.Paths.Root)
	assert.DirExists(t, env.Paths.Requests)
	assert.DirExists(t, env.Paths.Responses)
	assert.FileExists(t, env.Paths.AutomationConfig())
	assert.Equal(t, env.Paths.AutomationConfig(), env.AutomationPath)
	require.NotNil(t, env.Automation)
	assert.True(t, env.Automation.Enabled)
	require.NotNil(t, env.Store)
	require.NotNil(t, env.ErrorLog)
}

func TestInitEnvHonorsDesktopConfigOverride(t *testing.T) {
	useTestWorkspace(t)
	override := t.TempDir() + "/auto.json"
	viper.Set("desktop.config_file", override)
	t.Cleanup(func() { viper.Set("desktop.config_file", "") })

	env, err := initEnv()
	require.NoError(t, err)

	assert.Equal(t, override, env.AutomationPath)
	assert.FileExists(t, override)
}
