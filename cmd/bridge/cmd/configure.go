package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kazumasakawahara/claude-bridge/internal/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Edit the automation settings",
	Long: `Walk through the automation settings interactively. Press Enter at any
question to keep the current value. Out-of-range answers are asked again.

  bridge configure          # interactive
  bridge configure --quick  # reset to defaults after one confirmation
  bridge configure --show   # print the current settings`,
	RunE: runConfigure,
}

var (
	configureShow  bool
	configureQuick bool
)

func init() {
	rootCmd.AddCommand(configureCmd)
	configureCmd.Flags().BoolVar(&configureShow, "show", false, "print the current settings and exit")
	configureCmd.Flags().BoolVar(&configureQuick, "quick", false, "save the defaults after one confirmation")
}

func runConfigure(_ *cobra.Command, _ []string) error {
	env, err := initEnv()
	if err != nil {
		return err
	}

	if configureShow {
		printConfigSummary(os.Stdout, env.Automation)
		return nil
	}

	p := newPrompter(os.Stdin, os.Stdout)

	if configureQuick {
		cfg := config.DefaultAutomation()
		printConfigSummary(os.Stdout, cfg)
		if !p.yesNo("Save these settings?", true) {
			fmt.Println("Configuration cancelled")
			return nil
		}
		return saveAutomation(env, cfg)
	}

	cfg := env.Automation
	fmt.Println("claude-bridge configuration")
	fmt.Println("Answer each question or press Enter to keep the current value.")
	fmt.Println()

	cfg.Enabled = p.yesNo("Enable automation?", cfg.Enabled)
	if cfg.Enabled {
		cfg.AutoLaunchDesktop = p.yesNo("Launch the desktop app automatically?", cfg.AutoLaunchDesktop)
	} else {
		fmt.Println("Automation disabled; requests will use manual transfer.")
	}

	cfg.LaunchTimeout = p.intInRange("Launch timeout in seconds", cfg.LaunchTimeout, 5, 120)
	cfg.ResponseTimeout = p.intInRange("Response timeout in seconds", cfg.ResponseTimeout, 60, 7200)

	if p.yesNo("Tune advanced settings?", false) {
		cfg.PollingInterval = p.floatInRange("Polling interval in seconds", cfg.PollingInterval, 0.5, 10.0)
		cfg.MaxRetries = p.intInRange("Maximum launch retries", cfg.MaxRetries, 0, 10)
		cfg.CreateBackups = p.yesNo("Create backups before applying changes?", cfg.CreateBackups)
		cfg.AutoExecuteProposals = p.yesNo("Apply proposals without an approval prompt?", cfg.AutoExecuteProposals)
	}

	printConfigSummary(os.Stdout, cfg)
	if !p.yesNo("Save these settings?", true) {
		fmt.Println("Configuration cancelled")
		return nil
	}
	if p.err != nil {
		return fmt.Errorf("configuration cancelled: %w", p.err)
	}
	return saveAutomation(env, cfg)
}

func saveAutomation(env *Env, cfg *config.Automation) error {
	if err := config.NewValidator().ValidateAutomation(cfg); err != nil {
		return fmt.Errorf("settings rejected: %w", err)
	}
	if err := cfg.Save(env.AutomationPath); err != nil {
		return err
	}
	fmt.Println("Saved", env.AutomationPath)
	return nil
}

func printConfigSummary(w io.Writer, cfg *config.Automation) {
	fmt.Fprintln(w, "Automation settings:")
	fmt.Fprintln(w, "  enabled:            ", yesNoWord(cfg.Enabled))
	fmt.Fprintln(w, "  auto-launch desktop:", yesNoWord(cfg.AutoLaunchDesktop))
	fmt.Fprintln(w, "  desktop app:        ", cfg.DesktopAppName)
	fmt.Fprintf(w, "  launch timeout:      %ds\n", cfg.LaunchTimeout)
	fmt.Fprintf(w, "  response timeout:    %ds\n", cfg.ResponseTimeout)
	fmt.Fprintf(w, "  polling interval:    %.1fs\n", cfg.PollingInterval)
	fmt.Fprintf(w, "  max launch retries:  %d\n", cfg.MaxRetries)
	fmt.Fprintln(w, "  create backups:     ", yesNoWord(cfg.CreateBackups))
	fmt.Fprintln(w, "  auto-execute:       ", yesNoWord(cfg.AutoExecuteProposals))
}

func yesNoWord(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// prompter asks questions on out and reads answers from in. The first read
// failure sticks: every later question silently keeps its default, and the
// caller checks err before acting on the answers.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	err error
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (p *prompter) read() (string, bool) {
	if p.err != nil {
		return "", false
	}
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		p.err = err
		return "", false
	}
	return strings.TrimSpace(line), true
}

func (p *prompter) yesNo(question string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(p.out, "%s [%s]: ", question, hint)
		answer, ok := p.read()
		if !ok || answer == "" {
			return def
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		fmt.Fprintln(p.out, "Please answer y or n")
	}
}

func (p *prompter) intInRange(question string, def, min, max int) int {
	for {
		fmt.Fprintf(p.out, "%s [%d]: ", question, def)
		answer, ok := p.read()
		if !ok || answer == "" {
			return def
		}
		value, err := strconv.Atoi(answer)
		if err != nil {
			fmt.Fprintln(p.out, "Please enter a whole number")
			continue
		}
		if value < min || value > max {
			fmt.Fprintf(p.out, "Please enter a value between %d and %d\n", min, max)
			continue
		}
		return value
	}
}

func (p *prompter) floatInRange(question string, def, min, max float64) float64 {
	for {
		fmt.Fprintf(p.out, "%s [%.1f]: ", question, def)
		answer, ok := p.read()
		if !ok || answer == "" {
			return def
		}
		value, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			fmt.Fprintln(p.out, "Please enter a number")
			continue
		}
		if value < min || value > max {
			fmt.Fprintf(p.out, "Please enter a value between %.1f and %.1f\n", min, max)
			continue
		}
		return value
	}
}
