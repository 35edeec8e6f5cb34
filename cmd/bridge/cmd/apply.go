package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <request-id>",
	Short: "Apply the proposals from a response",
	Long: `Apply the implementation steps and file changes proposed in a response.

A checkpoint of every file about to change is taken first (unless backups
are disabled), and the whole apply rolls back to it when any part fails.
An approval prompt shows the proposal summary unless --yes is given or
auto_execute_proposals is enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

var (
	applyYes      bool
	applyNoBackup bool
)

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().BoolVarP(&applyYes, "yes", "y", false, "apply without the approval prompt")
	applyCmd.Flags().BoolVar(&applyNoBackup, "no-backup", false, "skip the pre-apply checkpoint")
}

func runApply(_ *cobra.Command, args []string) error {
	env, err := initEnv()
	if err != nil {
		return err
	}
	if applyYes {
		env.Automation.AutoExecuteProposals = true
	}
	if applyNoBackup {
		env.Automation.CreateBackups = false
	}

	requestID, err := env.Store.ResolveID(args[0])
	if err != nil {
		return err
	}
	resp, err := env.Store.ReadResponse(requestID)
	if err != nil {
		return err
	}

	result := newBridge(env).ExecuteResponse(resp)
	printExecutionReport(result)
	if !result.Success && len(result.Errors) > 0 {
		return fmt.Errorf("applying response %s failed", requestID)
	}
	return nil
}
