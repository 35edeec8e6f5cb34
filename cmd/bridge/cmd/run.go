package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kazumasakawahara/claude-bridge/internal/core"
)

var runCmd = &cobra.Command{
	Use:   "run <title>",
	Short: "Run the full automated workflow",
	Long: `Create a help request, launch the desktop app, wait for the response,
and apply the proposed changes.

Every failure after the request is written degrades to manual mode: the
request document stays in the workspace with instructions for handing it
over by hand. Ctrl-C while waiting stops the wait the same way a timeout
does.

Examples:
  bridge run "panic in cache layer" -p "concurrent map write under load"
  bridge run "slow startup" -p "3s before the prompt appears" --no-apply`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

var (
	runProblem string
	runTried   []string
	runFiles   []string
	runErrors  string
	runContext string
	runNoApply bool
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runProblem, "problem", "p", "", "what is going wrong")
	runCmd.Flags().StringArrayVarP(&runTried, "tried", "t", nil, "a solution already tried (repeatable)")
	runCmd.Flags().StringArrayVarP(&runFiles, "file", "f", nil, "file to copy in for analysis (repeatable)")
	runCmd.Flags().StringVarP(&runErrors, "errors", "e", "", "error messages observed")
	runCmd.Flags().StringVarP(&runContext, "context", "c", "", "extra context for the analysis")
	runCmd.Flags().BoolVar(&runNoApply, "no-apply", false, "stop after the response arrives, do not apply proposals")
}

func runRun(_ *cobra.Command, args []string) error {
	env, err := initEnv()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Println("\nReceived interrupt, stopping...")
		cancel()
	}()

	bridge := newBridge(env)
	draft := &core.HelpRequest{
		Title:          strings.Join(args, " "),
		Problem:        runProblem,
		Tried:          runTried,
		FilesToAnalyze: runFiles,
		ErrorMessages:  runErrors,
		Context:        runContext,
	}
	result, err := bridge.Run(ctx, draft)
	if err != nil {
		return err
	}
	recordProjectUse(env, draft.ProjectRoot)

	switch result.Mode {
	case core.RunManualMode:
		fmt.Println()
		fmt.Printf("Check for the reply later with: bridge check %s\n", result.RequestID)
		return nil

	case core.RunTimeout:
		fmt.Println()
		fmt.Printf("No response for %s yet. Check again with: bridge check %s\n",
			result.RequestID, result.RequestID)
		return nil

	case core.RunSuccess:
		fmt.Println()
		fmt.Println("Response received for", result.RequestID)
		if cause := result.Response.RootCause(); cause != "" {
			fmt.Println("  root cause:", cause)
		}

		if runNoApply {
			bridge.CompleteRun()
			fmt.Printf("Inspect it with: bridge response %s\n", result.RequestID)
			fmt.Printf("Apply it with:   bridge apply %s\n", result.RequestID)
			return nil
		}

		execResult := bridge.ExecuteResponse(result.Response)
		printExecutionReport(execResult)
		if !execResult.Success && len(execResult.Errors) > 0 {
			return fmt.Errorf("applying response %s failed", result.RequestID)
		}
		return nil
	}

	return fmt.Errorf("unexpected run mode %q", result.Mode)
}
