package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kazumasakawahara/claude-bridge/internal/tui"
)

var responseCmd = &cobra.Command{
	Use:   "response <request-id>",
	Short: "Show a response's analysis",
	Long: `Render the analysis from a response: root cause, recommendations,
implementation steps, and proposed files. Use --json for the raw document.`,
	Args: cobra.ExactArgs(1),
	RunE: runResponse,
}

var responseJSON bool

func init() {
	rootCmd.AddCommand(responseCmd)
	responseCmd.Flags().BoolVar(&responseJSON, "json", false, "print the raw response document")
}

func runResponse(_ *cobra.Command, args []string) error {
	env, err := initEnv()
	if err != nil {
		return err
	}

	requestID, err := env.Store.ResolveID(args[0])
	if err != nil {
		return err
	}
	resp, err := env.Store.ReadResponse(requestID)
	if err != nil {
		return err
	}

	if responseJSON {
		return printJSON(resp)
	}

	fmt.Print(tui.RenderMarkdown(tui.AnalysisMarkdown(resp), termWidth()))
	return nil
}
