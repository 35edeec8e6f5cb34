package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <request-id>",
	Short: "Check whether a response has arrived",
	Long: `Check the workspace for a response to the given request. Partial ids
work when they match exactly one known request:

  bridge check 0821          # matches req_20250821_* if unambiguous`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(_ *cobra.Command, args []string) error {
	env, err := initEnv()
	if err != nil {
		return err
	}

	requestID, err := env.Store.ResolveID(args[0])
	if err != nil {
		return err
	}

	if !env.Store.ResponseExists(requestID) {
		fmt.Println("No response yet for", requestID)
		fmt.Println("  expected at:", env.Paths.ResponseFile(requestID))
		return nil
	}

	resp, err := env.Store.ReadResponse(requestID)
	if err != nil {
		return fmt.Errorf("response exists but is unreadable: %w", err)
	}

	fmt.Println("Response ready for", requestID)
	if cause := resp.RootCause(); cause != "" {
		fmt.Println("  root cause:", cause)
	}
	fmt.Printf("  recommendations: %d, steps: %d, files: %d\n",
		len(resp.Recommendations()), len(resp.ImplementationSteps()), len(resp.CodeFiles()))
	fmt.Printf("  view it with:  bridge response %s\n", requestID)
	fmt.Printf("  apply it with: bridge apply %s\n", requestID)

	return nil
}
