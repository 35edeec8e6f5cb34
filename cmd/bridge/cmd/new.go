package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kazumasakawahara/claude-bridge/internal/clip"
	"github.com/kazumasakawahara/claude-bridge/internal/core"
)

var newCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Create a help request without launching the desktop app",
	Long: `Write a help request document into the workspace and print manual
transfer instructions. Files named with --file are copied into the
request's analysis directory so the desktop app can read them.

Use 'bridge run' instead for the automated round trip.

Examples:
  bridge new "panic in cache layer" -p "concurrent map write under load"
  bridge new "flaky test" -p "TestWatcher times out on CI" -f internal/service/watcher.go
  bridge new "build breaks on linux" -p "cgo error" --copy`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNew,
}

var (
	newProblem string
	newTried   []string
	newFiles   []string
	newErrors  string
	newContext string
	newCopy    bool
	newJSON    bool
)

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVarP(&newProblem, "problem", "p", "", "what is going wrong")
	newCmd.Flags().StringArrayVarP(&newTried, "tried", "t", nil, "a solution already tried (repeatable)")
	newCmd.Flags().StringArrayVarP(&newFiles, "file", "f", nil, "file to copy in for analysis (repeatable)")
	newCmd.Flags().StringVarP(&newErrors, "errors", "e", "", "error messages observed")
	newCmd.Flags().StringVarP(&newContext, "context", "c", "", "extra context for the analysis")
	newCmd.Flags().BoolVar(&newCopy, "copy", false, "copy the request JSON to the clipboard")
	newCmd.Flags().BoolVar(&newJSON, "json", false, "print the created request as JSON")
}

func runNew(_ *cobra.Command, args []string) error {
	env, err := initEnv()
	if err != nil {
		return err
	}

	created, err := env.Store.CreateRequest(&core.HelpRequest{
		Title:          strings.Join(args, " "),
		Problem:        newProblem,
		Tried:          newTried,
		FilesToAnalyze: newFiles,
		ErrorMessages:  newErrors,
		Context:        newContext,
	})
	if err != nil {
		return err
	}
	recordProjectUse(env, created.Request.ProjectRoot)

	if newJSON {
		return printJSON(created.Request)
	}

	fmt.Println("Created request", created.Request.RequestID)
	fmt.Println("  file:", created.RequestFile)
	if len(created.CopiedFiles) > 0 {
		fmt.Println("  analysis files:", strings.Join(created.CopiedFiles, ", "))
	}
	for _, skipped := range created.SkippedFiles {
		fmt.Println("  skipped (unreadable):", skipped)
	}

	if newCopy {
		copyRequestToClipboard(created.RequestFile)
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  1. Open the request file in the desktop app: %s\n", created.RequestFile)
	fmt.Printf("  2. Save the reply as: %s\n", env.Paths.ResponseFile(created.Request.RequestID))
	fmt.Printf("  3. Check for it with: bridge check %s\n", created.Request.RequestID)

	return nil
}

func copyRequestToClipboard(requestFile string) {
	data, err := os.ReadFile(requestFile)
	if err != nil {
		fmt.Println("  clipboard: could not read request back:", err)
		return
	}
	result, err := clip.WriteAll(string(data))
	if err != nil {
		fmt.Println("  clipboard:", err)
		return
	}
	switch result.Method {
	case clip.MethodFile:
		fmt.Println("  clipboard unavailable, wrote copy to:", result.FilePath)
	default:
		fmt.Println("  request JSON copied to clipboard")
	}
}
