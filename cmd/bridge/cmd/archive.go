package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <request-id>",
	Short: "Move a completed request out of the active workspace",
	Long: `Move a request, its response, and its analysis directory into the
archive. Refused while the response is missing; archive only what is done.`,
	Args: cobra.ExactArgs(1),
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(_ *cobra.Command, args []string) error {
	env, err := initEnv()
	if err != nil {
		return err
	}

	requestID, err := env.Store.ResolveID(args[0])
	if err != nil {
		return err
	}
	if err := env.Store.Archive(requestID); err != nil {
		return err
	}

	fmt.Println("Archived", requestID, "to", env.Paths.ArchiveDir(requestID))
	return nil
}
