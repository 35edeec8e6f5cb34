package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kazumasakawahara/claude-bridge/internal/core"
	"github.com/kazumasakawahara/claude-bridge/internal/service"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect and restore pre-apply checkpoints",
}

var checkpointListCmd = &cobra.Command{
	Use:   "list",
	Short: "List checkpoints, newest first",
	RunE:  runCheckpointList,
}

var checkpointRollbackCmd = &cobra.Command{
	Use:   "rollback <checkpoint-id>",
	Short: "Restore every file recorded in a checkpoint",
	Long: `Restore the files recorded in a checkpoint to their snapshotted
contents. Files that were deleted since are recreated. Restores are
best-effort: a file whose backup is missing is skipped with a warning.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheckpointRollback,
}

var checkpointYes bool

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointListCmd)
	checkpointCmd.AddCommand(checkpointRollbackCmd)
	checkpointRollbackCmd.Flags().BoolVarP(&checkpointYes, "yes", "y", false, "roll back without the approval prompt")
}

func runCheckpointList(_ *cobra.Command, _ []string) error {
	env, err := initEnv()
	if err != nil {
		return err
	}

	checkpoints, err := service.NewCheckpointManager(env.Paths, env.Logger).List()
	if err != nil {
		return err
	}
	if len(checkpoints) == 0 {
		fmt.Println("No checkpoints")
		return nil
	}

	printCheckpointTable(os.Stdout, checkpoints)
	return nil
}

func printCheckpointTable(w io.Writer, checkpoints []core.Checkpoint) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECKPOINT\tCREATED\tFILES\tDESCRIPTION")
	for _, cp := range checkpoints {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			cp.CheckpointID, cp.Timestamp, len(cp.Files), cp.Description)
	}
	_ = tw.Flush()
}

func runCheckpointRollback(_ *cobra.Command, args []string) error {
	env, err := initEnv()
	if err != nil {
		return err
	}
	checkpointID := args[0]

	if !checkpointYes {
		executor := service.NewProposalExecutor(env.Paths, env.Logger)
		if !executor.RequestUserApproval(fmt.Sprintf("Roll back to %s?", checkpointID)) {
			fmt.Println("Rollback cancelled")
			return nil
		}
	}

	manager := service.NewCheckpointManager(env.Paths, env.Logger)
	if err := manager.Rollback(checkpointID, nil); err != nil {
		return err
	}

	fmt.Println("Rolled back to", checkpointID)
	return nil
}
