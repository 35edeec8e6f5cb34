package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kazumasakawahara/claude-bridge/internal/core"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending requests",
	Long:  "List requests that have no response yet, oldest first.",
	RunE:  runList,
}

var listJSON bool

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print the pending requests as JSON")
}

func runList(_ *cobra.Command, _ []string) error {
	env, err := initEnv()
	if err != nil {
		return err
	}

	pending, err := env.Store.ListPending()
	if err != nil {
		return err
	}

	if listJSON {
		return printJSON(pending)
	}
	if len(pending) == 0 {
		fmt.Println("No pending requests")
		return nil
	}

	printPendingTable(os.Stdout, pending, time.Now())
	return nil
}

func printPendingTable(w io.Writer, pending []core.HelpRequest, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REQUEST\tAGE\tFILES\tTITLE")
	for _, req := range pending {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			req.RequestID, requestAge(req.Timestamp, now), len(req.FilesToAnalyze), req.Title)
	}
	_ = tw.Flush()
}

// requestAge renders how long a request has been waiting.
func requestAge(timestamp string, now time.Time) string {
	ts, err := time.ParseInLocation("20060102_150405", timestamp, time.Local)
	if err != nil {
		return "-"
	}
	d := now.Sub(ts)
	switch {
	case d < time.Minute:
		return "<1m"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
