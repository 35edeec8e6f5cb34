package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kazumasakawahara/claude-bridge/internal/project"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects that have created requests",
	Long:  "List every project root seen at request creation, most recently used first.",
	RunE:  runProjects,
}

var projectsJSON bool

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.Flags().BoolVar(&projectsJSON, "json", false, "print the registry as JSON")
}

func runProjects(_ *cobra.Command, _ []string) error {
	env, err := initEnv()
	if err != nil {
		return err
	}

	registry, err := project.NewFileRegistry(env.Paths.RegistryFile())
	if err != nil {
		return err
	}
	projects, err := registry.List()
	if err != nil {
		return err
	}

	if projectsJSON {
		return printJSON(projects)
	}
	if len(projects) == 0 {
		fmt.Println("No projects recorded yet")
		return nil
	}

	printProjectTable(os.Stdout, projects)
	return nil
}

func printProjectTable(w io.Writer, projects []*project.Project) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tREQUESTS\tLAST USED\tPATH")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
			p.Name, p.RequestCount, p.LastUsed.Format("2006-01-02 15:04"), p.Path)
	}
	_ = tw.Flush()
}
