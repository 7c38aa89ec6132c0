package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCmdValidate(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the workflows, then list them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			c := a.Registry().Catalog()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WORKFLOW\tNODES\tFOUNDATION\tDESCRIPTION")
			for _, name := range c.WorkflowNames() {
				wf, _ := c.Workflow(name)
				fmt.Fprintf(w, "%s\t%d\t%t\t%s\n", wf.Name, len(wf.NodeIDs()), wf.RequiresFoundation, wf.Description)
			}
			return w.Flush()
		},
	}
}
