package cli

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/specialistvlad/layergen/internal/nodestore"
	"github.com/specialistvlad/layergen/internal/orchestrator"
	"github.com/spf13/cobra"
)

func newCmdRun(g *globalOptions) *cobra.Command {
	o := &regionOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one workflow or job synchronously and print its summary",
		Example: `  layergen run --workflow map_2 --state Bihar --district Jamui --block Barhat --account-id 7 --end-year 2023
  layergen run --job clip_lulc_v3 --state Bihar --district Jamui --block Barhat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			globals, err := o.validate(cmd)
			if err != nil {
				return err
			}
			a, err := g.newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			req := orchestrator.Request{
				Workflow:  o.workflow,
				Region:    o.region,
				AccountID: o.accountID,
				Globals:   globals,
			}
			var sum *orchestrator.Summary
			if o.job != "" {
				sum = a.RunJob(cmd.Context(), o.job, req)
			} else {
				sum = a.Run(cmd.Context(), req)
			}
			return printSummary(cmd, sum)
		},
	}
	o.addFlags(cmd)
	return cmd
}

// printSummary writes sum as JSON and maps its outcome to an exit code.
func printSummary(cmd *cobra.Command, sum *orchestrator.Summary) error {
	b, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))

	switch sum.Status {
	case orchestrator.StatusAborted:
		return &ExitError{Code: 1, Message: "run aborted: " + sum.Reason}
	case orchestrator.StatusCancelled:
		return &ExitError{Code: 130, Message: "run cancelled: " + sum.Reason}
	}
	if n := sum.Count(nodestore.StatusFailed); n > 0 {
		return &ExitError{Code: 3, Message: fmt.Sprintf("%d node(s) failed", n)}
	}
	return nil
}
