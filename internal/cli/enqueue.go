package cli

import (
	"fmt"

	"github.com/specialistvlad/layergen/internal/ctxlog"
	"github.com/spf13/cobra"
)

func newCmdEnqueue(g *globalOptions) *cobra.Command {
	o := &regionOptions{}
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Publish a run request for a worker and print its run id",
		Args:  cobra.NoArgs,
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

			p, err := a.Producer()
			if err != nil {
				return usageError(err)
			}
			defer p.Close()

			ctx := a.Context(cmd.Context())
			var id string
			if o.job != "" {
				if _, ok := a.Registry().Job(o.job); !ok {
					return usageError(fmt.Errorf("unknown job %q", o.job))
				}
				id, err = p.EnqueueJob(ctx, o.job, o.region, o.accountID, globals)
			} else {
				if _, err := a.Registry().Resolve(o.workflow); err != nil {
					return usageError(err)
				}
				id, err = p.EnqueueWorkflow(ctx, o.workflow, o.region, o.accountID, globals)
			}
			if err != nil {
				return err
			}
			ctxlog.FromContext(ctx).Debug("Run enqueued.", "run_id", id)
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	o.addFlags(cmd)
	return cmd
}
