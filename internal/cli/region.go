package cli

import (
	"errors"

	"github.com/specialistvlad/layergen/internal/model"
	"github.com/specialistvlad/layergen/internal/session"
	"github.com/spf13/cobra"
)

// regionOptions are the flags naming what to run and where.
type regionOptions struct {
	workflow  string
	job       string
	region    model.Region
	accountID string
	startYear int
	endYear   int
}

func (o *regionOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.workflow, "workflow", "w", "", "Workflow to run, for example map_2")
	cmd.Flags().StringVar(&o.job, "job", "", "Run a single job instead of a workflow")
	cmd.Flags().StringVar(&o.region.State, "state", "", "State of the region")
	cmd.Flags().StringVar(&o.region.District, "district", "", "District of the region")
	cmd.Flags().StringVar(&o.region.Block, "block", "", "Block of the region")
	cmd.Flags().StringVar(&o.accountID, "account-id", "", "Compute account the run is billed to")
	cmd.Flags().IntVar(&o.startYear, "start-year", 0, "First year of time-series layers")
	cmd.Flags().IntVar(&o.endYear, "end-year", 0, "Last year of time-series layers")
	cmd.MarkFlagsMutuallyExclusive("workflow", "job")
}

// validate checks the flags and returns the run-wide years. Years are only
// set when their flag was given.
func (o *regionOptions) validate(cmd *cobra.Command) (session.GlobalArgs, error) {
	var g session.GlobalArgs
	if o.workflow == "" && o.job == "" {
		return g, usageError(errors.New("one of --workflow or --job is required"))
	}
	if err := o.region.Validate(); err != nil {
		return g, usageError(err)
	}
	if cmd.Flags().Changed("start-year") {
		y := o.startYear
		g.StartYear = &y
	}
	if cmd.Flags().Changed("end-year") {
		y := o.endYear
		g.EndYear = &y
	}
	if g.StartYear != nil && g.EndYear != nil && *g.StartYear > *g.EndYear {
		return g, usageError(errors.New("--start-year must not be after --end-year"))
	}
	return g, nil
}
