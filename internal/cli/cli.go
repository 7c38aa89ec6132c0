package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// usageError marks an error caused by bad input.
func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// NewRootCmd builds the layergen command tree. Command output goes to outW,
// logs and errors to errW.
func NewRootCmd(outW, errW io.Writer) *cobra.Command {
	o := newGlobalOptions()
	cmd := &cobra.Command{
		Use:   "layergen",
		Short: "Generate the map layers of an administrative block in dependency order",
		Long: `layergen runs layer-generation workflows for one region (state, district,
block). Workflows are trees of compute jobs declared in HCL; a job runs only
after its parent succeeded and its declared dependencies are satisfied.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(outW)
	cmd.SetErr(errW)
	o.addFlags(cmd)

	cmd.AddCommand(
		newCmdRun(o),
		newCmdEnqueue(o),
		newCmdWorker(o),
		newCmdValidate(o),
	)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
	return cmd
}

// Execute runs the command line args against the command tree. Errors that
// are not already ExitErrors exit with code 1.
func Execute(ctx context.Context, outW, errW io.Writer, args []string) error {
	cmd := NewRootCmd(outW, errW)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return &ExitError{Code: 1, Message: err.Error()}
}
