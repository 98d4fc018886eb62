package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tracetower/pkg/errors"
)

// Exit statuses returned by Execute.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitUsage     = 2
	ExitCancelled = 130 // shell convention for SIGINT
)

// Execute runs the tracetower command line and returns the process exit
// status. Failures are reported on stderr by their user-facing message; an
// interrupted command exits silently with ExitCancelled.
func Execute(ctx context.Context, args []string, stderr io.Writer) int {
	c := New(stderr, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetErr(stderr)
	root.SilenceErrors = true
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s (see %s --help)", err, cmd.CommandPath())
	})

	err := root.ExecuteContext(ctx)
	status := exitStatus(err)
	if err != nil && status != ExitCancelled {
		fmt.Fprintln(stderr, styleIconError.Render(iconError)+" "+errors.UserMessage(err))
		c.Logger.Debug("command failed", "error", err)
	}
	return status
}

func exitStatus(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case stderrors.Is(err, context.Canceled), errors.Is(err, errors.ErrCodeExportCancelled):
		return ExitCancelled
	case errors.Is(err, errors.ErrCodeInvalidInput), errors.Is(err, errors.ErrCodeInvalidFormat),
		errors.Is(err, errors.ErrCodeInvalidSpeed), errors.Is(err, errors.ErrCodeInvalidPath):
		return ExitUsage
	}
	return ExitFailure
}
