package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isectech/ctf-datagen/shared/common"
)

// Argument validators returning INVALID_INPUT so misuse exits with status 2.

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError(cmd, fmt.Sprintf("unexpected argument: %s", args[0]))
	}
	return nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError(cmd, fmt.Sprintf("accepts %d arg(s), received %d", n, len(args)))
		}
		return nil
	}
}

func minimumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return usageError(cmd, fmt.Sprintf("requires at least %d arg(s), received %d", n, len(args)))
		}
		return nil
	}
}

func usageError(cmd *cobra.Command, msg string) error {
	return common.NewAppErrorWithDetails(common.ErrCodeInvalidInput, msg,
		fmt.Sprintf("run '%s --help' for usage", cmd.CommandPath()))
}
