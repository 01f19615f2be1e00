package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isectech/ctf-datagen/delivery/cli/ui"
	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/infrastructure/catalog"
)

func newShowCmd(a *app) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show <exercise>",
		Short: "describe one exercise",
		Long: `Show an exercise's objective, tables and hints.

--reveal adds the reference solution query and the flag.`,
		Example: `  $ ctf-datagen show string-theory
  $ ctf-datagen show port-scanner --reveal`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Load()
			if err != nil {
				return err
			}
			entry, err := c.Get(entity.ExerciseID(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderExercise(entry, reveal))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "show the solution and flag")
	return cmd
}
