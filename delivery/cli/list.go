package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isectech/ctf-datagen/delivery/cli/ui"
	"github.com/isectech/ctf-datagen/infrastructure/catalog"
	"github.com/isectech/ctf-datagen/infrastructure/compose"
)

func newListCmd(a *app) *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "list available exercises",
		Long: `List the exercise ids this generator knows, in catalog order.

With --details, groups the exercises by belt and shows title, points and the
table each exercise uses.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !details {
				for _, id := range compose.NewRegistry().Exercises() {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			c, err := catalog.Load()
			if err != nil {
				return err
			}
			for _, belt := range catalog.Belts {
				entries := c.ByBelt(belt)
				if len(entries) == 0 {
					continue
				}
				fmt.Fprintln(out, ui.RenderBeltHeading(belt, entries))
				fmt.Fprintln(out, ui.RenderExerciseTable(entries))
			}
			fmt.Fprintln(out, ui.Styles.Muted.Render(fmt.Sprintf("%d exercises, %d points", len(c.Exercises), c.TotalPoints())))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&details, "details", "d", false, "show title, belt, points and table")
	return cmd
}
