package cli

import (
	"github.com/spf13/cobra"

	"github.com/isectech/ctf-datagen/delivery/cli/ui"
	"github.com/isectech/ctf-datagen/infrastructure/storage"
	"github.com/isectech/ctf-datagen/infrastructure/verify"
	"github.com/isectech/ctf-datagen/usecase"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <dir> [exercise...]",
		Short: "re-check datasets on disk",
		Long: `Load datasets written by 'generate' and check that every flag is placed
where its exercise expects it. Without exercise ids, every dataset under <dir>
is checked.`,
		Example: `  $ ctf-datagen verify ./samples
  $ ctf-datagen verify ./samples brute-force-101`,
		Args: minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := a.cfg.Output
			out.Directory = args[0]
			repo := storage.NewFileRepository(out, a.logger, a.metrics)
			defer a.flushMetrics()

			uc := usecase.NewVerifyDatasetUseCase(repo, verify.NewVerifier(a.logger), a.logger, a.metrics)
			results, err := uc.Execute(cmd.Context(), args[1:])
			if len(results) > 0 {
				ui.Println(ui.RenderVerifyResults(results))
			}
			if err == nil {
				ui.PrintSuccess("%d dataset(s) verified", len(results))
			}
			return err
		},
	}
}
