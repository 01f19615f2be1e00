package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/isectech/ctf-datagen/delivery/cli/ui"
	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/domain/service"
	"github.com/isectech/ctf-datagen/infrastructure/compose"
	"github.com/isectech/ctf-datagen/infrastructure/sink"
	"github.com/isectech/ctf-datagen/infrastructure/storage"
	"github.com/isectech/ctf-datagen/infrastructure/verify"
	"github.com/isectech/ctf-datagen/shared/common"
	"github.com/isectech/ctf-datagen/usecase"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		all       bool
		exercises []string
	)

	cmd := &cobra.Command{
		Use:     "generate [exercise...]",
		Aliases: []string{"gen"},
		Short:   "generate exercise datasets",
		Long: `Generate the datasets of one or more exercises.

Each exercise is written to <output>/<exercise>/ as one file per table plus a
manifest.json. Unknown exercise ids are reported and skipped; the others are
still generated and the command exits with status 2.`,
		Example: `  $ ctf-datagen generate hello-kql counting-101
  $ ctf-datagen generate -e port-scanner -o /tmp/kql
  $ ctf-datagen generate --all --seed 1337`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := append(append([]string{}, args...), exercises...)
			if all {
				names = names[:0]
				for _, id := range entity.AllExercises {
					names = append(names, string(id))
				}
			}
			if len(names) == 0 {
				return common.NewAppErrorWithDetails(common.ErrCodeInvalidInput,
					"no exercise selected", "pass exercise ids or --all")
			}
			return a.runGenerate(cmd, names)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "generate every exercise")
	cmd.Flags().StringSliceVarP(&exercises, "exercise", "e", nil, "exercise id (repeatable)")
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, names []string) error {
	ctx := cmd.Context()
	ref, err := a.cfg.ReferenceTime()
	if err != nil {
		return common.WrapError(err, common.ErrCodeInvalidInput, "invalid reference time")
	}

	var verifier service.DatasetVerifier
	if a.cfg.Generator.Verify {
		verifier = verify.NewVerifier(a.logger)
	}
	repo := storage.NewFileRepository(a.cfg.Output, a.logger, a.metrics)

	sinks, err := sink.NewEnabled(ctx, a.cfg.Sinks, a.logger)
	if err != nil {
		return err
	}
	defer sink.CloseAll(sinks, a.logger)
	defer a.flushMetrics()

	uc := usecase.NewGenerateDatasetUseCase(compose.NewRegistry(), verifier, repo, sinks, a.logger, a.metrics)
	resp, err := uc.Execute(ctx, &usecase.GenerateRequest{
		Exercises:     names,
		Seed:          a.cfg.Generator.Seed,
		ReferenceTime: ref,
		Parallelism:   a.cfg.Generator.Parallelism,
	})
	if resp != nil {
		if len(resp.Results) > 0 {
			ui.PrintSuccess("Generated %d dataset(s)", len(resp.Results))
			ui.Println(ui.RenderGenerateSummary(resp.Results, repo.Root()))
		}
		if len(resp.Unknown) > 0 {
			ui.PrintWarning("Unknown exercise(s): %s", strings.Join(resp.Unknown, ", "))
			ui.PrintInfo("Run 'ctf-datagen list' to see available exercises")
		}
	}
	return err
}
