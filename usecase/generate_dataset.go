package usecase

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/domain/service"
	"github.com/isectech/ctf-datagen/pkg/logging"
	"github.com/isectech/ctf-datagen/pkg/metrics"
	"github.com/isectech/ctf-datagen/shared/common"
)

// GenerateDatasetUseCase composes, checks, stores and publishes exercise datasets
type GenerateDatasetUseCase struct {
	composer service.DatasetComposer
	verifier service.DatasetVerifier
	repo     service.DatasetRepository
	sinks    []service.DatasetSink
	logger   *logging.Logger
	metrics  *metrics.Collector
}

// NewGenerateDatasetUseCase creates the use case. verifier may be nil to skip checks.
func NewGenerateDatasetUseCase(
	composer service.DatasetComposer,
	verifier service.DatasetVerifier,
	repo service.DatasetRepository,
	sinks []service.DatasetSink,
	logger *logging.Logger,
	metrics *metrics.Collector,
) *GenerateDatasetUseCase {
	return &GenerateDatasetUseCase{
		composer: composer,
		verifier: verifier,
		repo:     repo,
		sinks:    sinks,
		logger:   logger.WithComponent("generate"),
		metrics:  metrics,
	}
}

// GenerateRequest represents a request to generate datasets
type GenerateRequest struct {
	Exercises     []string
	Seed          int64
	ReferenceTime time.Time
	Parallelism   int
}

// ExerciseResult describes one generated dataset
type ExerciseResult struct {
	Exercise    entity.ExerciseID
	Tables      []TableSummary
	FlagRecords int
	Duration    time.Duration
	Published   []string
}

// TableSummary is the record count of one table
type TableSummary struct {
	Name    string
	Records int
}

// GenerateResponse lists what was produced, in request order
type GenerateResponse struct {
	Results []ExerciseResult
	Unknown []string
}

// Execute generates every known requested exercise. Unknown identifiers do not
// stop the others; they are listed in the response and reported through an
// UNKNOWN_EXERCISE error once the known ones are written. When an exercise
// fails, the response still lists the datasets finished before the failure.
func (uc *GenerateDatasetUseCase) Execute(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if req == nil || len(req.Exercises) == 0 {
		return nil, common.ErrInvalidInput("exercises")
	}

	ids, unknown := uc.resolve(req.Exercises)
	for _, name := range unknown {
		uc.logger.Error("Unknown exercise", logging.String("exercise", name))
		uc.metrics.RecordError(string(common.ErrCodeUnknownExercise), "generate")
	}

	resp := &GenerateResponse{
		Results: make([]ExerciseResult, len(ids)),
		Unknown: unknown,
	}

	ref := req.ReferenceTime.UTC().Truncate(time.Second)
	g, gctx := errgroup.WithContext(ctx)
	if req.Parallelism > 0 {
		g.SetLimit(req.Parallelism)
	}
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			result, err := uc.generate(gctx, id, req.Seed, ref)
			if err != nil {
				return err
			}
			resp.Results[i] = *result
			return nil
		})
	}
	err := g.Wait()
	resp.Results = completed(resp.Results)
	if err != nil {
		return resp, err
	}

	if len(unknown) > 0 {
		return resp, common.ErrUnknownExercise(strings.Join(unknown, ", "))
	}
	return resp, nil
}

func (uc *GenerateDatasetUseCase) generate(ctx context.Context, id entity.ExerciseID, seed int64, ref time.Time) (*ExerciseResult, error) {
	logger := uc.logger.WithExercise(string(id))
	timer := metrics.NewTimer()

	ds, err := uc.composer.Compose(id, seed, ref)
	if err != nil {
		return nil, err
	}
	flags := ds.CountContaining(entity.FlagMarker)
	uc.metrics.RecordGeneration(string(id), ds.TableCounts(), flags, timer.Duration())
	logger.LogDatasetEvent("generated", "Dataset generated",
		logging.Int("records", ds.RecordCount()),
		logging.Int("flag_records", flags))

	if uc.verifier != nil {
		if err := uc.verifier.Verify(ds); err != nil {
			if common.HasErrorCode(err, common.ErrCodeValidationFailed) {
				uc.metrics.RecordVerificationFailure(string(id))
			}
			return nil, err
		}
		logger.LogDatasetEvent("verified", "Dataset verified")
	}

	info := service.GenerationInfo{Exercise: id, Seed: seed, ReferenceTime: ref}
	if err := uc.repo.Save(ctx, ds, info); err != nil {
		uc.metrics.RecordError(errorType(err), "storage")
		return nil, err
	}
	logger.LogDatasetEvent("written", "Dataset written")

	result := &ExerciseResult{Exercise: id, FlagRecords: flags}
	for _, t := range ds.Tables() {
		result.Tables = append(result.Tables, TableSummary{Name: t.Name, Records: t.Len()})
	}

	for _, s := range uc.sinks {
		err := s.Publish(ctx, ds)
		uc.metrics.RecordSinkWrite(s.Name(), err)
		if err != nil {
			uc.metrics.RecordError(errorType(err), s.Name())
			return nil, err
		}
		result.Published = append(result.Published, s.Name())
		logger.LogDatasetEvent("published", "Dataset published", logging.String("sink", s.Name()))
	}

	result.Duration = timer.Duration()
	logger.LogPerformance("generate_dataset", result.Duration)
	return result, nil
}

// resolve keeps the first occurrence of each known id and collects the rest
func (uc *GenerateDatasetUseCase) resolve(names []string) ([]entity.ExerciseID, []string) {
	known := make(map[entity.ExerciseID]bool)
	for _, id := range uc.composer.Exercises() {
		known[id] = true
	}

	seen := make(map[string]bool)
	var ids []entity.ExerciseID
	var unknown []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if seen[name] {
			continue
		}
		seen[name] = true

		if id := entity.ExerciseID(name); known[id] {
			ids = append(ids, id)
		} else {
			unknown = append(unknown, name)
		}
	}
	return ids, unknown
}

// completed drops the slots of exercises that never finished
func completed(results []ExerciseResult) []ExerciseResult {
	out := results[:0]
	for _, r := range results {
		if r.Exercise != "" {
			out = append(out, r)
		}
	}
	return out
}

func errorType(err error) string {
	if appErr := common.GetAppError(err); appErr != nil {
		return string(appErr.Code)
	}
	return string(common.ErrCodeInternal)
}
