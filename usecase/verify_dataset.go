package usecase

import (
	"context"
	"fmt"

	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/domain/service"
	"github.com/isectech/ctf-datagen/pkg/logging"
	"github.com/isectech/ctf-datagen/pkg/metrics"
	"github.com/isectech/ctf-datagen/shared/common"
)

// VerifyDatasetUseCase re-checks datasets already on disk
type VerifyDatasetUseCase struct {
	repo     service.DatasetRepository
	verifier service.DatasetVerifier
	logger   *logging.Logger
	metrics  *metrics.Collector
}

// NewVerifyDatasetUseCase creates a new VerifyDatasetUseCase
func NewVerifyDatasetUseCase(repo service.DatasetRepository, verifier service.DatasetVerifier, logger *logging.Logger, metrics *metrics.Collector) *VerifyDatasetUseCase {
	return &VerifyDatasetUseCase{
		repo:     repo,
		verifier: verifier,
		logger:   logger.WithComponent("verify"),
		metrics:  metrics,
	}
}

// VerifyResult is the outcome for one stored dataset
type VerifyResult struct {
	Exercise entity.ExerciseID
	Info     service.GenerationInfo
	Records  int
	Err      error
}

// OK reports whether the dataset loaded and passed its checks
func (r VerifyResult) OK() bool { return r.Err == nil }

// Execute loads and verifies the named exercises, or every stored one when
// names is empty. Each dataset gets a result; the returned error carries the
// code of the first failure.
func (uc *VerifyDatasetUseCase) Execute(ctx context.Context, names []string) ([]VerifyResult, error) {
	ids, err := uc.targets(ctx, names)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, common.NewAppError(common.ErrCodeNotFound, "no datasets found")
	}

	results := make([]VerifyResult, 0, len(ids))
	var first error
	failed := 0
	for _, id := range ids {
		res := uc.verifyOne(ctx, id)
		if res.Err != nil {
			failed++
			if first == nil {
				first = res.Err
			}
		}
		results = append(results, res)
	}

	if first != nil {
		uc.logger.Warn("Datasets failed verification",
			logging.Int("failed", failed),
			logging.Int("total", len(ids)))
		summary := fmt.Sprintf("%d of %d datasets failed verification", failed, len(ids))
		if common.GetAppError(first) == nil {
			return results, common.ErrValidationFailed(summary + ": " + first.Error())
		}
		return results, fmt.Errorf("%s: %w", summary, first)
	}
	return results, nil
}

func (uc *VerifyDatasetUseCase) targets(ctx context.Context, names []string) ([]entity.ExerciseID, error) {
	if len(names) == 0 {
		return uc.repo.List(ctx)
	}
	ids := make([]entity.ExerciseID, 0, len(names))
	for _, name := range names {
		id, ok := entity.ParseExerciseID(name)
		if !ok {
			return nil, common.ErrUnknownExercise(name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (uc *VerifyDatasetUseCase) verifyOne(ctx context.Context, id entity.ExerciseID) VerifyResult {
	res := VerifyResult{Exercise: id}
	logger := uc.logger.WithExercise(string(id))

	ds, info, err := uc.repo.Load(ctx, id)
	if err != nil {
		logger.WithError(err).Error("Failed to load dataset")
		res.Err = err
		return res
	}
	res.Info = info
	res.Records = ds.RecordCount()

	if err := uc.verifier.Verify(ds); err != nil {
		if common.HasErrorCode(err, common.ErrCodeValidationFailed) {
			uc.metrics.RecordVerificationFailure(string(id))
		}
		res.Err = err
		return res
	}
	logger.LogDatasetEvent("verified", "Stored dataset verified", logging.Int("records", res.Records))
	return res
}
