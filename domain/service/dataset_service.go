package service

import (
	"context"
	"time"

	"github.com/isectech/ctf-datagen/domain/entity"
)

// GenerationInfo describes how a dataset was produced
type GenerationInfo struct {
	Exercise      entity.ExerciseID
	Seed          int64
	ReferenceTime time.Time
}

// DatasetComposer builds the dataset for one exercise
type DatasetComposer interface {
	// Compose returns an UNKNOWN_EXERCISE error for ids outside the registry
	Compose(exercise entity.ExerciseID, seed int64, referenceTime time.Time) (*entity.Dataset, error)
	Exercises() []entity.ExerciseID
}

// DatasetVerifier checks that a dataset exposes exactly the intended flag records
type DatasetVerifier interface {
	Verify(ds *entity.Dataset) error
}

// DatasetRepository persists datasets
type DatasetRepository interface {
	Save(ctx context.Context, ds *entity.Dataset, info GenerationInfo) error
	Load(ctx context.Context, exercise entity.ExerciseID) (*entity.Dataset, GenerationInfo, error)
	List(ctx context.Context) ([]entity.ExerciseID, error)
}

// DatasetSink publishes a generated dataset to an external system
type DatasetSink interface {
	Name() string
	Publish(ctx context.Context, ds *entity.Dataset) error
	Close() error
}
