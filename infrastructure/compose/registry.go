package compose

import (
	"time"

	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/domain/service"
	"github.com/isectech/ctf-datagen/infrastructure/synth"
	"github.com/isectech/ctf-datagen/shared/common"
)

// Recipe describes how one exercise dataset is built
type Recipe struct {
	Exercise entity.ExerciseID
	Table    string
	Flag     string
	// FlagRecords is how many records carry a FLAG{ token. Exercises whose
	// answer is a count or a fact about the data carry none.
	FlagRecords int
	compose     func(g *synth.Generator) *entity.Table
}

var recipes = map[entity.ExerciseID]Recipe{
	entity.ExerciseHelloKQL: {
		Exercise: entity.ExerciseHelloKQL, Table: entity.TableSecurityEvent,
		Flag: FlagHelloKQL, FlagRecords: 1, compose: composeHelloKQL,
	},
	entity.ExerciseCounting101: {
		Exercise: entity.ExerciseCounting101, Table: entity.TableSigninLogs,
		Flag: FlagCounting101, FlagRecords: 0, compose: composeCounting101,
	},
	entity.ExerciseProjectBasics: {
		Exercise: entity.ExerciseProjectBasics, Table: entity.TableSigninLogs,
		Flag: FlagProjectBasics, FlagRecords: 1, compose: composeProjectBasics,
	},
	entity.ExerciseLimitYourself: {
		Exercise: entity.ExerciseLimitYourself, Table: entity.TableNetworkFlows,
		Flag: FlagLimitYourself, FlagRecords: 0, compose: composeLimitYourself,
	},
	entity.ExerciseDistinctPossibilities: {
		Exercise: entity.ExerciseDistinctPossibilities, Table: entity.TableSigninLogs,
		Flag: FlagDistinctPossibilities, FlagRecords: 1, compose: composeDistinctPossibilities,
	},
	entity.ExerciseBruteForce101: {
		Exercise: entity.ExerciseBruteForce101, Table: entity.TableSigninLogs,
		Flag: FlagBruteForce101, FlagRecords: BruteForceAttempts, compose: composeBruteForce101,
	},
	entity.ExerciseTimeTraveler: {
		Exercise: entity.ExerciseTimeTraveler, Table: entity.TableSigninLogs,
		Flag: FlagTimeTraveler, FlagRecords: 1, compose: composeTimeTraveler,
	},
	entity.ExerciseStringTheory: {
		Exercise: entity.ExerciseStringTheory, Table: entity.TableSecurityAlert,
		Flag: FlagStringTheory, FlagRecords: 1, compose: composeStringTheory,
	},
	entity.ExercisePortScanner: {
		Exercise: entity.ExercisePortScanner, Table: entity.TableNetworkFlows,
		Flag: FlagPortScanner, FlagRecords: 0, compose: composePortScanner,
	},
	entity.ExerciseTheInsider: {
		Exercise: entity.ExerciseTheInsider, Table: entity.TableAzureActivity,
		Flag: FlagTheInsider, FlagRecords: 1, compose: composeTheInsider,
	},
}

// Lookup returns the recipe for exercise
func Lookup(exercise entity.ExerciseID) (Recipe, bool) {
	r, ok := recipes[exercise]
	return r, ok
}

// Registry dispatches exercise ids to their recipes
type Registry struct{}

var _ service.DatasetComposer = Registry{}

// NewRegistry creates the exercise registry
func NewRegistry() Registry {
	return Registry{}
}

// Exercises returns the registered exercises in catalog order
func (Registry) Exercises() []entity.ExerciseID {
	ids := make([]entity.ExerciseID, 0, len(recipes))
	for _, id := range entity.AllExercises {
		if _, ok := recipes[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Compose builds the dataset for exercise from its own random stream
func (Registry) Compose(exercise entity.ExerciseID, seed int64, referenceTime time.Time) (*entity.Dataset, error) {
	recipe, ok := recipes[exercise]
	if !ok {
		return nil, common.ErrUnknownExercise(string(exercise))
	}

	g := synth.NewGenerator(seed, exercise, referenceTime)
	ds := entity.NewDataset(exercise)
	if err := ds.AddTable(recipe.compose(g)); err != nil {
		return nil, common.WrapError(err, common.ErrCodeInternal, "failed to assemble dataset")
	}
	return ds, nil
}
