package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/infrastructure/catalog"
	"github.com/isectech/ctf-datagen/infrastructure/compose"
	"github.com/isectech/ctf-datagen/shared/common"
)

func TestEmbeddedCatalogCoversEveryExercise(t *testing.T) {
	c, err := catalog.Load()
	require.NoError(t, err)
	require.Len(t, c.Exercises, len(entity.AllExercises))

	for i, id := range entity.AllExercises {
		assert.Equal(t, id, c.Exercises[i].ID)

		entry, err := c.Get(id)
		require.NoError(t, err)

		recipe, ok := compose.Lookup(id)
		require.True(t, ok)
		assert.Equal(t, recipe.Flag, entry.Flag.Value, id)
		assert.Equal(t, []string{recipe.Table}, entry.Tables, id)
		assert.NotEmpty(t, entry.Solution, id)
		assert.Len(t, entry.Hints, 3, id)
	}

	assert.Equal(t, 1225, c.TotalPoints())
	assert.Len(t, c.ByBelt("white"), 5)
	assert.Len(t, c.ByBelt("yellow"), 5)
}

func TestCatalogGetUnknown(t *testing.T) {
	c, err := catalog.Load()
	require.NoError(t, err)

	_, err = c.Get("kung-fu-panda")
	assert.True(t, common.HasErrorCode(err, common.ErrCodeUnknownExercise))
}

func TestEntryDetails(t *testing.T) {
	c, err := catalog.Load()
	require.NoError(t, err)

	e, err := c.Get(entity.ExerciseStringTheory)
	require.NoError(t, err)
	assert.Equal(t, "String Theory", e.Title)
	assert.Equal(t, 175, e.Points)
	assert.Equal(t, []string{"T1110", "TA0006"}, e.Mitre)
	assert.Contains(t, e.Solution, `| where AlertName contains "FLAG"`)

	e, err = c.Get(entity.ExerciseBruteForce101)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1110.001"}, e.Mitre)
}

func TestParseRejectsInvalidEntries(t *testing.T) {
	_, err := catalog.Parse([]byte(`exercises: [`))
	assert.True(t, common.HasErrorCode(err, common.ErrCodeInvalidFormat))

	_, err = catalog.Parse([]byte(`
exercises:
  - id: broken
    belt: purple
    points: 0
    flag:
      value: "not a flag"
      format: fuzzy
`))
	require.Error(t, err)
	assert.True(t, common.HasErrorCode(err, common.ErrCodeValidationFailed))
	assert.Contains(t, err.Error(), "5 errors")
}
