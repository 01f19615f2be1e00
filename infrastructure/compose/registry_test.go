package compose_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/infrastructure/compose"
	"github.com/isectech/ctf-datagen/infrastructure/synth"
	"github.com/isectech/ctf-datagen/shared/common"
)

var refTime = time.Date(2024, 3, 1, 2, 30, 0, 0, time.UTC)

type ComposeSuite struct {
	suite.Suite
	registry compose.Registry
	datasets map[entity.ExerciseID]*entity.Dataset
}

func (s *ComposeSuite) SetupSuite() {
	s.registry = compose.NewRegistry()
	s.datasets = make(map[entity.ExerciseID]*entity.Dataset)
	for _, id := range entity.AllExercises {
		ds, err := s.registry.Compose(id, 42, refTime)
		s.Require().NoError(err)
		s.datasets[id] = ds
	}
}

func (s *ComposeSuite) table(id entity.ExerciseID) *entity.Table {
	recipe, ok := compose.Lookup(id)
	s.Require().True(ok)
	tbl := s.datasets[id].Table(recipe.Table)
	s.Require().NotNil(tbl)
	return tbl
}

func (s *ComposeSuite) TestEveryExerciseIsRegistered() {
	s.Equal(entity.AllExercises, s.registry.Exercises())
	for _, id := range entity.AllExercises {
		recipe, ok := compose.Lookup(id)
		s.True(ok, id)
		s.Equal(id, recipe.Exercise)
		_, ok = entity.FlagSlug(recipe.Flag)
		s.True(ok, recipe.Flag)
	}
}

func (s *ComposeSuite) TestFlagRecordCounts() {
	for _, id := range entity.AllExercises {
		recipe, _ := compose.Lookup(id)
		s.Equal(recipe.FlagRecords, s.datasets[id].CountContaining(entity.FlagMarker), id)
		s.Equal([]string{recipe.Table}, s.datasets[id].TableNames(), id)
	}
}

func (s *ComposeSuite) TestHelloKQL() {
	tbl := s.table(entity.ExerciseHelloKQL)
	s.Equal(compose.HelloKQLRecords, tbl.Len())

	var flags []*entity.Record
	for _, r := range tbl.Records {
		if strings.Contains(r.String("Activity"), "FLAG") {
			flags = append(flags, r)
		}
	}
	s.Require().Len(flags, 1)
	s.Equal(compose.FlagHelloKQL, flags[0].String("Activity"))
	s.Equal(compose.HelloKQLEventID, flags[0].Int("EventID"))
}

func (s *ComposeSuite) TestProjectBasics() {
	tbl := s.table(entity.ExerciseProjectBasics)
	s.Equal(compose.ProjectBasicsRecords, tbl.Len())

	matches := 0
	for _, r := range tbl.Records {
		if strings.Contains(r.String("UserPrincipalName"), compose.FlagProjectBasics) {
			matches++
		}
	}
	s.Equal(1, matches)
}

func (s *ComposeSuite) TestLimitYourselfKeepsOrder() {
	tbl := s.table(entity.ExerciseLimitYourself)
	s.Require().Equal(compose.LimitYourselfRecords, tbl.Len())

	last := tbl.Records[tbl.Len()-1]
	s.Equal(synth.LimitDestIP, last.String("DestIP_s"))
	s.Equal(synth.FlowDenied, last.String("FlowStatus_s"))
	s.Equal(synth.FlowInbound, last.String("FlowDirection_s"))
	s.Equal(synth.FormatTime(refTime), last.String("TimeGenerated"))

	denied := 0
	for _, r := range tbl.Records[:tbl.Len()-1] {
		s.Less(r.String("TimeGenerated"), last.String("TimeGenerated"))
		s.NotEqual(synth.LimitDestIP, r.String("DestIP_s"))
		if r.String("FlowStatus_s") == synth.FlowDenied {
			denied++
		}
	}
	s.Greater(denied, 0)
}

func (s *ComposeSuite) TestDistinctPossibilities() {
	tbl := s.table(entity.ExerciseDistinctPossibilities)
	s.Equal(compose.DistinctRecords, tbl.Len())

	counts := map[string]int{}
	for _, r := range tbl.Records {
		counts[r.String("UserPrincipalName")]++
	}
	s.Len(counts, len(synth.NormalUsers)+1)

	singles := 0
	for user, n := range counts {
		if n == 1 {
			singles++
			s.Equal(compose.FlagDistinctPossibilities+"@yourcompany.com", user)
		}
	}
	s.Equal(1, singles)
}

func (s *ComposeSuite) TestBruteForce101() {
	tbl := s.table(entity.ExerciseBruteForce101)
	s.Equal(compose.BruteForceRecords, tbl.Len())

	fromAttacker := 0
	for _, r := range tbl.Records {
		if r.String("IPAddress") != synth.BruteForceIP {
			continue
		}
		fromAttacker++
		s.Equal(synth.AdminUser, r.String("UserPrincipalName"))
		s.Equal(synth.ResultInvalidPassword, r.Int("ResultType"))
		s.Contains(r.String("UserAgent"), compose.FlagBruteForce101)
	}
	s.Equal(compose.BruteForceAttempts, fromAttacker)
}

func (s *ComposeSuite) TestTimeTraveler() {
	tbl := s.table(entity.ExerciseTimeTraveler)
	s.Equal(compose.TimeTravelerRecords, tbl.Len())

	night, nightFlags := 0, 0
	for _, r := range tbl.Records {
		ts, err := time.Parse(synth.TimeLayout, r.String("TimeGenerated"))
		s.Require().NoError(err)
		s.True(ts.Before(refTime))
		if ts.Hour() < 4 {
			night++
			if r.String("AppDisplayName") == compose.FlagTimeTraveler {
				nightFlags++
			}
		}
	}
	s.Equal(compose.TimeTravelerNight, night)
	s.Equal(1, nightFlags)
}

func (s *ComposeSuite) TestStringTheory() {
	tbl := s.table(entity.ExerciseStringTheory)
	s.Equal(compose.StringTheoryRecords, tbl.Len())

	exact, fuzzy := 0, 0
	for _, r := range tbl.Records {
		name := r.String("AlertName")
		if strings.Contains(name, compose.FlagStringTheory) {
			exact++
		}
		if strings.Contains(strings.ToLower(name), "credential") {
			fuzzy++
		}
	}
	s.Equal(1, exact)
	s.Greater(fuzzy, 1)
}

func (s *ComposeSuite) TestPortScanner() {
	tbl := s.table(entity.ExercisePortScanner)
	s.Equal(compose.PortScannerRecords, tbl.Len())

	ports := map[string]map[int]bool{}
	for _, r := range tbl.Records {
		src := r.String("SrcIP_s")
		if ports[src] == nil {
			ports[src] = map[int]bool{}
		}
		ports[src][r.Int("DestPort_d")] = true
	}

	s.Len(ports[synth.ScannerIP], compose.PortScannerPorts)
	for src, set := range ports {
		if src != synth.ScannerIP {
			s.Less(len(set), compose.PortScannerPorts, src)
		}
	}
}

func (s *ComposeSuite) TestTheInsider() {
	tbl := s.table(entity.ExerciseTheInsider)
	s.Equal(compose.InsiderNoiseRecords+3*compose.InsiderPerSuspect+1, tbl.Len())

	perSuspect := map[string]int{}
	var flagged []*entity.Record
	for _, r := range tbl.Records {
		caller := r.String("Caller")
		for _, suspect := range synth.SuspiciousUsers {
			if caller == suspect {
				perSuspect[caller]++
				if strings.Contains(r.String("OperationName"), "FLAG") {
					flagged = append(flagged, r)
				}
			}
		}
	}

	s.Equal(compose.InsiderPerSuspect, perSuspect["john.smith@yourcompany.com"])
	s.Equal(compose.InsiderPerSuspect+1, perSuspect[compose.InsiderCulprit])
	s.Equal(compose.InsiderPerSuspect, perSuspect["mike.wilson@yourcompany.com"])
	s.Require().Len(flagged, 1)
	s.Equal(compose.FlagTheInsider, flagged[0].String("OperationName"))
}

func TestComposeSuite(t *testing.T) {
	suite.Run(t, new(ComposeSuite))
}

func TestComposeUnknownExercise(t *testing.T) {
	_, err := compose.NewRegistry().Compose("kung-fu-panda", 42, refTime)
	require.Error(t, err)
	assert.True(t, common.HasErrorCode(err, common.ErrCodeUnknownExercise))
	assert.Equal(t, common.ExitUsage, common.ExitCodeOf(err))
}

func TestComposeIsReproducible(t *testing.T) {
	registry := compose.NewRegistry()

	a, err := registry.Compose(entity.ExerciseBruteForce101, 7, refTime)
	require.NoError(t, err)
	b, err := registry.Compose(entity.ExerciseBruteForce101, 7, refTime)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	c, err := registry.Compose(entity.ExerciseBruteForce101, 8, refTime)
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
}

func TestCountingIsSeedIndependent(t *testing.T) {
	registry := compose.NewRegistry()
	for seed := int64(0); seed < 5; seed++ {
		ds, err := registry.Compose(entity.ExerciseCounting101, seed, refTime)
		require.NoError(t, err)
		assert.Equal(t, compose.Counting101Records, ds.RecordCount())
	}
}
