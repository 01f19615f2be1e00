package verify

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/domain/service"
	"github.com/isectech/ctf-datagen/infrastructure/compose"
	"github.com/isectech/ctf-datagen/infrastructure/synth"
	"github.com/isectech/ctf-datagen/pkg/logging"
	"github.com/isectech/ctf-datagen/shared/common"
)

type rule func(ds *entity.Dataset, errs *common.ValidationErrors)

var rules = map[entity.ExerciseID]rule{
	entity.ExerciseHelloKQL:              checkHelloKQL,
	entity.ExerciseCounting101:           checkCounting101,
	entity.ExerciseProjectBasics:         checkProjectBasics,
	entity.ExerciseLimitYourself:         checkLimitYourself,
	entity.ExerciseDistinctPossibilities: checkDistinctPossibilities,
	entity.ExerciseBruteForce101:         checkBruteForce101,
	entity.ExerciseTimeTraveler:          checkTimeTraveler,
	entity.ExerciseStringTheory:          checkStringTheory,
	entity.ExercisePortScanner:           checkPortScanner,
	entity.ExerciseTheInsider:            checkTheInsider,
}

// HasRules reports whether exercise has a dedicated check
func HasRules(exercise entity.ExerciseID) bool {
	_, ok := rules[exercise]
	return ok
}

// Verifier asserts that a dataset exposes its flag to exactly the intended query
type Verifier struct {
	logger *logging.Logger
}

var _ service.DatasetVerifier = (*Verifier)(nil)

// NewVerifier creates a verifier
func NewVerifier(logger *logging.Logger) *Verifier {
	return &Verifier{logger: logger.WithComponent("verifier")}
}

// Verify runs the generic flag count check and the exercise's own rule.
// Failures come back as a single VALIDATION_FAILED error.
func (v *Verifier) Verify(ds *entity.Dataset) error {
	recipe, ok := compose.Lookup(ds.Exercise)
	check, hasRule := rules[ds.Exercise]
	if !ok || !hasRule {
		return common.ErrUnknownExercise(string(ds.Exercise))
	}

	var errs common.ValidationErrors
	if t := ds.Table(recipe.Table); t == nil {
		errs.Add(recipe.Table, "table missing", nil)
		return errs.ToAppError()
	}

	if n := ds.CountContaining(entity.FlagMarker); n != recipe.FlagRecords {
		errs.Add(recipe.Table, fmt.Sprintf("expected %d records carrying a flag, found %d", recipe.FlagRecords, n), n)
	}
	check(ds, &errs)

	if errs.HasErrors() {
		for _, e := range errs {
			v.logger.Warn("Dataset check failed",
				zap.String("exercise", string(ds.Exercise)),
				zap.String("table", e.Field),
				zap.String("reason", e.Message))
		}
		return errs.ToAppError().WithContext("exercise", string(ds.Exercise))
	}

	v.logger.Debug("Dataset verified",
		zap.String("exercise", string(ds.Exercise)),
		zap.Int("records", ds.RecordCount()))
	return nil
}

func checkHelloKQL(ds *entity.Dataset, errs *common.ValidationErrors) {
	hits := From(ds, entity.TableSecurityEvent).Where(Contains("Activity", "FLAG"))
	if hits.Count() != 1 {
		errs.Add(entity.TableSecurityEvent, "where Activity contains FLAG should return one row", hits.Count())
		return
	}
	if got := hits[0].String("Activity"); got != compose.FlagHelloKQL {
		errs.Add(entity.TableSecurityEvent, "flag event carries the wrong Activity", got)
	}
}

func checkCounting101(ds *entity.Dataset, errs *common.ValidationErrors) {
	rows := From(ds, entity.TableSigninLogs)
	if rows.Count() != compose.Counting101Records {
		errs.Add(entity.TableSigninLogs, fmt.Sprintf("expected exactly %d records", compose.Counting101Records), rows.Count())
	}
	if entity.Flag(strconv.Itoa(rows.Count())) != compose.FlagCounting101 {
		errs.Add(entity.TableSigninLogs, "record count does not produce the flag", rows.Count())
	}
}

func checkProjectBasics(ds *entity.Dataset, errs *common.ValidationErrors) {
	users := From(ds, entity.TableSigninLogs).
		Where(Contains("UserPrincipalName", "FLAG")).
		Distinct("UserPrincipalName")
	want := compose.FlagProjectBasics + "@" + synth.CompanyDomain
	if len(users) != 1 || users[0] != want {
		errs.Add(entity.TableSigninLogs, "expected one flag principal", users)
	}
}

func checkLimitYourself(ds *entity.Dataset, errs *common.ValidationErrors) {
	rows := From(ds, entity.TableNetworkFlows).
		Where(Equals("FlowStatus_s", synth.FlowDenied), Equals("FlowDirection_s", synth.FlowInbound)).
		SortByDesc("TimeGenerated")
	if rows.Count() == 0 {
		errs.Add(entity.TableNetworkFlows, "no denied inbound flows", nil)
		return
	}
	if rows.Count() > 1 && rows[0].String("TimeGenerated") == rows[1].String("TimeGenerated") {
		errs.Add(entity.TableNetworkFlows, "most recent denied inbound flow is not unique", rows[0].String("TimeGenerated"))
	}
	if entity.Flag(rows[0].String("DestIP_s")) != compose.FlagLimitYourself {
		errs.Add(entity.TableNetworkFlows, "most recent denied inbound flow has the wrong destination", rows[0].String("DestIP_s"))
	}
}

func checkDistinctPossibilities(ds *entity.Dataset, errs *common.ValidationErrors) {
	counts := From(ds, entity.TableSigninLogs).CountBy("UserPrincipalName")

	var singles []string
	for user, n := range counts {
		if n == 1 {
			singles = append(singles, user)
		}
	}
	want := compose.FlagDistinctPossibilities + "@" + synth.CompanyDomain
	if len(singles) != 1 || singles[0] != want {
		errs.Add(entity.TableSigninLogs, "expected the flag principal to be the only single occurrence", singles)
	}
}

func checkBruteForce101(ds *entity.Dataset, errs *common.ValidationErrors) {
	failed := From(ds, entity.TableSigninLogs).Where(NotEquals("ResultType", synth.ResultSuccess))

	top := Top(failed.CountBy("UserPrincipalName"))
	if len(top) == 0 || top[0].Key != synth.AdminUser {
		errs.Add(entity.TableSigninLogs, "admin is not the most targeted account", top)
		return
	}
	if len(top) > 1 && top[1].Count*2 > top[0].Count {
		errs.Add(entity.TableSigninLogs, "most targeted account does not stand out", top[:2])
	}

	agents := failed.
		Where(Equals("UserPrincipalName", synth.AdminUser), Contains("UserAgent", "FLAG")).
		Distinct("UserAgent")
	if len(agents) != 1 || !strings.Contains(agents[0], compose.FlagBruteForce101) {
		errs.Add(entity.TableSigninLogs, "expected one attacker user agent carrying the flag", agents)
	}

	fromAttacker := failed.Where(Equals("IPAddress", synth.BruteForceIP)).Count()
	if fromAttacker != compose.BruteForceAttempts {
		errs.Add(entity.TableSigninLogs, fmt.Sprintf("expected %d attempts from the attacker", compose.BruteForceAttempts), fromAttacker)
	}
}

func checkTimeTraveler(ds *entity.Dataset, errs *common.ValidationErrors) {
	night := From(ds, entity.TableSigninLogs).Where(HourBetween("TimeGenerated", 0, 4))
	if night.Count() != compose.TimeTravelerNight {
		errs.Add(entity.TableSigninLogs, fmt.Sprintf("expected %d night sign-ins", compose.TimeTravelerNight), night.Count())
	}

	apps := night.Where(Contains("AppDisplayName", "FLAG")).Distinct("AppDisplayName")
	if len(apps) != 1 || apps[0] != compose.FlagTimeTraveler {
		errs.Add(entity.TableSigninLogs, "expected one night sign-in with the flag application", apps)
	}
}

func checkStringTheory(ds *entity.Dataset, errs *common.ValidationErrors) {
	rows := From(ds, entity.TableSecurityAlert)

	exact := rows.Where(Contains("AlertName", compose.FlagStringTheory)).Count()
	if exact != 1 {
		errs.Add(entity.TableSecurityAlert, "exact flag match should return one alert", exact)
	}

	fuzzy := rows.Where(Or(ContainsFold("AlertName", "credential"), ContainsFold("Description", "credential"))).Count()
	if fuzzy <= 1 {
		errs.Add(entity.TableSecurityAlert, "case-insensitive credential match should include decoys", fuzzy)
	}
}

func checkPortScanner(ds *entity.Dataset, errs *common.ValidationErrors) {
	top := Top(From(ds, entity.TableNetworkFlows).DistinctCountBy("SrcIP_s", "DestPort_d"))
	if len(top) == 0 {
		errs.Add(entity.TableNetworkFlows, "no flows", nil)
		return
	}
	if top[0].Key != synth.ScannerIP {
		errs.Add(entity.TableNetworkFlows, "scanner is not the most port-diverse source", top[0].Key)
	}
	if len(top) > 1 && top[1].Count >= top[0].Count {
		errs.Add(entity.TableNetworkFlows, "port diversity tie at the top", top[:2])
	}
	if entity.Flag(strconv.Itoa(top[0].Count)) != compose.FlagPortScanner {
		errs.Add(entity.TableNetworkFlows, "distinct port count does not produce the flag", top[0].Count)
	}
}

func checkTheInsider(ds *entity.Dataset, errs *common.ValidationErrors) {
	cohort := From(ds, entity.TableAzureActivity).Where(In("Caller", synth.SuspiciousUsers...))
	want := len(synth.SuspiciousUsers)*compose.InsiderPerSuspect + 1
	if cohort.Count() != want {
		errs.Add(entity.TableAzureActivity, fmt.Sprintf("expected %d watch-list operations", want), cohort.Count())
	}

	hits := cohort.Where(Contains("OperationName", "FLAG"))
	if hits.Count() != 1 {
		errs.Add(entity.TableAzureActivity, "expected one flagged watch-list operation", hits.Count())
		return
	}
	if hits[0].String("Caller") != compose.InsiderCulprit || hits[0].String("OperationName") != compose.FlagTheInsider {
		errs.Add(entity.TableAzureActivity, "flagged operation belongs to the wrong caller", hits[0].String("Caller"))
	}
}
