package compose

import (
	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/infrastructure/synth"
)

// Answers per exercise
var (
	FlagHelloKQL              = entity.Flag("first_steps")
	FlagCounting101           = entity.Flag("1337")
	FlagProjectBasics         = entity.Flag("proj3ct_m4st3r")
	FlagLimitYourself         = entity.Flag(synth.LimitDestIP)
	FlagDistinctPossibilities = entity.Flag("unique_find")
	FlagBruteForce101         = entity.Flag("brut3_f0rc3_d3t3ct3d")
	FlagTimeTraveler          = entity.Flag("midnight_hacker")
	FlagStringTheory          = entity.Flag("str1ng_n1nja")
	FlagPortScanner           = entity.Flag("443")
	FlagTheInsider            = entity.Flag("1ns1d3r_f0und")
)

// InsiderCulprit is the watch-listed user who carries the flag
var InsiderCulprit = synth.SuspiciousUsers[1]

// Dataset shapes
const (
	HelloKQLRecords = 1000
	HelloKQLEventID = 9999

	Counting101Records = 1337

	ProjectBasicsRecords = 500

	LimitYourselfRecords   = 2000
	limitDeniedNoiseWeight = 10

	DistinctRecords     = 5000
	distinctMinPerUser  = 2
	BruteForceRecords   = 10000
	BruteForceAttempts  = 500
	bruteForceNoiseFail = 5

	TimeTravelerRecords = 3000
	TimeTravelerNight   = 50

	StringTheoryRecords = 500

	PortScannerRecords = 50000
	PortScannerPorts   = 443

	InsiderNoiseRecords = 4950
	InsiderPerSuspect   = 15
)

var (
	credentialAlertNames = []string{
		"Credential theft attempt",
		"CREDENTIAL ACCESS detected",
		"Suspicious credential activity",
		"credential harvesting tool",
	}

	otherAlertNames = []string{
		"Malware detected",
		"Suspicious process execution",
		"Lateral movement detected",
		"Data exfiltration attempt",
	}
)

// composeHelloKQL hides one event whose Activity is the flag.
func composeHelloKQL(g *synth.Generator) *entity.Table {
	t := entity.NewTable(entity.TableSecurityEvent, HelloKQLRecords)
	for i := 0; i < HelloKQLRecords-1; i++ {
		t.Append(g.SecurityEvent(synth.SecurityEventOptions{}))
	}

	t.Append(g.SecurityEvent(synth.SecurityEventOptions{
		EventID:  HelloKQLEventID,
		Activity: FlagHelloKQL,
	}))

	g.Shuffle(t.Records)
	return t
}

// composeCounting101 is nothing but noise; the record count is the answer.
func composeCounting101(g *synth.Generator) *entity.Table {
	t := entity.NewTable(entity.TableSigninLogs, Counting101Records)
	for i := 0; i < Counting101Records; i++ {
		t.Append(g.SigninLog(synth.SigninOptions{}))
	}
	return t
}

// composeProjectBasics plants the flag as a principal name.
func composeProjectBasics(g *synth.Generator) *entity.Table {
	t := entity.NewTable(entity.TableSigninLogs, ProjectBasicsRecords)
	for i := 0; i < ProjectBasicsRecords-1; i++ {
		t.Append(g.SigninLog(synth.SigninOptions{}))
	}

	t.Append(g.SigninLog(synth.SigninOptions{
		User: FlagProjectBasics + "@" + synth.CompanyDomain,
	}))

	g.Shuffle(t.Records)
	return t
}

// composeLimitYourself makes the flag flow the newest denied inbound flow.
// Order is kept; the last record is the answer.
func composeLimitYourself(g *synth.Generator) *entity.Table {
	t := entity.NewTable(entity.TableNetworkFlows, LimitYourselfRecords)
	for i := 0; i < LimitYourselfRecords-1; i++ {
		opts := synth.FlowOptions{}
		if g.Intn(100) < limitDeniedNoiseWeight {
			opts.Status = synth.FlowDenied
		}
		t.Append(g.NetworkFlow(opts))
	}

	flow := g.NetworkFlow(synth.FlowOptions{
		DestIP:    synth.LimitDestIP,
		Status:    synth.FlowDenied,
		Direction: synth.FlowInbound,
	})
	flow.Set("TimeGenerated", synth.FormatTime(g.Now()))
	t.Append(flow)

	return t
}

// composeDistinctPossibilities gives every normal user at least two sign-ins
// and the flag user exactly one.
func composeDistinctPossibilities(g *synth.Generator) *entity.Table {
	t := entity.NewTable(entity.TableSigninLogs, DistinctRecords)
	for _, user := range synth.NormalUsers {
		for i := 0; i < distinctMinPerUser; i++ {
			t.Append(g.SigninLog(synth.SigninOptions{User: user}))
		}
	}
	for t.Len() < DistinctRecords-1 {
		t.Append(g.SigninLog(synth.SigninOptions{User: synth.Choice(g, synth.NormalUsers)}))
	}

	t.Append(g.SigninLog(synth.SigninOptions{
		User: FlagDistinctPossibilities + "@" + synth.CompanyDomain,
	}))

	g.Shuffle(t.Records)
	return t
}

// composeBruteForce101 buries a burst of failed admin sign-ins from one address.
func composeBruteForce101(g *synth.Generator) *entity.Table {
	t := entity.NewTable(entity.TableSigninLogs, BruteForceRecords)
	results := []int{synth.ResultSuccess, synth.ResultInvalidPassword}
	weights := []int{100 - bruteForceNoiseFail, bruteForceNoiseFail}
	for i := 0; i < BruteForceRecords-BruteForceAttempts; i++ {
		t.Append(g.SigninLog(synth.SigninOptions{
			ResultType: synth.WeightedChoice(g, results, weights),
		}))
	}

	attackerUA := "Mozilla/5.0 " + FlagBruteForce101 + " BruteForcer/1.0"
	for i := 0; i < BruteForceAttempts; i++ {
		t.Append(g.SigninLog(synth.SigninOptions{
			User:       synth.AdminUser,
			ResultType: synth.ResultInvalidPassword,
			IP:         synth.BruteForceIP,
			UserAgent:  attackerUA,
		}))
	}

	g.Shuffle(t.Records)
	return t
}

// composeTimeTraveler keeps noise in daytime hours and places a small night
// cohort, one of which uses the flag as its application.
func composeTimeTraveler(g *synth.Generator) *entity.Table {
	t := entity.NewTable(entity.TableSigninLogs, TimeTravelerRecords)
	for i := 0; i < TimeTravelerRecords-TimeTravelerNight; i++ {
		t.Append(g.SigninLog(synth.SigninOptions{Timestamp: g.DaytimeTimestamp()}))
	}

	for i := 0; i < TimeTravelerNight-1; i++ {
		t.Append(g.SigninLog(synth.SigninOptions{Timestamp: g.NightTimestamp()}))
	}

	t.Append(g.SigninLog(synth.SigninOptions{
		Timestamp: g.NightTimestamp(),
		App:       FlagTimeTraveler,
	}))

	g.Shuffle(t.Records)
	return t
}

// composeStringTheory mixes credential decoys in varied casing with the one
// alert carrying the exact flag.
func composeStringTheory(g *synth.Generator) *entity.Table {
	names := append(append([]string{}, credentialAlertNames...), otherAlertNames...)

	t := entity.NewTable(entity.TableSecurityAlert, StringTheoryRecords)
	for i := 0; i < StringTheoryRecords-1; i++ {
		t.Append(g.SecurityAlert(synth.AlertOptions{AlertName: synth.Choice(g, names)}))
	}

	t.Append(g.SecurityAlert(synth.AlertOptions{
		AlertName: FlagStringTheory + " - Credential Alert",
	}))

	g.Shuffle(t.Records)
	return t
}

// composePortScanner adds one denied flow per port 1..443 from the scanner.
func composePortScanner(g *synth.Generator) *entity.Table {
	t := entity.NewTable(entity.TableNetworkFlows, PortScannerRecords)
	for i := 0; i < PortScannerRecords-PortScannerPorts; i++ {
		t.Append(g.NetworkFlow(synth.FlowOptions{}))
	}

	for port := 1; port <= PortScannerPorts; port++ {
		t.Append(g.NetworkFlow(synth.FlowOptions{
			SrcIP:    synth.ScannerIP,
			DestPort: port,
			Status:   synth.FlowDenied,
		}))
	}

	g.Shuffle(t.Records)
	return t
}

// composeTheInsider gives each watch-listed user a bounded set of normal
// operations, then one flag operation for sarah.jones.
func composeTheInsider(g *synth.Generator) *entity.Table {
	t := entity.NewTable(entity.TableAzureActivity, InsiderNoiseRecords+len(synth.SuspiciousUsers)*InsiderPerSuspect+1)
	for i := 0; i < InsiderNoiseRecords; i++ {
		t.Append(g.AzureActivity(synth.ActivityOptions{}))
	}

	for _, user := range synth.SuspiciousUsers {
		for i := 0; i < InsiderPerSuspect; i++ {
			t.Append(g.AzureActivity(synth.ActivityOptions{Caller: user}))
		}
	}

	t.Append(g.AzureActivity(synth.ActivityOptions{
		Caller:    InsiderCulprit,
		Operation: FlagTheInsider,
	}))

	g.Shuffle(t.Records)
	return t
}
