package synth

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/isectech/ctf-datagen/domain/entity"
)

// SigninOptions overrides SigninLogs fields. Empty values fall back to random defaults.
type SigninOptions struct {
	User       string
	ResultType int
	IP         string
	Timestamp  string
	UserAgent  string
	App        string
}

// SecurityEventOptions overrides SecurityEvent fields
type SecurityEventOptions struct {
	EventID  int
	Activity string
	Computer string
	Account  string
}

// ActivityOptions overrides AzureActivity fields
type ActivityOptions struct {
	Operation string
	Caller    string
	Resource  string
}

// FlowOptions overrides AzureNetworkAnalytics_CL fields
type FlowOptions struct {
	SrcIP     string
	DestIP    string
	DestPort  int
	Status    string
	Direction string
}

// AlertOptions overrides SecurityAlert fields
type AlertOptions struct {
	AlertName string
	Severity  string
}

const defaultEventID = 4624

// SigninLog synthesizes one SigninLogs record
func (g *Generator) SigninLog(opts SigninOptions) *entity.Record {
	timestamp := orDefault(opts.Timestamp, g.RecentTimestamp)
	user := orDefault(opts.User, func() string { return Choice(g, NormalUsers) })
	ip := orDefault(opts.IP, g.ExternalIP)
	location := Choice(g, locations)
	userAgent := orDefault(opts.UserAgent, func() string { return Choice(g, userAgents) })
	app := orDefault(opts.App, func() string { return Choice(g, apps) })

	caStatus := "failure"
	if opts.ResultType == ResultSuccess {
		caStatus = "success"
	}

	return entity.NewRecord(14).
		Set("TimeGenerated", timestamp).
		Set("UserPrincipalName", user).
		Set("UserDisplayName", DisplayName(user)).
		Set("IPAddress", ip).
		Set("Location", location).
		Set("ResultType", opts.ResultType).
		Set("ResultDescription", ResultDescription(opts.ResultType)).
		Set("ClientAppUsed", "Browser").
		Set("UserAgent", userAgent).
		Set("AppDisplayName", app).
		Set("ResourceDisplayName", "Microsoft Graph").
		Set("ConditionalAccessStatus", caStatus).
		Set("RiskLevelDuringSignIn", "none").
		Set("CorrelationId", g.UUID())
}

// SecurityEvent synthesizes one SecurityEvent record
func (g *Generator) SecurityEvent(opts SecurityEventOptions) *entity.Record {
	eventID := opts.EventID
	if eventID == 0 {
		eventID = defaultEventID
	}

	timestamp := g.RecentTimestamp()
	activity := opts.Activity
	if activity == "" {
		activity = fmt.Sprintf("%d - Security Event", eventID)
	}
	computer := orDefault(opts.Computer, func() string {
		return fmt.Sprintf("SERVER%02d.%s", g.IntRange(1, 10), CompanyDomain)
	})
	account := orDefault(opts.Account, func() string { return localPart(Choice(g, NormalUsers)) })

	return entity.NewRecord(12).
		Set("TimeGenerated", timestamp).
		Set("EventID", eventID).
		Set("Activity", activity).
		Set("Computer", computer).
		Set("Account", account).
		Set("AccountType", "User").
		Set("TargetAccount", localPart(Choice(g, NormalUsers))).
		Set("LogonType", 10).
		Set("LogonTypeName", "RemoteInteractive").
		Set("IpAddress", g.InternalIP()).
		Set("WorkstationName", fmt.Sprintf("WS%d", g.IntRange(100, 999))).
		Set("Process", "svchost.exe")
}

// AzureActivity synthesizes one AzureActivity record
func (g *Generator) AzureActivity(opts ActivityOptions) *entity.Record {
	timestamp := g.RecentTimestamp()
	operation := orDefault(opts.Operation, func() string { return Choice(g, operations) })
	caller := orDefault(opts.Caller, func() string { return Choice(g, NormalUsers) })
	callerIP := g.ExternalIP()
	resourceGroup := fmt.Sprintf("rg-%s-%02d", Choice(g, resourceGroupTiers), g.IntRange(1, 5))
	resource := orDefault(opts.Resource, func() string {
		return fmt.Sprintf("resource-%03d", g.IntRange(1, 100))
	})

	return entity.NewRecord(11).
		Set("TimeGenerated", timestamp).
		Set("OperationName", operation).
		Set("CategoryValue", "Administrative").
		Set("Caller", caller).
		Set("CallerIpAddress", callerIP).
		Set("ResourceGroup", resourceGroup).
		Set("Resource", resource).
		Set("ResourceProvider", "Microsoft.Compute").
		Set("SubscriptionId", g.UUID()).
		Set("ActivityStatus", "Succeeded").
		Set("Level", "Information")
}

// NetworkFlow synthesizes one AzureNetworkAnalytics_CL record
func (g *Generator) NetworkFlow(opts FlowOptions) *entity.Record {
	status := opts.Status
	if status == "" {
		status = FlowAllowed
	}
	direction := opts.Direction
	if direction == "" {
		direction = FlowInbound
	}

	timestamp := g.RecentTimestamp()
	flowStart := g.RecentTimestamp()
	srcIP := orDefault(opts.SrcIP, g.ExternalIP)
	destIP := orDefault(opts.DestIP, g.InternalIP)
	srcPort := g.IntRange(1024, 65535)
	destPort := opts.DestPort
	if destPort == 0 {
		destPort = Choice(g, commonPorts)
	}

	ruleName := "DefaultRule_DenyAllInbound"
	if status == FlowAllowed {
		ruleName = "DefaultRule_AllowInternetOutbound"
	}

	return entity.NewRecord(14).
		Set("TimeGenerated", timestamp).
		Set("FlowStartTime_t", flowStart).
		Set("SrcIP_s", srcIP).
		Set("DestIP_s", destIP).
		Set("SrcPort_d", srcPort).
		Set("DestPort_d", destPort).
		Set("Protocol_s", Choice(g, protocols)).
		Set("FlowDirection_s", direction).
		Set("FlowStatus_s", status).
		Set("NSGName_s", fmt.Sprintf("nsg-%s-tier", Choice(g, nsgTiers))).
		Set("NSGRuleName_s", ruleName).
		Set("InboundBytes_d", g.IntRange(100, 10000)).
		Set("OutboundBytes_d", g.IntRange(100, 10000)).
		Set("Region_s", "eastus")
}

// SecurityAlert synthesizes one SecurityAlert record. The description always
// follows the randomly drawn alert type, even when the name is overridden.
func (g *Generator) SecurityAlert(opts AlertOptions) *entity.Record {
	timestamp := g.RecentTimestamp()
	drawn := Choice(g, alertTypes)

	name := opts.AlertName
	if name == "" {
		name = drawn.name
	}
	severity := opts.Severity
	if severity == "" {
		severity = drawn.severity
	}

	return entity.NewRecord(11).
		Set("TimeGenerated", timestamp).
		Set("AlertName", name).
		Set("AlertSeverity", severity).
		Set("Description", fmt.Sprintf("Detection of %s in your environment", strings.ToLower(drawn.name))).
		Set("ProviderName", "Azure Sentinel").
		Set("VendorName", "Microsoft").
		Set("Status", "New").
		Set("Tactics", "CredentialAccess").
		Set("Techniques", "T1110").
		Set("CompromisedEntity", Choice(g, NormalUsers)).
		Set("ConfidenceLevel", Choice(g, confidenceLevels))
}

// DisplayName derives a display name from a principal: local part, dots
// become spaces, then each letter run is title cased.
func DisplayName(user string) string {
	local := strings.ReplaceAll(localPart(user), ".", " ")

	var b strings.Builder
	b.Grow(len(local))
	prevLetter := false
	for _, r := range local {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

func localPart(user string) string {
	if i := strings.IndexByte(user, '@'); i >= 0 {
		return user[:i]
	}
	return user
}

func orDefault(value string, fallback func() string) string {
	if value != "" {
		return value
	}
	return fallback()
}
