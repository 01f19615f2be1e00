package synth

import "fmt"

// CompanyDomain is the tenant domain every synthetic identity belongs to
const CompanyDomain = "yourcompany.com"

// Addresses reserved for flag placement. Noise pools never contain them.
const (
	BruteForceIP = "185.234.72.100"
	ScannerIP    = "192.168.100.50"
	LimitDestIP  = "10.13.37.100"
)

var reservedIPs = map[string]bool{
	BruteForceIP: true,
	ScannerIP:    true,
	LimitDestIP:  true,
}

// NormalUsers is the background population
var NormalUsers = buildNormalUsers()

// SuspiciousUsers is the insider watch-list
var SuspiciousUsers = []string{
	"john.smith@" + CompanyDomain,
	"sarah.jones@" + CompanyDomain,
	"mike.wilson@" + CompanyDomain,
}

// AdminUser is the brute force target
var AdminUser = "admin@" + CompanyDomain

var apps = []string{
	"Microsoft Office 365",
	"Azure Portal",
	"Microsoft Teams",
	"SharePoint Online",
	"Exchange Online",
	"Power BI",
	"Dynamics 365",
	"Azure DevOps",
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 Chrome/120.0.0.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15",
}

var locations = []string{"US", "GB", "DE", "FR", "JP", "AU", "CA", "BR", "IN", "SG"}

// Sign-in result codes
const (
	ResultSuccess           = 0
	ResultInvalidPassword   = 50126
	ResultAccountLocked     = 50053
	ResultAccountDisabled   = 50057
	ResultPasswordExpired   = 50055
	ResultBlockedByPolicies = 53003
)

var resultDescriptions = map[int]string{
	ResultSuccess:           "Success",
	ResultInvalidPassword:   "Invalid username or password",
	ResultAccountLocked:     "Account locked",
	ResultAccountDisabled:   "User account disabled",
	ResultPasswordExpired:   "Password expired",
	ResultBlockedByPolicies: "Blocked by Conditional Access",
}

// ResultDescription maps a sign-in result code to its text
func ResultDescription(code int) string {
	if d, ok := resultDescriptions[code]; ok {
		return d
	}
	return "Unknown"
}

var operations = []string{
	"Microsoft.Compute/virtualMachines/start/action",
	"Microsoft.Compute/virtualMachines/deallocate/action",
	"Microsoft.Storage/storageAccounts/write",
	"Microsoft.Authorization/roleAssignments/write",
	"Microsoft.Resources/deployments/write",
	"Microsoft.KeyVault/vaults/secrets/read",
}

var resourceGroupTiers = []string{"prod", "dev", "test"}

var commonPorts = []int{22, 80, 443, 3389, 8080}

var protocols = []string{"T", "U"}

var nsgTiers = []string{"web", "app", "db"}

// Flow status and direction codes
const (
	FlowAllowed  = "A"
	FlowDenied   = "D"
	FlowInbound  = "I"
	FlowOutbound = "O"
)

type alertType struct {
	name     string
	severity string
}

var alertTypes = []alertType{
	{"Suspicious sign-in activity", "Medium"},
	{"Credential theft attempt detected", "High"},
	{"Brute force attack", "High"},
	{"Impossible travel", "Medium"},
	{"Anonymous IP address", "Low"},
	{"Unfamiliar sign-in properties", "Medium"},
}

var confidenceLevels = []string{"Low", "Medium", "High"}

const ipPoolSize = 100

func buildNormalUsers() []string {
	users := make([]string, 0, 54)
	for i := 1; i <= 50; i++ {
		users = append(users, fmt.Sprintf("user%d@%s", i, CompanyDomain))
	}
	return append(users,
		"alice.wong@"+CompanyDomain,
		"bob.chen@"+CompanyDomain,
		"carol.davis@"+CompanyDomain,
		AdminUser,
	)
}
