package detector

import "github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"

// Endpoint keys of the built-in detectors.
const (
	EndpointSQLInjection  = "sql-injection"
	EndpointPathTraversal = "path-traversal"
	EndpointBots          = "bots"
	EndpointLFIRFI        = "lfi-rfi"
	EndpointWPProbe       = "wp-probe"
	EndpointBruteForce    = "brute-force"
	EndpointErrors        = "errors"
	EndpointInternalIP    = "internal-ip"
)

var catalog = []model.AttackType{
	{
		Name:        "SQL Injection",
		Endpoint:    EndpointSQLInjection,
		Description: "Attempts to inject malicious SQL code into database queries",
		Severity:    model.SeverityHigh,
		Color:       "#DC2626",
	},
	{
		Name:        "Path Traversal",
		Endpoint:    EndpointPathTraversal,
		Description: "Attempts to access files outside the web root directory",
		Severity:    model.SeverityHigh,
		Color:       "#EA580C",
	},
	{
		Name:        "Bot Detection",
		Endpoint:    EndpointBots,
		Description: "Automated bot and crawler activity detection",
		Severity:    model.SeverityMedium,
		Color:       "#CA8A04",
	},
	{
		Name:        "LFI/RFI Attacks",
		Endpoint:    EndpointLFIRFI,
		Description: "Local and Remote File Inclusion attack attempts",
		Severity:    model.SeverityHigh,
		Color:       "#DC2626",
	},
	{
		Name:        "WordPress Probes",
		Endpoint:    EndpointWPProbe,
		Description: "WordPress-specific vulnerability scanning attempts",
		Severity:    model.SeverityMedium,
		Color:       "#7C3AED",
	},
	{
		Name:        "Brute Force",
		Endpoint:    EndpointBruteForce,
		Description: "Password brute force and credential stuffing attacks",
		Severity:    model.SeverityHigh,
		Color:       "#B91C1C",
	},
	{
		Name:        "HTTP Errors",
		Endpoint:    EndpointErrors,
		Description: "Suspicious HTTP error patterns and responses",
		Severity:    model.SeverityLow,
		Color:       "#059669",
	},
	{
		Name:        "Internal IP Access",
		Endpoint:    EndpointInternalIP,
		Description: "Unauthorized access attempts to internal IP ranges",
		Severity:    model.SeverityMedium,
		Color:       "#0284C7",
	},
}

// Catalog returns a copy of the built-in attack types in display order.
func Catalog() []model.AttackType {
	out := make([]model.AttackType, len(catalog))
	copy(out, catalog)
	return out
}

// Builtins returns the eight built-in detectors in catalog order.
func Builtins() []Detector {
	return []Detector{
		builtin{EndpointSQLInjection, classifySQLInjection},
		builtin{EndpointPathTraversal, classifyPathTraversal},
		builtin{EndpointBots, classifyBot},
		builtin{EndpointLFIRFI, classifyLFIRFI},
		builtin{EndpointWPProbe, classifyWPProbe},
		builtin{EndpointBruteForce, classifyBruteForce},
		builtin{EndpointErrors, classifyHTTPError},
		builtin{EndpointInternalIP, classifyInternalIP},
	}
}
