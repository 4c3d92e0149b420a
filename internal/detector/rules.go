package detector

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

// Suspicion reasons attached by the built-in detectors.
const (
	ReasonSQLInjection  = "SQL injection pattern detected"
	ReasonPathTraversal = "Path traversal pattern detected"
	ReasonCrawler       = "Crawler Bot"
	ReasonClientLibrary = "Client Library Bot"
	ReasonSuspiciousUA  = "Suspicious User-Agent"
	ReasonLFIRFI        = "LFI/RFI pattern detected"
	ReasonWPProbe       = "WordPress probe detected"
	ReasonBruteForce    = "Brute force attempt detected"
	ReasonInternalIP    = "Internal IP address detected"
	reasonHTTPError     = "HTTP error status: "
)

// ---------------------------------------------------------------------------
// SQL Injection
// ---------------------------------------------------------------------------

var sqlInjectionPatterns = []string{
	// union based
	`union\s+(all\s+)?select`,
	`select\s+.*\s+from`,
	`select\s+\*`,
	// boolean blind
	`(and|or)\s+\d+\s*[=<>!]+\s*\d+`,
	`(and|or)\s+['"]?[a-z]+['"]?\s*[=<>!]+\s*['"]?[a-z]+['"]?`,
	`(and|or)\s+\d+\s*(and|or)\s+\d+`,
	// time based blind
	`(sleep|waitfor|delay)\s*\(\s*\d+\s*\)`,
	`benchmark\s*\(\s*\d+`,
	`pg_sleep\s*\(\s*\d+\s*\)`,
	// error based
	`(convert|cast|char)\s*\(`,
	`concat\s*\(`,
	`group_concat\s*\(`,
	`having\s+\d+\s*[=<>!]+\s*\d+`,
	// auth bypass
	`(admin|user|login)['"]?\s*(=|like)\s*['"]?\s*(or|and)`,
	`['"]\s*(or|and)\s*['"]?[^'"]*['"]?\s*(=|like)`,
	`['"]\s*(or|and)\s*\d+\s*[=<>!]+\s*\d+`,
	// commands, procedures, schema and file primitives
	`(drop|delete|truncate|insert|update)\s+(table|from|into)`,
	`(exec|execute|sp_|xp_)\w*`,
	`(information_schema|sys\.|mysql\.|pg_)`,
	`(load_file|into\s+outfile|dumpfile)`,
	// comments
	`(--|#|\*/|\*\*)`,
	`/\*.*\*/`,
	// encodings
	`(%27|%22|%2d%2d|%23)`,
	`(0x[0-9a-f]+)`,
	`(char\s*\(\s*\d+)`,
}

var sqlInjectionRegex = compileAlternation(sqlInjectionPatterns)

func compileAlternation(patterns []string) *regexp.Regexp {
	groups := make([]string, len(patterns))
	for i, p := range patterns {
		groups[i] = "(" + p + ")"
	}
	return regexp.MustCompile(`(?im)` + strings.Join(groups, "|"))
}

// classifySQLInjection tests the URL-decoded path. A path that cannot be decoded, or that
// decodes to invalid UTF-8, is not flagged.
func classifySQLInjection(e *model.LogEntry) (string, bool) {
	if e.Path == "" {
		return "", false
	}
	decoded, err := url.PathUnescape(e.Path)
	if err != nil || !utf8.ValidString(decoded) {
		return "", false
	}
	if sqlInjectionRegex.MatchString(decoded) {
		return ReasonSQLInjection, true
	}
	return "", false
}

// ---------------------------------------------------------------------------
// Path Traversal
// ---------------------------------------------------------------------------

var pathTraversalRegex = regexp.MustCompile(`(?i)(\.\./|%2e%2e%2f|%2e%2f|%2f\.\.|/\.{2})`)

// maxPathDepth is the number of '/' characters beyond which a path is flagged.
const maxPathDepth = 15

func classifyPathTraversal(e *model.LogEntry) (string, bool) {
	if e.Path == "" {
		return "", false
	}
	if pathTraversalRegex.MatchString(e.Path) || strings.Count(e.Path, "/") > maxPathDepth {
		return ReasonPathTraversal, true
	}
	return "", false
}

// ---------------------------------------------------------------------------
// Bot Detection
// ---------------------------------------------------------------------------

var crawlers = []string{
	"googlebot", "bingbot", "baiduspider", "yandexbot",
	"duckduckbot", "slurp", "facebookexternalhit", "twitterbot",
	"applebot", "linkedinbot", "petalbot", "semrushbot",
}

var clientLibraries = []string{
	"curl", "wget", "httpclient", "python-requests", "aiohttp",
	"okhttp", "java/", "libwww-perl", "go-http-client", "restsharp",
	"scrapy", "httpie",
}

// minUserAgentLength is the shortest user agent not considered suspicious.
const minUserAgentLength = 10

// ClassifyUserAgent returns the bot category of a user agent, checking crawlers first,
// then client libraries, then generic anomalies.
func ClassifyUserAgent(ua string) (string, bool) {
	lower := strings.ToLower(ua)
	if containsAny(lower, crawlers) {
		return ReasonCrawler, true
	}
	if containsAny(lower, clientLibraries) {
		return ReasonClientLibrary, true
	}
	if strings.TrimSpace(lower) == "" ||
		utf8.RuneCountInString(lower) < minUserAgentLength ||
		!strings.Contains(lower, "mozilla") {
		return ReasonSuspiciousUA, true
	}
	return "", false
}

func classifyBot(e *model.LogEntry) (string, bool) {
	return ClassifyUserAgent(e.UserAgent)
}

// ---------------------------------------------------------------------------
// LFI/RFI, WordPress, Brute Force
// ---------------------------------------------------------------------------

var (
	lfiRegex         = regexp.MustCompile(`(?i)(etc/passwd|proc/self/environ|input_file=|data:text)`)
	wpProbeRegex     = regexp.MustCompile(`(?i)(\.php|/wp-|xmlrpc\.php|\?author=|\?p=)`)
	loginRegex       = regexp.MustCompile(`(?i)(login|admin|signin|wp-login\.php)`)
	denialStatuses   = map[string]bool{"401": true, "403": true, "429": true}
	errorStatuses    = map[string]bool{"403": true, "404": true, "406": true, "500": true, "502": true}
	internalPrefixes = []string{"192.168.", "10.", "127.", "172."}
)

func classifyLFIRFI(e *model.LogEntry) (string, bool) {
	if lfiRegex.MatchString(e.Path) {
		return ReasonLFIRFI, true
	}
	return "", false
}

func classifyWPProbe(e *model.LogEntry) (string, bool) {
	if wpProbeRegex.MatchString(e.Path) {
		return ReasonWPProbe, true
	}
	return "", false
}

// classifyBruteForce requires both a login-like path and a denial status.
func classifyBruteForce(e *model.LogEntry) (string, bool) {
	if denialStatuses[e.Status] && loginRegex.MatchString(e.Path) {
		return ReasonBruteForce, true
	}
	return "", false
}

// ---------------------------------------------------------------------------
// HTTP Errors, Internal IP
// ---------------------------------------------------------------------------

func classifyHTTPError(e *model.LogEntry) (string, bool) {
	if errorStatuses[e.Status] {
		return reasonHTTPError + e.Status, true
	}
	return "", false
}

// classifyInternalIP is a textual prefix test, not a CIDR match: "172." also covers public
// space outside 172.16.0.0/12. Detection counts downstream depend on this.
func classifyInternalIP(e *model.LogEntry) (string, bool) {
	for _, prefix := range internalPrefixes {
		if strings.HasPrefix(e.IP, prefix) {
			return ReasonInternalIP, true
		}
	}
	return "", false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Pure function forms
// ---------------------------------------------------------------------------

// SQLInjection flags entries whose decoded path matches an SQL injection pattern.
func SQLInjection(entries []model.LogEntry) []model.SuspiciousEntry {
	return filter(entries, classifySQLInjection)
}

// PathTraversal flags directory traversal sequences and excessively deep paths.
func PathTraversal(entries []model.LogEntry) []model.SuspiciousEntry {
	return filter(entries, classifyPathTraversal)
}

// Bots flags crawler, client-library and anomalous user agents.
func Bots(entries []model.LogEntry) []model.SuspiciousEntry {
	return filter(entries, classifyBot)
}

// LFIRFI flags local and remote file inclusion probes.
func LFIRFI(entries []model.LogEntry) []model.SuspiciousEntry {
	return filter(entries, classifyLFIRFI)
}

// WordPressProbe flags WordPress and PHP scanning paths.
func WordPressProbe(entries []model.LogEntry) []model.SuspiciousEntry {
	return filter(entries, classifyWPProbe)
}

// BruteForce flags denied requests against login-like paths.
func BruteForce(entries []model.LogEntry) []model.SuspiciousEntry {
	return filter(entries, classifyBruteForce)
}

// HTTPErrors flags suspicious error statuses.
func HTTPErrors(entries []model.LogEntry) []model.SuspiciousEntry {
	return filter(entries, classifyHTTPError)
}

// InternalIP flags clients whose address starts with a private-looking prefix.
func InternalIP(entries []model.LogEntry) []model.SuspiciousEntry {
	return filter(entries, classifyInternalIP)
}
