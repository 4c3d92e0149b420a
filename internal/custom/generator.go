package custom

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/llm"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

// Generator asks a language model to write a detector for a described threat.
type Generator struct {
	Client llm.Client
	// Now defaults to time.Now.
	Now func() time.Time
}

// Generate builds, validates and returns a new definition. The caller stores it.
func (g Generator) Generate(ctx context.Context, name, description string) (model.CustomDetector, error) {
	if strings.TrimSpace(name) == "" {
		return model.CustomDetector{}, fmt.Errorf("%w: threat name is required", ErrInvalidCode)
	}
	resp, err := g.Client.Generate(ctx, BuildPrompt(name, description), llm.Options{
		Temperature: 0.1,
		MaxTokens:   2000,
	})
	if err != nil {
		return model.CustomDetector{}, fmt.Errorf("generating detector: %w", err)
	}

	code, err := ExtractCode(resp.Text)
	if err != nil {
		return model.CustomDetector{}, err
	}
	if err := Validate(code); err != nil {
		return model.CustomDetector{}, err
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	created := now().UTC()
	return model.CustomDetector{
		ID:          DetectorID(name, created),
		Name:        name,
		Description: description,
		Code:        code,
		Severity:    DetermineSeverity(name, description),
		CreatedAt:   created,
	}, nil
}

var (
	fenceOpenJS    = regexp.MustCompile("(?i)^```javascript\\s*\\n?")
	fenceOpen      = regexp.MustCompile("^```\\s*\\n?")
	fenceClose     = regexp.MustCompile("\\n?```\\s*$")
	slugStrip      = regexp.MustCompile(`[^a-z0-9\s]`)
	slugSpace      = regexp.MustCompile(`\s+`)
	highKeywords   = []string{"injection", "exploit", "attack", "malware", "breach", "intrusion"}
	mediumKeywords = []string{"probe", "scan", "suspicious", "unauthorized", "anomaly"}
)

// StripFences removes a surrounding markdown code fence.
func StripFences(text string) string {
	code := strings.TrimSpace(text)
	code = fenceOpenJS.ReplaceAllString(code, "")
	code = fenceOpen.ReplaceAllString(code, "")
	code = fenceClose.ReplaceAllString(code, "")
	return strings.TrimSpace(code)
}

// ExtractCode strips fences and requires the detector function to be present.
func ExtractCode(text string) (string, error) {
	code := StripFences(text)
	if !strings.Contains(code, "function "+FunctionName) {
		return "", fmt.Errorf("%w: generated code does not contain the required function", ErrInvalidCode)
	}
	return code, nil
}

// DetectorID derives "custom-<slug>-<unix millis>" with the slug capped at 30 characters.
func DetectorID(name string, at time.Time) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(name), "")
	slug = slugSpace.ReplaceAllString(slug, "-")
	if len(slug) > 30 {
		slug = slug[:30]
	}
	return "custom-" + slug + "-" + strconv.FormatInt(at.UnixMilli(), 10)
}

// DetermineSeverity ranks a threat by keywords in its name and description.
func DetermineSeverity(name, description string) model.Severity {
	text := strings.ToLower(name + " " + description)
	if containsAny(text, highKeywords) {
		return model.SeverityHigh
	}
	if containsAny(text, mediumKeywords) {
		return model.SeverityMedium
	}
	return model.SeverityLow
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// BuildPrompt returns the generation prompt for a threat.
func BuildPrompt(name, description string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nYou are a cybersecurity expert. Generate a JavaScript function to detect \"%s\" threats in web server log entries.\n\n", name)
	fmt.Fprintf(&b, "Description: %s\n", description)
	b.WriteString(promptBody)
	return b.String()
}

const promptBody = `
The function should:
1. Take an array of log entries as parameter (each entry has: ip, timestamp, method, path, protocol, status, bytes, referrer, user_agent, host, server_ip)
2. Return an array of suspicious entries that match the threat pattern
3. Add a 'suspicion_reason' field to each suspicious entry explaining why it was flagged
4. Use appropriate regex patterns and logic to detect the threat
5. Be efficient and avoid false positives

Example log entry structure:
{
  ip: "192.168.1.100",
  timestamp: "2024-01-15T10:30:45.000Z",
  method: "GET",
  path: "/admin/login.php",
  protocol: "HTTP/1.1",
  status: "401",
  bytes: "1234",
  referrer: "https://example.com",
  user_agent: "Mozilla/5.0...",
  host: "example.com",
  server_ip: "10.0.0.1"
}

Generate ONLY the JavaScript function code without any markdown formatting or explanations. The function should be named 'detectCustomThreat' and follow this pattern:

function detectCustomThreat(entries) {
  // Your detection logic here
  const suspicious = entries.filter(entry => {
    // Detection conditions
  });

  return suspicious.map(entry => ({
    ...entry,
    suspicion_reason: 'Reason for flagging this entry'
  }));
}
`
