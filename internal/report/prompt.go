package report

import (
	"fmt"
	"sort"
	"strings"
)

// BuildPrompt renders the analyst prompt for d.
func BuildPrompt(d Data) string {
	var b strings.Builder

	b.WriteString("\nYou are a cybersecurity analyst. Generate a comprehensive security analysis report in Markdown format based on the following log analysis data:\n\n")

	b.WriteString("**Analysis Overview:**\n")
	fmt.Fprintf(&b, "- File: %s\n", d.FileName)
	fmt.Fprintf(&b, "- Dataset: %s\n", d.DatasetURL)
	fmt.Fprintf(&b, "- Analysis Date: %s\n", d.AnalysisDate.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Total Threats Detected: %d\n", d.TotalThreats)
	fmt.Fprintf(&b, "- Unique Attackers: %d\n", d.UniqueAttackers)
	fmt.Fprintf(&b, "- Recent Activity (24h): %d threats\n\n", d.RecentAttacks)

	b.WriteString("**Attack Type Distribution:**\n")
	for _, r := range d.TopAttackTypes {
		fmt.Fprintf(&b, "- %s: %d incidents\n", r.Key, r.Count)
	}

	b.WriteString("\n**Top Attackers:**\n")
	for _, a := range d.TopAttackers {
		fmt.Fprintf(&b, "- %s: %d attempts\n", a.IP, a.Count)
	}

	b.WriteString("\n**Most Targeted Paths:**\n")
	for _, r := range d.TopPaths {
		fmt.Fprintf(&b, "- %s: %d requests\n", r.Key, r.Count)
	}

	b.WriteString("\n**HTTP Methods:**\n")
	for _, r := range d.MethodCounts {
		fmt.Fprintf(&b, "- %s: %d requests\n", r.Key, r.Count)
	}

	b.WriteString("\n**Status Code Distribution:**\n")
	codes := make([]string, 0, len(d.StatusCodeDistribution))
	for code := range d.StatusCodeDistribution {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(&b, "- %s: %d responses\n", code, d.StatusCodeDistribution[code])
	}

	b.WriteString("\n**Critical Findings:**\n")
	for _, f := range d.CriticalFindings {
		fmt.Fprintf(&b, "- [%s] %s (%d incidents)\n", f.Severity, f.Description, f.Count)
	}

	b.WriteString(instructions)
	return b.String()
}

const instructions = `
Please generate a professional security analysis report in Markdown format that includes:

1. **Executive Summary** - High-level overview of security posture and key findings
2. **Threat Landscape Analysis** - Detailed analysis of attack types and patterns
3. **Attacker Profile Analysis** - Analysis of attacker behavior and origins
4. **Vulnerability Assessment** - Most targeted areas and potential vulnerabilities
5. **Risk Assessment** - Risk levels and potential impact
6. **Recommendations** - Specific actionable security recommendations
7. **Incident Response** - Immediate actions needed
8. **Monitoring and Prevention** - Long-term security improvements

Use proper Markdown formatting with headers, bullet points, tables where appropriate, and emphasis for important findings. Be specific, professional, and actionable in your recommendations.
`
