// Package report prepares analysis data for an AI-written security report and requests it.
package report

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/aggregator"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/detector"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/llm"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

// Thresholds for critical findings.
const (
	highActivityThreshold  = 10
	persistentThreshold    = 50
	persistentCandidates   = 3
	errorRateFraction      = 0.3
	topListSize            = 10
	recentWindow           = 24 * time.Hour
	unknownDatasetProperty = "Unknown"
)

var errorStatusCodes = []string{"403", "404", "500", "502"}

// DatasetInfo names the analysed input.
type DatasetInfo struct {
	FileName   string `json:"fileName"`
	DatasetURL string `json:"datasetUrl"`
}

// KeyCount is one row of a ranked list.
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Finding is a notable condition surfaced ahead of the model's narrative.
type Finding struct {
	Severity    string `json:"severity"`
	Type        string `json:"type"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

// Data is everything the report prompt is built from.
type Data struct {
	FileName               string          `json:"fileName"`
	DatasetURL             string          `json:"datasetUrl"`
	TotalThreats           int             `json:"totalThreats"`
	UniqueAttackers        int             `json:"uniqueAttackers"`
	AnalysisDate           time.Time       `json:"analysisDate"`
	TopAttackTypes         []KeyCount      `json:"topAttackTypes"`
	TopAttackers           []model.IPCount `json:"topAttackers"`
	RecentAttacks          int             `json:"recentAttacks"`
	TopPaths               []KeyCount      `json:"topPaths"`
	MethodCounts           []KeyCount      `json:"methodCounts"`
	StatusCodeDistribution map[string]int  `json:"statusCodeDistribution"`
	CriticalFindings       []Finding       `json:"criticalFindings"`
}

// Input gathers what Prepare needs.
type Input struct {
	Results []model.ProcessedLogEntry
	Summary model.Summary
	Dataset DatasetInfo
	// AttackTypes supplies severities. Nil means the built-in catalog.
	AttackTypes []model.AttackType
	Now         time.Time
}

// Prepare derives report data from results and their summary.
func Prepare(in Input) Data {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	if in.AttackTypes == nil {
		in.AttackTypes = detector.Catalog()
	}

	d := Data{
		FileName:               orUnknown(in.Dataset.FileName),
		DatasetURL:             orUnknown(in.Dataset.DatasetURL),
		TotalThreats:           in.Summary.TotalThreats,
		UniqueAttackers:        in.Summary.UniqueAttackers,
		AnalysisDate:           in.Now.UTC(),
		TopAttackTypes:         top(rankMap(in.Summary.AttackTypeCounts), topListSize),
		TopAttackers:           in.Summary.TopAttackers,
		StatusCodeDistribution: in.Summary.StatusCodeDistribution,
	}
	if len(d.TopAttackers) > topListSize {
		d.TopAttackers = d.TopAttackers[:topListSize]
	}

	cutoff := in.Now.Add(-recentWindow)
	paths := newCounter()
	methods := newCounter()
	for i := range in.Results {
		e := &in.Results[i]
		if t, ok := aggregator.Time(e.Timestamp); ok && !t.Before(cutoff) {
			d.RecentAttacks++
		}
		paths.add(e.Path)
		methods.add(e.Method)
	}
	d.TopPaths = top(paths.ranked(), topListSize)
	d.MethodCounts = methods.ranked()
	d.CriticalFindings = CriticalFindings(len(in.Results), in.Summary, in.AttackTypes)
	return d
}

// CriticalFindings flags heavy high-severity activity, persistent attackers and high error rates.
func CriticalFindings(total int, s model.Summary, types []model.AttackType) []Finding {
	findings := make([]Finding, 0)

	for _, at := range types {
		if at.Severity != model.SeverityHigh {
			continue
		}
		if n := s.AttackTypeCounts[at.Name]; n > highActivityThreshold {
			findings = append(findings, Finding{
				Severity:    "HIGH",
				Type:        at.Name,
				Count:       n,
				Description: fmt.Sprintf("Significant %s activity detected", strings.ToLower(at.Name)),
			})
		}
	}

	for i, a := range s.TopAttackers {
		if i == persistentCandidates {
			break
		}
		if a.Count > persistentThreshold {
			findings = append(findings, Finding{
				Severity:    "HIGH",
				Type:        "Persistent Attacker",
				Count:       a.Count,
				Description: fmt.Sprintf("IP %s shows persistent attack behavior", a.IP),
			})
		}
	}

	errCount := 0
	for _, code := range errorStatusCodes {
		errCount += s.StatusCodeDistribution[code]
	}
	if float64(errCount) > float64(total)*errorRateFraction {
		findings = append(findings, Finding{
			Severity:    "MEDIUM",
			Type:        "High Error Rate",
			Count:       errCount,
			Description: "Unusually high number of HTTP errors detected",
		})
	}
	return findings
}

func orUnknown(s string) string {
	if s == "" {
		return unknownDatasetProperty
	}
	return s
}

// counter counts keys and ranks them by count, ties in first-seen order.
type counter struct {
	index map[string]int
	rows  []KeyCount
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

func (c *counter) add(key string) {
	if i, ok := c.index[key]; ok {
		c.rows[i].Count++
		return
	}
	c.index[key] = len(c.rows)
	c.rows = append(c.rows, KeyCount{Key: key, Count: 1})
}

func (c *counter) ranked() []KeyCount {
	out := make([]KeyCount, len(c.rows))
	copy(out, c.rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func rankMap(m map[string]int) []KeyCount {
	out := make([]KeyCount, 0, len(m))
	for k, v := range m {
		out = append(out, KeyCount{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func top(rows []KeyCount, n int) []KeyCount {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}

// Report is a generated markdown report.
type Report struct {
	Markdown string     `json:"markdown"`
	Usage    *llm.Usage `json:"usage,omitempty"`
}

// Generator requests reports from a language model.
type Generator struct {
	Client llm.Client
}

var (
	fenceOpenMarkdown = regexp.MustCompile("(?i)^```markdown\\s*\\n?")
	fenceOpen         = regexp.MustCompile("^```\\s*\\n?")
	fenceClose        = regexp.MustCompile("\\n?```\\s*$")
)

// Generate builds the prompt for d and returns the cleaned markdown.
func (g Generator) Generate(ctx context.Context, d Data) (Report, error) {
	resp, err := g.Client.Generate(ctx, BuildPrompt(d), llm.Options{Temperature: 0.3, MaxTokens: 4000})
	if err != nil {
		return Report{}, fmt.Errorf("generating report: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	text = fenceOpenMarkdown.ReplaceAllString(text, "")
	text = fenceOpen.ReplaceAllString(text, "")
	text = fenceClose.ReplaceAllString(text, "")
	return Report{Markdown: strings.TrimSpace(text), Usage: resp.Usage}, nil
}
