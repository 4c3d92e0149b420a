package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

// Renderer writes alerts to an output stream.
type Renderer interface {
	Render(alert model.ProcessedLogEntry) error
}

// SeverityFunc maps an attack type name to its severity.
type SeverityFunc func(attackType string) model.Severity

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	styleMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("220")) // yellow
	styleHigh   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("196")).
			Bold(true) // white on red
	styleIP     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")) // cyan
	styleReason = lipgloss.NewStyle().Faint(true)
	styleTitle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// TextRenderer prints alerts with severity-based colors.
type TextRenderer struct {
	w        io.Writer
	severity SeverityFunc
}

// NewTextRenderer returns a Renderer writing colorized text to w.
// A nil severity func renders every alert as low.
func NewTextRenderer(w io.Writer, severity SeverityFunc) *TextRenderer {
	if severity == nil {
		severity = func(string) model.Severity { return model.SeverityLow }
	}
	return &TextRenderer{w: w, severity: severity}
}

func (r *TextRenderer) Render(alert model.ProcessedLogEntry) error {
	tag := styleSeverityTag(r.severity(alert.AttackType), alert.AttackType)
	line := fmt.Sprintf("%s %s %s %s %s %d %s",
		alert.Timestamp,
		tag,
		styleIP.Render(alert.IP),
		alert.Method,
		alert.Path,
		alert.Status,
		styleReason.Render(alert.SuspicionReason),
	)
	_, err := fmt.Fprintln(r.w, line)
	return err
}

func styleSeverityTag(sev model.Severity, attackType string) string {
	label := fmt.Sprintf("[%s]", attackType)
	switch sev {
	case model.SeverityHigh:
		return styleHigh.Render(label)
	case model.SeverityMedium:
		return styleMedium.Render(label)
	default:
		return styleLow.Render(label)
	}
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each alert as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Render(alert model.ProcessedLogEntry) error {
	return r.enc.Encode(alert)
}

// ---------------------------------------------------------------------------
// Summary and catalog tables
// ---------------------------------------------------------------------------

// RenderSummary prints the headline numbers followed by attack type, attacker, status and
// timeline tables.
func RenderSummary(w io.Writer, s model.Summary) error {
	fmt.Fprintln(w, styleTitle.Render("Analysis summary"))
	fmt.Fprintf(w, "Total threats: %d\nUnique attackers: %d\n\n", s.TotalThreats, s.UniqueAttackers)

	types := table.New().Border(lipgloss.NormalBorder()).Headers("Attack type", "Count")
	for _, k := range sortedByCount(s.AttackTypeCounts) {
		types.Row(k, strconv.Itoa(s.AttackTypeCounts[k]))
	}
	fmt.Fprintln(w, types.Render())

	attackers := table.New().Border(lipgloss.NormalBorder()).Headers("Top attacker", "Count")
	for _, a := range s.TopAttackers {
		attackers.Row(a.IP, strconv.Itoa(a.Count))
	}
	fmt.Fprintln(w, attackers.Render())

	statuses := table.New().Border(lipgloss.NormalBorder()).Headers("Status", "Count")
	for _, k := range sortedByCount(s.StatusCodeDistribution) {
		statuses.Row(k, strconv.Itoa(s.StatusCodeDistribution[k]))
	}
	fmt.Fprintln(w, statuses.Render())

	timeline := table.New().Border(lipgloss.NormalBorder()).Headers("Date", "Count")
	for _, d := range s.TimelineData {
		timeline.Row(d.Date, strconv.Itoa(d.Count))
	}
	_, err := fmt.Fprintln(w, timeline.Render())
	return err
}

// RenderCatalog prints attack types with their severities.
func RenderCatalog(w io.Writer, types []model.AttackType) error {
	t := table.New().Border(lipgloss.NormalBorder()).Headers("Endpoint", "Name", "Severity", "Description")
	for _, at := range types {
		t.Row(at.Endpoint, at.Name, styleSeverityTag(at.Severity, string(at.Severity)), at.Description)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// sortedByCount orders map keys by descending count, then by key.
func sortedByCount(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
