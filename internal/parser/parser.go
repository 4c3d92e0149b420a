package parser

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

// ErrNoEntries is returned when a file yields zero parseable entries.
// It usually means the wrong file or log format was supplied.
var ErrNoEntries = errors.New("no valid entries found")

// combinedPattern matches Apache/Nginx combined-log lines extended with host and server IP:
// ip - - [timestamp] "method path protocol" status bytes "referrer" "user_agent" host server_ip
var combinedPattern = regexp.MustCompile(
	`^(?P<ip>\S+) - - \[(?P<timestamp>.*?)\] ` +
		`"(?P<method>\S+) (?P<path>\S+) (?P<protocol>[^"]+)" ` +
		`(?P<status>\d{3}) (?P<bytes>\S+) ` +
		`"(?P<referrer>[^"]*)" "(?P<user_agent>[^"]*)" ` +
		`(?P<host>\S+) (?P<server_ip>\S+)\s*$`,
)

// Stats describes one parsing pass.
type Stats struct {
	Lines   int `json:"lines"`   // non-blank input lines
	Parsed  int `json:"parsed"`  // lines that produced an entry
	Dropped int `json:"dropped"` // non-blank lines that did not match the grammar
}

// Parser converts access-log text into structured entries.
// Lines that do not match the grammar are dropped, never reported as errors.
type Parser struct {
	re      *regexp.Regexp
	indexes [11]int
}

// New returns a Parser for the combined access-log grammar.
func New() *Parser {
	p := &Parser{re: combinedPattern}
	names := []string{"ip", "timestamp", "method", "path", "protocol", "status", "bytes",
		"referrer", "user_agent", "host", "server_ip"}
	for i, name := range names {
		p.indexes[i] = p.re.SubexpIndex(name)
	}
	return p
}

var defaultParser = New()

// Parse parses content with the default parser.
func Parse(content string) []model.LogEntry {
	entries, _ := defaultParser.Parse(content)
	return entries
}

// ParseLine parses a single line with the default parser.
func ParseLine(line string) (model.LogEntry, bool) {
	return defaultParser.ParseLine(line)
}

// ParseStrict parses content and returns ErrNoEntries when nothing matched.
func ParseStrict(content string) ([]model.LogEntry, Stats, error) {
	entries, stats := defaultParser.Parse(content)
	if len(entries) == 0 {
		return nil, stats, ErrNoEntries
	}
	return entries, stats, nil
}

// ParseLine matches one line against the grammar.
// The timestamp is normalized; every other field is kept verbatim, except that byte
// sequences which are not valid UTF-8 become U+FFFD so every field survives JSON export.
func (p *Parser) ParseLine(line string) (model.LogEntry, bool) {
	line = strings.TrimSuffix(line, "\r")
	if !utf8.ValidString(line) {
		line = strings.ToValidUTF8(line, string(utf8.RuneError))
	}
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return model.LogEntry{}, false
	}
	ix := p.indexes
	return model.LogEntry{
		IP:        m[ix[0]],
		Timestamp: NormalizeTimestamp(m[ix[1]]),
		Method:    m[ix[2]],
		Path:      m[ix[3]],
		Protocol:  m[ix[4]],
		Status:    m[ix[5]],
		Bytes:     m[ix[6]],
		Referrer:  m[ix[7]],
		UserAgent: m[ix[8]],
		Host:      m[ix[9]],
		ServerIP:  m[ix[10]],
	}, true
}

// Parse splits content on newlines and returns entries in input order.
func (p *Parser) Parse(content string) ([]model.LogEntry, Stats) {
	var stats Stats
	if content == "" {
		return []model.LogEntry{}, stats
	}

	entries := make([]model.LogEntry, 0, strings.Count(content, "\n")+1)
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.Lines++
		entry, ok := p.ParseLine(line)
		if !ok {
			stats.Dropped++
			continue
		}
		stats.Parsed++
		entries = append(entries, entry)
	}
	return entries, stats
}
