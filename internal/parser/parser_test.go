package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

const validLine = `203.0.113.7 - - [10/Oct/2023:13:55:36 +0000] "GET /index.html HTTP/1.1" 200 2326 "https://example.com/" "Mozilla/5.0 (X11; Linux x86_64)" example.com 10.0.0.1`

func TestParseLine(t *testing.T) {
	entry, ok := ParseLine(validLine)
	if !ok {
		t.Fatal("expected line to parse")
	}

	if entry.IP != "203.0.113.7" {
		t.Errorf("expected ip 203.0.113.7, got %q", entry.IP)
	}
	if entry.Timestamp != "2023-10-10T13:55:36.000Z" {
		t.Errorf("expected normalized timestamp, got %q", entry.Timestamp)
	}
	if entry.Method != "GET" || entry.Path != "/index.html" || entry.Protocol != "HTTP/1.1" {
		t.Errorf("unexpected request fields: %q %q %q", entry.Method, entry.Path, entry.Protocol)
	}
	if entry.Status != "200" {
		t.Errorf("expected status 200, got %q", entry.Status)
	}
	if entry.Bytes != "2326" {
		t.Errorf("expected bytes 2326, got %q", entry.Bytes)
	}
	if entry.Referrer != "https://example.com/" {
		t.Errorf("expected referrer, got %q", entry.Referrer)
	}
	if entry.UserAgent != "Mozilla/5.0 (X11; Linux x86_64)" {
		t.Errorf("expected user agent, got %q", entry.UserAgent)
	}
	if entry.Host != "example.com" || entry.ServerIP != "10.0.0.1" {
		t.Errorf("expected host/server ip, got %q %q", entry.Host, entry.ServerIP)
	}
}

func TestParseLineKeepsPathEncoded(t *testing.T) {
	line := `1.2.3.4 - - [10/Oct/2023:13:55:36 +0000] "GET /search?q=%27%20OR%201=1 HTTP/1.1" 200 - "" "" host 5.6.7.8`
	entry, ok := ParseLine(line)
	if !ok {
		t.Fatal("expected line to parse")
	}
	if entry.Path != "/search?q=%27%20OR%201=1" {
		t.Errorf("expected encoded path, got %q", entry.Path)
	}
	if entry.Bytes != "-" {
		t.Errorf("expected bytes sentinel '-', got %q", entry.Bytes)
	}
	if entry.Referrer != "" || entry.UserAgent != "" {
		t.Errorf("expected empty referrer and user agent, got %q %q", entry.Referrer, entry.UserAgent)
	}
}

func TestParseLineReplacesInvalidUTF8(t *testing.T) {
	line := "1.2.3.4 - - [10/Oct/2023:13:55:36 +0000] \"GET /caf\xe9 HTTP/1.1\" 200 10 \"-\" \"bot\xff\xfe\" host 5.6.7.8"
	entry, ok := ParseLine(line)
	if !ok {
		t.Fatal("expected line to parse")
	}
	if entry.Path != "/caf\uFFFD" {
		t.Errorf("expected invalid byte replaced in path, got %q", entry.Path)
	}
	if entry.UserAgent != "bot\uFFFD" {
		t.Errorf("expected invalid run replaced in user agent, got %q", entry.UserAgent)
	}
}

func TestParseLineMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"missing user agent", `1.2.3.4 - - [10/Oct/2023:13:55:36 +0000] "GET / HTTP/1.1" 200 12 "-"`},
		{"four digit status", `1.2.3.4 - - [10/Oct/2023:13:55:36 +0000] "GET / HTTP/1.1" 2000 12 "-" "ua" host 5.6.7.8`},
		{"two digit status", `1.2.3.4 - - [10/Oct/2023:13:55:36 +0000] "GET / HTTP/1.1" 20 12 "-" "ua" host 5.6.7.8`},
		{"missing server ip", `1.2.3.4 - - [10/Oct/2023:13:55:36 +0000] "GET / HTTP/1.1" 200 12 "-" "ua" host`},
		{"extra field", `1.2.3.4 - - [10/Oct/2023:13:55:36 +0000] "GET / HTTP/1.1" 200 12 "-" "ua" host 5.6.7.8 extra`},
		{"plain text", "this is not an access log line"},
		{"common log format only", `127.0.0.1 - frank [10/Oct/2023:13:55:36 +0000] "GET / HTTP/1.1" 200 12`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ParseLine(tt.line); ok {
				t.Errorf("expected %q to be dropped", tt.line)
			}
		})
	}
}

func TestParsePreservesOrderAndSkipsMalformed(t *testing.T) {
	lines := []string{
		`10.0.0.1 - - [10/Oct/2023:13:55:36 +0000] "GET /a HTTP/1.1" 200 1 "-" "ua" h s`,
		"garbage",
		`10.0.0.2 - - [10/Oct/2023:13:55:37 +0000] "GET /b HTTP/1.1" 2000 1 "-" "ua" h s`,
		`10.0.0.3 - - [10/Oct/2023:13:55:38 +0000] "GET /c HTTP/1.1" 404 1 "-" "ua" h s`,
		"",
		`10.0.0.4 - - [10/Oct/2023:13:55:39 +0000] "GET /d HTTP/1.1" 500 1 "-" "ua" h s` + "\r",
	}

	entries := Parse(strings.Join(lines, "\n"))
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"/a", "/c", "/d"}
	for i, e := range entries {
		if e.Path != want[i] {
			t.Errorf("entry %d: expected path %s, got %s", i, want[i], e.Path)
		}
	}
	if entries[2].ServerIP != "s" {
		t.Errorf("expected CR to be stripped, got server ip %q", entries[2].ServerIP)
	}
}

func TestParseEmpty(t *testing.T) {
	entries := Parse("")
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", entries)
	}
}

func TestParseStrict(t *testing.T) {
	_, stats, err := ParseStrict("junk\nmore junk\n\n")
	if !errors.Is(err, ErrNoEntries) {
		t.Fatalf("expected ErrNoEntries, got %v", err)
	}
	if stats.Lines != 2 || stats.Dropped != 2 || stats.Parsed != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	entries, stats, err := ParseStrict(validLine + "\njunk\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || stats.Parsed != 1 || stats.Dropped != 1 {
		t.Errorf("unexpected result: %d entries, stats %+v", len(entries), stats)
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10/Oct/2023:13:55:36 +0000", "2023-10-10T13:55:36.000Z"},
		{"10/Oct/2023:13:55:36 +0200", "2023-10-10T11:55:36.000Z"},
		{"31/Dec/2023:23:30:00 -0100", "2024-01-01T00:30:00.000Z"},
		{"not a timestamp", "not a timestamp"},
		{"10/Foo/2023:13:55:36 +0000", "10/Foo/2023:13:55:36 +0000"},
		{"31/Feb/2023:13:55:36 +0000", "31/Feb/2023:13:55:36 +0000"},
		{"10/Oct/2023:25:55:36 +0000", "10/Oct/2023:25:55:36 +0000"},
		{"10/Oct/2023:13:55:36", "10/Oct/2023:13:55:36"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeTimestamp(tt.in); got != tt.want {
				t.Errorf("NormalizeTimestamp(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizedTimestampRoundTrips(t *testing.T) {
	got := NormalizeTimestamp("10/Oct/2023:13:55:36 +0000")
	parsed, err := time.Parse(time.RFC3339, got)
	if err != nil {
		t.Fatalf("expected RFC 3339 output, got %q: %v", got, err)
	}
	want := time.Date(2023, 10, 10, 13, 55, 36, 0, time.UTC)
	if !parsed.Equal(want) {
		t.Errorf("expected %v, got %v", want, parsed)
	}
}

// BenchmarkParseLine measures single-line parsing throughput.
func BenchmarkParseLine(b *testing.B) {
	p := New()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p.ParseLine(validLine)
	}
}

// BenchmarkParseThroughput measures sustained parsing over a mixed batch.
func BenchmarkParseThroughput(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		if i%10 == 0 {
			sb.WriteString("malformed line\n")
			continue
		}
		fmt.Fprintf(&sb, `10.0.%d.%d - - [10/Oct/2023:13:55:36 +0000] "GET /page/%d HTTP/1.1" 200 5678 "-" "Mozilla/5.0" example.com 10.0.0.1`+"\n", i/256, i%256, i)
	}
	content := sb.String()
	p := New()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p.Parse(content)
	}
}
