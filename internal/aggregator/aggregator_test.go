package aggregator

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

func suspicious(ip, ts, status, bytes, reason string) model.SuspiciousEntry {
	return model.SuspiciousEntry{
		LogEntry: model.LogEntry{
			IP: ip, Timestamp: ts, Method: "GET", Path: "/", Protocol: "HTTP/1.1",
			Status: status, Bytes: bytes, Host: "example.com", ServerIP: "10.0.0.1",
		},
		SuspicionReason: reason,
	}
}

func processed(ip, ts string, status int, attackType string) model.ProcessedLogEntry {
	return model.ProcessedLogEntry{IP: ip, Timestamp: ts, Status: status, AttackType: attackType}
}

func TestProcessCoercesFields(t *testing.T) {
	in := []model.SuspiciousEntry{
		suspicious("1.1.1.1", "2024-01-01T00:00:00.000Z", "404", "123", "r1"),
		suspicious("2.2.2.2", "2024-01-01T00:00:00.000Z", "500", "-", "r2"),
		suspicious("3.3.3.3", "2024-01-01T00:00:00.000Z", "200", "abc", "r3"),
	}
	out, err := Process(in, "HTTP Errors")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
	if out[0].Status != 404 || out[0].Bytes != 123 {
		t.Errorf("expected 404/123, got %d/%d", out[0].Status, out[0].Bytes)
	}
	if out[1].Bytes != 0 {
		t.Errorf("expected '-' bytes to become 0, got %d", out[1].Bytes)
	}
	if out[2].Bytes != 0 {
		t.Errorf("expected non-numeric bytes to become 0, got %d", out[2].Bytes)
	}
	for i, p := range out {
		if p.AttackType != "HTTP Errors" {
			t.Errorf("record %d: expected attack type label, got %q", i, p.AttackType)
		}
		if p.SuspicionReason != in[i].SuspicionReason {
			t.Errorf("record %d: reason not carried over", i)
		}
	}
}

func TestProcessRejectsNonNumericStatus(t *testing.T) {
	_, err := Process([]model.SuspiciousEntry{suspicious("1.1.1.1", "", "abc", "0", "r")}, "X")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestProcessEmpty(t *testing.T) {
	out, err := Process(nil, "X")
	if err != nil || out == nil || len(out) != 0 {
		t.Errorf("expected empty non-nil slice, got %v (%v)", out, err)
	}
}

func TestResultSetReplaceByType(t *testing.T) {
	rs := NewResultSet()
	rs.Replace("A", []model.ProcessedLogEntry{processed("1.1.1.1", "", 404, "A")})
	rs.Replace("B", []model.ProcessedLogEntry{processed("2.2.2.2", "", 404, "B")})
	rs.Replace("A", []model.ProcessedLogEntry{
		processed("3.3.3.3", "", 404, "A"),
		processed("4.4.4.4", "", 404, "A"),
	})

	got := rs.Entries()
	if len(got) != 3 {
		t.Fatalf("expected 3 records after replace, got %d", len(got))
	}
	want := []string{"2.2.2.2", "3.3.3.3", "4.4.4.4"}
	for i, ip := range want {
		if got[i].IP != ip {
			t.Errorf("position %d: expected %s, got %s", i, ip, got[i].IP)
		}
	}
	if n := len(rs.ByType("A")); n != 2 {
		t.Errorf("expected 2 records of A, got %d", n)
	}

	rs.Replace("A", nil)
	if rs.Len() != 1 {
		t.Errorf("expected replacing with nothing to clear A, got %d records", rs.Len())
	}

	rs.Reset()
	if rs.Len() != 0 {
		t.Errorf("expected empty after reset, got %d", rs.Len())
	}
}

func TestResultSetEntriesIsACopy(t *testing.T) {
	rs := NewResultSet()
	rs.Append(processed("1.1.1.1", "", 404, "A"))
	got := rs.Entries()
	got[0].IP = "mutated"
	if rs.Entries()[0].IP != "1.1.1.1" {
		t.Error("expected Entries to return a copy")
	}
}

func TestSummarize(t *testing.T) {
	entries := []model.ProcessedLogEntry{
		processed("5.5.5.5", "2024-03-02T10:00:00.000Z", 404, "HTTP Errors"),
		processed("1.1.1.1", "2024-03-01T10:00:00.000Z", 404, "HTTP Errors"),
		processed("1.1.1.1", "2024-03-01T11:00:00.000Z", 500, "SQL Injection"),
		processed("9.9.9.9", "not a date", 401, "Brute Force"),
		processed("5.5.5.5", "01/Mar/2024:23:30:00 -0100", 404, "HTTP Errors"),
	}
	s := Summarize(entries, 0)

	if s.TotalThreats != 5 {
		t.Errorf("expected 5 threats, got %d", s.TotalThreats)
	}
	if s.UniqueAttackers != 3 {
		t.Errorf("expected 3 unique attackers, got %d", s.UniqueAttackers)
	}
	wantTypes := map[string]int{"HTTP Errors": 3, "SQL Injection": 1, "Brute Force": 1}
	if !reflect.DeepEqual(s.AttackTypeCounts, wantTypes) {
		t.Errorf("expected %v, got %v", wantTypes, s.AttackTypeCounts)
	}
	wantStatus := map[string]int{"404": 3, "500": 1, "401": 1}
	if !reflect.DeepEqual(s.StatusCodeDistribution, wantStatus) {
		t.Errorf("expected %v, got %v", wantStatus, s.StatusCodeDistribution)
	}

	// 5.5.5.5 and 1.1.1.1 tie at 2; 5.5.5.5 was seen first.
	wantTop := []model.IPCount{{IP: "5.5.5.5", Count: 2}, {IP: "1.1.1.1", Count: 2}, {IP: "9.9.9.9", Count: 1}}
	if !reflect.DeepEqual(s.TopAttackers, wantTop) {
		t.Errorf("expected %v, got %v", wantTop, s.TopAttackers)
	}

	// The raw CLF timestamp falls on 2024-03-02 in UTC; "not a date" is left out.
	wantTimeline := []model.DateCount{{Date: "2024-03-01", Count: 2}, {Date: "2024-03-02", Count: 2}}
	if !reflect.DeepEqual(s.TimelineData, wantTimeline) {
		t.Errorf("expected %v, got %v", wantTimeline, s.TimelineData)
	}
}

func TestSummarizeCapsTopAttackers(t *testing.T) {
	var entries []model.ProcessedLogEntry
	for _, ip := range []string{"a", "b", "b", "c", "c", "c"} {
		entries = append(entries, processed(ip, "", 404, "X"))
	}
	s := Summarize(entries, 2)
	if len(s.TopAttackers) != 2 {
		t.Fatalf("expected 2 attackers, got %d", len(s.TopAttackers))
	}
	if s.TopAttackers[0].IP != "c" || s.TopAttackers[1].IP != "b" {
		t.Errorf("unexpected order %v", s.TopAttackers)
	}
	if s.UniqueAttackers != 3 {
		t.Errorf("expected unique count before capping, got %d", s.UniqueAttackers)
	}
}

func TestSummarizeTopAttackersOrder(t *testing.T) {
	counts := []struct {
		ip string
		n  int
	}{{"A", 5}, {"B", 9}, {"C", 9}, {"D", 1}}

	// Interleave so first appearance is A, B, C, D while counts keep growing.
	var entries []model.ProcessedLogEntry
	for round := 0; round < 9; round++ {
		for _, c := range counts {
			if round < c.n {
				entries = append(entries, processed(c.ip, "", 404, "X"))
			}
		}
	}

	tests := []struct {
		topN int
		want []model.IPCount
	}{
		{0, []model.IPCount{{IP: "B", Count: 9}, {IP: "C", Count: 9}, {IP: "A", Count: 5}, {IP: "D", Count: 1}}},
		{3, []model.IPCount{{IP: "B", Count: 9}, {IP: "C", Count: 9}, {IP: "A", Count: 5}}},
	}
	for _, tt := range tests {
		s := Summarize(entries, tt.topN)
		if !reflect.DeepEqual(s.TopAttackers, tt.want) {
			t.Errorf("topN=%d: expected %v, got %v", tt.topN, tt.want, s.TopAttackers)
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, 10)
	if s.TotalThreats != 0 || s.TopAttackers == nil || s.TimelineData == nil {
		t.Errorf("expected zeroed summary with empty slices, got %+v", s)
	}
}

func TestPage(t *testing.T) {
	var entries []model.ProcessedLogEntry
	for i := 0; i < 5; i++ {
		entries = append(entries, processed("ip", "", 404, "X"))
	}

	tests := []struct {
		limit, offset int
		wantLen       int
		wantMore      bool
	}{
		{2, 0, 2, true},
		{2, 2, 2, true},
		{2, 4, 1, false},
		{5, 0, 5, false},
		{10, 0, 5, false},
		{2, 9, 0, false},
	}
	for _, tt := range tests {
		page, total, more := Page(entries, tt.limit, tt.offset)
		if len(page) != tt.wantLen || total != 5 || more != tt.wantMore {
			t.Errorf("Page(limit=%d, offset=%d) = %d, %d, %v; want %d, 5, %v",
				tt.limit, tt.offset, len(page), total, more, tt.wantLen, tt.wantMore)
		}
	}
}

func TestLiveCountsAlerts(t *testing.T) {
	ch := make(chan model.ProcessedLogEntry, 100)
	live := NewLive(ch, func() int64 { return 3 }, func() int { return 2 })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go live.Start(ctx)

	ch <- processed("1.1.1.1", "", 404, "HTTP Errors")
	ch <- processed("1.1.1.1", "", 401, "Brute Force")
	ch <- processed("2.2.2.2", "", 404, "HTTP Errors")

	deadline := time.Now().Add(2 * time.Second)
	for live.Snapshot().TotalAlerts < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	stats := live.Snapshot()
	if stats.TotalAlerts != 3 {
		t.Fatalf("expected 3 alerts, got %d", stats.TotalAlerts)
	}
	if stats.TypeCounts["HTTP Errors"] != 2 {
		t.Errorf("expected 2 HTTP Errors, got %d", stats.TypeCounts["HTTP Errors"])
	}
	if stats.AlertsPerSecond <= 0 {
		t.Errorf("expected positive rate, got %f", stats.AlertsPerSecond)
	}
	if stats.DroppedAlerts != 3 || stats.FilesWatched != 2 {
		t.Errorf("expected dropped=3 files=2, got %d %d", stats.DroppedAlerts, stats.FilesWatched)
	}
	if live.Results().Len() != 3 {
		t.Errorf("expected 3 recorded results, got %d", live.Results().Len())
	}
}

func TestLivePrune(t *testing.T) {
	live := NewLive(nil, nil, nil)
	now := time.Now()
	live.now = func() time.Time { return now }
	live.window = []time.Time{now.Add(-10 * time.Second), now.Add(-time.Second)}
	live.prune()
	if len(live.window) != 1 {
		t.Errorf("expected 1 timestamp after prune, got %d", len(live.window))
	}
}
