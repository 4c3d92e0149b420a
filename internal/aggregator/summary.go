package aggregator

import (
	"sort"
	"strconv"
	"time"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/parser"
)

// DefaultTopAttackers is the usual cap on the top attackers list.
const DefaultTopAttackers = 20

// Summarize derives statistics from processed records. topN caps the top attackers list;
// zero or less means no cap. Records whose timestamp cannot be read as a date are counted
// everywhere except the timeline.
func Summarize(entries []model.ProcessedLogEntry, topN int) model.Summary {
	s := model.Summary{
		TotalThreats:           len(entries),
		AttackTypeCounts:       make(map[string]int),
		StatusCodeDistribution: make(map[string]int),
		TopAttackers:           make([]model.IPCount, 0),
		TimelineData:           make([]model.DateCount, 0),
	}

	ipIndex := make(map[string]int)
	days := make(map[string]int)
	for i := range entries {
		e := &entries[i]
		s.AttackTypeCounts[e.AttackType]++
		s.StatusCodeDistribution[strconv.Itoa(e.Status)]++

		if idx, ok := ipIndex[e.IP]; ok {
			s.TopAttackers[idx].Count++
		} else {
			ipIndex[e.IP] = len(s.TopAttackers)
			s.TopAttackers = append(s.TopAttackers, model.IPCount{IP: e.IP, Count: 1})
		}

		if day, ok := Day(e.Timestamp); ok {
			days[day]++
		}
	}
	s.UniqueAttackers = len(s.TopAttackers)

	// Stable sort keeps first-seen order among equal counts.
	sort.SliceStable(s.TopAttackers, func(i, j int) bool {
		return s.TopAttackers[i].Count > s.TopAttackers[j].Count
	})
	if topN > 0 && len(s.TopAttackers) > topN {
		s.TopAttackers = s.TopAttackers[:topN]
	}

	for day, n := range days {
		s.TimelineData = append(s.TimelineData, model.DateCount{Date: day, Count: n})
	}
	sort.Slice(s.TimelineData, func(i, j int) bool {
		return s.TimelineData[i].Date < s.TimelineData[j].Date
	})
	return s
}

// Day returns the UTC calendar date (YYYY-MM-DD) of a normalized or raw CLF timestamp.
func Day(ts string) (string, bool) {
	t, ok := Time(ts)
	if !ok {
		return "", false
	}
	return t.UTC().Format(time.DateOnly), true
}

// Time interprets a record timestamp.
func Time(ts string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t, true
	}
	return parser.ParseCLFTimestamp(ts)
}

// Page slices records for paged responses. It returns the page, the total number of records
// and whether records remain past the page.
func Page(entries []model.ProcessedLogEntry, limit, offset int) ([]model.ProcessedLogEntry, int, bool) {
	total := len(entries)
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 1
	}
	if offset >= total {
		return []model.ProcessedLogEntry{}, total, false
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return entries[offset:end], total, offset+limit < total
}
