package parser

import (
	"regexp"
	"time"
)

// clfTimestamp matches the bracketed access-log date, e.g. 10/Oct/2023:13:55:36 +0000.
var clfTimestamp = regexp.MustCompile(`^(\d{2})/([A-Za-z]{3})/(\d{4}):(\d{2}):(\d{2}):(\d{2}) ([+-]\d{4})$`)

var months = map[string]string{
	"Jan": "01", "Feb": "02", "Mar": "03", "Apr": "04",
	"May": "05", "Jun": "06", "Jul": "07", "Aug": "08",
	"Sep": "09", "Oct": "10", "Nov": "11", "Dec": "12",
}

// ISOLayout is the normalized timestamp form, always in UTC.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// NormalizeTimestamp converts a CLF timestamp into ISOLayout.
// Anything that is not exactly the CLF form, or names an impossible date, is returned unchanged.
func NormalizeTimestamp(raw string) string {
	t, ok := ParseCLFTimestamp(raw)
	if !ok {
		return raw
	}
	return t.UTC().Format(ISOLayout)
}

// ParseCLFTimestamp interprets a CLF timestamp. Month names must be English three-letter
// abbreviations with a leading capital.
func ParseCLFTimestamp(raw string) (time.Time, bool) {
	m := clfTimestamp.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	month, ok := months[m[2]]
	if !ok {
		return time.Time{}, false
	}
	iso := m[3] + "-" + month + "-" + m[1] + "T" + m[4] + ":" + m[5] + ":" + m[6] + m[7]
	t, err := time.Parse("2006-01-02T15:04:05-0700", iso)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
