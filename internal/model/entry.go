package model

// RawLine is a single line read from a log source before parsing.
type RawLine struct {
	Text   string
	Source string // originating file path
}

// LogEntry represents a single parsed access-log line.
// All fields keep their textual form; Status and Bytes are coerced later by the aggregator.
type LogEntry struct {
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"` // normalized when parseable, original text otherwise
	Method    string `json:"method"`
	Path      string `json:"path"` // left URL-encoded
	Protocol  string `json:"protocol"`
	Status    string `json:"status"`
	Bytes     string `json:"bytes"` // "-" means zero
	Referrer  string `json:"referrer"`
	UserAgent string `json:"user_agent"`
	Host      string `json:"host"`
	ServerIP  string `json:"server_ip"`
}

// SuspiciousEntry is a LogEntry flagged by a detector.
type SuspiciousEntry struct {
	LogEntry
	SuspicionReason string `json:"suspicion_reason"`
}

// ProcessedLogEntry is a flagged entry with numeric fields coerced and its attack type attached.
type ProcessedLogEntry struct {
	IP              string `json:"ip"`
	Timestamp       string `json:"timestamp"`
	Method          string `json:"method"`
	Path            string `json:"path"`
	Protocol        string `json:"protocol"`
	Status          int    `json:"status"`
	Bytes           int64  `json:"bytes"`
	Referrer        string `json:"referrer"`
	UserAgent       string `json:"user_agent"`
	Host            string `json:"host"`
	ServerIP        string `json:"server_ip"`
	SuspicionReason string `json:"suspicion_reason"`
	AttackType      string `json:"attack_type"`
}
