// Package aggregator merges detector output into a labelled result set and derives summary
// statistics from it.
package aggregator

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

// ErrInvalidStatus is returned when a flagged entry carries a non-numeric status.
// The parser only admits three-digit statuses, so this indicates a broken detector.
var ErrInvalidStatus = errors.New("invalid status code")

// Process coerces the numeric fields of flagged entries and labels them with attackType.
// The output keeps the input order.
func Process(suspicious []model.SuspiciousEntry, attackType string) ([]model.ProcessedLogEntry, error) {
	out := make([]model.ProcessedLogEntry, 0, len(suspicious))
	for i := range suspicious {
		p, err := ProcessEntry(suspicious[i], attackType)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ProcessEntry converts one flagged entry.
func ProcessEntry(s model.SuspiciousEntry, attackType string) (model.ProcessedLogEntry, error) {
	status, err := strconv.Atoi(s.Status)
	if err != nil {
		return model.ProcessedLogEntry{}, fmt.Errorf("%w: %q from %s", ErrInvalidStatus, s.Status, s.IP)
	}
	return model.ProcessedLogEntry{
		IP:              s.IP,
		Timestamp:       s.Timestamp,
		Method:          s.Method,
		Path:            s.Path,
		Protocol:        s.Protocol,
		Status:          status,
		Bytes:           parseBytes(s.Bytes),
		Referrer:        s.Referrer,
		UserAgent:       s.UserAgent,
		Host:            s.Host,
		ServerIP:        s.ServerIP,
		SuspicionReason: s.SuspicionReason,
		AttackType:      attackType,
	}, nil
}

// parseBytes maps "-" and anything non-numeric to zero.
func parseBytes(raw string) int64 {
	if raw == "-" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
