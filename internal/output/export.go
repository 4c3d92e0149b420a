package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or csv)", s)
}

// CSVHeader is the fixed column order of exported results.
var CSVHeader = []string{
	"IP", "Timestamp", "Method", "Path", "Protocol", "Status", "Bytes",
	"Referrer", "User Agent", "Host", "Server IP", "Suspicion Reason", "Attack Type",
}

// WriteCSV writes a header row and one row per record, each terminated by "\n".
// Fields holding quotes, commas or newlines are quoted with inner quotes doubled.
func WriteCSV(w io.Writer, entries []model.ProcessedLogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	row := make([]string, len(CSVHeader))
	for i := range entries {
		e := &entries[i]
		row[0] = e.IP
		row[1] = e.Timestamp
		row[2] = e.Method
		row[3] = e.Path
		row[4] = e.Protocol
		row[5] = strconv.Itoa(e.Status)
		row[6] = strconv.FormatInt(e.Bytes, 10)
		row[7] = e.Referrer
		row[8] = e.UserAgent
		row[9] = e.Host
		row[10] = e.ServerIP
		row[11] = e.SuspicionReason
		row[12] = e.AttackType
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV returns the CSV export as a string.
func CSV(entries []model.ProcessedLogEntry) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, entries); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteJSON writes the records as a pretty-printed JSON array. An empty set encodes as [].
func WriteJSON(w io.Writer, entries []model.ProcessedLogEntry) error {
	if entries == nil {
		entries = []model.ProcessedLogEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(entries)
}

// JSON returns the JSON export as a string.
func JSON(entries []model.ProcessedLogEntry) (string, error) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, entries); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write encodes records in the given format. Text output uses a TextRenderer without colour
// lookups, one line per record.
func Write(w io.Writer, f Format, entries []model.ProcessedLogEntry) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, entries)
	case FormatJSON:
		return WriteJSON(w, entries)
	default:
		r := NewTextRenderer(w, nil)
		for _, e := range entries {
			if err := r.Render(e); err != nil {
				return err
			}
		}
		return nil
	}
}
