package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/custom"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/detector"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

const accessLog = `192.168.1.5 - - [10/Oct/2023:13:55:36 +0000] "GET /search?q=1'%20OR%20'1'='1 HTTP/1.1" 500 120 "-" "Mozilla/5.0 (X11; Linux x86_64)" example.com 10.0.0.1
203.0.113.7 - - [10/Oct/2023:13:56:01 +0000] "POST /wp-login.php HTTP/1.1" 401 0 "-" "python-requests/2.31" example.com 10.0.0.1
`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	viper.Set("custom.store_path", filepath.Join(t.TempDir(), "detectors.json"))
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func TestScanCommandJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	if err := os.WriteFile(path, []byte(accessLog), 0o644); err != nil {
		t.Fatal(err)
	}

	out := execute(t, "scan", path, "-o", "json", "--type", "brute-force,sql-injection")

	var results []model.ProcessedLogEntry
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	types := map[string]bool{}
	for _, r := range results {
		types[r.AttackType] = true
	}
	if !types["Brute Force"] || !types["SQL Injection"] {
		t.Errorf("unexpected attack types %v", types)
	}
}

func TestTypesCommand(t *testing.T) {
	out := execute(t, "types", "-o", "json")

	var types []model.AttackType
	if err := json.Unmarshal([]byte(out), &types); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(types) != 8 {
		t.Errorf("expected 8 built-in types, got %d", len(types))
	}
	if !strings.Contains(out, `"brute-force"`) {
		t.Errorf("expected brute-force endpoint in %q", out)
	}
}

func TestBuildRegistrySkipsNameCollisions(t *testing.T) {
	store, err := custom.NewStore(filepath.Join(t.TempDir(), "detectors.json"))
	if err != nil {
		t.Fatal(err)
	}
	code := `function detectCustomThreat(entries) { return []; }`
	for _, def := range []model.CustomDetector{
		{ID: "custom-sqli-1", Name: "SQL Injection", Code: code},
		{ID: "custom-admin-1", Name: "Admin Probe", Code: code},
		{ID: "custom-admin-2", Name: "Admin Probe", Code: code},
	} {
		if err := store.Put(def); err != nil {
			t.Fatal(err)
		}
	}

	reg, err := buildRegistry(store)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(reg.Endpoints()); n != 9 {
		t.Fatalf("expected 8 built-ins plus 1 custom, got %d: %v", n, reg.Endpoints())
	}
	if _, _, err := reg.Lookup("custom-sqli-1"); !errors.Is(err, detector.ErrUnknownDetector) {
		t.Errorf("expected custom detector shadowing a built-in to be skipped, got %v", err)
	}
	if err := checkNameFree(reg, "Admin Probe"); !errors.Is(err, detector.ErrDuplicateDetector) {
		t.Errorf("expected ErrDuplicateDetector, got %v", err)
	}
	if err := checkNameFree(reg, "Log4Shell"); err != nil {
		t.Errorf("expected free name, got %v", err)
	}
}
