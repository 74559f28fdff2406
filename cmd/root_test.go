package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/boatkit/internal/config"
	"github.com/klytics/boatkit/internal/formats/xlsx"
	"github.com/klytics/boatkit/internal/output"
)

// isolate points HOME and the working directory at a fresh temp dir so no
// real config or .env leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("BOATKIT_NO_PROGRESS", "1")
	for _, name := range []string{"PERPLEXITY_API_KEY", "QUERY_TEMPLATE", "BOATKIT_MODEL", "BOATKIT_ENDPOINT", "BOATKIT_LOG_LEVEL", "BOATKIT_LOG_FORMAT"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func execute(args ...string) (string, error) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	if args == nil {
		// a nil slice makes cobra fall back to os.Args
		args = []string{}
	}
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// fakeAPI answers every completion with "About <prompt>".
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, "About "+req.Messages[0].Content)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRootFlagDefaults(t *testing.T) {
	root := NewRootCommand()
	defaults := map[string]string{
		"sheet":  "Sheet1",
		"column": "Boat Type",
		"target": "Information",
		"delay":  "1000",
		"output": "boat-types.xlsx",
		"create": "false",
	}
	for name, want := range defaults {
		f := root.Flags().Lookup(name)
		if f == nil {
			t.Fatalf("flag --%s not registered", name)
		}
		if f.DefValue != want {
			t.Errorf("--%s default = %q, want %q", name, f.DefValue, want)
		}
	}

	shorts := map[string]string{"f": "file", "s": "sheet", "c": "column", "t": "target", "d": "delay", "l": "list", "o": "output"}
	for short, long := range shorts {
		f := root.Flags().ShorthandLookup(short)
		if f == nil || f.Name != long {
			t.Errorf("-%s should alias --%s", short, long)
		}
	}
}

func TestRunMissingAPIKey(t *testing.T) {
	isolate(t)

	_, err := execute("--create", "--list", "Yacht")
	if !errors.Is(err, config.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if _, statErr := os.Stat("boat-types.xlsx"); !os.IsNotExist(statErr) {
		t.Error("no workbook should be created without a key")
	}
}

func TestRunArgumentErrors(t *testing.T) {
	isolate(t)
	t.Setenv("PERPLEXITY_API_KEY", "test-key")

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"create without list", []string{"--create"}, config.ErrMissingArgument},
		{"create with blank list", []string{"--create", "--list", " , "}, config.ErrMissingArgument},
		{"no file", nil, config.ErrMissingArgument},
		{"missing file", []string{"-f", "nope.xlsx"}, xlsx.ErrInputNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(tt.args...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRunNegativeDelay(t *testing.T) {
	isolate(t)
	t.Setenv("PERPLEXITY_API_KEY", "test-key")

	_, err := execute("--create", "--list", "Yacht", "--delay", "-5")
	if err == nil || !strings.Contains(err.Error(), "--delay") {
		t.Fatalf("expected delay error, got %v", err)
	}
}

func TestRunCreateEndToEnd(t *testing.T) {
	dir := isolate(t)
	t.Setenv("PERPLEXITY_API_KEY", "test-key")
	t.Setenv("QUERY_TEMPLATE", "{BOAT_TYPE}")
	srv := fakeAPI(t)

	path := filepath.Join(dir, "fleet.xlsx")
	out, err := execute("--create", "-l", "Yacht, Sailboat", "-o", path, "-d", "0", "--endpoint", srv.URL)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, want := range []string{
		"Created new Excel file",
		"[1/2] Processing: Yacht",
		"[2/2] Processing: Sailboat",
		"Process completed successfully!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(xlsx.CreatedSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %v", rows)
	}
	if rows[1][1] != "About Yacht" || rows[2][1] != "About Sailboat" {
		t.Errorf("unexpected descriptions: %v", rows)
	}
}

func TestRunJSONAndReport(t *testing.T) {
	dir := isolate(t)
	t.Setenv("PERPLEXITY_API_KEY", "test-key")
	srv := fakeAPI(t)

	path := filepath.Join(dir, "fleet.xlsx")
	reportPath := filepath.Join(dir, "run.json")
	out, err := execute("--json", "--create", "-l", "Dinghy", "-o", path, "-d", "0",
		"--endpoint", srv.URL, "--report", reportPath)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var result output.JSONResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("stdout is not a JSON envelope: %v\n%s", err, out)
	}
	if !result.OK {
		t.Errorf("expected ok envelope, got %+v", result)
	}
	if strings.Contains(out, "Processing:") {
		t.Error("narration should not be mixed into JSON output")
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(data), `"enriched": 1`) {
		t.Errorf("report missing enriched count:\n%s", data)
	}
}
