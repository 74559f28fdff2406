// Package report records the outcome of an enrichment run and writes it as YAML or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Outcome is the result for a single row.
type Outcome struct {
	Row      int    `yaml:"row" json:"row"`
	Subject  string `yaml:"subject" json:"subject"`
	Degraded bool   `yaml:"degraded,omitempty" json:"degraded,omitempty"`
	Error    string `yaml:"error,omitempty" json:"error,omitempty"`
}

// Summary describes a completed run.
type Summary struct {
	RunID      string    `yaml:"run_id" json:"runId"`
	File       string    `yaml:"file" json:"file"`
	Sheet      string    `yaml:"sheet" json:"sheet"`
	Target     string    `yaml:"target" json:"target"`
	Model      string    `yaml:"model,omitempty" json:"model,omitempty"`
	Created    bool      `yaml:"created,omitempty" json:"created,omitempty"`
	StartedAt  time.Time `yaml:"started_at" json:"startedAt"`
	DurationMs int64     `yaml:"duration_ms" json:"durationMs"`
	Enriched   int       `yaml:"enriched" json:"enriched"`
	Degraded   int       `yaml:"degraded" json:"degraded"`
	Rows       []Outcome `yaml:"rows" json:"rows"`
}

// Add records the outcome for one row and updates the counters.
func (s *Summary) Add(o Outcome) {
	s.Rows = append(s.Rows, o)
	if o.Degraded {
		s.Degraded++
	} else {
		s.Enriched++
	}
}

// Format names a report encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks the encoding from a file extension. Unknown extensions get YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Encode writes s to w in the given format.
func Encode(w io.Writer, format Format, s *Summary) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q — supported formats: yaml, json", format)
	}
}

// WriteFile writes s to path, choosing the format from the extension.
func WriteFile(path string, s *Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create report %s: %w", path, err)
	}

	if err := Encode(f, FormatFor(path), s); err != nil {
		f.Close()
		return fmt.Errorf("could not write report %s: %w", path, err)
	}
	return f.Close()
}
