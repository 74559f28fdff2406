// Package output provides the JSON result envelope and exit codes shared by all commands.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/klytics/boatkit/cmd/version"
)

// Exit codes for consistent error reporting.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// JSONResult is the standard JSON output envelope for all commands.
type JSONResult struct {
	OK      bool        `json:"ok"`
	Command string      `json:"command"`
	Version string      `json:"version"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    int         `json:"code,omitempty"`
}

// PrintJSON writes a success envelope to w.
func PrintJSON(w io.Writer, cmd string, data interface{}) error {
	return encode(w, JSONResult{
		OK:      true,
		Command: cmd,
		Version: version.Version,
		Data:    data,
	})
}

// PrintJSONError writes a failure envelope to w.
func PrintJSONError(w io.Writer, cmd string, err error, code int) error {
	if encErr := encode(w, JSONResult{
		OK:      false,
		Command: cmd,
		Version: version.Version,
		Error:   err.Error(),
		Code:    code,
	}); encErr != nil {
		return fmt.Errorf("could not encode JSON error: %w", encErr)
	}
	return nil
}

func encode(w io.Writer, v JSONResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
