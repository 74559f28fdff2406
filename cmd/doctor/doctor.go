// Package doctor provides the "boatkit doctor" command for checking setup.
package doctor

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/boatkit/internal/config"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that boatkit is configured",
		Long:  "Run diagnostic checks on the API key, config file and endpoint boatkit will use.",
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := runChecks(config.Options{})
			out := cmd.OutOrStdout()

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(checks)
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Fprintln(out, "boatkit doctor")
			fmt.Fprintln(out, "==============")
			fmt.Fprintln(out)

			okCount, warnCount, errCount := 0, 0, 0
			for _, c := range checks {
				var icon string
				switch c.Status {
				case "ok":
					icon = green("✓")
					okCount++
				case "warning":
					icon = yellow("!")
					warnCount++
				case "error":
					icon = red("✗")
					errCount++
				}
				fmt.Fprintf(out, "  %s %s: %s\n", icon, c.Name, c.Message)
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

			if errCount > 0 {
				return fmt.Errorf("%d check(s) failed", errCount)
			}
			return nil
		},
	}
}

func runChecks(opts config.Options) []Check {
	checks := []Check{{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}}

	dir := opts.Dir
	if dir == "" {
		dir = config.Dir()
	}
	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); err == nil {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: configFile})
	} else {
		checks = append(checks, Check{Name: "Config File", Status: "warning", Message: configFile + " not found, using defaults"})
	}

	dotEnv := opts.DotEnv
	if dotEnv == "" {
		dotEnv = ".env"
	}
	if _, err := os.Stat(dotEnv); err == nil {
		checks = append(checks, Check{Name: ".env File", Status: "ok", Message: dotEnv})
	} else {
		checks = append(checks, Check{Name: ".env File", Status: "warning", Message: "no .env in the working directory"})
	}

	cfg, err := config.Load(opts)
	if err != nil {
		return append(checks, Check{Name: "Configuration", Status: "error", Message: err.Error()})
	}

	if err := cfg.Validate(); err != nil {
		checks = append(checks, Check{Name: "API Key", Status: "error", Message: err.Error()})
	} else {
		checks = append(checks, Check{Name: "API Key", Status: "ok", Message: "PERPLEXITY_API_KEY set"})
	}

	if u, err := url.Parse(cfg.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		checks = append(checks, Check{Name: "Endpoint", Status: "error", Message: fmt.Sprintf("invalid URL %q", cfg.Endpoint)})
	} else {
		checks = append(checks, Check{Name: "Endpoint", Status: "ok", Message: cfg.Endpoint})
	}

	checks = append(checks, Check{Name: "Model", Status: "ok", Message: cfg.Model})
	return checks
}
