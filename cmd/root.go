// Package cmd contains all CLI commands for the boatkit binary.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/boatkit/cmd/ask"
	"github.com/klytics/boatkit/cmd/completion"
	"github.com/klytics/boatkit/cmd/doctor"
	"github.com/klytics/boatkit/cmd/version"
	cmdwatch "github.com/klytics/boatkit/cmd/watch"
	"github.com/klytics/boatkit/internal/output"
)

var (
	jsonOutput bool
	verbose    bool
	noColor    bool
	modelName  string
	endpoint   string
	logFormat  string
)

// NewRootCommand creates the root command. Run without a subcommand it
// performs one enrichment pass over a workbook.
func NewRootCommand() *cobra.Command {
	var flags runFlags

	rootCmd := &cobra.Command{
		Use:   "boatkit",
		Short: "Fill a spreadsheet with descriptions of boat types",
		Long: `boatkit reads boat type names from an Excel sheet, asks the Perplexity
chat completions API to describe each one, and writes the answers into a
column of the same sheet.

The API key is read from PERPLEXITY_API_KEY (environment or .env file).
QUERY_TEMPLATE overrides the prompt; {BOAT_TYPE} is replaced by the boat type.`,
		Example: `  boatkit -f data.xlsx -s "Boat Data" -c "Boat Type" -t "Details"
  boatkit --create --list "Yacht,Sailboat,Catamaran" -o boats.xlsx`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrich(cmd, flags)
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print a machine-readable run summary instead of progress text")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "", "Model identifier override (default from BOATKIT_MODEL or config)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Chat completions endpoint override")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text | json")

	rf := rootCmd.Flags()
	rf.StringVarP(&flags.file, "file", "f", "", "Path to the Excel file")
	rf.StringVarP(&flags.sheet, "sheet", "s", "Sheet1", "Name of the sheet containing the boat types")
	rf.StringVarP(&flags.column, "column", "c", "Boat Type", "Name of the column containing boat types")
	rf.StringVarP(&flags.target, "target", "t", "Information", "Name of the column to write information to")
	rf.IntVarP(&flags.delay, "delay", "d", 1000, "Delay between API calls (in milliseconds)")
	rf.BoolVar(&flags.create, "create", false, "Create a new file with the specified boat types")
	rf.StringVarP(&flags.list, "list", "l", "", "Comma-separated list of boat types (for creating a new file)")
	rf.StringVarP(&flags.output, "output", "o", "boat-types.xlsx", "Output file path for the new Excel file")
	rf.StringVar(&flags.report, "report", "", "Write a run summary to this .yaml or .json file")

	rootCmd.AddCommand(ask.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(version.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))

	return rootCmd
}

// Execute runs the root command and exits non-zero on any error.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		if jsonOutput {
			_ = output.PrintJSONError(os.Stdout, commandName(rootCmd), err, output.ExitFailure)
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), err)
		os.Exit(output.ExitFailure)
	}
}

func commandName(root *cobra.Command) string {
	cmd, _, err := root.Find(os.Args[1:])
	if err != nil || cmd == nil {
		return root.Name()
	}
	return cmd.CommandPath()
}
