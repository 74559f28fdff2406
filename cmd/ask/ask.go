// Package ask provides the interactive "boatkit ask" command.
package ask

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klytics/boatkit/internal/config"
	"github.com/klytics/boatkit/internal/enrich"
	"github.com/klytics/boatkit/internal/logger"
	"github.com/klytics/boatkit/internal/shell"
)

// NewCommand returns the ask subcommand. With arguments it describes a single
// boat type and exits; without, it opens an interactive prompt.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [boat type]",
		Short: "Look up boat types interactively",
		Long: `Describe boat types without touching a spreadsheet.

Pass a boat type to get a single answer, or run without arguments for an
interactive prompt.`,
		Example: `  boatkit ask Catamaran
  boatkit ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, _ := cmd.Flags().GetString("model")
			endpoint, _ := cmd.Flags().GetString("endpoint")
			verbose, _ := cmd.Flags().GetBool("verbose")

			cfg, err := config.Require(model, endpoint)
			if err != nil {
				return err
			}

			level := cfg.LogLevel
			if verbose {
				level = "debug"
			}
			client := enrich.NewClient(cfg, enrich.WithLogger(logger.New(os.Stderr, level, cfg.LogFormat)))

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if len(args) > 0 {
				res := client.Describe(ctx, strings.Join(args, " "))
				fmt.Fprintln(cmd.OutOrStdout(), res.Description)
				if res.Degraded {
					return res.Cause
				}
				return nil
			}

			session := shell.NewSession(client)
			session.Out = cmd.OutOrStdout()
			return session.Run(ctx)
		},
	}
}
