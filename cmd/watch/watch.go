// Package watch provides the "boatkit watch" command.
package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/boatkit/internal/config"
	"github.com/klytics/boatkit/internal/enrich"
	"github.com/klytics/boatkit/internal/logger"
	"github.com/klytics/boatkit/internal/pipeline"
	w "github.com/klytics/boatkit/internal/watch"
)

// NewCommand creates the "watch" command.
func NewCommand() *cobra.Command {
	var (
		sheet     string
		column    string
		target    string
		delay     int
		pattern   string
		recursive bool
		debounce  int
	)

	cmd := &cobra.Command{
		Use:   "watch <directory> [directory...]",
		Short: "Enrich every workbook dropped into a directory",
		Long: `Watch directories for new or modified .xlsx files and run the
enrichment pass on each one as it arrives. Files are processed one at a time;
the write-back of a processed file does not trigger it again.

Press Ctrl+C to stop.`,
		Example: `  boatkit watch ./inbox
  boatkit watch ./inbox --sheet "Boat Data" --target Details --pattern "fleet_*"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, _ := cmd.Flags().GetString("model")
			endpoint, _ := cmd.Flags().GetString("endpoint")
			verbose, _ := cmd.Flags().GetBool("verbose")
			logFormat, _ := cmd.Flags().GetString("log-format")

			cfg, err := config.Require(model, endpoint)
			if err != nil {
				return err
			}
			if delay < 0 {
				return fmt.Errorf("--delay must not be negative, got %d", delay)
			}
			for _, dir := range args {
				if info, err := os.Stat(dir); err != nil || !info.IsDir() {
					return fmt.Errorf("not a directory: %s", dir)
				}
			}

			level, format := cfg.LogLevel, cfg.LogFormat
			if verbose {
				level = "debug"
			}
			if logFormat != "" {
				format = logFormat
			}
			log := logger.New(os.Stderr, level, format)
			client := enrich.NewClient(cfg, enrich.WithLogger(log))

			handler := func(ctx context.Context, path string) error {
				summary, err := pipeline.Run(ctx, pipeline.Options{
					File:      path,
					Sheet:     sheet,
					Column:    column,
					Target:    target,
					Describer: client,
					Pacer:     pipeline.FixedDelay(time.Duration(delay) * time.Millisecond),
					Logger:    log,
					Model:     client.Model(),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d enriched, %d degraded\n", path, summary.Enriched, summary.Degraded)
				return nil
			}

			watcher, err := w.New(w.Config{
				Directories: args,
				Recursive:   recursive,
				Debounce:    time.Duration(debounce) * time.Millisecond,
				Pattern:     pattern,
			}, handler)
			if err != nil {
				return err
			}
			watcher.Logger = log

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %d directory(ies). Press Ctrl+C to stop.\n", len(args))
			return watcher.Start(ctx)
		},
	}

	cmd.Flags().StringVarP(&sheet, "sheet", "s", "Sheet1", "Name of the sheet containing the boat types")
	cmd.Flags().StringVarP(&column, "column", "c", "Boat Type", "Name of the column containing boat types")
	cmd.Flags().StringVarP(&target, "target", "t", "Information", "Name of the column to write information to")
	cmd.Flags().IntVarP(&delay, "delay", "d", 1000, "Delay between API calls (in milliseconds)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Only process files whose name matches this glob")
	cmd.Flags().BoolVar(&recursive, "recursive", false, "Watch subdirectories too")
	cmd.Flags().IntVar(&debounce, "debounce", 500, "Milliseconds a file must stay unchanged before it is processed")

	return cmd
}
