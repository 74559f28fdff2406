package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/boatkit/internal/config"
	"github.com/klytics/boatkit/internal/enrich"
	"github.com/klytics/boatkit/internal/formats/xlsx"
	"github.com/klytics/boatkit/internal/logger"
	"github.com/klytics/boatkit/internal/output"
	"github.com/klytics/boatkit/internal/pipeline"
	"github.com/klytics/boatkit/internal/progress"
	"github.com/klytics/boatkit/internal/report"
)

type runFlags struct {
	file   string
	sheet  string
	column string
	target string
	delay  int
	create bool
	list   string
	output string
	report string
}

// validate checks the arguments that must be settled before any work starts.
func (f runFlags) validate() error {
	if f.delay < 0 {
		return fmt.Errorf("--delay must not be negative, got %d", f.delay)
	}
	if f.create {
		if len(xlsx.SplitList(f.list, ",")) == 0 {
			return config.MissingArgument("list", "is required when using --create")
		}
		return nil
	}
	if f.file == "" {
		return config.MissingArgument("file", "is required when processing an existing file")
	}
	if _, err := os.Stat(f.file); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", xlsx.ErrInputNotFound, f.file)
	}
	return nil
}

func runEnrich(cmd *cobra.Command, f runFlags) error {
	cfg, err := config.Require(modelName, endpoint)
	if err != nil {
		return err
	}
	if err := f.validate(); err != nil {
		return err
	}

	log := newLogger(cfg)
	client := enrich.NewClient(cfg, enrich.WithLogger(log))

	opts := pipeline.Options{
		File:      f.file,
		Sheet:     f.sheet,
		Column:    f.column,
		Target:    f.target,
		Create:    f.create,
		Subjects:  xlsx.SplitList(f.list, ","),
		Output:    f.output,
		Describer: client,
		Pacer:     pipeline.FixedDelay(time.Duration(f.delay) * time.Millisecond),
		Logger:    log,
		Model:     client.Model(),
		Out:       cmd.OutOrStdout(),
	}

	var bar *progress.Bar
	if jsonOutput {
		// stdout carries the JSON summary; show a bar on stderr instead
		opts.Out = io.Discard
		bar = progress.New("Enriching", 0)
		opts.Progress = bar
	}

	summary, err := pipeline.Run(cmdContext(cmd), opts)
	if err != nil {
		return err
	}
	if bar != nil {
		bar.Finish(fmt.Sprintf("%d enriched, %d degraded", summary.Enriched, summary.Degraded))
	}

	if f.report != "" {
		if err := report.WriteFile(f.report, summary); err != nil {
			return err
		}
	}

	if jsonOutput {
		return output.PrintJSON(cmd.OutOrStdout(), cmd.CommandPath(), summary)
	}

	fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Process completed successfully!"))
	if summary.Degraded > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("%d of %d boat types could not be fetched; placeholders were written.",
			summary.Degraded, summary.Degraded+summary.Enriched))
	}
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	format := cfg.LogFormat
	if logFormat != "" {
		format = logFormat
	}
	return logger.New(os.Stderr, level, format)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
