// Package pipeline runs an enrichment pass over a workbook: load the rows,
// describe each subject in turn, then write every description back at once.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/klytics/boatkit/internal/config"
	"github.com/klytics/boatkit/internal/enrich"
	"github.com/klytics/boatkit/internal/formats/xlsx"
	"github.com/klytics/boatkit/internal/logger"
	"github.com/klytics/boatkit/internal/report"
)

// Describer produces a description for one subject. Implementations absorb
// their own failures into a degraded Result.
type Describer interface {
	Describe(ctx context.Context, subject string) enrich.Result
}

// Progress is told the row count once rows are loaded, then notified once per processed row.
type Progress interface {
	Start(total int)
	Increment(status string)
}

// Options configures a run.
type Options struct {
	// File is the workbook to read and update. Ignored when Create is set.
	File   string
	Sheet  string
	Column string
	Target string

	// Create builds a new workbook at Output from Subjects and enriches it.
	Create   bool
	Subjects []string
	Output   string

	Describer Describer
	Pacer     Pacer
	Progress  Progress
	Logger    *slog.Logger
	RunID     string
	Model     string

	// Out receives human-readable narration. Nil discards it.
	Out io.Writer
}

// Run executes one enrichment pass. Errors while loading rows or writing the
// workbook end the run; per-subject API failures do not. The workbook is only
// written after every row has been processed, so an aborted run leaves it unchanged.
func Run(ctx context.Context, opts Options) (*report.Summary, error) {
	if opts.Describer == nil {
		return nil, errors.New("pipeline: no describer configured")
	}
	if opts.Pacer == nil {
		opts.Pacer = NoDelay
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.RunID == "" {
		opts.RunID = logger.NewRunID()
	}
	log := logger.WithRun(opts.Logger, opts.RunID)

	start := time.Now()

	rows, err := loadRows(&opts)
	if err != nil {
		return nil, err
	}
	log.Debug("rows loaded", "file", opts.File, "sheet", opts.Sheet, "count", len(rows))

	summary := &report.Summary{
		RunID:     opts.RunID,
		File:      opts.File,
		Sheet:     opts.Sheet,
		Target:    opts.Target,
		Model:     opts.Model,
		Created:   opts.Create,
		StartedAt: start,
	}

	if opts.Progress != nil {
		opts.Progress.Start(len(rows))
	}

	fmt.Fprintln(opts.Out, "Fetching information from Perplexity API...")
	entries := make([]xlsx.Entry, 0, len(rows))
	for i, row := range rows {
		fmt.Fprintf(opts.Out, "[%d/%d] Processing: %s\n", i+1, len(rows), row.Subject)

		res := opts.Describer.Describe(ctx, row.Subject)
		entries = append(entries, xlsx.Entry{Row: row.ID, Subject: row.Subject, Description: res.Description})

		outcome := report.Outcome{Row: row.ID, Subject: row.Subject, Degraded: res.Degraded}
		if res.Cause != nil {
			outcome.Error = res.Cause.Error()
		}
		summary.Add(outcome)
		log.Debug("row processed", "row", row.ID, "subject", row.Subject, "degraded", res.Degraded)
		if opts.Progress != nil {
			opts.Progress.Increment(row.Subject)
		}

		if i < len(rows)-1 {
			if d, ok := opts.Pacer.(FixedDelay); ok && d > 0 {
				fmt.Fprintf(opts.Out, "Waiting %dms before next request...\n", d.Duration().Milliseconds())
			}
			if err := opts.Pacer.Wait(ctx); err != nil {
				return nil, fmt.Errorf("run interrupted after %d of %d rows: %w", i+1, len(rows), err)
			}
		}
	}

	fmt.Fprintf(opts.Out, "Updating %s with the retrieved information...\n", opts.File)
	if err := xlsx.Update(opts.File, opts.Sheet, opts.Target, entries); err != nil {
		return nil, err
	}
	fmt.Fprintf(opts.Out, "Successfully updated %d rows in %s\n", len(entries), opts.File)

	summary.DurationMs = time.Since(start).Milliseconds()
	log.Info("run complete", "file", opts.File, "enriched", summary.Enriched, "degraded", summary.Degraded)

	return summary, nil
}

// loadRows either creates the workbook from the subject list or scans the
// existing one. In create mode it points opts at the new file and sheet.
func loadRows(opts *Options) ([]xlsx.Row, error) {
	if opts.Create {
		if len(opts.Subjects) == 0 {
			return nil, config.MissingArgument("list", "is required when using --create")
		}
		if opts.Output == "" {
			return nil, config.MissingArgument("output", "is required when using --create")
		}

		fmt.Fprintf(opts.Out, "Creating a new Excel file with %d boat types...\n", len(opts.Subjects))
		if err := xlsx.Create(opts.Output, opts.Subjects); err != nil {
			return nil, err
		}
		fmt.Fprintf(opts.Out, "Created new Excel file at %s with %d boat types\n", opts.Output, len(opts.Subjects))

		opts.File = opts.Output
		opts.Sheet = xlsx.CreatedSheet
		return xlsx.RowsFromList(opts.Subjects), nil
	}

	if opts.File == "" {
		return nil, config.MissingArgument("file", "is required when processing an existing file")
	}

	fmt.Fprintf(opts.Out, "Reading boat types from %s, sheet %s, column %s...\n", opts.File, opts.Sheet, opts.Column)
	rows, err := xlsx.ReadSubjects(opts.File, opts.Sheet, opts.Column)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(opts.Out, "Found %d boat types.\n", len(rows))
	return rows, nil
}
