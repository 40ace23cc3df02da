package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sjsage522/jobworker/helpers"
	"sjsage522/jobworker/internal"
	"sjsage522/jobworker/internal/crawler"
	"sjsage522/jobworker/services/worker"
)

// summaryRows is how many ranked jobs a one-shot run prints
const summaryRows = 20

// runContext returns a context canceled by SIGINT, SIGTERM or the --timeout flag
func runContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if Flags.Timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, Flags.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func newWorker(ctx context.Context, deps *internal.Dependencies, sendDigest bool) *worker.Worker {
	return worker.NewWorker(
		ctx,
		crawler.CreateScraper(cfg),
		deps,
		helpers.NewLogger(cfg.ErrorLogFile),
		worker.Options{
			BoardURL:      cfg.BoardURL,
			CrawlInterval: cfg.CrawlInterval,
			RunLockTTL:    cfg.RunLockTTL,
			DigestMaxRows: cfg.DigestMaxRows,
			SendDigest:    sendDigest,
			Environment:   cfg.Environment,
		},
	)
}

// runOnce performs a single run and prints its summary to the command output
func runOnce(cmd *cobra.Command, deps *internal.Dependencies, sendDigest bool) error {
	ctx, cancel := runContext(cmd.Context())
	defer cancel()

	result, err := newWorker(ctx, deps, sendDigest).RunOnce()
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), result, summaryRows)
	return nil
}

func printSummary(out io.Writer, result *crawler.Result, rows int) {
	fmt.Fprintf(out, "Run %s: %d candidates, %d new, %d jobs, %d exceptions\n",
		result.RunID, result.Candidates, result.New, len(result.Jobs), len(result.Exceptions))
	if len(result.Jobs) == 0 {
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tTITLE\tCOMPANY\tURL")
	for i, job := range result.Jobs {
		if i == rows {
			break
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", job.Score, job.Title, job.Company, job.URL)
	}
	tw.Flush()

	if extra := len(result.Jobs) - rows; extra > 0 {
		fmt.Fprintf(out, "...and %d more\n", extra)
	}
}
