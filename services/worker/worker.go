package worker

import (
	"context"
	"errors"
	"time"

	"sjsage522/jobworker/helpers"
	"sjsage522/jobworker/internal"
	"sjsage522/jobworker/internal/crawler"
	"sjsage522/jobworker/logger"
	"sjsage522/jobworker/services/cache"
	"sjsage522/jobworker/services/mailer"
	"sjsage522/jobworker/services/publisher"
)

// ErrRunInProgress is returned by RunOnce when another worker holds the run lock
var ErrRunInProgress = errors.New("another run is in progress for this board")

// Scraper runs one scrape of a board
type Scraper interface {
	Scrape(ctx context.Context, boardURL string, previous []crawler.ItemRecord) (*crawler.Result, error)
}

// Options configures a Worker
type Options struct {
	BoardURL      string
	CrawlInterval time.Duration
	RunLockTTL    time.Duration
	DigestMaxRows int
	SendDigest    bool
	Environment   string
}

// Worker handles the scraping, storing and publishing process
type Worker struct {
	ctx     context.Context
	scraper Scraper
	deps    *internal.Dependencies
	guard   *cache.RunGuard
	logger  helpers.LoggerInterface
	opts    Options
	log     *logger.Logger
}

// NewWorker creates a new worker
func NewWorker(
	ctx context.Context,
	scraper Scraper,
	deps *internal.Dependencies,
	errLogger helpers.LoggerInterface,
	opts Options,
) *Worker {
	return &Worker{
		ctx:     ctx,
		scraper: scraper,
		deps:    deps,
		guard:   cache.NewRunGuard(deps.Cache, opts.RunLockTTL),
		logger:  errLogger,
		opts:    opts,
		log:     logger.ForWorker(),
	}
}

// Start runs the worker every CrawlInterval until the context is canceled
func (w *Worker) Start() error {
	for {
		start := time.Now()
		if _, err := w.RunOnce(); err != nil {
			if w.ctx.Err() != nil {
				return nil
			}
			if !errors.Is(err, ErrRunInProgress) {
				w.logger.LogError("Worker", err)
			}
		}
		if w.opts.Environment != "production" {
			w.logger.LogInfo("Run took %s", time.Since(start))
		}

		select {
		case <-w.ctx.Done():
			return nil
		case <-time.After(w.opts.CrawlInterval):
		}
	}
}

// RunOnce takes the run lock, scrapes the board against the stored jobs,
// stores both tables, then publishes the new jobs and sends the digest.
// Publishing and mail failures are logged and do not fail the run.
func (w *Worker) RunOnce() (*crawler.Result, error) {
	board := w.opts.BoardURL

	acquired, err := w.guard.Acquire(board)
	if err != nil {
		// lock backend unavailable, run unguarded
		w.logger.LogError("RunLock", err)
		acquired = true
	}
	if !acquired {
		w.log.Info().Str("board", board).Msg("Run skipped, lock held elsewhere")
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := w.guard.Release(board); err != nil {
			w.logger.LogError("RunLock", err)
		}
	}()

	previous, err := w.deps.Store.LoadJobs(w.ctx)
	if err != nil {
		return nil, err
	}
	w.log.Info().Int("previous", len(previous)).Msg("Loaded previous jobs")

	result, err := w.scraper.Scrape(w.ctx, board, previous)
	if err != nil {
		return nil, err
	}

	if err := w.deps.Store.AppendJobs(w.ctx, result.RunID, result.Jobs); err != nil {
		return result, err
	}
	if err := w.deps.Store.AppendExceptions(w.ctx, result.RunID, result.Exceptions); err != nil {
		return result, err
	}

	w.publish(result)
	w.sendDigest(result)

	w.log.Info().
		Str("run_id", result.RunID).
		Int("candidates", result.Candidates).
		Int("new", result.New).
		Int("jobs", len(result.Jobs)).
		Int("exceptions", len(result.Exceptions)).
		Msg("Run finished")

	return result, nil
}

// publish sends the new jobs to the stream and trims it
func (w *Worker) publish(result *crawler.Result) {
	if w.deps.Publisher == nil || len(result.Jobs) == 0 {
		return
	}

	if _, err := publisher.PublishJobs(w.deps.Publisher, result.RunID, result.Jobs); err != nil {
		w.logger.LogError("Publisher", err)
	}

	if err := w.deps.Publisher.TrimStreams(); err != nil {
		w.logger.LogError("StreamTrimming", err)
	}
}

// sendDigest mails a summary of the scored jobs
func (w *Worker) sendDigest(result *crawler.Result) {
	if !w.opts.SendDigest || w.deps.Mailer == nil {
		return
	}

	digest, ok := mailer.BuildDigest(result.Jobs, w.opts.DigestMaxRows)
	if !ok {
		w.logger.LogInfo("No new jobs found. No email sent.")
		return
	}

	if err := w.deps.Mailer.Send(w.ctx, digest.Subject, digest.Body); err != nil {
		w.logger.LogError("Digest", err)
		return
	}
	w.logger.LogInfo("Sent digest of %d jobs", digest.Count)
}
