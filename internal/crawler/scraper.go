package crawler

import (
	"context"

	"github.com/google/uuid"

	"sjsage522/jobworker/logger"
)

// Lister produces the candidate item URLs of a board
type Lister interface {
	Crawl(ctx context.Context, baseURL string) ([]string, error)
}

// Extractor builds the record of a single item URL
type Extractor interface {
	Extract(ctx context.Context, url string) (ItemRecord, error)
}

// JobScraper runs crawl, diff, extraction and aggregation for one board
type JobScraper struct {
	lister    Lister
	extractor Extractor
	log       *logger.Logger
}

// NewJobScraper creates a new job scraper
func NewJobScraper(lister Lister, extractor Extractor) *JobScraper {
	return &JobScraper{
		lister:    lister,
		extractor: extractor,
		log:       logger.ForCrawler("scrape"),
	}
}

// Scrape crawls boardURL, skips URLs already present in previous and
// extracts the rest. Every remaining URL ends up in exactly one of
// Result.Jobs or Result.Exceptions. A listing failure or a canceled
// context aborts the run.
func (s *JobScraper) Scrape(ctx context.Context, boardURL string, previous []ItemRecord) (*Result, error) {
	runID := uuid.NewString()
	log := s.log.WithFields(logger.Fields{"run_id": runID, "board": boardURL})

	candidates, err := s.lister.Crawl(ctx, boardURL)
	if err != nil {
		log.WithError(err).Error().Msg("Listing crawl failed")
		return nil, err
	}

	urls := FilterNew(candidates, PreviousURLs(previous))
	log.Info().
		Int("candidates", len(candidates)).
		Int("new", len(urls)).
		Int("skipped", len(candidates)-len(urls)).
		Msg("Filtered previously seen jobs")

	var records []ItemRecord
	var exceptions []ExceptionRecord
	for i, url := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := s.extractor.Extract(ctx, url)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Warn().Err(err).Int("item", i+1).Int("total", len(urls)).Str("url", url).Msg("Extraction failed")
			exceptions = append(exceptions, ExceptionRecord{URL: url, Message: err.Error()})
			continue
		}

		log.Info().
			Int("item", i+1).
			Int("total", len(urls)).
			Int("score", record.Score).
			Str("url", url).
			Msg("Extracted job")
		records = append(records, record)
	}

	jobs, exceptions := Aggregate(records, exceptions)
	log.Info().
		Int("jobs", len(jobs)).
		Int("exceptions", len(exceptions)).
		Msg("Scrape finished")

	return &Result{
		RunID:      runID,
		Candidates: len(candidates),
		New:        len(urls),
		Jobs:       jobs,
		Exceptions: exceptions,
	}, nil
}
