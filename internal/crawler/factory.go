package crawler

import (
	"sjsage522/jobworker/config"
	"sjsage522/jobworker/helpers"
	"sjsage522/jobworker/logger"
)

// CreateScraper wires fetcher, listing crawler, scorer and extractor from
// the configuration
func CreateScraper(cfg *config.Config) *JobScraper {
	client := helpers.NewHTTPClient(cfg.FetchTimeout)
	fetcher := NewPageFetcher(client, cfg.UserAgent, cfg.FetchDelay)

	lister := NewListingCrawler(fetcher, cfg.ItemBaseURL, cfg.MaxPages)
	scorer := NewScorer(cfg.Keywords)
	extractor := NewItemExtractor(fetcher, scorer, cfg.WrapWidth)

	logger.ForCrawler("factory").Info().
		Str("item_base_url", cfg.ItemBaseURL).
		Dur("delay", cfg.FetchDelay).
		Int("max_pages", cfg.MaxPages).
		Strs("keywords", scorer.Keywords()).
		Msg("Created job scraper")

	return NewJobScraper(lister, extractor)
}
