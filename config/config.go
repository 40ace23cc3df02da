package config

import (
	"net/url"
	"os"
	"strconv"
	"time"

	apperrors "sjsage522/jobworker/pkg/errors"
)

// Store drivers
const (
	StoreCSV    = "csv"
	StoreSQLite = "sqlite"
)

// Config represents the application configuration
type Config struct {
	// Job board
	BoardURL     string
	ItemBaseURL  string
	UserAgent    string
	FetchDelay   time.Duration
	FetchTimeout time.Duration
	MaxPages     int
	WrapWidth    int

	// Keyword scoring
	KeywordsFile string
	Keywords     []string

	// Storage
	StoreDriver    string
	ListingsFile   string
	ExceptionsFile string
	SQLitePath     string
	ErrorLogFile   string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string
	RunLockTTL   time.Duration

	// Worker configuration
	CrawlInterval time.Duration

	// Digest e-mail
	SMTPHost       string
	SMTPPort       int
	EmailSender    string
	EmailRecipient string
	EmailPassword  string
	DigestMaxRows  int

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		BoardURL:     getEnv("JOB_BOARD_URL", "https://jobs.biospace.com/searchjobs/?Keywords=Senior+Data+Scientist"),
		ItemBaseURL:  getEnv("JOB_ITEM_BASE_URL", "https://jobs.biospace.com"),
		UserAgent:    getEnv("JOB_USER_AGENT", "Mozilla/5.0 (compatible; JobScraper/1.0)"),
		FetchDelay:   time.Duration(getEnvInt("FETCH_DELAY_MS", 1000)) * time.Millisecond,
		FetchTimeout: time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxPages:     getEnvInt("MAX_PAGES", 0),
		WrapWidth:    getEnvInt("WRAP_WIDTH", 88),

		KeywordsFile: getEnv("KEYWORDS_FILE", ""),
		Keywords:     DefaultKeywords(),

		StoreDriver:    getEnv("STORE_DRIVER", StoreCSV),
		ListingsFile:   getEnv("LISTINGS_FILE", "job_listings.csv"),
		ExceptionsFile: getEnv("EXCEPTIONS_FILE", "job_exceptions.csv"),
		SQLitePath:     getEnv("SQLITE_PATH", "jobs.db"),
		ErrorLogFile:   getEnv("ERROR_LOG_FILE", "error.log"),

		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "jobs"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),

		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),
		RunLockTTL:   time.Duration(getEnvInt("RUN_LOCK_TTL_SECONDS", 3600)) * time.Second,

		CrawlInterval: time.Duration(getEnvInt("CRAWL_INTERVAL_SECONDS", 86400)) * time.Second,

		SMTPHost:       getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       getEnvInt("SMTP_PORT", 465),
		EmailSender:    getEnv("EMAIL_SENDER", ""),
		EmailRecipient: getEnv("EMAIL_RECIPIENT", ""),
		EmailPassword:  getEnv("EMAIL_PASSWORD", ""),
		DigestMaxRows:  getEnvInt("DIGEST_MAX_ROWS", 10),

		Environment: getEnv("JOBWORKER_ENVIRONMENT", "development"),
	}
}

// LoadKeywords replaces the built-in keyword list with the one in KeywordsFile, if set
func (c *Config) LoadKeywords() error {
	if c.KeywordsFile == "" {
		return nil
	}
	keywords, err := LoadKeywordsFile(c.KeywordsFile)
	if err != nil {
		return err
	}
	c.Keywords = keywords
	return nil
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.BoardURL == "" {
		return apperrors.NewConfiguration("JOB_BOARD_URL is empty", nil)
	}
	if _, err := url.ParseRequestURI(c.BoardURL); err != nil {
		return apperrors.NewConfiguration("JOB_BOARD_URL is not a valid URL", err)
	}
	if _, err := url.ParseRequestURI(c.ItemBaseURL); err != nil {
		return apperrors.NewConfiguration("JOB_ITEM_BASE_URL is not a valid URL", err)
	}
	if c.FetchDelay < 0 {
		return apperrors.NewConfiguration("FETCH_DELAY_MS must not be negative", nil)
	}
	if c.WrapWidth <= 0 {
		return apperrors.NewConfiguration("WRAP_WIDTH must be positive", nil)
	}
	if len(c.Keywords) == 0 {
		return apperrors.NewConfiguration("keyword list is empty", nil)
	}
	switch c.StoreDriver {
	case StoreCSV, StoreSQLite:
	default:
		return apperrors.NewConfiguration("unknown STORE_DRIVER "+c.StoreDriver, nil)
	}
	if c.RedisAddr != "" && c.RedisStreamCount <= 0 {
		return apperrors.NewConfiguration("REDIS_STREAM_COUNT must be positive", nil)
	}
	if c.CrawlInterval <= 0 {
		return apperrors.NewConfiguration("CRAWL_INTERVAL_SECONDS must be positive", nil)
	}
	return nil
}

// MailEnabled reports whether enough SMTP settings are present to send a digest
func (c *Config) MailEnabled() bool {
	return c.EmailSender != "" && c.EmailRecipient != "" && c.EmailPassword != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
