package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"sjsage522/jobworker/config"
)

const appName = "jobworker"

// AppFlags holds the persistent flags that override the environment
type AppFlags struct {
	BoardURL    string
	StoreDriver string
	MaxPages    int
	Timeout     time.Duration
}

var (
	Flags AppFlags
	cfg   *config.Config
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Job board scraper with keyword scoring",
	Long: `Crawls a job board, extracts the structured data of every new posting,
scores it against a keyword list and stores the results as a jobs table and an
exceptions table.`,
	SilenceUsage:      true,
	PersistentPreRunE: initAppPreRunE,
}

func addAppPersistentFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&Flags.BoardURL, "url", "", "listing URL to crawl (overrides JOB_BOARD_URL)")
	root.PersistentFlags().StringVar(&Flags.StoreDriver, "store", "", "store driver: csv or sqlite (overrides STORE_DRIVER)")
	root.PersistentFlags().IntVar(&Flags.MaxPages, "max-pages", -1, "listing pages to visit, 0 for no limit (overrides MAX_PAGES)")
	root.PersistentFlags().DurationVar(&Flags.Timeout, "timeout", 0, "abort a single run after this long, 0 for no limit")
}

// initAppPreRunE loads the configuration, applies flag overrides and validates it
func initAppPreRunE(cmd *cobra.Command, args []string) error {
	c := config.LoadConfig()

	if Flags.BoardURL != "" {
		c.BoardURL = Flags.BoardURL
	}
	if Flags.StoreDriver != "" {
		c.StoreDriver = Flags.StoreDriver
	}
	if Flags.MaxPages >= 0 {
		c.MaxPages = Flags.MaxPages
	}

	if err := c.LoadKeywords(); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	cfg = c
	return nil
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	addAppPersistentFlags(rootCmd)
	rootCmd.AddCommand(scrapeCmd, digestCmd, workerCmd)
}
