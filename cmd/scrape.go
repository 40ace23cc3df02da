package cmd

import (
	"github.com/spf13/cobra"

	"sjsage522/jobworker/internal"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run the pipeline once and store the results",
	Long: `Crawls the board once, extracts and scores every posting not already in the
store, then appends the jobs and exceptions tables. No digest is sent.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := internal.InitializeServices(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer deps.Cleanup()

		return runOnce(cmd, deps, false)
	},
}
