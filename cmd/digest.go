package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"sjsage522/jobworker/internal"
	apperrors "sjsage522/jobworker/pkg/errors"
	"sjsage522/jobworker/services/mailer"
)

var digestDryRun bool

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Run the pipeline once and e-mail a digest of the new jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := internal.InitializeServices(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer deps.Cleanup()

		if digestDryRun {
			deps.Mailer = &writerSender{out: cmd.OutOrStdout()}
		}
		if deps.Mailer == nil {
			return apperrors.NewConfiguration("EMAIL_SENDER, EMAIL_RECIPIENT and EMAIL_PASSWORD are required to send a digest", nil)
		}

		return runOnce(cmd, deps, true)
	},
}

// writerSender prints the digest instead of mailing it
type writerSender struct {
	out io.Writer
}

var _ mailer.Sender = (*writerSender)(nil)

func (s *writerSender) Send(ctx context.Context, subject, body string) error {
	_, err := fmt.Fprintf(s.out, "Subject: %s\n\n%s\n", subject, body)
	return err
}

func init() {
	digestCmd.Flags().BoolVar(&digestDryRun, "dry-run", false, "print the digest instead of sending it")
}
