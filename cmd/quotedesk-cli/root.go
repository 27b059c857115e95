package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quotedesk/quotedesk/internal/client"
)

type options struct {
	apiURL    string
	token     string
	refresh   string
	redisAddr string
	logger    *slog.Logger
}

func (o *options) apiClient() *client.Client {
	return client.New(o.apiURL, client.NewCredentials(o.token, o.refresh), client.WithLogger(o.logger))
}

func newRootCmd(out io.Writer, logger *slog.Logger) *cobra.Command {
	opts := &options{logger: logger}
	root := &cobra.Command{
		Use:   "quotedesk-cli",
		Short: "Command-line access to quotations, invoices and housekeeping jobs",
		Long: `quotedesk-cli talks to the quotedesk API with the tokens from --token and
--refresh (or QUOTEDESK_TOKEN and QUOTEDESK_REFRESH, also read from .env).
Run "quotedesk-cli login" to obtain them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api", envOr("QUOTEDESK_API_URL", "http://localhost:8080"), "API base URL")
	flags.StringVar(&opts.token, "token", os.Getenv("QUOTEDESK_TOKEN"), "access token")
	flags.StringVar(&opts.refresh, "refresh", os.Getenv("QUOTEDESK_REFRESH"), "refresh token")
	flags.StringVar(&opts.redisAddr, "redis", envOr("REDIS_ADDR", "127.0.0.1:6379"), "Redis address used by the jobs commands")

	root.AddCommand(
		newLoginCmd(opts),
		newDocumentCmd(opts),
		newTotalsCmd(),
		newLatestNumberCmd(opts),
		newJobsCmd(opts),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
