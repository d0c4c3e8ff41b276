package cmd

import (
	"fmt"
	"io"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/spf13/cobra"
	"github.com/spiffcs/ciwatch/config"
	"github.com/spiffcs/ciwatch/internal/ghclient"
)

// NewCmdRateLimit creates the ratelimit command.
func NewCmdRateLimit() *cobra.Command {
	return &cobra.Command{
		Use:   "ratelimit",
		Short: "Check GitHub API rate limit status",
		Long: `Display current GitHub API rate limit status including remaining quota and reset time.

Every watched pull request costs two to three core API requests per refresh.`,
		Args: cobra.NoArgs,
		RunE: runRateLimit,
	}
}

func runRateLimit(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	token := cfg.GetGitHubToken()
	if token == "" {
		return fmt.Errorf("GitHub token not configured. Set the GITHUB_TOKEN environment variable")
	}

	client, err := ghclient.NewClient(cmd.Context(), token, cfg.RequestTimeout)
	if err != nil {
		return err
	}

	limits, err := client.RateLimits(cmd.Context())
	if err != nil {
		return err
	}

	printRateLimits(cmd.OutOrStdout(), limits, time.Now())
	return nil
}

func printRateLimits(w io.Writer, limits *gh.RateLimits, now time.Time) {
	fmt.Fprintln(w, "GitHub API Rate Limits:")
	fmt.Fprintln(w)

	rows := []struct {
		label string
		rate  *gh.Rate
	}{
		{"Core API:  ", limits.GetCore()},
		{"Search API:", limits.GetSearch()},
		{"GraphQL:   ", limits.GetGraphQL()},
	}
	for _, r := range rows {
		if r.rate == nil {
			continue
		}
		resetIn := r.rate.Reset.Time.Sub(now).Round(time.Second)
		if resetIn < 0 {
			resetIn = 0
		}
		fmt.Fprintf(w, "%s %d/%d remaining (resets in %s)\n",
			r.label, r.rate.Remaining, r.rate.Limit, resetIn)
	}
}
