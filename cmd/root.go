package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "ciwatch [pr-ref...]",
		Short: "Watch GitHub Actions progress for pull requests",
		Long: `Polls GitHub Actions for the latest workflow run of each watched pull
request and shows its status and step progress, refreshing on an interval.

Pull requests are given as owner/repo#123 or as pull request URLs, and
may also be listed under "watch:" in the config file.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Add watch flags to root command so `ciwatch` and `ciwatch watch` work identically
	addWatchFlags(rootCmd, opts)

	// Register subcommands
	rootCmd.AddCommand(NewCmdWatch(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdWorkflows())
	rootCmd.AddCommand(NewCmdVersion())
	rootCmd.AddCommand(NewCmdRateLimit())

	return rootCmd
}
